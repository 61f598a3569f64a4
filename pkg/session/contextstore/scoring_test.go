package contextstore

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"dialog-hq/meridian/pkg/clock"
	"dialog-hq/meridian/pkg/conversation"
)

// ============================================================================
// Importance Scoring Tests
// ============================================================================

func TestScoreMessage_FreshUserMessage(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	msg := conversation.NewMessage(conversation.RoleUser, strings.Repeat("x", 500), now)

	// Full length (1.0), user role (1.0), zero age (1.0).
	score := ScoreMessage(msg, now)
	if score < 0.999 || score > 1.001 {
		t.Errorf("Expected score ~1.0, got %.3f", score)
	}
}

func TestScoreMessage_RoleWeighting(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	user := conversation.NewMessage(conversation.RoleUser, "hi", now)
	assistant := conversation.NewMessage(conversation.RoleAssistant, "hi", now)

	diff := ScoreMessage(user, now) - ScoreMessage(assistant, now)
	// Role weight 0.4 times the 0.2 role gap.
	if diff < 0.079 || diff > 0.081 {
		t.Errorf("Expected user/assistant gap of 0.08, got %.3f", diff)
	}
}

func TestScoreMessage_RecencyDecay(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	fresh := conversation.NewMessage(conversation.RoleUser, "hi", now)
	stale := conversation.NewMessage(conversation.RoleUser, "hi", now.Add(-2*time.Hour))

	// Past an hour the recency term clamps to zero instead of going
	// negative.
	staleScore := ScoreMessage(stale, now)
	wantStale := 0.3*(2.0/500.0) + 0.4*1.0
	if staleScore < wantStale-0.001 || staleScore > wantStale+0.001 {
		t.Errorf("Expected stale score %.3f, got %.3f", wantStale, staleScore)
	}

	if ScoreMessage(fresh, now) <= staleScore {
		t.Error("Expected fresh message to outscore stale message")
	}
}

// ============================================================================
// Ingestion Tests
// ============================================================================

func TestStore_Ingest_ThresholdFilter(t *testing.T) {
	clk := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	store := NewStoreWithClock(Config{MaxContextSize: 10}, clk)
	id := uuid.New()
	store.Ensure(id, 0.75)

	now := clk.Now()
	messages := []conversation.Message{
		// user + fresh + short: 0.3*(2/500) + 0.4 + 0.3 = ~0.701, below 0.75
		conversation.NewMessage(conversation.RoleUser, "hi", now),
		// user + fresh + long: 0.3 + 0.4 + 0.3 = ~1.0, admitted
		conversation.NewMessage(conversation.RoleUser, strings.Repeat("y", 500), now),
	}

	added, err := store.Ingest(id, messages)
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if added != 1 {
		t.Errorf("Expected 1 admitted item, got %d", added)
	}

	items := store.Get(id, 0)
	if len(items) != 1 {
		t.Fatalf("Expected 1 item in ring, got %d", len(items))
	}
	if _, ok := items[0].Metadata["message_id"]; !ok {
		t.Error("Expected admitted item to carry message_id metadata")
	}
}

func TestStore_Ingest_SkipsProcessedMessages(t *testing.T) {
	clk := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	store := NewStoreWithClock(Config{MaxContextSize: 10}, clk)
	id := uuid.New()
	store.Ensure(id, 0.5)

	first := conversation.NewMessage(conversation.RoleUser, "first message here", clk.Now())
	added, _ := store.Ingest(id, []conversation.Message{first})
	if added != 1 {
		t.Fatalf("Expected first ingest to admit 1, got %d", added)
	}

	// Re-ingesting the same slice admits nothing new.
	added, _ = store.Ingest(id, []conversation.Message{first})
	if added != 0 {
		t.Errorf("Expected re-ingest to admit 0, got %d", added)
	}

	// A newer message is picked up.
	clk.Advance(time.Second)
	second := conversation.NewMessage(conversation.RoleUser, "second message here", clk.Now())
	added, _ = store.Ingest(id, []conversation.Message{first, second})
	if added != 1 {
		t.Errorf("Expected only the new message admitted, got %d", added)
	}
	if size := store.Size(id); size != 2 {
		t.Errorf("Expected 2 items total, got %d", size)
	}
}

func TestStore_Ingest_UnknownSession(t *testing.T) {
	store, _ := newTestStore(10)

	_, err := store.Ingest(uuid.New(), nil)
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}
