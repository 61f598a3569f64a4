package conversation

import (
	"testing"
	"time"
)

// =============================================================================
// Role Tests
// =============================================================================

func TestRole_Valid(t *testing.T) {
	tests := []struct {
		role Role
		want bool
	}{
		{RoleSystem, true},
		{RoleUser, true},
		{RoleAssistant, true},
		{RoleFunction, true},
		{Role("moderator"), false},
		{Role(""), false},
	}

	for _, tt := range tests {
		if got := tt.role.Valid(); got != tt.want {
			t.Errorf("Role(%q).Valid() = %v, want %v", tt.role, got, tt.want)
		}
	}
}

// =============================================================================
// Message Tests
// =============================================================================

func TestNewMessage(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	msg := NewMessage(RoleUser, "hello", at)

	if msg.ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Error("NewMessage should assign a non-zero id")
	}
	if msg.Role != RoleUser {
		t.Errorf("Role = %q, want %q", msg.Role, RoleUser)
	}
	if msg.Content != "hello" {
		t.Errorf("Content = %q, want %q", msg.Content, "hello")
	}
	if !msg.Timestamp.Equal(at) {
		t.Errorf("Timestamp = %v, want %v", msg.Timestamp, at)
	}
	if msg.Tokens != 0 {
		t.Errorf("Tokens = %d, want 0", msg.Tokens)
	}
}

// =============================================================================
// TokenWindow Tests
// =============================================================================

func testMessages(tokens ...int) []Message {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	messages := make([]Message, len(tokens))
	for i, count := range tokens {
		messages[i] = NewMessage(RoleUser, "m", base.Add(time.Duration(i)*time.Second))
		messages[i].Tokens = count
	}
	return messages
}

func TestTokenWindow_NewestSuffix(t *testing.T) {
	messages := testMessages(100, 50, 30, 20)

	window := TokenWindow(messages, 60)
	if len(window) != 2 {
		t.Fatalf("window length = %d, want 2", len(window))
	}
	if window[0].ID != messages[2].ID || window[1].ID != messages[3].ID {
		t.Error("window should be the newest messages that fit the limit")
	}
}

func TestTokenWindow_PreservesOrder(t *testing.T) {
	messages := testMessages(10, 10, 10)

	window := TokenWindow(messages, 100)
	if len(window) != 3 {
		t.Fatalf("window length = %d, want 3", len(window))
	}
	for i := range window {
		if window[i].ID != messages[i].ID {
			t.Errorf("window[%d] out of order", i)
		}
	}
}

func TestTokenWindow_UnknownCountsPassThrough(t *testing.T) {
	messages := testMessages(0, 50, 0)

	// Zero-token messages never consume budget, so all three fit.
	window := TokenWindow(messages, 50)
	if len(window) != 3 {
		t.Errorf("window length = %d, want 3", len(window))
	}
}

func TestTokenWindow_Empty(t *testing.T) {
	if window := TokenWindow(nil, 100); len(window) != 0 {
		t.Errorf("window length = %d, want 0", len(window))
	}

	// A single message over the limit yields an empty window.
	messages := testMessages(200)
	if window := TokenWindow(messages, 100); len(window) != 0 {
		t.Errorf("window length = %d, want 0", len(window))
	}
}
