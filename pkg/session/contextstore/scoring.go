package contextstore

import (
	"time"

	"github.com/google/uuid"

	"dialog-hq/meridian/pkg/conversation"
)

// Scoring weights for message ingestion. Length rewards substantive
// messages, role favors user turns, and recency decays over an hour.
const (
	lengthWeight  = 0.3
	roleWeight    = 0.4
	recencyWeight = 0.3

	lengthNorm   = 500.0
	recencyDecay = time.Hour

	userRoleScore  = 1.0
	otherRoleScore = 0.8
)

// Ingest scores each message newer than the session's last processed
// timestamp and adds those that clear the importance threshold to the
// ring. Returns the number of items admitted.
//
// Returns ErrSessionNotFound if Ensure was never called.
func (s *Store) Ingest(sessionID uuid.UUID, messages []conversation.Message) (int, error) {
	s.mu.Lock()
	sc, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return 0, ErrSessionNotFound
	}
	lastProcessed := sc.lastProcessed
	threshold := sc.threshold
	s.mu.Unlock()

	now := s.clock.Now()
	added := 0
	newest := lastProcessed

	for _, msg := range messages {
		if !msg.Timestamp.After(lastProcessed) {
			continue
		}
		if msg.Timestamp.After(newest) {
			newest = msg.Timestamp
		}
		if msg.Content == "" {
			continue
		}

		importance := ScoreMessage(msg, now)
		if importance < threshold {
			continue
		}

		_, err := s.AddItem(sessionID, msg.Content, importance, ItemOptions{
			Metadata: map[string]any{"message_id": msg.ID.String()},
		})
		if err != nil {
			return added, err
		}
		added++
	}

	s.mu.Lock()
	if sc, ok := s.sessions[sessionID]; ok && newest.After(sc.lastProcessed) {
		sc.lastProcessed = newest
	}
	s.mu.Unlock()

	return added, nil
}

// ScoreMessage computes a message's 0-1 importance at the given time.
//
//	importance = 0.3*min(len/500, 1) + 0.4*role + 0.3*max(0, 1-age/3600)
//
// where role is 1.0 for user messages and 0.8 for everything else.
func ScoreMessage(msg conversation.Message, now time.Time) float64 {
	length := float64(len(msg.Content)) / lengthNorm
	if length > 1 {
		length = 1
	}

	role := otherRoleScore
	if msg.Role == conversation.RoleUser {
		role = userRoleScore
	}

	recency := 1 - now.Sub(msg.Timestamp).Seconds()/recencyDecay.Seconds()
	if recency < 0 {
		recency = 0
	}

	return lengthWeight*length + roleWeight*role + recencyWeight*recency
}
