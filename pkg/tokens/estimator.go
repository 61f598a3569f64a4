// Package tokens estimates token counts for conversation messages.
//
// Token counts feed the per-session budget manager and the context
// window assembly. The default estimator is character-based, which
// keeps estimation fast and dependency-free at around 5% error.
package tokens

import "dialog-hq/meridian/pkg/conversation"

// Estimator estimates token counts for text and messages.
// Implementations may use different algorithms (character-based, BPE,
// tiktoken, etc.).
type Estimator interface {
	// EstimateText estimates tokens for a single text string.
	EstimateText(text string) int

	// EstimateMessages estimates tokens for a list of messages,
	// including formatting overhead.
	EstimateMessages(messages []conversation.Message) int
}

const (
	// DefaultCharsPerToken is the character-to-token ratio used when
	// none is configured. Four characters per token is a reasonable
	// average for English prose.
	DefaultCharsPerToken = 4.0

	// messageOverhead is the per-message formatting cost: one token
	// for the role plus three for message framing.
	messageOverhead = 4

	// conversationOverhead is the fixed framing cost per conversation.
	conversationOverhead = 3
)

// SimpleEstimator implements character-based token estimation.
type SimpleEstimator struct {
	charsPerToken float64
}

// NewSimpleEstimator creates a character-based estimator. A
// charsPerToken of zero or less selects DefaultCharsPerToken.
func NewSimpleEstimator(charsPerToken float64) *SimpleEstimator {
	if charsPerToken <= 0 {
		charsPerToken = DefaultCharsPerToken
	}
	return &SimpleEstimator{charsPerToken: charsPerToken}
}

// EstimateText estimates tokens for a single text string. Non-empty
// text counts as at least one token.
func (e *SimpleEstimator) EstimateText(text string) int {
	if text == "" {
		return 0
	}

	estimated := float64(len(text)) / e.charsPerToken
	if estimated < 1.0 {
		estimated = 1.0
	}
	return int(estimated + 0.5)
}

// EstimateMessages estimates tokens for a list of messages including
// per-message and conversation framing overhead.
func (e *SimpleEstimator) EstimateMessages(messages []conversation.Message) int {
	if len(messages) == 0 {
		return 0
	}

	total := conversationOverhead
	for _, msg := range messages {
		total += messageOverhead
		total += e.EstimateText(msg.Content)
	}
	return total
}
