package flow

import (
	"strings"

	"dialog-hq/meridian/pkg/conversation"
)

// Normalization constants for the metric blends. Five seconds is a
// "smooth" response; 500 characters is a "deep" message.
const (
	smoothResponseSeconds = 5.0
	deepMessageChars      = 500.0
	topicOverlapThreshold = 0.5
)

// avgResponseTime returns the mean delta between consecutive message
// timestamps in seconds, or 0 for fewer than two messages.
func avgResponseTime(messages []conversation.Message) float64 {
	if len(messages) < 2 {
		return 0
	}

	total := 0.0
	for i := 1; i < len(messages); i++ {
		total += messages[i].Timestamp.Sub(messages[i-1].Timestamp).Seconds()
	}
	return total / float64(len(messages)-1)
}

// wordSet tokenizes content case-insensitively on whitespace.
func wordSet(content string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, word := range strings.Fields(strings.ToLower(content)) {
		words[word] = struct{}{}
	}
	return words
}

// overlapRatio returns |words(a) ∩ words(b)| / min(|words(a)|, |words(b)|),
// or 1 when either side has no words.
func overlapRatio(a, b string) float64 {
	aWords := wordSet(a)
	bWords := wordSet(b)
	if len(aWords) == 0 || len(bWords) == 0 {
		return 1
	}

	shared := 0
	for word := range aWords {
		if _, ok := bWords[word]; ok {
			shared++
		}
	}

	smaller := len(aWords)
	if len(bWords) < smaller {
		smaller = len(bWords)
	}
	return float64(shared) / float64(smaller)
}

// isTopicChange reports whether two adjacent messages share too little
// vocabulary to be the same topic. Messages without words never flag.
func isTopicChange(prev, curr conversation.Message) bool {
	prevWords := wordSet(prev.Content)
	currWords := wordSet(curr.Content)
	if len(prevWords) == 0 || len(currWords) == 0 {
		return false
	}

	shared := 0
	for word := range prevWords {
		if _, ok := currWords[word]; ok {
			shared++
		}
	}

	smaller := len(prevWords)
	if len(currWords) < smaller {
		smaller = len(currWords)
	}
	return float64(shared)/float64(smaller) < topicOverlapThreshold
}

// topicChanges counts adjacent pairs flagged as topic changes.
func topicChanges(messages []conversation.Message) int {
	changes := 0
	for i := 1; i < len(messages); i++ {
		if isTopicChange(messages[i-1], messages[i]) {
			changes++
		}
	}
	return changes
}

// contextAdherence averages the unthresholded overlap ratio over adjacent
// pairs; 1 for fewer than two messages.
func contextAdherence(messages []conversation.Message) float64 {
	if len(messages) < 2 {
		return 1
	}

	total := 0.0
	for i := 1; i < len(messages); i++ {
		total += overlapRatio(messages[i-1].Content, messages[i].Content)
	}
	return total / float64(len(messages)-1)
}

// flowSmoothness averages per-pair smoothness, blending response delay
// against context adherence; 1 for fewer than two messages.
func flowSmoothness(messages []conversation.Message) float64 {
	if len(messages) < 2 {
		return 1
	}

	total := 0.0
	for i := 1; i < len(messages); i++ {
		delta := messages[i].Timestamp.Sub(messages[i-1].Timestamp).Seconds()
		timeScore := 1 - delta/smoothResponseSeconds
		if timeScore < 0 {
			timeScore = 0
		}
		adherence := overlapRatio(messages[i-1].Content, messages[i].Content)
		total += (timeScore + adherence) / 2
	}
	return total / float64(len(messages)-1)
}

// coherence blends topic stability, context adherence, and smoothness.
func coherence(messages []conversation.Message) float64 {
	count := len(messages)
	if count == 0 {
		count = 1
	}
	topicStability := 1 - float64(topicChanges(messages))/float64(count)

	return 0.4*topicStability + 0.3*contextAdherence(messages) + 0.3*flowSmoothness(messages)
}

// interactionDepth normalizes average message length against the "deep
// message" benchmark.
func interactionDepth(messages []conversation.Message) float64 {
	if len(messages) == 0 {
		return 0
	}

	total := 0
	for _, msg := range messages {
		total += len(msg.Content)
	}
	depth := float64(total) / float64(len(messages)) / deepMessageChars
	if depth > 1 {
		depth = 1
	}
	return depth
}

// userParticipation is the fraction of messages authored by the user.
func userParticipation(messages []conversation.Message) float64 {
	if len(messages) == 0 {
		return 0
	}

	users := 0
	for _, msg := range messages {
		if msg.Role == conversation.RoleUser {
			users++
		}
	}
	return float64(users) / float64(len(messages))
}

// engagement blends response speed, depth, and participation.
func engagement(messages []conversation.Message) float64 {
	speed := avgResponseTime(messages) / smoothResponseSeconds
	if speed > 1 {
		speed = 1
	}
	return 0.3*(1-speed) + 0.4*interactionDepth(messages) + 0.3*userParticipation(messages)
}
