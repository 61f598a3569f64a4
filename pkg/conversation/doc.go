// Package conversation defines the message model shared by the session core.
//
// The session core does not own conversations: an external store supplies an
// ordered sequence of messages per session, and the core reads them to score
// context items and compute flow metrics. This package holds the types that
// cross that boundary.
//
// # Core Types
//
//   - Role: message author (system, user, assistant, function)
//   - Message: a single turn with role, content, and timestamp
//
// # Token Windows
//
// TokenWindow assembles the newest suffix of a message slice whose declared
// token counts fit a limit. Messages without a token count pass through
// unbudgeted, matching the behavior of prompt builders that estimate tokens
// lazily:
//
//	window := conversation.TokenWindow(messages, 4096)
package conversation
