// Package flow computes per-turn conversation metrics and enforces flow
// limits.
//
// The controller tracks each session's raw message sequence (it reads
// messages, it does not own them) and recomputes metrics over the full
// history after every message, appending a snapshot to the session's
// metric time series. Computation is O(n) per call, which is acceptable
// because conversations are short-lived and bounded.
//
// # Metrics
//
// Topic changes are detected by word overlap: two adjacent messages whose
// shared-word ratio falls below 0.5 count as a topic change. The same
// ratio, unthresholded, is reused as a continuous context-adherence
// score. Engagement blends response speed, message depth, and user
// participation; coherence blends topic stability, adherence, and
// transition smoothness.
//
// # Limits
//
// A Control carries the session's optional limits: maximum turns,
// response timeout, and topic-change budget. Violations surface as typed
// errors from AddMessage and CheckControls; they are policy signals, not
// scheduling cancellation.
package flow
