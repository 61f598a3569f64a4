// Meridian is a conversation session runtime.
//
// It manages the full lifecycle of conversation sessions: state
// transitions, importance-ranked context memory, token budgets, and
// conversation flow metrics, with background maintenance sweeps and
// Prometheus telemetry.
//
// Usage:
//
//	# Start the session runtime with default configuration
//	meridian run
//
//	# Start with a custom configuration file
//	meridian run --config /path/to/config.yaml
//
//	# Validate a configuration file
//	meridian validate --config /path/to/config.yaml
//
//	# Show version information
//	meridian version
package main

func main() {
	Execute()
}
