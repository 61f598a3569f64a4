// Package cli provides shared helpers for Meridian's command line
// interface: typed command errors and output formatting for text,
// JSON, and CSV.
package cli
