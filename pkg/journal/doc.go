// Package journal records accepted token allocations for diagnostics.
//
// The journal is a write-mostly audit surface: the session core appends a
// record for every accepted allocation and never reads the journal back
// to serve a request. Queries exist for operators and offline analysis.
//
// # Backends
//
// Two Backend implementations ship with the package:
//
//   - MemoryBackend: bounded in-memory ring, the default. All records are
//     lost on process exit.
//   - SQLiteBackend: durable single-file store using WAL mode, for
//     deployments that want allocation history across restarts.
//
// Message content never enters the journal; records carry counts,
// categories, and caller metadata only.
package journal
