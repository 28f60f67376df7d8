// Package store provides SQLite-backed storage for captured Elsa API
// payloads.
//
// A capture is every raw response fetched for one workflow instance at one
// point in time: instance metadata, journal page, execution state, activity
// summaries, execution report and, optionally, per-node execution history.
// A captured Snapshot answers the same read operations as the live client, so
// a trace can be reconstructed offline and reproduced byte for byte.
//
// Only raw responses are stored. Reconstructed graphs and timelines are
// always recomputed.
//
// # Critical Patterns
//
//   - Captures are append-only; a capture id is a random UUID
//   - Failed fetches are stored with their error text so a replay shows
//     the same partial view the live load did
//   - Reads order by captured_at DESC, id DESC for a deterministic latest
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
