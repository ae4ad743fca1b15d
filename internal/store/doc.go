// Package store provides SQLite-backed durable storage for recorded
// playback runs.
//
// The store is an append-only log with:
//   - Runs: the schedule played, its content hash and precision
//   - Commands: the playback requests issued, in order
//   - Callbacks: every callback delivered, attributed to its command
//
// # Critical Patterns
//
// Logical ordering:
//   - All ordering uses seq INTEGER (logical clock), NEVER timestamps
//   - Replaying the commands of a run against its schedule must reproduce
//     the recorded callbacks exactly
//
// Deterministic query results:
//   - Every multi-row query has an explicit ORDER BY
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
