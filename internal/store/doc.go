// Package store provides SQLite-backed archival of finished runs.
//
// Each run row carries the full population as JSON, so an archived run can
// be rebuilt and replayed without the files it was compiled from. Final
// machine snapshots and, optionally, every step event are stored alongside.
//
// # Deterministic Reads
//
//   - Runs are ordered by seq, a logical counter assigned at write time
//   - Machines are ordered by idx, steps by (stage, machine)
//   - Wall-clock time is never stored or used for ordering
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Result digests are computed by ir.ResultDigest using RFC 8785 canonical
// JSON and SHA-256 with domain separation. Replay recomputes them.
package store
