// Package store provides SQLite-backed durable storage for join traces.
//
// The store is an append-only log with:
//   - Coordinators: one row per join run, with the spec hash and versions it
//     ran under and its last known lifecycle state
//   - Trace Events: every recorded step of a coordinator
//
// # Ordering
//
// All ordering uses seq INTEGER (the coordinator's logical clock), never
// timestamps. Trace queries include ORDER BY seq ASC, id ASC so results are
// identical across reads.
//
// Values are stored as RFC 8785 canonical JSON produced by ir.MarshalCanonical.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
