// Package store provides a SQLite-backed cache of compiled queries.
//
// Only precompilable compilations are stored: their DQL text does not
// depend on parameter values, so it can be reused by any later execution
// of the same query tree against the same schema. Records are keyed by the
// content hash computed in internal/ir (canonical query tree plus schema
// fingerprint plus compiler version).
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// Listing queries order by seq so results are identical across runs.
package store
