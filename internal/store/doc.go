// Package store provides SQLite-backed storage for users, the video
// catalogue, levels and presentations.
//
// # Transactions
//
// WithinTx runs a function against a *Queries bound to one transaction,
// committing on success and rolling back on any error. The DSN sets
// _txlock=immediate, so every transaction takes the write lock at BEGIN:
// two allocations for the same worker cannot both read the "never shown"
// set before either inserts.
//
// # Time
//
// Level timestamps come from the store's clock (Now, nowMillisSQL), never
// from the application host, so elapsed-time checks are immune to host
// clock skew.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON
package store
