// Package reldb owns the embedded SQLite database kept inside every frozen
// object's directory.
//
// Each Store wraps exactly one connection to dir/db.sqlite, opened once and
// held for the Store's lifetime. Access comes in three shapes:
//
//   - Cursor: plain statement execution with the engine's default guarantees
//   - BulkTransaction: a savepoint-guarded batch with durability relaxed for
//     throughput; the whole batch commits or rolls back as a unit
//   - Query: ad-hoc reads returning an ordered column/row table
//
// # Connection discipline
//
//   - One connection per Store (SetMaxOpenConns(1)); a Store is not safe for
//     concurrent use from multiple goroutines
//   - busy_timeout=5000: wait for file locks up to 5 seconds
//
// # Bulk transactions
//
// On entry a scope sets synchronous=OFF and journal_mode=MEMORY, then opens
// a named savepoint. A crash mid-scope may lose the batch, but a failed scope
// never leaves partial writes behind: the savepoint is rolled back and then
// released on every error path, and the original error is returned to the
// caller wrapped in a *TxError. Scopes nest sequentially because savepoint
// names are unique per scope.
package reldb
