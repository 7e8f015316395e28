// Package history keeps an append-only SQLite ledger of dispatch attempts for
// the `plantcam history` command.
//
// The ledger is an audit trail only. The agent writes to it after every run
// but never reads it back when deciding whether to fire; the per-day flag
// stays in memory.
package history
