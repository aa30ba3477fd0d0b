package ports

import "context"

// Tx is a transaction scope handle. All store writes performed with the same
// handle commit together or not at all. Rolling back after a successful
// commit is a no-op, which lets callers keep rollback on a defer.
type Tx interface {
	Commit() error
	Rollback() error
}

// TxManager opens transaction scopes. It is the sole write-atomicity
// discipline: the application layer holds no in-process locks and relies on
// the store's concurrency control to serialize writers.
type TxManager interface {
	Begin(ctx context.Context) (Tx, error)
}
