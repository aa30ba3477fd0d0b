package sqlite

import (
	"context"
	"database/sql"

	"taskledger/internal/ports"
)

// Compile-time check that TxManager implements ports.TxManager.
var _ ports.TxManager = (*TxManager)(nil)

// TxManager opens SQLite transactions as ports.Tx handles. *sql.Tx already
// satisfies the Commit/Rollback contract, including rollback-after-commit
// being harmless.
type TxManager struct {
	db *sql.DB
}

func NewTxManager(db *sql.DB) *TxManager {
	return &TxManager{db: db}
}

func (m *TxManager) Begin(ctx context.Context) (ports.Tx, error) {
	return m.db.BeginTx(ctx, nil)
}
