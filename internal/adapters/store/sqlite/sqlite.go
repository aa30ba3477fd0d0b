// Package sqlite persists projects, tasks, users and the audit trail in a
// single SQLite database. Entity writes use optimistic versioning; the audit
// table is append-only with a monotonic rowid as the ordering tie-break.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"taskledger/internal/ports"
)

// Open opens the SQLite database at path, creating parent directories as
// needed. WAL mode keeps readers unblocked during the write transactions; the
// busy timeout covers writer contention instead of failing immediately.
func Open(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

// dbtx resolves the statement target: the transaction when one is in scope,
// the pooled connection otherwise.
func dbtx(db *sql.DB, tx ports.Tx) (querier, error) {
	if tx == nil {
		return db, nil
	}
	t, ok := tx.(*sql.Tx)
	if !ok {
		return nil, fmt.Errorf("unsupported transaction type %T", tx)
	}
	return t, nil
}

// querier is the statement surface shared by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// HealthChecker reports database liveness for the readiness endpoint.
type HealthChecker struct {
	db *sql.DB
}

func NewHealthChecker(db *sql.DB) *HealthChecker {
	return &HealthChecker{db: db}
}

func (h *HealthChecker) Name() string { return "sqlite" }

func (h *HealthChecker) HealthCheck(ctx context.Context) error {
	return h.db.PingContext(ctx)
}
