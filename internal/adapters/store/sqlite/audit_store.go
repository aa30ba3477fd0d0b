package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"taskledger/internal/domain/audit"
	"taskledger/internal/ports"
)

// Compile-time check that AuditStore implements ports.AuditStore.
var _ ports.AuditStore = (*AuditStore)(nil)

// AuditStore is the append-only audit trail. No update or delete statement
// exists in this file on purpose; the AUTOINCREMENT id doubles as the
// insertion-order tie-break for records sharing a timestamp.
type AuditStore struct {
	db *sql.DB
}

func NewAuditStore(db *sql.DB) *AuditStore {
	return &AuditStore{db: db}
}

func (s *AuditStore) Append(ctx context.Context, tx ports.Tx, rec *audit.Record) error {
	q, err := dbtx(s.db, tx)
	if err != nil {
		return err
	}
	payload := rec.Payload
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}
	res, err := q.ExecContext(ctx,
		`INSERT INTO audit_records(entity_kind, entity_id, action, actor_id, ts, payload) VALUES (?,?,?,?,?,?)`,
		rec.EntityKind, rec.EntityID, string(rec.Action), rec.ActorID, formatTime(rec.Timestamp), string(payload))
	if err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = id
	return nil
}

func (s *AuditStore) ListByEntity(ctx context.Context, kind, entityID string) ([]audit.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, entity_kind, entity_id, action, actor_id, ts, payload FROM audit_records
		WHERE entity_kind=? AND entity_id=? ORDER BY ts, id`, kind, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := make([]audit.Record, 0)
	for rows.Next() {
		var (
			rec     audit.Record
			action  string
			ts      string
			payload string
		)
		if err := rows.Scan(&rec.ID, &rec.EntityKind, &rec.EntityID, &action, &rec.ActorID, &ts, &payload); err != nil {
			return nil, err
		}
		rec.Action = audit.Action(action)
		rec.Payload = json.RawMessage(payload)
		if rec.Timestamp, err = parseTime(ts); err != nil {
			return nil, fmt.Errorf("audit record %d ts: %w", rec.ID, err)
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}
