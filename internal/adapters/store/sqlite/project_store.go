package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"taskledger/internal/domain"
	"taskledger/internal/domain/project"
	"taskledger/internal/ports"
)

// Compile-time check that ProjectStore implements ports.ProjectStore.
var _ ports.ProjectStore = (*ProjectStore)(nil)

// ProjectStore persists projects. The member map is stored as a JSON object
// column, queried with json_each for member-scoped listing.
type ProjectStore struct {
	db *sql.DB
}

func NewProjectStore(db *sql.DB) *ProjectStore {
	return &ProjectStore{db: db}
}

const projectColumns = `id, name, archived, members, version, created_at, updated_at`

func (s *ProjectStore) FindByID(ctx context.Context, tx ports.Tx, id string) (*project.Project, error) {
	q, err := dbtx(s.db, tx)
	if err != nil {
		return nil, err
	}
	row := q.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id=?`, id)
	p, err := scanProject(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Save inserts when Version is zero and otherwise performs an optimistic
// update guarded by the stored version. A lost race surfaces as
// domain.ErrStaleVersion.
func (s *ProjectStore) Save(ctx context.Context, tx ports.Tx, p *project.Project) (*project.Project, error) {
	q, err := dbtx(s.db, tx)
	if err != nil {
		return nil, err
	}
	members, err := json.Marshal(project.CloneMembers(p.Members))
	if err != nil {
		return nil, fmt.Errorf("encode members: %w", err)
	}

	saved := *p
	saved.Members = project.CloneMembers(p.Members)

	if p.Version == 0 {
		saved.Version = 1
		_, err := q.ExecContext(ctx,
			`INSERT INTO projects(id, name, archived, members, version, created_at, updated_at) VALUES (?,?,?,?,?,?,?)`,
			p.ID, p.Name, boolToInt(p.Archived), string(members), saved.Version, formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
		if err != nil {
			return nil, fmt.Errorf("insert project: %w", err)
		}
		return &saved, nil
	}

	saved.Version = p.Version + 1
	res, err := q.ExecContext(ctx,
		`UPDATE projects SET name=?, archived=?, members=?, version=?, updated_at=? WHERE id=? AND version=?`,
		p.Name, boolToInt(p.Archived), string(members), saved.Version, formatTime(p.UpdatedAt), p.ID, p.Version)
	if err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, fmt.Errorf("project %s version %d: %w", p.ID, p.Version, domain.ErrStaleVersion)
	}
	return &saved, nil
}

func (s *ProjectStore) ListAll(ctx context.Context) ([]project.Project, error) {
	return s.list(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY created_at, id`)
}

// ListForMember restricts both membership and the archived flag in the query
// itself, so callers never see rows they would have to filter out.
func (s *ProjectStore) ListForMember(ctx context.Context, userID string) ([]project.Project, error) {
	return s.list(ctx, `SELECT `+projectColumns+` FROM projects
		WHERE archived=0
		AND EXISTS (SELECT 1 FROM json_each(projects.members) WHERE json_each.key=?)
		ORDER BY created_at, id`, userID)
}

func (s *ProjectStore) list(ctx context.Context, query string, args ...any) ([]project.Project, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := make([]project.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, *p)
	}
	return res, rows.Err()
}

func scanProject(scan func(dest ...any) error) (*project.Project, error) {
	var (
		p         project.Project
		archived  int
		members   string
		createdAt string
		updatedAt string
	)
	if err := scan(&p.ID, &p.Name, &archived, &members, &p.Version, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	p.Archived = archived != 0
	if err := json.Unmarshal([]byte(members), &p.Members); err != nil {
		return nil, fmt.Errorf("decode members for project %s: %w", p.ID, err)
	}
	var err error
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("project %s created_at: %w", p.ID, err)
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("project %s updated_at: %w", p.ID, err)
	}
	return &p, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
