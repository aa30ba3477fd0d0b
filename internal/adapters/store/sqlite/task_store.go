package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"taskledger/internal/domain"
	"taskledger/internal/domain/task"
	"taskledger/internal/ports"
)

// Compile-time check that TaskStore implements ports.TaskStore.
var _ ports.TaskStore = (*TaskStore)(nil)

// TaskStore persists tasks. Assignees are stored as a JSON array column.
type TaskStore struct {
	db *sql.DB
}

func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

const taskColumns = `id, project_id, name, description, open, assignees, version, created_at, updated_at`

func (s *TaskStore) FindByID(ctx context.Context, tx ports.Tx, id string) (*task.Task, error) {
	q, err := dbtx(s.db, tx)
	if err != nil {
		return nil, err
	}
	row := q.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id=?`, id)
	t, err := scanTask(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Save follows the same optimistic versioning contract as ProjectStore.Save.
func (s *TaskStore) Save(ctx context.Context, tx ports.Tx, t *task.Task) (*task.Task, error) {
	q, err := dbtx(s.db, tx)
	if err != nil {
		return nil, err
	}
	assignees, err := json.Marshal(task.CloneAssignees(t.Assignees))
	if err != nil {
		return nil, fmt.Errorf("encode assignees: %w", err)
	}

	saved := *t
	saved.Assignees = task.CloneAssignees(t.Assignees)

	if t.Version == 0 {
		saved.Version = 1
		_, err := q.ExecContext(ctx,
			`INSERT INTO tasks(id, project_id, name, description, open, assignees, version, created_at, updated_at) VALUES (?,?,?,?,?,?,?,?,?)`,
			t.ID, t.ProjectID, t.Name, t.Description, boolToInt(t.Open), string(assignees), saved.Version, formatTime(t.CreatedAt), formatTime(t.UpdatedAt))
		if err != nil {
			return nil, fmt.Errorf("insert task: %w", err)
		}
		return &saved, nil
	}

	saved.Version = t.Version + 1
	res, err := q.ExecContext(ctx,
		`UPDATE tasks SET name=?, description=?, open=?, assignees=?, version=?, updated_at=? WHERE id=? AND version=?`,
		t.Name, t.Description, boolToInt(t.Open), string(assignees), saved.Version, formatTime(t.UpdatedAt), t.ID, t.Version)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, fmt.Errorf("task %s version %d: %w", t.ID, t.Version, domain.ErrStaleVersion)
	}
	return &saved, nil
}

func (s *TaskStore) ListByProject(ctx context.Context, projectID string) ([]task.Task, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE project_id=? ORDER BY created_at, id`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := make([]task.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, *t)
	}
	return res, rows.Err()
}

func scanTask(scan func(dest ...any) error) (*task.Task, error) {
	var (
		t         task.Task
		open      int
		assignees string
		createdAt string
		updatedAt string
	)
	if err := scan(&t.ID, &t.ProjectID, &t.Name, &t.Description, &open, &assignees, &t.Version, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	t.Open = open != 0
	if err := json.Unmarshal([]byte(assignees), &t.Assignees); err != nil {
		return nil, fmt.Errorf("decode assignees for task %s: %w", t.ID, err)
	}
	var err error
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("task %s created_at: %w", t.ID, err)
	}
	if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("task %s updated_at: %w", t.ID, err)
	}
	return &t, nil
}
