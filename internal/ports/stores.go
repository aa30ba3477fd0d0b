package ports

import (
	"context"

	"taskledger/internal/domain/audit"
	"taskledger/internal/domain/project"
	"taskledger/internal/domain/task"
)

// ProjectStore persists project entities. FindByID reports absence as
// (nil, nil), never as an error; a nil tx means the read runs outside any
// transaction. Save inserts when Version is zero and otherwise performs an
// optimistic update, returning domain.ErrStaleVersion when a concurrent
// writer got there first.
type ProjectStore interface {
	FindByID(ctx context.Context, tx Tx, id string) (*project.Project, error)
	Save(ctx context.Context, tx Tx, p *project.Project) (*project.Project, error)

	// ListAll returns every project, archived included. Administrator scope.
	ListAll(ctx context.Context) ([]project.Project, error)

	// ListForMember returns non-archived projects where the user holds a
	// membership. The restriction is part of the query shape, not a
	// post-filter applied by the caller.
	ListForMember(ctx context.Context, userID string) ([]project.Project, error)
}

// TaskStore persists task entities with the same absence, transaction and
// versioning contract as ProjectStore.
type TaskStore interface {
	FindByID(ctx context.Context, tx Tx, id string) (*task.Task, error)
	Save(ctx context.Context, tx Tx, t *task.Task) (*task.Task, error)
	ListByProject(ctx context.Context, projectID string) ([]task.Task, error)
}

// AuditStore is append-only. Records are never updated or deleted, and the
// caller must not append twice for one logical event. ListByEntity returns
// records ordered by timestamp with insertion order as the tie-break.
type AuditStore interface {
	Append(ctx context.Context, tx Tx, rec *audit.Record) error
	ListByEntity(ctx context.Context, kind, entityID string) ([]audit.Record, error)
}
