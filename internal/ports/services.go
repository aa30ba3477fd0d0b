package ports

import (
	"context"
	"time"

	"taskledger/internal/domain"
	"taskledger/internal/domain/audit"
	"taskledger/internal/domain/project"
	"taskledger/internal/domain/task"
)

// ProjectCreate carries the submitted state for a new project.
type ProjectCreate struct {
	Name    string
	Members map[string]domain.Role
}

// ProjectUpdate replaces a project's display name and member map wholly.
type ProjectUpdate struct {
	Name    string
	Members map[string]domain.Role
}

// TaskCreate carries the submitted state for a new task.
type TaskCreate struct {
	Name        string
	Description string
	Assignees   []string
}

// TaskUpdate replaces a task's name, description and assignee set wholly.
type TaskUpdate struct {
	Name        string
	Description string
	Assignees   []string
}

// ProjectService defines the project use cases. Every mutation applies the
// entity write and its audit record in one transaction and notifies the
// outbound channel after commit.
//
// Errors follow the domain taxonomy: domain.ErrNotFound for absent entities
// or referenced users, domain.ErrForbidden when the policy denies,
// domain.ErrValidation for field violations, and domain.ErrConflict
// (including the lifecycle sentinels and domain.ErrStaleVersion) for guarded
// transitions and lost optimistic writes.
type ProjectService interface {
	// Create requires an administrator actor.
	Create(ctx context.Context, actor domain.Actor, in ProjectCreate) (*project.Project, error)

	// Update requires a manager; fails on archived projects.
	Update(ctx context.Context, actor domain.Actor, id string, in ProjectUpdate) (*project.Project, error)

	// Archive requires a manager; Active -> Archived.
	Archive(ctx context.Context, actor domain.Actor, id string) (*project.Project, error)

	// Restore requires a manager; Archived -> Active.
	Restore(ctx context.Context, actor domain.Actor, id string) (*project.Project, error)

	// Get requires membership.
	Get(ctx context.Context, actor domain.Actor, id string) (*project.Project, error)

	// List returns every project for administrators and only non-archived
	// membership projects for everyone else.
	List(ctx context.Context, actor domain.Actor) ([]project.Project, error)
}

// TaskService defines the task use cases with the same transactional and
// error contract as ProjectService. All mutations require the owning project
// to be active.
type TaskService interface {
	// Create requires a manager of the owning project.
	Create(ctx context.Context, actor domain.Actor, projectID string, in TaskCreate) (*task.Task, error)

	// Update requires a manager of the owning project.
	Update(ctx context.Context, actor domain.Actor, id string, in TaskUpdate) (*task.Task, error)

	// Close requires an assignee or a manager; Open -> Closed.
	Close(ctx context.Context, actor domain.Actor, id string) (*task.Task, error)

	// Reopen requires an assignee or a manager; Closed -> Open.
	Reopen(ctx context.Context, actor domain.Actor, id string) (*task.Task, error)

	// Get requires membership in the owning project.
	Get(ctx context.Context, actor domain.Actor, id string) (*task.Task, error)

	// ListByProject requires membership in the project.
	ListByProject(ctx context.Context, actor domain.Actor, projectID string) ([]task.Task, error)
}

// ProjectHistoryEntry is a reconstructed project history step with the
// acting user resolved through the directory for display.
type ProjectHistoryEntry struct {
	Action    audit.Action
	State     audit.ProjectState
	Actor     User
	Timestamp time.Time
}

// TaskHistoryEntry is a reconstructed task history step.
type TaskHistoryEntry struct {
	Action    audit.Action
	State     audit.TaskState
	Actor     User
	Timestamp time.Time
}

// HistoryService reconstructs entity histories from the audit trail. Reads
// are idempotent: without intervening mutations, repeated calls return
// identical ordered sequences.
type HistoryService interface {
	// Project requires membership.
	Project(ctx context.Context, actor domain.Actor, projectID string) ([]ProjectHistoryEntry, error)

	// Task requires membership in the owning project.
	Task(ctx context.Context, actor domain.Actor, taskID string) ([]TaskHistoryEntry, error)
}
