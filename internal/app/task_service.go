package app

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"taskledger/internal/domain"
	"taskledger/internal/domain/audit"
	"taskledger/internal/domain/authz"
	"taskledger/internal/domain/project"
	"taskledger/internal/domain/task"
	"taskledger/internal/ports"
)

// Compile-time check that TaskService implements ports.TaskService.
var _ ports.TaskService = (*TaskService)(nil)

// TaskService orchestrates the task use cases. Every mutation loads the
// owning project as well, because both the authorization policy and the
// archived-project gate depend on it.
type TaskService struct {
	tasks    ports.TaskStore
	projects ports.ProjectStore
	audits   ports.AuditStore
	users    ports.UserDirectory
	txm      ports.TxManager
	notifier ports.Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewTaskService creates a TaskService. Nil logger and clock default to a
// no-op logger and time.Now.
func NewTaskService(
	tasks ports.TaskStore,
	projects ports.ProjectStore,
	audits ports.AuditStore,
	users ports.UserDirectory,
	txm ports.TxManager,
	notifier ports.Notifier,
	logger *slog.Logger,
	now func() time.Time,
) *TaskService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if now == nil {
		now = time.Now
	}
	return &TaskService{
		tasks:    tasks,
		projects: projects,
		audits:   audits,
		users:    users,
		txm:      txm,
		notifier: notifier,
		logger:   logger,
		now:      now,
	}
}

// Create creates a new Open task in the given project. Manager only; the
// project must be active.
func (s *TaskService) Create(ctx context.Context, actor domain.Actor, projectID string, in ports.TaskCreate) (*task.Task, error) {
	s.logger.InfoContext(ctx, "creating task",
		slog.String("operation", "TaskService.Create"),
		slog.String("project_id", projectID),
		slog.String("actor", actor.UserID),
	)

	tx, err := s.txm.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	p, err := s.loadProject(ctx, tx, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.checkAssigneesExist(ctx, in.Assignees); err != nil {
		return nil, err
	}
	if err := authz.RequireManager(actor, p); err != nil {
		return nil, err
	}
	if err := p.RequireActive(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	t := &task.Task{
		ID:          uuid.NewString(),
		ProjectID:   projectID,
		Name:        in.Name,
		Description: in.Description,
		Open:        true,
		Assignees:   task.CloneAssignees(in.Assignees),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	saved, err := s.persist(ctx, tx, actor, t, audit.ActionTaskCreated, audit.TaskCreatedPayload{
		Name:        t.Name,
		Description: t.Description,
		Assignees:   task.CloneAssignees(t.Assignees),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to create task",
			slog.String("operation", "TaskService.Create"),
			slog.String("project_id", projectID),
			slog.Any("error", err),
		)
		return nil, err
	}

	s.notify(ctx, actor, audit.ActionTaskCreated, saved)
	return saved, nil
}

// Update replaces the task's name, description and assignee set. Manager
// only; the owning project must be active. Closed tasks may still be updated.
func (s *TaskService) Update(ctx context.Context, actor domain.Actor, id string, in ports.TaskUpdate) (*task.Task, error) {
	s.logger.InfoContext(ctx, "updating task",
		slog.String("operation", "TaskService.Update"),
		slog.String("task_id", id),
		slog.String("actor", actor.UserID),
	)

	tx, err := s.txm.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	t, p, err := s.loadTaskAndProject(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkAssigneesExist(ctx, in.Assignees); err != nil {
		return nil, err
	}
	if err := authz.RequireManager(actor, p); err != nil {
		return nil, err
	}
	if err := p.RequireActive(); err != nil {
		return nil, err
	}

	payload := audit.TaskUpdatedPayload{
		OldName:        t.Name,
		NewName:        in.Name,
		OldDescription: t.Description,
		NewDescription: in.Description,
		OldAssignees:   task.CloneAssignees(t.Assignees),
		NewAssignees:   task.CloneAssignees(in.Assignees),
	}

	t.Name = in.Name
	t.Description = in.Description
	t.Assignees = task.CloneAssignees(in.Assignees)
	t.UpdatedAt = s.now().UTC()
	if err := t.Validate(); err != nil {
		return nil, err
	}

	saved, err := s.persist(ctx, tx, actor, t, audit.ActionTaskUpdated, payload)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to update task",
			slog.String("operation", "TaskService.Update"),
			slog.String("task_id", id),
			slog.Any("error", err),
		)
		return nil, err
	}

	s.notify(ctx, actor, audit.ActionTaskUpdated, saved)
	return saved, nil
}

// Close transitions the task to Closed. Assignee or manager; the owning
// project must be active.
func (s *TaskService) Close(ctx context.Context, actor domain.Actor, id string) (*task.Task, error) {
	return s.transition(ctx, actor, id, audit.ActionTaskClosed, (*task.Task).Close)
}

// Reopen transitions the task back to Open. Assignee or manager; the owning
// project must be active.
func (s *TaskService) Reopen(ctx context.Context, actor domain.Actor, id string) (*task.Task, error) {
	return s.transition(ctx, actor, id, audit.ActionTaskReopened, (*task.Task).Reopen)
}

// Get returns one task. Member of the owning project only.
func (s *TaskService) Get(ctx context.Context, actor domain.Actor, id string) (*task.Task, error) {
	t, p, err := s.loadTaskAndProject(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireMember(actor, p); err != nil {
		return nil, err
	}
	return t, nil
}

// ListByProject returns the project's tasks. Member only; archived projects
// remain readable.
func (s *TaskService) ListByProject(ctx context.Context, actor domain.Actor, projectID string) ([]task.Task, error) {
	p, err := s.loadProject(ctx, nil, projectID)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireMember(actor, p); err != nil {
		return nil, err
	}
	return s.tasks.ListByProject(ctx, projectID)
}

// transition runs the shared close/reopen protocol. The assignee exception
// applies only here: assignees may flip the flag even as plain workers or
// guests, but never on an archived project.
func (s *TaskService) transition(
	ctx context.Context,
	actor domain.Actor,
	id string,
	action audit.Action,
	apply func(*task.Task) error,
) (*task.Task, error) {
	s.logger.InfoContext(ctx, "transitioning task",
		slog.String("operation", "TaskService."+string(action)),
		slog.String("task_id", id),
		slog.String("actor", actor.UserID),
	)

	tx, err := s.txm.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	t, p, err := s.loadTaskAndProject(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireManagerOrAssignee(actor, t, p); err != nil {
		return nil, err
	}
	if err := p.RequireActive(); err != nil {
		return nil, err
	}
	if err := apply(t); err != nil {
		return nil, fmt.Errorf("task %s: %w", id, err)
	}
	t.UpdatedAt = s.now().UTC()

	saved, err := s.persist(ctx, tx, actor, t, action, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to transition task",
			slog.String("operation", "TaskService."+string(action)),
			slog.String("task_id", id),
			slog.Any("error", err),
		)
		return nil, err
	}

	s.notify(ctx, actor, action, saved)
	return saved, nil
}

// persist writes the task and appends the audit record inside tx, then
// commits.
func (s *TaskService) persist(ctx context.Context, tx ports.Tx, actor domain.Actor, t *task.Task, action audit.Action, payload any) (*task.Task, error) {
	saved, err := s.tasks.Save(ctx, tx, t)
	if err != nil {
		return nil, fmt.Errorf("saving task %s: %w", t.ID, err)
	}

	rec, err := audit.NewRecord(audit.KindTask, t.ID, action, actor.UserID, s.now().UTC(), payload)
	if err != nil {
		return nil, err
	}
	if err := s.audits.Append(ctx, tx, &rec); err != nil {
		return nil, fmt.Errorf("appending audit record for task %s: %w", t.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return saved, nil
}

// loadTaskAndProject fetches a task and its owning project together. A task
// whose project is missing indicates store corruption and is reported as an
// internal error, not as not-found.
func (s *TaskService) loadTaskAndProject(ctx context.Context, tx ports.Tx, id string) (*task.Task, *project.Project, error) {
	t, err := s.tasks.FindByID(ctx, tx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("loading task %s: %w", id, err)
	}
	if t == nil {
		return nil, nil, fmt.Errorf("%w: task %s", domain.ErrNotFound, id)
	}

	p, err := s.projects.FindByID(ctx, tx, t.ProjectID)
	if err != nil {
		return nil, nil, fmt.Errorf("loading project %s for task %s: %w", t.ProjectID, id, err)
	}
	if p == nil {
		return nil, nil, fmt.Errorf("task %s references missing project %s", id, t.ProjectID)
	}
	return t, p, nil
}

// loadProject fetches a project, mapping absence to a not-found error.
func (s *TaskService) loadProject(ctx context.Context, tx ports.Tx, id string) (*project.Project, error) {
	p, err := s.projects.FindByID(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("loading project %s: %w", id, err)
	}
	if p == nil {
		return nil, fmt.Errorf("%w: project %s", domain.ErrNotFound, id)
	}
	return p, nil
}

// checkAssigneesExist verifies every referenced assignee against the
// directory in sorted order for a deterministic first failure.
func (s *TaskService) checkAssigneesExist(ctx context.Context, assignees []string) error {
	ids := task.CloneAssignees(assignees)
	slices.Sort(ids)
	return checkUsersExist(ctx, s.users, ids)
}

// notify publishes the committed mutation, logging and swallowing failures.
func (s *TaskService) notify(ctx context.Context, actor domain.Actor, action audit.Action, t *task.Task) {
	n := ports.Notification{
		Action:   action,
		Actor:    actor,
		Occurred: s.now().UTC(),
		Task:     t,
	}
	if err := s.notifier.Publish(ctx, n); err != nil {
		s.logger.WarnContext(ctx, "failed to publish notification",
			slog.String("operation", "TaskService.notify"),
			slog.String("action", string(action)),
			slog.String("task_id", t.ID),
			slog.Any("error", err),
		)
	}
}
