// Package app provides the use case orchestrators. Each mutation follows one
// protocol: open a transaction, load the target entity, verify referenced
// users against the directory, evaluate the authorization policy, evaluate
// the lifecycle rule, validate the computed state, persist entity and audit
// record inside the transaction, commit, then notify outside the transaction.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"taskledger/internal/domain"
	"taskledger/internal/domain/audit"
	"taskledger/internal/domain/authz"
	"taskledger/internal/domain/project"
	"taskledger/internal/ports"
)

// Compile-time check that ProjectService implements ports.ProjectService.
var _ ports.ProjectService = (*ProjectService)(nil)

// ProjectService orchestrates the project use cases.
type ProjectService struct {
	projects ports.ProjectStore
	audits   ports.AuditStore
	users    ports.UserDirectory
	txm      ports.TxManager
	notifier ports.Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewProjectService creates a ProjectService. The clock is explicit so audit
// timestamps stay deterministic in tests; nil defaults to time.Now. A nil
// logger is replaced with a no-op logger.
func NewProjectService(
	projects ports.ProjectStore,
	audits ports.AuditStore,
	users ports.UserDirectory,
	txm ports.TxManager,
	notifier ports.Notifier,
	logger *slog.Logger,
	now func() time.Time,
) *ProjectService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if now == nil {
		now = time.Now
	}
	return &ProjectService{
		projects: projects,
		audits:   audits,
		users:    users,
		txm:      txm,
		notifier: notifier,
		logger:   logger,
		now:      now,
	}
}

// Create creates a new Active project. Administrator only.
func (s *ProjectService) Create(ctx context.Context, actor domain.Actor, in ports.ProjectCreate) (*project.Project, error) {
	s.logger.InfoContext(ctx, "creating project",
		slog.String("operation", "ProjectService.Create"),
		slog.String("actor", actor.UserID),
	)

	if err := s.checkMembersExist(ctx, in.Members); err != nil {
		return nil, err
	}
	if err := authz.RequireAdministrator(actor); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	p := &project.Project{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Members:   project.CloneMembers(in.Members),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	saved, err := s.mutate(ctx, actor, p, audit.ActionProjectCreated, audit.ProjectCreatedPayload{
		Name:    p.Name,
		Members: project.CloneMembers(p.Members),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to create project",
			slog.String("operation", "ProjectService.Create"),
			slog.Any("error", err),
		)
		return nil, err
	}
	return saved, nil
}

// Update replaces the project's display name and member map. Manager only;
// fails on archived projects.
func (s *ProjectService) Update(ctx context.Context, actor domain.Actor, id string, in ports.ProjectUpdate) (*project.Project, error) {
	s.logger.InfoContext(ctx, "updating project",
		slog.String("operation", "ProjectService.Update"),
		slog.String("project_id", id),
		slog.String("actor", actor.UserID),
	)

	tx, err := s.txm.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	p, err := s.load(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkMembersExist(ctx, in.Members); err != nil {
		return nil, err
	}
	if err := authz.RequireManager(actor, p); err != nil {
		return nil, err
	}
	if err := p.RequireActive(); err != nil {
		return nil, err
	}

	payload := audit.ProjectUpdatedPayload{
		OldName:    p.Name,
		NewName:    in.Name,
		OldMembers: project.CloneMembers(p.Members),
		NewMembers: project.CloneMembers(in.Members),
	}

	p.Name = in.Name
	p.Members = project.CloneMembers(in.Members)
	p.UpdatedAt = s.now().UTC()
	if err := p.Validate(); err != nil {
		return nil, err
	}

	saved, err := s.persist(ctx, tx, actor, p, audit.ActionProjectUpdated, payload)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to update project",
			slog.String("operation", "ProjectService.Update"),
			slog.String("project_id", id),
			slog.Any("error", err),
		)
		return nil, err
	}

	s.notify(ctx, actor, audit.ActionProjectUpdated, saved)
	return saved, nil
}

// Archive transitions the project to Archived. Manager only.
func (s *ProjectService) Archive(ctx context.Context, actor domain.Actor, id string) (*project.Project, error) {
	return s.transition(ctx, actor, id, audit.ActionProjectArchived, (*project.Project).Archive)
}

// Restore transitions the project back to Active. Manager only.
func (s *ProjectService) Restore(ctx context.Context, actor domain.Actor, id string) (*project.Project, error) {
	return s.transition(ctx, actor, id, audit.ActionProjectRestored, (*project.Project).Restore)
}

// Get returns one project. Member only.
func (s *ProjectService) Get(ctx context.Context, actor domain.Actor, id string) (*project.Project, error) {
	p, err := s.load(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireMember(actor, p); err != nil {
		return nil, err
	}
	return p, nil
}

// List returns the projects visible to the actor. Administrators see every
// project; everyone else sees only non-archived projects where they hold a
// membership. The store is asked for the correct subset directly.
func (s *ProjectService) List(ctx context.Context, actor domain.Actor) ([]project.Project, error) {
	if actor.Admin {
		return s.projects.ListAll(ctx)
	}
	return s.projects.ListForMember(ctx, actor.UserID)
}

// transition runs the shared archive/restore protocol: load under the
// transaction, authorize as manager, apply the guarded flip, persist with an
// empty-payload audit record, notify after commit.
func (s *ProjectService) transition(
	ctx context.Context,
	actor domain.Actor,
	id string,
	action audit.Action,
	apply func(*project.Project) error,
) (*project.Project, error) {
	s.logger.InfoContext(ctx, "transitioning project",
		slog.String("operation", "ProjectService."+string(action)),
		slog.String("project_id", id),
		slog.String("actor", actor.UserID),
	)

	tx, err := s.txm.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	p, err := s.load(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireManager(actor, p); err != nil {
		return nil, err
	}
	if err := apply(p); err != nil {
		return nil, fmt.Errorf("project %s: %w", id, err)
	}
	p.UpdatedAt = s.now().UTC()

	saved, err := s.persist(ctx, tx, actor, p, action, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to transition project",
			slog.String("operation", "ProjectService."+string(action)),
			slog.String("project_id", id),
			slog.Any("error", err),
		)
		return nil, err
	}

	s.notify(ctx, actor, action, saved)
	return saved, nil
}

// mutate wraps persist in its own transaction for operations that have no
// prior entity to load (create).
func (s *ProjectService) mutate(ctx context.Context, actor domain.Actor, p *project.Project, action audit.Action, payload any) (*project.Project, error) {
	tx, err := s.txm.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	saved, err := s.persist(ctx, tx, actor, p, action, payload)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, actor, action, saved)
	return saved, nil
}

// persist writes the entity and appends the audit record inside tx, then
// commits. Nothing becomes visible if any step fails.
func (s *ProjectService) persist(ctx context.Context, tx ports.Tx, actor domain.Actor, p *project.Project, action audit.Action, payload any) (*project.Project, error) {
	saved, err := s.projects.Save(ctx, tx, p)
	if err != nil {
		return nil, fmt.Errorf("saving project %s: %w", p.ID, err)
	}

	rec, err := audit.NewRecord(audit.KindProject, p.ID, action, actor.UserID, s.now().UTC(), payload)
	if err != nil {
		return nil, err
	}
	if err := s.audits.Append(ctx, tx, &rec); err != nil {
		return nil, fmt.Errorf("appending audit record for project %s: %w", p.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return saved, nil
}

// load fetches a project, mapping absence to a not-found error naming the id.
func (s *ProjectService) load(ctx context.Context, tx ports.Tx, id string) (*project.Project, error) {
	p, err := s.projects.FindByID(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("loading project %s: %w", id, err)
	}
	if p == nil {
		return nil, fmt.Errorf("%w: project %s", domain.ErrNotFound, id)
	}
	return p, nil
}

// checkMembersExist verifies every referenced member against the directory.
// IDs are checked in sorted order so the first missing user reported is
// deterministic.
func (s *ProjectService) checkMembersExist(ctx context.Context, members map[string]domain.Role) error {
	ids := make([]string, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return checkUsersExist(ctx, s.users, ids)
}

// notify publishes the committed mutation. Failures are logged and swallowed;
// durability never depends on notification delivery.
func (s *ProjectService) notify(ctx context.Context, actor domain.Actor, action audit.Action, p *project.Project) {
	n := ports.Notification{
		Action:   action,
		Actor:    actor,
		Occurred: s.now().UTC(),
		Project:  p,
	}
	if err := s.notifier.Publish(ctx, n); err != nil {
		s.logger.WarnContext(ctx, "failed to publish notification",
			slog.String("operation", "ProjectService.notify"),
			slog.String("action", string(action)),
			slog.String("project_id", p.ID),
			slog.Any("error", err),
		)
	}
}

// checkUsersExist verifies each user id against the directory, failing with a
// not-found error naming the first missing user.
func checkUsersExist(ctx context.Context, dir ports.UserDirectory, ids []string) error {
	for _, id := range ids {
		ok, err := dir.Exists(ctx, id)
		if err != nil {
			return fmt.Errorf("checking user %s: %w", id, err)
		}
		if !ok {
			return fmt.Errorf("%w: user %s", domain.ErrNotFound, id)
		}
	}
	return nil
}
