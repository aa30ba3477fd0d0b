package app

import (
	"context"
	"fmt"
	"log/slog"

	"taskledger/internal/domain"
	"taskledger/internal/domain/audit"
	"taskledger/internal/domain/authz"
	"taskledger/internal/ports"
)

// Compile-time check that HistoryService implements ports.HistoryService.
var _ ports.HistoryService = (*HistoryService)(nil)

// HistoryService reconstructs entity histories by replaying the audit trail
// and resolving acting users through the directory. No history is stored;
// every call replays from the records.
type HistoryService struct {
	projects ports.ProjectStore
	tasks    ports.TaskStore
	audits   ports.AuditStore
	users    ports.UserDirectory
	logger   *slog.Logger
}

// NewHistoryService creates a HistoryService. A nil logger is replaced with a
// no-op logger.
func NewHistoryService(
	projects ports.ProjectStore,
	tasks ports.TaskStore,
	audits ports.AuditStore,
	users ports.UserDirectory,
	logger *slog.Logger,
) *HistoryService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &HistoryService{
		projects: projects,
		tasks:    tasks,
		audits:   audits,
		users:    users,
		logger:   logger,
	}
}

// Project returns the project's full reconstructed history, oldest first.
// Member only. Archived projects remain readable.
func (s *HistoryService) Project(ctx context.Context, actor domain.Actor, projectID string) ([]ports.ProjectHistoryEntry, error) {
	p, err := s.projects.FindByID(ctx, nil, projectID)
	if err != nil {
		return nil, fmt.Errorf("loading project %s: %w", projectID, err)
	}
	if p == nil {
		return nil, fmt.Errorf("%w: project %s", domain.ErrNotFound, projectID)
	}
	if err := authz.RequireMember(actor, p); err != nil {
		return nil, err
	}

	records, err := s.audits.ListByEntity(ctx, audit.KindProject, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing audit records for project %s: %w", projectID, err)
	}
	replayed, err := audit.ReplayProject(records)
	if err != nil {
		return nil, err
	}

	resolve := s.actorResolver(ctx)
	entries := make([]ports.ProjectHistoryEntry, 0, len(replayed))
	for _, e := range replayed {
		entries = append(entries, ports.ProjectHistoryEntry{
			Action:    e.Action,
			State:     e.State,
			Actor:     resolve(e.ActorID),
			Timestamp: e.Timestamp,
		})
	}
	return entries, nil
}

// Task returns the task's full reconstructed history, oldest first. Member of
// the owning project only.
func (s *HistoryService) Task(ctx context.Context, actor domain.Actor, taskID string) ([]ports.TaskHistoryEntry, error) {
	t, err := s.tasks.FindByID(ctx, nil, taskID)
	if err != nil {
		return nil, fmt.Errorf("loading task %s: %w", taskID, err)
	}
	if t == nil {
		return nil, fmt.Errorf("%w: task %s", domain.ErrNotFound, taskID)
	}

	p, err := s.projects.FindByID(ctx, nil, t.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("loading project %s for task %s: %w", t.ProjectID, taskID, err)
	}
	if p == nil {
		return nil, fmt.Errorf("task %s references missing project %s", taskID, t.ProjectID)
	}
	if err := authz.RequireMember(actor, p); err != nil {
		return nil, err
	}

	records, err := s.audits.ListByEntity(ctx, audit.KindTask, taskID)
	if err != nil {
		return nil, fmt.Errorf("listing audit records for task %s: %w", taskID, err)
	}
	replayed, err := audit.ReplayTask(records)
	if err != nil {
		return nil, err
	}

	resolve := s.actorResolver(ctx)
	entries := make([]ports.TaskHistoryEntry, 0, len(replayed))
	for _, e := range replayed {
		entries = append(entries, ports.TaskHistoryEntry{
			Action:    e.Action,
			State:     e.State,
			Actor:     resolve(e.ActorID),
			Timestamp: e.Timestamp,
		})
	}
	return entries, nil
}

// actorResolver returns a per-call memoized directory lookup. An actor no
// longer known to the directory still appears in history under their id; a
// directory failure degrades the same way rather than failing the read.
func (s *HistoryService) actorResolver(ctx context.Context) func(userID string) ports.User {
	cache := make(map[string]ports.User)
	return func(userID string) ports.User {
		if u, ok := cache[userID]; ok {
			return u
		}
		resolved := ports.User{ID: userID}
		u, err := s.users.FindByID(ctx, userID)
		switch {
		case err != nil:
			s.logger.WarnContext(ctx, "failed to resolve history actor",
				slog.String("operation", "HistoryService.actorResolver"),
				slog.String("user_id", userID),
				slog.Any("error", err),
			)
		case u != nil:
			resolved = *u
		}
		cache[userID] = resolved
		return resolved
	}
}
