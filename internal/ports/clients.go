package ports

import (
	"context"
	"time"

	"taskledger/internal/domain"
	"taskledger/internal/domain/audit"
	"taskledger/internal/domain/project"
	"taskledger/internal/domain/task"
)

// User is a directory entry for a known user.
type User struct {
	ID        string
	FirstName string
	LastName  string
}

// UserDirectory is the external identity directory. This core never mutates
// it; the only local write is a cached copy of looked-up users, maintained by
// the adapter outside the mutation transaction. FindByID reports absence as
// (nil, nil).
type UserDirectory interface {
	Exists(ctx context.Context, userID string) (bool, error)
	FindByID(ctx context.Context, userID string) (*User, error)
}

// Notification describes one committed mutation for the outbound channel.
// Exactly one of Project/Task is set, matching the mutated entity.
type Notification struct {
	Action   audit.Action
	Actor    domain.Actor
	Occurred time.Time
	Project  *project.Project
	Task     *task.Task
}

// Notifier publishes committed mutations. Fire-and-forget: the application
// layer logs and swallows publish failures, so implementations must never be
// required for durability.
type Notifier interface {
	Publish(ctx context.Context, n Notification) error
}

// HealthChecker is implemented by components that can report their health.
type HealthChecker interface {
	Name() string
	HealthCheck(ctx context.Context) error
}

// HealthRegistry tracks health checkers for the readiness endpoint.
type HealthRegistry interface {
	Register(checker HealthChecker)
	CheckAll(ctx context.Context) map[string]error
}
