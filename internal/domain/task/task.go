package task

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"taskledger/internal/domain"
)

const (
	msgRequired = "is required"

	maxNameLen        = 255
	maxDescriptionLen = 8191
)

// Task is a unit of work owned by exactly one project. ProjectID is immutable
// after creation. Version is the optimistic concurrency token, bumped by the
// store on every write; zero means not yet persisted.
type Task struct {
	ID          string
	ProjectID   string
	Name        string
	Description string
	Open        bool
	Assignees   []string
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks business rules for the Task entity.
// Returns a *domain.ValidationError (wrapping domain.ErrValidation) with
// per-field details for every violation, or nil if all rules pass.
func (t *Task) Validate() error {
	fields := make(map[string]string)

	if strings.TrimSpace(t.ProjectID) == "" {
		fields["project_id"] = msgRequired
	}
	if strings.TrimSpace(t.Name) == "" {
		fields["name"] = msgRequired
	} else if utf8.RuneCountInString(t.Name) > maxNameLen {
		fields["name"] = fmt.Sprintf("must be at most %d characters", maxNameLen)
	}
	if strings.TrimSpace(t.Description) == "" {
		fields["description"] = msgRequired
	} else if utf8.RuneCountInString(t.Description) > maxDescriptionLen {
		fields["description"] = fmt.Sprintf("must be at most %d characters", maxDescriptionLen)
	}
	for _, userID := range t.Assignees {
		if strings.TrimSpace(userID) == "" {
			fields["assignees"] = "assignee user id must not be empty"
			break
		}
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

// Close transitions Open -> Closed.
func (t *Task) Close() error {
	if !t.Open {
		return domain.ErrAlreadyClosed
	}
	t.Open = false
	return nil
}

// Reopen transitions Closed -> Open.
func (t *Task) Reopen() error {
	if t.Open {
		return domain.ErrAlreadyOpen
	}
	t.Open = true
	return nil
}

// HasAssignee reports whether the user is assigned to this task.
func (t *Task) HasAssignee(userID string) bool {
	return slices.Contains(t.Assignees, userID)
}

// CloneAssignees returns a defensive copy of an assignee list.
// Nil input yields an empty, non-nil slice.
func CloneAssignees(assignees []string) []string {
	clone := make([]string, len(assignees))
	copy(clone, assignees)
	return clone
}
