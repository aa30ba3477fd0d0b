// Package audit defines the immutable audit trail: one record per committed
// mutation, and pure replay of a record sequence into point-in-time history
// entries. Records are the system of record for "who did what, when" and are
// never edited after append.
package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"taskledger/internal/domain"
)

// Action identifies the mutation a record describes. The set is closed.
type Action string

const (
	ActionProjectCreated  Action = "project.created"
	ActionProjectUpdated  Action = "project.updated"
	ActionProjectArchived Action = "project.archived"
	ActionProjectRestored Action = "project.restored"
	ActionTaskCreated     Action = "task.created"
	ActionTaskUpdated     Action = "task.updated"
	ActionTaskClosed      Action = "task.closed"
	ActionTaskReopened    Action = "task.reopened"
)

// Entity kinds records are keyed to.
const (
	KindProject = "project"
	KindTask    = "task"
)

// Record is one append-only audit trail entry. ID is assigned by the store on
// append and serves as the tie-break for records sharing a timestamp.
type Record struct {
	ID         int64
	EntityKind string
	EntityID   string
	Action     Action
	ActorID    string
	Timestamp  time.Time
	Payload    json.RawMessage
}

// ProjectCreatedPayload captures the full initial project state.
type ProjectCreatedPayload struct {
	Name    string                 `json:"name"`
	Members map[string]domain.Role `json:"members"`
}

// ProjectUpdatedPayload carries both sides of the delta so replay can answer
// "what changed" without reading neighbouring records.
type ProjectUpdatedPayload struct {
	OldName    string                 `json:"old_name"`
	NewName    string                 `json:"new_name"`
	OldMembers map[string]domain.Role `json:"old_members"`
	NewMembers map[string]domain.Role `json:"new_members"`
}

// TaskCreatedPayload captures the full initial task state.
type TaskCreatedPayload struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Assignees   []string `json:"assignees"`
}

// TaskUpdatedPayload carries both sides of the delta.
type TaskUpdatedPayload struct {
	OldName        string   `json:"old_name"`
	NewName        string   `json:"new_name"`
	OldDescription string   `json:"old_description"`
	NewDescription string   `json:"new_description"`
	OldAssignees   []string `json:"old_assignees"`
	NewAssignees   []string `json:"new_assignees"`
}

// NewRecord builds an unappended record for the given entity and action.
// Archive/restore/close/reopen actions take a nil payload; the flag flip is
// implied by the action itself.
func NewRecord(kind, entityID string, action Action, actorID string, ts time.Time, payload any) (Record, error) {
	raw := json.RawMessage(`{}`)
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return Record{}, fmt.Errorf("marshal %s payload: %w", action, err)
		}
		raw = data
	}
	return Record{
		EntityKind: kind,
		EntityID:   entityID,
		Action:     action,
		ActorID:    actorID,
		Timestamp:  ts,
		Payload:    raw,
	}, nil
}
