package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"taskledger/internal/domain"
	"taskledger/internal/domain/project"
	"taskledger/internal/domain/task"
)

// Entry is one reconstructed history step: the entity's field-level state as
// it existed immediately after the record's action was committed. The slice
// returned by a replay is never mutated afterwards; callers treat it as a
// finite list.
type Entry[S any] struct {
	Action    Action
	State     S
	ActorID   string
	Timestamp time.Time
}

// ProjectState is a project field snapshot inside a history entry.
type ProjectState struct {
	Name     string
	Archived bool
	Members  map[string]domain.Role
}

// TaskState is a task field snapshot inside a history entry.
type TaskState struct {
	Name        string
	Description string
	Open        bool
	Assignees   []string
}

// ReplayProject folds an ordered record sequence for one project into history
// entries. Update entries take the "new" side of the stored delta directly;
// archive/restore flip the archived flag of the prior snapshot. The function
// is pure: same records in, same entries out.
func ReplayProject(records []Record) ([]Entry[ProjectState], error) {
	entries := make([]Entry[ProjectState], 0, len(records))
	var cur ProjectState

	for _, rec := range records {
		switch rec.Action {
		case ActionProjectCreated:
			var p ProjectCreatedPayload
			if err := json.Unmarshal(rec.Payload, &p); err != nil {
				return nil, fmt.Errorf("decode %s record %d: %w", rec.Action, rec.ID, err)
			}
			cur = ProjectState{Name: p.Name, Members: project.CloneMembers(p.Members)}
		case ActionProjectUpdated:
			var p ProjectUpdatedPayload
			if err := json.Unmarshal(rec.Payload, &p); err != nil {
				return nil, fmt.Errorf("decode %s record %d: %w", rec.Action, rec.ID, err)
			}
			cur.Name = p.NewName
			cur.Members = project.CloneMembers(p.NewMembers)
		case ActionProjectArchived:
			cur.Archived = true
		case ActionProjectRestored:
			cur.Archived = false
		default:
			return nil, fmt.Errorf("replay project: unknown action %q in record %d", rec.Action, rec.ID)
		}

		entries = append(entries, Entry[ProjectState]{
			Action:    rec.Action,
			State:     ProjectState{Name: cur.Name, Archived: cur.Archived, Members: project.CloneMembers(cur.Members)},
			ActorID:   rec.ActorID,
			Timestamp: rec.Timestamp,
		})
	}
	return entries, nil
}

// ReplayTask folds an ordered record sequence for one task into history
// entries, mirroring ReplayProject.
func ReplayTask(records []Record) ([]Entry[TaskState], error) {
	entries := make([]Entry[TaskState], 0, len(records))
	var cur TaskState

	for _, rec := range records {
		switch rec.Action {
		case ActionTaskCreated:
			var p TaskCreatedPayload
			if err := json.Unmarshal(rec.Payload, &p); err != nil {
				return nil, fmt.Errorf("decode %s record %d: %w", rec.Action, rec.ID, err)
			}
			cur = TaskState{Name: p.Name, Description: p.Description, Open: true, Assignees: task.CloneAssignees(p.Assignees)}
		case ActionTaskUpdated:
			var p TaskUpdatedPayload
			if err := json.Unmarshal(rec.Payload, &p); err != nil {
				return nil, fmt.Errorf("decode %s record %d: %w", rec.Action, rec.ID, err)
			}
			cur.Name = p.NewName
			cur.Description = p.NewDescription
			cur.Assignees = task.CloneAssignees(p.NewAssignees)
		case ActionTaskClosed:
			cur.Open = false
		case ActionTaskReopened:
			cur.Open = true
		default:
			return nil, fmt.Errorf("replay task: unknown action %q in record %d", rec.Action, rec.ID)
		}

		entries = append(entries, Entry[TaskState]{
			Action:    rec.Action,
			State:     TaskState{Name: cur.Name, Description: cur.Description, Open: cur.Open, Assignees: task.CloneAssignees(cur.Assignees)},
			ActorID:   rec.ActorID,
			Timestamp: rec.Timestamp,
		})
	}
	return entries, nil
}
