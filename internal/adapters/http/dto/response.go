// Package dto provides HTTP request/response data transfer objects and
// RFC 9457 Problem Details error responses for the inbound HTTP adapter layer.
package dto

import (
	"time"

	"taskledger/internal/domain/project"
	"taskledger/internal/domain/task"
	"taskledger/internal/ports"
)

// ProjectResponse represents a single project in HTTP responses.
type ProjectResponse struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Archived  bool              `json:"archived"`
	Members   map[string]string `json:"members"`
	Version   int64             `json:"version"`
	CreatedAt string            `json:"created_at"`
	UpdatedAt string            `json:"updated_at"`
}

// ProjectListResponse represents a list of projects in HTTP responses.
type ProjectListResponse struct {
	Projects []ProjectResponse `json:"projects"`
	Count    int               `json:"count"`
}

// ToProjectResponse converts a domain Project entity to an HTTP response DTO.
func ToProjectResponse(p *project.Project) ProjectResponse {
	members := make(map[string]string, len(p.Members))
	for userID, role := range p.Members {
		members[userID] = string(role)
	}
	return ProjectResponse{
		ID:        p.ID,
		Name:      p.Name,
		Archived:  p.Archived,
		Members:   members,
		Version:   p.Version,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
		UpdatedAt: p.UpdatedAt.Format(time.RFC3339),
	}
}

// ToProjectListResponse converts a slice of domain Project entities to an
// HTTP list response DTO.
func ToProjectListResponse(projects []project.Project) ProjectListResponse {
	items := make([]ProjectResponse, len(projects))
	for i := range projects {
		items[i] = ToProjectResponse(&projects[i])
	}
	return ProjectListResponse{
		Projects: items,
		Count:    len(items),
	}
}

// TaskResponse represents a single task in HTTP responses.
type TaskResponse struct {
	ID          string   `json:"id"`
	ProjectID   string   `json:"project_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Open        bool     `json:"open"`
	Assignees   []string `json:"assignees"`
	Version     int64    `json:"version"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

// TaskListResponse represents a list of tasks in HTTP responses.
type TaskListResponse struct {
	Tasks []TaskResponse `json:"tasks"`
	Count int            `json:"count"`
}

// ToTaskResponse converts a domain Task entity to an HTTP response DTO.
func ToTaskResponse(t *task.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		ProjectID:   t.ProjectID,
		Name:        t.Name,
		Description: t.Description,
		Open:        t.Open,
		Assignees:   task.CloneAssignees(t.Assignees),
		Version:     t.Version,
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   t.UpdatedAt.Format(time.RFC3339),
	}
}

// ToTaskListResponse converts a slice of domain Task entities to an HTTP
// list response DTO.
func ToTaskListResponse(tasks []task.Task) TaskListResponse {
	items := make([]TaskResponse, len(tasks))
	for i := range tasks {
		items[i] = ToTaskResponse(&tasks[i])
	}
	return TaskListResponse{
		Tasks: items,
		Count: len(items),
	}
}

// HistoryActorResponse identifies the user who performed a history step.
// Names are best-effort: when the directory cannot resolve the user only
// the id is populated.
type HistoryActorResponse struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// ProjectHistoryEntryResponse is one reconstructed step of a project's history.
type ProjectHistoryEntryResponse struct {
	Action    string               `json:"action"`
	Actor     HistoryActorResponse `json:"actor"`
	Timestamp string               `json:"timestamp"`
	State     ProjectStateResponse `json:"state"`
}

// ProjectStateResponse is the project snapshot after a history step.
type ProjectStateResponse struct {
	Name     string            `json:"name"`
	Archived bool              `json:"archived"`
	Members  map[string]string `json:"members"`
}

// ProjectHistoryResponse represents a project's full audit history.
type ProjectHistoryResponse struct {
	Entries []ProjectHistoryEntryResponse `json:"entries"`
	Count   int                           `json:"count"`
}

// ToProjectHistoryResponse converts reconstructed history entries to an HTTP
// response DTO.
func ToProjectHistoryResponse(entries []ports.ProjectHistoryEntry) ProjectHistoryResponse {
	items := make([]ProjectHistoryEntryResponse, len(entries))
	for i, e := range entries {
		members := make(map[string]string, len(e.State.Members))
		for userID, role := range e.State.Members {
			members[userID] = string(role)
		}
		items[i] = ProjectHistoryEntryResponse{
			Action: string(e.Action),
			Actor: HistoryActorResponse{
				ID:        e.Actor.ID,
				FirstName: e.Actor.FirstName,
				LastName:  e.Actor.LastName,
			},
			Timestamp: e.Timestamp.Format(time.RFC3339),
			State: ProjectStateResponse{
				Name:     e.State.Name,
				Archived: e.State.Archived,
				Members:  members,
			},
		}
	}
	return ProjectHistoryResponse{Entries: items, Count: len(items)}
}

// TaskHistoryEntryResponse is one reconstructed step of a task's history.
type TaskHistoryEntryResponse struct {
	Action    string               `json:"action"`
	Actor     HistoryActorResponse `json:"actor"`
	Timestamp string               `json:"timestamp"`
	State     TaskStateResponse    `json:"state"`
}

// TaskStateResponse is the task snapshot after a history step.
type TaskStateResponse struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Open        bool     `json:"open"`
	Assignees   []string `json:"assignees"`
}

// TaskHistoryResponse represents a task's full audit history.
type TaskHistoryResponse struct {
	Entries []TaskHistoryEntryResponse `json:"entries"`
	Count   int                        `json:"count"`
}

// ToTaskHistoryResponse converts reconstructed history entries to an HTTP
// response DTO.
func ToTaskHistoryResponse(entries []ports.TaskHistoryEntry) TaskHistoryResponse {
	items := make([]TaskHistoryEntryResponse, len(entries))
	for i, e := range entries {
		items[i] = TaskHistoryEntryResponse{
			Action: string(e.Action),
			Actor: HistoryActorResponse{
				ID:        e.Actor.ID,
				FirstName: e.Actor.FirstName,
				LastName:  e.Actor.LastName,
			},
			Timestamp: e.Timestamp.Format(time.RFC3339),
			State: TaskStateResponse{
				Name:        e.State.Name,
				Description: e.State.Description,
				Open:        e.State.Open,
				Assignees:   e.State.Assignees,
			},
		}
	}
	return TaskHistoryResponse{Entries: items, Count: len(items)}
}
