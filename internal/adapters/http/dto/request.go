package dto

import (
	"fmt"
	"strings"

	"taskledger/internal/domain"
	"taskledger/internal/ports"
)

const msgRequired = "is required"

// CreateProjectRequest represents the JSON body for creating a new project.
// Members maps user ids to role names.
type CreateProjectRequest struct {
	Name    string            `json:"name"`
	Members map[string]string `json:"members"`
}

// Validate checks that required fields are present and role names are known.
// Returns a *domain.ValidationError if any checks fail.
func (r *CreateProjectRequest) Validate() error {
	return validateProjectFields(r.Name, r.Members)
}

// ToProjectCreate converts the request to the service input.
func (r *CreateProjectRequest) ToProjectCreate() ports.ProjectCreate {
	return ports.ProjectCreate{
		Name:    r.Name,
		Members: toRoleMap(r.Members),
	}
}

// UpdateProjectRequest represents the JSON body for updating a project.
// Updates are whole replacements: the submitted name and member map become
// the project's new state.
type UpdateProjectRequest struct {
	Name    string            `json:"name"`
	Members map[string]string `json:"members"`
}

// Validate checks that required fields are present and role names are known.
// Returns a *domain.ValidationError if any checks fail.
func (r *UpdateProjectRequest) Validate() error {
	return validateProjectFields(r.Name, r.Members)
}

// ToProjectUpdate converts the request to the service input.
func (r *UpdateProjectRequest) ToProjectUpdate() ports.ProjectUpdate {
	return ports.ProjectUpdate{
		Name:    r.Name,
		Members: toRoleMap(r.Members),
	}
}

// CreateTaskRequest represents the JSON body for creating a new task.
type CreateTaskRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Assignees   []string `json:"assignees"`
}

// Validate checks that required fields are present.
// Returns a *domain.ValidationError if any checks fail.
func (r *CreateTaskRequest) Validate() error {
	return validateTaskFields(r.Name, r.Description)
}

// ToTaskCreate converts the request to the service input.
func (r *CreateTaskRequest) ToTaskCreate() ports.TaskCreate {
	return ports.TaskCreate{
		Name:        r.Name,
		Description: r.Description,
		Assignees:   r.Assignees,
	}
}

// UpdateTaskRequest represents the JSON body for updating a task. Updates are
// whole replacements of the mutable fields.
type UpdateTaskRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Assignees   []string `json:"assignees"`
}

// Validate checks that required fields are present.
// Returns a *domain.ValidationError if any checks fail.
func (r *UpdateTaskRequest) Validate() error {
	return validateTaskFields(r.Name, r.Description)
}

// ToTaskUpdate converts the request to the service input.
func (r *UpdateTaskRequest) ToTaskUpdate() ports.TaskUpdate {
	return ports.TaskUpdate{
		Name:        r.Name,
		Description: r.Description,
		Assignees:   r.Assignees,
	}
}

// validateProjectFields applies the request-level checks shared by project
// create and update bodies. Entity-level rules run again in the domain; the
// role check here exists to reject unknown role names before any lookup work.
func validateProjectFields(name string, members map[string]string) error {
	fields := make(map[string]string)

	if strings.TrimSpace(name) == "" {
		fields["name"] = msgRequired
	}
	for userID, role := range members {
		if !domain.Role(role).IsValid() {
			fields["members."+userID] = fmt.Sprintf("invalid role: %q", role)
		}
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

func validateTaskFields(name, description string) error {
	fields := make(map[string]string)

	if strings.TrimSpace(name) == "" {
		fields["name"] = msgRequired
	}
	if strings.TrimSpace(description) == "" {
		fields["description"] = msgRequired
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

func toRoleMap(members map[string]string) map[string]domain.Role {
	roles := make(map[string]domain.Role, len(members))
	for userID, role := range members {
		roles[userID] = domain.Role(role)
	}
	return roles
}
