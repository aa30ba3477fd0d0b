package project

import (
	"fmt"
	"maps"
	"strings"
	"time"
	"unicode/utf8"

	"taskledger/internal/domain"
)

// msgRequired is the validation message for mandatory fields.
const msgRequired = "is required"

// maxNameLen is the maximum display name length in runes.
const maxNameLen = 255

// Project is a collaborative container for tasks. Members maps user IDs to
// their project-scoped role. Version is the optimistic concurrency token,
// bumped by the store on every write; zero means not yet persisted.
type Project struct {
	ID        string
	Name      string
	Archived  bool
	Members   map[string]domain.Role
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks business rules for the Project entity.
// Returns a *domain.ValidationError (wrapping domain.ErrValidation) with
// per-field details for every violation, or nil if all rules pass.
func (p *Project) Validate() error {
	fields := make(map[string]string)

	if strings.TrimSpace(p.Name) == "" {
		fields["name"] = msgRequired
	} else if utf8.RuneCountInString(p.Name) > maxNameLen {
		fields["name"] = fmt.Sprintf("must be at most %d characters", maxNameLen)
	}

	for userID, role := range p.Members {
		if strings.TrimSpace(userID) == "" {
			fields["members"] = "member user id must not be empty"
			continue
		}
		if !role.IsValid() {
			fields["members."+userID] = fmt.Sprintf("invalid role: %q", role)
		}
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

// Archive transitions Active -> Archived.
func (p *Project) Archive() error {
	if p.Archived {
		return domain.ErrAlreadyArchived
	}
	p.Archived = true
	return nil
}

// Restore transitions Archived -> Active.
func (p *Project) Restore() error {
	if !p.Archived {
		return domain.ErrNotArchived
	}
	p.Archived = false
	return nil
}

// RequireActive guards every mutation other than Archive/Restore, including
// all mutations of tasks owned by this project.
func (p *Project) RequireActive() error {
	if p.Archived {
		return fmt.Errorf("%w: project %s", domain.ErrProjectArchived, p.ID)
	}
	return nil
}

// RoleOf returns the member's role and whether the user is a member at all.
func (p *Project) RoleOf(userID string) (domain.Role, bool) {
	role, ok := p.Members[userID]
	return role, ok
}

// CloneMembers returns a defensive copy of a member-role map.
// Nil input yields an empty, non-nil map.
func CloneMembers(members map[string]domain.Role) map[string]domain.Role {
	clone := make(map[string]domain.Role, len(members))
	maps.Copy(clone, members)
	return clone
}
