// Package authz holds the authorization policy: pure, side-effect-free
// predicates evaluated fresh for every operation. Nothing here caches or
// trusts a prior result; the caller passes the entities it already loaded.
//
// Every failure wraps domain.ErrForbidden and names the actor and the
// requirement so the transport layer can surface a stable forbidden signal
// without extra lookups.
package authz

import (
	"fmt"

	"taskledger/internal/domain"
	"taskledger/internal/domain/project"
	"taskledger/internal/domain/task"
)

// RequireAdministrator permits only globally privileged actors.
func RequireAdministrator(actor domain.Actor) error {
	if actor.Admin {
		return nil
	}
	return fmt.Errorf("%w: administrator required, user %s", domain.ErrForbidden, actor.UserID)
}

// RequireManager permits administrators and project members holding the
// manager role.
func RequireManager(actor domain.Actor, p *project.Project) error {
	if actor.Admin {
		return nil
	}
	if role, ok := p.RoleOf(actor.UserID); ok && role == domain.RoleManager {
		return nil
	}
	return fmt.Errorf("%w: manager required in project %s, user %s", domain.ErrForbidden, p.ID, actor.UserID)
}

// RequireMember permits administrators and any project member, whatever
// their role.
func RequireMember(actor domain.Actor, p *project.Project) error {
	if actor.Admin {
		return nil
	}
	if _, ok := p.RoleOf(actor.UserID); ok {
		return nil
	}
	return fmt.Errorf("%w: not a member of project %s, user %s", domain.ErrForbidden, p.ID, actor.UserID)
}

// RequireManagerOrAssignee permits task assignees regardless of their project
// role, falling back to RequireManager for everyone else. A worker who is not
// assigned the task is denied.
func RequireManagerOrAssignee(actor domain.Actor, t *task.Task, p *project.Project) error {
	if t.HasAssignee(actor.UserID) {
		return nil
	}
	return RequireManager(actor, p)
}
