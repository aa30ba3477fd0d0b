package domain

// Actor is the authenticated caller's identity, built per request from the
// bearer token assertion. It is never persisted.
type Actor struct {
	UserID    string
	Admin     bool
	FirstName string
	LastName  string
}

// Role is a project-scoped permission level. The set is closed: unknown
// values are rejected at the validation boundary, never compared against.
type Role string

const (
	RoleGuest   Role = "guest"
	RoleWorker  Role = "worker"
	RoleManager Role = "manager"
)

// IsValid reports whether r is one of the defined roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleGuest, RoleWorker, RoleManager:
		return true
	default:
		return false
	}
}
