package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for errors.Is() checking.
var (
	ErrNotFound    = errors.New("not found")
	ErrValidation  = errors.New("validation error")
	ErrConflict    = errors.New("conflict")
	ErrForbidden   = errors.New("forbidden")
	ErrUnavailable = errors.New("unavailable")
)

// Lifecycle guard errors. Each unwraps to ErrConflict so the transport layer
// maps all of them to a single stable conflict signal, while callers can still
// branch on the specific transition failure with errors.Is.
var (
	ErrAlreadyArchived = fmt.Errorf("%w: project already archived", ErrConflict)
	ErrNotArchived     = fmt.Errorf("%w: project not archived", ErrConflict)
	ErrProjectArchived = fmt.Errorf("%w: project is archived", ErrConflict)
	ErrAlreadyClosed   = fmt.Errorf("%w: task already closed", ErrConflict)
	ErrAlreadyOpen     = fmt.Errorf("%w: task already open", ErrConflict)
)

// ErrStaleVersion is returned when an optimistic write loses against a
// concurrent writer. The caller retries from a fresh load.
var ErrStaleVersion = fmt.Errorf("%w: stale entity version", ErrConflict)

// ValidationError provides programmatic access to field-level validation
// failures. Every violated field is reported, not just the first. Use
// errors.Is(err, ErrValidation) for simple checks, or errors.As(err, &verr)
// to access verr.Fields for per-field details.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	sort.Strings(parts)
	return fmt.Sprintf("%s: %s", ErrValidation.Error(), strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
