package engine

import (
	"errors"
	"fmt"

	"clientportal/internal/domain"
	"clientportal/internal/repo"
)

// ErrNotFound is returned, wrapped with the entity and id, when an
// operation targets a row the store does not have.
var ErrNotFound = repo.ErrNotFound

// ValidationError reports a missing or out-of-domain field. It is returned
// before any store call is issued.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func validationErr(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// StoreError wraps a failed store call. The cause is kept intact.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// AuditWriteError reports an activity entry that could not be written after
// its entity mutation succeeded. It is logged, not returned to callers of
// the mutation.
type AuditWriteError struct {
	ProjectID  string
	UpdateType domain.UpdateType
	Err        error
}

func (e *AuditWriteError) Error() string {
	return fmt.Sprintf("activity %s for project %s not recorded: %v", e.UpdateType, e.ProjectID, e.Err)
}

func (e *AuditWriteError) Unwrap() error { return e.Err }

// ErrForbidden matches any ForbiddenError through errors.Is.
var ErrForbidden = errors.New("forbidden")

// ForbiddenError reports a project owned by another user.
type ForbiddenError struct {
	ProjectID string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("project %s belongs to another user", e.ProjectID)
}

func (e *ForbiddenError) Is(target error) bool { return target == ErrForbidden }

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}

// storeErr classifies err from a store call on a single row or collection.
func storeErr(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}

func rowErr(kind, id, op string, err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return notFound(kind, id)
	}
	return storeErr(op, err)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
