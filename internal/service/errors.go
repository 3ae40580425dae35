package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Error kinds. Handlers map them to HTTP status codes.
var (
	ErrValidation   = errors.New("validation error")
	ErrPrecondition = errors.New("precondition failed")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

// DomainError carries a kind, a user-facing message and optional details
// such as readiness counts.
type DomainError struct {
	Kind    error
	Message string
	Details map[string]interface{}
}

func (e *DomainError) Error() string { return e.Message }

func (e *DomainError) Unwrap() error { return e.Kind }

func validationError(format string, args ...interface{}) error {
	return &DomainError{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

func preconditionError(details map[string]interface{}, format string, args ...interface{}) error {
	return &DomainError{Kind: ErrPrecondition, Message: fmt.Sprintf(format, args...), Details: details}
}

func notFoundError(format string, args ...interface{}) error {
	return &DomainError{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

func conflictError(format string, args ...interface{}) error {
	return &DomainError{Kind: ErrConflict, Message: fmt.Sprintf(format, args...)}
}

// DetailsOf returns the structured details attached to err, if any.
func DetailsOf(err error) map[string]interface{} {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Details
	}
	return nil
}

// lookupError turns gorm's not-found into a domain not-found and wraps
// everything else.
func lookupError(err error, entity string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFoundError("%s not found", entity)
	}
	return fmt.Errorf("failed to load %s: %w", entity, err)
}
