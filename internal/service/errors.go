package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/emrgen/travelexpense/internal/store"
)

var (
	// ErrValidation is wrapped by every ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is returned when the requested record does not exist or belongs to another user.
	ErrNotFound = errors.New("not found")
	// ErrBackendUnavailable is returned when the database or cache fails.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrSaveTimeout is returned when a save does not finish within the save timeout.
	ErrSaveTimeout = errors.New("save timed out")
	// ErrProposalNotFound is returned when a revision proposal expired or was already confirmed.
	ErrProposalNotFound = errors.New("revision proposal not found")
	// ErrRevisionConflict is returned when the chain changed after the revision was proposed.
	ErrRevisionConflict = errors.New("revision conflict")
	// ErrRevisionInProgress is returned when another save holds the chain lock.
	ErrRevisionInProgress = errors.New("another revision is being saved")
	// ErrNoExistingRegulation is returned when a revision is proposed for a company without regulations.
	ErrNoExistingRegulation = errors.New("no existing regulation for company")
	// ErrInvalidApplicationKind is returned for an unknown application kind.
	ErrInvalidApplicationKind = errors.New("invalid application kind")
	// ErrInvalidStatus is returned for an unknown application status.
	ErrInvalidStatus = errors.New("invalid application status")
)

// ValidationError reports the first invalid input field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func validationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// backendError maps a storage error to the service error space.
func backendError(ctx context.Context, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return ErrSaveTimeout
	case isServiceError(err):
		return err
	}

	return fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
}

func isServiceError(err error) bool {
	for _, target := range []error{
		ErrValidation, ErrNotFound, ErrBackendUnavailable, ErrSaveTimeout, ErrProposalNotFound,
		ErrRevisionConflict, ErrRevisionInProgress, ErrNoExistingRegulation,
		ErrInvalidApplicationKind, ErrInvalidStatus,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
