// Package apperr defines the error taxonomy shared by the store, service and
// API layers. Callers branch with errors.Is / errors.As; user-facing wording
// stays at the API edge.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers unknown ids and cross-tenant ids alike, so that
	// existence of another tenant's order is never leaked.
	ErrNotFound = errors.New("not found")

	// ErrConflict means another actor transitioned the order first; the
	// caller should refresh and re-decide.
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput covers malformed or missing required fields.
	ErrInvalidInput = errors.New("invalid input")
)

// TransitionError reports an action that is not legal from the order's
// current status. It wraps no state mutation: the row is left unchanged.
type TransitionError struct {
	Action        string
	CurrentStatus string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s order in status %q", e.Action, e.CurrentStatus)
}

// IsInvalidTransition reports whether err is a TransitionError.
func IsInvalidTransition(err error) bool {
	var te *TransitionError
	return errors.As(err, &te)
}

// Invalidf wraps ErrInvalidInput with a formatted detail message.
func Invalidf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrInvalidInput)...)
}
