package modscot

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrForbidden is returned when an actor lacks the capability required by a handler
	ErrForbidden = errors.New("insufficient permission")

	// ErrRegistryFrozen is returned when registering handlers once the engine started
	ErrRegistryFrozen = errors.New("registry is frozen, handlers must be registered before the bot runs")

	// ErrEmptyNamespace is returned when registering a handler without a namespace
	ErrEmptyNamespace = errors.New("handler namespace must not be empty")
)

// UserError is an error whose message is meant for the actor. The engine answers it to the actor
// (ephemerally) instead of treating it as a handler fault
type UserError struct {
	// Text shown to the actor
	Text string

	// Err is the classifying error (i.e. ticket.ErrQuotaExceeded)
	Err error
}

// Error implements error
func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Text, e.Err)
	}

	return e.Text
}

// Unwrap returns the classifying error
func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError returns a UserError with the given text classified by err
func NewUserError(err error, format string, a ...interface{}) *UserError {
	return &UserError{Text: fmt.Sprintf(format, a...), Err: err}
}

// AsUserError returns the UserError wrapped by err, if any
func AsUserError(err error) (ue *UserError, ok bool) {
	ok = errors.As(err, &ue)
	return ue, ok
}
