package services

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured marks a tenant without Gateway credentials. It is an expected
	// steady state; sync operations turn it into a {success:false} envelope.
	ErrNotConfigured     = errors.New("gateway não configurado")
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrInvalidInput      = errors.New("invalid input")
)

// TransitionError is returned when an operator action does not hold for the current conversation state.
type TransitionError struct {
	Op     string
	Status string
	Reason string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s conversation in status %s: %s", e.Op, e.Status, e.Reason)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
