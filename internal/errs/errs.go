// Package errs defines the error taxonomy shared by the core and the request layer.
//
// Every error produced by the core carries one of the sentinel kinds below and
// can be classified with errors.Is:
//
//	if errors.Is(err, errs.ErrNotFound) { ... }
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks rejected input. No state was mutated.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a missing group, member, debt or transaction.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks an operation blocked by current state,
	// e.g. removing a member that still has outstanding debts.
	ErrConflict = errors.New("conflict")

	// ErrStorage marks a failed store read or commit. Callers must not assume
	// any part of the attempted write was applied.
	ErrStorage = errors.New("storage failure")
)

// Error is a classified error with a caller-facing message.
type Error struct {
	// Kind is one of the sentinel errors of this package.
	Kind error

	// Message is safe to return to clients.
	Message string

	// Cause is an optional underlying error.
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

// Validationf returns an ErrValidation error.
func Validationf(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFoundf returns an ErrNotFound error.
func NotFoundf(format string, args ...any) error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

// Conflictf returns an ErrConflict error.
func Conflictf(format string, args ...any) error {
	return &Error{Kind: ErrConflict, Message: fmt.Sprintf(format, args...)}
}

// Storage wraps a store failure. Errors that are already classified pass
// through unchanged so a NotFound from the store stays a NotFound.
func Storage(err error, message string) error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return err
	}
	return &Error{Kind: ErrStorage, Message: message, Cause: err}
}

// Message returns the caller-facing message of a classified error, or the
// plain error text otherwise.
func Message(err error) string {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Message
	}
	return err.Error()
}
