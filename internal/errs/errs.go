// Package errs defines the error kinds shared by the flow engine and planner.
// Callers match kinds with errors.Is.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrValidation     = errors.New("validation failed")
	ErrPartialFailure = errors.New("partial failure")
	ErrIntegrity      = errors.New("data integrity gap")
)

// Error wraps one of the kinds above with the failing operation.
type Error struct {
	Kind error
	Op   string
	Msg  string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.Error())
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Kind }

// NotFound reports a missing task, template or connection.
func NotFound(op, format string, args ...any) error {
	return &Error{Kind: ErrNotFound, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Validation reports input the operation refuses to act on.
func Validation(op, format string, args ...any) error {
	return &Error{Kind: ErrValidation, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Integrity reports skipped or inconsistent rows.
func Integrity(op, format string, args ...any) error {
	return &Error{Kind: ErrIntegrity, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// PartialError aggregates the failures of a fan-out that otherwise completed.
type PartialError struct {
	Op     string
	Errors []error
}

func (e *PartialError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%s: %s (%d failed): %s", e.Op, ErrPartialFailure, len(e.Errors), strings.Join(msgs, "; "))
}

// Unwrap exposes the kind and every underlying failure to errors.Is.
func (e *PartialError) Unwrap() []error {
	return append([]error{ErrPartialFailure}, e.Errors...)
}

// Partial returns nil when failures is empty.
func Partial(op string, failures []error) error {
	if len(failures) == 0 {
		return nil
	}
	return &PartialError{Op: op, Errors: failures}
}
