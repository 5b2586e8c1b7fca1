package service

import (
	"errors"
	"fmt"
)

// Kind classifies a service error for callers: validation and not-found
// errors are the caller's fault, conflicts are lifecycle-precondition
// violations (already drawn, capacity full, infeasible draw), and
// infrastructure errors are store or mailer failures that the caller may
// retry.
type Kind int

const (
	KindInfrastructure Kind = iota
	KindValidation
	KindNotFound
	KindConflict
)

// Error is a service-level error with a Kind. Use KindOf to classify any
// error returned from this package.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of an error produced by this package. Unknown
// errors classify as infrastructure failures.
func KindOf(err error) Kind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return KindInfrastructure
}

func validationErr(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func notFoundErr(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func conflictErr(format string, args ...any) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// conflictWrap keeps the cause reachable via errors.Is/As (used for
// matching.ErrInfeasible, which callers may want to distinguish from other
// conflicts).
func conflictWrap(err error, format string, args ...any) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...), Err: err}
}

func infraErr(err error, format string, args ...any) error {
	return &Error{Kind: KindInfrastructure, Message: fmt.Sprintf(format, args...), Err: err}
}
