package errors

import (
	stderrors "errors"
	"fmt"
)

type Kind string

const (
	KindConfig     Kind = "CONFIG"
	KindNotFound   Kind = "NOT_FOUND"
	KindIO         Kind = "IO"
	KindValidation Kind = "VALIDATION"
)

// Error carries a machine-checkable kind alongside the usual wrapped cause,
// so callers can branch on what went wrong instead of matching message text.
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

func ConfigError(format string, args ...any) *Error {
	return &Error{
		Kind:    KindConfig,
		Message: fmt.Sprintf(format, args...),
	}
}

func NotFound(path string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("path not found: %s", path),
	}
}

func IOError(err error, format string, args ...any) *Error {
	return &Error{
		Kind:    KindIO,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

func ValidationError(format string, args ...any) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: fmt.Sprintf(format, args...),
	}
}

// IsKind reports whether any error in err's chain carries the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
