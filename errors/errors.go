package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// Error is a coded error carrying an optional cause and key/value context.
type Error struct {
	Code    ErrorCode
	Message string
	Context map[string]interface{}
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	b.WriteString(e.Message)

	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, e.Context[k]))
		}
		b.WriteString(" (")
		b.WriteString(strings.Join(parts, ", "))
		b.WriteString(")")
	}

	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Coder is implemented by errors that carry an ErrorCode.
type Coder interface {
	Code() ErrorCode
}

// New creates a coded error without a cause.
func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to err. It returns nil if err is nil.
func Wrap(err error, code ErrorCode, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Cause: err}
}

// WrapWithContext is Wrap with additional key/value context.
func WrapWithContext(err error, code ErrorCode, message string, ctx map[string]interface{}) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Context: ctx, Cause: err}
}

// CodeOf walks the error chain and returns the first code it finds.
// Context cancellation and deadlines are classified even when uncoded.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}

	if code, ok := findCode(err); ok {
		return code
	}

	switch {
	case stderrors.Is(err, context.DeadlineExceeded):
		return CodeTimeout
	case stderrors.Is(err, context.Canceled):
		return CodeCancelled
	}
	return CodeUnknown
}

// findCode does a depth-first search of the error tree, following both
// Unwrap() error and Unwrap() []error.
func findCode(err error) (ErrorCode, bool) {
	switch v := err.(type) {
	case nil:
		return "", false
	case *Error:
		return v.Code, true
	case Coder:
		return v.Code(), true
	case interface{ Unwrap() []error }:
		for _, e := range v.Unwrap() {
			if code, ok := findCode(e); ok {
				return code, true
			}
		}
		return "", false
	case interface{ Unwrap() error }:
		return findCode(v.Unwrap())
	}
	return "", false
}

// HasCode reports whether CodeOf(err) is code.
func HasCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
