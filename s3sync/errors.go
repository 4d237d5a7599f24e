package s3sync

import (
	"context"
	"errors"
	"fmt"
	"strings"

	cserrors "github.com/networksecurity/cloudsync/errors"
	"github.com/networksecurity/cloudsync/executor"
)

// Sentinel errors for sync failures. Use errors.Is to check for them.
var (
	// ErrToolNotFound indicates the external sync tool could not be started.
	ErrToolNotFound = errors.New("s3sync: sync tool not found")

	// ErrInvalidOption indicates a client option was rejected by New.
	ErrInvalidOption = errors.New("s3sync: invalid option")

	// ErrPreflight indicates a preflight check failed and the sync was not started.
	ErrPreflight = errors.New("s3sync: preflight check failed")
)

// SyncError reports an external sync that failed to start or exited non-zero.
type SyncError struct {
	// Command is the command that was run
	Command executor.Command

	// ExitCode is the process exit status, or -1 if it never ran to completion
	ExitCode int

	// Stderr is the captured standard error of the tool
	Stderr string

	// Err is the underlying execution error
	Err error
}

// Error implements the error interface.
func (e *SyncError) Error() string {
	msg := fmt.Sprintf("s3sync: `%s` exited with status %d", e.Command, e.ExitCode)
	if stderr := lastLine(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

// Unwrap returns the underlying error for error chaining support.
func (e *SyncError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrToolNotFound) match a tool that could not be started.
func (e *SyncError) Is(target error) bool {
	return target == ErrToolNotFound && executor.IsNotFound(e.Err)
}

// Code classifies the failure.
func (e *SyncError) Code() cserrors.ErrorCode {
	switch {
	case executor.IsNotFound(e.Err):
		return cserrors.CodeToolNotFound
	case errors.Is(e.Err, context.DeadlineExceeded):
		return cserrors.CodeTimeout
	case errors.Is(e.Err, context.Canceled):
		return cserrors.CodeCancelled
	default:
		return cserrors.CodeExecutionFailed
	}
}

// newSyncError builds a SyncError from a runner result, which may be nil.
func newSyncError(cmd executor.Command, res *executor.Result, err error) *SyncError {
	se := &SyncError{Command: cmd, ExitCode: -1, Err: err}
	if res != nil {
		se.ExitCode = res.ExitCode
		se.Stderr = res.Stderr
	}
	return se
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}
