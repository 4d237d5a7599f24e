// Package errors provides the error handling foundation for cloudsync.
// It extends Go's standard error handling with structured error codes and
// context preservation so callers can classify sync failures without parsing
// messages.
package errors

// ErrorCode represents a specific error condition in cloudsync.
// Error codes are string-based for debuggability and natural JSON serialization.
type ErrorCode string

const (
	// Resource errors.

	// CodeNotFound indicates a requested resource (directory, bucket) does not exist.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// Permission errors.

	// CodeForbidden indicates the credentials lack permission for the operation.
	CodeForbidden ErrorCode = "FORBIDDEN"

	// Validation errors.

	// CodeInvalidInput indicates the provided input is invalid or malformed.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeInvalidConfig indicates a configuration error prevents the operation.
	CodeInvalidConfig ErrorCode = "INVALID_CONFIGURATION"

	// Execution errors.

	// CodeExecutionFailed indicates the external sync tool exited with a non-zero status.
	CodeExecutionFailed ErrorCode = "EXECUTION_FAILED"

	// CodeToolNotFound indicates the external sync tool could not be started.
	CodeToolNotFound ErrorCode = "TOOL_NOT_FOUND"

	// CodePreflightFailed indicates a check run before the sync failed.
	CodePreflightFailed ErrorCode = "PREFLIGHT_FAILED"

	// Infrastructure errors.

	// CodeNetwork indicates a network operation failed.
	CodeNetwork ErrorCode = "NETWORK_ERROR"

	// CodeTimeout indicates an operation exceeded its time limit.
	CodeTimeout ErrorCode = "TIMEOUT"

	// CodeCancelled indicates the operation was cancelled by the caller.
	CodeCancelled ErrorCode = "CANCELLED"

	// Generic errors.

	// CodeUnknown indicates an unknown or unclassified error occurred.
	CodeUnknown ErrorCode = "UNKNOWN"
)
