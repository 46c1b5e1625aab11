// Package errs defines the error taxonomy shared by the store, repositories,
// and public cache. Every error carries a stable code, a human-readable
// description, the wrapped underlying cause, and a recovery suggestion the UI
// layer can surface next to a retry affordance.
package errs

import (
	"errors"
	"fmt"
)

// Code identifies a failure class.
type Code string

const (
	CodeSaveFailed           Code = "save_failed"
	CodeFetchFailed          Code = "fetch_failed"
	CodeDeleteFailed         Code = "delete_failed"
	CodeMigrationFailed      Code = "migration_failed"
	CodeInvalidManagedObject Code = "invalid_managed_object"
	CodeContextNotAvailable  Code = "context_not_available"
	CodeDuplicateEntry       Code = "duplicate_entry"
	CodeMissingRequiredField Code = "missing_required_field"
	CodeOperationCancelled   Code = "operation_cancelled"
)

// Error is the single error type surfaced to collaborators.
type Error struct {
	Code Code
	// Identifier carries the offending key for integrity violations
	// (duplicate guid, missing field name).
	Identifier string
	// Reason is the wrapped underlying cause, nil for pure integrity errors.
	Reason error
}

func (e *Error) Error() string {
	msg := e.Description()
	if e.Identifier != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Identifier)
	}
	if e.Reason != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Reason)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Reason }

// Is matches on code so callers can test errors.Is(err, &Error{Code: ...}).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// Description returns the human-readable summary for the error code.
func (e *Error) Description() string {
	switch e.Code {
	case CodeSaveFailed:
		return "failed to save changes"
	case CodeFetchFailed:
		return "failed to fetch data"
	case CodeDeleteFailed:
		return "failed to delete data"
	case CodeMigrationFailed:
		return "store schema migration failed"
	case CodeInvalidManagedObject:
		return "invalid object passed to the store"
	case CodeContextNotAvailable:
		return "store context is not available"
	case CodeDuplicateEntry:
		return "an entry with this identifier already exists"
	case CodeMissingRequiredField:
		return "a required record field is missing"
	case CodeOperationCancelled:
		return "the operation was cancelled"
	default:
		return "unknown error"
	}
}

// RecoverySuggestion returns UI-facing guidance, empty when retrying as-is
// cannot help (integrity violations).
func (e *Error) RecoverySuggestion() string {
	switch e.Code {
	case CodeSaveFailed, CodeFetchFailed, CodeDeleteFailed:
		return "Try the operation again. If the problem persists, restart the app."
	case CodeMigrationFailed:
		return "The local database may be from an incompatible version. Reinstalling will rebuild it."
	case CodeContextNotAvailable:
		return "Restart the app to reinitialize the local store."
	case CodeOperationCancelled:
		return "Run the operation again if it is still needed."
	default:
		return ""
	}
}

// Retryable reports whether re-invoking the same operation can succeed.
func (e *Error) Retryable() bool {
	switch e.Code {
	case CodeSaveFailed, CodeFetchFailed, CodeDeleteFailed, CodeOperationCancelled:
		return true
	}
	return false
}

// SaveFailed wraps a persistence flush failure.
func SaveFailed(reason error) *Error {
	return &Error{Code: CodeSaveFailed, Reason: reason}
}

// FetchFailed wraps a read-path failure.
func FetchFailed(reason error) *Error {
	return &Error{Code: CodeFetchFailed, Reason: reason}
}

// DeleteFailed wraps a bulk or single delete failure.
func DeleteFailed(reason error) *Error {
	return &Error{Code: CodeDeleteFailed, Reason: reason}
}

// MigrationFailed wraps a schema load/upgrade failure.
func MigrationFailed(reason error) *Error {
	return &Error{Code: CodeMigrationFailed, Reason: reason}
}

// InvalidManagedObject reports an object the store cannot persist.
func InvalidManagedObject(reason error) *Error {
	return &Error{Code: CodeInvalidManagedObject, Reason: reason}
}

// ContextNotAvailable reports a missing or torn-down store context.
func ContextNotAvailable() *Error {
	return &Error{Code: CodeContextNotAvailable}
}

// DuplicateEntry reports an insert that collided with identifier.
func DuplicateEntry(identifier string) *Error {
	return &Error{Code: CodeDuplicateEntry, Identifier: identifier}
}

// MissingRequiredField reports a remote record missing field.
func MissingRequiredField(field string) *Error {
	return &Error{Code: CodeMissingRequiredField, Identifier: field}
}

// OperationCancelled wraps a cooperative cancellation.
func OperationCancelled(reason error) *Error {
	return &Error{Code: CodeOperationCancelled, Reason: reason}
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// IsDomain reports whether err is part of this taxonomy at all. Background
// task plumbing uses it to pass domain errors through unwrapped.
func IsDomain(err error) bool {
	var e *Error
	return errors.As(err, &e)
}
