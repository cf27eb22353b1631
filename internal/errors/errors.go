// Package errors provides structured errors for InsightQL.
package errors

import (
	stderrors "errors"
	"fmt"
)

// InsightError is the structured error type for InsightQL.
// It carries a stable code plus context for handling and logging.
type InsightError struct {
	// Code is the unique error code (e.g., "ERR_101_DOC_NOT_FOUND").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Storage, Ingest, Config, ...).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error
}

// Error implements the error interface.
func (e *InsightError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *InsightError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with InsightError.
func (e *InsightError) Is(target error) bool {
	if t, ok := target.(*InsightError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *InsightError) WithDetail(key, value string) *InsightError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates a new InsightError with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *InsightError {
	return &InsightError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates an InsightError from an existing error.
// The error's message becomes the InsightError message.
func Wrap(code string, err error) *InsightError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// NotFound creates a document-not-found error for the given id.
func NotFound(docID string) *InsightError {
	return New(ErrCodeNotFound, fmt.Sprintf("document not found: %s", docID), nil).
		WithDetail("doc_id", docID)
}

// StorageError creates a storage-layer error.
func StorageError(message string, cause error) *InsightError {
	return New(ErrCodeStorage, message, cause)
}

// IngestItemError creates a per-item ingestion error for a source path.
func IngestItemError(path string, cause error) *InsightError {
	return New(ErrCodeIngestItem, fmt.Sprintf("failed to load %s", path), cause).
		WithDetail("path", path)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *InsightError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// ValidationError creates an invalid-input error.
func ValidationError(message string, cause error) *InsightError {
	return New(ErrCodeInvalidInput, message, cause)
}

// IsNotFound reports whether err is (or wraps) a document-not-found error.
func IsNotFound(err error) bool {
	var ie *InsightError
	if stderrors.As(err, &ie) {
		return ie.Code == ErrCodeNotFound
	}
	return false
}

// IsFatal checks if an error has fatal severity.
// Fatal errors should abort the current operation.
func IsFatal(err error) bool {
	var ie *InsightError
	if stderrors.As(err, &ie) {
		return ie.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from an InsightError.
// Returns empty string if not an InsightError.
func GetCode(err error) string {
	var ie *InsightError
	if stderrors.As(err, &ie) {
		return ie.Code
	}
	return ""
}

// GetCategory extracts the category from an InsightError.
// Returns empty string if not an InsightError.
func GetCategory(err error) Category {
	var ie *InsightError
	if stderrors.As(err, &ie) {
		return ie.Category
	}
	return ""
}
