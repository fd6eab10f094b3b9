// Package askerrors provides sentinel and custom error types for the application.
package askerrors

import "errors"

// Pipeline stage sentinels. Each stage of the text-to-SQL pipeline fails with
// its own sentinel so callers can map failures to distinct outcomes instead of
// a generic error.
var (
	// ErrEmbeddingUnavailable indicates the embedding endpoint could not be reached
	// or rejected the request.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrInferenceUnavailable indicates the inference endpoint could not be reached
	// or returned a non-success status.
	ErrInferenceUnavailable = errors.New("inference service unavailable")

	// ErrInferenceProtocol indicates the inference endpoint responded, but the
	// response did not carry any recognizable generated text.
	ErrInferenceProtocol = errors.New("inference response malformed")

	// ErrExtractionFailed indicates no SQL statement could be extracted from the
	// model output.
	ErrExtractionFailed = errors.New("no SQL statement found in model output")

	// ErrQueryExecution indicates the target database rejected or failed the
	// generated SQL.
	ErrQueryExecution = errors.New("query execution failed")
)

// ErrNotFound is the sentinel for "not found" errors.
// Use when a requested resource doesn't exist.
var ErrNotFound = &NotFoundError{}

// NotFoundError is a sentinel error for resources that are not found.
type NotFoundError struct {
	Resource string
	Message  string
}

// NewNotFoundError creates a new NotFoundError with a custom message.
func NewNotFoundError(resource, message string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		Message:  message,
	}
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	if e.Resource != "" {
		return e.Resource + " not found"
	}

	return "resource not found"
}

// Is implements the error interface for error comparison.
func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)

	return ok
}

// ErrInvalidArtifact is the sentinel for invalid training artifact payloads.
// Use when a training submission carries no usable field combination.
var ErrInvalidArtifact = &InvalidArtifactError{}

// InvalidArtifactError is a sentinel error for rejected training payloads.
type InvalidArtifactError struct {
	Field   string
	Message string
}

// NewInvalidArtifactError creates a new InvalidArtifactError with a custom message.
func NewInvalidArtifactError(field, message string) *InvalidArtifactError {
	return &InvalidArtifactError{
		Field:   field,
		Message: message,
	}
}

// Error implements the error interface.
func (e *InvalidArtifactError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	if e.Field != "" {
		return "invalid training artifact: " + e.Field
	}

	return "invalid training artifact"
}

// Is implements the error interface for error comparison.
func (e *InvalidArtifactError) Is(target error) bool {
	_, ok := target.(*InvalidArtifactError)

	return ok
}
