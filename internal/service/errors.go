package service

import (
	"errors"
	"fmt"

	"lifeos-kb/internal/knowledge"
	"lifeos-kb/internal/rag"
	"lifeos-kb/internal/storage"
)

var (
	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned when a requested resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrExternalService is returned when an external service call fails.
	ErrExternalService = errors.New("external service error")
	// ErrUnprocessable is returned when a document cannot be turned into text.
	ErrUnprocessable = errors.New("unprocessable document")
	// ErrUnavailable is returned when the index or store cannot be reached.
	ErrUnavailable = errors.New("service unavailable")
)

// ValidationError represents a validation error with a field name.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// Unwrap lets callers match validation failures with ErrInvalidInput.
func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// WrapError wraps an error with additional context. Domain errors are also
// tagged with the service error kind they map to.
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	if kind := errorKind(err); kind != nil && !errors.Is(err, kind) {
		return fmt.Errorf("%s: %w: %w", msg, kind, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func errorKind(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, knowledge.ErrExtraction):
		return ErrUnprocessable
	case errors.Is(err, knowledge.ErrIndexUnavailable):
		return ErrUnavailable
	case errors.Is(err, knowledge.ErrSummarization), errors.Is(err, knowledge.ErrWebSearch):
		return ErrExternalService
	case errors.Is(err, rag.ErrEmptyQuestion):
		return ErrInvalidInput
	}
	return nil
}
