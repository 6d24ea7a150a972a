package model

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks request data the pipeline cannot score.
	ErrInvalidInput = errors.New("invalid input")

	// ErrArtifactLoad marks a missing or incompatible model artifact. Fatal at startup.
	ErrArtifactLoad = errors.New("artifact load failed")

	// ErrInference marks a failure inside the embedding, scaling or classification stages.
	ErrInference = errors.New("inference failed")

	// ErrFeatureSchemaMismatch marks a feature vector whose layout disagrees with the schema.
	ErrFeatureSchemaMismatch = errors.New("feature schema mismatch")
)

// ValidationError describes a rejected input field. It matches ErrInvalidInput.
type ValidationError struct {
	Field  string
	Reason string
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Is reports ErrInvalidInput as the class of every ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// InferenceError wraps a failure of one pipeline stage. It matches ErrInference.
type InferenceError struct {
	Stage string
	Err   error
}

// NewInferenceError wraps err as a failure of the named stage.
func NewInferenceError(stage string, err error) *InferenceError {
	return &InferenceError{Stage: stage, Err: err}
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *InferenceError) Unwrap() error {
	return e.Err
}

// Is reports ErrInference as the class of every InferenceError.
func (e *InferenceError) Is(target error) bool {
	return target == ErrInference
}
