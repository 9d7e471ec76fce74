// Package apperr defines the error categories used by the crop recommendation service.
//
// Error taxonomy
//
//	ArtifactLoadError          – a model or codec file could not be read or decoded.
//	                             Startup only; the process must not serve.
//	MalformedPayloadError      – the request body is not a JSON object.          400
//	MissingFieldsError         – one or more required measurements are absent.   400
//	InvalidFieldTypeError      – a measurement is present but not numeric.       400
//	UnsupportedOperationError  – the loaded classifier cannot estimate
//	                             probabilities. Reported as 400 for compatibility
//	                             with existing clients.
//	IndexOutOfRangeError       – a class index has no label in the codec.
//
// Everything else is a plain Go error, wrapped with fmt.Errorf("context: %w", err),
// and surfaces as 500.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ArtifactLoadError reports a failure to load a persisted artifact.
type ArtifactLoadError struct {
	Path string
	Err  error
}

func (e *ArtifactLoadError) Error() string {
	return fmt.Sprintf("load artifact %s: %v", e.Path, e.Err)
}

func (e *ArtifactLoadError) Unwrap() error { return e.Err }

// ArtifactLoad wraps err as an ArtifactLoadError for path.
func ArtifactLoad(path string, err error) error {
	return &ArtifactLoadError{Path: path, Err: err}
}

// MalformedPayloadError reports a request body that is not a JSON object.
type MalformedPayloadError struct {
	Err error
}

func (e *MalformedPayloadError) Error() string {
	if e.Err == nil {
		return "Invalid JSON payload"
	}
	return fmt.Sprintf("Invalid JSON payload: %v", e.Err)
}

func (e *MalformedPayloadError) Unwrap() error { return e.Err }

// MissingFieldsError lists every required field absent from a request.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "Missing fields: " + strings.Join(e.Fields, ", ")
}

// InvalidFieldTypeError reports a field whose value is not numeric.
type InvalidFieldTypeError struct {
	Field string
	Value any
}

func (e *InvalidFieldTypeError) Error() string {
	return fmt.Sprintf("Invalid value for field '%s': %#v is not a number", e.Field, e.Value)
}

// UnsupportedOperationError reports a capability the loaded classifier lacks.
type UnsupportedOperationError struct {
	Op string
}

func (e *UnsupportedOperationError) Error() string {
	if e.Op == "" {
		return "operation not supported by model"
	}
	return e.Op
}

// ErrNoProbabilities is returned by every prediction against a classifier
// that cannot estimate class probabilities.
var ErrNoProbabilities = &UnsupportedOperationError{Op: "Model does not support confidence probabilities"}

// IndexOutOfRangeError reports a class index outside [0, Len).
type IndexOutOfRangeError struct {
	Index int
	Len   int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("class index %d out of range [0, %d)", e.Index, e.Len)
}

// IsClient reports whether err is one of the errors surfaced to callers as 400.
func IsClient(err error) bool {
	var (
		malformed   *MalformedPayloadError
		missing     *MissingFieldsError
		invalid     *InvalidFieldTypeError
		unsupported *UnsupportedOperationError
	)
	switch {
	case errors.As(err, &malformed),
		errors.As(err, &missing),
		errors.As(err, &invalid),
		errors.As(err, &unsupported):
		return true
	}
	return false
}

// StatusCode maps err to the HTTP status returned for it.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsClient(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
