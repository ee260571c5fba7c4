// Package errors defines the sentinel errors of the course intelligence
// engine and their mapping to HTTP status codes. All engine failures are
// deterministic functions of their input and are recoverable at the caller;
// none are retried automatically.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInsufficientData is returned when a population mean is requested
	// over an empty dataset.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrEmptyCorpus is returned when the similarity index build finds no
	// usable vocabulary terms in the corpus.
	ErrEmptyCorpus = errors.New("empty corpus")
	// ErrCourseNotFound is returned when a query references a course ID
	// absent from the current snapshot.
	ErrCourseNotFound = errors.New("course not found")
	// ErrInvalidParameter is returned for out-of-range request parameters.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrSnapshotUnavailable is returned when no snapshot has been built yet.
	ErrSnapshotUnavailable = errors.New("snapshot unavailable")
	ErrInternal            = errors.New("internal error")
)

// AppError wraps a sentinel error with a human-readable message and an HTTP
// status code for the API layer.
type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// HTTPStatusCode maps an error to the status code the API should return.
func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrCourseNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidParameter):
		return http.StatusBadRequest
	case errors.Is(err, ErrInsufficientData), errors.Is(err, ErrEmptyCorpus):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrSnapshotUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
