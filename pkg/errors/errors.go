package errors

import (
	"errors"
	"fmt"
)

// Generic error kinds shared by repositories, services and handlers

var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates invalid input parameters
	ErrInvalidInput = errors.New("invalid input")

	// ErrInternal indicates an internal server error
	ErrInternal = errors.New("internal error")

	// ErrTimeout indicates an operation timeout
	ErrTimeout = errors.New("operation timeout")

	// ErrUnavailable indicates an upstream service is unavailable
	ErrUnavailable = errors.New("service unavailable")

	// ErrRateLimitExceeded indicates an upstream API rate limit was hit
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// Daily run errors

var (
	// ErrNothingToAggregate aborts a run when the roster or the article batch is empty
	ErrNothingToAggregate = errors.New("nothing to aggregate")

	// ErrLockNotAcquired indicates another process is already running the daily update
	ErrLockNotAcquired = errors.New("run lock not acquired")

	// ErrScoringFailed indicates the sentiment scorer could not score a text
	ErrScoringFailed = errors.New("sentiment scoring failed")
)

// HTTPStatusError carries the status code of a failed upstream HTTP call
type HTTPStatusError struct {
	Code int
	Body string
}

// Error implements the error interface
func (e *HTTPStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.Code)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// StatusCode exposes the HTTP status for retry classification
func (e *HTTPStatusError) StatusCode() int {
	return e.Code
}

// MultiError wraps multiple errors
type MultiError struct {
	Errors []error
}

// Error implements the error interface
func (m *MultiError) Error() string {
	if len(m.Errors) == 0 {
		return "no errors"
	}
	if len(m.Errors) == 1 {
		return m.Errors[0].Error()
	}
	return fmt.Sprintf("multiple errors (%d): %v", len(m.Errors), m.Errors[0])
}

// Add adds an error to the list
func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// HasErrors returns true if there are any errors
func (m *MultiError) HasErrors() bool {
	return len(m.Errors) > 0
}

// ToError returns the MultiError as an error, or nil if no errors
func (m *MultiError) ToError() error {
	if !m.HasErrors() {
		return nil
	}
	return m
}

// Unwrap lets errors.Is match any of the collected errors
func (m *MultiError) Unwrap() []error {
	return m.Errors
}

// Is checks if err is or wraps target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func New(message string) error {
	return errors.New(message)
}

func Newf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
