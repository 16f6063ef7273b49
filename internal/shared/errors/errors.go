package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error types for different failure classes. The split that matters operationally is
// retryable vs fatal: retryable failures are surfaced to the orchestrator, which owns
// retry policy and backoff; fatal failures require operator intervention and must never
// be auto-retried.
type ErrorType string

const (
	// Retryable classes
	ErrorTypeUpstreamUnavailable ErrorType = "UPSTREAM_UNAVAILABLE"
	ErrorTypeServiceCall         ErrorType = "SERVICE_CALL_ERROR"
	ErrorTypeNotProduced         ErrorType = "NOT_PRODUCED"

	// Fatal classes
	ErrorTypeMalformedRecord ErrorType = "MALFORMED_RECORD"
	ErrorTypeValidation      ErrorType = "VALIDATION_ERROR"
	ErrorTypeInternal        ErrorType = "INTERNAL_ERROR"

	// Web API only
	ErrorTypeNotFound ErrorType = "NOT_FOUND_ERROR"
)

// Process exit codes reported to the orchestrator. ExitRetryable follows the sysexits
// EX_TEMPFAIL convention so schedulers can distinguish "try again later" from a hard
// failure.
const (
	ExitOK        = 0
	ExitFatal     = 1
	ExitRetryable = 75
)

// Common application errors
var (
	ErrNotProduced     = errors.New("hand-off record not yet produced")
	ErrMalformedRecord = errors.New("hand-off record is malformed")
	ErrVersionRegress  = errors.New("hand-off record version regressed")
	ErrNotFound        = errors.New("resource not found")
	ErrNoData          = errors.New("no prediction data available")
)

// AppError represents a pipeline error with classification context
type AppError struct {
	Type      ErrorType              `json:"type"`
	Message   string                 `json:"message"`
	Code      string                 `json:"code,omitempty"`
	HTTPCode  int                    `json:"-"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Cause     error                  `json:"-"`
	Component string                 `json:"component,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError creates a new application error
func NewAppError(errorType ErrorType, message string, httpCode int) *AppError {
	return &AppError{
		Type:     errorType,
		Message:  message,
		HTTPCode: httpCode,
		Details:  make(map[string]interface{}),
	}
}

// WithCode adds an error code
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// WithCause adds the underlying cause
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithComponent adds the component name
func (e *AppError) WithComponent(component string) *AppError {
	e.Component = component
	return e
}

// WithDetail adds a detail field
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Common error constructors

// NewUpstreamUnavailableError marks the upstream data source as unreachable (retryable)
func NewUpstreamUnavailableError(message string) *AppError {
	return NewAppError(ErrorTypeUpstreamUnavailable, message, http.StatusServiceUnavailable)
}

// NewServiceCallError marks a feature-store/registry/object-store call failure (retryable)
func NewServiceCallError(message string) *AppError {
	return NewAppError(ErrorTypeServiceCall, message, http.StatusBadGateway)
}

// NewNotProducedError marks a missing hand-off record (retryable; the upstream job has
// not run yet)
func NewNotProducedError(jobKind string) *AppError {
	return NewAppError(ErrorTypeNotProduced, fmt.Sprintf("no record produced yet for job kind %q", jobKind), http.StatusServiceUnavailable).
		WithCause(ErrNotProduced).
		WithDetail("job_kind", jobKind)
}

// NewMalformedRecordError marks an unparseable or invalid hand-off record (fatal;
// indicates upstream corruption and requires operator intervention)
func NewMalformedRecordError(jobKind string, cause error) *AppError {
	e := NewAppError(ErrorTypeMalformedRecord, fmt.Sprintf("malformed record for job kind %q", jobKind), http.StatusInternalServerError).
		WithDetail("job_kind", jobKind)
	if cause != nil {
		e.Cause = cause
	} else {
		e.Cause = ErrMalformedRecord
	}
	return e
}

// NewValidationError creates a validation error (fatal)
func NewValidationError(message string) *AppError {
	return NewAppError(ErrorTypeValidation, message, http.StatusBadRequest)
}

// NewInternalError creates an internal error (fatal)
func NewInternalError(message string) *AppError {
	return NewAppError(ErrorTypeInternal, message, http.StatusInternalServerError)
}

// NewNotFoundError creates a not found error (web API)
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrorTypeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

// Helper functions for common error scenarios

// WrapError wraps an error with context, preserving an existing classification
func WrapError(err error, message string) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewInternalError(message).WithCause(err)
}

// IsRetryable reports whether the job should exit with a retryable status so the
// orchestrator re-runs it on its own schedule
func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		switch appErr.Type {
		case ErrorTypeUpstreamUnavailable, ErrorTypeServiceCall, ErrorTypeNotProduced:
			return true
		}
		return false
	}
	return errors.Is(err, ErrNotProduced)
}

// IsFatal reports whether the error requires operator intervention and must not be
// auto-retried
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return !IsRetryable(err)
}

// IsNotProduced checks for the "not yet produced" hand-off condition
func IsNotProduced(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == ErrorTypeNotProduced
	}
	return errors.Is(err, ErrNotProduced)
}

// IsMalformedRecord checks for the fatal corrupt-record condition
func IsMalformedRecord(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == ErrorTypeMalformedRecord
	}
	return errors.Is(err, ErrMalformedRecord)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == ErrorTypeNotFound
	}
	return errors.Is(err, ErrNotFound)
}

// ExitCode maps an error to the process exit code reported to the orchestrator
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if IsRetryable(err) {
		return ExitRetryable
	}
	return ExitFatal
}
