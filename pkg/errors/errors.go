package errors

import (
	"errors"
	"fmt"
)

// Domain error types for business logic

var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates invalid input parameters
	ErrInvalidInput = errors.New("invalid input")

	// ErrInternal indicates an internal error
	ErrInternal = errors.New("internal error")

	// ErrTimeout indicates an operation timeout
	ErrTimeout = errors.New("operation timeout")

	// ErrUnavailable indicates a service is unavailable
	ErrUnavailable = errors.New("service unavailable")
)

// Orchestration-specific errors

var (
	// ErrUnknownAgent indicates an agent id outside the fixed agent set
	ErrUnknownAgent = errors.New("unknown agent")

	// ErrDataFetch indicates an external provider failed or timed out
	ErrDataFetch = errors.New("external data fetch failed")

	// ErrWorkflowFailed indicates an unexpected failure inside one workflow
	ErrWorkflowFailed = errors.New("agent workflow failed")

	// ErrOrchestrationCancelled indicates the request was cancelled mid-flight
	ErrOrchestrationCancelled = errors.New("orchestration cancelled")

	// ErrRequestInFlight indicates a request is already being processed
	ErrRequestInFlight = errors.New("institutional request already in flight")
)

// Compliance-specific errors

var (
	// ErrComplianceBlocked indicates the compliance screen blocked execution
	ErrComplianceBlocked = errors.New("blocked by compliance screen")

	// ErrSanctionedCounterparty indicates an AML sanctions hit
	ErrSanctionedCounterparty = errors.New("sanctioned counterparty")
)

// DomainError wraps an error with additional context
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Helper functions

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
