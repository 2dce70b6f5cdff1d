package vmem

import (
	"errors"
	"fmt"
)

// ErrorCode represents different types of simulator errors
type ErrorCode int

const (
	// Generic errors
	ErrCodeUnknown ErrorCode = iota
	ErrCodeInternal

	// Construction errors
	ErrCodeInvalidConfig
	ErrCodeUnknownPolicy

	// Access errors
	ErrCodeInvalidPage

	// Policy errors
	ErrCodeNoResidentPages
	ErrCodeInvariant

	// Input errors
	ErrCodeTraceFormat
)

// SimError represents a simulator error with context
type SimError struct {
	Code    ErrorCode
	Message string
	Op      string // Operation that failed
	Err     error  // Underlying error (if any)
}

// Error implements the error interface
func (e *SimError) Error() string {
	if e.Op != "" {
		if e.Err != nil {
			return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
		}
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *SimError) Unwrap() error {
	return e.Err
}

// Is checks if the error matches a specific error code
func (e *SimError) Is(target error) bool {
	if t, ok := target.(*SimError); ok {
		return e.Code == t.Code
	}
	return false
}

// NewSimError creates a new simulator error
func NewSimError(code ErrorCode, op, message string, err error) *SimError {
	return &SimError{
		Code:    code,
		Message: message,
		Op:      op,
		Err:     err,
	}
}

// Helper functions for common errors

func ErrInvalidConfig(op, message string) *SimError {
	return NewSimError(ErrCodeInvalidConfig, op, message, nil)
}

func ErrUnknownPolicy(op, algorithm string) *SimError {
	return NewSimError(
		ErrCodeUnknownPolicy,
		op,
		fmt.Sprintf("unknown replacement policy %q (must be fifo, lifo, or lru)", algorithm),
		nil,
	)
}

func ErrInvalidPage(op string, page uint32, numPages uint32) *SimError {
	return NewSimError(
		ErrCodeInvalidPage,
		op,
		fmt.Sprintf("page %d out of range [0, %d)", page, numPages),
		nil,
	)
}

func ErrNoResidentPages(op string) *SimError {
	return NewSimError(
		ErrCodeNoResidentPages,
		op,
		"no resident pages to evict",
		nil,
	)
}

func ErrInvariant(op, message string) *SimError {
	return NewSimError(ErrCodeInvariant, op, message, nil)
}

func ErrTraceFormat(op string, line int, token string) *SimError {
	return NewSimError(
		ErrCodeTraceFormat,
		op,
		fmt.Sprintf("line %d: malformed token %q", line, token),
		nil,
	)
}

// IsErrorCode checks if an error, or any error it wraps, has a specific code
func IsErrorCode(err error, code ErrorCode) bool {
	var se *SimError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrCodeUnknown
func GetErrorCode(err error) ErrorCode {
	var se *SimError
	if errors.As(err, &se) {
		return se.Code
	}
	return ErrCodeUnknown
}
