// Package errors provides structured error types for DrawRev.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the library and CLI
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input, configuration, or document validation failures
//   - BUDGET_EXCEEDED: A comparison or fix exceeded its caller-supplied limit
//   - RULE_VALIDATION_FAILED: A fix action's post-condition was not met
//   - NOT_FOUND/FILE_NOT_FOUND: Resource not found
//   - INTERNAL_ERROR: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidConfig, "similarity threshold out of range: %v", t)
//	if errors.Is(err, errors.ErrCodeInvalidConfig) {
//	    // Handle configuration error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidDocument, origErr, "document %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input and configuration validation errors
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidConfig   Code = "INVALID_CONFIG"
	ErrCodeInvalidDocument Code = "INVALID_DOCUMENT"
	ErrCodeInvalidPolicy   Code = "INVALID_POLICY"
	ErrCodeInvalidRule     Code = "INVALID_RULE"
	ErrCodeInvalidFormat   Code = "INVALID_FORMAT"

	// Operational errors
	ErrCodeBudgetExceeded       Code = "BUDGET_EXCEEDED"
	ErrCodeRuleValidationFailed Code = "RULE_VALIDATION_FAILED"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// RuleValidationError reports which fix rules failed post-condition checks
// during an apply. The apply is rolled back as a whole; FailedRules lists
// every rule id whose action could not be validated.
type RuleValidationError struct {
	FailedRules []string
}

// Error implements the error interface.
func (e *RuleValidationError) Error() string {
	return fmt.Sprintf("rule validation failed: %v", e.FailedRules)
}

// Code returns the error code for this error type.
func (e *RuleValidationError) Code() Code {
	return ErrCodeRuleValidationFailed
}

// BudgetError reports that a comparison or fix was aborted because it
// exceeded a caller-supplied limit. The operation is retryable with a
// larger budget; no partial result is produced.
type BudgetError struct {
	Limit  int    // the record budget that was exceeded (0 for deadline budgets)
	Reason string // what was exceeded, e.g. "records" or "deadline"
}

// Error implements the error interface.
func (e *BudgetError) Error() string {
	if e.Limit > 0 {
		return fmt.Sprintf("budget exceeded: %s limit %d", e.Reason, e.Limit)
	}
	return fmt.Sprintf("budget exceeded: %s", e.Reason)
}

// Code returns the error code for this error type.
func (e *BudgetError) Code() Code {
	return ErrCodeBudgetExceeded
}
