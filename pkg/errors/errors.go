// Package errors provides structured error types for the flowsmith
// application surface.
//
// The core packages (workflow, codec, diff, merge, layout) return plain
// typed errors; this package maps them onto machine-readable codes for the
// CLI and any embedding service, so exit handling and user messages stay
// consistent regardless of which stage failed.
//
// # Error Codes
//
// Codes follow a hierarchical naming convention:
//   - INVALID_*: input the caller can fix (bad YAML, bad strategy name)
//   - NOT_FOUND*: a referenced resource does not exist
//   - CONFLICT: a merge was rejected; retry with a filtered diff
//   - INTERNAL_*: unexpected failures
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidStrategy, "unknown strategy %q", name)
//	if errors.Is(err, errors.ErrCodeInvalidStrategy) {
//	    // print usage
//	}
package errors

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Code represents a machine-readable error code.
type Code string

const (
	// Input errors
	ErrCodeInvalidSyntax      Code = "INVALID_SYNTAX"
	ErrCodeInvalidSchema      Code = "INVALID_SCHEMA"
	ErrCodeUnsupportedVersion Code = "UNSUPPORTED_VERSION"
	ErrCodeInvalidGraph       Code = "INVALID_GRAPH"
	ErrCodeInvalidStrategy    Code = "INVALID_STRATEGY"
	ErrCodeInvalidDiff        Code = "INVALID_DIFF"
	ErrCodeInvalidRegistry    Code = "INVALID_REGISTRY"
	ErrCodeInvalidName        Code = "INVALID_NAME"
	ErrCodeInvalidPath        Code = "INVALID_PATH"

	// Resource errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Merge outcome
	ErrCodeConflict Code = "CONFLICT"

	// Backend errors
	ErrCodeCache Code = "CACHE_ERROR"
	ErrCodeStore Code = "STORE_ERROR"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
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
func (e *Error) Unwrap() error { return e.Cause }

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

// ValidateWorkflowName checks a workflow name before it is used in file
// paths or store keys. The rules are intentionally conservative: no empty
// names, no control characters, no path separators or traversal sequences,
// and a 256 character cap.
func ValidateWorkflowName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "workflow name cannot be empty")
	}
	if len(name) > 256 {
		return New(ErrCodeInvalidName, "workflow name too long (max 256 characters)")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "workflow name contains control characters")
		}
	}
	for _, pattern := range []string{"..", "/", "\\", "\x00"} {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidName, "workflow name contains invalid sequence %q", pattern)
		}
	}
	return nil
}
