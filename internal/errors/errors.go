// Package errors provides centralized error definitions and error handling utilities
// for ghtraf. It defines sentinel errors, the error taxonomy used by every
// command, and the mapping from errors to process exit codes.
//
// # Error Types
//
// The taxonomy follows how a failure must be surfaced to the user:
//   - ValidationError: bad user input (date format, missing required value,
//     conflicting flags). Detected before any side effect.
//   - GatewayError: the gh CLI transport failed (not installed, not
//     authenticated, network, API error). Carries remediation text.
//   - ConfigError: a persisted settings file could not be written.
//   - ExitError: a deliberate early exit with a fixed exit code.
//
// # Usage
//
//	err := errors.NewValidationError("created", "2026/01/01", "expected YYYY-MM-DD")
//
//	if errors.Is(err, errors.ErrInvalidInput) { ... }
//
//	var gwErr *errors.GatewayError
//	if errors.As(err, &gwErr) {
//	    fmt.Println(gwErr.Remedy)
//	}
//
//	os.Exit(errors.ExitCode(err))
package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Exit codes returned by the ghtraf process.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitInterrupted = 130
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityWarning is for errors that are reported but do not stop a command.
	SeverityWarning Severity = iota
	// SeverityError is for errors that abort the current command.
	SeverityError
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Gateway sentinel errors
var (
	// ErrGhNotInstalled indicates the gh executable is not on PATH.
	ErrGhNotInstalled = New("gh CLI not found")
	// ErrNotAuthenticated indicates gh has no logged-in account.
	ErrNotAuthenticated = New("not authenticated with GitHub CLI")
	// ErrNotFound indicates the remote resource does not exist.
	ErrNotFound = New("not found")
	// ErrMissingScope indicates the gh token lacks a required scope.
	ErrMissingScope = New("token is missing a required scope")
)

// General sentinel errors
var (
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
	// ErrInterrupted indicates the user interrupted the command.
	ErrInterrupted = New("interrupted")
)

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// baseError provides common functionality for all error types.
type baseError struct {
	message  string
	cause    error
	severity Severity
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// -----------------------------------------------------------------------------
// ValidationError
// -----------------------------------------------------------------------------

// ValidationError represents invalid user input.
//
// Example:
//
//	err := errors.NewValidationError("created", "2026/1/1", "expected YYYY-MM-DD")
//	fmt.Println(err) // "invalid created "2026/1/1": expected YYYY-MM-DD"
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, value, reason string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// NewMissingValueError reports a required value that was not supplied in
// non-interactive mode.
func NewMissingValueError(flag string) *ValidationError {
	return &ValidationError{
		Field:  flag,
		Reason: fmt.Sprintf("%s is required in non-interactive mode", flag),
	}
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	switch {
	case e.Value != "":
		return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
	case e.Reason != "":
		return e.Reason
	default:
		return fmt.Sprintf("invalid %s", e.Field)
	}
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	return target == ErrInvalidInput
}

// -----------------------------------------------------------------------------
// GatewayError
// -----------------------------------------------------------------------------

// GatewayError represents a failure of the gh CLI transport.
//
// Example:
//
//	err := errors.NewGatewayError("gh auth status failed", errors.ErrNotAuthenticated).
//	    WithRemedy("gh auth login")
type GatewayError struct {
	baseError
	Command string
	Stderr  string
	Remedy  string
}

// NewGatewayError creates a new GatewayError.
func NewGatewayError(message string, cause error) *GatewayError {
	return &GatewayError{
		baseError: baseError{
			message:  message,
			cause:    cause,
			severity: SeverityError,
		},
	}
}

// WithCommand records the gh command (without secrets) that failed.
func (e *GatewayError) WithCommand(cmd string) *GatewayError {
	e.Command = cmd
	return e
}

// WithStderr records trimmed stderr output.
func (e *GatewayError) WithStderr(stderr string) *GatewayError {
	e.Stderr = strings.TrimSpace(stderr)
	return e
}

// WithRemedy sets the exact command the user can run to fix the problem.
func (e *GatewayError) WithRemedy(remedy string) *GatewayError {
	e.Remedy = remedy
	return e
}

// Error returns the formatted error message.
func (e *GatewayError) Error() string {
	prefix := "gh error"
	if e.Command != "" {
		prefix = fmt.Sprintf("gh error [%s]", e.Command)
	}

	msg := fmt.Sprintf("%s: %s", prefix, e.message)
	if e.cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.cause)
	}
	if e.Stderr != "" {
		msg = fmt.Sprintf("%s\n%s", msg, e.Stderr)
	}
	return msg
}

// Is checks if this error matches the target.
func (e *GatewayError) Is(target error) bool {
	if _, ok := target.(*GatewayError); ok {
		return true
	}
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// -----------------------------------------------------------------------------
// ConfigError
// -----------------------------------------------------------------------------

// ConfigError represents a failure to persist a settings file.
type ConfigError struct {
	baseError
	Path string
}

// NewConfigError creates a new ConfigError.
func NewConfigError(message, path string, cause error) *ConfigError {
	return &ConfigError{
		baseError: baseError{
			message:  message,
			cause:    cause,
			severity: SeverityError,
		},
		Path: path,
	}
}

// Error returns the formatted error message.
func (e *ConfigError) Error() string {
	prefix := "config error"
	if e.Path != "" {
		prefix = fmt.Sprintf("config error [%s]", e.Path)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ConfigError) Is(target error) bool {
	if _, ok := target.(*ConfigError); ok {
		return true
	}
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// -----------------------------------------------------------------------------
// ExitError
// -----------------------------------------------------------------------------

// ExitError is a deliberate early exit. The message, if any, has already been
// shown to the user.
type ExitError struct {
	Code    int
	Message string
}

// NewExitError creates an ExitError with the given code.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// Error returns the formatted error message.
func (e *ExitError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// -----------------------------------------------------------------------------
// Classification
// -----------------------------------------------------------------------------

// ExitCode maps an error returned by a command to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var exitErr *ExitError
	if As(err, &exitErr) {
		return exitErr.Code
	}

	if IsInterrupt(err) {
		return ExitInterrupted
	}

	return ExitFailure
}

// IsInterrupt reports whether err stems from a user interrupt (Ctrl-C).
func IsInterrupt(err error) bool {
	return Is(err, ErrInterrupted) || Is(err, context.Canceled)
}

// Remedy returns the remediation text carried by err, if any.
func Remedy(err error) string {
	var gwErr *GatewayError
	if As(err, &gwErr) {
		return gwErr.Remedy
	}
	return ""
}
