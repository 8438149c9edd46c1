package schemacli

import (
	"fmt"
	"strconv"
)

// Exit codes produced by the runner itself.
const (
	ExitSuccess = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// ExitCode is returned from Run to exit with a specific code. It bypasses
// the exception handler.
type ExitCode int

func (c ExitCode) Error() string {
	return "exit status " + strconv.Itoa(int(c))
}

// ExitError is a failure that carries its exit code. The default exception
// handlers print it and exit with Code.
type ExitError struct {
	Code    int
	Message string
	Cause   error
}

func (e *ExitError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Cause
}

// NewExitError creates an ExitError.
func NewExitError(code int, msg string, cause error) *ExitError {
	return &ExitError{Code: code, Message: msg, Cause: cause}
}

// UsageError is an invocation the runner rejected before any hook ran:
// a malformed command line, an unreadable preset, missing required
// fields, conflicting toggles or values the schema does not accept.
type UsageError struct {
	Command string // Subcommand name, empty for a single command
	Err     error
}

func (e *UsageError) Error() string {
	return e.Err.Error()
}

func (e *UsageError) Unwrap() error {
	return e.Err
}

// PanicError is a recovered panic from a prologue or Run.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes the panic value when it was an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
