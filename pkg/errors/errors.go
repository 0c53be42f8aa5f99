package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Setup errors abort a run before any remote call is made.
var (
	ErrMissingCredentials  = errors.New("canvas URL and API key are required")
	ErrGraderNotFound      = errors.New("grader executable not found")
	ErrGraderNotExecutable = errors.New("grader executable is not executable")
	ErrInvalidRunRequest   = errors.New("invalid run request")
)

// Invocation errors are always isolated to a single student.
var (
	ErrGraderTimeout   = errors.New("grader timed out")
	ErrMalformedOutput = errors.New("grader output is not a JSON object")
)

type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s' with value '%v': %s",
		e.Field, e.Value, e.Message)
}

// TransportError is returned by the Canvas gateway for any non-2xx response
// or network failure. StatusCode is zero when no response was received.
type TransportError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s %s failed: %v", e.Method, e.Path, e.Err)
	}
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("%s %s returned status %d: %s", e.Method, e.Path, e.StatusCode, body)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// GraderExitError carries the diagnostic output of a grader that exited
// non-zero. Graders that report failures on stdout get that text instead
// when stderr is empty.
type GraderExitError struct {
	ExitCode int
	Stderr   string
	Stdout   string
}

const maxDiagnostic = 500

func (e *GraderExitError) Error() string {
	diag := strings.TrimSpace(e.Stderr)
	if diag == "" {
		diag = strings.TrimSpace(e.Stdout)
	}
	if diag == "" {
		return fmt.Sprintf("grader exited with code %d", e.ExitCode)
	}
	if len(diag) > maxDiagnostic {
		diag = diag[:maxDiagnostic] + "..."
	}
	return fmt.Sprintf("grader exited with code %d: %s", e.ExitCode, diag)
}

type RetryableError struct {
	Err     error
	Message string
}

func (e RetryableError) Error() string {
	return fmt.Sprintf("retryable error: %s - %s", e.Message, e.Err.Error())
}

func (e RetryableError) Unwrap() error {
	return e.Err
}

// NewRetryableError marks failures that a later run could succeed on
// (rate limiting, 5xx). Nothing in a run retries them.
func NewRetryableError(err error, message string) error {
	return RetryableError{
		Err:     err,
		Message: message,
	}
}

// IsTransport reports whether err came from the Canvas gateway.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
