package grader

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"discussion-grader/internal/logger"
	"discussion-grader/internal/model"
	"discussion-grader/pkg/errors"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

const DefaultTimeout = 30 * time.Second

// Invoker runs an external grader program once per submission. The bundle
// is written to the program's stdin as JSON and a single JSON object is
// expected on stdout.
type Invoker struct {
	timeout time.Duration
	log     zerolog.Logger
}

func NewInvoker(timeout time.Duration) *Invoker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Invoker{
		timeout: timeout,
		log:     logger.Get().With().Str("component", "grader").Logger(),
	}
}

// Invoke executes executable directly (no shell) and waits at most the
// configured timeout. A hung grader is killed and ErrGraderTimeout returned.
func (i *Invoker) Invoke(ctx context.Context, executable string, bundle model.SubmissionBundle) (*model.GradingResult, error) {
	input, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal submission bundle: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, executable)
	cmd.Stdin = bytes.NewReader(input)
	// Grandchildren holding the pipes open must not stall Wait past the kill.
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err = cmd.Run()
	elapsed := time.Since(start)

	if runCtx.Err() == context.DeadlineExceeded {
		i.log.Error().Dur("timeout", i.timeout).Msg("Grader executable timed out")
		return nil, fmt.Errorf("%w after %s", errors.ErrGraderTimeout, i.timeout)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		var exitErr *exec.ExitError
		if stderrors.As(err, &exitErr) {
			i.log.Error().
				Int("exit_code", exitErr.ExitCode()).
				Str("stderr", stderr.String()).
				Str("stdout", stdout.String()).
				Msg("Grader executable failed")
			return nil, &errors.GraderExitError{
				ExitCode: exitErr.ExitCode(),
				Stderr:   stderr.String(),
				Stdout:   stdout.String(),
			}
		}
		return nil, fmt.Errorf("failed to run grader: %w", err)
	}

	i.log.Debug().Dur("elapsed", elapsed).Int("stdout_bytes", stdout.Len()).Msg("Grader finished")

	result, err := ParseOutput(stdout.Bytes())
	if err != nil {
		i.log.Error().Err(err).Str("output", stdout.String()).Msg("Invalid grader output")
		return nil, err
	}
	return result, nil
}

// ParseOutput decodes and validates grader stdout. grade must be present and
// either a string or a number; comment, when present, must be a string.
func ParseOutput(data []byte) (*model.GradingResult, error) {
	dec := json.NewDecoder(bytes.NewReader(bytes.TrimSpace(data)))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrMalformedOutput, err)
	}
	if raw == nil || dec.More() {
		return nil, errors.ErrMalformedOutput
	}

	result := &model.GradingResult{Raw: raw}

	switch g := raw["grade"].(type) {
	case string:
		result.Grade = g
	case json.Number:
		result.Grade = g.String()
	case nil:
		return nil, errors.ValidationError{
			Field:   "grade",
			Value:   nil,
			Message: "grader output missing required 'grade' field",
		}
	default:
		return nil, errors.ValidationError{
			Field:   "grade",
			Value:   g,
			Message: "grade must be a string",
		}
	}

	if c, ok := raw["comment"]; ok && c != nil {
		s, ok := c.(string)
		if !ok {
			return nil, errors.ValidationError{Field: "comment", Value: c, Message: "comment must be a string"}
		}
		result.Comment = s
	}

	return result, nil
}

// ValidateExecutable is a setup check run before any Canvas request.
func ValidateExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", errors.ErrGraderNotFound, path)
		}
		return fmt.Errorf("failed to stat grader: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", errors.ErrGraderNotExecutable, path)
	}
	// Permission bits alone say nothing about the current user.
	if err := unix.Access(path, unix.X_OK); err != nil {
		return fmt.Errorf("%w: %s (mode %s): %v", errors.ErrGraderNotExecutable, path, info.Mode(), err)
	}
	return nil
}
