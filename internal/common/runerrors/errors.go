// Package runerrors contains the errors returned by the benchmark orchestrator.
// The command line looks for the error types defined in this file to decide how a failure is
// reported and which exit code the process terminates with.
//
// If multiple errors occur in some function (e.g., while tearing down several processes), that
// function should return an error of type multierror.Error from package
// github.com/hashicorp/go-multierror that encapsulates those individual errors.
package runerrors

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
)

const (
	ExitCodeOK          = 0
	ExitCodeFailure     = 1
	ExitCodeInterrupted = 130
)

// ErrReadinessTimeout is returned when an address file does not become available in time.
type ErrReadinessTimeout struct {
	Path    string
	Timeout time.Duration
}

func (err *ErrReadinessTimeout) Error() string {
	return fmt.Sprintf("timed out after %s waiting for %s", err.Timeout, err.Path)
}

// ErrProcessExitedEarly is returned when a supervised process is found dead before the run relied on it.
type ErrProcessExitedEarly struct {
	Name string
	Code int
}

func (err *ErrProcessExitedEarly) Error() string {
	return fmt.Sprintf("%s exited early with code %d", err.Name, err.Code)
}

// ErrRunnerFailed is returned when the load generator exits non-zero.
// Artifacts lists the files kept around for inspection.
type ErrRunnerFailed struct {
	Code      int
	Artifacts []string
}

// The artifacts are listed separately by the caller, so Error leaves them out.
func (err *ErrRunnerFailed) Error() string {
	return fmt.Sprintf("runner failed with code %d", err.Code)
}

// ErrMalformedEvent marks an event line that could not be decoded.
// It is never fatal; the line is dropped.
type ErrMalformedEvent struct {
	Line    string
	Message string
}

func (err *ErrMalformedEvent) Error() string {
	if err.Message == "" {
		return fmt.Sprintf("malformed event %q", err.Line)
	}
	return fmt.Sprintf("malformed event %q; %s", err.Line, err.Message)
}

// ErrProbeFailed is returned when the blocked events counter could not be read.
type ErrProbeFailed struct {
	Url     string
	Message string
}

func (err *ErrProbeFailed) Error() string {
	return fmt.Sprintf("probe of %s failed; %s", err.Url, err.Message)
}

// ErrInvalidArgument is a generic error to be returned on invalid argument.
// Message is optional and is omitted from the error message if not provided.
type ErrInvalidArgument struct {
	Name    string      // Name of the flag or setting referred to, e.g., "proxy"
	Value   interface{} // The invalid value that was provided
	Message string      // An optional message explaining why the value is invalid
}

func (err *ErrInvalidArgument) Error() string {
	if err.Message == "" {
		return fmt.Sprintf("value %q is invalid for field %q", err.Value, err.Name)
	} else {
		return fmt.Sprintf("value %q is invalid for field %q; %s", err.Value, err.Name, err.Message)
	}
}

// ErrBuildFailed is returned when the build command of the benchmarked binary fails.
type ErrBuildFailed struct {
	Command string
	Message string
}

func (err *ErrBuildFailed) Error() string {
	if err.Message == "" {
		return fmt.Sprintf("build command %q failed", err.Command)
	}
	return fmt.Sprintf("build command %q failed; %s", err.Command, err.Message)
}

// ExitCode maps errors to process exit codes.
// Uses errors.Is to look through the chain of errors, so wrapped cancellations are still reported as interrupts.
func ExitCode(err error) int {
	if err == nil {
		return ExitCodeOK
	}
	if errors.Is(err, context.Canceled) {
		return ExitCodeInterrupted
	}
	return ExitCodeFailure
}

// IsRecoverable returns true for errors that are reported but never abort a run.
func IsRecoverable(err error) bool {
	{
		var e *ErrMalformedEvent
		if errors.As(err, &e) {
			return true
		}
	}
	{
		var e *ErrProbeFailed
		if errors.As(err, &e) {
			return true
		}
	}
	return false
}
