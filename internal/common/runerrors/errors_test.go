package runerrors

import (
	"context"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	tests := map[string]struct {
		err  error
		want int
	}{
		"nil":                          {nil, ExitCodeOK},
		"canceled":                     {context.Canceled, ExitCodeInterrupted},
		"pkg.Error => canceled":        {errors.Wrap(context.Canceled, "streaming"), ExitCodeInterrupted},
		"ErrRunnerFailed":              {&ErrRunnerFailed{Code: 3}, ExitCodeFailure},
		"pkg.Error => ErrBuildFailed":  {errors.WithMessage(&ErrBuildFailed{Command: "make"}, "foo"), ExitCodeFailure},
		"deadline exceeded":            {context.DeadlineExceeded, ExitCodeFailure},
		"pkg.Error":                    {errors.New("foo"), ExitCodeFailure},
		"ErrReadinessTimeout":          {&ErrReadinessTimeout{Path: "a", Timeout: time.Second}, ExitCodeFailure},
		"multierror => canceled first": {multierror.Append(nil, context.Canceled), ExitCodeInterrupted},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExitCode(tc.err))
		})
	}
}

func TestIsRecoverable(t *testing.T) {
	tests := map[string]struct {
		err  error
		want bool
	}{
		"ErrMalformedEvent":               {&ErrMalformedEvent{Line: "{"}, true},
		"ErrProbeFailed":                  {&ErrProbeFailed{Url: "http://x"}, true},
		"pkg.Error => ErrProbeFailed":     {errors.WithMessage(&ErrProbeFailed{}, "foo"), true},
		"ErrProcessExitedEarly":           {&ErrProcessExitedEarly{Name: "mock", Code: 1}, false},
		"pkg.Error => ErrInvalidArgument": {errors.WithMessage(&ErrInvalidArgument{}, "foo"), false},
		"nil":                             {nil, false},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsRecoverable(tc.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := map[string]struct {
		err  error
		want string
	}{
		"timeout":         {&ErrReadinessTimeout{Path: "/d/proxy.addr.txt", Timeout: 20 * time.Second}, "timed out after 20s waiting for /d/proxy.addr.txt"},
		"exited early":    {&ErrProcessExitedEarly{Name: "proxy", Code: 2}, "proxy exited early with code 2"},
		"runner":          {&ErrRunnerFailed{Code: 1}, "runner failed with code 1"},
		"runner with art": {&ErrRunnerFailed{Code: 1, Artifacts: []string{"a", "b"}}, "runner failed with code 1"},
		"invalid":         {&ErrInvalidArgument{Name: "proxy", Value: "mesh"}, `value "mesh" is invalid for field "proxy"`},
		"invalid msg":     {&ErrInvalidArgument{Name: "proxy", Value: "mesh", Message: "nope"}, `value "mesh" is invalid for field "proxy"; nope`},
		"build":           {&ErrBuildFailed{Command: "cargo build"}, `build command "cargo build" failed`},
		"malformed":       {&ErrMalformedEvent{Line: "x", Message: "bad"}, `malformed event "x"; bad`},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.EqualError(t, tc.err, tc.want)
		})
	}
}
