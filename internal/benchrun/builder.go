package benchrun

import (
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/google/shlex"
	"github.com/pkg/errors"

	"github.com/netbench/benchrun/internal/benchrun/configuration"
	"github.com/netbench/benchrun/internal/common/runerrors"
)

const BinaryName = "netbench"

// Build runs the configured build command and returns the binary to benchmark.
// Build output goes to the diagnostic stream; stdout is discarded unless verbose.
func (a *App) Build(ctx context.Context, b configuration.BuildConfig, verbose bool) (string, error) {
	if b.Command != "" {
		argv, err := shlex.Split(b.Command)
		if err != nil || len(argv) == 0 {
			return "", errors.WithStack(&runerrors.ErrInvalidArgument{
				Name:    "build.command",
				Value:   b.Command,
				Message: "cannot be split into arguments",
			})
		}
		a.Log.Infof("build: %s", b.Command)
		cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
		cmd.Dir = b.Dir
		cmd.Stdout = io.Discard
		if verbose {
			cmd.Stdout = a.Err
		}
		cmd.Stderr = a.Err
		if err := cmd.Run(); err != nil {
			if ctx.Err() != nil {
				return "", errors.WithStack(ctx.Err())
			}
			return "", errors.WithStack(&runerrors.ErrBuildFailed{Command: b.Command, Message: err.Error()})
		}
	}
	if b.Binary != "" {
		return b.Binary, nil
	}
	return ResolveBinary(b.Dir), nil
}

// ResolveBinary prefers the release build below dir, then the binary on PATH.
// If neither exists the release path is returned so that starting it fails with a useful path.
func ResolveBinary(dir string) string {
	name := BinaryName
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	candidate := filepath.Join(dir, "target", "release", name)
	if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
		return candidate
	}
	if path, err := exec.LookPath(BinaryName); err == nil {
		return path
	}
	return candidate
}
