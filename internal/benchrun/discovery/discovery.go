// Package discovery resolves the network addresses that child processes publish by writing them to a file.
package discovery

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/pkg/errors"

	"github.com/netbench/benchrun/internal/common/runerrors"
)

const (
	DefaultPollInterval = 50 * time.Millisecond
	DefaultTimeout      = 20 * time.Second
)

var errNotReady = errors.New("address file not ready")

// ErrWriterExited is returned by AwaitWhile when the process expected to write the address file exits first.
var ErrWriterExited = errors.New("address file writer exited")

// AwaitAddress waits for path to contain an address, polling every DefaultPollInterval.
func AwaitAddress(ctx context.Context, path string, timeout time.Duration) (string, error) {
	return Await(ctx, path, timeout, DefaultPollInterval)
}

// Await polls path every interval until it holds non-blank content, which is returned trimmed.
// A file that is missing, empty or blank is not an error; writers may create the file before writing to it.
// If nothing is found within timeout an ErrReadinessTimeout is returned, at most timeout+interval after the call.
func Await(ctx context.Context, path string, timeout, interval time.Duration) (string, error) {
	return AwaitWhile(ctx, path, timeout, interval, nil)
}

// AwaitWhile is Await that also gives up, with ErrWriterExited, as soon as exited is closed
// without the address having been published. A nil exited channel never fires.
func AwaitWhile(ctx context.Context, path string, timeout, interval time.Duration, exited <-chan struct{}) (string, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	pollCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if exited != nil {
		stop := make(chan struct{})
		defer close(stop)
		go func() {
			select {
			case <-exited:
				cancel()
			case <-stop:
			}
		}()
	}

	var addr string
	err := retry.Do(
		func() error {
			a, err := readAddress(path)
			if err != nil {
				return err
			}
			addr = a
			return nil
		},
		retry.Context(pollCtx),
		retry.Attempts(uint(timeout/interval)+2),
		retry.Delay(interval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err == nil {
		return addr, nil
	}
	if ctx.Err() != nil {
		return "", errors.WithStack(ctx.Err())
	}
	if isClosed(exited) {
		return "", errors.WithStack(ErrWriterExited)
	}
	return "", errors.WithStack(&runerrors.ErrReadinessTimeout{Path: path, Timeout: timeout})
}

func readAddress(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		return "", errNotReady
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", errNotReady
	}
	addr := strings.TrimSpace(string(content))
	if addr == "" {
		return "", errNotReady
	}
	return addr, nil
}

func isClosed(c <-chan struct{}) bool {
	if c == nil {
		return false
	}
	select {
	case <-c:
		return true
	default:
		return false
	}
}
