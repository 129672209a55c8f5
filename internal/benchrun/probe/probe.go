// Package probe reads the blocked events counter that the mock exposes for proxied runs.
package probe

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/netbench/benchrun/internal/common/runerrors"
)

const (
	DefaultPath        = "/reporter/counter/blocked-events"
	DefaultVirtualHost = "localhost"
	DefaultTimeout     = 2 * time.Second

	// Bodies longer than this are not counters.
	maxBodySize = 4096
)

type Config struct {
	Path        string
	VirtualHost string
	Timeout     time.Duration
}

type BlockedEventsProbe struct {
	config Config
	client *http.Client
}

func New(config Config) *BlockedEventsProbe {
	if config.Path == "" {
		config.Path = DefaultPath
	}
	if config.VirtualHost == "" {
		config.VirtualHost = DefaultVirtualHost
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	return &BlockedEventsProbe{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}
}

// Fetch asks the mock listening on addr for the number of events the proxy reported as blocked.
// Any failure is returned as an ErrProbeFailed.
func (p *BlockedEventsProbe) Fetch(ctx context.Context, addr string) (int64, error) {
	url := "http://" + addr + p.config.Path
	fail := func(msg string) error {
		return errors.WithStack(&runerrors.ErrProbeFailed{Url: url, Message: msg})
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fail(err.Error())
	}
	// The mock routes on the Host header rather than on the address it is reached at.
	req.Host = p.config.VirtualHost
	req.Header.Set("Accept", "text/plain")
	req.Close = true

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fail(err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return 0, fail(err.Error())
	}
	text := strings.TrimSpace(string(body))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fail("unexpected status " + resp.Status + ": " + truncate(text, 200))
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, fail("non-integer payload " + strconv.Quote(truncate(text, 200)))
	}
	return n, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// FormatCount renders the result of Fetch, using "unknown" for failures.
func FormatCount(n int64, err error) string {
	if err != nil {
		return "unknown"
	}
	return strconv.FormatInt(n, 10)
}
