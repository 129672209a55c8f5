package eventstream

import (
	"bufio"
	"context"
	"io"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"k8s.io/utils/clock"

	"github.com/netbench/benchrun/internal/common/runerrors"
)

const (
	DefaultSpinnerInterval = 150 * time.Millisecond
	DefaultDrainTimeout    = 2 * time.Second
)

type Config struct {
	// Persist receives every raw line, one write per line.
	Persist io.Writer
	// Progress receives progress lines and the spinner. Never stdout.
	Progress io.Writer
	// DisableSpinner suppresses the spinner, e.g. when Progress is not a terminal.
	DisableSpinner  bool
	SpinnerInterval time.Duration
	// DrainTimeout bounds how long output is read after the child exited,
	// in case a grandchild inherited the pipe and keeps it open.
	DrainTimeout time.Duration
	// OnSummary, if set, is called by the consumer for every Summary in order.
	OnSummary func(Summary)
	Clock     clock.WithTicker
	Log       *log.Entry
}

// Pipeline reads runner output until the runner exits.
// A reader goroutine splits the output into lines; a single consumer owns all writes to
// Persist and Progress, so persistence, decoding and rendering happen in line order.
type Pipeline struct {
	config  Config
	spinner *Spinner
	last    *Summary
	events  []Event
	start   time.Time
}

func New(config Config) *Pipeline {
	if config.SpinnerInterval <= 0 {
		config.SpinnerInterval = DefaultSpinnerInterval
	}
	if config.DrainTimeout <= 0 {
		config.DrainTimeout = DefaultDrainTimeout
	}
	if config.Clock == nil {
		config.Clock = clock.RealClock{}
	}
	if config.Persist == nil {
		config.Persist = io.Discard
	}
	if config.Progress == nil {
		config.Progress = io.Discard
	}
	if config.Log == nil {
		config.Log = log.NewEntry(log.StandardLogger())
	}
	return &Pipeline{
		config:  config,
		spinner: NewSpinner(config.Progress),
	}
}

// Run consumes r until it reaches EOF after exited is closed, or until DrainTimeout after exited is closed.
// r is always closed before Run returns. The decoded events are returned even when Run fails.
// Cancelling ctx aborts with ctx.Err().
func (p *Pipeline) Run(ctx context.Context, r io.ReadCloser, exited <-chan struct{}) ([]Event, error) {
	lines := make(chan []byte)
	stop := make(chan struct{})
	p.start = p.config.Clock.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(lines)
		return readLines(r, lines, stop)
	})
	g.Go(func() error {
		defer func() {
			close(stop)
			_ = r.Close()
		}()
		return p.consume(gctx, lines, exited)
	})
	err := g.Wait()
	if ctx.Err() != nil {
		return p.events, errors.WithStack(ctx.Err())
	}
	return p.events, err
}

func readLines(r io.Reader, out chan<- []byte, stop <-chan struct{}) error {
	// bufio.Reader rather than bufio.Scanner: lines have no length limit.
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadBytes('\n')
		if len(line) > 0 {
			select {
			case out <- line:
			case <-stop:
				return nil
			}
		}
		if err == nil {
			continue
		}
		if err == io.EOF {
			return nil
		}
		select {
		case <-stop:
			// The consumer closed r to unblock us.
			return nil
		default:
			return errors.Wrap(err, "reading runner output")
		}
	}
}

func (p *Pipeline) consume(ctx context.Context, lines <-chan []byte, exited <-chan struct{}) error {
	defer p.spinner.Clear()
	ticker := p.config.Clock.NewTicker(p.config.SpinnerInterval)
	defer ticker.Stop()

	eof, hasExited := false, false
	var drain <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				if hasExited {
					return nil
				}
				// The child closed its stdout but is still running.
				eof, lines = true, nil
				continue
			}
			if err := p.handle(line); err != nil {
				return err
			}
		case <-exited:
			if eof {
				return nil
			}
			hasExited, exited = true, nil
			drain = p.config.Clock.After(p.config.DrainTimeout)
		case <-drain:
			p.config.Log.Debugf("runner output still open %s after exit; stopping", p.config.DrainTimeout)
			return nil
		case <-ticker.C():
			if !hasExited && !p.config.DisableSpinner {
				p.spinner.Draw(p.config.Clock.Since(p.start), p.last)
			}
		}
	}
}

func (p *Pipeline) handle(line []byte) error {
	persisted := line
	if persisted[len(persisted)-1] != '\n' {
		persisted = append(persisted, '\n')
	}
	if _, err := p.config.Persist.Write(persisted); err != nil {
		return errors.Wrap(err, "persisting runner output")
	}

	ev, err := Decode(line)
	if err != nil {
		if !runerrors.IsRecoverable(err) {
			return err
		}
		p.config.Log.WithError(err).Debug("dropping runner output line")
		return nil
	}
	if ev == nil {
		return nil
	}
	p.events = append(p.events, ev)

	if s, ok := ev.(Summary); ok {
		p.last = &s
		p.spinner.Clear()
		_, _ = io.WriteString(p.config.Progress, FormatProgress(s, p.config.Clock.Since(p.start))+"\n")
		if p.config.OnSummary != nil {
			p.config.OnSummary(s)
		}
	}
	return nil
}
