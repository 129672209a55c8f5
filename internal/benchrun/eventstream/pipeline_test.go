package eventstream

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"k8s.io/utils/clock"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/netbench/benchrun/internal/common/logging"
)

// syncBuffer is a bytes.Buffer safe for the pipeline consumer to write while the test reads.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type result struct {
	events []Event
	err    error
}

func runAsync(ctx context.Context, p *Pipeline, r io.ReadCloser, exited <-chan struct{}) <-chan result {
	ch := make(chan result, 1)
	go func() {
		events, err := p.Run(ctx, r, exited)
		ch <- result{events, err}
	}()
	return ch
}

func await(t *testing.T, ch <-chan result) result {
	select {
	case res := <-ch:
		return res
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline did not finish")
		return result{}
	}
}

const (
	warmupLine = `{"type":"summary","phase":"warmup","t_ms":1000,"rps":10,"interval":{"total":10,"ok":10,"http_fail":0,"other_fail":0},"total":{"total":10,"ok":10,"http_fail":0,"other_fail":0}}`
	mainLine   = `{"type":"summary","phase":"main","t_ms":2000,"rps":100,"interval":{"total":40,"ok":35,"http_fail":5,"other_fail":0},"total":{"total":50,"ok":45,"http_fail":5,"other_fail":0}}`
	finalLine  = `{"type":"final","total":{"total":50,"ok":45,"http_fail":5,"other_fail":0}}`
)

func TestPipeline_PersistsDecodesAndRenders(t *testing.T) {
	defer goleak.VerifyNone(t)

	persist, progress := &syncBuffer{}, &syncBuffer{}
	var seen []string
	p := New(Config{
		Persist:   persist,
		Progress:  progress,
		Clock:     clocktesting.NewFakeClock(time.Now()),
		Log:       logging.NullEntry,
		OnSummary: func(s Summary) { seen = append(seen, s.Phase) },
	})

	input := warmupLine + "\n" + "runner: not json\n" + `{"type":"event","status":200}` + "\n" + mainLine + "\n" + finalLine
	exited := make(chan struct{})
	close(exited)

	events, err := p.Run(context.Background(), io.NopCloser(strings.NewReader(input)), exited)
	require.NoError(t, err)

	require.Len(t, events, 3)
	assert.Equal(t, []string{TypeSummary, TypeSummary, TypeFinal}, []string{events[0].Type(), events[1].Type(), events[2].Type()})
	assert.Equal(t, []string{"warmup", "main"}, seen)

	// Every raw line is kept, and the unterminated last line gains a newline.
	assert.Equal(t, input+"\n", persist.String())

	assert.Equal(t,
		"[   1.0s] phase=warmup rps=   10.0 ok=   10 hf=   0 total_ok=10 total_fail=0\n"+
			"[   2.0s] phase=main   rps=  100.0 ok=   35 hf=   5 total_ok=45 total_fail=5\n",
		progress.String())
}

func TestPipeline_LongLine(t *testing.T) {
	defer goleak.VerifyNone(t)

	padding := strings.Repeat("x", 256*1024)
	line := `{"type":"final","pad":"` + padding + `","total":{"total":1,"ok":1}}`
	exited := make(chan struct{})
	close(exited)

	events, err := New(Config{Log: logging.NullEntry}).Run(context.Background(), io.NopCloser(strings.NewReader(line+"\n")), exited)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, &Counters{Total: 1, Ok: 1}, events[0].(Final).Total)
}

func TestPipeline_WaitsForExitAfterEOF(t *testing.T) {
	defer goleak.VerifyNone(t)

	r, w := io.Pipe()
	exited := make(chan struct{})
	done := runAsync(context.Background(), New(Config{Log: logging.NullEntry}), r, exited)

	_, err := w.Write([]byte(finalLine + "\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	select {
	case <-done:
		t.Fatal("pipeline finished before the child exited")
	case <-time.After(100 * time.Millisecond):
	}

	close(exited)
	res := await(t, done)
	require.NoError(t, res.err)
	assert.Len(t, res.events, 1)
}

func TestPipeline_DrainTimeout(t *testing.T) {
	defer goleak.VerifyNone(t)

	// The writer is never closed, as if a grandchild held the pipe open.
	r, w := io.Pipe()
	defer w.Close()
	exited := make(chan struct{})
	p := New(Config{Clock: clock.RealClock{}, DrainTimeout: 50 * time.Millisecond, Log: logging.NullEntry})
	done := runAsync(context.Background(), p, r, exited)

	_, err := w.Write([]byte(mainLine + "\n"))
	require.NoError(t, err)
	close(exited)

	res := await(t, done)
	require.NoError(t, res.err)
	assert.Len(t, res.events, 1)
}

func TestPipeline_Cancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	r, w := io.Pipe()
	defer w.Close()
	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(ctx, New(Config{Log: logging.NullEntry}), r, make(chan struct{}))

	cancel()
	res := await(t, done)
	assert.True(t, errors.Is(res.err, context.Canceled), "expected context.Canceled, got %v", res.err)
}

func TestPipeline_PersistFailureIsFatal(t *testing.T) {
	defer goleak.VerifyNone(t)

	r, w := io.Pipe()
	defer w.Close()
	persist := failingWriter{}
	done := runAsync(context.Background(), New(Config{Persist: persist, Log: logging.NullEntry}), r, make(chan struct{}))

	_, _ = w.Write([]byte(mainLine + "\n"))
	res := await(t, done)
	assert.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "persisting runner output")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestPipeline_Spinner(t *testing.T) {
	defer goleak.VerifyNone(t)

	fakeClock := clocktesting.NewFakeClock(time.Now())
	progress := &syncBuffer{}
	r, w := io.Pipe()
	exited := make(chan struct{})
	p := New(Config{Progress: progress, Clock: fakeClock, SpinnerInterval: 150 * time.Millisecond, Log: logging.NullEntry})
	done := runAsync(context.Background(), p, r, exited)

	require.Eventually(t, fakeClock.HasWaiters, time.Second, time.Millisecond)
	fakeClock.Step(time.Second)
	require.Eventually(t, func() bool {
		return strings.Contains(progress.String(), "   1.0s running")
	}, time.Second, time.Millisecond)
	assert.True(t, strings.HasPrefix(progress.String(), "\r|    1.0s running"))

	_, err := w.Write([]byte(mainLine + "\n"))
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return strings.Contains(progress.String(), "phase=main")
	}, time.Second, time.Millisecond)
	// The spinner line is erased before the progress line is written.
	assert.Contains(t, progress.String(), "\r"+strings.Repeat(" ", 120)+"\r[   2.0s] phase=main")

	fakeClock.Step(time.Second)
	require.Eventually(t, func() bool {
		return strings.Contains(progress.String(), "/    2.0s phase=main rps= 100.0 ok=35 hf=5")
	}, time.Second, time.Millisecond)

	require.NoError(t, w.Close())
	close(exited)
	res := await(t, done)
	require.NoError(t, res.err)
	assert.True(t, strings.HasSuffix(progress.String(), "\r"+strings.Repeat(" ", 120)+"\r"))
}

func TestPipeline_DisableSpinner(t *testing.T) {
	defer goleak.VerifyNone(t)

	fakeClock := clocktesting.NewFakeClock(time.Now())
	progress := &syncBuffer{}
	r, w := io.Pipe()
	exited := make(chan struct{})
	p := New(Config{Progress: progress, Clock: fakeClock, DisableSpinner: true, Log: logging.NullEntry})
	done := runAsync(context.Background(), p, r, exited)

	require.Eventually(t, fakeClock.HasWaiters, time.Second, time.Millisecond)
	fakeClock.Step(time.Second)
	require.NoError(t, w.Close())
	close(exited)
	require.NoError(t, await(t, done).err)
	assert.Empty(t, progress.String())
}
