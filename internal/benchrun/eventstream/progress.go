package eventstream

import (
	"fmt"
	"io"
	"strings"
	"time"
)

var spinnerFrames = []string{"|", "/", "-", `\`}

const spinnerClearWidth = 120

// FormatProgress renders one progress line for a summary.
// The runner's own clock is preferred; elapsed wall time is used when the summary carries none.
func FormatProgress(s Summary, elapsed time.Duration) string {
	t := elapsed.Seconds()
	if s.TMs > 0 {
		t = s.TMs / 1000
	}
	var interval, total Counters
	if s.Interval != nil {
		interval = *s.Interval
	}
	if s.Total != nil {
		total = *s.Total
	}
	return fmt.Sprintf("[%6.1fs] phase=%-6s rps=%7.1f ok=%5d hf=%4d total_ok=%d total_fail=%d",
		t, s.Phase, s.Rps, interval.Ok, interval.HttpFail, total.Ok, total.Failed())
}

// Spinner redraws a single status line in place using carriage returns.
type Spinner struct {
	out   io.Writer
	frame int
	drawn bool
}

func NewSpinner(out io.Writer) *Spinner {
	return &Spinner{out: out}
}

// Message returns the text of the next frame without advancing the spinner.
func (s *Spinner) Message(elapsed time.Duration, last *Summary) string {
	ch := spinnerFrames[s.frame%len(spinnerFrames)]
	if last == nil {
		return fmt.Sprintf("%s %6.1fs running", ch, elapsed.Seconds())
	}
	var interval Counters
	if last.Interval != nil {
		interval = *last.Interval
	}
	return fmt.Sprintf("%s %6.1fs phase=%s rps=%6.1f ok=%d hf=%d",
		ch, elapsed.Seconds(), last.Phase, last.Rps, interval.Ok, interval.HttpFail)
}

func (s *Spinner) Draw(elapsed time.Duration, last *Summary) {
	msg := s.Message(elapsed, last)
	_, _ = io.WriteString(s.out, "\r"+msg+strings.Repeat(" ", 10))
	s.frame++
	s.drawn = true
}

// Clear blanks the spinner line if one is showing, leaving the cursor at the start of the line.
func (s *Spinner) Clear() {
	if !s.drawn {
		return
	}
	_, _ = io.WriteString(s.out, "\r"+strings.Repeat(" ", spinnerClearWidth)+"\r")
	s.drawn = false
}
