// Package eventstream consumes the runner's line oriented JSON telemetry.
// Every line is persisted as is, decoded into an Event, and rendered as live progress.
package eventstream

import (
	"bytes"
	"encoding/json"
	"math"

	"github.com/pkg/errors"

	"github.com/netbench/benchrun/internal/common/runerrors"
)

const (
	TypeSummary = "summary"
	TypeFinal   = "final"

	PhaseWarmup = "warmup"
	PhaseMain   = "main"
)

// Counters are request outcome counts, either for one interval or cumulative.
type Counters struct {
	Total       uint64 `json:"total"`
	Ok          uint64 `json:"ok"`
	ConnectFail uint64 `json:"connect_fail,omitempty"`
	HttpFail    uint64 `json:"http_fail"`
	OtherFail   uint64 `json:"other_fail"`
}

// Failed returns total-ok, or zero for inconsistent counters where ok exceeds total.
func (c Counters) Failed() uint64 {
	if c.Total < c.Ok {
		return 0
	}
	return c.Total - c.Ok
}

func (c *Counters) Add(other Counters) {
	c.Total += other.Total
	c.Ok += other.Ok
	c.ConnectFail += other.ConnectFail
	c.HttpFail += other.HttpFail
	c.OtherFail += other.OtherFail
}

// Event is either a Summary or a Final.
type Event interface {
	Type() string
}

// Summary is emitted periodically while the runner is executing.
type Summary struct {
	Phase string
	// TMs is the runner's own clock in milliseconds since it started.
	TMs      float64
	Rps      float64
	Interval *Counters
	Total    *Counters
}

func (Summary) Type() string {
	return TypeSummary
}

// Final is emitted once when the runner completes, and is authoritative for totals.
type Final struct {
	Total *Counters
}

func (Final) Type() string {
	return TypeFinal
}

// The runner serialises counters as numbers that are not guaranteed to be integral.
type wireCounters struct {
	Total       float64 `json:"total"`
	Ok          float64 `json:"ok"`
	ConnectFail float64 `json:"connect_fail"`
	HttpFail    float64 `json:"http_fail"`
	OtherFail   float64 `json:"other_fail"`
}

type wireEvent struct {
	Type     string        `json:"type"`
	Phase    string        `json:"phase"`
	TMs      float64       `json:"t_ms"`
	Rps      float64       `json:"rps"`
	Interval *wireCounters `json:"interval"`
	Total    *wireCounters `json:"total"`
}

func toCount(v float64) uint64 {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	return uint64(v)
}

func (w *wireCounters) counters() *Counters {
	if w == nil {
		return nil
	}
	return &Counters{
		Total:       toCount(w.Total),
		Ok:          toCount(w.Ok),
		ConnectFail: toCount(w.ConnectFail),
		HttpFail:    toCount(w.HttpFail),
		OtherFail:   toCount(w.OtherFail),
	}
}

// Decode parses one line of runner output.
// Blank lines and well formed lines of any other type (e.g. per request events) yield a nil Event and no error.
// Lines that are not valid JSON objects yield an ErrMalformedEvent.
func Decode(line []byte) (Event, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, nil
	}
	var w wireEvent
	if err := json.Unmarshal(line, &w); err != nil {
		return nil, errors.WithStack(&runerrors.ErrMalformedEvent{Line: string(line), Message: err.Error()})
	}
	switch w.Type {
	case TypeSummary:
		return Summary{
			Phase:    w.Phase,
			TMs:      w.TMs,
			Rps:      w.Rps,
			Interval: w.Interval.counters(),
			Total:    w.Total.counters(),
		}, nil
	case TypeFinal:
		return Final{Total: w.Total.counters()}, nil
	}
	return nil, nil
}

// DecodeAll decodes every line of data, silently dropping anything Decode does not turn into an Event.
func DecodeAll(data []byte) []Event {
	var events []Event
	for _, line := range bytes.Split(data, []byte("\n")) {
		if ev, err := Decode(line); err == nil && ev != nil {
			events = append(events, ev)
		}
	}
	return events
}

// Summaries returns the Summary events in order.
func Summaries(events []Event) []Summary {
	var out []Summary
	for _, ev := range events {
		if s, ok := ev.(Summary); ok {
			out = append(out, s)
		}
	}
	return out
}
