// Package metrics derives the canonical metrics of a run from its events, and reads and writes them on disk.
package metrics

import (
	"github.com/netbench/benchrun/internal/benchrun/eventstream"
)

// Source identifies which layer of the event log the totals came from.
type Source int

const (
	SourceNone Source = iota
	SourceFinal
	SourceSummary
	SourceIntervals
)

func (s Source) String() string {
	switch s {
	case SourceFinal:
		return "final"
	case SourceSummary:
		return "summary"
	case SourceIntervals:
		return "intervals"
	}
	return "none"
}

// Aggregate is the canonical record of a run, compared against baselines.
type Aggregate struct {
	AvgMainRps  float64 `json:"avg_main_rps"`
	Total       float64 `json:"total"`
	Ok          float64 `json:"ok"`
	ConnectFail float64 `json:"connect_fail"`
	HttpFail    float64 `json:"http_fail"`
	OtherFail   float64 `json:"other_fail"`
	// OkRate is Ok/Total, or 0 when Total is 0.
	OkRate float64 `json:"ok_rate"`
}

type extractor struct {
	source  Source
	extract func(events []eventstream.Event) (eventstream.Counters, bool)
}

// Most authoritative first.
var extractors = []extractor{
	{SourceFinal, lastFinalTotals},
	{SourceSummary, lastSummaryTotals},
	{SourceIntervals, summedIntervals},
}

// Totals returns the cumulative counters of the run and the layer they came from.
// The returned bool is false if no event carried any counters at all.
func Totals(events []eventstream.Event) (eventstream.Counters, Source, bool) {
	for _, e := range extractors {
		if c, ok := e.extract(events); ok {
			return c, e.source, true
		}
	}
	return eventstream.Counters{}, SourceNone, false
}

func lastFinalTotals(events []eventstream.Event) (eventstream.Counters, bool) {
	for i := len(events) - 1; i >= 0; i-- {
		if f, ok := events[i].(eventstream.Final); ok {
			if f.Total == nil {
				return eventstream.Counters{}, false
			}
			return *f.Total, true
		}
	}
	return eventstream.Counters{}, false
}

func lastSummaryTotals(events []eventstream.Event) (eventstream.Counters, bool) {
	for i := len(events) - 1; i >= 0; i-- {
		if s, ok := events[i].(eventstream.Summary); ok {
			if s.Total == nil {
				return eventstream.Counters{}, false
			}
			return *s.Total, true
		}
	}
	return eventstream.Counters{}, false
}

func summedIntervals(events []eventstream.Event) (eventstream.Counters, bool) {
	var sum eventstream.Counters
	found := false
	for _, s := range eventstream.Summaries(events) {
		if s.Interval != nil {
			sum.Add(*s.Interval)
			found = true
		}
	}
	return sum, found
}

// AvgMainRps is the mean rps over summaries of the main phase, or 0 if there are none.
func AvgMainRps(events []eventstream.Event) float64 {
	sum, n := 0.0, 0
	for _, s := range eventstream.Summaries(events) {
		if s.Phase == eventstream.PhaseMain {
			sum += s.Rps
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// FromEvents aggregates the events of one run.
func FromEvents(events []eventstream.Event) Aggregate {
	totals, _, _ := Totals(events)
	return FromCounters(totals, AvgMainRps(events))
}

func FromCounters(c eventstream.Counters, avgMainRps float64) Aggregate {
	a := Aggregate{
		AvgMainRps:  avgMainRps,
		Total:       float64(c.Total),
		Ok:          float64(c.Ok),
		ConnectFail: float64(c.ConnectFail),
		HttpFail:    float64(c.HttpFail),
		OtherFail:   float64(c.OtherFail),
	}
	a.OkRate = okRate(a.Ok, a.Total)
	return a
}

func okRate(ok, total float64) float64 {
	if total > 0 {
		return ok / total
	}
	return 0
}
