package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/netbench/benchrun/internal/benchrun/eventstream"
)

func counters(total, ok, httpFail, otherFail uint64) *eventstream.Counters {
	return &eventstream.Counters{Total: total, Ok: ok, HttpFail: httpFail, OtherFail: otherFail}
}

func TestFromEvents_WarmupMainFinal(t *testing.T) {
	events := []eventstream.Event{
		eventstream.Summary{Phase: "warmup", Rps: 10, Total: counters(10, 10, 0, 0)},
		eventstream.Summary{Phase: "main", Rps: 100, Total: counters(40, 36, 4, 0)},
		eventstream.Final{Total: counters(50, 45, 5, 0)},
	}
	a := FromEvents(events)
	assert.Equal(t, 100.0, a.AvgMainRps)
	assert.Equal(t, 0.9, a.OkRate)
	assert.Equal(t, 50.0, a.Total)
	assert.Equal(t, 45.0, a.Ok)
	assert.Equal(t, 5.0, a.HttpFail)
}

func TestFromEvents_ZeroTotal(t *testing.T) {
	a := FromEvents([]eventstream.Event{eventstream.Final{Total: counters(0, 0, 0, 0)}})
	assert.Equal(t, 0.0, a.OkRate)
	assert.Equal(t, Aggregate{}, FromEvents(nil))
}

func TestTotals_Layers(t *testing.T) {
	tests := map[string]struct {
		events     []eventstream.Event
		want       eventstream.Counters
		wantSource Source
		wantOk     bool
	}{
		"last final wins": {
			events: []eventstream.Event{
				eventstream.Final{Total: counters(1, 1, 0, 0)},
				eventstream.Summary{Phase: "main", Total: counters(9, 9, 0, 0)},
				eventstream.Final{Total: counters(50, 45, 5, 0)},
			},
			want:       *counters(50, 45, 5, 0),
			wantSource: SourceFinal,
			wantOk:     true,
		},
		"last summary when no final": {
			events: []eventstream.Event{
				eventstream.Summary{Phase: "warmup", Total: counters(10, 10, 0, 0)},
				eventstream.Summary{Phase: "main", Total: counters(30, 28, 1, 1)},
			},
			want:       *counters(30, 28, 1, 1),
			wantSource: SourceSummary,
			wantOk:     true,
		},
		"final without totals falls through": {
			events: []eventstream.Event{
				eventstream.Summary{Phase: "main", Total: counters(30, 28, 1, 1)},
				eventstream.Final{},
			},
			want:       *counters(30, 28, 1, 1),
			wantSource: SourceSummary,
			wantOk:     true,
		},
		"summed intervals": {
			events: []eventstream.Event{
				eventstream.Summary{Phase: "warmup", Interval: counters(10, 9, 1, 0)},
				eventstream.Summary{Phase: "main", Interval: &eventstream.Counters{Total: 20, Ok: 17, ConnectFail: 1, HttpFail: 1, OtherFail: 1}},
				eventstream.Summary{Phase: "main"},
			},
			want:       eventstream.Counters{Total: 30, Ok: 26, ConnectFail: 1, HttpFail: 2, OtherFail: 1},
			wantSource: SourceIntervals,
			wantOk:     true,
		},
		"nothing": {
			events:     []eventstream.Event{eventstream.Summary{Phase: "main", Rps: 5}},
			wantSource: SourceNone,
		},
		"empty": {
			wantSource: SourceNone,
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, source, ok := Totals(tc.events)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.wantSource, source)
			assert.Equal(t, tc.wantOk, ok)
		})
	}
}

func TestTotals_IntervalSumMatchesReference(t *testing.T) {
	var events []eventstream.Event
	var reference eventstream.Counters
	for i := uint64(1); i <= 20; i++ {
		interval := eventstream.Counters{Total: i * 3, Ok: i * 2, ConnectFail: i % 2, HttpFail: i % 3, OtherFail: i % 5}
		reference.Total += interval.Total
		reference.Ok += interval.Ok
		reference.ConnectFail += interval.ConnectFail
		reference.HttpFail += interval.HttpFail
		reference.OtherFail += interval.OtherFail
		events = append(events, eventstream.Summary{Phase: "main", Interval: &interval})
	}
	got, source, ok := Totals(events)
	assert.True(t, ok)
	assert.Equal(t, SourceIntervals, source)
	assert.Equal(t, reference, got)
}

func TestAvgMainRps(t *testing.T) {
	assert.Equal(t, 0.0, AvgMainRps([]eventstream.Event{eventstream.Summary{Phase: "warmup", Rps: 10}}))
	assert.Equal(t, 150.0, AvgMainRps([]eventstream.Event{
		eventstream.Summary{Phase: "warmup", Rps: 10},
		eventstream.Summary{Phase: "main", Rps: 100},
		eventstream.Summary{Phase: "main", Rps: 200},
	}))
}

func TestSource_String(t *testing.T) {
	assert.Equal(t, "final", SourceFinal.String())
	assert.Equal(t, "intervals", SourceIntervals.String())
	assert.Equal(t, "none", Source(42).String())
}
