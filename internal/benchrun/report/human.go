package report

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/netbench/benchrun/internal/benchrun/eventstream"
	"github.com/netbench/benchrun/internal/benchrun/metrics"
	"github.com/netbench/benchrun/internal/common/util"
)

const barGlyph = "█"

type HumanOptions struct {
	// TableRows and ChartRows cap the table and the chart at the tail of the run.
	TableRows int
	ChartRows int
	BarWidth  int
}

var DefaultHumanOptions = HumanOptions{TableRows: 12, ChartRows: 24, BarWidth: 24}

// Human writes the per second table, the rps chart and the totals of a run.
func Human(w io.Writer, events []eventstream.Event, opts HumanOptions) {
	summaries := eventstream.Summaries(events)
	if len(summaries) > 0 {
		fmt.Fprintf(w, "per second summary (last %d)\n", opts.TableRows)
		fmt.Fprint(w, Table(summaries, opts.TableRows))
		fmt.Fprintln(w)
		fmt.Fprintf(w, "rps graph (last %d)\n", opts.ChartRows)
		fmt.Fprint(w, Chart(summaries, opts.ChartRows, opts.BarWidth))
		fmt.Fprintln(w)
	}

	totals, source, ok := metrics.Totals(events)
	if !ok {
		fmt.Fprintln(w, "final totals")
		fmt.Fprint(w, NoFinalEvent)
		fmt.Fprintln(w)
		return
	}
	if source == metrics.SourceFinal {
		fmt.Fprintln(w, "final totals")
	} else {
		fmt.Fprintf(w, "final totals (from %s)\n", source)
	}
	fmt.Fprintln(w, FormatTotals(totals))
	fmt.Fprintln(w)
}

// FormatTotals renders totals on one line with ok and failure percentages.
func FormatTotals(c eventstream.Counters) string {
	okPct, failPct := 0.0, 0.0
	if c.Total > 0 {
		okPct = float64(c.Ok) / float64(c.Total) * 100
		failPct = float64(c.Failed()) / float64(c.Total) * 100
	}
	return fmt.Sprintf("total=%d ok=%d (%.2f%%) failed=%d (%.2f%%) connect_fail=%d http_fail=%d other_fail=%d",
		c.Total, c.Ok, okPct, c.Failed(), failPct, c.ConnectFail, c.HttpFail, c.OtherFail)
}

// Table renders the last n summaries as right aligned columns of their interval counters.
func Table(summaries []eventstream.Summary, n int) string {
	w := util.NewTableBuilder()
	w.Row("time_s", "phase", "rps", "ok", "connect_fail", "http_fail", "other_fail")
	for _, s := range tail(summaries, n) {
		var c eventstream.Counters
		if s.Interval != nil {
			c = *s.Interval
		}
		w.Row(fmt.Sprintf("%.1f", s.TMs/1000), s.Phase, fmt.Sprintf("%.1f", s.Rps), c.Ok, c.ConnectFail, c.HttpFail, c.OtherFail)
	}
	return w.String()
}

// Chart renders the rps of the last n summaries as bars scaled to the highest rps of the whole run.
func Chart(summaries []eventstream.Summary, n, width int) string {
	maxRps := 0.0
	for _, s := range summaries {
		maxRps = math.Max(maxRps, s.Rps)
	}
	var sb strings.Builder
	for _, s := range tail(summaries, n) {
		var c eventstream.Counters
		if s.Interval != nil {
			c = *s.Interval
		}
		fmt.Fprintf(&sb, "%6.1f %-6s %6.1f %s ok=%d hf=%d\n", s.TMs/1000, s.Phase, s.Rps, Bar(s.Rps, maxRps, width), c.Ok, c.HttpFail)
	}
	return sb.String()
}

// Bar renders value relative to max as a bar of exactly width cells.
func Bar(value, max float64, width int) string {
	if max <= 0 || width <= 0 {
		return strings.Repeat(" ", width)
	}
	ratio := math.Max(0, math.Min(1, value/max))
	n := int(math.Round(ratio * float64(width)))
	return strings.Repeat(barGlyph, n) + strings.Repeat(" ", width-n)
}

func tail[T any](items []T, n int) []T {
	if n <= 0 || len(items) <= n {
		return items
	}
	return items[len(items)-n:]
}
