package report

import (
	"fmt"
	"strings"

	"github.com/netbench/benchrun/internal/benchrun/eventstream"
	"github.com/netbench/benchrun/internal/benchrun/metrics"
)

// NoFinalEvent is the whole stable summary of a run that reported no counters.
const NoFinalEvent = "no_final_event=1\n"

// StableSummary renders the totals of a run as key=value lines that only change when the totals do.
// Totals are taken from the same layers as metrics.Totals.
func StableSummary(events []eventstream.Event) string {
	totals, _, ok := metrics.Totals(events)
	if !ok {
		return NoFinalEvent
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s=%d\n", metrics.KeyTotal, totals.Total)
	fmt.Fprintf(&sb, "%s=%d\n", metrics.KeyOk, totals.Ok)
	fmt.Fprintf(&sb, "%s=%d\n", metrics.KeyConnectFail, totals.ConnectFail)
	fmt.Fprintf(&sb, "%s=%d\n", metrics.KeyHttpFail, totals.HttpFail)
	fmt.Fprintf(&sb, "%s=%d\n", metrics.KeyOtherFail, totals.OtherFail)
	return sb.String()
}
