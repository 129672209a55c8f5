package report

import (
	"fmt"
	"io"

	"github.com/netbench/benchrun/internal/benchrun/metrics"
)

// Comparison writes current against previous, one metric per line.
func Comparison(w io.Writer, current, previous metrics.Aggregate) {
	line := func(name string, cur, prev float64, isRate bool) {
		fmt.Fprintf(w, "%-14s%s\n", name+":", FormatDelta(cur, prev, isRate))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "comparison")
	line(metrics.KeyAvgMainRps, current.AvgMainRps, previous.AvgMainRps, false)
	line(metrics.KeyOkRate, current.OkRate, previous.OkRate, true)
	line(metrics.KeyTotal, current.Total, previous.Total, false)
	line(metrics.KeyOk, current.Ok, previous.Ok, false)
	line(metrics.KeyConnectFail, current.ConnectFail, previous.ConnectFail, false)
	line(metrics.KeyHttpFail, current.HttpFail, previous.HttpFail, false)
	line(metrics.KeyOtherFail, current.OtherFail, previous.OtherFail, false)
	fmt.Fprintln(w)
}
