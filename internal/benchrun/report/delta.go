// Package report renders run results for humans and for diffing.
package report

import "fmt"

// FormatDelta renders cur with its signed change from prev.
// Rates are shown as percentages with the change in percentage points. Counts also show the
// relative change, unless prev is zero.
func FormatDelta(cur, prev float64, isRate bool) string {
	d := cur - prev
	if isRate {
		return fmt.Sprintf("%.2f%% (%+.2fpp)", cur*100, d*100)
	}
	if prev != 0 {
		return fmt.Sprintf("%.2f (%+.2f, %+.2f%%)", cur, d, d/prev*100)
	}
	return fmt.Sprintf("%.2f (%+.2f)", cur, d)
}
