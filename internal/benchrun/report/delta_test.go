package report

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatDelta(t *testing.T) {
	tests := map[string]struct {
		cur, prev float64
		isRate    bool
		want      string
	}{
		"increase":           {110, 100, false, "110.00 (+10.00, +10.00%)"},
		"decrease":           {95.5, 100, false, "95.50 (-4.50, -4.50%)"},
		"unchanged":          {42, 42, false, "42.00 (+0.00, +0.00%)"},
		"no previous":        {5, 0, false, "5.00 (+5.00)"},
		"negative previous":  {1, -2, false, "1.00 (+3.00, -150.00%)"},
		"rate drop":          {0.9, 0.95, true, "90.00% (-5.00pp)"},
		"rate without prior": {0.9, 0, true, "90.00% (+90.00pp)"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatDelta(tc.cur, tc.prev, tc.isRate))
		})
	}
}

func TestFormatDelta_PercentageOnlyWithPrevious(t *testing.T) {
	for _, x := range []float64{0, 1, 12.5, 1000, -3} {
		assert.NotContains(t, FormatDelta(x, 0, false), "%")
	}
	for _, pair := range [][2]float64{{1, 3}, {250, 200}, {0, 7}, {7.25, 1.5}} {
		x, y := pair[0], pair[1]
		want := fmt.Sprintf("%+.2f%%", (x-y)/y*100)
		got := FormatDelta(x, y, false)
		assert.True(t, strings.HasSuffix(got, ", "+want+")"), "%s should end with %s", got, want)
	}
}

func ExampleFormatDelta() {
	fmt.Println(FormatDelta(110, 100, false))
	fmt.Println(FormatDelta(0.9, 0.95, true))
	// Output:
	// 110.00 (+10.00, +10.00%)
	// 90.00% (-5.00pp)
}
