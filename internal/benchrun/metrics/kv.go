package metrics

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/netbench/benchrun/internal/benchrun/eventstream"
)

// Keys of the kv format, in the order they are written.
const (
	KeyAvgMainRps  = "avg_main_rps"
	KeyTotal       = "total"
	KeyOk          = "ok"
	KeyConnectFail = "connect_fail"
	KeyHttpFail    = "http_fail"
	KeyOtherFail   = "other_fail"
	KeyOkRate      = "ok_rate"
)

var kvKeys = []string{KeyAvgMainRps, KeyTotal, KeyOk, KeyConnectFail, KeyHttpFail, KeyOtherFail, KeyOkRate}

// ParseKV parses key=value lines. Blank lines, lines without '=' and non-numeric values are skipped.
func ParseKV(text string) map[string]float64 {
	out := map[string]float64{}
	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		k, v, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			continue
		}
		out[strings.TrimSpace(k)] = f
	}
	return out
}

// FromKV builds an Aggregate from parsed kv values. Missing keys are zero.
// ok_rate is derived from ok and total when absent.
func FromKV(values map[string]float64) Aggregate {
	a := Aggregate{
		AvgMainRps:  values[KeyAvgMainRps],
		Total:       values[KeyTotal],
		Ok:          values[KeyOk],
		ConnectFail: values[KeyConnectFail],
		HttpFail:    values[KeyHttpFail],
		OtherFail:   values[KeyOtherFail],
	}
	if rate, ok := values[KeyOkRate]; ok {
		a.OkRate = rate
	} else {
		a.OkRate = okRate(a.Ok, a.Total)
	}
	return a
}

// FormatKV renders a in the kv format read by Load.
func FormatKV(a Aggregate) string {
	values := a.Values()
	var sb strings.Builder
	for _, k := range kvKeys {
		sb.WriteString(k)
		sb.WriteString("=")
		sb.WriteString(strconv.FormatFloat(values[k], 'f', -1, 64))
		sb.WriteString("\n")
	}
	return sb.String()
}

// Values returns the fields of a keyed by their kv name.
func (a Aggregate) Values() map[string]float64 {
	return map[string]float64{
		KeyAvgMainRps:  a.AvgMainRps,
		KeyTotal:       a.Total,
		KeyOk:          a.Ok,
		KeyConnectFail: a.ConnectFail,
		KeyHttpFail:    a.HttpFail,
		KeyOtherFail:   a.OtherFail,
		KeyOkRate:      a.OkRate,
	}
}

// Load reads a previously saved run. Files with a jsonl extension are treated as event logs,
// anything else as kv text.
func Load(path string) (Aggregate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Aggregate{}, errors.WithStack(err)
	}
	if strings.HasSuffix(strings.ToLower(filepath.Ext(path)), "jsonl") {
		return FromEvents(eventstream.DecodeAll(data)), nil
	}
	return FromKV(ParseKV(string(data))), nil
}

// WriteBaseline writes a to path in the kv format, creating parent directories as needed.
func WriteBaseline(path string, a Aggregate) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.WithStack(err)
	}
	if err := os.WriteFile(path, []byte(FormatKV(a)), 0o644); err != nil {
		return errors.WithStack(err)
	}
	return nil
}
