package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-zglob"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
	"sigs.k8s.io/yaml"

	"github.com/netbench/benchrun/internal/benchrun/metrics"
)

const (
	KVSuffix = ".kv.txt"
	// Marker lets a bot find and update its previous comment on a pull request.
	Marker = "<!-- netbench-report-marker -->"
)

// ScenarioReport compares one saved run with the baseline of the same name.
type ScenarioReport struct {
	Name     string             `json:"name"`
	Scenario string             `json:"scenario"`
	Topology string             `json:"topology"`
	Current  metrics.Aggregate  `json:"current"`
	Baseline *metrics.Aggregate `json:"baseline,omitempty"`
}

func (r *ScenarioReport) Label() string {
	return r.Scenario + " / " + r.Topology
}

// BenchmarkReport covers every saved run found in an artifacts directory.
type BenchmarkReport struct {
	Commit    string            `json:"commit,omitempty"`
	Scenarios []*ScenarioReport `json:"scenarios"`
	// Missing lists the labels of scenarios without a baseline.
	Missing []string `json:"missing,omitempty"`
}

type Formatter func(*BenchmarkReport) ([]byte, error)

// BaselineName is the file name a run is saved under, e.g. baseline.direct.kv.txt.
func BaselineName(scenario, topology string) string {
	return scenario + "." + topology + KVSuffix
}

// Collect finds every kv file below artifactsDir and pairs it with the file of the same name in baselinesDir.
// A missing artifacts directory yields an empty report.
func Collect(artifactsDir, baselinesDir, commit string) (*BenchmarkReport, error) {
	r := &BenchmarkReport{Commit: commit}
	if _, err := os.Stat(artifactsDir); os.IsNotExist(err) {
		return r, nil
	}
	// zglob reports no matches as os.ErrNotExist.
	paths, err := zglob.Glob(filepath.Join(artifactsDir, "**", "*"+KVSuffix))
	if err != nil && !os.IsNotExist(err) {
		return nil, errors.WithStack(err)
	}
	slices.Sort(paths)
	paths = slices.Compact(paths)

	for _, path := range paths {
		current, err := metrics.Load(path)
		if err != nil {
			return nil, err
		}
		name := filepath.Base(path)
		scenario, topology := splitName(name)
		s := &ScenarioReport{
			Name:     name,
			Scenario: scenario,
			Topology: topology,
			Current:  current,
		}
		baselinePath := filepath.Join(baselinesDir, name)
		if _, err := os.Stat(baselinePath); err == nil {
			baseline, err := metrics.Load(baselinePath)
			if err != nil {
				return nil, err
			}
			s.Baseline = &baseline
		} else {
			r.Missing = append(r.Missing, s.Label())
		}
		r.Scenarios = append(r.Scenarios, s)
	}
	return r, nil
}

func splitName(name string) (scenario, topology string) {
	parts := strings.Split(strings.TrimSuffix(name, KVSuffix), ".")
	scenario, topology = parts[0], "unknown"
	if len(parts) > 1 {
		topology = parts[1]
	}
	return
}

func (r *BenchmarkReport) Generate(formatter Formatter) ([]byte, error) {
	if formatter == nil {
		formatter = MarkdownFormatter
	}
	return formatter(r)
}

func YamlFormatter(r *BenchmarkReport) ([]byte, error) {
	out, err := yaml.Marshal(r)
	return out, errors.WithStack(err)
}

// MarkdownFormatter renders a table suitable for a pull request comment.
func MarkdownFormatter(r *BenchmarkReport) ([]byte, error) {
	var lines []string
	lines = append(lines, Marker, "## netbench benchmark report", "")
	if r.Commit != "" {
		lines = append(lines, fmt.Sprintf("Commit: `%s`", r.Commit), "")
	}
	if len(r.Scenarios) == 0 {
		lines = append(lines, "No benchmark outputs found.")
		return []byte(strings.Join(lines, "\n") + "\n"), nil
	}

	lines = append(lines,
		"| scenario | avg main rps | ok rate | connect fail | http fail | other fail |",
		"|---|---:|---:|---:|---:|---:|",
	)
	for _, s := range r.Scenarios {
		c := s.Current
		if s.Baseline == nil {
			lines = append(lines, fmt.Sprintf("| %s | %.2f | %.2f%% | %.0f | %.0f | %.0f |",
				s.Label(), c.AvgMainRps, c.OkRate*100, c.ConnectFail, c.HttpFail, c.OtherFail))
			continue
		}
		b := s.Baseline
		lines = append(lines, fmt.Sprintf("| %s | %s | %s | %s | %s | %s |",
			s.Label(),
			FormatDelta(c.AvgMainRps, b.AvgMainRps, false),
			FormatDelta(c.OkRate, b.OkRate, true),
			FormatDelta(c.ConnectFail, b.ConnectFail, false),
			FormatDelta(c.HttpFail, b.HttpFail, false),
			FormatDelta(c.OtherFail, b.OtherFail, false),
		))
	}

	if len(r.Missing) > 0 {
		lines = append(lines, "", "Baselines missing for:")
		for _, m := range r.Missing {
			lines = append(lines, "- "+m)
		}
		lines = append(lines, "", "Once a run lands on main, baselines will be published and PR comparisons will start working automatically.")
	}
	return []byte(strings.Join(lines, "\n") + "\n"), nil
}
