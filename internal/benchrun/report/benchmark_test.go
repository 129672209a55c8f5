package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sigs.k8s.io/yaml"

	"github.com/netbench/benchrun/internal/benchrun/metrics"
)

func writeBaseline(t *testing.T, dir, name string, a metrics.Aggregate) {
	require.NoError(t, metrics.WriteBaseline(filepath.Join(dir, name), a))
}

func setupDirs(t *testing.T) (artifacts, baselines string) {
	root := t.TempDir()
	artifacts = filepath.Join(root, "artifacts")
	baselines = filepath.Join(root, "baselines")
	writeBaseline(t, filepath.Join(artifacts, "job-1"), BaselineName("baseline", "direct"),
		metrics.Aggregate{AvgMainRps: 110, Total: 50, Ok: 45, HttpFail: 5, OkRate: 0.9})
	writeBaseline(t, filepath.Join(artifacts, "job-2", "nested"), BaselineName("flaky-upstream", "scoped"),
		metrics.Aggregate{AvgMainRps: 80.5, Total: 40, Ok: 30, OtherFail: 10, OkRate: 0.75})
	writeBaseline(t, baselines, BaselineName("baseline", "direct"),
		metrics.Aggregate{AvgMainRps: 100, Total: 50, Ok: 50, OkRate: 1})
	// Not a kv artifact.
	require.NoError(t, os.WriteFile(filepath.Join(artifacts, "job-1", "run.jsonl"), []byte("{}"), 0o644))
	return
}

func TestCollect(t *testing.T) {
	artifacts, baselines := setupDirs(t)

	r, err := Collect(artifacts, baselines, "abc123")
	require.NoError(t, err)
	require.Len(t, r.Scenarios, 2)

	assert.Equal(t, "baseline / direct", r.Scenarios[0].Label())
	require.NotNil(t, r.Scenarios[0].Baseline)
	assert.Equal(t, 100.0, r.Scenarios[0].Baseline.AvgMainRps)

	assert.Equal(t, "flaky-upstream / scoped", r.Scenarios[1].Label())
	assert.Nil(t, r.Scenarios[1].Baseline)
	assert.Equal(t, []string{"flaky-upstream / scoped"}, r.Missing)
}

func TestCollect_MissingArtifactsDir(t *testing.T) {
	r, err := Collect(filepath.Join(t.TempDir(), "nope"), t.TempDir(), "")
	require.NoError(t, err)
	assert.Empty(t, r.Scenarios)
}

func TestSplitName(t *testing.T) {
	scenario, topology := splitName("latency-jitter.global.kv.txt")
	assert.Equal(t, "latency-jitter", scenario)
	assert.Equal(t, "global", topology)

	scenario, topology = splitName("custom.kv.txt")
	assert.Equal(t, "custom", scenario)
	assert.Equal(t, "unknown", topology)
}

func TestMarkdownFormatter(t *testing.T) {
	artifacts, baselines := setupDirs(t)
	r, err := Collect(artifacts, baselines, "abc123")
	require.NoError(t, err)

	out, err := r.Generate(nil)
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"<!-- netbench-report-marker -->",
		"## netbench benchmark report",
		"",
		"Commit: `abc123`",
		"",
		"| scenario | avg main rps | ok rate | connect fail | http fail | other fail |",
		"|---|---:|---:|---:|---:|---:|",
		"| baseline / direct | 110.00 (+10.00, +10.00%) | 90.00% (-10.00pp) | 0.00 (+0.00) | 5.00 (+5.00) | 0.00 (+0.00) |",
		"| flaky-upstream / scoped | 80.50 | 75.00% | 0 | 0 | 10 |",
		"",
		"Baselines missing for:",
		"- flaky-upstream / scoped",
		"",
		"Once a run lands on main, baselines will be published and PR comparisons will start working automatically.",
		"",
	}, "\n"), string(out))
}

func TestMarkdownFormatter_Empty(t *testing.T) {
	out, err := (&BenchmarkReport{}).Generate(MarkdownFormatter)
	require.NoError(t, err)
	assert.Equal(t, "<!-- netbench-report-marker -->\n## netbench benchmark report\n\nNo benchmark outputs found.\n", string(out))
}

func TestYamlFormatter(t *testing.T) {
	artifacts, baselines := setupDirs(t)
	r, err := Collect(artifacts, baselines, "abc123")
	require.NoError(t, err)

	out, err := r.Generate(YamlFormatter)
	require.NoError(t, err)

	var decoded BenchmarkReport
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	assert.Equal(t, r, &decoded)
	assert.Contains(t, string(out), "avg_main_rps: 110")
}
