// Package configuration holds the settings of a benchmark run and loads them from flags,
// environment variables and an optional yaml file.
package configuration

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/netbench/benchrun/internal/common/config"
	"github.com/netbench/benchrun/internal/common/runerrors"
)

const EnvPrefix = "BENCHRUN"

// RunConfig holds everything needed to perform one benchmark run.
// Using a single struct for all settings ensures that they can be provided either on the
// command line or statically in a config file reused between runs.
type RunConfig struct {
	// Scenario run by mock and runner. Ignored when Har is set.
	Scenario Scenario
	// Har is a recorded session replayed instead of a scenario.
	Har string
	// Emulate replays the Har timings. Only valid together with Har.
	Emulate bool
	// Proxy selects the topology.
	Proxy Topology
	// Verbose captures child console output and logs at debug level.
	Verbose bool
	// ReportFile switches to report mode; the event log is copied here.
	ReportFile string
	// Compare is a baseline file (kv or jsonl) to compare against.
	Compare string
	// SaveBaseline writes the aggregate as a kv file.
	SaveBaseline string
	// MetricsFile writes the aggregate in the Prometheus text format.
	MetricsFile string
	// History is a sqlite database recording every run.
	History string
	// KeepArtifacts retains the run directory even after a successful run.
	KeepArtifacts bool

	Build    BuildConfig
	Products ProductsConfig
	Probe    ProbeConfig
	Timeouts TimeoutsConfig
	Display  DisplayConfig
}

type BuildConfig struct {
	// Command is split shell-style and run in Dir. Empty skips the build.
	Command string
	// Dir is the project root containing the benchmarked sources.
	Dir string
	// Binary overrides binary resolution when set.
	Binary string
	// ExtraRunnerArgs are appended to the runner command line before the target.
	ExtraRunnerArgs string
}

// ProductsConfig holds the --products value passed to the runner for each proxy topology.
type ProductsConfig struct {
	Global string
	Scoped string
}

func (p ProductsConfig) For(t Topology) string {
	switch t {
	case TopologyGlobal:
		return p.Global
	case TopologyScoped:
		return p.Scoped
	}
	return ""
}

type ProbeConfig struct {
	// VirtualHost is sent as the Host header.
	VirtualHost string
	Path        string
}

type TimeoutsConfig struct {
	Readiness    time.Duration
	PollInterval time.Duration
	Terminate    time.Duration
	Drain        time.Duration
	Probe        time.Duration
}

type DisplayConfig struct {
	// NoSpinner suppresses the spinner, e.g. when stderr is captured by CI.
	NoSpinner       bool
	SpinnerInterval time.Duration
	TableRows       int
	ChartRows       int
	BarWidth        int
}

// SetDefaults registers the default of every setting on v.
// Only keys known to viper are picked up from the environment, so every setting must have a default.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("scenario", "")
	v.SetDefault("har", "")
	v.SetDefault("emulate", false)
	v.SetDefault("proxy", string(TopologyDirect))
	v.SetDefault("verbose", false)
	v.SetDefault("reportFile", "")
	v.SetDefault("compare", "")
	v.SetDefault("saveBaseline", "")
	v.SetDefault("metricsFile", "")
	v.SetDefault("history", "")
	v.SetDefault("keepArtifacts", false)

	v.SetDefault("build.command", "cargo build --release")
	v.SetDefault("build.dir", ".")
	v.SetDefault("build.binary", "")
	v.SetDefault("build.extraRunnerArgs", "")

	v.SetDefault("products.global", "none, vscode; q=0.2, pypi; q=0.1")
	v.SetDefault("products.scoped", "vscode; q=0.6, pypi; q=0.4")

	v.SetDefault("probe.virtualHost", "localhost")
	v.SetDefault("probe.path", "/reporter/counter/blocked-events")

	v.SetDefault("timeouts.readiness", 20*time.Second)
	v.SetDefault("timeouts.pollInterval", 50*time.Millisecond)
	v.SetDefault("timeouts.terminate", 3*time.Second)
	v.SetDefault("timeouts.drain", 2*time.Second)
	v.SetDefault("timeouts.probe", 2*time.Second)

	v.SetDefault("display.noSpinner", false)
	v.SetDefault("display.spinnerInterval", 150*time.Millisecond)
	v.SetDefault("display.tableRows", 12)
	v.SetDefault("display.chartRows", 24)
	v.SetDefault("display.barWidth", 24)
}

// NewViper returns a viper instance with defaults and BENCHRUN_* environment lookup configured.
// Nested keys map to underscores, e.g. timeouts.readiness is read from BENCHRUN_TIMEOUTS_READINESS.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configFile, if given, into v and decodes the result.
// Flags must already be bound to v.
func Load(v *viper.Viper, configFile string) (*RunConfig, error) {
	if configFile != "" {
		path, err := homedir.Expand(configFile)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "reading config file %s", path)
		}
	}
	c := &RunConfig{}
	if err := v.Unmarshal(c, config.CustomHooks...); err != nil {
		return nil, errors.WithStack(err)
	}
	if err := c.Resolve(); err != nil {
		return nil, err
	}
	return c, nil
}

// Resolve expands ~ in every path and settles the scenario: it is ignored when a har is replayed,
// and defaults to baseline when neither was chosen.
func (c *RunConfig) Resolve() error {
	for _, p := range []*string{&c.Har, &c.ReportFile, &c.Compare, &c.SaveBaseline, &c.MetricsFile, &c.History, &c.Build.Dir, &c.Build.Binary} {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return errors.WithStack(err)
		}
		*p = expanded
	}
	if c.Har != "" {
		c.Scenario = ""
	} else if c.Scenario == "" {
		c.Scenario = ScenarioBaseline
	}
	return nil
}

// Validate checks that c describes a run that can be started.
func (c *RunConfig) Validate() error {
	if c.Har != "" {
		info, err := os.Stat(c.Har)
		if err != nil || info.IsDir() {
			return errors.WithStack(&runerrors.ErrInvalidArgument{
				Name:    "har",
				Value:   c.Har,
				Message: "file does not exist",
			})
		}
	}
	if c.Emulate && c.Har == "" {
		return errors.WithStack(&runerrors.ErrInvalidArgument{
			Name:    "emulate",
			Value:   "true",
			Message: "requires a har file",
		})
	}
	if c.Proxy.UsesProxy() && c.Products.For(c.Proxy) == "" {
		return errors.WithStack(&runerrors.ErrInvalidArgument{
			Name:    "products",
			Value:   c.Proxy.String(),
			Message: "no products configured for topology",
		})
	}
	for name, d := range map[string]time.Duration{
		"timeouts.readiness":      c.Timeouts.Readiness,
		"timeouts.pollInterval":   c.Timeouts.PollInterval,
		"timeouts.terminate":      c.Timeouts.Terminate,
		"timeouts.drain":          c.Timeouts.Drain,
		"timeouts.probe":          c.Timeouts.Probe,
		"display.spinnerInterval": c.Display.SpinnerInterval,
	} {
		if d <= 0 {
			return errors.WithStack(&runerrors.ErrInvalidArgument{
				Name:    name,
				Value:   d.String(),
				Message: "must be positive",
			})
		}
	}
	if c.Display.TableRows <= 0 || c.Display.ChartRows <= 0 || c.Display.BarWidth <= 0 {
		return errors.WithStack(&runerrors.ErrInvalidArgument{
			Name:    "display",
			Value:   fmt.Sprintf("%d/%d/%d", c.Display.TableRows, c.Display.ChartRows, c.Display.BarWidth),
			Message: "row counts and bar width must be positive",
		})
	}
	return nil
}

// Mode returns a short description of what the runner replays.
func (c *RunConfig) Mode() string {
	if c.Har != "" {
		if c.Emulate {
			return "har " + c.Har + " (emulated)"
		}
		return "har " + c.Har
	}
	return "scenario " + c.Scenario.String()
}
