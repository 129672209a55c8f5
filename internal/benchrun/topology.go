package benchrun

import (
	"os"

	"github.com/google/shlex"
	"github.com/pkg/errors"

	"github.com/netbench/benchrun/internal/benchrun/configuration"
	"github.com/netbench/benchrun/internal/common/runerrors"
)

// commandLines builds the argv of each child from the run configuration.
type commandLines struct {
	binary    string
	artifacts *Artifacts
	config    *configuration.RunConfig
	extra     []string
}

func newCommandLines(binary string, artifacts *Artifacts, config *configuration.RunConfig) (*commandLines, error) {
	extra, err := shlex.Split(config.Build.ExtraRunnerArgs)
	if err != nil {
		return nil, errors.WithStack(&runerrors.ErrInvalidArgument{
			Name:    "build.extraRunnerArgs",
			Value:   config.Build.ExtraRunnerArgs,
			Message: err.Error(),
		})
	}
	return &commandLines{binary: binary, artifacts: artifacts, config: config, extra: extra}, nil
}

func (c *commandLines) mock() []string {
	argv := []string{c.binary, "mock", "--data", c.artifacts.Dir, "--output", c.artifacts.MockLog}
	if c.config.Har != "" {
		return append(argv, "--replay", c.config.Har)
	}
	return append(argv, "--scenario", c.config.Scenario.String())
}

func (c *commandLines) proxy(mockAddr string) []string {
	return []string{c.binary, "proxy", "--data", c.artifacts.Dir, "--output", c.artifacts.ProxyLog, mockAddr}
}

func (c *commandLines) runner(target string) []string {
	argv := []string{c.binary, "run", "--json", "--data", c.artifacts.Dir, "--output", c.artifacts.RunLog}
	if c.config.Har != "" {
		argv = append(argv, "--replay", c.config.Har)
		if c.config.Emulate {
			argv = append(argv, "--emulate")
		}
	} else {
		argv = append(argv, "--scenario", c.config.Scenario.String())
	}
	if c.config.Proxy.UsesProxy() {
		argv = append(argv, "--proxy", "--products", c.config.Products.For(c.config.Proxy))
	}
	argv = append(argv, c.extra...)
	return append(argv, target)
}

// childEnv sets the log level of the benchmarked binary unless the caller already chose one.
func childEnv(verbose bool) []string {
	if _, ok := os.LookupEnv("RUST_LOG"); ok {
		return nil
	}
	if verbose {
		return []string{"RUST_LOG=trace"}
	}
	return []string{"RUST_LOG=info"}
}
