package benchrun

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/netbench/benchrun/internal/benchrun/configuration"
	"github.com/netbench/benchrun/internal/benchrun/discovery"
	"github.com/netbench/benchrun/internal/benchrun/eventstream"
	"github.com/netbench/benchrun/internal/benchrun/history"
	"github.com/netbench/benchrun/internal/benchrun/metrics"
	"github.com/netbench/benchrun/internal/benchrun/probe"
	"github.com/netbench/benchrun/internal/benchrun/report"
	"github.com/netbench/benchrun/internal/benchrun/supervisor"
	"github.com/netbench/benchrun/internal/common/runerrors"
	"github.com/netbench/benchrun/internal/common/util"
)

// result is everything a finished run hands to the output stage.
type result struct {
	events    []eventstream.Event
	current   metrics.Aggregate
	previous  *metrics.Aggregate
	blocked   int64
	probeErr  error
	artifacts *Artifacts
}

// Run performs one benchmark run as described by config.
// Every started process is torn down before Run returns, whatever the outcome.
// The run directory is kept when the run fails, when a report file is requested or when config asks for it.
func (a *App) Run(ctx context.Context, config *configuration.RunConfig) (err error) {
	if err := config.Validate(); err != nil {
		return err
	}
	binary, err := a.Build(ctx, config.Build, config.Verbose)
	if err != nil {
		return err
	}

	runId, err := util.NewRunId(a.Random)
	if err != nil {
		return err
	}
	startedAt := a.Clock.Now()
	artifacts, err := NewArtifacts(a.TempRoot, runId)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			a.printArtifacts(artifacts, config.Proxy.UsesProxy())
			return
		}
		if config.ReportFile != "" || config.KeepArtifacts {
			return
		}
		if removeErr := artifacts.Remove(); removeErr != nil {
			a.Log.WithError(removeErr).Warnf("failed to remove %s", artifacts.Dir)
		}
	}()

	sup := supervisor.New(a.Log, a.Clock, config.Timeouts.Terminate)
	defer func() {
		if shutdownErr := sup.ShutdownAll(); shutdownErr != nil {
			a.Log.WithError(shutdownErr).Debug("teardown")
		}
	}()

	res, err := a.execute(ctx, config, binary, artifacts, sup)
	if err != nil {
		return err
	}
	if shutdownErr := sup.ShutdownAll(); shutdownErr != nil {
		a.Log.WithError(shutdownErr).Debug("teardown")
	}

	if config.History != "" {
		if err := a.record(ctx, config, runId, startedAt, res); err != nil {
			return err
		}
	}

	if config.ReportFile != "" {
		return a.writeReport(config, res)
	}
	a.writeHuman(config, res)
	return nil
}

// execute starts the services and the runner, streams the run, and persists its results.
func (a *App) execute(
	ctx context.Context,
	config *configuration.RunConfig,
	binary string,
	artifacts *Artifacts,
	sup *supervisor.Supervisor,
) (*result, error) {
	lines, err := newCommandLines(binary, artifacts, config)
	if err != nil {
		return nil, err
	}
	env := childEnv(config.Verbose)

	mockAddr, err := a.startService(ctx, config, sup, artifacts, "mock", lines.mock(), env, artifacts.MockAddrFile())
	if err != nil {
		return nil, err
	}
	target := mockAddr
	if config.Proxy.UsesProxy() {
		proxyAddr, err := a.startService(ctx, config, sup, artifacts, "proxy", lines.proxy(mockAddr), env, artifacts.ProxyAddrFile())
		if err != nil {
			return nil, err
		}
		target = proxyAddr
	}

	runnerOpts := supervisor.StartOptions{
		Name:       "run",
		Argv:       lines.runner(target),
		Env:        env,
		PipeStdout: true,
	}
	if config.Verbose {
		runnerOpts.LogPath = artifacts.ConsoleLog("run")
	}
	runner, err := sup.Start(runnerOpts)
	if err != nil {
		return nil, err
	}
	a.Log.Info("run: started")

	events, err := a.stream(ctx, config, artifacts, runner)
	if err != nil {
		return nil, err
	}
	if code, _ := runner.ExitCode(); code != 0 {
		return nil, errors.WithStack(&runerrors.ErrRunnerFailed{Code: code, Artifacts: artifacts.Paths(config.Proxy.UsesProxy())})
	}

	res := &result{
		events:    events,
		current:   metrics.FromEvents(events),
		artifacts: artifacts,
	}
	if err := os.WriteFile(artifacts.Summary, []byte(report.StableSummary(events)), 0o644); err != nil {
		return nil, errors.WithStack(err)
	}

	if config.Proxy.UsesProxy() {
		blockedEvents := probe.New(probe.Config{
			Path:        config.Probe.Path,
			VirtualHost: config.Probe.VirtualHost,
			Timeout:     config.Timeouts.Probe,
		})
		res.blocked, res.probeErr = blockedEvents.Fetch(ctx, mockAddr)
		if res.probeErr != nil {
			if !runerrors.IsRecoverable(res.probeErr) {
				return nil, res.probeErr
			}
			a.Log.WithError(res.probeErr).Debug("probe")
		}
		a.Log.Infof("proxy: blocked_events_total=%s", probe.FormatCount(res.blocked, res.probeErr))
	}

	if config.SaveBaseline != "" {
		if err := metrics.WriteBaseline(config.SaveBaseline, res.current); err != nil {
			return nil, err
		}
		a.Log.Infof("baseline: %s", config.SaveBaseline)
	}
	if config.MetricsFile != "" {
		labels := map[string]string{"scenario": scenarioLabel(config), "topology": config.Proxy.String()}
		if err := metrics.WriteTextfile(config.MetricsFile, res.current, labels); err != nil {
			return nil, err
		}
	}
	if config.Compare != "" {
		previous, err := metrics.Load(config.Compare)
		if err != nil {
			return nil, err
		}
		res.previous = &previous
	}
	return res, nil
}

// startService starts a long running child and waits until it has published its address.
func (a *App) startService(
	ctx context.Context,
	config *configuration.RunConfig,
	sup *supervisor.Supervisor,
	artifacts *Artifacts,
	name string,
	argv []string,
	env []string,
	addrFile string,
) (string, error) {
	opts := supervisor.StartOptions{Name: name, Argv: argv, Env: env}
	if config.Verbose {
		opts.LogPath = artifacts.ConsoleLog(name)
	}
	logger := a.Log.WithField("process", name)
	logger.Infof("%s: starting", name)
	p, err := sup.Start(opts)
	if err != nil {
		return "", err
	}
	logger.Infof("%s: waiting for address file", name)
	addr, err := discovery.AwaitWhile(ctx, addrFile, config.Timeouts.Readiness, config.Timeouts.PollInterval, p.Done())
	if errors.Is(err, discovery.ErrWriterExited) {
		return "", sup.EnsureAlive(p)
	}
	if err != nil {
		return "", err
	}
	if err := sup.EnsureAlive(p); err != nil {
		return "", err
	}
	logger.Infof("%s: %s", name, addr)
	return addr, nil
}

// stream runs the event pipeline over the runner's stdout, persisting every line to the jsonl artifact.
func (a *App) stream(
	ctx context.Context,
	config *configuration.RunConfig,
	artifacts *Artifacts,
	runner *supervisor.Process,
) ([]eventstream.Event, error) {
	f, err := os.Create(artifacts.Jsonl)
	if err != nil {
		_ = runner.Stdout().Close()
		return nil, errors.WithStack(err)
	}
	defer util.CloseResource("jsonl", f)

	pipeline := eventstream.New(eventstream.Config{
		Persist:         f,
		Progress:        a.Err,
		DisableSpinner:  config.Display.NoSpinner,
		SpinnerInterval: config.Display.SpinnerInterval,
		DrainTimeout:    config.Timeouts.Drain,
		Clock:           a.Clock,
		Log:             a.Log,
	})
	return pipeline.Run(ctx, runner.Stdout(), runner.Done())
}

func (a *App) record(ctx context.Context, config *configuration.RunConfig, runId string, startedAt time.Time, res *result) error {
	store, err := history.Open(ctx, config.History, a.Log)
	if err != nil {
		return err
	}
	defer util.CloseResource("history", store)

	entry := history.Entry{
		RunId:     runId,
		StartedAt: startedAt,
		Scenario:  scenarioLabel(config),
		Topology:  config.Proxy.String(),
		Mode:      config.Mode(),
		Aggregate: res.current,
	}
	if config.Proxy.UsesProxy() && res.probeErr == nil {
		blocked := res.blocked
		entry.BlockedEvents = &blocked
	}
	return store.Record(ctx, entry)
}

// writeReport copies the event log and the summary next to the report file and prints the machine readable report.
func (a *App) writeReport(config *configuration.RunConfig, res *result) error {
	reportPath := config.ReportFile
	summaryPath := reportPath + ".summary.txt"
	if err := os.MkdirAll(filepath.Dir(reportPath), 0o755); err != nil {
		return errors.WithStack(err)
	}
	if err := copyFile(res.artifacts.Jsonl, reportPath); err != nil {
		return err
	}
	if err := copyFile(res.artifacts.Summary, summaryPath); err != nil {
		return err
	}

	fmt.Fprintln(a.Out, reportPath)
	fmt.Fprintln(a.Out, summaryPath)
	fmt.Fprintln(a.Out)
	fmt.Fprintln(a.Out, "diff friendly summary")
	fmt.Fprint(a.Out, report.StableSummary(res.events))
	if res.previous != nil {
		report.Comparison(a.Out, res.current, *res.previous)
	}
	fmt.Fprintln(a.Out)
	fmt.Fprintln(a.Out, "logs")
	for _, p := range res.artifacts.Logs(config.Proxy.UsesProxy()) {
		fmt.Fprintln(a.Out, p)
	}
	if config.Proxy.UsesProxy() {
		fmt.Fprintln(a.Out)
		fmt.Fprintf(a.Out, "blocked_events_total=%s\n", probe.FormatCount(res.blocked, res.probeErr))
	}
	return nil
}

func (a *App) writeHuman(config *configuration.RunConfig, res *result) {
	fmt.Fprintln(a.Out)
	fmt.Fprintln(a.Out, "netbench finished")
	if config.Har != "" {
		emulate := "no"
		if config.Emulate {
			emulate = "yes"
		}
		fmt.Fprintf(a.Out, "mode=har har=%s emulate=%s proxy=%s\n", config.Har, emulate, config.Proxy)
	} else {
		fmt.Fprintf(a.Out, "mode=scenario scenario=%s proxied=%s\n", config.Scenario, config.Proxy)
	}
	if config.Proxy.UsesProxy() {
		fmt.Fprintf(a.Out, "blocked_events_total=%s\n", probe.FormatCount(res.blocked, res.probeErr))
	}
	fmt.Fprintln(a.Out)

	report.Human(a.Out, res.events, report.HumanOptions{
		TableRows: config.Display.TableRows,
		ChartRows: config.Display.ChartRows,
		BarWidth:  config.Display.BarWidth,
	})
	if res.previous != nil {
		report.Comparison(a.Out, res.current, *res.previous)
	}
	if config.KeepArtifacts {
		fmt.Fprintln(a.Out, "artifacts")
		for _, p := range res.artifacts.Paths(config.Proxy.UsesProxy()) {
			fmt.Fprintln(a.Out, p)
		}
	}
}

// printArtifacts lists the files kept after a failed run on the diagnostic stream.
func (a *App) printArtifacts(artifacts *Artifacts, withProxy bool) {
	fmt.Fprintln(a.Err, "run failed. Logs and artifacts:")
	for _, p := range artifacts.Paths(withProxy) {
		fmt.Fprintf(a.Err, "- %s\n", p)
	}
}

func scenarioLabel(config *configuration.RunConfig) string {
	if config.Har != "" {
		return "har"
	}
	return config.Scenario.String()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.WithStack(err)
	}
	defer util.CloseResource(src, in)
	out, err := os.Create(dst)
	if err != nil {
		return errors.WithStack(err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return errors.WithStack(err)
	}
	return errors.WithStack(out.Close())
}
