package benchrun

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/netbench/benchrun/internal/benchrun/history"
	"github.com/netbench/benchrun/internal/benchrun/probe"
	"github.com/netbench/benchrun/internal/benchrun/report"
	"github.com/netbench/benchrun/internal/common/runerrors"
	"github.com/netbench/benchrun/internal/common/util"
)

const (
	FormatMarkdown = "markdown"
	FormatYaml     = "yaml"
)

type ReportOptions struct {
	ArtifactsDir string
	BaselinesDir string
	// Out is the file the report is written to; empty or "-" writes to the app output.
	Out    string
	Commit string
	Format string
}

// Report renders the saved runs below ArtifactsDir against the baselines in BaselinesDir.
func (a *App) Report(opts ReportOptions) error {
	var formatter report.Formatter
	switch opts.Format {
	case "", FormatMarkdown:
		formatter = report.MarkdownFormatter
	case FormatYaml:
		formatter = report.YamlFormatter
	default:
		return errors.WithStack(&runerrors.ErrInvalidArgument{
			Name:    "format",
			Value:   opts.Format,
			Message: fmt.Sprintf("must be %s or %s", FormatMarkdown, FormatYaml),
		})
	}

	r, err := report.Collect(opts.ArtifactsDir, opts.BaselinesDir, opts.Commit)
	if err != nil {
		return err
	}
	for _, label := range r.Missing {
		a.Log.Warnf("no baseline for %s", label)
	}
	out, err := r.Generate(formatter)
	if err != nil {
		return err
	}

	if opts.Out == "" || opts.Out == "-" {
		_, err := a.Out.Write(out)
		return errors.WithStack(err)
	}
	if err := os.MkdirAll(filepath.Dir(opts.Out), 0o755); err != nil {
		return errors.WithStack(err)
	}
	if err := os.WriteFile(opts.Out, out, 0o644); err != nil {
		return errors.WithStack(err)
	}
	a.Log.Infof("wrote %s", opts.Out)
	return nil
}

type HistoryOptions struct {
	Db       string
	Scenario string
	Topology string
	Limit    int
}

// History prints the most recent runs, newest first, each compared with the run before it.
func (a *App) History(ctx context.Context, opts HistoryOptions) error {
	if _, err := os.Stat(opts.Db); err != nil {
		return errors.WithStack(&runerrors.ErrInvalidArgument{
			Name:    "db",
			Value:   opts.Db,
			Message: "history database does not exist",
		})
	}
	store, err := history.Open(ctx, opts.Db, a.Log)
	if err != nil {
		return err
	}
	defer util.CloseResource("history", store)

	limit := opts.Limit
	if limit > 0 {
		// One more than shown so the oldest row still has a predecessor.
		limit++
	}
	entries, err := store.Recent(ctx, opts.Scenario, opts.Topology, limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(a.Out, "no runs recorded")
		return nil
	}
	fmt.Fprint(a.Out, HistoryTable(entries, opts.Limit))
	return nil
}

// HistoryTable renders up to limit entries (all when limit <= 0). Entries must be ordered newest first;
// each row is compared with the next entry of the same scenario and topology.
func HistoryTable(entries []history.Entry, limit int) string {
	shown := len(entries)
	if limit > 0 && limit < shown {
		shown = limit
	}
	t := util.NewTabbedStringBuilder(0, 0, 2, ' ', 0)
	t.Row("started", "run", "scenario", "topology", "avg_main_rps", "ok_rate", "total", "blocked")
	for i, e := range entries[:shown] {
		rps := fmt.Sprintf("%.2f", e.Aggregate.AvgMainRps)
		rate := fmt.Sprintf("%.2f%%", e.Aggregate.OkRate*100)
		if prev, ok := previousRun(entries[i+1:], e); ok {
			rps = report.FormatDelta(e.Aggregate.AvgMainRps, prev.Aggregate.AvgMainRps, false)
			rate = report.FormatDelta(e.Aggregate.OkRate, prev.Aggregate.OkRate, true)
		}
		blocked := "-"
		if e.BlockedEvents != nil {
			blocked = probe.FormatCount(*e.BlockedEvents, nil)
		}
		t.Row(e.StartedAt.UTC().Format(time.RFC3339), e.RunId, e.Scenario, e.Topology,
			rps, rate, fmt.Sprintf("%.0f", e.Aggregate.Total), blocked)
	}
	return t.String()
}

func previousRun(older []history.Entry, e history.Entry) (history.Entry, bool) {
	for _, o := range older {
		if o.Scenario == e.Scenario && o.Topology == e.Topology {
			return o, true
		}
	}
	return history.Entry{}, false
}
