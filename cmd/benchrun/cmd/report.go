package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/netbench/benchrun/internal/benchrun"
)

// Build a markdown or yaml report over saved runs and their baselines.
func reportCmd(app *benchrun.App) *cobra.Command {
	opts := benchrun.ReportOptions{}
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Compare every saved *.kv.txt run below an artifacts directory with its baseline.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Report(opts)
		},
	}

	cmd.Flags().StringVar(&opts.ArtifactsDir, "artifacts-dir", "artifacts", "Directory searched recursively for saved runs.")
	cmd.Flags().StringVar(&opts.BaselinesDir, "baselines-dir", "baselines", "Directory holding the baselines, named like the runs.")
	cmd.Flags().StringVar(&opts.Out, "out", "report.md", "Report file; - writes to standard out.")
	cmd.Flags().StringVar(&opts.Commit, "sha", defaultCommit(), "Commit the report is for.")
	cmd.Flags().StringVar(&opts.Format, "format", benchrun.FormatMarkdown, "Output format: markdown or yaml.")

	return cmd
}

func defaultCommit() string {
	sha := os.Getenv("GITHUB_SHA")
	if len(sha) > 12 {
		return sha[:12]
	}
	return sha
}
