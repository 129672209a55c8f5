package cmd

import (
	"github.com/spf13/cobra"

	"github.com/netbench/benchrun/internal/benchrun"
)

// Print recent runs recorded with run --history.
func historyCmd(app *benchrun.App) *cobra.Command {
	opts := benchrun.HistoryOptions{}
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print recent runs, each compared with the previous run of the same scenario and topology.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.History(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.Db, "db", "", "History database written by run --history.")
	cmd.Flags().StringVar(&opts.Scenario, "scenario", "", "Only show runs of this scenario.")
	cmd.Flags().StringVar(&opts.Topology, "proxy", "", "Only show runs of this topology.")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "Number of runs shown; 0 shows all.")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}
