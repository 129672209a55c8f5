package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/netbench/benchrun/internal/benchrun"
	"github.com/netbench/benchrun/internal/benchrun/configuration"
	"github.com/netbench/benchrun/internal/common/app"
)

// runFlags maps each flag of the run command to its configuration key.
var runFlags = map[string]string{
	"scenario":          "scenario",
	"har":               "har",
	"emulate":           "emulate",
	"proxy":             "proxy",
	"report-file":       "reportFile",
	"compare":           "compare",
	"save-baseline":     "saveBaseline",
	"metrics-file":      "metricsFile",
	"history":           "history",
	"keep-artifacts":    "keepArtifacts",
	"build-command":     "build.command",
	"project-dir":       "build.dir",
	"binary":            "build.binary",
	"extra-runner-args": "build.extraRunnerArgs",
	"no-spinner":        "display.noSpinner",
}

// Build netbench, run one benchmark and print the results.
func runCmd(a *benchrun.App, v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one benchmark against the netbench mock, optionally through the proxy.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configFile, err := cmd.Flags().GetString("config")
			if err != nil {
				return err
			}
			config, err := configuration.Load(v, configFile)
			if err != nil {
				return err
			}

			// Cancelled on SIGINT/SIGTERM so that every child is torn down on ctrl-C.
			ctx, cancel := app.CreateContextWithShutdown(cmd.Context())
			defer cancel()
			return a.Run(ctx, config)
		},
	}

	cmd.Flags().String("scenario", "", "Scenario to run: baseline, latency-jitter or flaky-upstream. Defaults to baseline unless --har is given.")
	cmd.Flags().String("har", "", "Replay requests from this HAR file instead of a scenario.")
	cmd.Flags().Bool("emulate", false, "Replay the HAR timings. Requires --har.")
	cmd.Flags().String("proxy", "", "Topology: direct, global or scoped.")
	cmd.Flags().String("report-file", "", "Copy the event log here and print a machine readable report.")
	cmd.Flags().String("compare", "", "Baseline to compare against, either a kv file or an event log.")
	cmd.Flags().String("save-baseline", "", "Save the aggregate of this run as a kv baseline.")
	cmd.Flags().String("metrics-file", "", "Write the aggregate in the Prometheus text format.")
	cmd.Flags().String("history", "", "Record this run in a sqlite database.")
	cmd.Flags().Bool("keep-artifacts", false, "Keep the run directory after a successful run.")
	cmd.Flags().String("build-command", "", "Command building netbench (default \"cargo build --release\"); an empty value skips the build.")
	cmd.Flags().String("project-dir", "", "Directory the build runs in and target/release is resolved against (default \".\").")
	cmd.Flags().String("binary", "", "Use this netbench binary instead of resolving one.")
	cmd.Flags().String("extra-runner-args", "", "Arguments appended to the runner command line.")
	cmd.Flags().Bool("no-spinner", false, "Only print progress lines, without the spinner.")
	bindFlags(v, cmd.Flags(), runFlags)

	return cmd
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) {
	for name, key := range keys {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}
}
