package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/netbench/benchrun/internal/benchrun"
	"github.com/netbench/benchrun/internal/benchrun/configuration"
	"github.com/netbench/benchrun/internal/common/logging"
)

// RootCmd is the root Cobra command that gets called from the main func.
// All other sub-commands should be registered here.
func RootCmd() *cobra.Command {
	return rootCmd(benchrun.New(), configuration.NewViper())
}

func rootCmd(app *benchrun.App, v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "benchrun",
		Short: "benchrun builds netbench, runs a benchmark against its mock and proxy, and reports the results.",
		Long: `benchrun builds netbench, runs a benchmark against its mock and proxy, and reports the results.

Persistent config can be saved in a config file so it doesn't have to be specified every command.

Example structure:
scenario: latency-jitter
proxy: global
timeouts:
  readiness: 30s
display:
  noSpinner: true

The location of this file can be passed in using the --config argument.
Every setting can also be given as an environment variable, e.g. BENCHRUN_TIMEOUTS_READINESS=30s.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logging.ConfigureCommandLineLoggingTo(app.Err, v.GetBool("verbose"))
			return nil
		},
	}

	cmd.PersistentFlags().String("config", "", "Path to a yaml config file.")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Log at debug level and capture the console output of every child.")
	bindFlags(v, cmd.PersistentFlags(), map[string]string{"verbose": "verbose"})

	cmd.AddCommand(
		runCmd(app, v),
		reportCmd(app),
		historyCmd(app),
		versionCmd(app),
	)

	return cmd
}

func versionCmd(app *benchrun.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Version()
		},
	}
	return cmd
}
