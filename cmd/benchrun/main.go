package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/netbench/benchrun/cmd/benchrun/cmd"
	"github.com/netbench/benchrun/internal/common/logging"
	"github.com/netbench/benchrun/internal/common/runerrors"
)

// Config is handled by cmd/root.go
func main() {
	logging.ConfigureCommandLineLogging(false)
	err := cmd.RootCmd().Execute()
	if err != nil {
		logging.WithStacktrace(log.NewEntry(log.StandardLogger()), err).Debug("command failed")
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(runerrors.ExitCode(err))
	}
}
