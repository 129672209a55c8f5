// Package benchrun sequences one benchmark run: build, start the services, stream the runner, report, and tear down.
package benchrun

import (
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	log "github.com/sirupsen/logrus"
	"k8s.io/utils/clock"

	"github.com/netbench/benchrun/internal/benchrun/build"
)

type App struct {
	// Out is used for machine readable results. Defaults to standard out,
	// but can be overridden in tests to make assertions on the application's output.
	Out io.Writer
	// Err receives progress and diagnostics. Defaults to standard error.
	Err io.Writer
	// Source of randomness for run ids. Tests can use a fixed source for deterministic directory names.
	Random io.Reader
	// TempRoot is where run directories are created. Defaults to os.TempDir().
	TempRoot string
	Clock    clock.WithTicker
	Log      *log.Entry
}

// New instantiates an App writing to the standard streams, using the real clock
// and a cryptographically secure random source.
func New() *App {
	return &App{
		Out:      os.Stdout,
		Err:      os.Stderr,
		Random:   rand.Reader,
		TempRoot: os.TempDir(),
		Clock:    clock.RealClock{},
		Log:      log.NewEntry(log.StandardLogger()),
	}
}

// Version prints build information (e.g., current git commit) to the app output.
func (a *App) Version() error {
	w := tabwriter.NewWriter(a.Out, 1, 1, 1, ' ', 0)
	defer w.Flush()
	fmt.Fprintf(w, "Version:\t%s\n", build.ReleaseVersion)
	fmt.Fprintf(w, "Commit:\t%s\n", build.GitCommit)
	fmt.Fprintf(w, "Go version:\t%s\n", build.GoVersion)
	fmt.Fprintf(w, "Built:\t%s\n", build.BuildTime)
	return nil
}
