package logging

import (
	"io"
	"os"

	log "github.com/sirupsen/logrus"
)

// ConfigureCommandLineLogging sets up the standard logger for interactive tools.
// Everything is written to stderr so stdout stays reserved for machine-readable output.
func ConfigureCommandLineLogging(verbose bool) {
	ConfigureCommandLineLoggingTo(os.Stderr, verbose)
}

// ConfigureCommandLineLoggingTo is ConfigureCommandLineLogging with an explicit destination.
func ConfigureCommandLineLoggingTo(out io.Writer, verbose bool) {
	log.SetFormatter(&CommandLineFormatter{})
	log.SetOutput(out)
	if verbose {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}

// NewEntry returns an entry on the standard logger tagged with the given component.
func NewEntry(component string) *log.Entry {
	return log.WithField("component", component)
}
