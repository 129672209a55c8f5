package logging

import (
	"io"

	"github.com/sirupsen/logrus"
)

// NullLogger discards everything. Tests hand NullEntry to components that require a logger.
var NullLogger = &logrus.Logger{
	Out:       io.Discard,
	Formatter: new(logrus.TextFormatter),
	Hooks:     make(logrus.LevelHooks),
	Level:     logrus.PanicLevel,
}

// NullEntry is an entry on NullLogger.
var NullEntry = logrus.NewEntry(NullLogger)
