package logging

import (
	"bytes"
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/maps"
)

// CommandLineFormatter renders an entry as its bare message followed by its fields in key order.
// A stacktrace field, if present, is written on the lines following the message.
type CommandLineFormatter struct {
	// DisableFields drops all entry fields from the output.
	DisableFields bool
}

func (f *CommandLineFormatter) Format(entry *log.Entry) ([]byte, error) {
	b := &bytes.Buffer{}
	b.WriteString(entry.Message)
	if !f.DisableFields {
		keys := maps.Keys(entry.Data)
		sort.Strings(keys)
		for _, k := range keys {
			if k == Stacktrace {
				continue
			}
			fmt.Fprintf(b, " %s=%v", k, entry.Data[k])
		}
	}
	b.WriteByte('\n')
	if stack, ok := entry.Data[Stacktrace]; ok && !f.DisableFields {
		fmt.Fprintf(b, "%+v\n", stack)
	}
	return b.Bytes(), nil
}
