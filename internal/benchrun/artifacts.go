package benchrun

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

const (
	MockAddrFile  = "netbench.mock.addr.txt"
	ProxyAddrFile = "proxy.addr.txt"
)

// Artifacts are the files of one run, all below a single run directory that doubles as the data
// directory handed to the benchmarked binary.
type Artifacts struct {
	Dir      string
	Jsonl    string
	Summary  string
	LogsDir  string
	MockLog  string
	ProxyLog string
	RunLog   string
}

// NewArtifacts creates the run directory benchrun-<runId> below root.
func NewArtifacts(root, runId string) (*Artifacts, error) {
	dir := filepath.Join(root, "benchrun-"+runId)
	logs := filepath.Join(dir, "logs")
	if err := os.MkdirAll(logs, 0o755); err != nil {
		return nil, errors.WithStack(err)
	}
	return &Artifacts{
		Dir:      dir,
		Jsonl:    filepath.Join(dir, "run.jsonl"),
		Summary:  filepath.Join(dir, "run.summary.txt"),
		LogsDir:  logs,
		MockLog:  filepath.Join(logs, "mock.log"),
		ProxyLog: filepath.Join(logs, "proxy.log"),
		RunLog:   filepath.Join(logs, "run.log"),
	}, nil
}

func (a *Artifacts) MockAddrFile() string {
	return filepath.Join(a.Dir, MockAddrFile)
}

func (a *Artifacts) ProxyAddrFile() string {
	return filepath.Join(a.Dir, ProxyAddrFile)
}

// ConsoleLog is where the stdout and stderr of a child are captured in verbose mode.
func (a *Artifacts) ConsoleLog(name string) string {
	return filepath.Join(a.LogsDir, name+".console.log")
}

// Logs returns the log files written by the benchmarked binary.
func (a *Artifacts) Logs(withProxy bool) []string {
	if withProxy {
		return []string{a.MockLog, a.ProxyLog, a.RunLog}
	}
	return []string{a.MockLog, a.RunLog}
}

// Paths returns the run directory followed by every file worth inspecting after a failure.
func (a *Artifacts) Paths(withProxy bool) []string {
	return append([]string{a.Dir, a.Jsonl}, a.Logs(withProxy)...)
}

func (a *Artifacts) Remove() error {
	return errors.WithStack(os.RemoveAll(a.Dir))
}
