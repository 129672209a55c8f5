// Package build exposes version information injected at link time, e.g.
// go build -ldflags "-X github.com/netbench/benchrun/internal/benchrun/build.ReleaseVersion=v1.2.0".
package build

import "runtime"

var (
	ReleaseVersion = "UNKNOWN"
	GitCommit      = "UNKNOWN"
	BuildTime      = "UNKNOWN"
	GoVersion      = runtime.Version()
)
