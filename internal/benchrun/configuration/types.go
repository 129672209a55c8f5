package configuration

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/netbench/benchrun/internal/common/runerrors"
)

// Topology describes how the runner reaches the mock upstream.
type Topology string

const (
	// TopologyDirect connects the runner straight to the mock.
	TopologyDirect Topology = "direct"
	// TopologyGlobal routes through the proxy with a product list applied to every request.
	TopologyGlobal Topology = "global"
	// TopologyScoped routes through the proxy with products scoped per package ecosystem.
	TopologyScoped Topology = "scoped"
)

var Topologies = []Topology{TopologyDirect, TopologyGlobal, TopologyScoped}

func (t Topology) String() string {
	return string(t)
}

// UsesProxy returns true if a proxy process sits between the runner and the mock.
func (t Topology) UsesProxy() bool {
	return t == TopologyGlobal || t == TopologyScoped
}

func (t *Topology) UnmarshalText(text []byte) error {
	s := Topology(strings.ToLower(strings.TrimSpace(string(text))))
	if s == "" {
		s = TopologyDirect
	}
	for _, known := range Topologies {
		if s == known {
			*t = s
			return nil
		}
	}
	return errors.WithStack(&runerrors.ErrInvalidArgument{
		Name:    "proxy",
		Value:   string(text),
		Message: "must be one of direct, global, scoped",
	})
}

// Scenario is a named behaviour profile shared by the mock and the runner.
type Scenario string

const (
	ScenarioBaseline      Scenario = "baseline"
	ScenarioLatencyJitter Scenario = "latency-jitter"
	ScenarioFlakyUpstream Scenario = "flaky-upstream"
)

var Scenarios = []Scenario{ScenarioBaseline, ScenarioLatencyJitter, ScenarioFlakyUpstream}

func (s Scenario) String() string {
	return string(s)
}

// UnmarshalText accepts the empty string, which means no scenario was chosen explicitly.
func (s *Scenario) UnmarshalText(text []byte) error {
	v := Scenario(strings.ToLower(strings.TrimSpace(string(text))))
	if v == "" {
		*s = ""
		return nil
	}
	for _, known := range Scenarios {
		if v == known {
			*s = v
			return nil
		}
	}
	return errors.WithStack(&runerrors.ErrInvalidArgument{
		Name:    "scenario",
		Value:   string(text),
		Message: "must be one of baseline, latency-jitter, flaky-upstream",
	})
}
