package sidecar

import (
	"github.com/giantswarm/sidecar/internal/core"
	"github.com/giantswarm/sidecar/internal/readiness"
)

// State is the worker's readiness: Unknown, or Ready with a port.
// Use State.Port or State.IsReady to inspect it.
type State = readiness.State

// Unknown is the State before the worker reports its port.
var Unknown = readiness.Unknown

// Ready returns the State of a worker listening on port. It is mainly useful
// for comparisons.
func Ready(port uint16) State {
	return readiness.Ready(port)
}

// ReadinessPrefix is the token that starts the worker's readiness line.
const ReadinessPrefix = readiness.Prefix

// ParseReadinessLine reports whether line is a readiness line and, if so,
// which port it announces.
func ParseReadinessLine(line string) (port uint16, ok bool) {
	return readiness.Parse(line)
}

// Phase is a point in the Supervisor lifecycle. It is a type alias so that
// the String method of the underlying type is part of the public API.
type Phase = core.Phase

const (
	// PhaseIdle is a new supervisor before Start.
	PhaseIdle = core.PhaseIdle
	// PhaseStarting means the worker runs but has not reported its port.
	PhaseStarting = core.PhaseStarting
	// PhaseReady means the worker reported its port.
	PhaseReady = core.PhaseReady
	// PhaseStartupFailed means the worker could not be spawned.
	PhaseStartupFailed = core.PhaseStartupFailed
	// PhaseTerminated means Shutdown was called.
	PhaseTerminated = core.PhaseTerminated
)
