package core

import (
	"errors"
	"fmt"
	"time"
)

// Phase is a point in the Supervisor lifecycle.
type Phase int

const (
	// PhaseIdle is the state of a new Supervisor before Start.
	PhaseIdle Phase = iota
	// PhaseStarting means the worker was spawned and no readiness line has
	// been seen yet. A worker that never reports a port stays here.
	PhaseStarting
	// PhaseReady means the worker reported its port.
	PhaseReady
	// PhaseStartupFailed means the worker could not be spawned.
	PhaseStartupFailed
	// PhaseTerminated means Shutdown was called. It is final.
	PhaseTerminated
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhaseStarting:
		return "Starting"
	case PhaseReady:
		return "Ready"
	case PhaseStartupFailed:
		return "StartupFailed"
	case PhaseTerminated:
		return "Terminated"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// SupervisorConfig holds configuration for a Supervisor. It is immutable
// after NewSupervisor.
type SupervisorConfig struct {
	// Name identifies the worker in logs and errors.
	Name string

	// Executable, Args, WorkingDir and Env describe the worker launch. They
	// are validated by the operating system at Start, not here: a bad path
	// is a spawn failure.
	Executable string
	Args       []string
	WorkingDir string
	Env        []string

	// LockFile, when set, is locked exclusively for the lifetime of the
	// worker so that a second supervisor using the same file fails to start
	// with ErrAlreadyRunning.
	LockFile string

	// ReadyPollInterval is the poll interval used by WaitReady.
	ReadyPollInterval time.Duration
}

func (c SupervisorConfig) validate() error {
	if c.Name == "" {
		return errors.New("name must not be empty")
	}
	if c.ReadyPollInterval <= 0 {
		return fmt.Errorf("ready poll interval must be positive, got %v", c.ReadyPollInterval)
	}
	return nil
}
