package sidecar

import (
	"context"
	"time"
)

// Supervisor owns one worker process for the lifetime of the application.
//
// Callers must follow this lifecycle ordering:
//
//	New → Start → (State/Port/Address/WaitReady, any number of times) → Shutdown
//
// Shutdown may be called at any point, including before Start. A supervisor
// is single-use: after Shutdown, Start returns ErrTerminated.
//
// All methods are safe for concurrent use.
type Supervisor interface {
	// Start spawns the worker and begins watching its output. It returns
	// once the process is running, without waiting for readiness.
	//
	// A worker that cannot be spawned is reported as an error wrapping
	// *SpawnError. Returns ErrAlreadyStarted on a second call,
	// ErrTerminated after Shutdown, and ErrAlreadyRunning when the
	// configured lock file is held by another supervisor.
	Start() error

	// State returns Unknown until the worker reports its port, and
	// Ready(port) from then on. It never blocks.
	State() State

	// Port returns the worker's port, or ErrNotReady.
	Port() (uint16, error)

	// Address returns "127.0.0.1:<port>", or ErrNotReady.
	Address() (string, error)

	// WaitReady blocks until the worker reports its port. It returns
	// ErrWorkerExited when the worker's output ends first, and the context
	// error on timeout or cancellation. Returns ErrNotStarted before Start.
	WaitReady(ctx context.Context, timeout time.Duration) (uint16, error)

	// Phase returns the lifecycle phase.
	Phase() Phase

	// Done is closed when the worker can no longer report readiness.
	Done() <-chan struct{}

	// Pid returns the worker's process ID, or 0 when there is none.
	Pid() int

	// ID returns a unique identifier for this supervisor.
	ID() string

	// Shutdown kills the worker. It never blocks on the worker, never
	// fails, and is idempotent.
	Shutdown()
}
