package sidecar

import (
	"github.com/giantswarm/sidecar/internal/core"
	"github.com/giantswarm/sidecar/internal/process"
)

// Sentinel errors for error inspection with errors.Is.
// These are immutable constants safe for use in wrapped error chain comparison.
const (
	// ErrNotReady is returned by Port and Address before the worker has
	// reported its port.
	ErrNotReady = core.ErrNotReady

	// ErrNotStarted is returned by WaitReady before Start.
	ErrNotStarted = core.ErrNotStarted

	// ErrAlreadyStarted is returned by a second call to Start.
	ErrAlreadyStarted = core.ErrAlreadyStarted

	// ErrTerminated is returned by Start after Shutdown.
	ErrTerminated = core.ErrTerminated

	// ErrAlreadyRunning is returned by Start when another supervisor holds
	// the lock file configured with WithLockFile.
	ErrAlreadyRunning = core.ErrAlreadyRunning

	// ErrWorkerExited is returned by WaitReady when the worker's output
	// ended before it reported a port.
	ErrWorkerExited = core.ErrWorkerExited

	// ErrStreamTaken reports that a worker's stdout was requested twice.
	// It indicates a programming error inside the supervisor.
	ErrStreamTaken = process.ErrStreamTaken
)

// SpawnError reports that the worker process could not be launched. Its Err
// field holds the operating system cause, e.g. fs.ErrNotExist or
// fs.ErrPermission, reachable with errors.Is.
type SpawnError = process.SpawnError
