// Package sidecar supervises an auxiliary worker process: it starts the
// worker, learns the TCP port the worker picked by reading a single
// "PORT:<n>" line from its standard output, exposes that port to the rest of
// the application, and kills the worker when the application exits.
//
// # Basic Usage
//
//	import "github.com/giantswarm/sidecar"
//
//	sup := sidecar.New(
//	    sidecar.WithExecutable("/opt/app/worker"),
//	    sidecar.WithWorkingDir("/opt/app"),
//	)
//	if err := sup.Start(); err != nil {
//	    log.Fatal(err) // the application cannot run without its worker
//	}
//	defer sup.Shutdown()
//
//	// Later, from any goroutine:
//	addr, err := sup.Address()
//	if errors.Is(err, sidecar.ErrNotReady) {
//	    // worker has not reported its port yet
//	}
//
// # Readiness
//
// The worker is ready once it writes a line that is exactly "PORT:" followed
// by a decimal port number. Every other line is ignored, as is every
// readiness line after the first. State, Port and Address never block;
// WaitReady is available for callers that prefer to block with a timeout.
//
// # Shutdown
//
// Shutdown kills the worker with SIGKILL and is safe to call at any time and
// any number of times. On Linux the worker is also started with a
// parent-death signal, so it is killed even when the application crashes
// before calling Shutdown.
package sidecar
