// Package core implements the sidecar Supervisor: it spawns one worker
// process, scans its stdout for the readiness line on a background goroutine,
// publishes the discovered port into a write-once cell, and kills the worker
// on Shutdown.
//
// Lifecycle:
//
//	Idle → Starting → (Ready | StartupFailed) → Terminated
//
// Ready is not stored; it is Starting plus a published port.
package core
