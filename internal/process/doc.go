// Package process owns a single child process and its output pipes.
//
// Spawn starts the child with stdout and stderr captured through OS pipes.
// The stdout stream is handed to exactly one consumer via TakeStdout; stderr
// is drained into the logger so the child never blocks on a full pipe.
// Terminate kills the child and may be called any number of times.
//
// WaitReady is a small polling helper for callers that need to block until
// some readiness condition holds.
package process
