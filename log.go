package sidecar

import (
	"log/slog"

	"github.com/giantswarm/sidecar/internal/core"
)

// SetLogger replaces the package-level logger used by sidecar. Supervisors
// created afterwards log through l with their own "supervisor" and "worker"
// attributes added; existing supervisors keep the logger they were built with.
//
// If l is nil, the logger resets to slog.Default() with a "component"
// attribute. Call SetLogger(nil) after slog.SetDefault() to pick up changes.
//
// SetLogger is safe to call concurrently with other sidecar operations.
//
// Example:
//
//	sidecar.SetLogger(myLogger.With("component", "sidecar"))
func SetLogger(l *slog.Logger) {
	core.SetLogger(l)
}
