package core

import (
	"fmt"
	"log/slog"

	"github.com/giantswarm/sidecar/internal/fileutil"
	"github.com/giantswarm/sidecar/internal/sentinel"
	"github.com/gofrs/flock"
)

// ErrAlreadyRunning is returned by Start when another supervisor, in this or
// another process, holds the configured lock file.
const ErrAlreadyRunning = sentinel.Error("another supervisor holds the instance lock")

// acquireInstanceLock takes an exclusive, non-blocking lock on path. An
// empty path disables locking and returns a nil lock.
func acquireInstanceLock(path string) (*flock.Flock, error) {
	if path == "" {
		return nil, nil
	}
	if err := fileutil.EnsureDirForFile(path); err != nil {
		return nil, err
	}

	fl := flock.New(path)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring instance lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("acquiring instance lock %s: %w", path, ErrAlreadyRunning)
	}
	return fl, nil
}

// releaseInstanceLock unlocks and closes fl. The file stays on disk: removing
// it could invalidate a lock another process acquires concurrently.
func releaseInstanceLock(logger *slog.Logger, fl *flock.Flock) {
	if fl == nil {
		return
	}
	if err := fl.Close(); err != nil {
		logger.Debug("failed to release instance lock", "path", fl.Path(), "error", err)
	}
}
