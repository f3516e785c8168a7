package process

import (
	"fmt"

	"github.com/giantswarm/sidecar/internal/sentinel"
)

// ErrStreamTaken is returned by TakeStdout when the stdout stream has already
// been handed to a consumer.
const ErrStreamTaken = sentinel.Error("stdout stream already taken")

// ErrEmptyPath is the cause carried by a SpawnError when no executable path
// was given.
const ErrEmptyPath = sentinel.Error("executable path must not be empty")

// ErrNotDirectory is the cause carried by a SpawnError when the working
// directory exists but is not a directory.
const ErrNotDirectory = sentinel.Error("working directory is not a directory")

// SpawnError reports that the worker could not be launched. Err is the
// underlying cause, typically an *fs.PathError or exec.ErrNotFound from the
// operating system, and is reachable through errors.Is and errors.As.
type SpawnError struct {
	Path string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn %s: %v", e.Path, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}
