package sidecar

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/giantswarm/sidecar/internal/core"
)

// requirePositive panics if v <= 0 with a descriptive message.
func requirePositive[T int | time.Duration](name string, v T) {
	if v <= 0 {
		panic(fmt.Sprintf("sidecar: %s must be greater than 0, got %v", name, v))
	}
}

// requireNonEmpty panics if s is empty with a descriptive message.
func requireNonEmpty(name, s string) {
	if s == "" {
		panic(fmt.Sprintf("sidecar: %s must not be empty", name))
	}
}

// Option configures a Supervisor during construction via New.
// Each With* function returns an Option that sets a specific field.
//
// Several With* functions panic on invalid input (empty paths, non-positive
// durations, malformed environment entries). Option values are normally
// constants or come from already-validated configuration, so an invalid
// value is a programmer error, in the same way as [regexp.MustCompile].
type Option func(*supervisorConfig)

// defaultSupervisorConfig returns the configuration New starts from before
// applying options. No executable is set: starting a supervisor without
// WithExecutable or WithPythonWorker is a spawn failure.
func defaultSupervisorConfig() supervisorConfig {
	return supervisorConfig{
		SupervisorConfig: core.SupervisorConfig{
			Name:              DefaultName,
			ReadyPollInterval: DefaultReadyPollInterval,
		},
	}
}

// WithExecutable sets the worker executable. A path without a separator is
// looked up in PATH at Start.
// Panics if path is empty.
func WithExecutable(path string) Option {
	requireNonEmpty("executable path", path)
	return func(c *supervisorConfig) {
		c.Executable = path
	}
}

// WithArgs sets the worker's command-line arguments, not including the
// executable itself. Later calls replace earlier ones.
func WithArgs(args ...string) Option {
	args = append([]string(nil), args...)
	return func(c *supervisorConfig) {
		c.Args = args
	}
}

// WithWorkingDir sets the worker's working directory. It must exist when
// Start is called; otherwise Start fails with a *SpawnError.
//
// Default: the parent's working directory.
//
// Panics if dir is empty.
func WithWorkingDir(dir string) Option {
	requireNonEmpty("working directory", dir)
	return func(c *supervisorConfig) {
		c.WorkingDir = dir
	}
}

// WithEnv adds KEY=VALUE entries to the environment the worker inherits from
// the parent. Entries are appended across calls; a later entry for the same
// key wins.
//
// Panics if an entry has no '=' or an empty key.
func WithEnv(kv ...string) Option {
	for _, e := range kv {
		if k, _, ok := strings.Cut(e, "="); !ok || k == "" {
			panic(fmt.Sprintf("sidecar: environment entry %q must have the form KEY=VALUE", e))
		}
	}
	kv = append([]string(nil), kv...)
	return func(c *supervisorConfig) {
		c.Env = append(c.Env, kv...)
	}
}

// WithName sets the name used for the worker in logs and errors.
//
// Default: "sidecar".
//
// Panics if name is empty.
func WithName(name string) Option {
	requireNonEmpty("name", name)
	return func(c *supervisorConfig) {
		c.Name = name
	}
}

// WithLockFile makes Start take an exclusive lock on path for as long as the
// worker is held. A second supervisor using the same path, in this or
// another process, fails to start with ErrAlreadyRunning. Missing parent
// directories are created.
//
// Default: no lock.
//
// Panics if path is empty.
func WithLockFile(path string) Option {
	requireNonEmpty("lock file path", path)
	return func(c *supervisorConfig) {
		c.LockFile = path
	}
}

// WithReadyPollInterval sets how often WaitReady checks for the port.
//
// Default: 50 milliseconds.
//
// Panics if d <= 0.
func WithReadyPollInterval(d time.Duration) Option {
	requirePositive("ready poll interval", d)
	return func(c *supervisorConfig) {
		c.ReadyPollInterval = d
	}
}

// WithPythonWorker configures the conventional Python worker layout: the
// interpreter of the virtual environment in dir runs main.py unbuffered,
// with dir as working directory. It is equivalent to
//
//	WithExecutable(filepath.Join(dir, ".venv", "bin", "python3"))
//	WithArgs("-u", "main.py")
//	WithWorkingDir(dir)
//
// Panics if dir is empty.
func WithPythonWorker(dir string) Option {
	requireNonEmpty("python worker directory", dir)
	return func(c *supervisorConfig) {
		c.Executable = PythonInterpreter(dir)
		c.Args = []string{PythonUnbufferedFlag, DefaultPythonEntryPoint}
		c.WorkingDir = dir
	}
}

// PythonInterpreter returns the virtual environment interpreter
// WithPythonWorker launches for dir.
func PythonInterpreter(dir string) string {
	return filepath.Join(dir, ".venv", "bin", "python3")
}
