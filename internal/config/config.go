// Package config loads the YAML file that describes the worker run by the
// sidecar command.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/giantswarm/sidecar"
	"gopkg.in/yaml.v3"
)

// DefaultReadyTimeout bounds how long the sidecar command waits for the
// worker's port when ready_timeout is not set.
const DefaultReadyTimeout = 30 * time.Second

// Config is the parsed worker file. Exactly one of Executable and
// PythonWorker must be set.
//
// Example:
//
//	name: indexer
//	python_worker: ./indexer
//	env:
//	  LOG_LEVEL: debug
//	lock_file: /run/indexer/worker.lock
//	ready_timeout: 1m
type Config struct {
	Name         string            `yaml:"name"`
	Executable   string            `yaml:"executable"`
	Args         []string          `yaml:"args"`
	WorkingDir   string            `yaml:"working_dir"`
	PythonWorker string            `yaml:"python_worker"`
	Env          map[string]string `yaml:"env"`
	LockFile     string            `yaml:"lock_file"`

	RawReadyTimeout      string `yaml:"ready_timeout"`       // e.g. "30s"
	RawReadyPollInterval string `yaml:"ready_poll_interval"` // e.g. "50ms"
}

// ReadyTimeout returns the configured readiness timeout or the default.
func (c *Config) ReadyTimeout() time.Duration {
	if d, err := parsePositive(c.RawReadyTimeout); err == nil && d > 0 {
		return d
	}
	return DefaultReadyTimeout
}

// ReadyPollInterval returns the configured poll interval or the default.
func (c *Config) ReadyPollInterval() time.Duration {
	if d, err := parsePositive(c.RawReadyPollInterval); err == nil && d > 0 {
		return d
	}
	return sidecar.DefaultReadyPollInterval
}

// Load reads and validates the file at path. Relative paths inside the file
// are resolved against the file's directory, so a config works regardless of
// the caller's working directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	cfg, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	base, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	cfg.resolve(base)
	return cfg, nil
}

// Parse decodes and validates a config. Unknown keys are rejected. Paths are
// left as written.
func Parse(r io.Reader) (*Config, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	cfg := &Config{}
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty config")
		}
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Executable == "" && c.PythonWorker == "":
		return errors.New("one of executable or python_worker is required")
	case c.Executable != "" && c.PythonWorker != "":
		return errors.New("executable and python_worker are mutually exclusive")
	}
	for k := range c.Env {
		if k == "" || strings.Contains(k, "=") {
			return fmt.Errorf("invalid env name %q", k)
		}
	}
	if _, err := parsePositive(c.RawReadyTimeout); err != nil {
		return fmt.Errorf("ready_timeout: %w", err)
	}
	if _, err := parsePositive(c.RawReadyPollInterval); err != nil {
		return fmt.Errorf("ready_poll_interval: %w", err)
	}
	return nil
}

// parsePositive parses a duration string. An empty string yields 0 and no
// error; zero and negative durations are rejected.
func parsePositive(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %v", d)
	}
	return d, nil
}

// resolve makes relative paths absolute against base. A bare executable name
// is kept so that it is looked up in PATH.
func (c *Config) resolve(base string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}
	if strings.ContainsRune(c.Executable, filepath.Separator) {
		c.Executable = abs(c.Executable)
	}
	c.WorkingDir = abs(c.WorkingDir)
	c.PythonWorker = abs(c.PythonWorker)
	c.LockFile = abs(c.LockFile)
}

// Options converts the config into supervisor options. Env entries are
// emitted in key order.
func (c *Config) Options() []sidecar.Option {
	var opts []sidecar.Option
	if c.Name != "" {
		opts = append(opts, sidecar.WithName(c.Name))
	}
	if c.PythonWorker != "" {
		opts = append(opts, sidecar.WithPythonWorker(c.PythonWorker))
	} else {
		opts = append(opts, sidecar.WithExecutable(c.Executable))
	}
	// Explicit args and working dir override the Python defaults.
	if len(c.Args) > 0 {
		opts = append(opts, sidecar.WithArgs(c.Args...))
	}
	if c.WorkingDir != "" {
		opts = append(opts, sidecar.WithWorkingDir(c.WorkingDir))
	}
	if len(c.Env) > 0 {
		keys := make([]string, 0, len(c.Env))
		for k := range c.Env {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		env := make([]string, 0, len(keys))
		for _, k := range keys {
			env = append(env, k+"="+c.Env[k])
		}
		opts = append(opts, sidecar.WithEnv(env...))
	}
	if c.LockFile != "" {
		opts = append(opts, sidecar.WithLockFile(c.LockFile))
	}
	opts = append(opts, sidecar.WithReadyPollInterval(c.ReadyPollInterval()))
	return opts
}
