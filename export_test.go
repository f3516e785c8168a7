package sidecar

import "time"

// ConfigSnapshot holds a copy of supervisorConfig fields for test assertions.
// Exported only via export_test.go so that the _test package can verify
// option closures actually mutate the config without accessing internals.
type ConfigSnapshot struct {
	Name              string
	Executable        string
	Args              []string
	WorkingDir        string
	Env               []string
	LockFile          string
	ReadyPollInterval time.Duration
}

// ApplyOptionsForTesting creates a default supervisorConfig, applies the
// given options, and returns a ConfigSnapshot of the result.
func ApplyOptionsForTesting(opts ...Option) ConfigSnapshot {
	cfg := defaultSupervisorConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	c := cfg.toCoreConfig()
	return ConfigSnapshot{
		Name:              c.Name,
		Executable:        c.Executable,
		Args:              c.Args,
		WorkingDir:        c.WorkingDir,
		Env:               c.Env,
		LockFile:          c.LockFile,
		ReadyPollInterval: c.ReadyPollInterval,
	}
}
