package sidecar

import "github.com/giantswarm/sidecar/internal/core"

// supervisorConfig holds configuration for a Supervisor. This unexported type
// wraps core.SupervisorConfig via embedding, keeping internal/core types out
// of the public API signature.
type supervisorConfig struct {
	core.SupervisorConfig
}

// toCoreConfig returns a copy of the embedded core.SupervisorConfig whose
// slices are not shared with the options that built it.
func (c supervisorConfig) toCoreConfig() core.SupervisorConfig {
	out := c.SupervisorConfig
	out.Args = append([]string(nil), c.Args...)
	out.Env = append([]string(nil), c.Env...)
	return out
}
