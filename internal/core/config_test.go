package core

import (
	"strings"
	"testing"
	"time"
)

func TestSupervisorConfig_Validate(t *testing.T) {
	t.Parallel()
	validConfig := func() SupervisorConfig {
		return SupervisorConfig{
			Name:              "sidecar",
			Executable:        "/bin/sh",
			ReadyPollInterval: 50 * time.Millisecond,
		}
	}

	t.Run("valid config returns nil", func(t *testing.T) {
		t.Parallel()
		if err := validConfig().validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("empty executable is left to spawn", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.Executable = ""
		if err := cfg.validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	tests := map[string]struct {
		modify       func(c *SupervisorConfig)
		wantContains string
	}{
		"empty name": {
			modify:       func(c *SupervisorConfig) { c.Name = "" },
			wantContains: "name",
		},
		"zero poll interval": {
			modify:       func(c *SupervisorConfig) { c.ReadyPollInterval = 0 },
			wantContains: "ready poll interval",
		},
		"negative poll interval": {
			modify:       func(c *SupervisorConfig) { c.ReadyPollInterval = -time.Second },
			wantContains: "ready poll interval",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tc.modify(&cfg)
			err := cfg.validate()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantContains) {
				t.Errorf("error %q does not contain %q", err, tc.wantContains)
			}
		})
	}
}

func TestNewSupervisor_InvalidConfig(t *testing.T) {
	t.Parallel()

	if _, err := NewSupervisor(SupervisorConfig{}); err == nil {
		t.Fatal("expected error for zero config, got nil")
	}
}

func TestPhase_String(t *testing.T) {
	t.Parallel()

	tests := map[Phase]string{
		PhaseIdle:          "Idle",
		PhaseStarting:      "Starting",
		PhaseReady:         "Ready",
		PhaseStartupFailed: "StartupFailed",
		PhaseTerminated:    "Terminated",
		Phase(42):          "Phase(42)",
	}
	for phase, want := range tests {
		if got := phase.String(); got != want {
			t.Errorf("Phase(%d).String() = %q, want %q", int(phase), got, want)
		}
	}
}
