package sidecar

import (
	"context"
	"fmt"
	"time"

	"github.com/giantswarm/sidecar/internal/core"
)

// Compile-time interface satisfaction check.
var _ Supervisor = (*supervisorWrapper)(nil)

// supervisorWrapper wraps *core.Supervisor to implement the Supervisor
// interface. The named field keeps core's exported methods from being
// promoted into the public API by accident; every method is forwarded
// explicitly.
type supervisorWrapper struct {
	sup *core.Supervisor
}

// New creates an idle Supervisor. It performs no I/O; call Start to launch
// the worker.
//
// Unlike a process-wide singleton, every call returns an independent
// supervisor. Use WithLockFile when at most one worker may run per host.
//
// Panics if the resulting configuration is invalid. Options already reject
// invalid values, so this only happens when an Option was built by hand.
//
//nolint:ireturn // The public API exposes Supervisor as an interface.
func New(opts ...Option) Supervisor {
	cfg := defaultSupervisorConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	sup, err := core.NewSupervisor(cfg.toCoreConfig())
	if err != nil {
		panic(fmt.Sprintf("sidecar: %v", err))
	}
	return &supervisorWrapper{sup: sup}
}

func (w *supervisorWrapper) Start() error { return w.sup.Start() }

func (w *supervisorWrapper) State() State { return w.sup.State() }

func (w *supervisorWrapper) Port() (uint16, error) { return w.sup.Port() }

func (w *supervisorWrapper) Address() (string, error) { return w.sup.Address() }

func (w *supervisorWrapper) WaitReady(ctx context.Context, timeout time.Duration) (uint16, error) {
	return w.sup.WaitReady(ctx, timeout)
}

func (w *supervisorWrapper) Phase() Phase { return w.sup.Phase() }

func (w *supervisorWrapper) Done() <-chan struct{} { return w.sup.Done() }

func (w *supervisorWrapper) Pid() int { return w.sup.Pid() }

func (w *supervisorWrapper) ID() string { return w.sup.ID() }

func (w *supervisorWrapper) Shutdown() { w.sup.Shutdown() }
