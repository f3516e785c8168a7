package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/giantswarm/sidecar/internal/netutil"
	"github.com/giantswarm/sidecar/internal/process"
	"github.com/giantswarm/sidecar/internal/readiness"
	"github.com/giantswarm/sidecar/internal/sentinel"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

const (
	// ErrNotReady is returned by Port and Address while no readiness line
	// has been seen.
	ErrNotReady = sentinel.Error("worker not ready")

	// ErrNotStarted is returned by WaitReady on a supervisor that was never
	// started.
	ErrNotStarted = sentinel.Error("supervisor not started")

	// ErrAlreadyStarted is returned by a second call to Start.
	ErrAlreadyStarted = sentinel.Error("supervisor already started")

	// ErrTerminated is returned by Start after Shutdown. A terminated
	// supervisor cannot be restarted.
	ErrTerminated = sentinel.Error("supervisor terminated")

	// ErrWorkerExited is returned by WaitReady when the worker's output
	// stream closed before it reported a port.
	ErrWorkerExited = sentinel.Error("worker exited before reporting its port")
)

// Supervisor owns one worker process from spawn to forced termination.
//
// Synchronization strategy:
//   - mu guards phase, proc and lock. It is never held while spawning,
//     killing, or doing I/O.
//   - the discovered port lives in a readiness.Cell, which is lock-free and
//     written only by the reader goroutine.
//
// mu and the cell are never held together, so there is no lock ordering.
type Supervisor struct {
	cfg  SupervisorConfig
	id   string
	log  *slog.Logger
	cell *readiness.Cell

	// done is closed when no more readiness lines can arrive: the reader
	// goroutine finished, or no reader was ever launched.
	done     chan struct{}
	doneOnce sync.Once

	mu    sync.Mutex
	phase Phase
	proc  *process.Process
	lock  *flock.Flock
}

// NewSupervisor creates an idle Supervisor. It performs no I/O.
func NewSupervisor(cfg SupervisorConfig) (*Supervisor, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid supervisor config: %w", err)
	}
	id := uuid.New().String()
	return &Supervisor{
		cfg:  cfg,
		id:   id,
		log:  Logger().With("supervisor", id, "worker", cfg.Name),
		cell: readiness.NewCell(),
		done: make(chan struct{}),
	}, nil
}

// ID returns a unique identifier for this supervisor.
func (s *Supervisor) ID() string {
	return s.id
}

// Start spawns the worker and launches the goroutine that watches its stdout
// for the readiness line. It returns once the process is running; it does
// not wait for readiness.
//
// A spawn failure is returned as an error wrapping *process.SpawnError and
// moves the supervisor to PhaseStartupFailed. Start may be called only once;
// later calls return ErrAlreadyStarted, or ErrTerminated after Shutdown.
//
// If Shutdown runs while Start is spawning, Start kills the new worker itself
// and returns ErrTerminated.
func (s *Supervisor) Start() error {
	s.mu.Lock()
	switch s.phase {
	case PhaseIdle:
	case PhaseTerminated:
		s.mu.Unlock()
		return ErrTerminated
	default:
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.phase = PhaseStarting
	s.mu.Unlock()

	lock, err := acquireInstanceLock(s.cfg.LockFile)
	if err != nil {
		s.startFailed()
		return fmt.Errorf("start %s: %w", s.cfg.Name, err)
	}

	proc, err := process.Spawn(process.Config{
		Name:   s.cfg.Name,
		Path:   s.cfg.Executable,
		Args:   s.cfg.Args,
		Dir:    s.cfg.WorkingDir,
		Env:    s.cfg.Env,
		Logger: s.log,
	})
	if err != nil {
		releaseInstanceLock(s.log, lock)
		s.startFailed()
		s.log.Error("worker failed to start", "error", err)
		return fmt.Errorf("start %s: %w", s.cfg.Name, err)
	}

	stdout, err := proc.TakeStdout()
	if err != nil {
		proc.Terminate()
		releaseInstanceLock(s.log, lock)
		s.startFailed()
		return fmt.Errorf("start %s: %w", s.cfg.Name, err)
	}

	s.mu.Lock()
	if s.phase == PhaseTerminated {
		s.mu.Unlock()
		proc.Terminate()
		_ = stdout.Close()
		releaseInstanceLock(s.log, lock)
		s.closeDone()
		s.log.Info("shutdown during start; worker killed", "pid", proc.Pid())
		return ErrTerminated
	}
	s.proc = proc
	s.lock = lock
	s.mu.Unlock()

	s.log.Info("worker started", "pid", proc.Pid())
	go s.watch(stdout)
	return nil
}

// startFailed records a failed Start unless Shutdown already won.
func (s *Supervisor) startFailed() {
	s.mu.Lock()
	if s.phase != PhaseTerminated {
		s.phase = PhaseStartupFailed
	}
	s.mu.Unlock()
	s.closeDone()
}

// watch reads the worker's stdout until it closes. The first readiness line
// publishes the port; every line after that, including further readiness
// lines, is read and dropped so the worker never blocks on a full pipe.
//
// End of stream and read errors after the process was killed are the normal
// way for watch to finish; neither is treated as a failure.
func (s *Supervisor) watch(r io.ReadCloser) {
	defer s.closeDone()
	defer func() { _ = r.Close() }()

	err := readiness.ReadLines(r, func(line string) {
		port, ok := readiness.Parse(line)
		if !ok {
			s.log.Debug("stdout", "line", line)
			return
		}
		if s.cell.Publish(port) {
			s.log.Info("worker ready", "port", port, "address", netutil.LoopbackAddr(port))
			return
		}
		s.log.Warn("ignoring repeated readiness line", "port", port, "state", s.cell.Load())
	})
	if err != nil {
		s.log.Debug("stdout read stopped", "error", err)
	}
	s.log.Debug("worker output stream closed", "state", s.cell.Load())
}

func (s *Supervisor) closeDone() {
	s.doneOnce.Do(func() { close(s.done) })
}

// Done returns a channel that is closed when the worker can no longer report
// readiness: its output stream ended, Start failed, or the supervisor was
// shut down without a running worker.
func (s *Supervisor) Done() <-chan struct{} {
	return s.done
}

// State returns the readiness state. It never blocks.
func (s *Supervisor) State() readiness.State {
	return s.cell.Load()
}

// Phase returns the current lifecycle phase.
func (s *Supervisor) Phase() Phase {
	s.mu.Lock()
	p := s.phase
	s.mu.Unlock()
	if p == PhaseStarting && s.cell.Load().IsReady() {
		return PhaseReady
	}
	return p
}

// Port returns the discovered port, or ErrNotReady.
func (s *Supervisor) Port() (uint16, error) {
	port, ok := s.cell.Load().Port()
	if !ok {
		return 0, ErrNotReady
	}
	return port, nil
}

// Address returns the worker's loopback host:port, or ErrNotReady.
func (s *Supervisor) Address() (string, error) {
	port, err := s.Port()
	if err != nil {
		return "", err
	}
	return netutil.LoopbackAddr(port), nil
}

// Pid returns the worker's process ID, or 0 when no worker is held.
func (s *Supervisor) Pid() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.proc.Pid()
}

// WaitReady blocks until the worker reports its port, the timeout elapses,
// ctx is canceled, or the worker's output ends without a port
// (ErrWorkerExited). It is a convenience for callers; the supervisor itself
// never times out a worker.
func (s *Supervisor) WaitReady(ctx context.Context, timeout time.Duration) (uint16, error) {
	if s.Phase() == PhaseIdle {
		return 0, ErrNotStarted
	}
	err := process.WaitReady(ctx, process.WaitReadyConfig{
		Interval: s.cfg.ReadyPollInterval,
		Timeout:  timeout,
		Name:     s.cfg.Name,
		Logger:   s.log,
		Exited:   s.done,
	}, func(_ context.Context, _ int) (bool, error) {
		return s.cell.Load().IsReady(), nil
	})
	if err != nil {
		if errors.Is(err, process.ErrProcessExited) {
			return 0, fmt.Errorf("wait for %s: %w", s.cfg.Name, ErrWorkerExited)
		}
		return 0, err
	}
	return s.Port()
}

// Shutdown kills the worker and releases the instance lock. It moves the
// supervisor to PhaseTerminated regardless of the current phase.
//
// Shutdown never blocks on the worker, never fails, and may be called any
// number of times, including before Start, during Start, after a failed
// Start, and after the worker already exited.
func (s *Supervisor) Shutdown() {
	s.mu.Lock()
	prev := s.phase
	s.phase = PhaseTerminated
	proc := s.proc
	s.proc = nil
	lock := s.lock
	s.lock = nil
	s.mu.Unlock()

	if proc != nil {
		proc.Terminate()
		s.log.Info("worker terminated", "pid", proc.Pid())
	}
	releaseInstanceLock(s.log, lock)

	// With a running reader, done closes when the dead worker's stdout hits
	// EOF. An in-flight Start closes it itself.
	if prev == PhaseIdle || prev == PhaseStartupFailed {
		s.closeDone()
	}
}
