//go:build unix

package core

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/giantswarm/sidecar/internal/process"
	"github.com/giantswarm/sidecar/internal/readiness"
	ps "github.com/mitchellh/go-ps"
	"golang.org/x/sync/errgroup"
)

const testTimeout = 10 * time.Second

func testConfig(script string) SupervisorConfig {
	return SupervisorConfig{
		Name:              "test-worker",
		Executable:        "/bin/sh",
		Args:              []string{"-c", script},
		ReadyPollInterval: 5 * time.Millisecond,
	}
}

// newStarted creates and starts a supervisor running script under /bin/sh.
// Cleanup shuts it down and waits for the reader to finish.
func newStarted(t *testing.T, script string) *Supervisor {
	t.Helper()

	s := newSupervisor(t, testConfig(script))
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return s
}

func newSupervisor(t *testing.T, cfg SupervisorConfig) *Supervisor {
	t.Helper()

	s, err := NewSupervisor(cfg)
	if err != nil {
		t.Fatalf("NewSupervisor() error = %v", err)
	}
	t.Cleanup(func() {
		s.Shutdown()
		waitDone(t, s)
	})
	return s
}

func waitDone(tb testing.TB, s *Supervisor) {
	tb.Helper()

	select {
	case <-s.Done():
	case <-time.After(testTimeout):
		tb.Fatalf("reader did not finish within %v", testTimeout)
	}
}

func TestSupervisor_ReadyScenario(t *testing.T) {
	t.Parallel()

	s := newStarted(t, `printf 'starting up\nPORT:54321\nlistening\n'`)
	waitDone(t, s)

	if got := s.State(); got != readiness.Ready(54321) {
		t.Fatalf("State() = %v, want Ready(54321)", got)
	}
	if got := s.Phase(); got != PhaseReady {
		t.Errorf("Phase() = %v, want Ready", got)
	}
	port, err := s.Port()
	if err != nil || port != 54321 {
		t.Errorf("Port() = (%d, %v), want (54321, nil)", port, err)
	}
	addr, err := s.Address()
	if err != nil || addr != "127.0.0.1:54321" {
		t.Errorf("Address() = (%q, %v), want (%q, nil)", addr, err, "127.0.0.1:54321")
	}
}

func TestSupervisor_NoSignal(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"non-numeric":    `printf 'PORT:abc\n'`,
		"out of range":   `printf 'PORT:70000\n'`,
		"no output":      `exit 0`,
		"prefixed line":  `printf 'listening on PORT:8080\n'`,
		"crash":          `printf 'Traceback\n' >&2; exit 1`,
		"trailing space": `printf 'PORT:8080 \n'`,
	}

	for name, script := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			s := newStarted(t, script)
			waitDone(t, s)

			if got := s.State(); got != readiness.Unknown {
				t.Fatalf("State() = %v, want Unknown", got)
			}
			if _, err := s.Port(); !errors.Is(err, ErrNotReady) {
				t.Errorf("Port() error = %v, want ErrNotReady", err)
			}
			if _, err := s.Address(); !errors.Is(err, ErrNotReady) {
				t.Errorf("Address() error = %v, want ErrNotReady", err)
			}
			if got := s.Phase(); got != PhaseStarting {
				t.Errorf("Phase() = %v, want Starting", got)
			}
		})
	}
}

func TestSupervisor_IgnoresLaterSignals(t *testing.T) {
	t.Parallel()

	s := newStarted(t, `printf 'PORT:1111\nPORT:2222\nPORT:abc\nPORT:3333\n'`)
	waitDone(t, s)

	if got := s.State(); got != readiness.Ready(1111) {
		t.Fatalf("State() = %v, want Ready(1111)", got)
	}
}

func TestSupervisor_QueryBeforeReady(t *testing.T) {
	t.Parallel()

	s := newSupervisor(t, testConfig(`exec sleep 60`))

	// Before Start and after Start but before any output.
	for _, stage := range []string{"idle", "started"} {
		if got := s.State(); got != readiness.Unknown {
			t.Fatalf("%s: State() = %v, want Unknown", stage, got)
		}
		if _, err := s.Port(); !errors.Is(err, ErrNotReady) {
			t.Fatalf("%s: Port() error = %v, want ErrNotReady", stage, err)
		}
		if stage == "idle" {
			if err := s.Start(); err != nil {
				t.Fatalf("Start() error = %v", err)
			}
		}
	}
}

func TestSupervisor_SpawnFailure(t *testing.T) {
	t.Parallel()

	cfg := testConfig("")
	cfg.Executable = filepath.Join(t.TempDir(), "no-such-worker")
	cfg.Args = nil
	s := newSupervisor(t, cfg)

	err := s.Start()
	var spawnErr *process.SpawnError
	if !errors.As(err, &spawnErr) {
		t.Fatalf("Start() error = %v, want *process.SpawnError", err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Start() error = %v, want fs.ErrNotExist cause", err)
	}
	if got := s.Phase(); got != PhaseStartupFailed {
		t.Errorf("Phase() = %v, want StartupFailed", got)
	}
	waitDone(t, s)

	s.Shutdown()
	s.Shutdown()
	if got := s.Phase(); got != PhaseTerminated {
		t.Errorf("Phase() after Shutdown = %v, want Terminated", got)
	}
	if err := s.Start(); !errors.Is(err, ErrTerminated) {
		t.Errorf("Start() after Shutdown error = %v, want ErrTerminated", err)
	}
}

func TestSupervisor_ShutdownBeforeStart(t *testing.T) {
	t.Parallel()

	s := newSupervisor(t, testConfig(`exec sleep 60`))
	s.Shutdown()
	s.Shutdown()

	if got := s.Phase(); got != PhaseTerminated {
		t.Errorf("Phase() = %v, want Terminated", got)
	}
	waitDone(t, s)
	if err := s.Start(); !errors.Is(err, ErrTerminated) {
		t.Fatalf("Start() error = %v, want ErrTerminated", err)
	}
	if s.Pid() != 0 {
		t.Errorf("Pid() = %d, want 0", s.Pid())
	}
}

func TestSupervisor_StartTwice(t *testing.T) {
	t.Parallel()

	s := newStarted(t, `exec sleep 60`)
	if err := s.Start(); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("second Start() error = %v, want ErrAlreadyStarted", err)
	}
}

func TestSupervisor_ShutdownKillsWorker(t *testing.T) {
	t.Parallel()

	s := newStarted(t, `echo PORT:4242; exec sleep 60`)

	port, err := s.WaitReady(context.Background(), testTimeout)
	if err != nil {
		t.Fatalf("WaitReady() error = %v", err)
	}
	if port != 4242 {
		t.Fatalf("WaitReady() port = %d, want 4242", port)
	}
	pid := s.Pid()
	if pid == 0 {
		t.Fatal("Pid() = 0 for running worker")
	}

	s.Shutdown()
	waitDone(t, s)

	if s.Pid() != 0 {
		t.Errorf("Pid() after Shutdown = %d, want 0", s.Pid())
	}
	if got := s.Phase(); got != PhaseTerminated {
		t.Errorf("Phase() = %v, want Terminated", got)
	}
	// The port stays readable after termination; it never reverts.
	if got := s.State(); got != readiness.Ready(4242) {
		t.Errorf("State() after Shutdown = %v, want Ready(4242)", got)
	}
	requireProcessGone(t, pid)

	s.Shutdown()
}

func TestSupervisor_ShutdownAfterWorkerExited(t *testing.T) {
	t.Parallel()

	s := newStarted(t, `echo PORT:5000; exit 0`)
	waitDone(t, s)

	s.Shutdown()
	s.Shutdown()
	if got := s.Phase(); got != PhaseTerminated {
		t.Errorf("Phase() = %v, want Terminated", got)
	}
}

func TestSupervisor_ShutdownRacesStart(t *testing.T) {
	t.Parallel()

	for range 20 {
		s := newSupervisor(t, testConfig(`echo PORT:6000; exec sleep 60`))

		var wg sync.WaitGroup
		var startErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			startErr = s.Start()
		}()
		go func() {
			defer wg.Done()
			s.Shutdown()
		}()
		wg.Wait()

		if startErr != nil && !errors.Is(startErr, ErrTerminated) {
			t.Fatalf("Start() error = %v, want nil or ErrTerminated", startErr)
		}
		if got := s.Phase(); got != PhaseTerminated {
			t.Fatalf("Phase() = %v, want Terminated", got)
		}
		// done only closes once the worker's stdout is gone, which proves
		// no worker survived the race.
		waitDone(t, s)
	}
}

func TestSupervisor_WaitReady(t *testing.T) {
	t.Parallel()

	t.Run("not started", func(t *testing.T) {
		t.Parallel()
		s := newSupervisor(t, testConfig(`exit 0`))
		if _, err := s.WaitReady(context.Background(), time.Second); !errors.Is(err, ErrNotStarted) {
			t.Fatalf("WaitReady() error = %v, want ErrNotStarted", err)
		}
	})

	t.Run("worker exits without port", func(t *testing.T) {
		t.Parallel()
		s := newStarted(t, `echo booting; exit 1`)
		if _, err := s.WaitReady(context.Background(), testTimeout); !errors.Is(err, ErrWorkerExited) {
			t.Fatalf("WaitReady() error = %v, want ErrWorkerExited", err)
		}
	})

	t.Run("port printed right before exit", func(t *testing.T) {
		t.Parallel()
		s := newStarted(t, `echo PORT:7000`)
		port, err := s.WaitReady(context.Background(), testTimeout)
		if err != nil || port != 7000 {
			t.Fatalf("WaitReady() = (%d, %v), want (7000, nil)", port, err)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()
		s := newStarted(t, `exec sleep 60`)
		if _, err := s.WaitReady(context.Background(), 50*time.Millisecond); !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("WaitReady() error = %v, want context.DeadlineExceeded", err)
		}
		// A timed-out wait does not affect the worker.
		if got := s.Phase(); got != PhaseStarting {
			t.Errorf("Phase() = %v, want Starting", got)
		}
	})

	t.Run("slow worker", func(t *testing.T) {
		t.Parallel()
		s := newStarted(t, `sleep 0.2; echo PORT:7001; exec sleep 60`)
		port, err := s.WaitReady(context.Background(), testTimeout)
		if err != nil || port != 7001 {
			t.Fatalf("WaitReady() = (%d, %v), want (7001, nil)", port, err)
		}
	})
}

func TestSupervisor_ConcurrentQueries(t *testing.T) {
	t.Parallel()

	const (
		readers = 100
		port    = 31337
	)
	s := newStarted(t, `sleep 0.1; echo PORT:31337; exec sleep 60`)

	var g errgroup.Group
	for range readers {
		g.Go(func() error {
			deadline := time.Now().Add(testTimeout)
			for time.Now().Before(deadline) {
				st := s.State()
				switch st {
				case readiness.Unknown:
					continue
				case readiness.Ready(port):
					return nil
				default:
					return errors.New("observed unexpected state " + st.String())
				}
			}
			return errors.New("never observed Ready")
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
}

func TestSupervisor_LockFile(t *testing.T) {
	t.Parallel()

	lockPath := filepath.Join(t.TempDir(), "run", "sidecar.lock")
	cfgWithLock := func() SupervisorConfig {
		cfg := testConfig(`exec sleep 60`)
		cfg.LockFile = lockPath
		return cfg
	}

	first := newSupervisor(t, cfgWithLock())
	if err := first.Start(); err != nil {
		t.Fatalf("first Start() error = %v", err)
	}

	second := newSupervisor(t, cfgWithLock())
	if err := second.Start(); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("second Start() error = %v, want ErrAlreadyRunning", err)
	}
	if got := second.Phase(); got != PhaseStartupFailed {
		t.Errorf("second Phase() = %v, want StartupFailed", got)
	}

	first.Shutdown()

	third := newSupervisor(t, cfgWithLock())
	if err := third.Start(); err != nil {
		t.Fatalf("Start() after lock release error = %v", err)
	}
}

func TestSupervisor_IDsAreUnique(t *testing.T) {
	t.Parallel()

	a := newSupervisor(t, testConfig(`exit 0`))
	b := newSupervisor(t, testConfig(`exit 0`))
	if a.ID() == "" || a.ID() == b.ID() {
		t.Fatalf("IDs = %q, %q; want distinct non-empty", a.ID(), b.ID())
	}
}

// requireProcessGone polls the process table until pid disappears.
func requireProcessGone(t *testing.T, pid int) {
	t.Helper()

	deadline := time.Now().Add(testTimeout)
	for time.Now().Before(deadline) {
		p, err := ps.FindProcess(pid)
		if err != nil {
			t.Fatalf("FindProcess(%d) error = %v", pid, err)
		}
		if p == nil {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("process %d still present after Shutdown", pid)
}
