package process

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"sync/atomic"
	"syscall"
)

// Config describes the child process to launch.
type Config struct {
	Name string   // Used in log attributes; defaults to the base name of Path
	Path string   // Executable, resolved through PATH when it has no separator
	Args []string // Arguments, not including the executable itself
	Dir  string   // Working directory; empty means the parent's
	Env  []string // Extra KEY=VALUE entries appended to the parent's environment

	// Logger (optional, defaults to slog.Default())
	Logger *slog.Logger
}

// Process is a running (or exited) child process.
//
// All methods are safe for concurrent use. A nil *Process is valid and
// behaves like a process that was never spawned.
type Process struct {
	name string
	cmd  *exec.Cmd
	log  *slog.Logger

	stdoutMu sync.Mutex
	stdout   *os.File // nil once taken

	exited  chan struct{} // closed after cmd.Wait returns
	waitErr error         // written before exited is closed

	killOnce   sync.Once
	terminated atomic.Bool
}

// Spawn launches the process described by cfg. Stdout and stderr are
// connected to pipes owned by the returned Process; the child inherits
// nothing else from the parent's standard streams.
//
// Every failure is reported as a *SpawnError. The child is not started when
// an error is returned.
func Spawn(cfg Config) (*Process, error) {
	if cfg.Path == "" {
		return nil, &SpawnError{Path: cfg.Path, Err: ErrEmptyPath}
	}
	if cfg.Dir != "" {
		if err := requireDir(cfg.Dir); err != nil {
			return nil, &SpawnError{Path: cfg.Path, Err: err}
		}
	}

	name := cfg.Name
	if name == "" {
		name = filepath.Base(cfg.Path)
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("process", name)

	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return nil, &SpawnError{Path: cfg.Path, Err: fmt.Errorf("create stdout pipe: %w", err)}
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		closeAll(stdoutR, stdoutW)
		return nil, &SpawnError{Path: cfg.Path, Err: fmt.Errorf("create stderr pipe: %w", err)}
	}

	// Handing *os.File values to exec keeps it from creating its own copy
	// goroutines, so cmd.Wait never closes stdoutR underneath the reader and
	// output written just before exit is not lost.
	cmd := exec.Command(cfg.Path, cfg.Args...)
	cmd.Dir = cfg.Dir
	if len(cfg.Env) > 0 {
		cmd.Env = append(os.Environ(), cfg.Env...)
	}
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW
	configureSysProcAttr(cmd)

	startErr := cmd.Start()
	// The child has its own copies of the write ends. Ours must be closed so
	// the readers see EOF when the child exits.
	closeAll(stdoutW, stderrW)
	if startErr != nil {
		closeAll(stdoutR, stderrR)
		return nil, &SpawnError{Path: cfg.Path, Err: startErr}
	}

	p := &Process{
		name:   name,
		cmd:    cmd,
		log:    log,
		stdout: stdoutR,
		exited: make(chan struct{}),
	}

	// cmd.Wait must be called exactly once per started process.
	go func() {
		err := cmd.Wait()
		p.waitErr = err
		close(p.exited)
		p.logExit(err)
	}()
	go p.drainStderr(stderrR)

	log.Debug("process spawned", "pid", cmd.Process.Pid, "path", cfg.Path, "dir", cfg.Dir)
	return p, nil
}

// Name returns the name used in log attributes.
func (p *Process) Name() string {
	if p == nil {
		return ""
	}
	return p.name
}

// Pid returns the operating system process ID, or 0 for a nil Process.
func (p *Process) Pid() int {
	if p == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

// TakeStdout transfers ownership of the stdout stream to the caller, who
// becomes responsible for closing it. Only the first call succeeds; later
// calls return ErrStreamTaken.
func (p *Process) TakeStdout() (io.ReadCloser, error) {
	if p == nil {
		return nil, ErrStreamTaken
	}
	p.stdoutMu.Lock()
	defer p.stdoutMu.Unlock()
	if p.stdout == nil {
		return nil, ErrStreamTaken
	}
	r := p.stdout
	p.stdout = nil
	return r, nil
}

// Terminate kills the process with SIGKILL. There is no grace period.
//
// Terminate is idempotent and never fails: calling it on a nil Process, on a
// process that already exited, or a second time does nothing. Errors from the
// kill itself are logged at debug level and otherwise dropped.
func (p *Process) Terminate() {
	if p == nil {
		return
	}
	p.killOnce.Do(func() {
		p.terminated.Store(true)
		select {
		case <-p.exited:
			p.log.Debug("terminate: process already exited", "pid", p.Pid())
			return
		default:
		}
		// Kill after the process was reaped returns os.ErrProcessDone.
		if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			p.log.Debug("terminate: kill failed", "pid", p.Pid(), "error", err)
		}
	})
}

// Exited returns a channel that is closed once the process has exited and
// been reaped. For a nil Process it returns an already closed channel.
func (p *Process) Exited() <-chan struct{} {
	if p == nil {
		return closedChan
	}
	return p.exited
}

// ExitErr returns the result of cmd.Wait. It must only be called after
// Exited is closed.
func (p *Process) ExitErr() error {
	if p == nil {
		return nil
	}
	return p.waitErr
}

// drainStderr copies stderr into the logger line by line until EOF.
func (p *Process) drainStderr(r io.ReadCloser) {
	defer closeAll(r)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		p.log.Debug("stderr", "line", sc.Text())
	}
	if err := sc.Err(); err != nil {
		// A line too long for the scanner; keep the pipe empty regardless.
		p.log.Debug("stderr scan stopped; discarding remaining output", "error", err)
		_, _ = io.Copy(io.Discard, r)
	}
}

// logExit records why the process ended. An exit caused by our own
// Terminate is expected; anything else is worth a warning since the worker
// is not restarted.
func (p *Process) logExit(err error) {
	pid := p.cmd.Process.Pid
	switch {
	case p.terminated.Load() && killedBySignal(err):
		p.log.Debug("process exited after terminate", "pid", pid)
	case err == nil:
		p.log.Info("process exited", "pid", pid)
	default:
		p.log.Warn("process exited unexpectedly", "pid", pid, "error", err)
	}
}

// killedBySignal reports whether err from cmd.Wait describes a process that
// was ended by SIGKILL or SIGTERM.
func killedBySignal(err error) bool {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return false
	}
	status, ok := exitErr.Sys().(syscall.WaitStatus)
	if !ok || !status.Signaled() {
		return false
	}
	sig := status.Signal()
	return sig == syscall.SIGKILL || sig == syscall.SIGTERM
}

func requireDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("working directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: %w", dir, ErrNotDirectory)
	}
	return nil
}

func closeAll(closers ...io.Closer) {
	for _, c := range closers {
		_ = c.Close()
	}
}

var closedChan = func() chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}()
