package process

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"
)

// Sentinel errors returned by WaitReady for invalid configuration and
// process lifecycle conditions. Callers can match these with errors.Is
// through wrapped error chains.
var (
	// ErrIntervalNotPositive indicates a non-positive poll interval.
	ErrIntervalNotPositive = errors.New("interval must be positive")

	// ErrTimeoutNotPositive indicates a non-positive timeout.
	ErrTimeoutNotPositive = errors.New("timeout must be positive")

	// ErrProcessExited indicates the process exited before becoming ready.
	ErrProcessExited = errors.New("process exited before becoming ready")
)

// ReadinessCheck reports whether the condition being waited for holds.
// The attempt parameter is 1-based. A non-nil error aborts polling.
type ReadinessCheck func(ctx context.Context, attempt int) (ready bool, err error)

// WaitReadyConfig configures the wait behavior.
type WaitReadyConfig struct {
	Interval time.Duration   // Poll interval
	Timeout  time.Duration   // Overall timeout
	Name     string          // For logging and errors
	Logger   *slog.Logger    // Optional logger (defaults to slog.Default())
	Exited   <-chan struct{} // If non-nil, give up once closed and the check still fails
}

// WaitReady polls check until it reports ready, returns an error, the
// timeout elapses, ctx is canceled, or Exited is closed.
//
// The check always runs before Exited is consulted, and once more after
// Exited is seen closed, so a condition that became true just before the
// process went away is still reported as ready.
func WaitReady(ctx context.Context, cfg WaitReadyConfig, check ReadinessCheck) error {
	if cfg.Name == "" {
		return errors.New("wait ready: name must not be empty")
	}
	if cfg.Interval <= 0 {
		return fmt.Errorf("wait for %s: %w", cfg.Name, ErrIntervalNotPositive)
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("wait for %s: %w", cfg.Name, ErrTimeoutNotPositive)
	}

	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	// PollUntilContextTimeout calls the condition sequentially, so attempt
	// needs no synchronization.
	attempt := 0
	poll := func(pollCtx context.Context) (bool, error) {
		attempt++
		ready, err := check(pollCtx, attempt)
		if err != nil || ready {
			if ready {
				log.Debug("wait succeeded", "name", cfg.Name, "attempt", attempt)
			}
			return ready, err
		}
		if cfg.Exited == nil {
			return false, nil
		}
		select {
		case <-cfg.Exited:
			attempt++
			if ready, err := check(pollCtx, attempt); err != nil || ready {
				return ready, err
			}
			return false, fmt.Errorf("process %s: %w", cfg.Name, ErrProcessExited)
		default:
			return false, nil
		}
	}
	if err := wait.PollUntilContextTimeout(ctx, cfg.Interval, cfg.Timeout, true, poll); err != nil {
		return fmt.Errorf("wait for %s readiness: %w", cfg.Name, err)
	}
	return nil
}
