package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/giantswarm/sidecar"
	"github.com/giantswarm/sidecar/internal/config"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type runOptions struct {
	configPath   string
	name         string
	lockFile     string
	readyTimeout time.Duration
}

func newRunCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run [--config FILE | -- COMMAND [ARG...]]",
		Short: "Start a worker and keep it running until interrupted",
		Long: `Start a worker, wait until it prints PORT:<n> on stdout, and print
its address (127.0.0.1:<n>). The worker is killed when sidecar receives
SIGINT or SIGTERM; sidecar exits with an error if the worker exits first.

The worker is described either by a YAML file (--config) or by a command
line after "--".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			supOpts, timeout, err := opts.supervisorOptions(args)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWorker(ctx, cmd, sidecar.New(supOpts...), timeout)
		},
	}
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to a worker YAML file")
	cmd.Flags().StringVar(&opts.name, "name", "", "Worker name used in logs (overrides the config file)")
	cmd.Flags().StringVar(&opts.lockFile, "lock-file", "", "Refuse to start while another sidecar holds this lock (overrides the config file)")
	cmd.Flags().DurationVar(&opts.readyTimeout, "ready-timeout", 0, "How long to wait for the worker's port (default from config, else 30s)")

	return cmd
}

// supervisorOptions builds the supervisor options from the config file or the
// command line, then applies flag overrides.
func (o *runOptions) supervisorOptions(args []string) ([]sidecar.Option, time.Duration, error) {
	var (
		supOpts []sidecar.Option
		timeout = config.DefaultReadyTimeout
	)
	switch {
	case o.configPath != "" && len(args) > 0:
		return nil, 0, errors.New("--config and a worker command are mutually exclusive")
	case o.configPath != "":
		cfg, err := config.Load(o.configPath)
		if err != nil {
			return nil, 0, err
		}
		supOpts = cfg.Options()
		timeout = cfg.ReadyTimeout()
	case len(args) > 0:
		if args[0] == "" {
			return nil, 0, errors.New("worker command must not be empty")
		}
		supOpts = []sidecar.Option{sidecar.WithExecutable(args[0]), sidecar.WithArgs(args[1:]...)}
	default:
		return nil, 0, errors.New("either --config or a worker command is required")
	}

	if o.name != "" {
		supOpts = append(supOpts, sidecar.WithName(o.name))
	}
	if o.lockFile != "" {
		supOpts = append(supOpts, sidecar.WithLockFile(o.lockFile))
	}
	if o.readyTimeout < 0 {
		return nil, 0, fmt.Errorf("--ready-timeout must not be negative, got %v", o.readyTimeout)
	}
	if o.readyTimeout > 0 {
		timeout = o.readyTimeout
	}
	return supOpts, timeout, nil
}

// runWorker starts sup, prints its address once ready, and blocks until ctx
// is done or the worker exits. The worker is always shut down on return.
func runWorker(ctx context.Context, cmd *cobra.Command, sup sidecar.Supervisor, timeout time.Duration) error {
	defer sup.Shutdown()

	if err := sup.Start(); err != nil {
		return err
	}
	if _, err := sup.WaitReady(ctx, timeout); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	addr, err := sup.Address()
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), addr); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		select {
		case <-sup.Done():
			return fmt.Errorf("worker at %s: %w", addr, sidecar.ErrWorkerExited)
		case <-gctx.Done():
			return nil
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		sup.Shutdown()
		return nil
	})
	return g.Wait()
}
