// Command portworker is a minimal worker that speaks the sidecar readiness
// protocol: it binds a free loopback port, prints "PORT:<n>" on stdout, and
// serves GET /healthz until it receives SIGINT or SIGTERM.
//
// It is used to try the sidecar command end to end and as a template for
// real workers.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/giantswarm/sidecar"
	"github.com/giantswarm/sidecar/internal/netutil"
)

const shutdownTimeout = 5 * time.Second

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil)).With("component", "portworker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout, logger); err != nil {
		logger.Error("worker failed", "error", err)
		os.Exit(1)
	}
}

// run serves until ctx is done. The readiness line is written to stdout only
// after the listener is bound, so a client that reads it can connect at once.
func run(ctx context.Context, stdout io.Writer, logger *slog.Logger) error {
	ln, port, err := netutil.ListenLoopback()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           newMux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()

	// os.Stdout is unbuffered; Fprintf issues a single write.
	if _, err := fmt.Fprintf(stdout, "%s%d\n", sidecar.ReadinessPrefix, port); err != nil {
		_ = srv.Close()
		<-serveErr
		return fmt.Errorf("announce port: %w", err)
	}
	logger.Info("serving", "address", netutil.LoopbackAddr(port))

	select {
	case err := <-serveErr:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-serveErr; !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	logger.Info("stopped")
	return nil
}

func newMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok\n")
	})
	return mux
}
