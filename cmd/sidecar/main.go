// Command sidecar runs one worker process under a supervisor: it starts the
// worker, waits for the worker to report its port, prints the worker's
// address on stdout, and kills the worker on SIGINT or SIGTERM.
//
// Usage:
//
//	sidecar run --config worker.yaml
//	sidecar run -- ./worker --flag
//	sidecar version
package main

import (
	"fmt"
	"os"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
