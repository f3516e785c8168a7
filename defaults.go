package sidecar

import "time"

// Default configuration values for New.
const (
	// DefaultName identifies the worker in logs and errors.
	DefaultName = "sidecar"

	// DefaultReadyPollInterval is how often WaitReady checks for the port.
	DefaultReadyPollInterval = 50 * time.Millisecond

	// DefaultPythonEntryPoint is the script WithPythonWorker runs.
	DefaultPythonEntryPoint = "main.py"

	// PythonUnbufferedFlag makes the Python interpreter write stdout
	// unbuffered, so the readiness line arrives as soon as it is printed.
	PythonUnbufferedFlag = "-u"
)
