package readiness

import (
	"fmt"
	"sync/atomic"
)

// State is a snapshot of the worker's readiness: either Unknown or Ready with
// a port. The zero value is Unknown.
type State struct {
	port  uint16
	ready bool
}

// Unknown is the state before any readiness line has been seen.
var Unknown = State{}

// Ready returns the state of a worker listening on port.
func Ready(port uint16) State {
	return State{port: port, ready: true}
}

// IsReady reports whether a port has been discovered.
func (s State) IsReady() bool {
	return s.ready
}

// Port returns the discovered port. ok is false while the state is Unknown.
func (s State) Port() (port uint16, ok bool) {
	return s.port, s.ready
}

func (s State) String() string {
	if !s.ready {
		return "Unknown"
	}
	return fmt.Sprintf("Ready(%d)", s.port)
}

// Cell is a write-once holder for the discovered port. The zero value is not
// usable; create one with NewCell.
//
// Publish may be called from one goroutine while any number of others call
// Load or wait on Ready. Only the first Publish takes effect: later calls are
// ignored and report false, so a worker that prints a second readiness line
// cannot move the port.
type Cell struct {
	port  atomic.Pointer[uint16]
	ready chan struct{}
}

// NewCell returns an empty Cell in the Unknown state.
func NewCell() *Cell {
	return &Cell{ready: make(chan struct{})}
}

// Publish records port if no port has been recorded yet. It reports whether
// this call performed the Unknown to Ready transition.
func (c *Cell) Publish(port uint16) bool {
	p := port
	if !c.port.CompareAndSwap(nil, &p) {
		return false
	}
	close(c.ready)
	return true
}

// Load returns the current state without blocking.
func (c *Cell) Load() State {
	p := c.port.Load()
	if p == nil {
		return Unknown
	}
	return Ready(*p)
}

// Ready returns a channel that is closed once a port has been published.
func (c *Cell) Ready() <-chan struct{} {
	return c.ready
}
