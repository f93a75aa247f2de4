//go:build tinygo

package host

import "runtime/interrupt"

// critical masks interrupts for the duration of a critical section. Edge
// handlers run in interrupt context on TinyGo, where blocking on a mutex
// held by the interrupted goroutine would never return.
type critical struct {
	state interrupt.State
}

func (c *critical) Lock()   { c.state = interrupt.Disable() }
func (c *critical) Unlock() { interrupt.Restore(c.state) }

const (
	// slog allocates, and interrupt handlers must not.
	handlerLogging = false

	// The read queue is a fixed ring; bytes arriving when it is full are
	// dropped and counted in Stats.Overflows.
	queueGrows    = false
	queueCapacity = 128
)
