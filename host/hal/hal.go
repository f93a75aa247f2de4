package hal

import (
	"context"
	"time"

	"github.com/ardnew/softps2/pkg"
)

// EdgeHandler is invoked when an edge is observed on a line.
//
// Handlers run in the HAL's edge-delivery context (an interrupt on
// microcontrollers, a watcher or event goroutine on hosted platforms) and
// must not block.
type EdgeHandler func(line pkg.Line, edge pkg.Edge)

// HostHAL defines the Hardware Abstraction Layer interface for the PS/2 host
// engine: two open-collector lines, edge notification on them, and a short
// blocking delay.
//
// Implementations deliver edges for one line in the order they occur. The
// engine serializes its own handlers, so a HAL may invoke them from any
// goroutine.
type HostHAL interface {
	// Init configures both lines as released inputs with pull-ups and
	// prepares edge detection. The context can be used to cancel
	// initialization and bounds the lifetime of any watcher goroutine.
	Init(ctx context.Context) error

	// GetLevel samples the current level of line.
	GetLevel(line pkg.Line) pkg.Level

	// SetLevel drives line low (pkg.Low) or releases it to the pull-up
	// (pkg.High).
	SetLevel(line pkg.Line, level pkg.Level) error

	// OnEdge registers handler for edge transitions on line. Several
	// handlers may be registered for the same line and edge; they run in
	// registration order.
	OnEdge(line pkg.Line, edge pkg.Edge, handler EdgeHandler) error

	// DelayMicroseconds blocks the calling goroutine for at least us
	// microseconds. It is never called from an edge handler.
	DelayMicroseconds(us uint32)

	// Close releases both lines and stops edge delivery.
	Close() error
}

// Handlers is a registry of edge handlers indexed by line and edge, for use
// by HAL implementations. The zero value is ready to use. It is not safe
// for concurrent use; implementations guard it with their own lock.
type Handlers [pkg.NumLines][pkg.NumEdges][]EdgeHandler

// Add validates line and edge and appends handler.
func (h *Handlers) Add(line pkg.Line, edge pkg.Edge, handler EdgeHandler) error {
	if !line.Valid() {
		return pkg.ErrInvalidLine
	}
	if !edge.Valid() {
		return pkg.ErrInvalidEdge
	}
	if handler == nil {
		return pkg.ErrInvalidParameter
	}
	h[line][edge] = append(h[line][edge], handler)
	return nil
}

// Get returns the handlers registered for line and edge. The returned
// slice must not be modified.
func (h *Handlers) Get(line pkg.Line, edge pkg.Edge) []EdgeHandler {
	if !line.Valid() || !edge.Valid() {
		return nil
	}
	return h[line][edge]
}

// Clear removes every handler.
func (h *Handlers) Clear() {
	*h = Handlers{}
}

// Dispatch invokes handlers in order.
func Dispatch(handlers []EdgeHandler, line pkg.Line, edge pkg.Edge) {
	for _, fn := range handlers {
		fn(line, edge)
	}
}

// Spin busy-waits for d. It is used where sleeping would overshoot a
// microsecond-scale delay by a scheduler quantum.
func Spin(d time.Duration) {
	start := time.Now()
	for time.Since(start) < d {
	}
}
