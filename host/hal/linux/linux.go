//go:build linux

package linux

import (
	"context"
	"fmt"
	"sync"

	"github.com/warthog618/gpiod"

	"github.com/ardnew/softps2/host/hal"
	"github.com/ardnew/softps2/pkg"
)

// DefaultConsumer is the consumer label attached to requested lines.
const DefaultConsumer = "softps2"

// =============================================================================
// HostHAL Implementation
// =============================================================================

// HostHAL implements the hal.HostHAL interface for Linux using the GPIO
// character device.
//
// Both lines are requested as inputs with the internal pull-up enabled.
// Driving a line low reconfigures it as an output at 0; releasing it
// reconfigures it back to an input, which is how an open-collector line is
// emulated on push-pull GPIO. Clock edges are delivered by the gpiod event
// goroutine, in order.
type HostHAL struct {
	chipName string
	offsets  [pkg.NumLines]int
	consumer string

	chip     *gpiod.Chip
	lines    [pkg.NumLines]*gpiod.Line
	driven   [pkg.NumLines]bool
	handlers hal.Handlers

	// State
	mu sync.Mutex
}

// Option configures a HostHAL.
type Option func(*HostHAL)

// WithConsumer sets the consumer label reported for the requested lines.
func WithConsumer(name string) Option {
	return func(h *HostHAL) {
		h.consumer = name
	}
}

// NewHostHAL creates a Linux host HAL for the clock and data line offsets
// on the named chip (e.g. "gpiochip0").
func NewHostHAL(chip string, clock, data int, options ...Option) *HostHAL {
	h := &HostHAL{
		chipName: chip,
		consumer: DefaultConsumer,
	}
	h.offsets[pkg.LineClock] = clock
	h.offsets[pkg.LineData] = data
	for _, option := range options {
		option(h)
	}
	return h
}

// =============================================================================
// Lifecycle Methods
// =============================================================================

// Init opens the chip and requests both lines as released inputs.
func (h *HostHAL) Init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.chip != nil {
		return pkg.ErrAlreadyRunning
	}

	chip, err := gpiod.NewChip(h.chipName, gpiod.WithConsumer(h.consumer))
	if err != nil {
		return fmt.Errorf("open %s: %w", h.chipName, err)
	}

	data, err := chip.RequestLine(h.offsets[pkg.LineData],
		gpiod.AsInput,
		gpiod.WithPullUp)
	if err != nil {
		chip.Close()
		return fmt.Errorf("request data line %d: %w", h.offsets[pkg.LineData], err)
	}

	clock, err := chip.RequestLine(h.offsets[pkg.LineClock],
		gpiod.AsInput,
		gpiod.WithPullUp,
		gpiod.WithBothEdges,
		gpiod.WithEventHandler(h.onEvent))
	if err != nil {
		data.Close()
		chip.Close()
		return fmt.Errorf("request clock line %d: %w", h.offsets[pkg.LineClock], err)
	}

	h.chip = chip
	h.lines[pkg.LineClock] = clock
	h.lines[pkg.LineData] = data
	h.driven = [pkg.NumLines]bool{}

	pkg.LogDebug(pkg.ComponentHAL, "Linux host HAL initialized",
		"chip", h.chipName,
		"clock", h.offsets[pkg.LineClock],
		"data", h.offsets[pkg.LineData])
	return nil
}

// Close releases both lines and closes the chip.
func (h *HostHAL) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.chip == nil {
		return nil
	}

	var firstErr error
	for i, line := range h.lines {
		if line == nil {
			continue
		}
		if err := line.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		h.lines[i] = nil
	}
	if err := h.chip.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	h.chip = nil
	h.handlers.Clear()

	pkg.LogDebug(pkg.ComponentHAL, "Linux host HAL closed")
	return firstErr
}

// =============================================================================
// Line Access
// =============================================================================

// GetLevel samples line. Read errors are logged and reported as High.
func (h *HostHAL) GetLevel(line pkg.Line) pkg.Level {
	if !line.Valid() {
		return pkg.High
	}
	h.mu.Lock()
	l := h.lines[line]
	h.mu.Unlock()
	if l == nil {
		return pkg.High
	}

	v, err := l.Value()
	if err != nil {
		pkg.LogWarn(pkg.ComponentHAL, "read failed", "line", line, "error", err)
		return pkg.High
	}
	return pkg.LevelOf(v != 0)
}

// SetLevel drives line low or releases it.
func (h *HostHAL) SetLevel(line pkg.Line, level pkg.Level) error {
	if !line.Valid() {
		return pkg.ErrInvalidLine
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	l := h.lines[line]
	if l == nil {
		return pkg.ErrNotRunning
	}

	drive := level == pkg.Low
	if drive == h.driven[line] {
		return nil
	}

	var err error
	switch {
	case drive && line == pkg.LineClock:
		err = l.Reconfigure(gpiod.WithoutEdges, gpiod.AsOutput(0))
	case drive:
		err = l.Reconfigure(gpiod.AsOutput(0))
	case line == pkg.LineClock:
		err = l.Reconfigure(gpiod.AsInput, gpiod.WithPullUp, gpiod.WithBothEdges)
	default:
		err = l.Reconfigure(gpiod.AsInput, gpiod.WithPullUp)
	}
	if err != nil {
		return fmt.Errorf("%v line: %w", line, err)
	}
	h.driven[line] = drive
	return nil
}

// OnEdge registers handler for edges on line. Only the clock line reports
// edges.
func (h *HostHAL) OnEdge(line pkg.Line, edge pkg.Edge, handler hal.EdgeHandler) error {
	if line != pkg.LineClock {
		return pkg.ErrInvalidLine
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.handlers.Add(line, edge, handler)
}

// DelayMicroseconds sleeps on the monotonic clock.
func (h *HostHAL) DelayMicroseconds(us uint32) {
	nanosleep(int64(us) * 1000)
}

// onEvent runs on the gpiod event goroutine.
func (h *HostHAL) onEvent(evt gpiod.LineEvent) {
	var edge pkg.Edge
	switch evt.Type {
	case gpiod.LineEventFallingEdge:
		edge = pkg.EdgeFalling
	case gpiod.LineEventRisingEdge:
		edge = pkg.EdgeRising
	default:
		return
	}

	h.mu.Lock()
	handlers := h.handlers.Get(pkg.LineClock, edge)
	h.mu.Unlock()

	hal.Dispatch(handlers, pkg.LineClock, edge)
}
