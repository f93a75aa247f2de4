package periph

import (
	"context"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"

	"github.com/ardnew/softps2/host/hal"
	"github.com/ardnew/softps2/pkg"
)

// DefaultPollInterval bounds how long the edge watcher blocks in
// WaitForEdge before rechecking for shutdown.
const DefaultPollInterval = 10 * time.Millisecond

// HostHAL implements hal.HostHAL over a pair of periph.io GPIO pins.
//
// A watcher goroutine waits for clock edges and reads the resulting level
// to tell falling from rising. If the clock completed a full pulse before
// the watcher could read it, the level is unchanged and the pulse is
// reported as both edges, in order.
type HostHAL struct {
	pins [pkg.NumLines]gpio.PinIO
	poll time.Duration

	mu       sync.Mutex
	handlers hal.Handlers
	driven   [pkg.NumLines]bool
	last     pkg.Level

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a HostHAL.
type Option func(*HostHAL)

// WithPollInterval sets the WaitForEdge timeout used by the edge watcher.
func WithPollInterval(d time.Duration) Option {
	return func(h *HostHAL) {
		if d > 0 {
			h.poll = d
		}
	}
}

// NewHostHAL creates a host HAL using clock and data.
func NewHostHAL(clock, data gpio.PinIO, options ...Option) *HostHAL {
	h := &HostHAL{poll: DefaultPollInterval}
	h.pins[pkg.LineClock] = clock
	h.pins[pkg.LineData] = data
	for _, option := range options {
		option(h)
	}
	return h
}

// Init releases both pins with pull-ups, enables clock edge detection and
// starts the edge watcher. The watcher stops when ctx is canceled or Close
// is called.
func (h *HostHAL) Init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cancel != nil {
		return pkg.ErrAlreadyRunning
	}
	for line := range h.pins {
		if err := h.release(pkg.Line(line)); err != nil {
			return err
		}
	}
	h.last = pkg.LevelOf(bool(h.pins[pkg.LineClock].Read()))

	watchCtx, cancel := context.WithCancel(ctx)
	h.cancel = cancel
	h.wg.Add(1)
	go h.watch(watchCtx)

	pkg.LogDebug(pkg.ComponentHAL, "periph host HAL initialized",
		"clock", h.pins[pkg.LineClock].Name(),
		"data", h.pins[pkg.LineData].Name())
	return nil
}

// Close stops the edge watcher and releases both pins.
func (h *HostHAL) Close() error {
	h.mu.Lock()
	cancel := h.cancel
	h.cancel = nil
	h.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	h.wg.Wait()

	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers.Clear()

	var firstErr error
	for _, pin := range h.pins {
		if err := pin.In(gpio.PullUp, gpio.NoEdge); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	h.driven = [pkg.NumLines]bool{}
	return firstErr
}

// GetLevel samples line.
func (h *HostHAL) GetLevel(line pkg.Line) pkg.Level {
	if !line.Valid() {
		return pkg.High
	}
	return pkg.LevelOf(bool(h.pins[line].Read()))
}

// SetLevel drives line low or releases it.
func (h *HostHAL) SetLevel(line pkg.Line, level pkg.Level) error {
	if !line.Valid() {
		return pkg.ErrInvalidLine
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if level == pkg.High {
		return h.release(line)
	}
	if err := h.pins[line].Out(gpio.Low); err != nil {
		return fmt.Errorf("%v line: %w", line, err)
	}
	h.driven[line] = true
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

// DelayMicroseconds busy-waits for us microseconds.
func (h *HostHAL) DelayMicroseconds(us uint32) {
	hal.Spin(time.Duration(us) * time.Microsecond)
}

// release must be called with mu held.
func (h *HostHAL) release(line pkg.Line) error {
	edge := gpio.NoEdge
	if line == pkg.LineClock {
		edge = gpio.BothEdges
	}
	if err := h.pins[line].In(gpio.PullUp, edge); err != nil {
		return fmt.Errorf("%v line: %w", line, err)
	}
	h.driven[line] = false
	if line == pkg.LineClock {
		h.last = pkg.LevelOf(bool(h.pins[line].Read()))
	}
	return nil
}

func (h *HostHAL) watch(ctx context.Context) {
	defer h.wg.Done()

	clock := h.pins[pkg.LineClock]
	for ctx.Err() == nil {
		h.mu.Lock()
		driven := h.driven[pkg.LineClock]
		h.mu.Unlock()

		if driven {
			time.Sleep(h.poll)
			continue
		}
		if !clock.WaitForEdge(h.poll) {
			continue
		}
		h.edge(clock.Read())
	}
}

// edge dispatches the transition to level observed after an edge event.
func (h *HostHAL) edge(l gpio.Level) {
	level := pkg.LevelOf(bool(l))

	h.mu.Lock()
	if h.driven[pkg.LineClock] {
		h.mu.Unlock()
		return
	}
	var edges []pkg.Edge
	if level != h.last {
		edges = []pkg.Edge{pkg.EdgeTo(level)}
	} else {
		// Missed pulse.
		edges = []pkg.Edge{pkg.EdgeTo(pkg.LevelOf(level == pkg.Low)), pkg.EdgeTo(level)}
	}
	h.last = level
	handlers := make([][]hal.EdgeHandler, len(edges))
	for i, e := range edges {
		handlers[i] = h.handlers.Get(pkg.LineClock, e)
	}
	h.mu.Unlock()

	for i, e := range edges {
		hal.Dispatch(handlers[i], pkg.LineClock, e)
	}
}
