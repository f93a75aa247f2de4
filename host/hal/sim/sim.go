package sim

import (
	"context"
	"sync"
	"time"

	devhal "github.com/ardnew/softps2/device/hal"
	"github.com/ardnew/softps2/host/hal"
	"github.com/ardnew/softps2/pkg"
)

var (
	_ hal.HostHAL      = (*HostPort)(nil) // compile time guarantee of interface implementation.
	_ devhal.DeviceHAL = (*DevicePort)(nil)
)

// Side identifies which end of the bus acts on a line.
type Side uint8

// Bus sides.
const (
	SideHost Side = iota
	SideDevice
)

// String returns the side name.
func (s Side) String() string {
	if s == SideHost {
		return "host"
	}
	return "device"
}

// EventKind classifies a recorded bus event.
type EventKind uint8

// Event kinds.
const (
	EventDrive EventKind = iota // A side drove or released a line
	EventDelay                  // The host called DelayMicroseconds
)

// Event is one entry of the bus trace.
type Event struct {
	Kind  EventKind
	Side  Side
	Line  pkg.Line
	Level pkg.Level     // Level requested by Side (EventDrive)
	Bus   pkg.Level     // Resulting wired-AND level of Line (EventDrive)
	Delay time.Duration // Requested delay (EventDelay)
}

// Bus simulates a PS/2 cable: two open-collector lines with pull-ups shared
// by a host and a device. A line reads Low whenever either side drives it
// low.
//
// Edge handlers registered through the host port run synchronously on the
// goroutine whose SetLevel call changed the line, after the bus lock is
// released, so handlers may sample lines and drive the other line. A
// change to a line does not complete until its handlers return, so edges on
// one line are delivered in order. A handler must not drive the line it is
// registered on.
type Bus struct {
	edge     [pkg.NumLines]sync.Mutex // orders changes with their dispatch
	mutex    sync.Mutex
	drive    [2][pkg.NumLines]pkg.Level // indexed by Side
	handlers hal.Handlers
	events   []Event
	seized   bool
	notify   chan struct{}
	realTime bool

	host   HostPort
	device DevicePort
}

// Option configures a Bus.
type Option func(*Bus)

// WithRealTime makes host delays sleep for their requested duration.
// Without it DelayMicroseconds only records the delay.
func WithRealTime(enable bool) Option {
	return func(b *Bus) {
		b.realTime = enable
	}
}

// New creates a simulated bus with both lines released.
func New(options ...Option) *Bus {
	b := &Bus{
		notify:   make(chan struct{}, 1),
		realTime: true,
	}
	for i := range b.drive {
		for j := range b.drive[i] {
			b.drive[i][j] = pkg.High
		}
	}
	for _, option := range options {
		option(b)
	}
	b.host.bus = b
	b.device.bus = b
	return b
}

// Host returns the host end of the bus.
func (b *Bus) Host() *HostPort { return &b.host }

// Device returns the device end of the bus.
func (b *Bus) Device() *DevicePort { return &b.device }

// Level returns the wired-AND level of line.
func (b *Bus) Level(line pkg.Line) pkg.Level {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.levelLocked(line)
}

// Driven returns the level side is currently driving on line.
func (b *Bus) Driven(side Side, line pkg.Line) pkg.Level {
	if !line.Valid() {
		return pkg.High
	}
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.drive[side][line]
}

// Events returns a copy of the recorded trace.
func (b *Bus) Events() []Event {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	out := make([]Event, len(b.events))
	copy(out, b.events)
	return out
}

// ResetEvents discards the recorded trace.
func (b *Bus) ResetEvents() {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.events = b.events[:0]
}

func (b *Bus) levelLocked(line pkg.Line) pkg.Level {
	if !line.Valid() {
		return pkg.High
	}
	return b.drive[SideHost][line] & b.drive[SideDevice][line]
}

// set drives line from side and dispatches the resulting edge, if any.
func (b *Bus) set(side Side, line pkg.Line, level pkg.Level) error {
	if !line.Valid() {
		return pkg.ErrInvalidLine
	}
	if level != pkg.Low {
		level = pkg.High
	}

	b.edge[line].Lock()
	defer b.edge[line].Unlock()

	b.mutex.Lock()
	before := b.levelLocked(line)
	b.drive[side][line] = level
	after := b.levelLocked(line)
	b.events = append(b.events, Event{
		Kind:  EventDrive,
		Side:  side,
		Line:  line,
		Level: level,
		Bus:   after,
	})

	var handlers []hal.EdgeHandler
	edge := pkg.EdgeTo(after)
	if before != after {
		handlers = b.handlers.Get(line, edge)
	}
	if side == SideHost {
		if line == pkg.LineClock && level == pkg.Low {
			b.seized = true
		}
		select {
		case b.notify <- struct{}{}:
		default:
		}
	}
	b.mutex.Unlock()

	hal.Dispatch(handlers, line, edge)
	return nil
}

// =============================================================================
// Host Port
// =============================================================================

// HostPort is the host end of a simulated bus. It implements hal.HostHAL.
type HostPort struct {
	bus *Bus
}

// Init releases both lines.
func (p *HostPort) Init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.bus.set(SideHost, pkg.LineData, pkg.High); err != nil {
		return err
	}
	return p.bus.set(SideHost, pkg.LineClock, pkg.High)
}

// GetLevel returns the wired-AND level of line.
func (p *HostPort) GetLevel(line pkg.Line) pkg.Level {
	return p.bus.Level(line)
}

// SetLevel drives or releases line from the host side.
func (p *HostPort) SetLevel(line pkg.Line, level pkg.Level) error {
	return p.bus.set(SideHost, line, level)
}

// OnEdge registers handler for edges on line.
func (p *HostPort) OnEdge(line pkg.Line, edge pkg.Edge, handler hal.EdgeHandler) error {
	p.bus.mutex.Lock()
	defer p.bus.mutex.Unlock()
	return p.bus.handlers.Add(line, edge, handler)
}

// DelayMicroseconds records the delay and, in real-time mode, sleeps.
func (p *HostPort) DelayMicroseconds(us uint32) {
	d := time.Duration(us) * time.Microsecond
	p.bus.mutex.Lock()
	p.bus.events = append(p.bus.events, Event{Kind: EventDelay, Side: SideHost, Delay: d})
	realTime := p.bus.realTime
	p.bus.mutex.Unlock()
	if realTime {
		time.Sleep(d)
	}
}

// Close removes every edge handler and releases both lines.
func (p *HostPort) Close() error {
	p.bus.mutex.Lock()
	p.bus.handlers.Clear()
	p.bus.mutex.Unlock()
	if err := p.bus.set(SideHost, pkg.LineData, pkg.High); err != nil {
		return err
	}
	return p.bus.set(SideHost, pkg.LineClock, pkg.High)
}

// =============================================================================
// Device Port
// =============================================================================

// DevicePort is the device end of a simulated bus. It implements
// device/hal.DeviceHAL.
type DevicePort struct {
	bus *Bus
}

// Init releases both lines and clears the seize latch.
func (p *DevicePort) Init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.ClockSeized()
	if err := p.bus.set(SideDevice, pkg.LineData, pkg.High); err != nil {
		return err
	}
	return p.bus.set(SideDevice, pkg.LineClock, pkg.High)
}

// GetLevel returns the wired-AND level of line.
func (p *DevicePort) GetLevel(line pkg.Line) pkg.Level {
	return p.bus.Level(line)
}

// SetLevel drives or releases line from the device side.
func (p *DevicePort) SetLevel(line pkg.Line, level pkg.Level) error {
	return p.bus.set(SideDevice, line, level)
}

// Changed returns the coalesced host activity notification.
func (p *DevicePort) Changed() <-chan struct{} {
	return p.bus.notify
}

// ClockSeized reports and clears the host clock-low latch.
func (p *DevicePort) ClockSeized() bool {
	p.bus.mutex.Lock()
	defer p.bus.mutex.Unlock()
	seized := p.bus.seized
	p.bus.seized = false
	return seized
}

// Delay sleeps for d.
func (p *DevicePort) Delay(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}

// Close releases both lines.
func (p *DevicePort) Close() error {
	if err := p.bus.set(SideDevice, pkg.LineData, pkg.High); err != nil {
		return err
	}
	return p.bus.set(SideDevice, pkg.LineClock, pkg.High)
}
