//go:build tinygo

package tinygo

import (
	"context"
	"time"

	"machine"

	"github.com/ardnew/softps2/host/hal"
	"github.com/ardnew/softps2/pkg"
)

// HostHAL implements hal.HostHAL on a microcontroller using TinyGo's
// machine package.
//
// Clock edges arrive through a pin change interrupt and the handlers run in
// interrupt context. Register handlers with OnEdge before edges can occur;
// the registry is not locked against the interrupt.
type HostHAL struct {
	pins     [pkg.NumLines]machine.Pin
	handlers hal.Handlers
	driven   [pkg.NumLines]bool
}

// NewHostHAL creates a host HAL using the clock and data pins.
func NewHostHAL(clock, data machine.Pin) *HostHAL {
	h := &HostHAL{}
	h.pins[pkg.LineClock] = clock
	h.pins[pkg.LineData] = data
	return h
}

// Init releases both pins and enables the clock interrupt.
func (h *HostHAL) Init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for line := range h.pins {
		if err := h.release(pkg.Line(line)); err != nil {
			return err
		}
	}
	return nil
}

// Close disables the clock interrupt and releases both pins.
func (h *HostHAL) Close() error {
	h.pins[pkg.LineClock].SetInterrupt(0, nil)
	for _, pin := range h.pins {
		pin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	}
	h.driven = [pkg.NumLines]bool{}
	h.handlers.Clear()
	return nil
}

// GetLevel samples line.
func (h *HostHAL) GetLevel(line pkg.Line) pkg.Level {
	if !line.Valid() {
		return pkg.High
	}
	return pkg.LevelOf(h.pins[line].Get())
}

// SetLevel drives line low or releases it. The clock interrupt is disabled
// while the clock is driven.
func (h *HostHAL) SetLevel(line pkg.Line, level pkg.Level) error {
	if !line.Valid() {
		return pkg.ErrInvalidLine
	}
	if level == pkg.High {
		return h.release(line)
	}
	if h.driven[line] {
		return nil
	}
	if line == pkg.LineClock {
		h.pins[line].SetInterrupt(0, nil)
	}
	pin := h.pins[line]
	pin.Low()
	pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	pin.Low()
	h.driven[line] = true
	return nil
}

// OnEdge registers handler for edges on line. Only the clock line reports
// edges.
func (h *HostHAL) OnEdge(line pkg.Line, edge pkg.Edge, handler hal.EdgeHandler) error {
	if line != pkg.LineClock {
		return pkg.ErrInvalidLine
	}
	return h.handlers.Add(line, edge, handler)
}

// DelayMicroseconds sleeps for us microseconds.
func (h *HostHAL) DelayMicroseconds(us uint32) {
	time.Sleep(time.Duration(us) * time.Microsecond)
}

func (h *HostHAL) release(line pkg.Line) error {
	pin := h.pins[line]
	pin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	h.driven[line] = false
	if line != pkg.LineClock {
		return nil
	}
	return pin.SetInterrupt(machine.PinToggle, h.onToggle)
}

// onToggle runs in interrupt context.
func (h *HostHAL) onToggle(pin machine.Pin) {
	edge := pkg.EdgeTo(pkg.LevelOf(pin.Get()))
	hal.Dispatch(h.handlers.Get(pkg.LineClock, edge), pkg.LineClock, edge)
}
