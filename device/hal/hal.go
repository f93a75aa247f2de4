package hal

import (
	"context"
	"time"

	"github.com/ardnew/softps2/pkg"
)

// DeviceHAL defines the Hardware Abstraction Layer interface for the device
// side of a PS/2 bus.
//
// The device owns the clock: it drives every clock pulse, both when it sends
// a frame and when it clocks in a frame written by the host. The host may
// interrupt at any time by holding the clock low, which the HAL reports
// through [DeviceHAL.ClockSeized].
type DeviceHAL interface {
	// Init releases both lines. The context bounds any background activity.
	Init(ctx context.Context) error

	// GetLevel samples the current level of line.
	GetLevel(line pkg.Line) pkg.Level

	// SetLevel drives line low (pkg.Low) or releases it (pkg.High).
	SetLevel(line pkg.Line, level pkg.Level) error

	// Changed returns a coalesced notification that the host changed a
	// line. Receivers must re-check line state after waking.
	Changed() <-chan struct{}

	// ClockSeized reports whether the host pulled the clock line low since
	// the previous call, and clears the latch.
	ClockSeized() bool

	// Delay blocks for d. A zero or negative d returns immediately.
	Delay(d time.Duration)

	// Close releases both lines.
	Close() error
}
