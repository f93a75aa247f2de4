package host

import (
	"fmt"
	"time"

	"github.com/ardnew/softps2/pkg"
)

// CmdResend is the command byte the engine writes to ask the device to
// retransmit its last byte.
const CmdResend = pkg.CmdResend

// Timing defaults.
const (
	DefaultReadTimeout   = 2 * time.Second       // ReadByte wait
	DefaultWriteTimeout  = 50 * time.Millisecond // Device must clock a write out within this
	DefaultRequestToSend = 110 * time.Microsecond
	MinRequestToSend     = 100 * time.Microsecond // Shortest clock inhibit a device must honor
)

// DefaultMaxResends is the number of consecutive resend requests issued
// before the engine reports a desynchronized line.
const DefaultMaxResends = 3

// Transfer modes.
const (
	ModeRead  Mode = 0 // Falling clock edges sample device-to-host frames
	ModeWrite Mode = 1 // Falling clock edges output a host-to-device frame
)

// Mode is the direction the engine currently owns the bus in.
type Mode uint8

// String returns a human-readable mode description.
func (m Mode) String() string {
	switch m {
	case ModeRead:
		return "Read"
	case ModeWrite:
		return "Write"
	default:
		return fmt.Sprintf("Unknown Mode (%d)", m)
	}
}
