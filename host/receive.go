package host

import (
	"github.com/ardnew/softps2/pkg"
	"github.com/ardnew/softps2/pkg/frame"
)

// rxStatus is the outcome of sampling one bit.
type rxStatus uint8

const (
	rxBusy        rxStatus = iota // Frame in progress
	rxDone                        // Byte complete
	rxStartError                  // Start bit was 1
	rxParityError                 // Parity bit did not give odd parity
	rxStopError                   // Stop bit was 0
)

// err returns the framing error for s, or nil.
func (s rxStatus) err() error {
	switch s {
	case rxStartError:
		return pkg.ErrStartBit
	case rxParityError:
		return pkg.ErrParity
	case rxStopError:
		return pkg.ErrStopBit
	default:
		return nil
	}
}

// receiver accumulates a device-to-host frame one falling clock edge at a
// time. On a framing error or a complete byte it returns to position 0.
type receiver struct {
	data byte
	pos  int
}

// sample consumes the data line level for the current position.
func (r *receiver) sample(level pkg.Level) (byte, rxStatus) {
	switch {
	case r.pos == frame.PosStart:
		if level != pkg.Low {
			return 0, rxStartError
		}
		r.data = 0
		r.pos = frame.PosData

	case r.pos < frame.PosParity:
		if level == pkg.High {
			r.data |= 1 << (r.pos - frame.PosData)
		}
		r.pos++

	case r.pos == frame.PosParity:
		if !frame.CheckParity(r.data, uint8(level)) {
			r.reset()
			return 0, rxParityError
		}
		r.pos++

	default:
		b := r.data
		r.reset()
		if level != pkg.High {
			return 0, rxStopError
		}
		return b, rxDone
	}
	return 0, rxBusy
}

// inProgress reports whether a frame has been partially received.
func (r *receiver) inProgress() bool {
	return r.pos != frame.PosStart
}

func (r *receiver) reset() {
	r.data = 0
	r.pos = frame.PosStart
}
