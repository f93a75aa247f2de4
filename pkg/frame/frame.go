package frame

import (
	"fmt"
	"math/bits"

	"github.com/ardnew/softps2/pkg"
)

// Bit positions within a frame.
const (
	PosStart  = 0  // Start bit, always 0
	PosData   = 1  // First data bit (LSB)
	PosParity = 9  // Odd parity over the data bits
	PosStop   = 10 // Stop bit, always 1
	PosAck    = 11 // Host-to-device only: ack slot after the stop bit
)

// Size is the number of bits in a frame.
const Size = 11

// Frame holds an encoded PS/2 frame. Bit n of the value is the bit
// transmitted on the line in position n.
type Frame uint16

// Encode returns the frame for b: start 0, b LSB first, odd parity, stop 1.
func Encode(b byte) Frame {
	f := Frame(b) << PosData
	f |= Frame(Parity(b)) << PosParity
	f |= 1 << PosStop
	return f
}

// Parity returns the odd-parity bit for b: 1 when b has an even number of
// set bits, so that data plus parity always holds an odd count.
func Parity(b byte) uint8 {
	return uint8(bits.OnesCount8(b)&1) ^ 1
}

// CheckParity reports whether p is the correct odd-parity bit for b.
func CheckParity(b byte, p uint8) bool {
	return Parity(b) == p&1
}

// Bit returns the level of the bit at pos. Positions outside the frame
// read as High (an idle, released line).
func (f Frame) Bit(pos int) pkg.Level {
	if pos < 0 || pos >= Size {
		return pkg.High
	}
	return pkg.Level(f>>pos) & 1
}

// With returns f with the bit at pos set to level.
func (f Frame) With(pos int, level pkg.Level) Frame {
	if pos < 0 || pos >= Size {
		return f
	}
	if level == pkg.Low {
		return f &^ (1 << pos)
	}
	return f | 1<<pos
}

// Data returns the 8 data bits carried by f.
func (f Frame) Data() byte {
	return byte(f >> PosData)
}

// Validate checks the start, parity and stop bits of f.
func (f Frame) Validate() error {
	if f.Bit(PosStart) != pkg.Low {
		return pkg.ErrStartBit
	}
	if !CheckParity(f.Data(), uint8(f.Bit(PosParity))) {
		return pkg.ErrParity
	}
	if f.Bit(PosStop) != pkg.High {
		return pkg.ErrStopBit
	}
	return nil
}

// Decode validates f and returns its data byte.
func Decode(f Frame) (byte, error) {
	if err := f.Validate(); err != nil {
		return 0, fmt.Errorf("frame %#03x: %w", uint16(f), err)
	}
	return f.Data(), nil
}

// String returns the frame bits in line order, start bit first.
func (f Frame) String() string {
	var buf [Size]byte
	for i := range buf {
		buf[i] = '0' + byte(f.Bit(i))
	}
	return string(buf[:])
}
