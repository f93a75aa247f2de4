// Package frame implements the PS/2 bit codec.
//
// A PS/2 byte travels as an 11-bit frame, one bit per clock period:
//
//	pos:  0     1..8            9        10
//	      start data (LSB 1st)  parity   stop
//	      0     b0 .. b7        odd      1
//
// Host-to-device writes add a twelfth slot, [PosAck], in which the device
// answers 0 to accept the frame.
//
// All functions are pure and safe to call from edge-handler context.
package frame
