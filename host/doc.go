// Package host implements a PS/2 host: the two-wire protocol engine a
// keyboard or mouse driver sits on.
//
// It is platform-agnostic and interacts with hardware via the [hal.HostHAL]
// interface defined in the github.com/ardnew/softps2/host/hal package. The
// HAL drives and samples the clock and data lines and reports clock edges;
// the engine does everything else.
//
// # Architecture
//
// The engine is organized around the clock edge handlers:
//
//   - The receiver samples the data line on every falling clock edge and
//     assembles 11-bit frames (start, 8 data bits LSB first, odd parity,
//     stop)
//   - The transmitter runs host-to-device writes: it holds the clock low
//     for the request-to-send time, puts the start bit on the data line,
//     releases the clock and then outputs one bit per falling edge the
//     device generates, sampling the ack on the rising edge after the stop
//     bit
//   - Delivery hands completed bytes either to a registered [Callback] or
//     to a queue drained by [Host.ReadByte]
//
// Edge handlers are serialized by one critical section, so a HAL may deliver
// edges from any goroutine. On hosted platforms this is a mutex; under tinygo
// it masks interrupts, the edge path does not log, and the read queue is a
// fixed ring that drops (and counts) bytes once full. Writes, including the resend requests the receiver issues,
// run on a dedicated goroutine so the request-to-send delay never blocks an
// edge handler.
//
// # Error Recovery
//
// A frame with a bad start, parity or stop bit is dropped and the engine
// writes the resend command (0xFE). Only one resend is outstanding at a
// time. After [Config.MaxResends] consecutive resends without a good frame
// the engine reports [pkg.ErrDesync] and stops asking until the line
// recovers on its own.
//
// # Example
//
//	h := host.New(hal, host.WithReadTimeout(time.Second))
//	if err := h.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer h.Stop()
//
//	// Reset the keyboard
//	if err := h.WriteByte(0xFF); err != nil {
//	    log.Fatal(err)
//	}
//	b, err := h.ReadByte()
//
// A simulated bus for testing is available in
// [github.com/ardnew/softps2/host/hal/sim], and a device emulator to attach
// to it in [github.com/ardnew/softps2/device].
package host
