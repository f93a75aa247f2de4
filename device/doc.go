// Package device emulates the device end of a PS/2 link.
//
// A [Device] drives the clock the way a keyboard or mouse does: it sends
// frames to the host, notices the host's request-to-send, clocks in the
// host's frame, validates it and acknowledges it. It answers the resend
// command (0xFE) by retransmitting its last byte, and when the host inhibits
// the bus in the middle of a frame it abandons the frame and retransmits it
// after the host's write.
//
// Before each new frame the device waits for the bus to stay idle for
// [MinIdle] or one clock period, whichever is longer. A frame the host
// inhibits during that wait is held and sent after the host's write,
// behind any retransmission the write asks for.
//
// The emulator talks to the bus through [hal.DeviceHAL]. Paired with the
// simulated bus in [github.com/ardnew/softps2/host/hal/sim] it gives the
// host engine a complete link to run against:
//
//	bus := sim.New()
//	dev := device.New(bus.Device())
//	dev.Start(ctx)
//	dev.Send(ctx, 0x1C)
//
// [Device.SendFrame] puts an arbitrary frame on the line, so tests can inject
// start, parity and stop bit errors.
package device
