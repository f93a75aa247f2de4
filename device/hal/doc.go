// Package hal defines the line interface the device emulator drives.
//
// The emulator owns the clock, so the interface has no edge callbacks.
// Instead it reports host activity through a coalesced [DeviceHAL.Changed]
// channel and a latched [DeviceHAL.ClockSeized] flag that records a host
// clock inhibit even when it is too short to be observed by polling.
//
// The simulated bus in [github.com/ardnew/softps2/host/hal/sim] provides an
// implementation.
package hal
