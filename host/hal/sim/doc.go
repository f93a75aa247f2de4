// Package sim provides a simulated PS/2 bus.
//
// A [Bus] models the cable between a host and a device: two open-collector
// lines with pull-ups, where a line is low whenever either side pulls it
// low. [Bus.Host] returns a [github.com/ardnew/softps2/host/hal.HostHAL] for
// the host engine and [Bus.Device] a
// [github.com/ardnew/softps2/device/hal.DeviceHAL] for the device
// emulator.
//
// Every drive and every host delay is appended to a trace ([Bus.Events]) so
// tests can check the exact line-level sequence of a transaction:
//
//	bus := sim.New(sim.WithRealTime(false))
//	h := host.New(bus.Host())
//	...
//	for _, ev := range bus.Events() {
//	    if ev.Kind == sim.EventDrive && ev.Side == sim.SideHost {
//	        fmt.Println(ev.Line, ev.Level)
//	    }
//	}
//
// Edge handlers run synchronously on the goroutine that caused the edge,
// which makes device-driven clock pulses behave like interrupts that
// complete before the device's next step.
package sim
