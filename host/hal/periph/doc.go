// Package periph provides a PS/2 host HAL implementation over periph.io
// GPIO pins.
//
// Any gpio.PinIO works, so the same HAL runs on every board periph.io
// supports. Register the board drivers with periph.io/x/host/v3 and look
// pins up by name (ps2host is github.com/ardnew/softps2/host):
//
//	if _, err := host.Init(); err != nil {
//	    log.Fatal(err)
//	}
//	clock := gpioreg.ByName("GPIO17")
//	data := gpioreg.ByName("GPIO27")
//	engine := ps2host.New(periph.NewHostHAL(clock, data))
//
// Edge detection goes through gpio.PinIn.WaitForEdge, which is serviced by
// a watcher goroutine. User space edge latency limits the clock rate this
// HAL can follow reliably; a pulse shorter than that latency is still
// reported as a falling edge followed by a rising edge.
package periph
