package device

import (
	"github.com/ardnew/softps2/pkg"
	"github.com/ardnew/softps2/pkg/frame"
)

// send waits for the bus to stay idle, then transmits f. A frame inhibited
// before its start bit is held and sent after the host's write, following
// any retransmission the write asks for.
func (d *Device) send(f frame.Frame) error {
	d.hal.Delay(max(MinIdle, 2*d.halfPeriod))
	if d.pollSeized() {
		d.held, d.hasHeld = f, true
		d.stats.aborted.Add(1)
		pkg.LogDebug(pkg.ComponentDevice, "frame held for host write", "frame", f.String())
		return pkg.ErrAborted
	}
	return d.transmit(f)
}

// transmit clocks f out to the host, start bit first. The host may inhibit
// the bus by holding the clock low; an inhibit seen before the stop bit is
// clocked abandons the frame, which is retransmitted after the host's
// write.
func (d *Device) transmit(f frame.Frame) error {
	d.last = frame.Encode(f.Data())
	d.hasLast = true

	for pos := frame.PosStart; pos < frame.Size; pos++ {
		d.hal.SetLevel(pkg.LineData, f.Bit(pos))
		d.hal.Delay(d.halfPeriod)

		// Last chance to yield before the host samples this bit
		if d.pollSeized() {
			return d.abort(pos)
		}
		d.hal.SetLevel(pkg.LineClock, pkg.Low)
		d.hal.Delay(d.halfPeriod)
		d.hal.SetLevel(pkg.LineClock, pkg.High)
	}
	// The host has sampled the stop bit; an inhibit from here on belongs to
	// its next write and is serviced by the run loop.
	d.hal.SetLevel(pkg.LineData, pkg.High)

	d.stats.framesSent.Add(1)
	pkg.LogDebug(pkg.ComponentDevice, "frame sent", "frame", f.String())
	return nil
}

func (d *Device) abort(pos int) error {
	d.hal.SetLevel(pkg.LineData, pkg.High)
	d.hal.SetLevel(pkg.LineClock, pkg.High)
	d.retry = true
	d.stats.aborted.Add(1)
	pkg.LogDebug(pkg.ComponentDevice, "frame aborted by host", "pos", pos)
	return pkg.ErrAborted
}

// receive clocks in a host-to-device frame. The host has already put the
// start bit on the data line and released the clock. For each remaining
// bit the device pulls the clock low, samples the data line and releases
// the clock. After the stop bit it drives the ack bit before the final
// rising edge. A frame that was not acknowledged returns pkg.ErrNack.
func (d *Device) receive() (byte, error) {
	d.seized = false
	d.hal.ClockSeized()
	ack := d.ack.Load()

	var f frame.Frame // start bit 0
	var err error
	for pos := frame.PosData; pos <= frame.PosStop; pos++ {
		d.hal.Delay(d.halfPeriod)
		d.hal.SetLevel(pkg.LineClock, pkg.Low)
		f = f.With(pos, d.hal.GetLevel(pkg.LineData))

		if pos == frame.PosStop {
			err = f.Validate()
			if err == nil && ack {
				d.hal.SetLevel(pkg.LineData, pkg.Low)
			}
		}

		d.hal.Delay(d.halfPeriod)
		d.hal.SetLevel(pkg.LineClock, pkg.High)
	}
	d.hal.Delay(d.halfPeriod)
	d.hal.SetLevel(pkg.LineData, pkg.High)

	if err != nil {
		d.stats.nacked.Add(1)
		return 0, err
	}
	d.stats.framesReceived.Add(1)
	if !ack {
		d.stats.nacked.Add(1)
		return f.Data(), pkg.ErrNack
	}

	b := f.Data()
	pkg.LogDebug(pkg.ComponentDevice, "frame received", "byte", b)
	return b, nil
}
