package host

import (
	"context"
	"time"

	"github.com/ardnew/softps2/pkg"
	"github.com/ardnew/softps2/pkg/frame"
)

// transmitter holds the frame of the host-to-device write in flight. Its
// position is the next bit to put on the data line; position frame.PosAck
// means every bit went out and the next rising edge carries the ack.
type transmitter struct {
	frame  frame.Frame
	pos    int
	active bool
}

func (t *transmitter) load(b byte) {
	t.frame = frame.Encode(b)
	t.pos = frame.PosStart
	t.active = true
}

// start returns the start bit level and moves to the first data bit.
func (t *transmitter) start() pkg.Level {
	t.pos = frame.PosData
	return t.frame.Bit(frame.PosStart)
}

// next returns the level to output on a falling clock edge. It reports
// false once the stop bit has gone out.
func (t *transmitter) next() (pkg.Level, bool) {
	if !t.active || t.pos < frame.PosData || t.pos > frame.PosStop {
		return pkg.High, false
	}
	level := t.frame.Bit(t.pos)
	t.pos++
	return level, true
}

func (t *transmitter) awaitingAck() bool {
	return t.active && t.pos == frame.PosAck
}

func (t *transmitter) reset() {
	*t = transmitter{}
}

// writeRequest is a byte waiting for the transmit loop.
type writeRequest struct {
	b    byte
	done chan error
}

// transmitLoop runs every write, resends included, outside edge-handler
// context so the request-to-send delay never blocks an edge handler.
func (h *Host) transmitLoop(ctx context.Context) {
	defer h.wg.Done()

	pkg.LogDebug(pkg.ComponentTransmit, "transmit loop started")
	defer pkg.LogDebug(pkg.ComponentTransmit, "transmit loop stopped")

	for {
		select {
		case <-ctx.Done():
			return

		case <-h.resend:
			err := h.transmit(ctx, CmdResend)
			h.isr.Lock()
			h.resendPending = false
			h.isr.Unlock()
			if err != nil {
				pkg.LogWarn(pkg.ComponentTransmit, "resend request failed", "error", err)
			}

		case req := <-h.writes:
			req.done <- h.transmit(ctx, req.b)
		}
	}
}

// transmit performs one host-to-device write and waits for the ack.
func (h *Host) transmit(ctx context.Context, b byte) error {
	h.stats.writes.Add(1)

	h.isr.Lock()
	h.tx.load(b)
	h.seizing = true
	h.isr.Unlock()

	pkg.LogDebug(pkg.ComponentTransmit, "request to send", "byte", b)

	if err := h.hal.SetLevel(pkg.LineClock, pkg.Low); err != nil {
		h.release()
		return err
	}
	h.hal.DelayMicroseconds(h.config.requestToSendMicros())

	h.isr.Lock()
	abandoned, pos := h.rx.inProgress(), h.rx.pos
	h.rx.reset()
	h.mode = ModeWrite
	start := h.tx.start()
	h.isr.Unlock()

	if abandoned {
		h.stats.abandoned.Add(1)
		pkg.LogWarn(pkg.ComponentReceive, "partial frame abandoned for write",
			"pos", pos)
	}

	if err := h.hal.SetLevel(pkg.LineData, start); err != nil {
		h.release()
		return err
	}

	h.isr.Lock()
	h.seizing = false
	h.isr.Unlock()

	if err := h.hal.SetLevel(pkg.LineClock, pkg.High); err != nil {
		h.release()
		return err
	}

	return h.awaitAck(ctx)
}

// awaitAck waits for the rising edge handler to complete the write.
func (h *Host) awaitAck(ctx context.Context) error {
	var expired <-chan time.Time
	if h.config.WriteTimeout > 0 {
		timer := time.NewTimer(h.config.WriteTimeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case err := <-h.txDone:
		return err
	case <-expired:
		return h.expire(pkg.ErrTimeout)
	case <-ctx.Done():
		return h.expire(pkg.ErrNotRunning)
	}
}

// expire tears down a write that did not complete. If the ack arrived
// while expiring, its result wins.
func (h *Host) expire(reason error) error {
	h.isr.Lock()
	if !h.tx.active {
		h.isr.Unlock()
		return <-h.txDone
	}
	pos := h.tx.pos
	h.tx.reset()
	h.mode = ModeRead
	h.isr.Unlock()

	h.hal.SetLevel(pkg.LineData, pkg.High)

	if reason == pkg.ErrTimeout {
		h.stats.writeTimeouts.Add(1)
		pkg.LogWarn(pkg.ComponentTransmit, "write timed out", "pos", pos)
		h.report(reason)
	}
	return reason
}

// release abandons a write whose line access failed.
func (h *Host) release() {
	h.isr.Lock()
	h.tx.reset()
	h.mode = ModeRead
	h.seizing = false
	h.isr.Unlock()

	h.hal.SetLevel(pkg.LineData, pkg.High)
	h.hal.SetLevel(pkg.LineClock, pkg.High)
}

// completeWrite samples the ack bit and hands the result to the waiting
// transmit loop. Called with isr held.
func (h *Host) completeWrite() error {
	var err error
	if h.hal.GetLevel(pkg.LineData) == pkg.Low {
		h.stats.acks.Add(1)
		if handlerLogging {
			pkg.LogDebug(pkg.ComponentTransmit, "write acknowledged",
				"byte", h.tx.frame.Data())
		}
	} else {
		err = pkg.ErrNack
		h.stats.nacks.Add(1)
		if handlerLogging {
			pkg.LogWarn(pkg.ComponentTransmit, "write rejected by device",
				"byte", h.tx.frame.Data())
		}
	}
	h.tx.reset()
	h.mode = ModeRead

	// txDone is empty while a write is active
	select {
	case h.txDone <- err:
	default:
	}
	return err
}
