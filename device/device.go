package device

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ardnew/softps2/device/hal"
	"github.com/ardnew/softps2/pkg"
	"github.com/ardnew/softps2/pkg/frame"
)

// DefaultReceiveBuffer is the capacity of the Received channel.
const DefaultReceiveBuffer = 16

// MinIdle is the shortest time the bus must stay idle before the device
// starts a new frame. The idle time is also at least one clock period.
const MinIdle = 50 * time.Microsecond

// Device emulates the device end of a PS/2 link. It generates the clock,
// sends frames to the host, clocks in frames the host writes, and answers
// the resend command.
type Device struct {
	hal        hal.DeviceHAL
	halfPeriod time.Duration
	ack        atomic.Bool

	sends    chan *sendRequest
	received chan byte
	stats    counters

	// Link state, owned by the run goroutine
	last    frame.Frame // Clean encoding of the most recent byte sent
	hasLast bool
	retry   bool // The last frame was aborted and must be retransmitted
	held    frame.Frame
	hasHeld bool // held was inhibited before its start bit
	seized  bool // The host inhibited the bus

	// State
	running bool
	mutex   sync.RWMutex
	wg      sync.WaitGroup

	// Context for cancellation
	ctx    context.Context
	cancel context.CancelFunc
}

// Option configures a Device.
type Option func(*Device)

// WithHalfPeriod sets the time the clock spends in each half of a pulse.
func WithHalfPeriod(d time.Duration) Option {
	return func(dev *Device) {
		dev.halfPeriod = max(d, 0)
	}
}

// WithNack makes the device reject every host write.
func WithNack() Option {
	return func(dev *Device) {
		dev.ack.Store(false)
	}
}

// WithReceiveBuffer sets the capacity of the Received channel. Bytes
// arriving while it is full are dropped and counted.
func WithReceiveBuffer(n int) Option {
	return func(dev *Device) {
		dev.received = make(chan byte, max(n, 0))
	}
}

type sendRequest struct {
	frame frame.Frame
	done  chan error
}

// New creates a device emulator on h.
func New(h hal.DeviceHAL, options ...Option) *Device {
	d := &Device{
		hal:      h,
		sends:    make(chan *sendRequest),
		received: make(chan byte, DefaultReceiveBuffer),
	}
	d.ack.Store(true)
	for _, option := range options {
		option(d)
	}
	return d
}

// Start releases both lines and starts serving the link.
func (d *Device) Start(ctx context.Context) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.running {
		return pkg.ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.hal.Init(runCtx); err != nil {
		cancel()
		return err
	}

	d.ctx, d.cancel = runCtx, cancel
	d.running = true
	d.seized = false
	d.retry = false
	d.hasHeld = false

	d.wg.Add(1)
	go d.run(runCtx)

	pkg.LogDebug(pkg.ComponentDevice, "device started", "halfPeriod", d.halfPeriod)
	return nil
}

// Stop stops serving the link and releases both lines.
func (d *Device) Stop() error {
	d.mutex.Lock()
	if !d.running {
		d.mutex.Unlock()
		return nil
	}

	d.running = false
	if d.cancel != nil {
		d.cancel()
	}
	d.mutex.Unlock()

	d.wg.Wait()

	if err := d.hal.Close(); err != nil {
		return err
	}

	pkg.LogDebug(pkg.ComponentDevice, "device stopped")
	return nil
}

// IsRunning returns true if the device is running.
func (d *Device) IsRunning() bool {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	return d.running
}

// SetAck selects whether host writes are acknowledged.
func (d *Device) SetAck(ack bool) {
	d.ack.Store(ack)
}

// Received returns the bytes written by the host, resend commands
// excluded.
func (d *Device) Received() <-chan byte {
	return d.received
}

// Stats returns a snapshot of the device counters.
func (d *Device) Stats() Stats {
	return d.stats.snapshot()
}

// Send transmits b to the host. It returns pkg.ErrAborted when the host
// inhibited the bus before the frame completed; the device then
// retransmits b after the host's write.
func (d *Device) Send(ctx context.Context, b byte) error {
	return d.SendFrame(ctx, frame.Encode(b))
}

// SendFrame transmits f as is, so a caller can put a corrupted frame on
// the line. A later resend request retransmits the clean encoding of
// f.Data().
func (d *Device) SendFrame(ctx context.Context, f frame.Frame) error {
	d.mutex.RLock()
	running, runCtx := d.running, d.ctx
	d.mutex.RUnlock()
	if !running {
		return pkg.ErrNotRunning
	}

	req := &sendRequest{frame: f, done: make(chan error, 1)}
	select {
	case d.sends <- req:
	case <-ctx.Done():
		return ctx.Err()
	case <-runCtx.Done():
		return pkg.ErrNotRunning
	}
	return <-req.done
}

// run serves host requests and queued sends until ctx is done.
func (d *Device) run(ctx context.Context) {
	defer d.wg.Done()

	for {
		if ctx.Err() != nil {
			return
		}

		if d.pollSeized() || d.hal.GetLevel(pkg.LineData) == pkg.Low {
			if !d.serviceHost(ctx) {
				return
			}
			continue
		}

		select {
		case <-ctx.Done():
			return
		case req := <-d.sends:
			req.done <- d.send(req.frame)
		case <-d.hal.Changed():
		}
	}
}

// serviceHost waits for the host to finish its request-to-send and clocks
// in the frame. It returns false if ctx ends first.
func (d *Device) serviceHost(ctx context.Context) bool {
	for {
		clock := d.hal.GetLevel(pkg.LineClock)
		data := d.hal.GetLevel(pkg.LineData)

		switch {
		case clock == pkg.High && data == pkg.Low:
			d.serveWrite()
			return true

		case clock == pkg.High && data == pkg.High:
			// Inhibit without a request to send
			d.seized = false
			return true
		}

		select {
		case <-ctx.Done():
			return false
		case <-d.hal.Changed():
		}
	}
}

// serveWrite receives one host frame and answers it.
func (d *Device) serveWrite() {
	b, err := d.receive()
	if err != nil {
		pkg.LogDebug(pkg.ComponentDevice, "host frame rejected", "byte", b, "error", err)
		return
	}

	if b != pkg.CmdResend {
		select {
		case d.received <- b:
		default:
			d.stats.dropped.Add(1)
			pkg.LogWarn(pkg.ComponentDevice, "receive buffer full, byte dropped", "byte", b)
		}
	}

	if (b == pkg.CmdResend || d.retry) && d.hasLast {
		d.retry = false
		d.stats.retransmits.Add(1)
		pkg.LogDebug(pkg.ComponentDevice, "retransmitting", "byte", d.last.Data())
		if err := d.transmit(d.last); err != nil {
			pkg.LogDebug(pkg.ComponentDevice, "retransmission aborted", "error", err)
			return
		}
	}

	if d.hasHeld {
		d.hasHeld = false
		if err := d.transmit(d.held); err != nil {
			pkg.LogDebug(pkg.ComponentDevice, "held frame aborted", "error", err)
		}
	}
}

// pollSeized folds the HAL's clock inhibit latch into d.seized.
func (d *Device) pollSeized() bool {
	if d.hal.ClockSeized() {
		d.seized = true
	}
	return d.seized
}

// =============================================================================
// Statistics
// =============================================================================

// Stats is a snapshot of device counters.
type Stats struct {
	FramesSent     uint64 // Frames clocked out completely
	Aborted        uint64 // Frames cut short by a host inhibit
	Retransmits    uint64
	FramesReceived uint64 // Valid host frames
	Nacked         uint64 // Host frames answered with a nack
	Dropped        uint64 // Host bytes lost to a full receive buffer
}

type counters struct {
	framesSent     atomic.Uint64
	aborted        atomic.Uint64
	retransmits    atomic.Uint64
	framesReceived atomic.Uint64
	nacked         atomic.Uint64
	dropped        atomic.Uint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		FramesSent:     c.framesSent.Load(),
		Aborted:        c.aborted.Load(),
		Retransmits:    c.retransmits.Load(),
		FramesReceived: c.framesReceived.Load(),
		Nacked:         c.nacked.Load(),
		Dropped:        c.dropped.Load(),
	}
}
