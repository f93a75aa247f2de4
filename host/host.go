package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ardnew/softps2/host/hal"
	"github.com/ardnew/softps2/pkg"
)

// Host is a PS/2 host engine. It receives device-to-host frames on falling
// clock edges, writes host-to-device frames after a request-to-send, and
// recovers from framing errors by asking the device to resend.
type Host struct {
	hal    hal.HostHAL
	config Config

	// Edge-handler state, guarded by isr
	isr             critical
	mode            Mode
	seizing         bool // Host holds the clock low; its own edges are ignored
	rx              receiver
	tx              transmitter
	resends         int  // Resend requests since the last good frame
	resendPending   bool // A resend is queued or in flight
	desynced        bool
	callback        Callback
	callbackEnabled bool

	queue  *queue
	txDone chan error
	resend chan struct{}
	writes chan *writeRequest
	stats  counters

	// State
	running bool
	mutex   sync.RWMutex
	wg      sync.WaitGroup

	// Context for cancellation
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a PS/2 host engine on h.
func New(h hal.HostHAL, options ...Option) *Host {
	config := DefaultConfig()
	for _, option := range options {
		option(&config)
	}
	return &Host{
		hal:             h,
		config:          config,
		callback:        config.Callback,
		callbackEnabled: config.Callback != nil,
		queue:           newQueue(queueCapacity, queueGrows),
		txDone:          make(chan error, 1),
		resend:          make(chan struct{}, 1),
		writes:          make(chan *writeRequest),
	}
}

// Config returns the engine configuration.
func (h *Host) Config() Config {
	return h.config
}

// Start initializes the HAL, installs the clock edge handlers, releases both
// lines and starts the transmit loop.
func (h *Host) Start(ctx context.Context) error {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.running {
		return pkg.ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(ctx)

	if err := h.hal.Init(runCtx); err != nil {
		cancel()
		return fmt.Errorf("init hal: %w", err)
	}

	if err := h.hal.OnEdge(pkg.LineClock, pkg.EdgeFalling, h.onFalling); err != nil {
		cancel()
		h.hal.Close()
		return fmt.Errorf("install falling edge handler: %w", err)
	}
	if err := h.hal.OnEdge(pkg.LineClock, pkg.EdgeRising, h.onRising); err != nil {
		cancel()
		h.hal.Close()
		return fmt.Errorf("install rising edge handler: %w", err)
	}

	h.isr.Lock()
	h.mode = ModeRead
	h.seizing = false
	h.rx.reset()
	h.tx.reset()
	h.resends = 0
	h.resendPending = false
	h.desynced = false
	h.isr.Unlock()
	h.drainResend()

	// Idle bus: both lines released to the pull-ups
	if err := errors.Join(
		h.hal.SetLevel(pkg.LineData, pkg.High),
		h.hal.SetLevel(pkg.LineClock, pkg.High),
	); err != nil {
		cancel()
		h.hal.Close()
		return fmt.Errorf("release lines: %w", err)
	}

	h.ctx, h.cancel = runCtx, cancel
	h.running = true

	h.wg.Add(1)
	go h.transmitLoop(runCtx)

	pkg.LogInfo(pkg.ComponentHost, "host started",
		"readTimeout", h.config.ReadTimeout,
		"writeTimeout", h.config.WriteTimeout,
		"maxResends", h.config.MaxResends)
	return nil
}

// Stop stops the transmit loop and closes the HAL. A write in flight fails
// with pkg.ErrNotRunning.
func (h *Host) Stop() error {
	h.mutex.Lock()
	if !h.running {
		h.mutex.Unlock()
		return nil
	}

	h.running = false
	if h.cancel != nil {
		h.cancel()
	}
	h.mutex.Unlock()

	h.wg.Wait()

	// No edge can queue a resend once the HAL is closed
	err := h.hal.Close()
	h.drainResend()
	if err != nil {
		return err
	}

	pkg.LogInfo(pkg.ComponentHost, "host stopped")
	return nil
}

// drainResend discards a resend request left over from a previous run.
func (h *Host) drainResend() {
	select {
	case <-h.resend:
	default:
	}
}

// IsRunning returns true if the host is running.
func (h *Host) IsRunning() bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.running
}

// Mode returns the current transfer mode.
func (h *Host) Mode() Mode {
	h.isr.Lock()
	defer h.isr.Unlock()
	return h.mode
}

// Stats returns a snapshot of the engine counters.
func (h *Host) Stats() Stats {
	return h.stats.snapshot()
}

// runContext returns the context of the current run, or nil when stopped.
func (h *Host) runContext() context.Context {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	if !h.running {
		return nil
	}
	return h.ctx
}

// ReadByte returns the next received byte, waiting up to the configured
// read timeout. It returns pkg.ErrTimeout when nothing arrives in time.
func (h *Host) ReadByte() (byte, error) {
	ctx := context.Background()
	if h.config.ReadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.config.ReadTimeout)
		defer cancel()
	}

	b, err := h.ReadByteContext(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		h.stats.readTimeouts.Add(1)
		return 0, pkg.ErrTimeout
	}
	return b, err
}

// ReadByteContext returns the next received byte, waiting until ctx is done
// or the host stops. Bytes already queued are returned even after Stop.
func (h *Host) ReadByteContext(ctx context.Context) (byte, error) {
	if b, ok := h.queue.pop(); ok {
		return b, nil
	}

	runCtx := h.runContext()
	if runCtx == nil {
		return 0, pkg.ErrNotRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(runCtx, cancel)
	defer stop()

	b, err := h.queue.wait(ctx)
	if err != nil && runCtx.Err() != nil && ctx.Err() == context.Canceled {
		return 0, pkg.ErrNotRunning
	}
	return b, err
}

// WriteByte sends b to the device and waits for its ack.
func (h *Host) WriteByte(b byte) error {
	return h.WriteByteContext(context.Background(), b)
}

// WriteByteContext sends b to the device and waits for its ack. ctx bounds
// only the wait for the transmit loop to accept the byte; an accepted write
// runs until ack, nack or the write timeout.
func (h *Host) WriteByteContext(ctx context.Context, b byte) error {
	runCtx := h.runContext()
	if runCtx == nil {
		return pkg.ErrNotRunning
	}

	req := &writeRequest{b: b, done: make(chan error, 1)}
	select {
	case h.writes <- req:
	case <-ctx.Done():
		return ctx.Err()
	case <-runCtx.Done():
		return pkg.ErrNotRunning
	}
	return <-req.done
}

// =============================================================================
// Edge Handlers
// =============================================================================

// onFalling handles a falling clock edge: the device has put the next bit
// on the data line (Read) or wants the host's next bit (Write).
func (h *Host) onFalling(pkg.Line, pkg.Edge) {
	h.isr.Lock()

	if h.seizing {
		h.isr.Unlock()
		return
	}

	if h.mode == ModeWrite {
		if level, ok := h.tx.next(); ok {
			if err := h.hal.SetLevel(pkg.LineData, level); err != nil && handlerLogging {
				pkg.LogError(pkg.ComponentTransmit, "failed to drive data", "error", err)
			}
		}
		h.isr.Unlock()
		return
	}

	level := h.hal.GetLevel(pkg.LineData)
	pos := h.rx.pos
	b, status := h.rx.sample(level)

	if handlerLogging && pkg.LogEnabled(slog.LevelDebug) {
		pkg.LogDebug(pkg.ComponentReceive, "bit", "pos", pos, "level", level)
	}

	var (
		cb     Callback
		report error
	)
	switch status {
	case rxBusy:
	case rxDone:
		h.stats.framesReceived.Add(1)
		h.resends = 0
		h.desynced = false
		switch s := h.selectSink().(type) {
		case Callback:
			cb = s
		default:
			if s.deliver(b) {
				h.stats.queued.Add(1)
			} else {
				h.stats.overflows.Add(1)
			}
		}
		if handlerLogging {
			pkg.LogDebug(pkg.ComponentReceive, "byte received", "byte", b)
		}
	default:
		report = h.abortAndRequestResend(status, pos)
	}
	h.isr.Unlock()

	if cb != nil {
		cb.deliver(b)
		h.stats.dispatched.Add(1)
	}
	if report != nil {
		h.report(report)
	}
}

// onRising handles a rising clock edge. Only the one following the stop bit
// of a write matters: it carries the device's ack.
func (h *Host) onRising(pkg.Line, pkg.Edge) {
	h.isr.Lock()
	if h.seizing || h.mode != ModeWrite || !h.tx.awaitingAck() {
		h.isr.Unlock()
		return
	}
	err := h.completeWrite()
	h.isr.Unlock()

	if err != nil {
		h.report(err)
	}
}

// abortAndRequestResend discards the partial frame and asks the device to
// retransmit. At most one resend is outstanding; once the consecutive resend
// bound is reached the engine reports pkg.ErrDesync once and then resyncs
// silently on the next valid frame. It returns the error to report, if any.
// Called with isr held.
func (h *Host) abortAndRequestResend(status rxStatus, pos int) error {
	err := status.err()
	switch status {
	case rxStartError:
		h.stats.startErrors.Add(1)
	case rxParityError:
		h.stats.parityErrors.Add(1)
	case rxStopError:
		h.stats.stopErrors.Add(1)
	}
	h.rx.reset()

	switch {
	case h.desynced:
		if handlerLogging {
			pkg.LogDebug(pkg.ComponentReceive, "framing error while desynchronized",
				"error", err, "pos", pos)
		}
		return nil

	case h.resendPending:
		if handlerLogging {
			pkg.LogDebug(pkg.ComponentReceive, "framing error, resend already pending",
				"error", err, "pos", pos)
		}
		return err

	case h.config.MaxResends > 0 && h.resends >= h.config.MaxResends:
		h.desynced = true
		h.stats.desyncs.Add(1)
		if handlerLogging {
			pkg.LogError(pkg.ComponentReceive, "line desynchronized",
				"error", err, "resends", h.resends)
		}
		return pkg.ErrDesync
	}

	h.resends++
	h.resendPending = true
	h.stats.resends.Add(1)
	select {
	case h.resend <- struct{}{}:
	default:
	}

	if handlerLogging {
		pkg.LogWarn(pkg.ComponentReceive, "framing error, requesting resend",
			"error", err,
			"pos", pos,
			"attempt", h.resends)
	}
	return err
}

// report hands err to the configured error handler.
func (h *Host) report(err error) {
	if h.config.ErrorHandler != nil {
		h.config.ErrorHandler(err)
	}
}
