package host

import (
	"context"

	"github.com/ardnew/softps2/pkg"
)

// Callback receives each byte received from the device. It runs in
// edge-handler context and must not block.
type Callback func(b byte)

// sink is the destination of a received byte. deliver reports false when
// the byte was dropped.
type sink interface {
	deliver(b byte) bool
}

func (cb Callback) deliver(b byte) bool {
	cb(b)
	return true
}

// queue is a FIFO ring of received bytes with a coalesced notification for
// blocked readers. A growable queue doubles when full; a fixed one drops
// the new byte.
type queue struct {
	lock   critical
	buf    []byte
	head   int
	n      int
	grow   bool
	notify chan struct{}
}

func newQueue(capacity int, grow bool) *queue {
	return &queue{
		buf:    make([]byte, max(capacity, 1)),
		grow:   grow,
		notify: make(chan struct{}, 1),
	}
}

func (q *queue) deliver(b byte) bool {
	q.lock.Lock()
	if q.n == len(q.buf) {
		if !q.grow {
			q.lock.Unlock()
			return false
		}
		q.resize(2 * len(q.buf))
	}
	q.buf[(q.head+q.n)%len(q.buf)] = b
	q.n++
	q.lock.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return true
}

// resize moves the queued bytes to the front of a new buffer. Called with
// lock held.
func (q *queue) resize(size int) {
	buf := make([]byte, size)
	for i := 0; i < q.n; i++ {
		buf[i] = q.buf[(q.head+i)%len(q.buf)]
	}
	q.buf = buf
	q.head = 0
}

func (q *queue) pop() (byte, bool) {
	q.lock.Lock()
	defer q.lock.Unlock()
	if q.n == 0 {
		return 0, false
	}
	b := q.buf[q.head]
	q.head = (q.head + 1) % len(q.buf)
	q.n--
	return b, true
}

// flush discards every queued byte and returns how many were dropped.
func (q *queue) flush() int {
	q.lock.Lock()
	defer q.lock.Unlock()
	n := q.n
	q.head, q.n = 0, 0
	return n
}

func (q *queue) len() int {
	q.lock.Lock()
	defer q.lock.Unlock()
	return q.n
}

// wait blocks until a byte is available or ctx is done.
func (q *queue) wait(ctx context.Context) (byte, error) {
	for {
		if b, ok := q.pop(); ok {
			return b, nil
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-q.notify:
		}
	}
}

// selectSink returns where the next byte goes. Called with isr held.
func (h *Host) selectSink() sink {
	if h.callback != nil && h.callbackEnabled {
		return h.callback
	}
	return h.queue
}

// flushQueue drops stale bytes on a delivery switch. Called with isr held.
func (h *Host) flushQueue(reason string) {
	if n := h.queue.flush(); n > 0 {
		h.stats.flushed.Add(uint64(n))
		pkg.LogInfo(pkg.ComponentDelivery, "discarded queued bytes",
			"count", n,
			"reason", reason)
	}
}

// Configure registers and enables cb, discarding queued bytes. A nil cb is
// rejected with pkg.ErrInvalidParameter and changes nothing.
func (h *Host) Configure(cb Callback) error {
	if cb == nil {
		return pkg.ErrInvalidParameter
	}

	h.isr.Lock()
	defer h.isr.Unlock()

	h.callback = cb
	h.callbackEnabled = true
	h.flushQueue("callback configured")
	return nil
}

// ClearCallback removes the registered callback and returns to queued
// delivery. Queued bytes are kept.
func (h *Host) ClearCallback() error {
	h.isr.Lock()
	defer h.isr.Unlock()

	h.callback = nil
	h.callbackEnabled = false
	return nil
}

// EnableCallback switches delivery to the registered callback and discards
// queued bytes. It returns pkg.ErrNoCallback, changing nothing, when no
// callback is registered.
func (h *Host) EnableCallback() error {
	h.isr.Lock()
	defer h.isr.Unlock()

	if h.callback == nil {
		return pkg.ErrNoCallback
	}
	h.callbackEnabled = true
	h.flushQueue("callback enabled")
	return nil
}

// DisableCallback switches delivery to the read queue and discards queued
// bytes.
func (h *Host) DisableCallback() error {
	h.isr.Lock()
	defer h.isr.Unlock()

	h.callbackEnabled = false
	h.flushQueue("callback disabled")
	return nil
}

// Buffered returns the number of bytes waiting in the read queue.
func (h *Host) Buffered() int {
	return h.queue.len()
}
