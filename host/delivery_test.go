package host

import (
	"context"
	"testing"
	"time"
)

// =============================================================================
// Queue Tests
// =============================================================================

func TestQueueOrder(t *testing.T) {
	q := newQueue(4, true)
	for _, b := range []byte{1, 2, 3} {
		q.deliver(b)
	}
	if n := q.len(); n != 3 {
		t.Fatalf("len() = %d, want 3", n)
	}
	for _, want := range []byte{1, 2, 3} {
		b, ok := q.pop()
		if !ok || b != want {
			t.Errorf("pop() = %d, %v, want %d, true", b, ok, want)
		}
	}
	if _, ok := q.pop(); ok {
		t.Error("pop() on an empty queue succeeded")
	}
}

func TestQueueFlush(t *testing.T) {
	q := newQueue(4, true)
	q.deliver(1)
	q.deliver(2)
	if n := q.flush(); n != 2 {
		t.Errorf("flush() = %d, want 2", n)
	}
	if n := q.flush(); n != 0 {
		t.Errorf("second flush() = %d, want 0", n)
	}
	q.deliver(3)
	if b, _ := q.pop(); b != 3 {
		t.Errorf("pop() after flush = %d, want 3", b)
	}
}

func TestQueueGrows(t *testing.T) {
	q := newQueue(2, true)
	q.deliver(1)
	q.deliver(2)
	if b, _ := q.pop(); b != 1 {
		t.Fatalf("pop() = %d, want 1", b)
	}
	// Wraps around the end of the ring, then grows past it.
	for _, b := range []byte{3, 4, 5} {
		if !q.deliver(b) {
			t.Fatalf("deliver(%d) = false, want true", b)
		}
	}
	if n := q.len(); n != 4 {
		t.Fatalf("len() = %d, want 4", n)
	}
	for _, want := range []byte{2, 3, 4, 5} {
		if b, ok := q.pop(); !ok || b != want {
			t.Errorf("pop() = %d, %v, want %d, true", b, ok, want)
		}
	}
}

func TestQueueFixedCapacityDrops(t *testing.T) {
	q := newQueue(2, false)
	tests := []struct {
		b    byte
		want bool
	}{
		{0x10, true},
		{0x11, true},
		{0x12, false},
	}
	for _, tt := range tests {
		if got := q.deliver(tt.b); got != tt.want {
			t.Errorf("deliver(%#02x) = %v, want %v", tt.b, got, tt.want)
		}
	}
	for _, want := range []byte{0x10, 0x11} {
		if b, ok := q.pop(); !ok || b != want {
			t.Errorf("pop() = %#02x, %v, want %#02x, true", b, ok, want)
		}
	}
	if !q.deliver(0x13) {
		t.Error("deliver() after drain = false, want true")
	}
}

func TestQueueWait(t *testing.T) {
	q := newQueue(4, true)

	go func() {
		time.Sleep(10 * time.Millisecond)
		q.deliver(0x1C)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	b, err := q.wait(ctx)
	if err != nil || b != 0x1C {
		t.Errorf("wait() = %#02x, %v, want 0x1c, nil", b, err)
	}
}

func TestQueueWaitTimeout(t *testing.T) {
	q := newQueue(4, true)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	if _, err := q.wait(ctx); err != context.DeadlineExceeded {
		t.Errorf("wait() error = %v, want %v", err, context.DeadlineExceeded)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("wait() returned after %v", elapsed)
	}
}

func TestCallbackSink(t *testing.T) {
	var got []byte
	var s sink = Callback(func(b byte) { got = append(got, b) })
	s.deliver(7)
	s.deliver(9)
	if len(got) != 2 || got[0] != 7 || got[1] != 9 {
		t.Errorf("callback got %v, want [7 9]", got)
	}
}
