package host

import (
	"testing"

	"github.com/ardnew/softps2/pkg"
	"github.com/ardnew/softps2/pkg/frame"
)

// feed samples every bit of f and returns the last result.
func feed(r *receiver, f frame.Frame) (byte, rxStatus, int) {
	for pos := frame.PosStart; pos < frame.Size; pos++ {
		b, status := r.sample(f.Bit(pos))
		if status != rxBusy {
			return b, status, pos
		}
	}
	return 0, rxBusy, frame.Size
}

func flip(f frame.Frame, pos int) frame.Frame {
	return f.With(pos, f.Bit(pos)^1)
}

// =============================================================================
// Receiver Tests
// =============================================================================

func TestReceiverAllBytes(t *testing.T) {
	var r receiver
	for i := 0; i < 256; i++ {
		b, status, pos := feed(&r, frame.Encode(byte(i)))
		if status != rxDone || b != byte(i) {
			t.Fatalf("byte %#02x: got %#02x status %d at pos %d", i, b, status, pos)
		}
		if r.inProgress() {
			t.Fatalf("byte %#02x: receiver still in progress", i)
		}
	}
}

func TestReceiverFramingErrors(t *testing.T) {
	good := frame.Encode(0x1C)
	tests := []struct {
		name    string
		frame   frame.Frame
		status  rxStatus
		pos     int
		wantErr error
	}{
		{"bad start", flip(good, frame.PosStart), rxStartError, frame.PosStart, pkg.ErrStartBit},
		{"bad parity", flip(good, frame.PosParity), rxParityError, frame.PosParity, pkg.ErrParity},
		{"bad stop", flip(good, frame.PosStop), rxStopError, frame.PosStop, pkg.ErrStopBit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r receiver
			b, status, pos := feed(&r, tt.frame)
			if status != tt.status {
				t.Errorf("status = %d, want %d", status, tt.status)
			}
			if pos != tt.pos {
				t.Errorf("aborted at pos %d, want %d", pos, tt.pos)
			}
			if b != 0 {
				t.Errorf("byte = %#02x, want nothing delivered", b)
			}
			if err := status.err(); err != tt.wantErr {
				t.Errorf("err() = %v, want %v", err, tt.wantErr)
			}
			if r.pos != frame.PosStart || r.data != 0 {
				t.Errorf("receiver not reset: pos %d data %#02x", r.pos, r.data)
			}

			// Recovers on the next good frame
			if b, status, _ := feed(&r, good); status != rxDone || b != 0x1C {
				t.Errorf("next frame: got %#02x status %d", b, status)
			}
		})
	}
}

func TestReceiverIdleHigh(t *testing.T) {
	var r receiver
	for i := 0; i < 3; i++ {
		if _, status := r.sample(pkg.High); status != rxStartError {
			t.Errorf("sample(High) at idle = %d, want rxStartError", status)
		}
		if r.inProgress() {
			t.Error("receiver advanced on a bad start bit")
		}
	}
}

func TestReceiverPartial(t *testing.T) {
	var r receiver
	f := frame.Encode(0xA5)
	for pos := frame.PosStart; pos < 5; pos++ {
		r.sample(f.Bit(pos))
	}
	if !r.inProgress() || r.pos != 5 {
		t.Fatalf("pos = %d, want 5", r.pos)
	}
	if r.data != 0x05 {
		t.Errorf("data = %#02x, want 0x05", r.data)
	}
	r.reset()
	if r.inProgress() {
		t.Error("inProgress() after reset()")
	}
}

func TestRxStatusErrNil(t *testing.T) {
	for _, s := range []rxStatus{rxBusy, rxDone} {
		if err := s.err(); err != nil {
			t.Errorf("rxStatus(%d).err() = %v, want nil", s, err)
		}
	}
}
