package sim

import (
	"context"
	"testing"
	"time"

	"github.com/ardnew/softps2/pkg"
)

type edgeRecord struct {
	line pkg.Line
	edge pkg.Edge
}

// =============================================================================
// Wired-AND Tests
// =============================================================================

func TestWiredAnd(t *testing.T) {
	tests := []struct {
		name   string
		host   pkg.Level
		device pkg.Level
		want   pkg.Level
	}{
		{"both released", pkg.High, pkg.High, pkg.High},
		{"host low", pkg.Low, pkg.High, pkg.Low},
		{"device low", pkg.High, pkg.Low, pkg.Low},
		{"both low", pkg.Low, pkg.Low, pkg.Low},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := New(WithRealTime(false))
			if err := bus.Host().SetLevel(pkg.LineData, tt.host); err != nil {
				t.Fatalf("host SetLevel() error = %v", err)
			}
			if err := bus.Device().SetLevel(pkg.LineData, tt.device); err != nil {
				t.Fatalf("device SetLevel() error = %v", err)
			}
			if got := bus.Level(pkg.LineData); got != tt.want {
				t.Errorf("Level() = %v, want %v", got, tt.want)
			}
			if got := bus.Host().GetLevel(pkg.LineData); got != tt.want {
				t.Errorf("host GetLevel() = %v, want %v", got, tt.want)
			}
			if got := bus.Device().GetLevel(pkg.LineData); got != tt.want {
				t.Errorf("device GetLevel() = %v, want %v", got, tt.want)
			}
			if got := bus.Level(pkg.LineClock); got != pkg.High {
				t.Errorf("clock Level() = %v, want %v", got, pkg.High)
			}
		})
	}
}

func TestSetLevelInvalidLine(t *testing.T) {
	bus := New(WithRealTime(false))
	if err := bus.Host().SetLevel(pkg.NumLines, pkg.Low); err != pkg.ErrInvalidLine {
		t.Errorf("SetLevel() error = %v, want %v", err, pkg.ErrInvalidLine)
	}
	if got := bus.Level(pkg.NumLines); got != pkg.High {
		t.Errorf("Level(invalid) = %v, want %v", got, pkg.High)
	}
}

// =============================================================================
// Edge Dispatch Tests
// =============================================================================

func TestEdgeDispatch(t *testing.T) {
	bus := New(WithRealTime(false))
	host := bus.Host()
	var got []edgeRecord
	record := func(line pkg.Line, edge pkg.Edge) {
		got = append(got, edgeRecord{line, edge})
	}
	if err := host.OnEdge(pkg.LineClock, pkg.EdgeFalling, record); err != nil {
		t.Fatalf("OnEdge() error = %v", err)
	}
	if err := host.OnEdge(pkg.LineClock, pkg.EdgeRising, record); err != nil {
		t.Fatalf("OnEdge() error = %v", err)
	}

	dev := bus.Device()
	dev.SetLevel(pkg.LineClock, pkg.Low)   // falling
	dev.SetLevel(pkg.LineClock, pkg.Low)   // no change
	host.SetLevel(pkg.LineClock, pkg.Low)  // still low
	dev.SetLevel(pkg.LineClock, pkg.High)  // host still holds it
	host.SetLevel(pkg.LineClock, pkg.High) // rising
	dev.SetLevel(pkg.LineData, pkg.Low)    // no data handlers

	want := []edgeRecord{
		{pkg.LineClock, pkg.EdgeFalling},
		{pkg.LineClock, pkg.EdgeRising},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d edges %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("edge[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestHandlerMaySampleAndDrive(t *testing.T) {
	bus := New(WithRealTime(false))
	host := bus.Host()
	var sampled pkg.Level = pkg.High
	host.OnEdge(pkg.LineClock, pkg.EdgeFalling, func(pkg.Line, pkg.Edge) {
		sampled = host.GetLevel(pkg.LineClock)
		host.SetLevel(pkg.LineData, pkg.Low)
	})

	bus.Device().SetLevel(pkg.LineClock, pkg.Low)

	if sampled != pkg.Low {
		t.Errorf("sampled clock = %v, want %v", sampled, pkg.Low)
	}
	if got := bus.Device().GetLevel(pkg.LineData); got != pkg.Low {
		t.Errorf("data = %v, want %v", got, pkg.Low)
	}
}

func TestCloseClearsHandlers(t *testing.T) {
	bus := New(WithRealTime(false))
	host := bus.Host()
	calls := 0
	host.OnEdge(pkg.LineClock, pkg.EdgeFalling, func(pkg.Line, pkg.Edge) { calls++ })
	host.SetLevel(pkg.LineData, pkg.Low)

	if err := host.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if got := bus.Level(pkg.LineData); got != pkg.High {
		t.Errorf("data after Close() = %v, want %v", got, pkg.High)
	}
	bus.Device().SetLevel(pkg.LineClock, pkg.Low)
	if calls != 0 {
		t.Errorf("handler calls after Close() = %d, want 0", calls)
	}
}

func TestOnEdgeInvalid(t *testing.T) {
	host := New().Host()
	if err := host.OnEdge(pkg.NumLines, pkg.EdgeFalling, func(pkg.Line, pkg.Edge) {}); err != pkg.ErrInvalidLine {
		t.Errorf("OnEdge(invalid line) error = %v, want %v", err, pkg.ErrInvalidLine)
	}
	if err := host.OnEdge(pkg.LineClock, pkg.NumEdges, func(pkg.Line, pkg.Edge) {}); err != pkg.ErrInvalidEdge {
		t.Errorf("OnEdge(invalid edge) error = %v, want %v", err, pkg.ErrInvalidEdge)
	}
	if err := host.OnEdge(pkg.LineClock, pkg.EdgeFalling, nil); err != pkg.ErrInvalidParameter {
		t.Errorf("OnEdge(nil) error = %v, want %v", err, pkg.ErrInvalidParameter)
	}
}

// =============================================================================
// Device Port Tests
// =============================================================================

func TestClockSeizedLatch(t *testing.T) {
	bus := New(WithRealTime(false))
	dev := bus.Device()

	if dev.ClockSeized() {
		t.Fatal("ClockSeized() = true on a fresh bus")
	}

	bus.Host().SetLevel(pkg.LineClock, pkg.Low)
	bus.Host().SetLevel(pkg.LineClock, pkg.High)

	if !dev.ClockSeized() {
		t.Error("ClockSeized() = false after a host clock pulse")
	}
	if dev.ClockSeized() {
		t.Error("ClockSeized() latch not cleared")
	}

	dev.SetLevel(pkg.LineClock, pkg.Low)
	bus.Host().SetLevel(pkg.LineData, pkg.Low)
	if dev.ClockSeized() {
		t.Error("ClockSeized() = true after device clock and host data activity")
	}
}

func TestChangedNotify(t *testing.T) {
	bus := New(WithRealTime(false))
	dev := bus.Device()

	dev.SetLevel(pkg.LineClock, pkg.Low)
	select {
	case <-dev.Changed():
		t.Fatal("Changed() fired for device activity")
	default:
	}

	bus.Host().SetLevel(pkg.LineData, pkg.Low)
	bus.Host().SetLevel(pkg.LineData, pkg.High)

	select {
	case <-dev.Changed():
	case <-time.After(time.Second):
		t.Fatal("Changed() did not fire for host activity")
	}
	select {
	case <-dev.Changed():
		t.Error("Changed() notifications not coalesced")
	default:
	}
}

func TestInitReleasesLines(t *testing.T) {
	bus := New(WithRealTime(false))
	bus.Host().SetLevel(pkg.LineClock, pkg.Low)
	bus.Device().SetLevel(pkg.LineData, pkg.Low)

	if err := bus.Host().Init(context.Background()); err != nil {
		t.Fatalf("host Init() error = %v", err)
	}
	if err := bus.Device().Init(context.Background()); err != nil {
		t.Fatalf("device Init() error = %v", err)
	}
	for _, line := range []pkg.Line{pkg.LineClock, pkg.LineData} {
		if got := bus.Level(line); got != pkg.High {
			t.Errorf("%v = %v, want %v", line, got, pkg.High)
		}
	}
	if bus.Device().ClockSeized() {
		t.Error("device Init() did not clear the seize latch")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := bus.Host().Init(ctx); err != context.Canceled {
		t.Errorf("Init(canceled) error = %v, want %v", err, context.Canceled)
	}
}

// =============================================================================
// Trace Tests
// =============================================================================

func TestEvents(t *testing.T) {
	bus := New(WithRealTime(false))
	host := bus.Host()

	host.SetLevel(pkg.LineClock, pkg.Low)
	host.DelayMicroseconds(110)
	bus.Device().SetLevel(pkg.LineData, pkg.Low)

	want := []Event{
		{Kind: EventDrive, Side: SideHost, Line: pkg.LineClock, Level: pkg.Low, Bus: pkg.Low},
		{Kind: EventDelay, Side: SideHost, Delay: 110 * time.Microsecond},
		{Kind: EventDrive, Side: SideDevice, Line: pkg.LineData, Level: pkg.Low, Bus: pkg.Low},
	}
	got := bus.Events()
	if len(got) != len(want) {
		t.Fatalf("Events() len = %d, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Events()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}

	got[0].Level = pkg.High
	if bus.Events()[0].Level != pkg.Low {
		t.Error("Events() returned the internal slice")
	}

	bus.ResetEvents()
	if n := len(bus.Events()); n != 0 {
		t.Errorf("Events() after ResetEvents() len = %d, want 0", n)
	}
}

func TestRealTimeDelay(t *testing.T) {
	bus := New(WithRealTime(true))
	start := time.Now()
	bus.Host().DelayMicroseconds(2000)
	if elapsed := time.Since(start); elapsed < 2*time.Millisecond {
		t.Errorf("DelayMicroseconds(2000) returned after %v", elapsed)
	}
}

func TestDriven(t *testing.T) {
	bus := New(WithRealTime(false))
	bus.Device().SetLevel(pkg.LineData, pkg.Low)
	if got := bus.Driven(SideDevice, pkg.LineData); got != pkg.Low {
		t.Errorf("Driven(device) = %v, want %v", got, pkg.Low)
	}
	if got := bus.Driven(SideHost, pkg.LineData); got != pkg.High {
		t.Errorf("Driven(host) = %v, want %v", got, pkg.High)
	}
}

func TestSideString(t *testing.T) {
	if SideHost.String() != "host" || SideDevice.String() != "device" {
		t.Errorf("Side strings = %q, %q", SideHost, SideDevice)
	}
}
