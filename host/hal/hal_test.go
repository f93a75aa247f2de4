package hal

import (
	"errors"
	"testing"
	"time"

	"github.com/ardnew/softps2/pkg"
)

// =============================================================================
// Handlers Tests
// =============================================================================

func TestHandlers_AddAndDispatch(t *testing.T) {
	var h Handlers
	var calls []string

	record := func(tag string) EdgeHandler {
		return func(line pkg.Line, edge pkg.Edge) {
			calls = append(calls, tag+":"+line.String()+":"+edge.String())
		}
	}

	if err := h.Add(pkg.LineClock, pkg.EdgeFalling, record("a")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := h.Add(pkg.LineClock, pkg.EdgeFalling, record("b")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := h.Add(pkg.LineClock, pkg.EdgeRising, record("c")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	Dispatch(h.Get(pkg.LineClock, pkg.EdgeFalling), pkg.LineClock, pkg.EdgeFalling)

	want := []string{"a:clock:falling", "b:clock:falling"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("calls[%d] = %q, want %q", i, calls[i], want[i])
		}
	}

	if got := h.Get(pkg.LineData, pkg.EdgeFalling); len(got) != 0 {
		t.Errorf("data handlers = %d, want 0", len(got))
	}
}

func TestHandlers_AddInvalid(t *testing.T) {
	var h Handlers
	noop := func(pkg.Line, pkg.Edge) {}

	tests := []struct {
		name    string
		line    pkg.Line
		edge    pkg.Edge
		handler EdgeHandler
		want    error
	}{
		{"line", pkg.Line(5), pkg.EdgeFalling, noop, pkg.ErrInvalidLine},
		{"edge", pkg.LineClock, pkg.Edge(5), noop, pkg.ErrInvalidEdge},
		{"nil handler", pkg.LineClock, pkg.EdgeRising, nil, pkg.ErrInvalidParameter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := h.Add(tt.line, tt.edge, tt.handler); !errors.Is(err, tt.want) {
				t.Errorf("Add error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestHandlers_Clear(t *testing.T) {
	var h Handlers
	_ = h.Add(pkg.LineClock, pkg.EdgeFalling, func(pkg.Line, pkg.Edge) {})
	h.Clear()
	if len(h.Get(pkg.LineClock, pkg.EdgeFalling)) != 0 {
		t.Error("Clear did not remove handlers")
	}
	if h.Get(pkg.Line(9), pkg.EdgeFalling) != nil {
		t.Error("Get on invalid line should return nil")
	}
}

// =============================================================================
// Spin Tests
// =============================================================================

func TestSpin(t *testing.T) {
	start := time.Now()
	Spin(150 * time.Microsecond)
	if elapsed := time.Since(start); elapsed < 150*time.Microsecond {
		t.Errorf("Spin returned after %v, want >= 150µs", elapsed)
	}
}
