package pkg

import "testing"

func TestLine_String(t *testing.T) {
	tests := []struct {
		line Line
		want string
	}{
		{LineClock, "clock"},
		{LineData, "data"},
		{Line(7), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.line.String(); got != tt.want {
				t.Errorf("Line(%d).String() = %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}

func TestLine_Valid(t *testing.T) {
	if !LineClock.Valid() || !LineData.Valid() {
		t.Error("clock and data should be valid")
	}
	if Line(NumLines).Valid() {
		t.Error("Line(NumLines) should be invalid")
	}
}

func TestEdge_String(t *testing.T) {
	tests := []struct {
		edge Edge
		want string
	}{
		{EdgeFalling, "falling"},
		{EdgeRising, "rising"},
		{Edge(9), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.edge.String(); got != tt.want {
				t.Errorf("Edge(%d).String() = %q, want %q", tt.edge, got, tt.want)
			}
		})
	}
}

func TestEdgeTo(t *testing.T) {
	if EdgeTo(Low) != EdgeFalling {
		t.Error("EdgeTo(Low) should be falling")
	}
	if EdgeTo(High) != EdgeRising {
		t.Error("EdgeTo(High) should be rising")
	}
}

func TestLevelOf(t *testing.T) {
	if LevelOf(true) != High || LevelOf(false) != Low {
		t.Error("LevelOf mapping is wrong")
	}
	if High.String() != "1" || Low.String() != "0" {
		t.Errorf("Level strings = %q/%q, want 1/0", High.String(), Low.String())
	}
}
