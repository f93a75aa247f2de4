package pkg

// Line names one of the two PS/2 signals.
type Line uint8

// PS/2 lines.
const (
	LineClock Line = iota // Clock, driven by the device except during request-to-send
	LineData              // Data
)

// NumLines is the number of PS/2 signal lines.
const NumLines = 2

// String returns the line name.
func (l Line) String() string {
	switch l {
	case LineClock:
		return "clock"
	case LineData:
		return "data"
	default:
		return "unknown"
	}
}

// Valid reports whether l names a PS/2 line.
func (l Line) Valid() bool {
	return l < NumLines
}

// Level is the logic level of a line.
//
// PS/2 lines are open collector: Low means a side actively pulls the line
// down, High means every side released it to the pull-up.
type Level uint8

// Line levels.
const (
	Low  Level = 0
	High Level = 1
)

// String returns "0" or "1".
func (v Level) String() string {
	if v == Low {
		return "0"
	}
	return "1"
}

// LevelOf returns High for true and Low for false.
func LevelOf(b bool) Level {
	if b {
		return High
	}
	return Low
}

// Edge is a transition direction on a line.
type Edge uint8

// Edge directions.
const (
	EdgeFalling Edge = iota // High to Low
	EdgeRising              // Low to High
)

// NumEdges is the number of edge directions.
const NumEdges = 2

// String returns the edge name.
func (e Edge) String() string {
	switch e {
	case EdgeFalling:
		return "falling"
	case EdgeRising:
		return "rising"
	default:
		return "unknown"
	}
}

// Valid reports whether e names an edge direction.
func (e Edge) Valid() bool {
	return e < NumEdges
}

// EdgeTo returns the edge that ends at level.
func EdgeTo(level Level) Edge {
	if level == Low {
		return EdgeFalling
	}
	return EdgeRising
}
