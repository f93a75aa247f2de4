package host

import "sync/atomic"

// Stats is a snapshot of engine counters.
type Stats struct {
	FramesReceived uint64 // Valid device-to-host frames
	Queued         uint64 // Bytes placed in the read queue
	Dispatched     uint64 // Bytes handed to the callback
	Flushed        uint64 // Queued bytes discarded by a callback switch
	Overflows      uint64 // Bytes dropped by a full fixed-size read queue

	StartErrors  uint64
	ParityErrors uint64
	StopErrors   uint64
	Resends      uint64 // Resend requests issued
	Desyncs      uint64 // Times the resend bound was reached
	Abandoned    uint64 // Partial receptions dropped by a write

	Writes        uint64 // Write transactions started, resends included
	Acks          uint64
	Nacks         uint64
	WriteTimeouts uint64
	ReadTimeouts  uint64
}

// FramingErrors returns the total of start, parity and stop bit errors.
func (s Stats) FramingErrors() uint64 {
	return s.StartErrors + s.ParityErrors + s.StopErrors
}

type counters struct {
	framesReceived atomic.Uint64
	queued         atomic.Uint64
	dispatched     atomic.Uint64
	flushed        atomic.Uint64
	overflows      atomic.Uint64
	startErrors    atomic.Uint64
	parityErrors   atomic.Uint64
	stopErrors     atomic.Uint64
	resends        atomic.Uint64
	desyncs        atomic.Uint64
	abandoned      atomic.Uint64
	writes         atomic.Uint64
	acks           atomic.Uint64
	nacks          atomic.Uint64
	writeTimeouts  atomic.Uint64
	readTimeouts   atomic.Uint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		FramesReceived: c.framesReceived.Load(),
		Queued:         c.queued.Load(),
		Dispatched:     c.dispatched.Load(),
		Flushed:        c.flushed.Load(),
		Overflows:      c.overflows.Load(),
		StartErrors:    c.startErrors.Load(),
		ParityErrors:   c.parityErrors.Load(),
		StopErrors:     c.stopErrors.Load(),
		Resends:        c.resends.Load(),
		Desyncs:        c.desyncs.Load(),
		Abandoned:      c.abandoned.Load(),
		Writes:         c.writes.Load(),
		Acks:           c.acks.Load(),
		Nacks:          c.nacks.Load(),
		WriteTimeouts:  c.writeTimeouts.Load(),
		ReadTimeouts:   c.readTimeouts.Load(),
	}
}
