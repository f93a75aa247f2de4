package pkg

import "errors"

// Framing errors detected while receiving a frame.
var (
	// ErrStartBit indicates a frame whose start bit was not 0.
	ErrStartBit = errors.New("invalid start bit")

	// ErrParity indicates a frame whose parity bit did not give odd parity.
	ErrParity = errors.New("parity mismatch")

	// ErrStopBit indicates a frame whose stop bit was not 1.
	ErrStopBit = errors.New("invalid stop bit")

	// ErrDesync indicates framing errors persisted after the configured
	// number of resend requests.
	ErrDesync = errors.New("persistent line desynchronization")
)

// Transport errors.
var (
	// ErrTimeout indicates a read or write did not complete in time.
	ErrTimeout = errors.New("timeout")

	// ErrNack indicates the device answered a host write with ack bit 1.
	ErrNack = errors.New("device rejected frame")

	// ErrAborted indicates a device-to-host frame was cut short because the
	// host seized the clock line.
	ErrAborted = errors.New("frame aborted by host")
)

// Configuration and lifecycle errors.
var (
	// ErrNoCallback indicates callback delivery was enabled with no
	// callback registered.
	ErrNoCallback = errors.New("no callback registered")

	// ErrInvalidParameter indicates an invalid parameter was provided.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrInvalidLine indicates a line other than clock or data.
	ErrInvalidLine = errors.New("invalid line")

	// ErrInvalidEdge indicates an edge other than falling or rising.
	ErrInvalidEdge = errors.New("invalid edge")

	// ErrAlreadyRunning indicates the engine is already running.
	ErrAlreadyRunning = errors.New("already running")

	// ErrNotRunning indicates the engine is not running.
	ErrNotRunning = errors.New("not running")
)

// IsFramingError reports whether err is one of the framing errors that the
// receive path recovers from locally.
func IsFramingError(err error) bool {
	return errors.Is(err, ErrStartBit) ||
		errors.Is(err, ErrParity) ||
		errors.Is(err, ErrStopBit)
}
