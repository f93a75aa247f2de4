package host

import "time"

// Config holds the engine configuration.
type Config struct {
	// ReadTimeout bounds ReadByte. Zero waits until the engine stops.
	ReadTimeout time.Duration

	// WriteTimeout bounds the time the device may take to clock a write
	// out and acknowledge it. Zero waits until the engine stops.
	WriteTimeout time.Duration

	// RequestToSend is how long the host holds the clock low before a
	// write. Never below MinRequestToSend.
	RequestToSend time.Duration

	// MaxResends is the number of consecutive resend requests issued
	// after framing errors before ErrDesync is reported. Zero or negative
	// keeps requesting resends indefinitely.
	MaxResends int

	// ErrorHandler receives framing errors, ErrDesync, nacks and write
	// timeouts. It may be called from edge-handler context and must not
	// block.
	ErrorHandler func(error)

	// Callback, when set, is registered and enabled at construction.
	Callback Callback
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		ReadTimeout:   DefaultReadTimeout,
		WriteTimeout:  DefaultWriteTimeout,
		RequestToSend: DefaultRequestToSend,
		MaxResends:    DefaultMaxResends,
	}
}

// Option configures a Host.
type Option func(*Config)

// WithReadTimeout sets the ReadByte timeout. Negative values are treated
// as zero.
func WithReadTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.ReadTimeout = max(d, 0)
	}
}

// WithWriteTimeout sets the write acknowledge timeout. Negative values are
// treated as zero.
func WithWriteTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.WriteTimeout = max(d, 0)
	}
}

// WithRequestToSend sets the clock inhibit time before a write, clamped to
// MinRequestToSend.
func WithRequestToSend(d time.Duration) Option {
	return func(c *Config) {
		c.RequestToSend = max(d, MinRequestToSend)
	}
}

// WithMaxResends sets the consecutive resend bound.
func WithMaxResends(n int) Option {
	return func(c *Config) {
		c.MaxResends = n
	}
}

// WithErrorHandler sets the asynchronous error handler.
func WithErrorHandler(fn func(error)) Option {
	return func(c *Config) {
		c.ErrorHandler = fn
	}
}

// WithCallback registers and enables cb at construction.
func WithCallback(cb Callback) Option {
	return func(c *Config) {
		c.Callback = cb
	}
}

// requestToSendMicros returns the inhibit time in whole microseconds,
// rounded up.
func (c *Config) requestToSendMicros() uint32 {
	d := max(c.RequestToSend, MinRequestToSend)
	return uint32((d + time.Microsecond - 1) / time.Microsecond)
}
