//go:build !tinygo

package host

import "sync"

// critical guards the state shared between edge handlers and the calling
// goroutines. HAL edge handlers run on ordinary goroutines here, so a
// mutex is enough.
type critical struct {
	mu sync.Mutex
}

func (c *critical) Lock()   { c.mu.Lock() }
func (c *critical) Unlock() { c.mu.Unlock() }

const (
	// handlerLogging enables log records from edge-handler context.
	handlerLogging = true

	// queueGrows lets the read queue grow past queueCapacity.
	queueGrows = true

	// queueCapacity is the initial read queue capacity.
	queueCapacity = 64
)
