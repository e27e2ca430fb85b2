package reactor

import (
	"sync"
	"sync/atomic"
)

// Condition is a one-way termination flag shared across goroutines.
//
// It starts inactive and can only ever become active. Activate may be
// called from any goroutine, any number of times. IsActive is a lock-free
// load; Done returns a channel closed on activation so a blocked consumer
// can wake up.
type Condition struct {
	active atomic.Bool
	once   sync.Once
	done   chan struct{}
}

// NewCondition creates an inactive condition.
func NewCondition() *Condition {
	return &Condition{done: make(chan struct{})}
}

// Activate flips the condition to active. Subsequent calls are no-ops.
func (c *Condition) Activate() {
	c.once.Do(func() {
		c.active.Store(true)
		close(c.done)
	})
}

// IsActive reports whether Activate has been called.
func (c *Condition) IsActive() bool {
	return c.active.Load()
}

// Done returns a channel that is closed once the condition is active.
func (c *Condition) Done() <-chan struct{} {
	return c.done
}
