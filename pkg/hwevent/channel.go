package hwevent

import "github.com/haivivi/echomemo/pkg/buffer"

// DefaultCapacity is the number of events a Channel holds before it starts
// dropping the oldest ones.
const DefaultCapacity = 64

// Sink accepts events from a producer. Push must not block.
type Sink interface {
	Push(Event)
}

// Channel is a bounded multi-producer single-consumer event queue.
//
// Push never blocks. When the queue is full the oldest pending event is
// discarded and counted in Dropped, so the most recent input always reaches
// the dispatcher.
type Channel struct {
	rb *buffer.RingBuffer[Event]
}

var _ Sink = (*Channel)(nil)

// NewChannel creates a channel holding at most capacity pending events. A
// non-positive capacity selects DefaultCapacity.
func NewChannel(capacity int) *Channel {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Channel{rb: buffer.RingN[Event](capacity)}
}

// Push enqueues ev. Pushing to a closed channel is a silent no-op.
func (c *Channel) Push(ev Event) {
	_, _ = c.rb.Add(ev)
}

// Drain removes and returns all pending events in the order they were
// pushed. It never blocks and returns nil when nothing is pending.
func (c *Channel) Drain() []Event {
	return c.rb.Drain()
}

// Next blocks until an event is available. It returns ok=false once the
// channel is closed and empty.
func (c *Channel) Next() (Event, bool) {
	ev, err := c.rb.Next()
	return ev, err == nil
}

// Len returns the number of pending events.
func (c *Channel) Len() int {
	return c.rb.Len()
}

// Cap returns the channel capacity.
func (c *Channel) Cap() int {
	return c.rb.Cap()
}

// Dropped returns the number of events discarded because the channel was
// full.
func (c *Channel) Dropped() uint64 {
	return c.rb.Overwritten()
}

// Close stops accepting events. Pending events can still be drained.
func (c *Channel) Close() error {
	return c.rb.CloseWrite()
}
