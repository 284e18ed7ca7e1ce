package gpio

import "time"

// DefaultDebounce is the minimum interval between accepted button edges.
const DefaultDebounce = 10 * time.Millisecond

// Debouncer rejects edges that follow the previously accepted edge on the
// same line too closely. It is not safe for concurrent use; each watcher owns
// its own.
type Debouncer struct {
	interval time.Duration
	last     time.Time
}

// NewDebouncer returns a debouncer with the given minimum interval.
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{interval: interval}
}

// Accept reports whether an edge observed at now should be processed.
func (d *Debouncer) Accept(now time.Time) bool {
	if !d.last.IsZero() && now.Sub(d.last) < d.interval {
		return false
	}
	d.last = now
	return true
}
