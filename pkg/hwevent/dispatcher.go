package hwevent

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"
)

// DefaultTick is the scheduler tick interval.
const DefaultTick = 50 * time.Millisecond

// Handler processes one event on the scheduler goroutine.
type Handler interface {
	HandleEvent(ctx context.Context, ev Event)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, ev Event)

// HandleEvent calls f(ctx, ev).
func (f HandlerFunc) HandleEvent(ctx context.Context, ev Event) { f(ctx, ev) }

// Observer receives dispatch statistics. Implementations must be safe for
// use from the scheduler goroutine.
type Observer interface {
	EventHandled(kind Kind, elapsed time.Duration)
	HandlerPanicked(kind Kind)
}

// Dispatcher drains a Channel once per tick and runs the handler for each
// event in order. Handlers never run concurrently with each other.
type Dispatcher struct {
	ch       *Channel
	handler  Handler
	observer Observer
	logger   *slog.Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithObserver sets the statistics observer.
func WithObserver(o Observer) DispatcherOption {
	return func(d *Dispatcher) { d.observer = o }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.logger = l }
}

// NewDispatcher creates a dispatcher that feeds events from ch to h.
func NewDispatcher(ch *Channel, h Handler, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{ch: ch, handler: h}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

// Tick drains all pending events and handles them. It returns the number of
// events handled. An empty channel is not an error.
func (d *Dispatcher) Tick(ctx context.Context) int {
	events := d.ch.Drain()
	for _, ev := range events {
		if ctx.Err() != nil {
			// Shutting down; what is left is discarded with the channel.
			return 0
		}
		d.dispatch(ctx, ev)
	}
	return len(events)
}

// Run calls Tick every interval until ctx is done. A non-positive interval
// selects DefaultTick.
func (d *Dispatcher) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultTick
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			d.Tick(ctx)
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, ev Event) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("hwevent: handler panicked",
				"event", ev.String(),
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
			if d.observer != nil {
				d.observer.HandlerPanicked(ev.Kind())
			}
			return
		}
		if d.observer != nil {
			d.observer.EventHandled(ev.Kind(), time.Since(start))
		}
	}()
	d.handler.HandleEvent(ctx, ev)
}
