// Package recorder owns the single in-flight audio capture.
//
// A Controller is Idle or Recording. Start spawns a capture task and returns
// at once; Stop cancels the task, waits for it to finalize and hands back the
// artifact it produced. Only the goroutine that calls Start and Stop (the
// appliance scheduler) touches the task handle.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/haivivi/echomemo/pkg/artifact"
)

var (
	// ErrEmpty is returned by Stop when the capture produced no audio.
	ErrEmpty = errors.New("recorder: nothing captured")

	// ErrFinalizeTimeout is returned by Stop when the capture task did not
	// finish within the finalize timeout. The task cleans up after itself.
	ErrFinalizeTimeout = errors.New("recorder: capture did not finalize in time")
)

// DefaultFinalizeTimeout bounds how long Stop waits for a capture to flush.
const DefaultFinalizeTimeout = 10 * time.Second

// Capturer records audio until ctx is cancelled, then finalizes it into an
// artifact. A capture with no audio must delete its placeholder and return a
// nil artifact.
type Capturer interface {
	Capture(ctx context.Context) (*artifact.Artifact, error)
}

// CaptureFunc adapts a function to Capturer.
type CaptureFunc func(ctx context.Context) (*artifact.Artifact, error)

// Capture calls f(ctx).
func (f CaptureFunc) Capture(ctx context.Context) (*artifact.Artifact, error) { return f(ctx) }

// State is the controller state.
type State int

const (
	StateIdle State = iota
	StateRecording
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	default:
		return "unknown"
	}
}

// Controller enforces at most one capture at a time.
type Controller struct {
	capturer        Capturer
	finalizeTimeout time.Duration
	logger          *slog.Logger
	onFinish        func(d time.Duration, ok bool)
	now             func() time.Time

	mu   sync.Mutex
	task *Task
}

// Option configures a Controller.
type Option func(*Controller)

// WithFinalizeTimeout sets how long Stop waits for the task.
func WithFinalizeTimeout(d time.Duration) Option {
	return func(c *Controller) { c.finalizeTimeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithFinishHook is called by Stop with the recording length and whether an
// artifact was produced.
func WithFinishHook(fn func(d time.Duration, ok bool)) Option {
	return func(c *Controller) { c.onFinish = fn }
}

// New creates an idle controller.
func New(capturer Capturer, opts ...Option) *Controller {
	c := &Controller{
		capturer:        capturer,
		finalizeTimeout: DefaultFinalizeTimeout,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.task != nil {
		return StateRecording
	}
	return StateIdle
}

// Recording reports whether a capture is in flight.
func (c *Controller) Recording() bool {
	return c.State() == StateRecording
}

// Start begins a capture. It returns false without side effects when a
// capture is already running. Cancelling ctx also stops the capture.
func (c *Controller) Start(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.task != nil {
		return false
	}
	c.task = spawn(ctx, c.capturer, c.now(), c.logger)
	c.logger.Info("recorder: started")
	return true
}

// Stop finalizes the running capture and returns its artifact, which the
// caller then owns. When idle it returns (nil, nil) immediately.
//
// Stop blocks until the task finishes or the finalize timeout passes. In
// every case the controller is Idle when Stop returns.
func (c *Controller) Stop(ctx context.Context) (*artifact.Artifact, error) {
	c.mu.Lock()
	t := c.task
	c.mu.Unlock()
	if t == nil {
		return nil, nil
	}
	defer func() {
		c.mu.Lock()
		c.task = nil
		c.mu.Unlock()
	}()

	t.cancel()
	waitCtx := ctx
	if c.finalizeTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, c.finalizeTimeout)
		defer cancel()
	}
	art, err := t.Wait(waitCtx)
	elapsed := c.now().Sub(t.started)
	if c.onFinish != nil {
		c.onFinish(elapsed, art != nil)
	}

	switch {
	case errors.Is(err, ErrFinalizeTimeout):
		c.logger.Warn("recorder: abandoned capture", "elapsed", elapsed, "error", err)
		return nil, err
	case err != nil:
		c.logger.Error("recorder: capture failed", "elapsed", elapsed, "error", err)
		return nil, err
	case art == nil:
		c.logger.Info("recorder: nothing captured", "elapsed", elapsed)
		return nil, ErrEmpty
	}
	c.logger.Info("recorder: stopped", "elapsed", elapsed, "artifact", art.String())
	return art, nil
}

// Task is the handle of one capture goroutine.
type Task struct {
	cancel  context.CancelFunc
	done    chan struct{}
	started time.Time

	mu        sync.Mutex
	finished  bool
	abandoned bool
	art       *artifact.Artifact
	err       error
}

func spawn(ctx context.Context, capturer Capturer, now time.Time, logger *slog.Logger) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{cancel: cancel, done: make(chan struct{}), started: now}
	go func() {
		defer close(t.done)
		art, err := runCapture(ctx, capturer)

		t.mu.Lock()
		defer t.mu.Unlock()
		t.finished = true
		if t.abandoned {
			if rerr := art.Release(); rerr != nil {
				logger.Warn("recorder: release abandoned capture", "error", rerr)
			}
			return
		}
		t.art, t.err = art, err
	}()
	return t
}

func runCapture(ctx context.Context, capturer Capturer) (art *artifact.Artifact, err error) {
	defer func() {
		if r := recover(); r != nil {
			art.Release()
			art, err = nil, fmt.Errorf("recorder: capture panicked: %v", r)
		}
	}()
	art, err = capturer.Capture(ctx)
	if err != nil {
		art.Release()
		return nil, err
	}
	return art, nil
}

// Wait blocks until the task finishes and returns its result. If ctx ends
// first the task is abandoned: Wait returns an error wrapping
// ErrFinalizeTimeout and the goroutine releases whatever it produces.
func (t *Task) Wait(ctx context.Context) (*artifact.Artifact, error) {
	select {
	case <-t.done:
	case <-ctx.Done():
		t.mu.Lock()
		if !t.finished {
			t.abandoned = true
			t.mu.Unlock()
			return nil, fmt.Errorf("%w: %w", ErrFinalizeTimeout, ctx.Err())
		}
		t.mu.Unlock()
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.art, t.err
}
