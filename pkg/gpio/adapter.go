package gpio

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/haivivi/echomemo/pkg/hwevent"
)

// DefaultEncoderDebounce is the minimum interval between accepted encoder
// edges. Quadrature edges come much faster than button edges.
const DefaultEncoderDebounce = time.Millisecond

// DefaultPollTimeout bounds each WaitForEdge call so watchers notice
// cancellation.
const DefaultPollTimeout = 100 * time.Millisecond

// Config configures an Adapter.
type Config struct {
	// Debounce applies to the rotary switch and the record button.
	Debounce time.Duration
	// EncoderDebounce applies to the CLK and DT lines.
	EncoderDebounce time.Duration
	// PollTimeout bounds each edge wait.
	PollTimeout time.Duration
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Adapter watches the input lines and pushes decoded events into a sink.
type Adapter struct {
	lines Lines
	sink  hwevent.Sink
	cfg   Config

	// encMu serializes the CLK and DT watchers around the shared decoder so
	// rotary events leave in decode order.
	encMu   sync.Mutex
	decoder *Quadrature
}

// NewAdapter creates an adapter over lines. Lines left nil are not watched.
func NewAdapter(lines Lines, sink hwevent.Sink, cfg Config) *Adapter {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.EncoderDebounce <= 0 {
		cfg.EncoderDebounce = DefaultEncoderDebounce
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = DefaultPollTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	a := &Adapter{lines: lines, sink: sink, cfg: cfg}
	if lines.CLK != nil && lines.DT != nil {
		a.decoder = NewQuadrature(lines.CLK.Read(), lines.DT.Read())
	}
	return a
}

// Run watches every line until ctx is done.
func (a *Adapter) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	if a.decoder != nil {
		g.Go(func() error { return a.watch(ctx, a.lines.CLK, a.cfg.EncoderDebounce, a.onEncoderEdge) })
		g.Go(func() error { return a.watch(ctx, a.lines.DT, a.cfg.EncoderDebounce, a.onEncoderEdge) })
	}
	if a.lines.SW != nil {
		b := newButton(a.lines.SW)
		g.Go(func() error {
			return a.watch(ctx, a.lines.SW, a.cfg.Debounce, func(now time.Time) {
				if pressed, changed := b.update(); changed && pressed {
					a.sink.Push(hwevent.RotaryPress(hwevent.LineRotaryButton, now))
				}
			})
		})
	}
	if a.lines.Record != nil {
		b := newButton(a.lines.Record)
		g.Go(func() error {
			return a.watch(ctx, a.lines.Record, a.cfg.Debounce, func(now time.Time) {
				pressed, changed := b.update()
				switch {
				case !changed:
				case pressed:
					a.sink.Push(hwevent.RecordPress(hwevent.LineRecordButton, now))
				default:
					a.sink.Push(hwevent.RecordRelease(hwevent.LineRecordButton, now))
				}
			})
		})
	}
	a.cfg.Logger.Info("gpio: watching input lines")
	err := g.Wait()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (a *Adapter) watch(ctx context.Context, line Line, interval time.Duration, onEdge func(time.Time)) error {
	deb := NewDebouncer(interval)
	// settle is set when an edge was rejected. The line may have come to rest
	// at a level that was never handled, so it is sampled again once the
	// window has passed.
	settle := false
	for ctx.Err() == nil {
		timeout := a.cfg.PollTimeout
		if settle {
			timeout = min(timeout, interval)
		}
		if !line.WaitForEdge(timeout) {
			if settle {
				if now := a.cfg.Now(); deb.Accept(now) {
					settle = false
					onEdge(now)
				}
			}
			continue
		}
		now := a.cfg.Now()
		if !deb.Accept(now) {
			settle = true
			continue
		}
		settle = false
		onEdge(now)
	}
	return nil
}

func (a *Adapter) onEncoderEdge(now time.Time) {
	a.encMu.Lock()
	defer a.encMu.Unlock()
	if d := a.decoder.Update(a.lines.CLK.Read(), a.lines.DT.Read()); d != 0 {
		a.sink.Push(hwevent.RotaryDelta(hwevent.LineRotary, d, now))
	}
}

// button tracks the logical state of an active-low switch.
type button struct {
	line    Line
	pressed bool
}

func newButton(line Line) *button {
	return &button{line: line, pressed: line.Read() == Low}
}

// update samples the line and reports the logical state and whether it
// differs from the previous sample.
func (b *button) update() (pressed, changed bool) {
	p := b.line.Read() == Low
	changed = p != b.pressed
	b.pressed = p
	return p, changed
}
