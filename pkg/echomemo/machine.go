// Package echomemo is the appliance controller: the mode state machine that
// turns knob and button events into interviews, chats and diary browsing.
//
// A Machine is driven by a hwevent.Dispatcher. Every method except Snapshot
// must be called from the dispatcher goroutine; collaborator calls run to
// completion there while new input queues up in the event channel.
package echomemo

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/haivivi/echomemo/pkg/artifact"
	"github.com/haivivi/echomemo/pkg/assistant"
	"github.com/haivivi/echomemo/pkg/hwevent"
	"github.com/haivivi/echomemo/pkg/memstore"
	"github.com/haivivi/echomemo/pkg/voice"
)

// Status lines shown on the display.
const (
	StatusSelect          = "Press to confirm"
	StatusSelected        = "Selected"
	StatusRecording       = "Recording..."
	StatusRecordingFailed = "Recording failed"
	StatusProcessing      = "Processing..."
	StatusNotRecognized   = "Not recognized"
	StatusThinking        = "Thinking..."
	StatusNoResponse      = "No response"
	StatusSaved           = "Saved"
	StatusSaveFailed      = "Save failed"
	StatusQuestionFailed  = "Question failed"
	StatusNotSaved        = "Not saved"
)

// ThinkingSound is played from the sounds directory while waiting on the
// assistant and after a memory is saved.
const ThinkingSound = "thinking_filler.wav"

// Display is the screen collaborator.
type Display interface {
	ShowText(text string) error
	ShowLines(lines ...string) error
	ShowMode(label, status string) error
	Clear() error
}

// Audio plays system sounds and synthesized speech.
type Audio interface {
	PlaySound(ctx context.Context, name string) error
	SynthesizeAndPlay(ctx context.Context, text string, class voice.Class) (string, error)
}

// Memory is the storage collaborator.
type Memory interface {
	Add(ctx context.Context, content, mode string, tags ...string) (uint64, error)
	ByDate(ctx context.Context, day time.Time) ([]memstore.Entry, error)
	Recent(ctx context.Context, window time.Duration, limit int) ([]memstore.Entry, error)
	Search(ctx context.Context, keyword string, limit int) ([]memstore.Entry, error)
	Dates(ctx context.Context, limit int) ([]time.Time, error)
}

// Recorder is the recording lifecycle controller.
type Recorder interface {
	Start(ctx context.Context) bool
	Stop(ctx context.Context) (*artifact.Artifact, error)
	Recording() bool
}

// Archiver keeps a copy of a recording before it is released.
type Archiver interface {
	Archive(ctx context.Context, a *artifact.Artifact, tag string) (string, error)
}

// State is a snapshot of the machine.
type State struct {
	Mode        Mode        `json:"mode"`
	Pending     Mode        `json:"pending"`
	Recording   bool        `json:"recording"`
	DiaryCursor int         `json:"diary_cursor"`
	DiaryDates  []time.Time `json:"diary_dates,omitempty"`
	// Capture is the ID of the recording being processed, if any.
	Capture string `json:"capture,omitempty"`
}

// Machine is the mode state machine.
type Machine struct {
	display  Display
	audio    Audio
	ai       assistant.Assistant
	store    Memory
	rec      Recorder
	archiver Archiver

	logger      *slog.Logger
	pause       func(ctx context.Context, d time.Duration)
	splashPause time.Duration
	statusPause time.Duration
	timeout     time.Duration
	onFailure   func(op string)

	mu          sync.Mutex
	mode        Mode
	pending     int
	diaryCursor int
	diaryDates  []time.Time
	capture     *artifact.Artifact
}

var _ hwevent.Handler = (*Machine)(nil)

// Option configures a Machine.
type Option func(*Machine)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) { m.logger = l }
}

// WithPause replaces the function used to hold a status screen.
func WithPause(fn func(ctx context.Context, d time.Duration)) Option {
	return func(m *Machine) { m.pause = fn }
}

// WithPauses sets how long the splash and confirm screens, and result
// statuses, stay up.
func WithPauses(splash, status time.Duration) Option {
	return func(m *Machine) {
		m.splashPause = splash
		m.statusPause = status
	}
}

// WithTimeout bounds each assistant and speech call. Zero means no bound.
func WithTimeout(d time.Duration) Option {
	return func(m *Machine) { m.timeout = d }
}

// WithArchiver copies every recording to long-term storage.
func WithArchiver(a Archiver) Option {
	return func(m *Machine) { m.archiver = a }
}

// WithFailureHook is called with the operation name of every failed
// collaborator call.
func WithFailureHook(fn func(op string)) Option {
	return func(m *Machine) { m.onFailure = fn }
}

// New creates a machine in Daily mode. Call Boot before dispatching events.
func New(d Display, a Audio, ai assistant.Assistant, store Memory, rec Recorder, opts ...Option) *Machine {
	m := &Machine{
		display:     d,
		audio:       a,
		ai:          ai,
		store:       store,
		rec:         rec,
		pause:       sleep,
		splashPause: time.Second,
		statusPause: 2 * time.Second,
		mode:        Daily,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	m.logger = m.logger.With("component", "echomemo")
	return m
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// Snapshot returns a copy of the current state. It is safe to call from any
// goroutine.
func (m *Machine) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := State{
		Mode:        m.mode,
		Pending:     Modes[m.pending],
		Recording:   m.rec.Recording(),
		DiaryCursor: m.diaryCursor,
		DiaryDates:  slices.Clone(m.diaryDates),
	}
	if m.capture != nil {
		s.Capture = m.capture.ID
	}
	return s
}

// Mode returns the active mode.
func (m *Machine) Mode() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

// Boot shows the splash screen and enters the initial mode.
func (m *Machine) Boot(ctx context.Context) {
	m.show(m.display.ShowText("EchoMemo"))
	m.pause(ctx, m.splashPause)
	m.enter(ctx, m.Mode())
}

// Shutdown stops an active recording, discards it and clears the screen.
func (m *Machine) Shutdown(ctx context.Context) {
	if m.rec.Recording() {
		art, err := m.rec.Stop(ctx)
		if err != nil {
			m.logger.Warn("stop recording on shutdown", "error", err)
		}
		if err := art.Release(); err != nil {
			m.logger.Warn("release recording", "error", err)
		}
	}
	m.show(m.display.Clear())
}

// HandleEvent implements hwevent.Handler.
func (m *Machine) HandleEvent(ctx context.Context, ev hwevent.Event) {
	m.logger.Debug("event", "event", ev.String())
	switch ev.Kind() {
	case hwevent.KindRotaryDelta:
		m.rotate(ctx, ev.Delta())
	case hwevent.KindRotaryPress:
		m.confirm(ctx)
	case hwevent.KindRecordPress:
		m.startRecording(ctx)
	case hwevent.KindRecordRelease:
		m.stopRecording(ctx)
	default:
		m.logger.Warn("unknown event", "event", ev.String())
	}
}

func (m *Machine) rotate(ctx context.Context, d int) {
	if m.Mode() == Diary {
		m.navigateDiary(ctx, d)
		return
	}
	m.mu.Lock()
	m.pending = wrap(m.pending, d, len(Modes))
	next := Modes[m.pending]
	m.mu.Unlock()
	m.show(m.display.ShowMode(next.Label(), StatusSelect))
}

func (m *Machine) confirm(ctx context.Context) {
	m.mu.Lock()
	m.mode = Modes[m.pending]
	mode := m.mode
	m.mu.Unlock()
	m.logger.Info("mode selected", "mode", mode)
	m.show(m.display.ShowMode(mode.Label(), StatusSelected))
	m.pause(ctx, m.splashPause)
	m.enter(ctx, mode)
}

func (m *Machine) startRecording(ctx context.Context) {
	if !m.rec.Start(ctx) {
		return
	}
	m.show(m.display.ShowText(StatusRecording))
}

func (m *Machine) stopRecording(ctx context.Context) {
	if !m.rec.Recording() {
		return
	}
	art, err := m.rec.Stop(ctx)
	if err != nil || art == nil {
		if err != nil {
			m.logger.Warn("recording", "error", err)
		}
		m.fail("capture")
		m.show(m.display.ShowText(StatusRecordingFailed))
		m.pause(ctx, m.statusPause/2)
		return
	}

	m.mu.Lock()
	m.capture = art
	mode := m.mode
	m.mu.Unlock()
	defer func() {
		if err := art.Release(); err != nil {
			m.logger.Warn("release recording", "artifact", art.String(), "error", err)
		}
		m.mu.Lock()
		m.capture = nil
		m.mu.Unlock()
	}()

	if m.archiver != nil {
		if path, err := m.archiver.Archive(ctx, art, mode.String()); err != nil {
			m.fail("archive")
			m.logger.Warn("archive recording", "error", err)
		} else {
			m.logger.Info("recording archived", "path", path)
		}
	}

	m.show(m.display.ShowText(StatusProcessing))
	m.process(ctx, mode, art)
}

// show logs a display failure. The screen is best effort.
func (m *Machine) show(err error) {
	if err != nil {
		m.fail("display")
		m.logger.Warn("display", "error", err)
	}
}

func (m *Machine) fail(op string) {
	if m.onFailure != nil {
		m.onFailure(op)
	}
}

func (m *Machine) call(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.timeout > 0 {
		return context.WithTimeout(ctx, m.timeout)
	}
	return context.WithCancel(ctx)
}
