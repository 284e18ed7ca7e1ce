package echomemo

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	"github.com/haivivi/echomemo/pkg/artifact"
	"github.com/haivivi/echomemo/pkg/display"
	"github.com/haivivi/echomemo/pkg/hwevent"
	"github.com/haivivi/echomemo/pkg/kv"
	"github.com/haivivi/echomemo/pkg/memstore"
	"github.com/haivivi/echomemo/pkg/recorder"
	"github.com/haivivi/echomemo/pkg/voice"
)

type fakeAI struct {
	transcript string
	prompt     string
	reply      string
	err        error
	panicMsg   string

	transcribed []string
	related     []memstore.Entry
	prompts     int
}

func (f *fakeAI) Transcribe(_ context.Context, path string) (string, error) {
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	f.transcribed = append(f.transcribed, path)
	return f.transcript, f.err
}

func (f *fakeAI) GeneratePrompt(context.Context, []memstore.Entry) (string, error) {
	f.prompts++
	return f.prompt, f.err
}

func (f *fakeAI) GenerateReply(_ context.Context, _ string, related []memstore.Entry) (string, error) {
	f.related = related
	return f.reply, f.err
}

type speech struct {
	text  string
	class voice.Class
}

type fakeAudio struct {
	sounds []string
	spoken []speech
	err    error
}

func (f *fakeAudio) PlaySound(_ context.Context, name string) error {
	f.sounds = append(f.sounds, name)
	return nil
}

func (f *fakeAudio) SynthesizeAndPlay(_ context.Context, text string, class voice.Class) (string, error) {
	f.spoken = append(f.spoken, speech{text, class})
	if f.err != nil {
		return "", f.err
	}
	return "https://example.com/speech.wav", nil
}

type countingStore struct {
	*memstore.Store
	dates atomic.Int32
}

func (s *countingStore) Dates(ctx context.Context, limit int) ([]time.Time, error) {
	s.dates.Add(1)
	return s.Store.Dates(ctx, limit)
}

type fakeArchiver struct {
	tags []string
}

func (f *fakeArchiver) Archive(_ context.Context, a *artifact.Artifact, tag string) (string, error) {
	if a.Released() {
		return "", errors.New("archived after release")
	}
	f.tags = append(f.tags, tag)
	return tag + "/" + a.ID + ".wav", nil
}

type fixture struct {
	m        *Machine
	display  *display.Recorder
	audio    *fakeAudio
	ai       *fakeAI
	store    *countingStore
	dir      *artifact.Dir
	captures atomic.Int32
	failures []string
	clock    time.Time

	// data is what the next capture records; empty means silence.
	data string
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	dir, err := artifact.NewDir(filepath.Join(t.TempDir(), "artifacts"))
	if err != nil {
		t.Fatal(err)
	}
	f := &fixture{
		display: &display.Recorder{},
		audio:   &fakeAudio{},
		ai:      &fakeAI{prompt: "What made you smile today?", reply: "Glad to hear it"},
		dir:     dir,
		data:    "RIFF",
		clock:   time.Date(2024, 5, 3, 9, 0, 0, 0, time.UTC),
	}
	ms := memstore.New(kv.NewMemory(nil),
		memstore.WithClock(func() time.Time { return f.clock }),
		memstore.WithLocation(time.UTC))
	t.Cleanup(func() { ms.Close() })
	f.store = &countingStore{Store: ms}

	rec := recorder.New(recorder.CaptureFunc(f.capture), recorder.WithFinalizeTimeout(2*time.Second))
	opts = append([]Option{
		WithPause(func(context.Context, time.Duration) {}),
		WithFailureHook(func(op string) { f.failures = append(f.failures, op) }),
	}, opts...)
	f.m = New(f.display, f.audio, f.ai, f.store, rec, opts...)
	return f
}

func (f *fixture) capture(ctx context.Context) (*artifact.Artifact, error) {
	f.captures.Add(1)
	a, file, err := f.dir.Create(artifact.KindCapture, ".wav")
	if err != nil {
		return nil, err
	}
	defer file.Close()
	<-ctx.Done()
	if f.data == "" {
		file.Close()
		a.Release()
		return nil, nil
	}
	if _, err := file.WriteString(f.data); err != nil {
		return a, err
	}
	return a, nil
}

func (f *fixture) send(events ...hwevent.Event) {
	for _, ev := range events {
		f.m.HandleEvent(context.Background(), ev)
	}
}

func (f *fixture) entries(t *testing.T) []memstore.Entry {
	t.Helper()
	list, err := f.store.List(context.Background(), 100)
	if err != nil {
		t.Fatal(err)
	}
	slices.Reverse(list)
	return list
}

func (f *fixture) pending(t *testing.T) []string {
	t.Helper()
	files, err := f.dir.Pending()
	if err != nil {
		t.Fatal(err)
	}
	return files
}

func (f *fixture) add(t *testing.T, at time.Time, content string) {
	t.Helper()
	saved := f.clock
	f.clock = at
	defer func() { f.clock = saved }()
	if _, err := f.store.Add(context.Background(), content, memstore.ModeDaily); err != nil {
		t.Fatal(err)
	}
}

var t0 = time.Date(2024, 5, 3, 9, 0, 0, 0, time.UTC)

func rotate(d int) hwevent.Event { return hwevent.RotaryDelta(hwevent.LineRotary, d, t0) }
func press() hwevent.Event       { return hwevent.RotaryPress(hwevent.LineRotaryButton, t0) }
func recPress() hwevent.Event    { return hwevent.RecordPress(hwevent.LineRecordButton, t0) }
func recRelease() hwevent.Event  { return hwevent.RecordRelease(hwevent.LineRecordButton, t0) }

func TestPendingIndexIsSumOfDeltas(t *testing.T) {
	tests := []struct {
		name   string
		events []hwevent.Event
		want   Mode
	}{
		{"none", nil, Daily},
		{"forward", []hwevent.Event{rotate(1), rotate(1), rotate(1)}, Reminder},
		{"wrap forward", []hwevent.Event{rotate(1), rotate(1), rotate(1), rotate(1), rotate(1)}, Chat},
		{"backward", []hwevent.Event{rotate(-1)}, Reminder},
		{"wrap backward", []hwevent.Event{rotate(-1), rotate(-1), rotate(-1), rotate(-1), rotate(-1), rotate(-1)}, Diary},
		{"mixed", []hwevent.Event{rotate(1), rotate(-1), rotate(-1), rotate(1), rotate(1)}, Chat},
		{"with recording", []hwevent.Event{rotate(1), recPress(), rotate(1), recRelease(), rotate(1), recRelease()}, Reminder},
		{"release first", []hwevent.Event{recRelease(), rotate(-1), recPress(), rotate(-1), recRelease()}, Diary},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.data = ""
			f.send(tt.events...)
			s := f.m.Snapshot()
			if s.Pending != tt.want {
				t.Errorf("pending = %v, want %v", s.Pending, tt.want)
			}
			if s.Mode != Daily {
				t.Errorf("mode changed to %v without confirm", s.Mode)
			}
			if s.Recording {
				t.Error("still recording")
			}
		})
	}
}

func TestRotateShowsCandidate(t *testing.T) {
	f := newFixture(t)
	f.send(rotate(1))
	if got := f.display.Lines(); !slices.Equal(got, []string{"Mode: Chat", StatusSelect}) {
		t.Errorf("display = %q", got)
	}
	if f.ai.prompts != 0 {
		t.Error("rotation ran an entry action")
	}
}

func TestRecordPressWhileRecording(t *testing.T) {
	f := newFixture(t)
	f.ai.transcript = "first memory"
	f.send(recPress(), recPress(), recPress())
	if !f.m.Snapshot().Recording {
		t.Fatal("not recording")
	}
	f.send(recRelease())
	if n := f.captures.Load(); n != 1 {
		t.Errorf("captures = %d, want 1", n)
	}
	if n := len(f.entries(t)); n != 1 {
		t.Errorf("entries = %d, want 1", n)
	}
}

func TestRecordReleaseWhileIdle(t *testing.T) {
	f := newFixture(t)
	f.send(recRelease())
	if len(f.display.History()) != 0 {
		t.Errorf("display touched: %q", f.display.History())
	}
	if f.captures.Load() != 0 || len(f.ai.transcribed) != 0 {
		t.Error("release without press did work")
	}
}

func TestDiaryNavigationWraps(t *testing.T) {
	f := newFixture(t)
	f.add(t, time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC), "one")
	f.add(t, time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC), "two")
	f.add(t, time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC), "two again")
	f.add(t, time.Date(2024, 5, 3, 8, 0, 0, 0, time.UTC), "three")

	f.send(rotate(1), rotate(1), press())
	s := f.m.Snapshot()
	var days []string
	for _, d := range s.DiaryDates {
		days = append(days, d.Format(time.DateOnly))
	}
	if want := []string{"2024-05-03", "2024-05-02", "2024-05-01"}; !slices.Equal(days, want) {
		t.Fatalf("dates = %v, want %v", days, want)
	}

	steps := []struct {
		delta  int
		cursor int
		lines  []string
	}{
		{-1, 2, []string{"Diary", "2024-05-01", "1 entries"}},
		{+1, 0, []string{"Diary", "2024-05-03", "1 entries"}},
		{+1, 1, []string{"Diary", "2024-05-02", "2 entries"}},
	}
	for _, st := range steps {
		f.send(rotate(st.delta))
		s := f.m.Snapshot()
		if s.DiaryCursor != st.cursor {
			t.Errorf("delta %+d: cursor = %d, want %d", st.delta, s.DiaryCursor, st.cursor)
		}
		if got := f.display.Lines(); !slices.Equal(got, st.lines) {
			t.Errorf("delta %+d: display = %q, want %q", st.delta, got, st.lines)
		}
		if s.Pending != Diary {
			t.Errorf("pending moved to %v in diary", s.Pending)
		}
	}
}

func TestDiaryEmptyNavigationIsNoop(t *testing.T) {
	f := newFixture(t)
	f.send(rotate(1), rotate(1), press())
	before := len(f.display.History())
	f.send(rotate(1), rotate(-1))
	if got := len(f.display.History()); got != before {
		t.Errorf("display updated %d times", got-before)
	}
	s := f.m.Snapshot()
	if s.DiaryCursor != 0 || len(s.DiaryDates) != 0 {
		t.Errorf("state = %+v", s)
	}
}

func TestSelectDiary(t *testing.T) {
	f := newFixture(t)
	f.add(t, time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC), "one")
	f.add(t, time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC), "two")

	f.send(rotate(1), rotate(1))
	if s := f.m.Snapshot(); s.Pending != Diary {
		t.Fatalf("pending = %v", s.Pending)
	}
	f.send(rotate(-1)) // diary is not active yet
	f.send(rotate(1), press())

	s := f.m.Snapshot()
	if s.Mode != Diary {
		t.Fatalf("mode = %v", s.Mode)
	}
	if n := f.store.dates.Load(); n != 1 {
		t.Errorf("diary entry ran %d times", n)
	}
	if s.DiaryCursor != 0 {
		t.Errorf("cursor = %d", s.DiaryCursor)
	}
	if got := f.display.Lines(); !slices.Equal(got, []string{"Diary", "2024-05-02", "1 entries"}) {
		t.Errorf("display = %q", got)
	}
}

func TestChatRecording(t *testing.T) {
	f := newFixture(t)
	f.add(t, time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC), "hello from yesterday")
	before := len(f.entries(t))

	f.send(rotate(1), press())
	if f.m.Mode() != Chat {
		t.Fatalf("mode = %v", f.m.Mode())
	}

	f.ai.transcript = "hello"
	f.send(recPress(), recRelease())

	entries := f.entries(t)[before:]
	if len(entries) != 2 {
		t.Fatalf("new entries = %d, want 2", len(entries))
	}
	if entries[0].Content != "User: hello" || entries[1].Content != "AI: Glad to hear it" {
		t.Errorf("contents = %q, %q", entries[0].Content, entries[1].Content)
	}
	for _, e := range entries {
		if e.Mode != memstore.ModeChat {
			t.Errorf("entry %d mode = %q", e.ID, e.Mode)
		}
	}
	if entries[0].ID >= entries[1].ID {
		t.Errorf("ids out of order: %d, %d", entries[0].ID, entries[1].ID)
	}
	if files := f.pending(t); len(files) != 0 {
		t.Errorf("leftover artifacts: %v", files)
	}
	if len(f.audio.spoken) != 1 || f.audio.spoken[0].class != voice.ClassPersona {
		t.Errorf("spoken = %+v", f.audio.spoken)
	}
	if f.m.Snapshot().Capture != "" {
		t.Error("capture still held")
	}
}

func TestChatNoReply(t *testing.T) {
	f := newFixture(t)
	f.send(rotate(1), press())
	f.ai.transcript = "anything"
	f.ai.reply = ""
	f.send(recPress(), recRelease())

	entries := f.entries(t)
	if len(entries) != 1 || entries[0].Content != "User: anything" {
		t.Errorf("entries = %+v", entries)
	}
	if got := f.display.Lines(); !slices.Equal(got, []string{StatusNoResponse}) {
		t.Errorf("display = %q", got)
	}
	if !slices.Contains(f.failures, "reply") {
		t.Errorf("failures = %v", f.failures)
	}
}

func TestEmptyCapture(t *testing.T) {
	f := newFixture(t)
	f.data = ""
	f.ai.transcript = "should not be used"
	f.send(recPress(), recRelease())

	if n := len(f.entries(t)); n != 0 {
		t.Errorf("entries = %d", n)
	}
	if len(f.ai.transcribed) != 0 {
		t.Error("transcribed an empty capture")
	}
	if got := f.display.Lines(); !slices.Equal(got, []string{StatusRecordingFailed}) {
		t.Errorf("display = %q", got)
	}
	if f.m.Snapshot().Recording {
		t.Error("recorder stuck")
	}

	// The machine keeps working.
	f.data = "RIFF"
	f.send(recPress(), recRelease())
	if n := len(f.entries(t)); n != 1 {
		t.Errorf("entries after retry = %d", n)
	}
}

func TestDailyRecording(t *testing.T) {
	f := newFixture(t)
	f.ai.transcript = "I walked the dog"
	f.send(recPress(), recRelease())

	entries := f.entries(t)
	if len(entries) != 1 {
		t.Fatalf("entries = %d", len(entries))
	}
	if entries[0].Content != "I walked the dog" || entries[0].Mode != memstore.ModeDaily {
		t.Errorf("entry = %+v", entries[0])
	}
	if got := f.display.Lines(); !slices.Equal(got, []string{StatusSaved, "ID: 1"}) {
		t.Errorf("display = %q", got)
	}
	if !slices.Contains(f.audio.sounds, ThinkingSound) {
		t.Errorf("sounds = %v", f.audio.sounds)
	}
	if files := f.pending(t); len(files) != 0 {
		t.Errorf("leftover artifacts: %v", files)
	}
}

func TestNotRecognized(t *testing.T) {
	tests := []struct {
		name string
		text string
		err  error
	}{
		{"no speech", "", nil},
		{"error", "", errors.New("quota")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.ai.transcript, f.ai.err = tt.text, tt.err
			f.send(recPress(), recRelease())
			if n := len(f.entries(t)); n != 0 {
				t.Errorf("entries = %d", n)
			}
			if got := f.display.Lines(); !slices.Equal(got, []string{StatusNotRecognized}) {
				t.Errorf("display = %q", got)
			}
			if files := f.pending(t); len(files) != 0 {
				t.Errorf("leftover artifacts: %v", files)
			}
		})
	}
}

func TestBootEntersDaily(t *testing.T) {
	f := newFixture(t)
	f.m.Boot(context.Background())

	h := f.display.History()
	if len(h) == 0 || !slices.Equal(h[0], []string{"EchoMemo"}) {
		t.Fatalf("history = %q", h)
	}
	if got := f.display.Lines(); !slices.Equal(got, []string{"Daily", "What made you smile today?"}) {
		t.Errorf("display = %q", got)
	}
	if len(f.audio.spoken) != 1 || f.audio.spoken[0].class != voice.ClassSystem {
		t.Errorf("spoken = %+v", f.audio.spoken)
	}
	if f.ai.prompts != 1 {
		t.Errorf("prompts = %d", f.ai.prompts)
	}
}

func TestDailyPromptFailure(t *testing.T) {
	f := newFixture(t)
	f.ai.err = errors.New("unavailable")
	f.m.Boot(context.Background())
	if got := f.display.Lines(); !slices.Equal(got, []string{StatusQuestionFailed}) {
		t.Errorf("display = %q", got)
	}
	if len(f.audio.spoken) != 0 {
		t.Error("spoke without a question")
	}
}

func TestSpeechFailureIsRecoverable(t *testing.T) {
	f := newFixture(t)
	f.audio.err = voice.ErrNoVoice
	f.m.Boot(context.Background())
	if !slices.Contains(f.failures, "synthesize") {
		t.Errorf("failures = %v", f.failures)
	}
	f.send(rotate(1))
	if f.m.Snapshot().Pending != Chat {
		t.Error("machine stopped responding")
	}
}

func TestReminderDiscardsRecording(t *testing.T) {
	f := newFixture(t)
	f.send(rotate(-1), press())
	if got := f.display.Lines(); !slices.Equal(got, []string{"Reminder", "Press to start"}) {
		t.Errorf("display = %q", got)
	}
	f.ai.transcript = "ignored"
	f.send(recPress(), recRelease())
	if n := len(f.entries(t)); n != 0 {
		t.Errorf("entries = %d", n)
	}
	if files := f.pending(t); len(files) != 0 {
		t.Errorf("leftover artifacts: %v", files)
	}
}

func TestConfirmWhileRecording(t *testing.T) {
	f := newFixture(t)
	f.ai.transcript = "switching"
	f.send(recPress(), rotate(1), press())
	if f.m.Mode() != Chat || !f.m.Snapshot().Recording {
		t.Fatalf("state = %+v", f.m.Snapshot())
	}
	f.send(recRelease())
	entries := f.entries(t)
	if len(entries) != 2 || entries[0].Mode != memstore.ModeChat {
		t.Errorf("entries = %+v", entries)
	}
}

func TestArchiver(t *testing.T) {
	ar := &fakeArchiver{}
	f := newFixture(t, WithArchiver(ar))
	f.ai.transcript = "keep this"
	f.send(recPress(), recRelease())
	if !slices.Equal(ar.tags, []string{"daily"}) {
		t.Errorf("tags = %v", ar.tags)
	}
}

func TestHandlerPanicIsContained(t *testing.T) {
	f := newFixture(t)
	f.ai.panicMsg = "boom"

	ch := hwevent.NewChannel(8)
	d := hwevent.NewDispatcher(ch, f.m)
	ch.Push(recPress())
	ch.Push(recRelease())
	ch.Push(rotate(1))
	if n := d.Tick(context.Background()); n != 3 {
		t.Errorf("dispatched %d", n)
	}

	s := f.m.Snapshot()
	if s.Recording {
		t.Error("recorder stuck after panic")
	}
	if s.Pending != Chat {
		t.Errorf("later event lost: pending = %v", s.Pending)
	}
	if files := f.pending(t); len(files) != 0 {
		t.Errorf("leftover artifacts: %v", files)
	}
}

func TestShutdownReleasesRecording(t *testing.T) {
	f := newFixture(t)
	f.send(recPress())
	f.m.Shutdown(context.Background())

	if f.m.Snapshot().Recording {
		t.Error("still recording")
	}
	if files := f.pending(t); len(files) != 0 {
		t.Errorf("leftover artifacts: %v", files)
	}
	if got := f.display.Lines(); len(got) != 0 {
		t.Errorf("display = %q", got)
	}
	if len(f.ai.transcribed) != 0 {
		t.Error("shutdown processed the recording")
	}
}

func TestTimeoutBoundsCalls(t *testing.T) {
	f := newFixture(t, WithTimeout(time.Millisecond))
	var deadline bool
	f.m.ai = blockingAI{fakeAI: f.ai, sawDeadline: &deadline}
	f.m.Boot(context.Background())
	if !deadline {
		t.Error("prompt call had no deadline")
	}
	if got := f.display.Lines(); !slices.Equal(got, []string{StatusQuestionFailed}) {
		t.Errorf("display = %q", got)
	}
}

type blockingAI struct {
	*fakeAI
	sawDeadline *bool
}

func (b blockingAI) GeneratePrompt(ctx context.Context, _ []memstore.Entry) (string, error) {
	_, *b.sawDeadline = ctx.Deadline()
	<-ctx.Done()
	return "", ctx.Err()
}

func TestModeStrings(t *testing.T) {
	for i, m := range Modes {
		if int(m) != i {
			t.Errorf("Modes[%d] = %v", i, m)
		}
		got, err := ParseMode(m.String())
		if err != nil || got != m {
			t.Errorf("ParseMode(%q) = %v, %v", m.String(), got, err)
		}
	}
	if _, err := ParseMode("sleep"); err == nil {
		t.Error("expected error")
	}
}
