package hwevent

import (
	"context"
	"encoding/json"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestEventConstructors(t *testing.T) {
	now := time.Unix(100, 0)
	tests := []struct {
		name  string
		ev    Event
		kind  Kind
		delta int
	}{
		{"cw", RotaryDelta(LineRotary, 1, now), KindRotaryDelta, 1},
		{"ccw", RotaryDelta(LineRotary, -1, now), KindRotaryDelta, -1},
		{"clamp positive", RotaryDelta(LineRotary, 5, now), KindRotaryDelta, 1},
		{"clamp negative", RotaryDelta(LineRotary, -3, now), KindRotaryDelta, -1},
		{"press", RotaryPress(LineRotaryButton, now), KindRotaryPress, 0},
		{"record press", RecordPress(LineRecordButton, now), KindRecordPress, 0},
		{"record release", RecordRelease(LineRecordButton, now), KindRecordRelease, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.ev.Kind() != tt.kind {
				t.Errorf("kind=%v", tt.ev.Kind())
			}
			if tt.ev.Delta() != tt.delta {
				t.Errorf("delta=%d", tt.ev.Delta())
			}
			if !tt.ev.At().Equal(now) {
				t.Errorf("at=%v", tt.ev.At())
			}
		})
	}
}

func TestEventJSON(t *testing.T) {
	ev := RotaryDelta(LinePanel, -1, time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC))
	b, err := json.Marshal(ev)
	if err != nil {
		t.Fatal(err)
	}
	s := string(b)
	for _, want := range []string{`"kind":"rotary_delta"`, `"delta":-1`, `"line":"panel"`} {
		if !strings.Contains(s, want) {
			t.Errorf("json %s missing %s", s, want)
		}
	}
	if got := ev.String(); got != "rotary_delta(-1)@panel" {
		t.Errorf("String()=%q", got)
	}
}

func TestChannelOrder(t *testing.T) {
	ch := NewChannel(8)
	now := time.Now()
	ch.Push(RecordPress(LineRecordButton, now))
	ch.Push(RotaryDelta(LineRotary, 1, now))
	ch.Push(RecordRelease(LineRecordButton, now))

	got := ch.Drain()
	want := []Kind{KindRecordPress, KindRotaryDelta, KindRecordRelease}
	if len(got) != len(want) {
		t.Fatalf("len=%d", len(got))
	}
	for i := range want {
		if got[i].Kind() != want[i] {
			t.Errorf("got[%d]=%v, want %v", i, got[i].Kind(), want[i])
		}
	}
	if more := ch.Drain(); len(more) != 0 {
		t.Errorf("second drain=%v", more)
	}
}

func TestChannelDropOldest(t *testing.T) {
	ch := NewChannel(2)
	now := time.Now()
	ch.Push(RotaryDelta(LineRotary, 1, now))
	ch.Push(RotaryDelta(LineRotary, -1, now))
	ch.Push(RotaryPress(LineRotaryButton, now))

	if ch.Dropped() != 1 {
		t.Errorf("dropped=%d", ch.Dropped())
	}
	got := ch.Drain()
	if len(got) != 2 || got[0].Delta() != -1 || got[1].Kind() != KindRotaryPress {
		t.Errorf("got=%v", got)
	}
}

func TestChannelOverflowKeepsNewest(t *testing.T) {
	ch := NewChannel(3)
	now := time.Now()
	ch.Push(RotaryDelta(LineRotary, 1, now))
	ch.Push(RotaryDelta(LineRotary, 1, now))
	ch.Push(RecordPress(LineRecordButton, now))
	ch.Push(RecordRelease(LineRecordButton, now))

	if ch.Dropped() != 1 {
		t.Errorf("dropped=%d", ch.Dropped())
	}
	var got []string
	for _, ev := range ch.Drain() {
		got = append(got, ev.String())
	}
	want := []string{
		"rotary_delta(+1)@rotary",
		"record_press@record_button",
		"record_release@record_button",
	}
	if !slices.Equal(got, want) {
		t.Errorf("got=%v, want %v", got, want)
	}

	for i := 0; i < 10; i++ {
		ch.Push(RotaryDelta(LineRotary, -1, now))
	}
	for _, ev := range ch.Drain() {
		if ev.Kind() != KindRotaryDelta {
			t.Errorf("corrupted event after repeated overflow: %v", ev)
		}
	}
}

func TestChannelPerProducerOrder(t *testing.T) {
	ch := NewChannel(1024)
	var wg sync.WaitGroup
	lines := []Line{LineRotary, LineRecordButton, LinePanel}
	for _, line := range lines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				ch.Push(RotaryDelta(line, 1, time.Unix(int64(i), 0)))
			}
		}()
	}
	wg.Wait()

	last := map[Line]int64{}
	for _, ev := range ch.Drain() {
		sec := ev.At().Unix()
		if prev, ok := last[ev.Line()]; ok && sec <= prev {
			t.Fatalf("line %v out of order: %d after %d", ev.Line(), sec, prev)
		}
		last[ev.Line()] = sec
	}
	if ch.Dropped() != 0 {
		t.Errorf("dropped=%d", ch.Dropped())
	}
}

func TestChannelClose(t *testing.T) {
	ch := NewChannel(4)
	ch.Push(RotaryPress(LinePanel, time.Now()))
	ch.Close()
	ch.Push(RotaryPress(LinePanel, time.Now()))
	if ch.Len() != 1 {
		t.Errorf("len=%d", ch.Len())
	}
	if _, ok := ch.Next(); !ok {
		t.Error("expected pending event after close")
	}
	if _, ok := ch.Next(); ok {
		t.Error("expected closed channel")
	}
}

type recordingObserver struct {
	handled []Kind
	panics  []Kind
}

func (o *recordingObserver) EventHandled(k Kind, _ time.Duration) { o.handled = append(o.handled, k) }
func (o *recordingObserver) HandlerPanicked(k Kind)              { o.panics = append(o.panics, k) }

func TestDispatcherTick(t *testing.T) {
	ch := NewChannel(8)
	var got []Event
	d := NewDispatcher(ch, HandlerFunc(func(_ context.Context, ev Event) {
		got = append(got, ev)
	}))

	if n := d.Tick(context.Background()); n != 0 {
		t.Errorf("empty tick handled %d", n)
	}

	now := time.Now()
	ch.Push(RotaryDelta(LineRotary, 1, now))
	ch.Push(RotaryPress(LineRotaryButton, now))
	if n := d.Tick(context.Background()); n != 2 {
		t.Errorf("handled %d", n)
	}
	if len(got) != 2 || got[0].Kind() != KindRotaryDelta || got[1].Kind() != KindRotaryPress {
		t.Errorf("got=%v", got)
	}
}

func TestDispatcherRecoversPanic(t *testing.T) {
	ch := NewChannel(8)
	obs := &recordingObserver{}
	var handled []Kind
	d := NewDispatcher(ch, HandlerFunc(func(_ context.Context, ev Event) {
		if ev.Kind() == KindRecordRelease {
			panic("boom")
		}
		handled = append(handled, ev.Kind())
	}), WithObserver(obs))

	now := time.Now()
	ch.Push(RecordPress(LineRecordButton, now))
	ch.Push(RecordRelease(LineRecordButton, now))
	ch.Push(RotaryPress(LineRotaryButton, now))
	d.Tick(context.Background())

	if len(handled) != 2 || handled[1] != KindRotaryPress {
		t.Errorf("handled=%v", handled)
	}
	if len(obs.panics) != 1 || obs.panics[0] != KindRecordRelease {
		t.Errorf("panics=%v", obs.panics)
	}
	if len(obs.handled) != 2 {
		t.Errorf("observed=%v", obs.handled)
	}
}

func TestDispatcherRun(t *testing.T) {
	ch := NewChannel(8)
	done := make(chan struct{})
	d := NewDispatcher(ch, HandlerFunc(func(_ context.Context, ev Event) {
		close(done)
	}))
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- d.Run(ctx, 5*time.Millisecond) }()

	ch.Push(RotaryPress(LinePanel, time.Now()))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("event not dispatched")
	}
	cancel()
	if err := <-errc; err != context.Canceled {
		t.Errorf("run err=%v", err)
	}
}
