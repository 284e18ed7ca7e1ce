package capture

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/haivivi/echomemo/pkg/artifact"
	"github.com/haivivi/echomemo/pkg/audio/resampler"
	"github.com/haivivi/echomemo/pkg/audio/wavio"
)

type fakeSource struct {
	blocks [][]int16
	err    error
	closed bool
}

func (s *fakeSource) Read() ([]int16, error) {
	if len(s.blocks) > 0 {
		b := s.blocks[0]
		s.blocks = s.blocks[1:]
		return b, nil
	}
	if s.err != nil {
		return nil, s.err
	}
	// Simulate a live device waiting for the next buffer.
	time.Sleep(time.Millisecond)
	return nil, nil
}

func (s *fakeSource) Close() error {
	s.closed = true
	return nil
}

func newMic(t *testing.T, src *fakeSource) *Mic {
	t.Helper()
	dir, err := artifact.NewDir(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return &Mic{
		Dir:   dir,
		Open:  func() (Source, error) { return src, nil },
		Input: resampler.Format{SampleRate: 16000},
	}
}

func pending(t *testing.T, m *Mic) int {
	t.Helper()
	files, err := m.Dir.Pending()
	if err != nil {
		t.Fatal(err)
	}
	return len(files)
}

func readWAV(t *testing.T, a *artifact.Artifact) ([]int16, resampler.Format) {
	t.Helper()
	f, err := os.Open(a.Path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	samples, rate, ch, err := wavio.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	return samples, resampler.Format{SampleRate: rate, Stereo: ch == 2}
}

func TestCaptureWritesWAV(t *testing.T) {
	src := &fakeSource{blocks: [][]int16{{1, 2, 3}, {4, 5}}}
	m := newMic(t, src)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	a, err := m.Capture(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if a == nil {
		t.Fatal("expected an artifact")
	}
	defer a.Release()
	if !src.closed {
		t.Error("source not closed")
	}
	samples, format := readWAV(t, a)
	if format.SampleRate != 16000 || format.Stereo {
		t.Errorf("format=%+v", format)
	}
	if len(samples) != 5 {
		t.Errorf("samples=%v", samples)
	}
}

func TestCaptureEmpty(t *testing.T) {
	m := newMic(t, &fakeSource{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a, err := m.Capture(ctx)
	if err != nil || a != nil {
		t.Fatalf("a=%v err=%v", a, err)
	}
	if n := pending(t, m); n != 0 {
		t.Errorf("%d files left behind", n)
	}
}

func TestCaptureReadError(t *testing.T) {
	boom := errors.New("device unplugged")
	m := newMic(t, &fakeSource{blocks: [][]int16{{1}}, err: boom})

	a, err := m.Capture(context.Background())
	if !errors.Is(err, boom) || a != nil {
		t.Fatalf("a=%v err=%v", a, err)
	}
	if n := pending(t, m); n != 0 {
		t.Errorf("%d files left behind", n)
	}
}

func TestCaptureOpenError(t *testing.T) {
	m := newMic(t, nil)
	m.Open = func() (Source, error) { return nil, errors.New("no mic") }

	if _, err := m.Capture(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if n := pending(t, m); n != 0 {
		t.Errorf("%d files left behind", n)
	}
}
