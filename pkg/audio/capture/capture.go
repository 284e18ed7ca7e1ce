// Package capture records the microphone into WAV artifacts for the
// recorder.
package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/haivivi/echomemo/pkg/artifact"
	"github.com/haivivi/echomemo/pkg/audio/portaudio"
	"github.com/haivivi/echomemo/pkg/audio/resampler"
	"github.com/haivivi/echomemo/pkg/audio/wavio"
	"github.com/haivivi/echomemo/pkg/buffer"
	"github.com/haivivi/echomemo/pkg/recorder"
)

// Source yields blocks of interleaved samples until closed.
type Source interface {
	Read() ([]int16, error)
	Close() error
}

// Opener opens a Source for one capture.
type Opener func() (Source, error)

// PortAudio returns an Opener for a PortAudio input device.
func PortAudio(cfg portaudio.Config) Opener {
	return func() (Source, error) {
		s, err := portaudio.NewInputStream(cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// Mic captures audio from a Source and writes it as a mono WAV at Rate.
type Mic struct {
	Dir  *artifact.Dir
	Open Opener

	// Input is the layout the Source produces.
	Input resampler.Format

	// Rate is the sample rate of the written file (default 16000).
	Rate int

	Logger *slog.Logger
}

var _ recorder.Capturer = (*Mic)(nil)

func (m *Mic) rate() int {
	if m.Rate > 0 {
		return m.Rate
	}
	return 16000
}

func (m *Mic) logger() *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return slog.Default()
}

// Capture records until ctx is done. It returns a nil artifact when nothing
// was recorded.
func (m *Mic) Capture(ctx context.Context) (*artifact.Artifact, error) {
	a, f, err := m.Dir.Create(artifact.KindCapture, ".wav")
	if err != nil {
		return nil, err
	}
	fail := func(err error) (*artifact.Artifact, error) {
		f.Close()
		a.Release()
		return nil, err
	}

	src, err := m.Open()
	if err != nil {
		return fail(fmt.Errorf("capture: open input: %w", err))
	}

	buf := buffer.N[int16](m.Input.SampleRate * m.Input.Channels() * 10)
	var readErr error
	for ctx.Err() == nil {
		block, err := src.Read()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				readErr = err
			}
			break
		}
		buf.Write(block)
	}
	if err := src.Close(); err != nil {
		m.logger().Warn("capture: close input", "error", err)
	}
	buf.CloseWrite()

	if readErr != nil {
		return fail(fmt.Errorf("capture: read: %w", readErr))
	}
	samples := buf.Bytes()
	if len(samples) == 0 {
		return fail(nil)
	}

	out, err := resampler.Convert(samples, m.Input, resampler.Format{SampleRate: m.rate()})
	if err != nil {
		return fail(err)
	}
	if err := wavio.Encode(f, out, m.rate(), 1); err != nil {
		return fail(err)
	}
	if err := f.Close(); err != nil {
		a.Release()
		return nil, fmt.Errorf("capture: close file: %w", err)
	}
	m.logger().Debug("capture: finalized", "artifact", a.String(), "samples", len(out))
	return a, nil
}
