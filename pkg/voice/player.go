package voice

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/haivivi/echomemo/pkg/artifact"
	"github.com/haivivi/echomemo/pkg/audio/portaudio"
	"github.com/haivivi/echomemo/pkg/audio/resampler"
	"github.com/haivivi/echomemo/pkg/audio/wavio"
)

// Output is an open speaker stream.
type Output interface {
	Write(samples []int16) error
	Close() error
}

// OutputOpener opens a speaker stream.
type OutputOpener func(cfg portaudio.Config) (Output, error)

// PortAudioOutput opens PortAudio output streams.
func PortAudioOutput(cfg portaudio.Config) (Output, error) {
	s, err := portaudio.NewOutputStream(cfg)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// PlayerConfig configures a Player.
type PlayerConfig struct {
	// Output device. A zero SampleRate plays files at their own rate.
	Output portaudio.Config

	// SoundsDir holds the named system sounds.
	SoundsDir string

	// Dir receives downloaded audio.
	Dir *artifact.Dir

	// Client downloads remote audio.
	Client *Client

	// Open defaults to PortAudioOutput.
	Open OutputOpener

	Logger *slog.Logger
}

// Player plays WAV files on the speaker, one at a time.
type Player struct {
	cfg    PlayerConfig
	logger *slog.Logger

	mu sync.Mutex
}

// NewPlayer creates a Player.
func NewPlayer(cfg PlayerConfig) *Player {
	if cfg.Open == nil {
		cfg.Open = PortAudioOutput
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Player{cfg: cfg, logger: logger}
}

// Play decodes the WAV file at path and plays it to the end or until ctx is
// done.
func (p *Player) Play(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("voice: play: %w", err)
	}
	samples, rate, channels, err := wavio.Decode(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("voice: play %s: %w", filepath.Base(path), err)
	}

	out := p.cfg.Output
	if out.SampleRate == 0 {
		out.SampleRate = rate
	}
	if out.Channels == 0 {
		out.Channels = channels
	}
	samples, err = resampler.Convert(samples,
		resampler.Format{SampleRate: rate, Stereo: channels == 2},
		resampler.Format{SampleRate: out.SampleRate, Stereo: out.Channels == 2},
	)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	stream, err := p.cfg.Open(out)
	if err != nil {
		return fmt.Errorf("voice: open output: %w", err)
	}
	defer stream.Close()

	chunk := out.SampleRate / 10 * out.Channels // 100ms
	if chunk <= 0 {
		chunk = len(samples)
	}
	start := time.Now()
	for len(samples) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := min(chunk, len(samples))
		if err := stream.Write(samples[:n]); err != nil {
			return fmt.Errorf("voice: write output: %w", err)
		}
		samples = samples[n:]
	}
	p.logger.Debug("voice: played", "file", filepath.Base(path), "elapsed", time.Since(start))
	return nil
}

// PlaySound plays a named file from the sounds directory.
func (p *Player) PlaySound(ctx context.Context, name string) error {
	path := filepath.Join(p.cfg.SoundsDir, filepath.Base(name))
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("voice: sound %q: %w", name, err)
	}
	return p.Play(ctx, path)
}

// Fetch downloads u into a new speech artifact owned by the caller.
func (p *Player) Fetch(ctx context.Context, u string) (*artifact.Artifact, error) {
	if p.cfg.Client == nil || p.cfg.Dir == nil {
		return nil, fmt.Errorf("voice: fetch: player has no client or artifact dir")
	}
	a, f, err := p.cfg.Dir.Create(artifact.KindSpeech, ".wav")
	if err != nil {
		return nil, err
	}
	err = p.cfg.Client.Download(ctx, u, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		a.Release()
		return nil, err
	}
	return a, nil
}
