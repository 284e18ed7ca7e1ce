package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/haivivi/echomemo/pkg/artifact"
	"github.com/haivivi/echomemo/pkg/assistant"
	"github.com/haivivi/echomemo/pkg/audio/capture"
	"github.com/haivivi/echomemo/pkg/audio/portaudio"
	"github.com/haivivi/echomemo/pkg/audio/resampler"
	"github.com/haivivi/echomemo/pkg/config"
	"github.com/haivivi/echomemo/pkg/display"
	"github.com/haivivi/echomemo/pkg/kv"
	"github.com/haivivi/echomemo/pkg/memstore"
	"github.com/haivivi/echomemo/pkg/storage"
	"github.com/haivivi/echomemo/pkg/voice"
)

// openStore opens the memory store named by cfg.Storage.
func openStore(cfg *config.Config, logger *slog.Logger) (*memstore.Store, error) {
	switch cfg.Storage.Driver {
	case "memory":
		return memstore.New(kv.NewMemory(nil)), nil
	case "badger", "":
		db, err := kv.NewBadger(kv.BadgerOptions{Dir: cfg.Storage.Dir, Logger: logger})
		if err != nil {
			return nil, fmt.Errorf("open memory store: %w", err)
		}
		return memstore.New(db), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// openDisplay opens the screen named by cfg.Display. Console output goes
// to w.
func openDisplay(cfg *config.Config, w io.Writer) (display.Display, error) {
	oled := func() (display.Display, error) {
		d, err := display.OpenOLED(display.OLEDConfig{
			Bus:      cfg.Display.Bus,
			Address:  uint16(cfg.Display.Address),
			Width:    cfg.Display.Width,
			Height:   cfg.Display.Height,
			FontPath: cfg.Display.FontPath,
			FontSize: cfg.Display.FontSize,
		})
		if err != nil {
			return nil, err
		}
		return d, nil
	}
	switch cfg.Display.Driver {
	case "none":
		return display.Nop{}, nil
	case "console":
		return display.NewConsole(w), nil
	case "oled", "":
		return oled()
	case "both":
		d, err := oled()
		if err != nil {
			return nil, err
		}
		return display.Multi{d, display.NewConsole(w)}, nil
	default:
		return nil, fmt.Errorf("unknown display driver %q", cfg.Display.Driver)
	}
}

// openArchiver returns nil when archiving is off.
func openArchiver(cfg *config.Config) (*artifact.Archiver, error) {
	var (
		fs  storage.FileStore
		err error
	)
	switch cfg.Archive.Driver {
	case "none", "":
		return nil, nil
	case "local":
		fs, err = storage.NewLocal(cfg.Archive.Dir)
	case "s3":
		fs, err = storage.NewS3FromConfig(storage.S3Config{
			Bucket:          cfg.Archive.Bucket,
			Prefix:          cfg.Archive.Prefix,
			Region:          cfg.Archive.Region,
			Endpoint:        cfg.Archive.Endpoint,
			AccessKeyID:     cfg.Archive.AccessKeyID,
			SecretAccessKey: cfg.Archive.SecretAccessKey,
			PathStyle:       cfg.Archive.PathStyle,
		})
	default:
		return nil, fmt.Errorf("unknown archive driver %q", cfg.Archive.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	return artifact.NewArchiver(fs), nil
}

func newAssistant(ctx context.Context, cfg *config.Config) (assistant.Assistant, error) {
	return assistant.New(ctx, assistant.Config{
		Provider:        cfg.AI.Provider,
		APIKey:          cfg.AI.APIKey,
		BaseURL:         cfg.AI.BaseURL,
		Model:           cfg.AI.Model,
		TranscribeModel: cfg.AI.TranscribeModel,
		Timeout:         cfg.AI.Timeout.D(),
	})
}

func newVoiceClient(cfg *config.Config) *voice.Client {
	opts := []voice.Option{
		voice.WithTimeout(cfg.Voice.Timeout.D()),
		voice.WithRetry(2, 500*time.Millisecond),
	}
	if cfg.Voice.SyncURL != "" {
		opts = append(opts, voice.WithSyncURL(cfg.Voice.SyncURL))
	}
	if cfg.Voice.UploadURL != "" {
		opts = append(opts, voice.WithUploadURL(cfg.Voice.UploadURL))
	}
	return voice.NewClient(cfg.Voice.APIKey, opts...)
}

func newSpeaker(cfg *config.Config, dir *artifact.Dir, logger *slog.Logger) *voice.Speaker {
	client := newVoiceClient(cfg)
	player := voice.NewPlayer(voice.PlayerConfig{
		Output: portaudio.Config{
			Device:         cfg.Audio.OutputDevice,
			BufferDuration: cfg.Audio.Chunk.D(),
		},
		SoundsDir: cfg.Audio.SoundsDir,
		Dir:       dir,
		Client:    client,
		Logger:    logger,
	})
	return voice.NewSpeaker(client, player, voice.SpeakerConfig{
		SystemVoice:  cfg.Voice.SystemVoice,
		PersonaVoice: cfg.Voice.PersonaVoice,
		Speed:        cfg.Voice.Speed,
		Pitch:        cfg.Voice.Pitch,
		Volume:       cfg.Voice.Volume,
		Logger:       logger,
	})
}

func newMic(cfg *config.Config, dir *artifact.Dir, logger *slog.Logger) *capture.Mic {
	return &capture.Mic{
		Dir: dir,
		Open: capture.PortAudio(portaudio.Config{
			Device:         cfg.Audio.InputDevice,
			SampleRate:     cfg.Audio.InputRate,
			Channels:       cfg.Audio.InputChannels,
			BufferDuration: cfg.Audio.Chunk.D(),
		}),
		Input:  resampler.Format{SampleRate: cfg.Audio.InputRate, Stereo: cfg.Audio.InputChannels == 2},
		Rate:   cfg.Audio.SampleRate,
		Logger: logger,
	}
}
