package voice

import (
	"context"
	"fmt"
	"log/slog"
)

// Class selects which configured voice speaks.
type Class int

const (
	// ClassSystem is the guidance voice.
	ClassSystem Class = iota
	// ClassPersona is the owner's digital twin.
	ClassPersona
)

func (c Class) String() string {
	switch c {
	case ClassSystem:
		return "system"
	case ClassPersona:
		return "persona"
	default:
		return fmt.Sprintf("Class(%d)", int(c))
	}
}

// SpeakerConfig holds the voice references and synthesis ratios.
type SpeakerConfig struct {
	SystemVoice  string
	PersonaVoice string
	Speed        float64
	Pitch        float64
	Volume       float64
	Logger       *slog.Logger
}

// Speaker synthesizes text in a configured voice and plays it.
type Speaker struct {
	client *Client
	player *Player
	cfg    SpeakerConfig
	logger *slog.Logger
}

// NewSpeaker creates a Speaker.
func NewSpeaker(client *Client, player *Player, cfg SpeakerConfig) *Speaker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Speaker{client: client, player: player, cfg: cfg, logger: logger}
}

func (s *Speaker) voice(c Class) string {
	switch c {
	case ClassSystem:
		return s.cfg.SystemVoice
	case ClassPersona:
		return s.cfg.PersonaVoice
	}
	return ""
}

// PlaySound plays a named system sound.
func (s *Speaker) PlaySound(ctx context.Context, name string) error {
	return s.player.PlaySound(ctx, name)
}

// SynthesizeAndPlay speaks text in the voice of class and returns the URL of
// the generated audio. The downloaded audio is released after playback.
func (s *Speaker) SynthesizeAndPlay(ctx context.Context, text string, class Class) (string, error) {
	ref := s.voice(class)
	if ref == "" {
		return "", fmt.Errorf("%w for %s", ErrNoVoice, class)
	}
	u, err := s.client.CloneSync(ctx, &CloneRequest{
		Text:     text,
		AudioURL: ref,
		Speed:    s.cfg.Speed,
		Pitch:    s.cfg.Pitch,
		Volume:   s.cfg.Volume,
	})
	if err != nil {
		return "", err
	}

	a, err := s.player.Fetch(ctx, u)
	if err != nil {
		return u, err
	}
	defer a.Release()
	s.logger.Debug("voice: synthesized", "class", class, "artifact", a.String())
	return u, s.player.Play(ctx, a.Path)
}
