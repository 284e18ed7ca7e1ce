// Package assistant wraps the language model backends used by the
// appliance: speech-to-text, daily interview questions and persona replies.
//
// Two backends are available, Gemini (audio is sent inline to the
// multimodal model) and OpenAI (whisper-1 for transcription, chat
// completions for text).
package assistant

import (
	"context"
	"fmt"
	"time"

	"github.com/haivivi/echomemo/pkg/memstore"
)

// Assistant is the AI collaborator of the mode state machine.
type Assistant interface {
	// Transcribe returns the words spoken in the WAV file at path. It
	// returns "" with a nil error when there is no speech.
	Transcribe(ctx context.Context, path string) (string, error)

	// GeneratePrompt returns a short open interview question, drawing on
	// recent memories when there are any.
	GeneratePrompt(ctx context.Context, recent []memstore.Entry) (string, error)

	// GenerateReply answers text in the owner's voice using related
	// memories as context.
	GenerateReply(ctx context.Context, text string, related []memstore.Entry) (string, error)
}

// Config selects and configures a backend.
type Config struct {
	// Provider is "gemini" or "openai".
	Provider string

	APIKey string

	// BaseURL overrides the OpenAI endpoint.
	BaseURL string

	// Model is the text (and for Gemini, audio) model.
	Model string

	// TranscribeModel is the OpenAI speech model.
	TranscribeModel string

	// Timeout bounds each request; zero leaves requests unbounded.
	Timeout time.Duration
}

// New creates the backend named by cfg.Provider.
func New(ctx context.Context, cfg Config) (Assistant, error) {
	switch cfg.Provider {
	case "", "gemini":
		return NewGemini(ctx, cfg)
	case "openai":
		return NewOpenAI(cfg), nil
	default:
		return nil, fmt.Errorf("assistant: unknown provider %q", cfg.Provider)
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
