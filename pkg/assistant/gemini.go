package assistant

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/genai"

	"github.com/haivivi/echomemo/pkg/memstore"
)

// DefaultGeminiModel handles both audio and text.
const DefaultGeminiModel = "gemini-2.0-flash"

var _ Assistant = (*Gemini)(nil)

// Gemini implements Assistant with the Gemini API.
type Gemini struct {
	Client *genai.Client

	// Model should not start with "models/".
	Model string

	Timeout time.Duration
}

// NewGemini creates a Gemini backend.
func NewGemini(ctx context.Context, cfg Config) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("assistant: gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("assistant: create gemini client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}
	return &Gemini{Client: client, Model: strings.TrimPrefix(model, "models/"), Timeout: cfg.Timeout}, nil
}

func (g *Gemini) generate(ctx context.Context, system string, parts ...*genai.Part) (string, error) {
	ctx, cancel := withTimeout(ctx, g.Timeout)
	defer cancel()

	var cfg *genai.GenerateContentConfig
	if system != "" {
		cfg = &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{genai.NewPartFromText(system)}},
		}
	}
	contents := []*genai.Content{{Role: "user", Parts: parts}}
	resp, err := g.Client.Models.GenerateContent(ctx, g.Model, contents, cfg)
	if err != nil {
		if e, ok := err.(*apierror.APIError); ok {
			err = e.Unwrap()
		}
		return "", fmt.Errorf("assistant: gemini: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("assistant: gemini: no candidates")
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p.Text != "" {
			sb.WriteString(p.Text)
		}
	}
	return strings.TrimSpace(sb.String()), nil
}

// Transcribe sends the WAV inline with a dictation instruction.
func (g *Gemini) Transcribe(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("assistant: read audio: %w", err)
	}
	text, err := g.generate(ctx, "",
		genai.NewPartFromText(transcribePrompt),
		genai.NewPartFromBytes(data, "audio/wav"),
	)
	if err != nil {
		return "", err
	}
	return cleanTranscript(text), nil
}

func (g *Gemini) GeneratePrompt(ctx context.Context, recent []memstore.Entry) (string, error) {
	text, err := g.generate(ctx, DailyPrompt, genai.NewPartFromText(dailyRequest(recent)))
	if err != nil {
		return "", err
	}
	return cleanQuestion(text), nil
}

func (g *Gemini) GenerateReply(ctx context.Context, text string, related []memstore.Entry) (string, error) {
	return g.generate(ctx, PersonaPrompt, genai.NewPartFromText(replyRequest(text, related)))
}

// ModelInfo describes a model that can generate content.
type ModelInfo struct {
	Name         string `json:"name" yaml:"name"`
	DisplayName  string `json:"display_name" yaml:"display_name"`
	InputTokens  int    `json:"input_tokens" yaml:"input_tokens"`
	OutputTokens int    `json:"output_tokens" yaml:"output_tokens"`
}

// ListModels returns the models available to the API key that support
// generateContent, in the order the API lists them.
func (g *Gemini) ListModels(ctx context.Context) ([]ModelInfo, error) {
	ctx, cancel := withTimeout(ctx, g.Timeout)
	defer cancel()

	var all []*genai.Model
	for m, err := range g.Client.Models.All(ctx) {
		if err != nil {
			if e, ok := err.(*apierror.APIError); ok {
				err = e.Unwrap()
			}
			return nil, fmt.Errorf("assistant: list models: %w", err)
		}
		all = append(all, m)
	}
	return contentModels(all), nil
}

func contentModels(models []*genai.Model) []ModelInfo {
	var out []ModelInfo
	for _, m := range models {
		if m == nil || !slices.Contains(m.SupportedActions, "generateContent") {
			continue
		}
		out = append(out, ModelInfo{
			Name:         strings.TrimPrefix(m.Name, "models/"),
			DisplayName:  m.DisplayName,
			InputTokens:  int(m.InputTokenLimit),
			OutputTokens: int(m.OutputTokenLimit),
		})
	}
	return out
}
