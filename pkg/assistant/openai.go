package assistant

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/haivivi/echomemo/pkg/memstore"
)

// DefaultOpenAIModel is the chat model used when none is configured.
const DefaultOpenAIModel = "gpt-4o-mini"

var _ Assistant = (*OpenAI)(nil)

// OpenAI implements Assistant with an OpenAI compatible API.
type OpenAI struct {
	Client          *openai.Client
	Model           string
	TranscribeModel openai.AudioModel
	Timeout         time.Duration
}

// NewOpenAI creates an OpenAI backend. Extra request options are applied
// after the ones derived from cfg.
func NewOpenAI(cfg Config, extra ...option.RequestOption) *OpenAI {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	opts = append(opts, extra...)
	client := openai.NewClient(opts...)

	o := &OpenAI{
		Client:          &client,
		Model:           cfg.Model,
		TranscribeModel: openai.AudioModel(cfg.TranscribeModel),
		Timeout:         cfg.Timeout,
	}
	if o.Model == "" {
		o.Model = DefaultOpenAIModel
	}
	if o.TranscribeModel == "" {
		o.TranscribeModel = openai.AudioModelWhisper1
	}
	return o
}

func (o *OpenAI) Transcribe(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("assistant: read audio: %w", err)
	}
	defer f.Close()

	ctx, cancel := withTimeout(ctx, o.Timeout)
	defer cancel()
	resp, err := o.Client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:  f,
		Model: o.TranscribeModel,
	})
	if err != nil {
		return "", fmt.Errorf("assistant: openai transcribe: %w", err)
	}
	return cleanTranscript(resp.Text), nil
}

func (o *OpenAI) complete(ctx context.Context, system, user string) (string, error) {
	ctx, cancel := withTimeout(ctx, o.Timeout)
	defer cancel()
	resp, err := o.Client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: o.Model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	})
	if err != nil {
		return "", fmt.Errorf("assistant: openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("assistant: openai: no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (o *OpenAI) GeneratePrompt(ctx context.Context, recent []memstore.Entry) (string, error) {
	text, err := o.complete(ctx, DailyPrompt, dailyRequest(recent))
	if err != nil {
		return "", err
	}
	return cleanQuestion(text), nil
}

func (o *OpenAI) GenerateReply(ctx context.Context, text string, related []memstore.Entry) (string, error) {
	return o.complete(ctx, PersonaPrompt, replyRequest(text, related))
}
