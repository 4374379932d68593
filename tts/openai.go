package tts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
)

type OpenAIOptions struct {
	Model   string
	Voice   string
	BaseURL string
	Timeout time.Duration
	Logger  zerolog.Logger
}

type OpenAISynthesizer struct {
	client *openai.Client
	model  openai.SpeechModel
	voice  openai.SpeechVoice
	logger zerolog.Logger
}

func NewOpenAISynthesizer(apiKey string, opts OpenAIOptions) (*OpenAISynthesizer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if opts.Model == "" || opts.Voice == "" {
		return nil, fmt.Errorf("speech model and voice are required")
	}

	cfg := openai.DefaultConfig(apiKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	if opts.Timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}

	return &OpenAISynthesizer{
		client: openai.NewClientWithConfig(cfg),
		model:  openai.SpeechModel(opts.Model),
		voice:  openai.SpeechVoice(opts.Voice),
		logger: opts.Logger.With().Str("component", "tts").Str("provider", "openai").Logger(),
	}, nil
}

func (s *OpenAISynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          s.model,
		Input:          text,
		Voice:          s.voice,
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, fmt.Errorf("create speech: %w", err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read speech: %w", err)
	}
	s.logger.Debug().Int("bytes", len(audio)).Msg("speech received")
	return audio, nil
}
