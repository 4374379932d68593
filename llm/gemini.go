package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

type GeminiOptions struct {
	Model   string
	BaseURL string
	Timeout time.Duration
	Logger  zerolog.Logger
}

// GeminiClient is the Gemini API counterpart of OpenAIClient. It does not
// stream; OnDelta is ignored.
type GeminiClient struct {
	client *genai.Client
	model  string
	logger zerolog.Logger
}

func NewGeminiClient(ctx context.Context, apiKey string, opts GeminiOptions) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if opts.Model == "" {
		return nil, fmt.Errorf("gemini model is required")
	}

	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}
	if opts.Timeout > 0 {
		cc.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiClient{
		client: client,
		model:  opts.Model,
		logger: opts.Logger.With().Str("component", "llm").Str("model", opts.Model).Logger(),
	}, nil
}

func (g *GeminiClient) Complete(ctx context.Context, req Request) (string, error) {
	gcfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		},
		MaxOutputTokens: int32(req.MaxTokens),
	}

	g.logger.Debug().Int("input_chars", len(req.User)).Msg("sending completion")

	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.User), gcfg)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}

	var b strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	return b.String(), nil
}
