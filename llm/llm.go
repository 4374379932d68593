// Package llm talks to hosted chat-completion APIs and wraps them in the
// content processor and translator stages.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mrsingh-rishi/storybook-narrator/config"
)

// ErrEmptyResponse is returned when the provider answers with no choices.
var ErrEmptyResponse = errors.New("model returned no choices")

// Request is one stateless completion: a system instruction, a single user
// message and an output-token cap.
type Request struct {
	System    string
	User      string
	MaxTokens int

	// OnDelta, when set, receives complete sentences while a streamed
	// response is still arriving.
	OnDelta func(sentence string)
}

// Completer returns the model's text exactly as received.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// New builds the completer for cfg.Provider with the matching secret.
func New(ctx context.Context, cfg config.LLMConfig, secrets config.Secrets, logger zerolog.Logger) (Completer, error) {
	switch cfg.Provider {
	case "", config.ProviderOpenAI:
		return NewOpenAIClient(secrets.OpenAIKey, OpenAIOptions{
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
			Stream:  cfg.StreamEnabled(),
			Timeout: cfg.RequestTimeout,
			Logger:  logger,
		})
	case config.ProviderGemini:
		return NewGeminiClient(ctx, secrets.GeminiKey, GeminiOptions{
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
			Timeout: cfg.RequestTimeout,
			Logger:  logger,
		})
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
