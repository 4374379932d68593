package llm

import (
	"context"
	"fmt"

	"github.com/mrsingh-rishi/storybook-narrator/config"
)

// ContentProcessor asks the model for the narrative essence or a summary of
// the extracted text.
type ContentProcessor struct {
	completer  Completer
	system     string
	userPrefix string
	maxTokens  int
}

func NewContentProcessor(c Completer, mode string, maxTokens int) (*ContentProcessor, error) {
	if c == nil {
		return nil, fmt.Errorf("completer is required")
	}
	p := &ContentProcessor{completer: c, maxTokens: maxTokens}
	switch mode {
	case "", config.ModeNarrative:
		p.system, p.userPrefix = narrativeSystemPrompt, narrativeUserPrefix
	case config.ModeSummary:
		p.system, p.userPrefix = summarySystemPrompt, summaryUserPrefix
	default:
		return nil, fmt.Errorf("unknown processing mode %q", mode)
	}
	return p, nil
}

// Process sends text as is, however long or empty it is.
func (p *ContentProcessor) Process(ctx context.Context, text string, onDelta func(string)) (string, error) {
	return p.completer.Complete(ctx, Request{
		System:    p.system,
		User:      p.userPrefix + text,
		MaxTokens: p.maxTokens,
		OnDelta:   onDelta,
	})
}

// Translator renders processed content into the configured language.
type Translator struct {
	completer  Completer
	language   string
	system     string
	userPrefix string
	maxTokens  int
}

func NewTranslator(c Completer, language string, maxTokens int) (*Translator, error) {
	if c == nil {
		return nil, fmt.Errorf("completer is required")
	}
	if language == "" {
		return nil, fmt.Errorf("target language is required")
	}
	system, prefix := translationPrompts(language)
	return &Translator{
		completer:  c,
		language:   language,
		system:     system,
		userPrefix: prefix,
		maxTokens:  maxTokens,
	}, nil
}

func (t *Translator) Language() string { return t.language }

func (t *Translator) Translate(ctx context.Context, text string, onDelta func(string)) (string, error) {
	return t.completer.Complete(ctx, Request{
		System:    t.system,
		User:      t.userPrefix + text,
		MaxTokens: t.maxTokens,
		OnDelta:   onDelta,
	})
}
