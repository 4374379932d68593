package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
)

var sentenceRe = regexp.MustCompile(`[^\.!\?]*[\.!\?]`)

type OpenAIOptions struct {
	Model   string
	BaseURL string
	Stream  bool
	Timeout time.Duration
	Logger  zerolog.Logger
}

type OpenAIClient struct {
	Client *openai.Client
	Model  string
	Stream bool
	logger zerolog.Logger
}

func NewOpenAIClient(apiKey string, opts OpenAIOptions) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if opts.Model == "" {
		return nil, fmt.Errorf("openai model is required")
	}

	cfg := openai.DefaultConfig(apiKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	if opts.Timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}

	return &OpenAIClient{
		Client: openai.NewClientWithConfig(cfg),
		Model:  opts.Model,
		Stream: opts.Stream,
		logger: opts.Logger.With().Str("component", "llm").Str("model", opts.Model).Logger(),
	}, nil
}

// Complete sends one system and one user message. When streaming is on and
// the request has an OnDelta hook, complete sentences are handed to it as
// they arrive. Either way the full response is returned untouched.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	chatReq := openai.ChatCompletionRequest{
		Model: c.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
		MaxTokens: req.MaxTokens,
	}

	c.logger.Debug().Int("input_chars", len(req.User)).Bool("stream", c.Stream && req.OnDelta != nil).Msg("sending completion")

	if c.Stream && req.OnDelta != nil {
		return c.streamResponse(ctx, chatReq, req.OnDelta)
	}

	resp, err := c.Client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *OpenAIClient) streamResponse(ctx context.Context, req openai.ChatCompletionRequest, onDelta func(string)) (string, error) {
	req.Stream = true
	stream, err := c.Client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion stream: %w", err)
	}
	defer stream.Close()

	full := &strings.Builder{}
	buffer := &strings.Builder{}

	gotChoice, err := readAndProcess(stream, full, buffer, onDelta)
	if err != nil {
		return "", err
	}
	if !gotChoice {
		return "", ErrEmptyResponse
	}

	flushRemaining(buffer, onDelta)
	return full.String(), nil
}

// readAndProcess drains the stream into full and emits sentences from buffer.
func readAndProcess(
	stream *openai.ChatCompletionStream,
	full, buffer *strings.Builder,
	onDelta func(string),
) (bool, error) {
	gotChoice := false
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return gotChoice, nil
		}
		if err != nil {
			return gotChoice, fmt.Errorf("receive completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		gotChoice = true

		chunk := resp.Choices[0].Delta.Content
		if chunk == "" {
			continue
		}
		full.WriteString(chunk)

		for _, s := range processChunk(buffer, chunk, sentenceRe) {
			onDelta(s)
		}
	}
}

// processChunk appends chunk to buffer and returns every complete sentence,
// leaving the unfinished tail in buffer.
func processChunk(buffer *strings.Builder, chunk string, re *regexp.Regexp) []string {
	buffer.WriteString(chunk)
	text := buffer.String()

	var sentences []string
	for {
		loc := re.FindStringIndex(text)
		if loc == nil {
			break
		}
		sentence := strings.TrimSpace(text[:loc[1]])
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		text = text[loc[1]:]
	}

	buffer.Reset()
	buffer.WriteString(text)
	return sentences
}

func flushRemaining(buffer *strings.Builder, onDelta func(string)) {
	leftover := strings.TrimSpace(buffer.String())
	if leftover != "" {
		onDelta(leftover)
	}
	buffer.Reset()
}
