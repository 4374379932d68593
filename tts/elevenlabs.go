package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const elevenLabsBaseURL = "https://api.elevenlabs.io"

type ElevenLabsOptions struct {
	VoiceID string
	ModelID string
	BaseURL string
	Timeout time.Duration
	Logger  zerolog.Logger
}

type ElevenLabsClient struct {
	APIKey  string
	VoiceID string
	ModelID string
	baseURL string
	http    *http.Client
	logger  zerolog.Logger
}

func NewElevenLabsClient(apiKey string, opts ElevenLabsOptions) (*ElevenLabsClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("elevenlabs api key is required")
	}
	if opts.VoiceID == "" {
		return nil, fmt.Errorf("elevenlabs voice id is required")
	}
	if opts.ModelID == "" {
		opts.ModelID = "eleven_multilingual_v2"
	}
	base := opts.BaseURL
	if base == "" {
		base = elevenLabsBaseURL
	}
	return &ElevenLabsClient{
		APIKey:  apiKey,
		VoiceID: opts.VoiceID,
		ModelID: opts.ModelID,
		baseURL: strings.TrimRight(base, "/"),
		http:    &http.Client{Timeout: opts.Timeout},
		logger:  opts.Logger.With().Str("component", "tts").Str("provider", "elevenlabs").Logger(),
	}, nil
}

// Synthesize uses the streaming with-timestamps endpoint and joins the
// base64 audio chunks into one mp3.
func (c *ElevenLabsClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	base, err := url.Parse(fmt.Sprintf("%s/v1/text-to-speech/%s/stream/with-timestamps", c.baseURL, url.PathEscape(c.VoiceID)))
	if err != nil {
		return nil, fmt.Errorf("build url: %w", err)
	}
	q := base.Query()
	q.Set("output_format", "mp3_44100_128")
	base.RawQuery = q.Encode()

	payload := map[string]interface{}{
		"text":     text,
		"model_id": c.ModelID,
		"voice_settings": map[string]float64{
			"stability":        0.75,
			"similarity_boost": 0.7,
		},
	}
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base.String(), bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("xi-api-key", c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("speech request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("speech request: bad status %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	var audio bytes.Buffer
	chunks := 0
	dec := json.NewDecoder(resp.Body)
	for {
		var chunk struct {
			AudioBase64 string `json:"audio_base64"`
		}
		if err := dec.Decode(&chunk); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("decode audio chunk: %w", err)
		}
		raw, err := base64.StdEncoding.DecodeString(chunk.AudioBase64)
		if err != nil {
			return nil, fmt.Errorf("decode audio chunk: %w", err)
		}
		audio.Write(raw)
		chunks++
	}

	c.logger.Debug().Int("chunks", chunks).Int("bytes", audio.Len()).Msg("speech received")
	return audio.Bytes(), nil
}
