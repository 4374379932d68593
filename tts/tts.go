// Package tts turns translated text into an mp3 artifact.
package tts

import (
	"bytes"
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mrsingh-rishi/storybook-narrator/config"
	"github.com/mrsingh-rishi/storybook-narrator/model"
	"github.com/mrsingh-rishi/storybook-narrator/storage"
)

const contentTypeMP3 = "audio/mpeg"

// Synthesizer returns encoded audio for text. The bytes are not inspected.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// New builds the synthesizer for cfg.Provider.
func New(cfg config.SpeechConfig, secrets config.Secrets, logger zerolog.Logger) (Synthesizer, error) {
	switch cfg.Provider {
	case "", config.ProviderOpenAI:
		return NewOpenAISynthesizer(secrets.OpenAIKey, OpenAIOptions{
			Model:   cfg.Model,
			Voice:   cfg.Voice,
			BaseURL: cfg.BaseURL,
			Timeout: cfg.RequestTimeout,
			Logger:  logger,
		})
	case config.ProviderElevenLabs:
		return NewElevenLabsClient(secrets.ElevenLabsKey, ElevenLabsOptions{
			VoiceID: cfg.Voice,
			ModelID: cfg.Model,
			BaseURL: cfg.BaseURL,
			Timeout: cfg.RequestTimeout,
			Logger:  logger,
		})
	default:
		return nil, fmt.Errorf("unknown speech provider %q", cfg.Provider)
	}
}

// Speaker synthesizes text and stores the result under a fresh name.
type Speaker struct {
	synth  Synthesizer
	store  storage.ArtifactStore
	namer  storage.Namer
	logger zerolog.Logger
}

func NewSpeaker(synth Synthesizer, store storage.ArtifactStore, namer storage.Namer, logger zerolog.Logger) *Speaker {
	return &Speaker{
		synth:  synth,
		store:  store,
		namer:  namer,
		logger: logger.With().Str("component", "speaker").Logger(),
	}
}

func (s *Speaker) Speak(ctx context.Context, text string) (model.AudioArtifact, error) {
	audio, err := s.synth.Synthesize(ctx, text)
	if err != nil {
		return model.AudioArtifact{}, err
	}

	name := s.namer.Name()
	art, err := s.store.Save(ctx, name, contentTypeMP3, bytes.NewReader(audio))
	if err != nil {
		return model.AudioArtifact{}, fmt.Errorf("save %s: %w", name, err)
	}

	s.logger.Info().Str("location", art.Location).Int64("bytes", art.Size).Msg("audio saved")
	return art, nil
}
