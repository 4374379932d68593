package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/mrsingh-rishi/storybook-narrator/config"
	"github.com/mrsingh-rishi/storybook-narrator/llm"
	"github.com/mrsingh-rishi/storybook-narrator/logger"
	"github.com/mrsingh-rishi/storybook-narrator/pdftext"
	"github.com/mrsingh-rishi/storybook-narrator/pipeline"
	"github.com/mrsingh-rishi/storybook-narrator/storage"
	"github.com/mrsingh-rishi/storybook-narrator/tts"
)

// app is what every command shares: config, logger, the artifact store and
// a ready pipeline.
type app struct {
	cfg      *config.Config
	logger   zerolog.Logger
	store    storage.ArtifactStore
	pipeline *pipeline.Pipeline
}

// newApp loads config and builds the pipeline. quietLevel replaces the
// configured log level unless --verbose is set, for commands that draw
// their own progress on the terminal.
func newApp(ctx context.Context, quietLevel string) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	level := cfg.Logging.Level
	switch {
	case verbose:
		level = "debug"
	case quietLevel != "":
		level = quietLevel
	}
	log := logger.New(level, cfg.Logging.Format, os.Stderr)

	extractor, err := pdftext.New(pdftext.Options{
		Backend:  cfg.PDF.Backend,
		Validate: cfg.PDF.ValidateEnabled(),
		Logger:   log,
	})
	if err != nil {
		return nil, fmt.Errorf("pdf extractor: %w", err)
	}

	completer, err := llm.New(ctx, cfg.LLM, cfg.Secrets, log)
	if err != nil {
		return nil, fmt.Errorf("llm client: %w", err)
	}
	processor, err := llm.NewContentProcessor(completer, cfg.LLM.Mode, cfg.LLM.MaxTokens)
	if err != nil {
		return nil, err
	}
	translator, err := llm.NewTranslator(completer, cfg.LLM.TargetLanguage, cfg.LLM.MaxTokens)
	if err != nil {
		return nil, err
	}

	synth, err := tts.New(cfg.Speech, cfg.Secrets, log)
	if err != nil {
		return nil, fmt.Errorf("speech client: %w", err)
	}
	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("artifact store: %w", err)
	}
	speaker := tts.NewSpeaker(synth, store, storage.NewNamer(cfg.Storage.Naming), log)

	p, err := pipeline.New(extractor, processor, translator, speaker, log)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("llm", cfg.LLM.Provider+"/"+cfg.LLM.Model).
		Str("speech", cfg.Speech.Provider+"/"+cfg.Speech.Model).
		Str("language", cfg.LLM.TargetLanguage).
		Str("storage", cfg.Storage.Backend).
		Msg("pipeline ready")

	return &app{cfg: cfg, logger: log, store: store, pipeline: p}, nil
}

func (a *app) Close() {
	if c, ok := a.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("close artifact store")
		}
	}
}
