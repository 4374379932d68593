// Package pipeline sequences extraction, processing, translation and speech
// synthesis for a single run.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrsingh-rishi/storybook-narrator/model"
	"github.com/mrsingh-rishi/storybook-narrator/pdftext"
	"github.com/mrsingh-rishi/storybook-narrator/types"
)

type Processor interface {
	Process(ctx context.Context, text string, onDelta func(string)) (string, error)
}

type Translator interface {
	Translate(ctx context.Context, text string, onDelta func(string)) (string, error)
}

type Speaker interface {
	Speak(ctx context.Context, text string) (model.AudioArtifact, error)
}

// Listener receives every event of a run in order. It is called on the
// goroutine running the pipeline.
type Listener func(types.StageEvent)

// Result holds the output of every stage that completed.
type Result struct {
	RawText    string
	Processed  string
	Translated string
	Audio      model.AudioArtifact
}

type Pipeline struct {
	extractor  pdftext.Extractor
	processor  Processor
	translator Translator
	speaker    Speaker
	logger     zerolog.Logger
	now        func() time.Time
}

func New(extractor pdftext.Extractor, processor Processor, translator Translator, speaker Speaker, logger zerolog.Logger) (*Pipeline, error) {
	if extractor == nil || processor == nil || translator == nil || speaker == nil {
		return nil, fmt.Errorf("pipeline needs an extractor, processor, translator and speaker")
	}
	return &Pipeline{
		extractor:  extractor,
		processor:  processor,
		translator: translator,
		speaker:    speaker,
		logger:     logger.With().Str("component", "pipeline").Logger(),
		now:        time.Now,
	}, nil
}

// Extract runs the first stage only.
func (p *Pipeline) Extract(ctx context.Context, doc model.Document) (string, error) {
	text, err := p.extractor.Extract(ctx, bytes.NewReader(doc.Data), int64(len(doc.Data)))
	if err != nil {
		return "", stageErr(model.StageExtract, err)
	}
	return text, nil
}

// Run executes all four stages.
func (p *Pipeline) Run(ctx context.Context, runID string, doc model.Document, listen Listener) (Result, error) {
	emit := p.emitter(runID, listen)

	emit(types.StageEvent{Type: types.EventStarted, Stage: model.StageExtract})
	raw, err := p.Extract(ctx, doc)
	if err != nil {
		return Result{}, p.fail(runID, emit, model.StageExtract, err)
	}
	emit(types.StageEvent{Type: types.EventCompleted, Stage: model.StageExtract, Text: raw})

	return p.RunFrom(ctx, runID, raw, listen)
}

// RunFrom executes the three service stages on already extracted text. The
// first failure stops the run; the returned Result keeps what came before.
func (p *Pipeline) RunFrom(ctx context.Context, runID, raw string, listen Listener) (Result, error) {
	emit := p.emitter(runID, listen)
	log := p.logger.With().Str("run_id", runID).Logger()
	res := Result{RawText: raw}

	emit(types.StageEvent{Type: types.EventStarted, Stage: model.StageProcess})
	processed, err := p.processor.Process(ctx, raw, p.deltas(emit, model.StageProcess))
	if err != nil {
		return res, p.fail(runID, emit, model.StageProcess, stageErr(model.StageProcess, err))
	}
	res.Processed = processed
	emit(types.StageEvent{Type: types.EventCompleted, Stage: model.StageProcess, Text: processed})
	log.Info().Int("chars", len(processed)).Msg("content processed")

	emit(types.StageEvent{Type: types.EventStarted, Stage: model.StageTranslate})
	translated, err := p.translator.Translate(ctx, processed, p.deltas(emit, model.StageTranslate))
	if err != nil {
		return res, p.fail(runID, emit, model.StageTranslate, stageErr(model.StageTranslate, err))
	}
	res.Translated = translated
	emit(types.StageEvent{Type: types.EventCompleted, Stage: model.StageTranslate, Text: translated})
	log.Info().Int("chars", len(translated)).Msg("content translated")

	emit(types.StageEvent{Type: types.EventStarted, Stage: model.StageSynthesize})
	art, err := p.speaker.Speak(ctx, translated)
	if err != nil {
		return res, p.fail(runID, emit, model.StageSynthesize, stageErr(model.StageSynthesize, err))
	}
	res.Audio = art
	emit(types.StageEvent{Type: types.EventCompleted, Stage: model.StageSynthesize, AudioURL: art.Location})
	log.Info().Str("location", art.Location).Msg("audio ready")

	return res, nil
}

type emitFunc func(ev types.StageEvent)

func (p *Pipeline) emitter(runID string, listen Listener) emitFunc {
	return func(ev types.StageEvent) {
		if listen == nil {
			return
		}
		ev.RunID = runID
		ev.Time = p.now()
		listen(ev)
	}
}

func (p *Pipeline) deltas(emit emitFunc, stage model.Stage) func(string) {
	return func(sentence string) {
		emit(types.StageEvent{Type: types.EventDelta, Stage: stage, Text: sentence})
	}
}

func (p *Pipeline) fail(runID string, emit emitFunc, stage model.Stage, err error) error {
	p.logger.Error().Stack().Err(err).Str("run_id", runID).Str("stage", string(stage)).Msg("stage failed")
	emit(types.StageEvent{Type: types.EventFailed, Stage: stage, Error: err.Error()})
	return err
}
