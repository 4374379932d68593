package session

import (
	"github.com/rs/zerolog"

	"github.com/mrsingh-rishi/storybook-narrator/model"
	"github.com/mrsingh-rishi/storybook-narrator/types"
)

// subscriberBuffer bounds how far a slow page may fall behind before
// events are dropped for it.
const subscriberBuffer = 256

// Session is a live run: its record, every event so far, and the
// subscribers waiting for more. It is guarded by the Manager's lock.
type Session struct {
	run     model.Run
	events  []types.StageEvent
	subs    map[int]chan types.StageEvent
	nextSub int
	closed  bool
}

func newSession(run model.Run) *Session {
	return &Session{
		run:  run,
		subs: make(map[int]chan types.StageEvent),
	}
}

// apply folds ev into the run record and reports whether the record moved
// to a new state.
func (s *Session) apply(ev types.StageEvent, logger zerolog.Logger) bool {
	switch ev.Type {
	case types.EventCompleted:
		next := ev.Stage.Reached()
		if !s.run.State.CanAdvanceTo(next) {
			logger.Warn().Str("from", string(s.run.State)).Str("to", string(next)).Msg("ignoring out of order transition")
			return false
		}
		switch ev.Stage {
		case model.StageExtract:
			s.run.RawText = ev.Text
		case model.StageProcess:
			s.run.Processed = ev.Text
		case model.StageTranslate:
			s.run.Translated = ev.Text
		case model.StageSynthesize:
			s.run.AudioLocation = ev.AudioURL
		}
		s.run.State = next
		s.run.UpdatedAt = ev.Time
		return true

	case types.EventFailed:
		if !s.run.State.CanAdvanceTo(model.StateFailed) {
			return false
		}
		s.run.State = model.StateFailed
		s.run.Error = ev.Error
		s.run.UpdatedAt = ev.Time
		return true
	}
	return false
}

func (s *Session) broadcast(ev types.StageEvent, logger zerolog.Logger) {
	s.events = append(s.events, ev)
	for id, ch := range s.subs {
		select {
		case ch <- ev:
		default:
			logger.Warn().Int("subscriber", id).Str("type", string(ev.Type)).Msg("subscriber behind, event dropped")
		}
	}
}

func (s *Session) subscribe() (int, <-chan types.StageEvent) {
	ch := make(chan types.StageEvent, subscriberBuffer)
	if s.closed {
		close(ch)
		return -1, ch
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	return id, ch
}

func (s *Session) unsubscribe(id int) {
	if ch, ok := s.subs[id]; ok {
		delete(s.subs, id)
		close(ch)
	}
}

// closeSubscribers ends every stream once the run can no longer change.
func (s *Session) closeSubscribers() {
	for id := range s.subs {
		s.unsubscribe(id)
	}
	s.closed = true
}

// replayFor rebuilds completion events from a stored run. A failed run
// replays the stages that left output, then the failure.
func replayFor(run model.Run) []types.StageEvent {
	if run.State == model.StateIdle {
		return nil
	}
	outputs := map[model.Stage]string{
		model.StageExtract:    run.RawText,
		model.StageProcess:    run.Processed,
		model.StageTranslate:  run.Translated,
		model.StageSynthesize: run.AudioLocation,
	}

	var events []types.StageEvent
	for _, stage := range model.Stages {
		if run.State == model.StateFailed && outputs[stage] == "" {
			events = append(events, types.StageEvent{
				RunID: run.ID, Type: types.EventFailed, Stage: stage, Error: run.Error, Time: run.UpdatedAt,
			})
			break
		}
		ev := types.StageEvent{RunID: run.ID, Type: types.EventCompleted, Stage: stage, Time: run.UpdatedAt}
		if stage == model.StageSynthesize {
			ev.AudioURL = AudioPath(run.ID)
		} else {
			ev.Text = outputs[stage]
		}
		events = append(events, ev)
		if stage.Reached() == run.State {
			break
		}
	}
	return events
}
