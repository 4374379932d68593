// Package session owns the lifecycle of runs: upload and extraction, the
// start trigger, background execution and the event stream a page watches.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mrsingh-rishi/storybook-narrator/history"
	"github.com/mrsingh-rishi/storybook-narrator/model"
	"github.com/mrsingh-rishi/storybook-narrator/pipeline"
	"github.com/mrsingh-rishi/storybook-narrator/types"
)

// DefaultRetention keeps finished sessions around long enough for a page
// that reconnects to get the full event replay.
const DefaultRetention = 5 * time.Minute

var (
	ErrNotFound     = errors.New("run not found")
	ErrInvalidState = errors.New("run cannot be started in its current state")
)

// Runner is the part of the pipeline a session drives.
type Runner interface {
	Extract(ctx context.Context, doc model.Document) (string, error)
	RunFrom(ctx context.Context, runID, raw string, listen pipeline.Listener) (pipeline.Result, error)
}

// Submitter hands a started run to whatever executes it.
type Submitter interface {
	Submit(runID string)
}

type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	runner    Runner
	history   history.Store
	submitter Submitter
	logger    zerolog.Logger

	// retain is how long a finished session stays in memory for late
	// subscribers before only history has it.
	retain time.Duration

	now   func() time.Time
	newID func() string
}

func NewManager(runner Runner, store history.Store, logger zerolog.Logger) (*Manager, error) {
	if runner == nil {
		return nil, fmt.Errorf("runner is required")
	}
	if store == nil {
		store = history.NewMemory()
	}
	return &Manager{
		sessions: make(map[string]*Session),
		runner:   runner,
		history:  store,
		logger:   logger.With().Str("component", "session").Logger(),
		retain:   DefaultRetention,
		now:      time.Now,
		newID:    uuid.NewString,
	}, nil
}

// SetSubmitter wires the worker pool. Start fails until one is set.
func (m *Manager) SetSubmitter(s Submitter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitter = s
}

// SetRetention changes how long finished sessions stay in memory. Zero
// drops them as soon as they are persisted.
func (m *Manager) SetRetention(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retain = d
}

// Create registers an upload and extracts its text right away. On
// extraction failure the run is kept in the failed state and the error is
// returned with it.
func (m *Manager) Create(ctx context.Context, doc model.Document) (model.Run, error) {
	now := m.now()
	run := model.Run{
		ID:        m.newID(),
		Filename:  doc.Name,
		State:     model.StateIdle,
		CreatedAt: now,
		UpdatedAt: now,
	}
	sess := newSession(run)
	log := m.logger.With().Str("run_id", run.ID).Str("filename", doc.Name).Logger()

	m.mu.Lock()
	m.sessions[run.ID] = sess
	m.mu.Unlock()

	listen := m.listener(run.ID)
	listen(types.StageEvent{RunID: run.ID, Type: types.EventStarted, Stage: model.StageExtract, Time: now})

	raw, err := m.runner.Extract(ctx, doc)
	if err != nil {
		log.Warn().Err(err).Msg("extraction failed")
		listen(types.StageEvent{RunID: run.ID, Type: types.EventFailed, Stage: model.StageExtract, Error: err.Error(), Time: m.now()})
		return m.finish(run.ID), err
	}

	listen(types.StageEvent{RunID: run.ID, Type: types.EventCompleted, Stage: model.StageExtract, Text: raw, Time: m.now()})
	log.Info().Int("chars", len(raw)).Msg("run created")

	snap, _ := m.snapshot(run.ID)
	return snap, nil
}

// Start marks an extracted run active and queues it. A run starts once.
func (m *Manager) Start(ctx context.Context, id string) (model.Run, error) {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		if _, err := m.history.Get(ctx, id); err == nil {
			return model.Run{}, fmt.Errorf("%w: run %s already finished", ErrInvalidState, id)
		}
		return model.Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if sess.run.State != model.StateExtracted || sess.run.Active {
		state := sess.run.State
		m.mu.Unlock()
		return model.Run{}, fmt.Errorf("%w: run %s is %s", ErrInvalidState, id, state)
	}
	if m.submitter == nil {
		m.mu.Unlock()
		return model.Run{}, fmt.Errorf("no executor configured")
	}
	sess.run.Active = true
	sess.run.UpdatedAt = m.now()
	run := sess.run
	submitter := m.submitter
	m.mu.Unlock()

	m.persist(ctx, run)
	submitter.Submit(id)
	m.logger.Info().Str("run_id", id).Msg("run started")
	return run, nil
}

// Execute runs the remaining stages of a started run. Worker pools call it.
func (m *Manager) Execute(ctx context.Context, id string) {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	var raw string
	if ok {
		raw = sess.run.RawText
	}
	m.mu.Unlock()
	if !ok {
		m.logger.Error().Str("run_id", id).Msg("execute: unknown run")
		return
	}

	// The returned error has already been folded into the run by the listener.
	_, _ = m.runner.RunFrom(ctx, id, raw, m.listener(id))
	m.finish(id)
}

// Get returns a live run, or one from history.
func (m *Manager) Get(ctx context.Context, id string) (model.Run, error) {
	if run, ok := m.snapshot(id); ok {
		return run, nil
	}
	run, err := m.history.Get(ctx, id)
	if errors.Is(err, history.ErrNotFound) {
		return model.Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return run, err
}

// List returns the most recent runs, newest first.
func (m *Manager) List(ctx context.Context, limit int) ([]model.Run, error) {
	return m.history.List(ctx, limit)
}

// Subscribe returns the events so far and a channel for the rest. The
// channel closes when the run finishes or cancel is called. A run known only
// from history gets its stored outputs as replay and a closed channel.
func (m *Manager) Subscribe(id string) ([]types.StageEvent, <-chan types.StageEvent, func(), error) {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		run, err := m.history.Get(context.Background(), id)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		ch := make(chan types.StageEvent)
		close(ch)
		return replayFor(run), ch, func() {}, nil
	}
	defer m.mu.Unlock()

	replay := append([]types.StageEvent(nil), sess.events...)
	subID, ch := sess.subscribe()
	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		sess.unsubscribe(subID)
	}
	return replay, ch, cancel, nil
}

func (m *Manager) listener(id string) pipeline.Listener {
	log := m.logger.With().Str("run_id", id).Logger()
	return func(ev types.StageEvent) {
		m.mu.Lock()
		sess, ok := m.sessions[id]
		if !ok {
			m.mu.Unlock()
			return
		}
		changed := sess.apply(ev, log)
		if ev.Type == types.EventCompleted && ev.Stage == model.StageSynthesize {
			ev.AudioURL = AudioPath(id)
		}
		sess.broadcast(ev, log)
		run := sess.run
		m.mu.Unlock()

		if changed {
			m.persist(context.Background(), run)
		}
	}
}

// finish clears the active flag and, once the run is terminal, ends
// subscriber streams and schedules the session's eviction. A session whose
// record could not be saved is kept.
func (m *Manager) finish(id string) model.Run {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return model.Run{}
	}
	sess.run.Active = false
	if sess.run.State == model.StateExtracted {
		// Cancelled before the first service stage reported anything.
		sess.run.State = model.StateFailed
		sess.run.Error = "run interrupted"
	}
	if sess.run.State.Terminal() {
		sess.closeSubscribers()
	}
	run := sess.run
	retain := m.retain
	m.mu.Unlock()

	saved := m.persist(context.Background(), run)
	m.logger.Info().Str("run_id", id).Str("state", string(run.State)).Msg("run finished")

	if run.State.Terminal() && saved {
		if retain <= 0 {
			m.evict(id)
		} else {
			time.AfterFunc(retain, func() { m.evict(id) })
		}
	}
	return run
}

func (m *Manager) evict(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	m.logger.Debug().Str("run_id", id).Msg("session evicted")
}

func (m *Manager) snapshot(id string) (model.Run, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return model.Run{}, false
	}
	return sess.run, true
}

func (m *Manager) persist(ctx context.Context, run model.Run) bool {
	if err := m.history.Save(ctx, run); err != nil {
		m.logger.Error().Err(err).Str("run_id", run.ID).Msg("failed to save run history")
		return false
	}
	return true
}

// AudioPath is where the web layer serves a run's audio.
func AudioPath(id string) string {
	return "/api/runs/" + id + "/audio"
}
