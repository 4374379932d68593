// Package history persists run records so finished runs can be listed and
// reopened after a restart.
package history

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/mrsingh-rishi/storybook-narrator/config"
	"github.com/mrsingh-rishi/storybook-narrator/model"
)

// ErrNotFound is returned by Get for unknown run ids.
var ErrNotFound = errors.New("run not found")

// Store saves snapshots of runs. Save replaces any earlier snapshot with the
// same id. List returns the newest runs first.
type Store interface {
	Save(ctx context.Context, run model.Run) error
	Get(ctx context.Context, id string) (model.Run, error)
	List(ctx context.Context, limit int) ([]model.Run, error)
	Close() error
}

// New opens the backend named in cfg.
func New(ctx context.Context, cfg config.HistoryConfig) (Store, error) {
	switch cfg.Backend {
	case "", config.HistoryMemory:
		return NewMemory(), nil
	case config.HistorySQLite:
		return NewSQLite(ctx, cfg.SQLitePath)
	case config.HistoryRedis:
		return NewRedis(ctx, RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.TTL,
		})
	default:
		return nil, fmt.Errorf("unknown history backend %q", cfg.Backend)
	}
}

type Memory struct {
	mu   sync.RWMutex
	runs map[string]model.Run
}

func NewMemory() *Memory {
	return &Memory{runs: make(map[string]model.Run)}
}

func (m *Memory) Save(_ context.Context, run model.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = run
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (model.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[id]
	if !ok {
		return model.Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return run, nil
}

func (m *Memory) List(_ context.Context, limit int) ([]model.Run, error) {
	m.mu.RLock()
	runs := make([]model.Run, 0, len(m.runs))
	for _, r := range m.runs {
		runs = append(runs, r)
	}
	m.mu.RUnlock()

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (m *Memory) Close() error { return nil }
