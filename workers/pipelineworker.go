package workers

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mrsingh-rishi/storybook-narrator/queue"
)

// Handler processes one queued run. The context is cancelled on Stop.
type Handler func(ctx context.Context, runID string)

// PipelineWorker runs queued runs on a fixed number of goroutines.
type PipelineWorker struct {
	ctx    context.Context
	cancel context.CancelFunc
	queue  *queue.Queue[string]
	handle Handler
	size   int
	wg     sync.WaitGroup
	logger zerolog.Logger
}

func NewPipelineWorker(q *queue.Queue[string], size int, handle Handler, logger zerolog.Logger) (*PipelineWorker, error) {
	// Params Validation
	if q == nil {
		return nil, fmt.Errorf("queue is required")
	}
	if handle == nil {
		return nil, fmt.Errorf("handler is required")
	}
	if size < 1 {
		return nil, fmt.Errorf("worker count must be at least 1, got %d", size)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &PipelineWorker{
		ctx:    ctx,
		cancel: cancel,
		queue:  q,
		handle: handle,
		size:   size,
		logger: logger.With().Str("component", "workers").Logger(),
	}, nil
}

// Submit queues a run for the next free worker.
func (w *PipelineWorker) Submit(runID string) {
	w.queue.Enqueue(runID)
	w.logger.Debug().Str("run_id", runID).Int("queued", w.queue.Len()).Msg("run queued")
}

func (w *PipelineWorker) Start() {
	for i := 0; i < w.size; i++ {
		w.wg.Add(1)
		go w.loop(i)
	}
	w.logger.Info().Int("workers", w.size).Msg("pipeline workers started")
}

func (w *PipelineWorker) loop(id int) {
	defer w.wg.Done()
	for {
		if w.ctx.Err() != nil {
			return
		}
		if runID, ok := w.queue.Dequeue(); ok {
			w.logger.Debug().Int("worker", id).Str("run_id", runID).Msg("run picked up")
			w.handle(w.ctx, runID)
			continue
		}

		select {
		case <-w.ctx.Done():
			// we've been asked to stop
			return
		case <-w.queue.Ready():
		}
	}
}

// Stop cancels in-flight runs and waits for every worker to return.
func (w *PipelineWorker) Stop() {
	w.cancel()
	w.wg.Wait()
}
