package workers

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrsingh-rishi/storybook-narrator/logger"
	"github.com/mrsingh-rishi/storybook-narrator/queue"
)

func TestSingleWorkerKeepsOrder(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
		done = make(chan struct{})
	)
	w, err := NewPipelineWorker(queue.New[string](), 1, func(_ context.Context, id string) {
		mu.Lock()
		seen = append(seen, id)
		if len(seen) == 3 {
			close(done)
		}
		mu.Unlock()
	}, logger.Nop())
	require.NoError(t, err)

	w.Start()
	defer w.Stop()
	w.Submit("r1")
	w.Submit("r2")
	w.Submit("r3")

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("runs were not processed")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"r1", "r2", "r3"}, seen)
}

func TestPoolRunsConcurrently(t *testing.T) {
	release := make(chan struct{})
	var running, peak int32

	var wg sync.WaitGroup
	wg.Add(3)
	w, err := NewPipelineWorker(queue.New[string](), 3, func(_ context.Context, _ string) {
		defer wg.Done()
		n := atomic.AddInt32(&running, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		<-release
		atomic.AddInt32(&running, -1)
	}, logger.Nop())
	require.NoError(t, err)

	w.Start()
	defer w.Stop()
	for _, id := range []string{"a", "b", "c"} {
		w.Submit(id)
	}

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&running) == 3 }, 2*time.Second, 5*time.Millisecond)
	close(release)
	wg.Wait()
	assert.Equal(t, int32(3), atomic.LoadInt32(&peak))
}

func TestStopCancelsInFlight(t *testing.T) {
	started := make(chan struct{})
	var cancelled atomic.Bool

	w, err := NewPipelineWorker(queue.New[string](), 1, func(ctx context.Context, _ string) {
		close(started)
		<-ctx.Done()
		cancelled.Store(true)
	}, logger.Nop())
	require.NoError(t, err)

	w.Start()
	w.Submit("slow")
	<-started
	w.Stop()
	assert.True(t, cancelled.Load())
}

func TestNewPipelineWorkerValidates(t *testing.T) {
	noop := func(context.Context, string) {}

	_, err := NewPipelineWorker(nil, 1, noop, logger.Nop())
	assert.Error(t, err)
	_, err = NewPipelineWorker(queue.New[string](), 1, nil, logger.Nop())
	assert.Error(t, err)
	_, err = NewPipelineWorker(queue.New[string](), 0, noop, logger.Nop())
	assert.Error(t, err)
}
