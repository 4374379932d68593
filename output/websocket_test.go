package output

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrsingh-rishi/storybook-narrator/logger"
	"github.com/mrsingh-rishi/storybook-narrator/model"
	"github.com/mrsingh-rishi/storybook-narrator/types"
)

type fakeConn struct {
	mu      sync.Mutex
	written []interface{}
	failOn  int
	closed  bool
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failOn > 0 && len(c.written)+1 == c.failOn {
		return errors.New("broken pipe")
	}
	c.written = append(c.written, v)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.written)
}

func waitDone(t *testing.T, o *WebSocketOutput) {
	t.Helper()
	select {
	case <-o.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("output did not finish")
	}
}

func TestForwardsUntilChannelCloses(t *testing.T) {
	conn := &fakeConn{}
	events := make(chan types.StageEvent, 3)
	o, err := NewWebSocketOutput(conn, events, logger.Nop())
	require.NoError(t, err)

	require.NoError(t, o.Send(types.StageEvent{Type: types.EventCompleted, Stage: model.StageExtract}))

	o.Start()
	events <- types.StageEvent{Type: types.EventStarted, Stage: model.StageProcess}
	events <- types.StageEvent{Type: types.EventCompleted, Stage: model.StageProcess, Text: "done"}
	close(events)

	waitDone(t, o)
	require.Equal(t, 3, conn.count())
	assert.Equal(t, "done", conn.written[2].(types.StageEvent).Text)

	o.Stop()
	o.Stop()
	assert.True(t, conn.closed)
}

func TestStopsOnWriteError(t *testing.T) {
	conn := &fakeConn{failOn: 1}
	events := make(chan types.StageEvent, 2)
	o, err := NewWebSocketOutput(conn, events, logger.Nop())
	require.NoError(t, err)

	o.Start()
	events <- types.StageEvent{Type: types.EventStarted}
	waitDone(t, o)
	assert.Zero(t, conn.count())
}

func TestStopEndsForwarding(t *testing.T) {
	o, err := NewWebSocketOutput(&fakeConn{}, make(chan types.StageEvent), logger.Nop())
	require.NoError(t, err)

	o.Start()
	o.Stop()
	waitDone(t, o)
}

func TestNewWebSocketOutputValidates(t *testing.T) {
	_, err := NewWebSocketOutput(nil, make(chan types.StageEvent), logger.Nop())
	assert.Error(t, err)
	_, err = NewWebSocketOutput(&fakeConn{}, nil, logger.Nop())
	assert.Error(t, err)
}
