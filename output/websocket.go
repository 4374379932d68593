package output

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mrsingh-rishi/storybook-narrator/types"
)

// Conn is the part of a websocket connection the output writes to.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// WebSocketOutput forwards a run's stage events to one page as JSON.
type WebSocketOutput struct {
	ctx    context.Context
	cancel context.CancelFunc
	Events <-chan types.StageEvent
	ws     Conn
	done   chan struct{}
	once   sync.Once
	logger zerolog.Logger
}

func NewWebSocketOutput(ws Conn, events <-chan types.StageEvent, logger zerolog.Logger) (*WebSocketOutput, error) {
	if ws == nil {
		return nil, fmt.Errorf("websocket connection is required")
	}
	if events == nil {
		return nil, fmt.Errorf("event channel is required")
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &WebSocketOutput{
		ctx:    ctx,
		cancel: cancel,
		Events: events,
		ws:     ws,
		done:   make(chan struct{}),
		logger: logger.With().Str("component", "output").Logger(),
	}, nil
}

// Send writes one event directly. Use it only before Start.
func (o *WebSocketOutput) Send(ev types.StageEvent) error {
	if err := o.ws.WriteJSON(ev); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}

// Start forwards events until the channel closes, a write fails or Stop is
// called. Done is closed when forwarding ends.
func (o *WebSocketOutput) Start() {
	go func() {
		defer close(o.done)
		for {
			select {
			case <-o.ctx.Done():
				return
			case ev, ok := <-o.Events:
				if !ok {
					return
				}
				if err := o.Send(ev); err != nil {
					o.logger.Debug().Err(err).Str("run_id", ev.RunID).Msg("page went away")
					return
				}
			}
		}
	}()
}

func (o *WebSocketOutput) Done() <-chan struct{} {
	return o.done
}

func (o *WebSocketOutput) Stop() {
	o.once.Do(func() {
		o.cancel()
		if o.ws != nil {
			o.ws.Close()
		}
	})
}
