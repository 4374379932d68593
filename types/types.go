package types

import (
	"time"

	"github.com/mrsingh-rishi/storybook-narrator/model"
)

type EventType string

const (
	EventStarted   EventType = "started"
	EventDelta     EventType = "delta"
	EventCompleted EventType = "completed"
	EventFailed    EventType = "failed"
)

// StageEvent is what the page receives over the run's websocket.
type StageEvent struct {
	RunID    string      `json:"run_id"`
	Type     EventType   `json:"type"`
	Stage    model.Stage `json:"stage"`
	Text     string      `json:"text,omitempty"`
	AudioURL string      `json:"audio_url,omitempty"`
	Error    string      `json:"error,omitempty"`
	Time     time.Time   `json:"time"`
}
