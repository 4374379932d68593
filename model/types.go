package model

import "time"

// Stage is one of the four sequential pipeline steps.
type Stage string

const (
	StageExtract    Stage = "extract"
	StageProcess    Stage = "process"
	StageTranslate  Stage = "translate"
	StageSynthesize Stage = "synthesize"
)

// Stages lists the pipeline steps in execution order.
var Stages = []Stage{StageExtract, StageProcess, StageTranslate, StageSynthesize}

// State is where a run sits in its reveal sequence.
type State string

const (
	StateIdle       State = "idle"
	StateExtracted  State = "extracted"
	StateProcessed  State = "processed"
	StateTranslated State = "translated"
	StateAudioReady State = "audio_ready"
	StateFailed     State = "failed"
)

var stateOrder = map[State]int{
	StateIdle:       0,
	StateExtracted:  1,
	StateProcessed:  2,
	StateTranslated: 3,
	StateAudioReady: 4,
}

// Reached is the state a run enters once the stage completes.
func (s Stage) Reached() State {
	switch s {
	case StageExtract:
		return StateExtracted
	case StageProcess:
		return StateProcessed
	case StageTranslate:
		return StateTranslated
	case StageSynthesize:
		return StateAudioReady
	}
	return StateFailed
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateAudioReady || s == StateFailed
}

// CanAdvanceTo allows exactly one step forward, or failing from any
// non-terminal state.
func (s State) CanAdvanceTo(next State) bool {
	if s.Terminal() {
		return false
	}
	if next == StateFailed {
		return true
	}
	cur, ok := stateOrder[s]
	if !ok {
		return false
	}
	n, ok := stateOrder[next]
	return ok && n == cur+1
}

// Document is an uploaded file. It lives for one run.
type Document struct {
	Name string
	Data []byte
}

// AudioArtifact is the persisted synthesis output.
type AudioArtifact struct {
	Location    string
	ContentType string
	Size        int64
}

// Run is the record of one user interaction.
type Run struct {
	ID            string    `json:"id"`
	Filename      string    `json:"filename"`
	State         State     `json:"state"`
	Active        bool      `json:"active"`
	RawText       string    `json:"raw_text"`
	Processed     string    `json:"processed"`
	Translated    string    `json:"translated"`
	AudioLocation string    `json:"audio_location,omitempty"`
	Error         string    `json:"error,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
