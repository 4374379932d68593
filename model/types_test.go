package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanAdvanceTo(t *testing.T) {
	tests := []struct {
		from, to State
		want     bool
	}{
		{StateIdle, StateExtracted, true},
		{StateExtracted, StateProcessed, true},
		{StateProcessed, StateTranslated, true},
		{StateTranslated, StateAudioReady, true},
		{StateExtracted, StateTranslated, false},
		{StateProcessed, StateExtracted, false},
		{StateIdle, StateFailed, true},
		{StateTranslated, StateFailed, true},
		{StateAudioReady, StateFailed, false},
		{StateFailed, StateExtracted, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanAdvanceTo(tt.to))
		})
	}
}

func TestStageReached(t *testing.T) {
	want := []State{StateExtracted, StateProcessed, StateTranslated, StateAudioReady}
	for i, s := range Stages {
		assert.Equal(t, want[i], s.Reached())
	}
}
