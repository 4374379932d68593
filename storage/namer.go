package storage

import (
	"time"

	"github.com/google/uuid"

	"github.com/mrsingh-rishi/storybook-narrator/config"
)

const timestampLayout = "20060102150405"

// Namer produces artifact file names. The timestamp scheme gives
// speech_<YYYYMMDDHHMMSS>.mp3, which collides for two runs in the same
// second; the unique scheme appends a UUID.
type Namer struct {
	Scheme string
	Now    func() time.Time
	NewID  func() string
}

func NewNamer(scheme string) Namer {
	return Namer{
		Scheme: scheme,
		Now:    time.Now,
		NewID:  uuid.NewString,
	}
}

func (n Namer) Name() string {
	now := time.Now
	if n.Now != nil {
		now = n.Now
	}
	ts := now().Format(timestampLayout)

	if n.Scheme == config.NamingTimestamp {
		return "speech_" + ts + ".mp3"
	}
	newID := uuid.NewString
	if n.NewID != nil {
		newID = n.NewID
	}
	return "speech_" + ts + "_" + newID() + ".mp3"
}
