// Package storage persists synthesized audio and names the artifacts.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/mrsingh-rishi/storybook-narrator/config"
	"github.com/mrsingh-rishi/storybook-narrator/model"
)

var (
	// ErrExists is returned when an artifact name is already taken.
	ErrExists = errors.New("artifact already exists")
	// ErrNotFound is returned by Open for unknown locations.
	ErrNotFound = errors.New("artifact not found")
)

// ArtifactStore writes audio artifacts and reads them back by location.
type ArtifactStore interface {
	Save(ctx context.Context, name, contentType string, r io.Reader) (model.AudioArtifact, error)
	Open(ctx context.Context, location string) (io.ReadCloser, error)
}

// New builds the store selected by cfg.Backend.
func New(ctx context.Context, cfg config.StorageConfig) (ArtifactStore, error) {
	switch cfg.Backend {
	case "", config.StorageLocal:
		return NewLocal(cfg.Dir)
	case config.StorageGCS:
		return NewGCS(ctx, cfg.Bucket, cfg.Prefix, cfg.CredentialsFile)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
