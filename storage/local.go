package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mrsingh-rishi/storybook-narrator/model"
)

// Local keeps artifacts as files in a single directory.
type Local struct {
	dir string
}

func NewLocal(dir string) (*Local, error) {
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve output dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Local{dir: abs}, nil
}

func (l *Local) Dir() string { return l.dir }

// Save writes to a temp file and renames it into place, so a reader never
// sees a partial file. An existing file with the same name is replaced.
func (l *Local) Save(ctx context.Context, name, contentType string, r io.Reader) (model.AudioArtifact, error) {
	if err := ctx.Err(); err != nil {
		return model.AudioArtifact{}, err
	}
	if name == "" || filepath.Base(name) != name {
		return model.AudioArtifact{}, fmt.Errorf("invalid artifact name %q", name)
	}

	tmp, err := os.CreateTemp(l.dir, ".partial-*")
	if err != nil {
		return model.AudioArtifact{}, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return model.AudioArtifact{}, fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return model.AudioArtifact{}, fmt.Errorf("close artifact: %w", err)
	}

	dst := filepath.Join(l.dir, name)
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return model.AudioArtifact{}, fmt.Errorf("move artifact into place: %w", err)
	}
	return model.AudioArtifact{Location: dst, ContentType: contentType, Size: n}, nil
}

// Open only serves files inside the store's directory.
func (l *Local) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(location)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", location, err)
	}
	rel, err := filepath.Rel(l.dir, abs)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") || strings.ContainsRune(rel, filepath.Separator) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, location)
	}

	f, err := os.Open(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, location)
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}
