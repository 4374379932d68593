package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrsingh-rishi/storybook-narrator/config"
)

func TestNamerUnique(t *testing.T) {
	n := NewNamer(config.NamingUnique)
	pattern := regexp.MustCompile(`^speech_\d{14}_[0-9a-f-]{36}\.mp3$`)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		name := n.Name()
		assert.Regexp(t, pattern, name)
		assert.False(t, seen[name], "duplicate name %s", name)
		seen[name] = true
	}
}

func TestNamerTimestamp(t *testing.T) {
	fixed := time.Date(2024, 3, 9, 14, 5, 7, 0, time.Local)
	n := Namer{Scheme: config.NamingTimestamp, Now: func() time.Time { return fixed }}

	assert.Equal(t, "speech_20240309140507.mp3", n.Name())
	assert.Equal(t, n.Name(), n.Name())
}

func TestNamerInjectedID(t *testing.T) {
	fixed := time.Date(2024, 3, 9, 14, 5, 7, 0, time.Local)
	n := Namer{
		Scheme: config.NamingUnique,
		Now:    func() time.Time { return fixed },
		NewID:  func() string { return "abc" },
	}
	assert.Equal(t, "speech_20240309140507_abc.mp3", n.Name())
}

func TestLocalSaveAndOpen(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocal(dir)
	require.NoError(t, err)

	audio := []byte("ID3\x04fake-mp3-bytes")
	art, err := store.Save(context.Background(), "speech_1.mp3", "audio/mpeg", bytes.NewReader(audio))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(store.Dir(), "speech_1.mp3"), art.Location)
	assert.Equal(t, int64(len(audio)), art.Size)
	assert.Equal(t, "audio/mpeg", art.ContentType)

	onDisk, err := os.ReadFile(art.Location)
	require.NoError(t, err)
	assert.Equal(t, audio, onDisk)

	rc, err := store.Open(context.Background(), art.Location)
	require.NoError(t, err)
	defer rc.Close()
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, audio, got)

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestLocalSaveEmpty(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	art, err := store.Save(context.Background(), "empty.mp3", "audio/mpeg", bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Zero(t, art.Size)
	assert.FileExists(t, art.Location)
}

func TestLocalSaveRejectsPaths(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"", "../escape.mp3", "sub/dir.mp3"} {
		_, err := store.Save(context.Background(), name, "audio/mpeg", bytes.NewReader(nil))
		assert.Error(t, err, name)
	}
}

func TestLocalOpenOutsideDir(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	outside := filepath.Join(t.TempDir(), "other.mp3")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))

	_, err = store.Open(context.Background(), outside)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Open(context.Background(), filepath.Join(store.Dir(), "missing.mp3"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewLocalCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	_, err := NewLocal(dir)
	require.NoError(t, err)
	assert.DirExists(t, dir)
}

func TestParseGSURI(t *testing.T) {
	bucket, object, err := parseGSURI("gs://narrations/audio/speech_1.mp3")
	require.NoError(t, err)
	assert.Equal(t, "narrations", bucket)
	assert.Equal(t, "audio/speech_1.mp3", object)

	for _, bad := range []string{"/tmp/speech.mp3", "gs://", "gs://bucket", "gs://bucket/"} {
		_, _, err := parseGSURI(bad)
		assert.ErrorIs(t, err, ErrNotFound, bad)
	}
}

func TestNewUnknownBackend(t *testing.T) {
	_, err := New(context.Background(), config.StorageConfig{Backend: "s3"})
	assert.Error(t, err)
}
