package tts

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrsingh-rishi/storybook-narrator/config"
	"github.com/mrsingh-rishi/storybook-narrator/logger"
	"github.com/mrsingh-rishi/storybook-narrator/storage"
)

var fakeMP3 = []byte{0x49, 0x44, 0x33, 0x04, 0x00, 0xff, 0xfb, 0x90, 0x00, 0x01}

func newOpenAISpeechServer(t *testing.T, gotBody *map[string]any) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/audio/speech", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(gotBody))
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write(fakeMP3)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAISynthesize(t *testing.T) {
	var body map[string]any
	srv := newOpenAISpeechServer(t, &body)

	s, err := NewOpenAISynthesizer("test-key", OpenAIOptions{
		Model:   "tts-1",
		Voice:   "alloy",
		BaseURL: srv.URL + "/v1",
		Logger:  logger.Nop(),
	})
	require.NoError(t, err)

	audio, err := s.Synthesize(context.Background(), "안녕하세요")
	require.NoError(t, err)
	assert.Equal(t, fakeMP3, audio)

	assert.Equal(t, "tts-1", body["model"])
	assert.Equal(t, "alloy", body["voice"])
	assert.Equal(t, "안녕하세요", body["input"])
}

func TestSpeakerWritesExactBytes(t *testing.T) {
	var body map[string]any
	srv := newOpenAISpeechServer(t, &body)

	synth, err := NewOpenAISynthesizer("test-key", OpenAIOptions{
		Model:   "tts-1",
		Voice:   "alloy",
		BaseURL: srv.URL + "/v1",
		Logger:  logger.Nop(),
	})
	require.NoError(t, err)

	dir := t.TempDir()
	store, err := storage.NewLocal(dir)
	require.NoError(t, err)

	sp := NewSpeaker(synth, store, storage.NewNamer(config.NamingUnique), logger.Nop())
	art, err := sp.Speak(context.Background(), "text")
	require.NoError(t, err)

	assert.Equal(t, store.Dir(), filepath.Dir(art.Location))
	assert.Regexp(t, regexp.MustCompile(`^speech_\d{14}_[0-9a-f-]{36}\.mp3$`), filepath.Base(art.Location))
	assert.Equal(t, "audio/mpeg", art.ContentType)

	onDisk, err := os.ReadFile(art.Location)
	require.NoError(t, err)
	assert.Equal(t, fakeMP3, onDisk)
}

type failingSynth struct{}

func (failingSynth) Synthesize(context.Context, string) ([]byte, error) {
	return nil, errors.New("quota exceeded")
}

func TestSpeakerSynthesisErrorWritesNothing(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewLocal(dir)
	require.NoError(t, err)

	sp := NewSpeaker(failingSynth{}, store, storage.NewNamer(config.NamingUnique), logger.Nop())
	_, err = sp.Speak(context.Background(), "text")
	assert.EqualError(t, err, "quota exceeded")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestElevenLabsSynthesize(t *testing.T) {
	half := len(fakeMP3) / 2
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/text-to-speech/voice-123/stream/with-timestamps", r.URL.Path)
		assert.Equal(t, "mp3_44100_128", r.URL.Query().Get("output_format"))
		assert.Equal(t, "eleven-key", r.Header.Get("xi-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		for _, part := range [][]byte{fakeMP3[:half], fakeMP3[half:]} {
			fmt.Fprintf(w, `{"audio_base64":%q,"alignment":null}`+"\n", base64.StdEncoding.EncodeToString(part))
		}
	}))
	defer srv.Close()

	c, err := NewElevenLabsClient("eleven-key", ElevenLabsOptions{
		VoiceID: "voice-123",
		BaseURL: srv.URL,
		Logger:  logger.Nop(),
	})
	require.NoError(t, err)

	audio, err := c.Synthesize(context.Background(), "hola")
	require.NoError(t, err)
	assert.Equal(t, fakeMP3, audio)
	assert.Equal(t, "eleven_multilingual_v2", body["model_id"])
	assert.Equal(t, "hola", body["text"])
}

func TestElevenLabsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"invalid api key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c, err := NewElevenLabsClient("bad", ElevenLabsOptions{VoiceID: "v", BaseURL: srv.URL, Logger: logger.Nop()})
	require.NoError(t, err)

	_, err = c.Synthesize(context.Background(), "hola")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "invalid api key")
}

func TestNewProviders(t *testing.T) {
	secrets := config.Secrets{OpenAIKey: "o", ElevenLabsKey: "e"}

	s, err := New(config.SpeechConfig{Provider: config.ProviderOpenAI, Model: "tts-1", Voice: "alloy"}, secrets, logger.Nop())
	require.NoError(t, err)
	assert.IsType(t, &OpenAISynthesizer{}, s)

	s, err = New(config.SpeechConfig{Provider: config.ProviderElevenLabs, Voice: "v"}, secrets, logger.Nop())
	require.NoError(t, err)
	assert.IsType(t, &ElevenLabsClient{}, s)

	_, err = New(config.SpeechConfig{Provider: "polly"}, secrets, logger.Nop())
	assert.Error(t, err)
}
