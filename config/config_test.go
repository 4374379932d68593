package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := Default()
	cfg.Secrets = Secrets{OpenAIKey: "sk-test", ElevenLabsKey: "el-test", GeminiKey: "gm-test"}
	return cfg
}

func TestValidateDefaults(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, 2000, cfg.LLM.MaxTokens)
	assert.Equal(t, "Korean", cfg.LLM.TargetLanguage)
	assert.Equal(t, ModeNarrative, cfg.LLM.Mode)
	assert.Equal(t, "tts-1", cfg.Speech.Model)
	assert.Equal(t, "alloy", cfg.Speech.Voice)
	assert.Equal(t, NamingUnique, cfg.Storage.Naming)
	assert.Equal(t, 1, cfg.Server.Workers)
	assert.True(t, cfg.PDF.ValidateEnabled())
	assert.True(t, cfg.LLM.StreamEnabled())
	assert.Equal(t, 50<<20, cfg.Server.MaxUploadBytes())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"gemini fills its own model", func(c *Config) { c.LLM.Provider = ProviderGemini }, false},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "acme" }, true},
		{"model of another provider", func(c *Config) {
			c.LLM.Provider = ProviderGemini
			c.LLM.Model = "gpt-4o"
		}, true},
		{"unknown mode", func(c *Config) { c.LLM.Mode = "poem" }, true},
		{"summary mode", func(c *Config) { c.LLM.Mode = ModeSummary }, false},
		{"unknown language", func(c *Config) { c.LLM.TargetLanguage = "Klingon" }, true},
		{"token cap too high", func(c *Config) { c.LLM.MaxTokens = maxTokenCap + 1 }, true},
		{"negative token cap", func(c *Config) { c.LLM.MaxTokens = -1 }, true},
		{"missing openai key", func(c *Config) { c.Secrets.OpenAIKey = "" }, true},
		{"unknown voice", func(c *Config) { c.Speech.Voice = "robot" }, true},
		{"elevenlabs needs voice", func(c *Config) { c.Speech.Provider = ProviderElevenLabs }, true},
		{"elevenlabs voice id", func(c *Config) {
			c.Speech.Provider = ProviderElevenLabs
			c.Speech.Voice = "JBFqnCBsd6RMkjVDRZzb"
		}, false},
		{"mupdf backend", func(c *Config) { c.PDF.Backend = "MuPDF" }, false},
		{"unknown pdf backend", func(c *Config) { c.PDF.Backend = "ocr" }, true},
		{"gcs without bucket", func(c *Config) { c.Storage.Backend = StorageGCS }, true},
		{"unknown naming", func(c *Config) { c.Storage.Naming = "random" }, true},
		{"unknown history", func(c *Config) { c.History.Backend = "mongo" }, true},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateFillsBackendDefaults(t *testing.T) {
	cfg := validConfig()
	cfg.History.Backend = HistorySQLite
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "narrator.db", cfg.History.SQLitePath)

	cfg = validConfig()
	cfg.History.Backend = HistoryRedis
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "localhost:6379", cfg.History.RedisAddr)
}

func TestLoad(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-from-env")
	t.Setenv("NARRATOR_ADDR", ":9999")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  workers: 3
  shutdown_timeout: 5s
llm:
  mode: summary
  target_language: Japanese
  max_tokens: 1500
  stream: false
speech:
  voice: nova
storage:
  dir: out
  naming: timestamp
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sk-from-env", cfg.Secrets.OpenAIKey)
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, 3, cfg.Server.Workers)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, ModeSummary, cfg.LLM.Mode)
	assert.Equal(t, "Japanese", cfg.LLM.TargetLanguage)
	assert.Equal(t, 1500, cfg.LLM.MaxTokens)
	assert.False(t, cfg.LLM.StreamEnabled())
	assert.Equal(t, "nova", cfg.Speech.Voice)
	assert.Equal(t, "out", cfg.Storage.Dir)
	assert.Equal(t, NamingTimestamp, cfg.Storage.Naming)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadWithoutFile(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":3000", cfg.Server.Addr)
}

func TestLoadInvalidYAML(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}
