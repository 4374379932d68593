package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no config file is given explicitly. Missing is fine.
const DefaultPath = "config.yaml"

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	PDF     PDFConfig     `yaml:"pdf"`
	LLM     LLMConfig     `yaml:"llm"`
	Speech  SpeechConfig  `yaml:"speech"`
	Storage StorageConfig `yaml:"storage"`
	History HistoryConfig `yaml:"history"`
	Logging LoggingConfig `yaml:"logging"`

	// Secrets never come from the YAML file.
	Secrets Secrets `yaml:"-"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	MaxUploadMB     int           `yaml:"max_upload_mb"`
	Workers         int           `yaml:"workers"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// SessionRetention keeps finished runs in memory for late page
	// reconnects; history serves them afterwards.
	SessionRetention time.Duration `yaml:"session_retention"`
}

type PDFConfig struct {
	Backend  string `yaml:"backend"`
	Validate *bool  `yaml:"validate"`
}

type LLMConfig struct {
	Provider       string        `yaml:"provider"`
	Model          string        `yaml:"model"`
	Mode           string        `yaml:"mode"`
	TargetLanguage string        `yaml:"target_language"`
	MaxTokens      int           `yaml:"max_tokens"`
	Stream         *bool         `yaml:"stream"`
	BaseURL        string        `yaml:"base_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type SpeechConfig struct {
	Provider       string        `yaml:"provider"`
	Model          string        `yaml:"model"`
	Voice          string        `yaml:"voice"`
	BaseURL        string        `yaml:"base_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type StorageConfig struct {
	Backend         string `yaml:"backend"`
	Dir             string `yaml:"dir"`
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	Naming          string `yaml:"naming"`
	CredentialsFile string `yaml:"credentials_file"`
}

type HistoryConfig struct {
	Backend       string        `yaml:"backend"`
	SQLitePath    string        `yaml:"sqlite_path"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	TTL           time.Duration `yaml:"ttl"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Secrets struct {
	OpenAIKey     string
	ElevenLabsKey string
	GeminiKey     string
}

// Load reads path (or DefaultPath when empty), then .env, then the environment,
// and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case explicit || !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("read config: %w", err)
	}

	// .env is optional; the environment always wins.
	_ = godotenv.Load()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:             ":3000",
			MaxUploadMB:      50,
			Workers:          1,
			ShutdownTimeout:  10 * time.Second,
			SessionRetention: 5 * time.Minute,
		},
		PDF: PDFConfig{Backend: BackendRSC},
		LLM: LLMConfig{
			Provider:       ProviderOpenAI,
			Mode:           ModeNarrative,
			TargetLanguage: "Korean",
			MaxTokens:      2000,
		},
		// Models and voices are filled per provider by Validate.
		Speech: SpeechConfig{Provider: ProviderOpenAI},
		Storage: StorageConfig{
			Backend: StorageLocal,
			Dir:     ".",
			Naming:  NamingUnique,
		},
		History: HistoryConfig{Backend: HistoryMemory},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

func (c *Config) applyEnv() {
	c.Secrets.OpenAIKey = firstNonEmpty(os.Getenv("OPENAI_API_KEY"), os.Getenv("OPEN_AI_API_KEY"))
	c.Secrets.ElevenLabsKey = firstNonEmpty(os.Getenv("ELEVENLABS_API_KEY"), os.Getenv("ELEVEN_LABS_API_KEY"))
	c.Secrets.GeminiKey = os.Getenv("GEMINI_API_KEY")

	if v := os.Getenv("NARRATOR_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("NARRATOR_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("NARRATOR_OUTPUT_DIR"); v != "" {
		c.Storage.Dir = v
	}
}

// ValidateEnabled reports whether uploads are checked with pdfcpu before extraction.
func (p PDFConfig) ValidateEnabled() bool {
	return p.Validate == nil || *p.Validate
}

// StreamEnabled reports whether completions are streamed as deltas.
func (l LLMConfig) StreamEnabled() bool {
	return l.Stream == nil || *l.Stream
}

// MaxUploadBytes is the upload cap in bytes.
func (s ServerConfig) MaxUploadBytes() int {
	return s.MaxUploadMB << 20
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
