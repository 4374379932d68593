package config

import (
	"fmt"
	"slices"
	"strings"
)

const (
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderElevenLabs = "elevenlabs"

	BackendRSC   = "rsc"
	BackendMuPDF = "mupdf"

	ModeNarrative = "narrative"
	ModeSummary   = "summary"

	StorageLocal = "local"
	StorageGCS   = "gcs"

	NamingUnique    = "unique"
	NamingTimestamp = "timestamp"

	HistoryMemory = "memory"
	HistorySQLite = "sqlite"
	HistoryRedis  = "redis"

	maxTokenCap = 16384
)

var (
	chatModels = map[string][]string{
		ProviderOpenAI: {"gpt-4o-mini", "gpt-4o", "gpt-4.1-mini", "gpt-4.1"},
		ProviderGemini: {"gemini-2.5-flash", "gemini-2.5-pro", "gemini-2.0-flash"},
	}

	speechModels = map[string][]string{
		ProviderOpenAI:     {"tts-1", "tts-1-hd", "gpt-4o-mini-tts"},
		ProviderElevenLabs: {"eleven_multilingual_v2", "eleven_turbo_v2_5", "eleven_flash_v2_5"},
	}

	openAIVoices = []string{"alloy", "ash", "coral", "echo", "fable", "onyx", "nova", "sage", "shimmer"}

	// Languages the translation prompt is tuned for.
	Languages = []string{
		"Korean", "Japanese", "Chinese", "English", "Spanish",
		"French", "German", "Italian", "Portuguese", "Vietnamese",
	}
)

// Validate fills defaults for zero values and rejects anything outside the
// recognized options.
func (c *Config) Validate() error {
	d := Default()

	if c.Server.Addr == "" {
		c.Server.Addr = d.Server.Addr
	}
	if c.Server.MaxUploadMB <= 0 {
		c.Server.MaxUploadMB = d.Server.MaxUploadMB
	}
	if c.Server.Workers <= 0 {
		c.Server.Workers = d.Server.Workers
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = d.Server.ShutdownTimeout
	}

	c.PDF.Backend = strings.ToLower(c.PDF.Backend)
	if c.PDF.Backend == "" {
		c.PDF.Backend = d.PDF.Backend
	}
	if err := oneOf("pdf.backend", c.PDF.Backend, BackendRSC, BackendMuPDF); err != nil {
		return err
	}

	if err := c.validateLLM(d.LLM); err != nil {
		return err
	}
	if err := c.validateSpeech(d.Speech); err != nil {
		return err
	}

	if c.Storage.Backend == "" {
		c.Storage.Backend = d.Storage.Backend
	}
	if err := oneOf("storage.backend", c.Storage.Backend, StorageLocal, StorageGCS); err != nil {
		return err
	}
	if c.Storage.Naming == "" {
		c.Storage.Naming = d.Storage.Naming
	}
	if err := oneOf("storage.naming", c.Storage.Naming, NamingUnique, NamingTimestamp); err != nil {
		return err
	}
	if c.Storage.Backend == StorageLocal && c.Storage.Dir == "" {
		c.Storage.Dir = d.Storage.Dir
	}
	if c.Storage.Backend == StorageGCS && c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket is required for the gcs backend")
	}

	if c.History.Backend == "" {
		c.History.Backend = d.History.Backend
	}
	if err := oneOf("history.backend", c.History.Backend, HistoryMemory, HistorySQLite, HistoryRedis); err != nil {
		return err
	}
	if c.History.Backend == HistorySQLite && c.History.SQLitePath == "" {
		c.History.SQLitePath = "narrator.db"
	}
	if c.History.Backend == HistoryRedis && c.History.RedisAddr == "" {
		c.History.RedisAddr = "localhost:6379"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = d.Logging.Format
	}
	return oneOf("logging.format", c.Logging.Format, "json", "console")
}

func (c *Config) validateLLM(d LLMConfig) error {
	if c.LLM.Provider == "" {
		c.LLM.Provider = d.Provider
	}
	models, ok := chatModels[c.LLM.Provider]
	if !ok {
		return fmt.Errorf("llm.provider %q is not one of openai, gemini", c.LLM.Provider)
	}
	if c.LLM.Model == "" {
		c.LLM.Model = models[0]
	}
	if err := oneOf("llm.model", c.LLM.Model, models...); err != nil {
		return err
	}

	if c.LLM.Mode == "" {
		c.LLM.Mode = d.Mode
	}
	if err := oneOf("llm.mode", c.LLM.Mode, ModeNarrative, ModeSummary); err != nil {
		return err
	}

	if c.LLM.TargetLanguage == "" {
		c.LLM.TargetLanguage = d.TargetLanguage
	}
	if err := oneOf("llm.target_language", c.LLM.TargetLanguage, Languages...); err != nil {
		return err
	}

	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = d.MaxTokens
	}
	if c.LLM.MaxTokens < 1 || c.LLM.MaxTokens > maxTokenCap {
		return fmt.Errorf("llm.max_tokens must be between 1 and %d, got %d", maxTokenCap, c.LLM.MaxTokens)
	}

	switch c.LLM.Provider {
	case ProviderOpenAI:
		if c.Secrets.OpenAIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY must be set for llm.provider openai")
		}
	case ProviderGemini:
		if c.Secrets.GeminiKey == "" {
			return fmt.Errorf("GEMINI_API_KEY must be set for llm.provider gemini")
		}
	}
	return nil
}

func (c *Config) validateSpeech(d SpeechConfig) error {
	if c.Speech.Provider == "" {
		c.Speech.Provider = d.Provider
	}
	models, ok := speechModels[c.Speech.Provider]
	if !ok {
		return fmt.Errorf("speech.provider %q is not one of openai, elevenlabs", c.Speech.Provider)
	}
	if c.Speech.Model == "" {
		c.Speech.Model = models[0]
	}
	if err := oneOf("speech.model", c.Speech.Model, models...); err != nil {
		return err
	}

	switch c.Speech.Provider {
	case ProviderOpenAI:
		if c.Speech.Voice == "" {
			c.Speech.Voice = openAIVoices[0]
		}
		if err := oneOf("speech.voice", c.Speech.Voice, openAIVoices...); err != nil {
			return err
		}
		if c.Secrets.OpenAIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY must be set for speech.provider openai")
		}
	case ProviderElevenLabs:
		// ElevenLabs voices are account specific ids.
		if c.Speech.Voice == "" {
			return fmt.Errorf("speech.voice is required for speech.provider elevenlabs")
		}
		if c.Secrets.ElevenLabsKey == "" {
			return fmt.Errorf("ELEVENLABS_API_KEY must be set for speech.provider elevenlabs")
		}
	}
	return nil
}

func oneOf(field, value string, allowed ...string) error {
	if slices.Contains(allowed, value) {
		return nil
	}
	return fmt.Errorf("%s %q is not one of %s", field, value, strings.Join(allowed, ", "))
}
