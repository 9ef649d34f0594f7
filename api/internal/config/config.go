package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"farm-advisor/api/internal/advisory"
	"farm-advisor/api/internal/advisory/lang"
	"farm-advisor/api/internal/advisory/types"
)

type Config struct {
	Port string

	LLMProvider      string
	GeminiAPIKey     string
	GeminiModel      string
	OpenAIAPIKey     string
	OpenAIModel      string
	OpenAIBaseURL    string
	ModelTimeout     time.Duration
	ModelTemperature float32

	RetryMaxAttempts   int
	RetryParseAttempts int
	RetryBackoff       time.Duration

	DefaultLanguage string
	LanguageNames   map[string]string

	DatabaseURL string

	TelegramBotToken string
	WebhookURL       string

	LogLevel       string
	LogFormat      string
	MaxUploadBytes int64

	// errs collects values that failed to parse; Validate reports them.
	errs []error
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func (c *Config) getInt(k string, def int) int {
	v := getEnv(k, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		c.errs = append(c.errs, fmt.Errorf("%s: %q is not an integer", k, v))
		return def
	}
	return n
}

func (c *Config) getDuration(k string, def time.Duration) time.Duration {
	v := getEnv(k, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		// bare numbers are seconds
		if n, nerr := strconv.Atoi(v); nerr == nil {
			return time.Duration(n) * time.Second
		}
		c.errs = append(c.errs, fmt.Errorf("%s: %q is not a duration", k, v))
		return def
	}
	return d
}

func (c *Config) getFloat(k string, def float32) float32 {
	v := getEnv(k, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 32)
	if err != nil {
		c.errs = append(c.errs, fmt.Errorf("%s: %q is not a number", k, v))
		return def
	}
	return float32(f)
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load() *Config {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() *Config {
	c := &Config{}
	c.Port = getEnv("PORT", "8000")

	c.LLMProvider = strings.ToLower(getEnv("LLM_PROVIDER", "gemini"))
	c.GeminiAPIKey = getEnv("GEMINI_API_KEY", "")
	c.GeminiModel = getEnv("GEMINI_MODEL", "gemini-2.0-flash")
	c.OpenAIAPIKey = getEnv("OPENAI_API_KEY", "")
	c.OpenAIModel = getEnv("OPENAI_MODEL", "gpt-4o-mini")
	c.OpenAIBaseURL = getEnv("OPENAI_BASE_URL", "")
	c.ModelTimeout = c.getDuration("MODEL_TIMEOUT", 60*time.Second)
	c.ModelTemperature = c.getFloat("MODEL_TEMPERATURE", 0.4)

	c.RetryMaxAttempts = c.getInt("RETRY_MAX_ATTEMPTS", 1)
	c.RetryParseAttempts = c.getInt("RETRY_PARSE_ATTEMPTS", 0)
	c.RetryBackoff = c.getDuration("RETRY_BACKOFF", 500*time.Millisecond)

	c.DefaultLanguage = strings.ToLower(getEnv("DEFAULT_LANGUAGE", "en"))
	c.LanguageNames = lang.ParsePairs(getEnv("LANGUAGE_NAMES", ""))

	c.DatabaseURL = getEnv("DATABASE_URL", "")

	c.TelegramBotToken = getEnv("TELEGRAM_BOT_TOKEN", "")
	c.WebhookURL = getEnv("WEBHOOK_URL", "")

	c.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", "info"))
	c.LogFormat = strings.ToLower(getEnv("LOG_FORMAT", "text"))
	c.MaxUploadBytes = int64(c.getInt("MAX_UPLOAD_BYTES", 10<<20))
	return c
}

// Validate reports unparseable values and a default provider without a key.
func (c *Config) Validate() error {
	errs := append([]error(nil), c.errs...)
	switch c.LLMProvider {
	case "gemini":
		if c.GeminiAPIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is required when LLM_PROVIDER=gemini"))
		}
	case "gpt", "openai":
		if c.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required when LLM_PROVIDER=gpt"))
		}
	default:
		errs = append(errs, fmt.Errorf("LLM_PROVIDER: unknown provider %q", c.LLMProvider))
	}
	if c.RetryMaxAttempts < 1 {
		errs = append(errs, errors.New("RETRY_MAX_ATTEMPTS must be at least 1"))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_BYTES must be positive"))
	}
	return errors.Join(errs...)
}

// ModelClientConfig projects the settings of one provider.
func (c *Config) ModelClientConfig(provider string) types.ModelClientConfig {
	mc := types.ModelClientConfig{
		Provider:    provider,
		Timeout:     c.ModelTimeout,
		Temperature: c.ModelTemperature,
	}
	switch provider {
	case "gpt", "openai":
		mc.Provider = "gpt"
		mc.Model = c.OpenAIModel
		mc.APIKey = c.OpenAIAPIKey
		mc.BaseURL = c.OpenAIBaseURL
	default:
		mc.Model = c.GeminiModel
		mc.APIKey = c.GeminiAPIKey
	}
	return mc
}

func (c *Config) RetryPolicy() advisory.RetryPolicy {
	return advisory.RetryPolicy{
		MaxAttempts:   c.RetryMaxAttempts,
		ParseAttempts: c.RetryParseAttempts,
		Backoff:       c.RetryBackoff,
		Multiplier:    2,
		MaxBackoff:    10 * time.Second,
	}
}

// Languages is the default table extended with LANGUAGE_NAMES.
func (c *Config) Languages() lang.Table {
	t := lang.DefaultTable()
	for code, name := range c.LanguageNames {
		t = t.With(code, name)
	}
	return t
}

// Secrets lists the credentials that must never leave the process.
func (c *Config) Secrets() []string {
	var out []string
	for _, s := range []string{c.GeminiAPIKey, c.OpenAIAPIKey, c.TelegramBotToken} {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
