package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{
	"PORT", "LLM_PROVIDER", "GEMINI_API_KEY", "GEMINI_MODEL", "OPENAI_API_KEY", "OPENAI_MODEL",
	"OPENAI_BASE_URL", "MODEL_TIMEOUT", "MODEL_TEMPERATURE", "RETRY_MAX_ATTEMPTS",
	"RETRY_PARSE_ATTEMPTS", "RETRY_BACKOFF", "DEFAULT_LANGUAGE", "LANGUAGE_NAMES", "DATABASE_URL",
	"TELEGRAM_BOT_TOKEN", "WEBHOOK_URL", "LOG_LEVEL", "LOG_FORMAT", "MAX_UPLOAD_BYTES",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)
	c := FromEnv()

	assert.Equal(t, "8000", c.Port)
	assert.Equal(t, "gemini", c.LLMProvider)
	assert.Equal(t, "gemini-2.0-flash", c.GeminiModel)
	assert.Equal(t, "gpt-4o-mini", c.OpenAIModel)
	assert.Equal(t, 60*time.Second, c.ModelTimeout)
	assert.InDelta(t, 0.4, c.ModelTemperature, 1e-6)
	assert.Equal(t, 1, c.RetryMaxAttempts)
	assert.Equal(t, 0, c.RetryParseAttempts)
	assert.Equal(t, 500*time.Millisecond, c.RetryBackoff)
	assert.Equal(t, "en", c.DefaultLanguage)
	assert.Equal(t, int64(10<<20), c.MaxUploadBytes)

	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_PROVIDER", "GPT")
	t.Setenv("OPENAI_API_KEY", "sk-1")
	t.Setenv("OPENAI_BASE_URL", "http://localhost:11434/v1")
	t.Setenv("MODEL_TIMEOUT", "15")
	t.Setenv("RETRY_MAX_ATTEMPTS", "3")
	t.Setenv("RETRY_PARSE_ATTEMPTS", "2")
	t.Setenv("LANGUAGE_NAMES", "sw=Kiswahili, as=অসমীয়া")

	c := FromEnv()
	require.NoError(t, c.Validate())

	mc := c.ModelClientConfig("openai")
	assert.Equal(t, "gpt", mc.Provider)
	assert.Equal(t, "sk-1", mc.APIKey)
	assert.Equal(t, "http://localhost:11434/v1", mc.BaseURL)
	assert.Equal(t, 15*time.Second, mc.Timeout)

	p := c.RetryPolicy()
	assert.Equal(t, 3, p.MaxAttempts)
	assert.Equal(t, 2, p.ParseAttempts)

	langs := c.Languages()
	assert.Equal(t, "Kiswahili", langs.Resolve("sw"))
	assert.Equal(t, "অসমীয়া", langs.Resolve("as"))
	assert.Equal(t, "हिंदी", langs.Resolve("hi"))

	assert.Equal(t, []string{"sk-1"}, c.Secrets())
}

func TestValidate_BadValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "k")
	t.Setenv("RETRY_MAX_ATTEMPTS", "many")
	t.Setenv("RETRY_BACKOFF", "soon")
	t.Setenv("LLM_PROVIDER", "llama")

	err := FromEnv().Validate()
	require.Error(t, err)
	msg := err.Error()
	for _, want := range []string{"RETRY_MAX_ATTEMPTS", "RETRY_BACKOFF", "llama"} {
		assert.True(t, strings.Contains(msg, want), want)
	}
}
