package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("file values override defaults", func(t *testing.T) {
		path := writeConfig(t, `
[detection]
threshold = 0.7
abusive_label = "abuse"

[refinement]
rate_limit_backoff = "5s"
concurrency = 2

[refinement.prompts]
system_prompt = "Rewrite politely."
`)
		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, 0.7, cfg.Detection.Threshold)
		assert.Equal(t, "abuse", cfg.Detection.AbusiveLabel)
		assert.Equal(t, "clean", cfg.Detection.CleanLabel)
		assert.Equal(t, 5*time.Second, cfg.Refinement.RateLimitBackoff.Duration)
		assert.Equal(t, 30*time.Second, cfg.Refinement.CallTimeout.Duration)
		assert.Equal(t, 2, cfg.Refinement.Concurrency)
		assert.Equal(t, "Rewrite politely.", cfg.Refinement.Prompts.System)
		assert.Contains(t, cfg.Refinement.Prompts.User, "%s")
	})

	t.Run("invalid duration is rejected", func(t *testing.T) {
		path := writeConfig(t, `
[refinement]
call_timeout = "soon"
`)
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 0.5, cfg.Detection.Threshold)
	assert.Equal(t, 20*time.Second, cfg.Refinement.RateLimitBackoff.Duration)
	assert.False(t, cfg.Refinement.RetryAfterBackoff)
	assert.NoError(t, cfg.Validate())
}

func TestResolve(t *testing.T) {
	t.Run("explicit missing path is an error", func(t *testing.T) {
		_, err := Resolve(filepath.Join(t.TempDir(), "missing.toml"))
		assert.Error(t, err)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		path := writeConfig(t, `
[llm]
provider = "claude"
model = "claude-3-5-haiku-latest"
`)
		t.Setenv("PORT", "9090")
		t.Setenv("DETECTION_THRESHOLD", "0.65")
		t.Setenv("LLM_MODEL", "gpt-4o")
		t.Setenv("LLM_API_KEY", "")
		t.Setenv("OPENAI_API_KEY", "sk-test")

		cfg, err := Resolve(path)
		require.NoError(t, err)

		assert.Equal(t, 9090, cfg.Server.Port)
		assert.Equal(t, 0.65, cfg.Detection.Threshold)
		assert.Equal(t, "claude", cfg.LLM.Provider)
		assert.Equal(t, "gpt-4o", cfg.LLM.Model)
		assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	})

	t.Run("invalid env value", func(t *testing.T) {
		path := writeConfig(t, "")
		t.Setenv("PORT", "eighty")

		_, err := Resolve(path)
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Detection.Threshold = 1.5
	cfg.Detection.CleanLabel = ""
	cfg.Refinement.Concurrency = 0
	cfg.LLM.Provider = "bard"
	cfg.Refinement.Prompts.User = "no verbs"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "threshold")
	assert.Contains(t, err.Error(), "clean_label")
	assert.Contains(t, err.Error(), "concurrency")
	assert.Contains(t, err.Error(), "unsupported llm provider")
	assert.Contains(t, err.Error(), "user_prompt")
}
