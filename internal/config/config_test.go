package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "dataforge", cfg.Name)
	assert.Equal(t, "claude-sonnet-4-20250514", cfg.LLM.Model)
	assert.Equal(t, ".forge/records.db", cfg.Store.DatabasePath)
}

// clearProviderEnv shields a test from ambient provider keys on the host.
func clearProviderEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("FORGE_PROVIDER", "")
}

func TestLoadParsesYAML(t *testing.T) {
	clearProviderEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "forge.yaml")
	content := `
llm:
  provider: openai
  model: gpt-4o-mini
  timeout: 30s
  max_concurrent: 2
store:
  database_path: /tmp/test.db
watch:
  directory: drop
  debounce: 250ms
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, 2, cfg.LLM.MaxConcurrent)
	assert.Equal(t, "/tmp/test.db", cfg.Store.DatabasePath)
	assert.Equal(t, "drop", cfg.Watch.Directory)
	assert.Equal(t, 30*time.Second, cfg.LLMTimeout())
	assert.Equal(t, 250*time.Millisecond, cfg.WatchDebounce())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("FORGE_PROVIDER", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "sk-test-gemini")
	t.Setenv("FORGE_MODEL", "gemini-2.0-flash")
	t.Setenv("FORGE_DB", "/tmp/forge-env.db")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "sk-test-gemini", cfg.LLM.APIKey)
	assert.Equal(t, "gemini-2.0-flash", cfg.LLM.Model)
	assert.Equal(t, "/tmp/forge-env.db", cfg.Store.DatabasePath)
}

func TestForeignKeyDoesNotFlipConfiguredProvider(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-ambient")

	path := filepath.Join(t.TempDir(), "forge.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  provider: openai\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Empty(t, cfg.LLM.APIKey, "another provider's key must not leak into an explicit provider")
}

func TestOwnKeyFillsConfiguredProvider(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-ambient")
	t.Setenv("OPENAI_API_KEY", "sk-openai-own")

	path := filepath.Join(t.TempDir(), "forge.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  provider: openai\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "sk-openai-own", cfg.LLM.APIKey)
}

func TestKeySelectsProviderWhenUnconfigured(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-openai-only")

	path := filepath.Join(t.TempDir(), "forge.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  database_path: /tmp/x.db\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "sk-openai-only", cfg.LLM.APIKey)
}

func TestBadDurationFallsBack(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.Timeout = "not-a-duration"
	cfg.Watch.Debounce = ""
	assert.Equal(t, 120*time.Second, cfg.LLMTimeout())
	assert.Equal(t, 500*time.Millisecond, cfg.WatchDebounce())
}
