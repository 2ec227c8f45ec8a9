package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/dshills/reviewgen/internal/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the config directory at a temp dir and clears the
// environment variables Load consults.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	for _, k := range []string{
		"OPENAI_API_KEY", "ANTHROPIC_API_KEY",
		"REVIEWGEN_PROVIDER", "REVIEWGEN_MODEL", "REVIEWGEN_THINKING",
		"REVIEWGEN_EXTENDEDCONTEXT", "REVIEWGEN_FORMAT",
		"REVIEWGEN_DEBUG_LOGRAWREPLIES", "REVIEWGEN_DEBUG_LOGCACHEMETRICS",
		"REVIEWGEN_OPENAI_APIKEY", "REVIEWGEN_ANTHROPIC_APIKEY",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	Reset()
	t.Cleanup(Reset)
	return dir
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "json", cfg.Format)
	assert.True(t, cfg.ExtendedContext)
	assert.False(t, cfg.Thinking)
	assert.Equal(t, 3, cfg.Transport.MaxAttempts)
	assert.Equal(t, 120, cfg.Transport.TimeoutSeconds)
	require.NoError(t, cfg.Validate())
}

func TestModelName(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "gpt-4.1", cfg.ModelName())

	cfg.Provider = "claude"
	assert.Equal(t, "claude-sonnet-4-5", cfg.ModelName())

	cfg.Model = "claude-opus-4-1"
	assert.Equal(t, "claude-opus-4-1", cfg.ModelName())
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)
	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileEnvOverridePrecedence(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "reviewgen", "config.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(`{
		"provider": "anthropic",
		"model": "claude-opus-4-1",
		"thinking": true,
		"format": "markdown",
		"debug": {"logRawReplies": true}
	}`), 0o644))

	t.Setenv("REVIEWGEN_MODEL", "claude-sonnet-4-5")
	t.Setenv("REVIEWGEN_EXTENDEDCONTEXT", "false")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")

	cfg, err := Load(map[string]string{"format": "text", "thinking": ""})
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.Provider)
	assert.Equal(t, "claude-sonnet-4-5", cfg.Model)
	assert.True(t, cfg.Thinking)
	assert.False(t, cfg.ExtendedContext)
	assert.Equal(t, "text", cfg.Format)
	assert.True(t, cfg.Debug.LogRawReplies)
	assert.False(t, cfg.Debug.LogCacheMetrics)
	assert.Equal(t, "sk-ant-test", cfg.Anthropic.APIKey)
	assert.Equal(t, "sk-ant-test", cfg.ProviderSettings(backend.ProviderAnthropic).APIKey)
}

func TestLoad_PrefixedKeyWins(t *testing.T) {
	isolate(t)
	t.Setenv("REVIEWGEN_OPENAI_APIKEY", "prefixed")
	t.Setenv("OPENAI_API_KEY", "plain")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "prefixed", cfg.OpenAI.APIKey)
}

func TestLoad_UnknownOverride(t *testing.T) {
	isolate(t)
	_, err := Load(map[string]string{"failOn": "high"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown config key")
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "reviewgen", "config.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o644))

	_, err := Load(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config file")
}

func TestSave_OmitsCredentials(t *testing.T) {
	isolate(t)
	cfg := Default()
	cfg.OpenAI.APIKey = "sk-secret"
	cfg.OpenAI.BaseURL = "http://localhost:8080"
	require.NoError(t, Save(cfg))

	path, err := ConfigPath()
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "sk-secret")

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "http://localhost:8080", doc["openai"].(map[string]any)["baseURL"])

	loaded, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", loaded.OpenAI.BaseURL)
	assert.Empty(t, loaded.OpenAI.APIKey)
}

func TestGetMemoizesUntilReset(t *testing.T) {
	isolate(t)
	t.Setenv("REVIEWGEN_MODEL", "first")
	cfg, err := Get()
	require.NoError(t, err)
	assert.Equal(t, "first", cfg.Model)

	t.Setenv("REVIEWGEN_MODEL", "second")
	cfg, err = Get()
	require.NoError(t, err)
	assert.Equal(t, "first", cfg.Model)

	Reset()
	cfg, err = Get()
	require.NoError(t, err)
	assert.Equal(t, "second", cfg.Model)
}

func TestSetField(t *testing.T) {
	tests := []struct {
		key, value string
		check      func(t *testing.T, cfg Config)
	}{
		{"provider", "b", func(t *testing.T, cfg Config) { assert.Equal(t, "anthropic", cfg.Provider) }},
		{"model", "o3-mini", func(t *testing.T, cfg Config) { assert.Equal(t, "o3-mini", cfg.Model) }},
		{"thinking", "true", func(t *testing.T, cfg Config) { assert.True(t, cfg.Thinking) }},
		{"extendedContext", "false", func(t *testing.T, cfg Config) { assert.False(t, cfg.ExtendedContext) }},
		{"debug.logCacheMetrics", "1", func(t *testing.T, cfg Config) { assert.True(t, cfg.Debug.LogCacheMetrics) }},
		{"transport.maxAttempts", "5", func(t *testing.T, cfg Config) { assert.Equal(t, 5, cfg.Transport.MaxAttempts) }},
		{"anthropic.baseURL", "http://proxy", func(t *testing.T, cfg Config) { assert.Equal(t, "http://proxy", cfg.Anthropic.BaseURL) }},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			cfg := Default()
			require.NoError(t, SetField(&cfg, tt.key, tt.value))
			tt.check(t, cfg)
		})
	}
}

func TestSetField_Errors(t *testing.T) {
	cfg := Default()
	assert.Error(t, SetField(&cfg, "unknown", "x"))
	assert.Error(t, SetField(&cfg, "provider", "gemini"))
	assert.Error(t, SetField(&cfg, "thinking", "maybe"))
	assert.Error(t, SetField(&cfg, "transport.maxAttempts", "three"))
	assert.Error(t, SetField(&cfg, "transport.maxAttempts", "0"))
	assert.Error(t, SetField(&cfg, "format", "sarif"))
}

func TestKeysSorted(t *testing.T) {
	keys := Keys()
	assert.Len(t, keys, len(fieldKinds))
	assert.IsIncreasing(t, keys)
}

func TestLoadFile_IgnoresEnvironment(t *testing.T) {
	isolate(t)
	cfg := Default()
	cfg.Model = "from-file"
	require.NoError(t, Save(cfg))

	t.Setenv("REVIEWGEN_MODEL", "from-env")
	t.Setenv("OPENAI_API_KEY", "sk-env")

	fileCfg, err := LoadFile()
	require.NoError(t, err)
	assert.Equal(t, "from-file", fileCfg.Model)
	assert.Empty(t, fileCfg.OpenAI.APIKey)

	effective, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "from-env", effective.Model)
}
