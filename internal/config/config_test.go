package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"GROQ_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY", "MODEL", "PATHTUTOR_DB", "PATHTUTOR_HISTORY_TURNS"} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "pathtutor", cfg.Name)
	assert.Equal(t, "groq", cfg.LLM.Provider)
	assert.Equal(t, "llama-3.3-70b-versatile", cfg.LLM.Model)
	assert.Equal(t, 3, cfg.Tutor.HistoryTurns)
	assert.False(t, cfg.Tutor.IncludeHistoryInClassification)
	assert.False(t, cfg.Tutor.ClearHistoryOnNewQuestion)
	assert.Equal(t, UnknownPolicyNotice, cfg.Tutor.UnknownPolicy)
	assert.False(t, cfg.Logging.Enabled)
	assert.Empty(t, cfg.Metrics.ListenAddr)
}

func TestConfig_SaveLoad(t *testing.T) {
	clearProviderEnv(t)

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.LLM.Provider = "anthropic"
	cfg.LLM.APIKey = "sk-test"
	cfg.LLM.Model = "claude-test"
	cfg.Tutor.HistoryTurns = 5
	cfg.Tutor.UnknownPolicy = UnknownPolicyFail
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", loaded.LLM.Provider)
	assert.Equal(t, "sk-test", loaded.LLM.APIKey)
	assert.Equal(t, "claude-test", loaded.LLM.Model)
	assert.Equal(t, 5, loaded.Tutor.HistoryTurns)
	assert.True(t, loaded.Tutor.FailOnUnknown())
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	clearProviderEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().LLM, cfg.LLM)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	clearProviderEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tutor:\n  include_history_in_classification: true\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Tutor.IncludeHistoryInClassification)
	assert.Equal(t, 3, cfg.Tutor.HistoryTurns)
	assert.Equal(t, "groq", cfg.LLM.Provider)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm: [oops"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestGetLLMTimeout(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 60*time.Second, cfg.GetLLMTimeout())

	cfg.LLM.Timeout = "15s"
	assert.Equal(t, 15*time.Second, cfg.GetLLMTimeout())

	cfg.LLM.Timeout = "soon"
	assert.Equal(t, 60*time.Second, cfg.GetLLMTimeout())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := DefaultConfig()
		cfg.LLM.APIKey = "key"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing key", func(c *Config) { c.LLM.APIKey = "" }, "API key not configured"},
		{"bad provider", func(c *Config) { c.LLM.Provider = "zai" }, "invalid LLM provider"},
		{"no model", func(c *Config) { c.LLM.Model = "" }, "no model configured"},
		{"negative history", func(c *Config) { c.Tutor.HistoryTurns = -1 }, "history_turns"},
		{"bad policy", func(c *Config) { c.Tutor.UnknownPolicy = "panic" }, "unknown_policy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoggingConfig_ToLogging(t *testing.T) {
	lc := LoggingConfig{Enabled: true, Level: "debug", File: "x.log", JSON: true, Categories: map[string]bool{"api": false}}
	out := lc.ToLogging()
	assert.True(t, out.Enabled)
	assert.Equal(t, "debug", out.Level)
	assert.True(t, out.JSONFormat)
	assert.False(t, out.Categories["api"])
}
