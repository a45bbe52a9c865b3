package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"SOAPFLOW_PROVIDER", "SOAPFLOW_MODEL", "SOAPFLOW_BASE_URL", "SOAPFLOW_API_KEY", "SOAPFLOW_LOG_LEVEL",
		"GEMINI_API_KEY", "API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GROQ_API_KEY", "OPENROUTER_API_KEY",
	} {
		t.Setenv(name, "")
	}
}

func TestLoadMissingReturnsNil(t *testing.T) {
	t.Setenv("SOAPFLOW_CONFIG_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Nil(t, cfg)
	assert.False(t, Exists())
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SOAPFLOW_CONFIG_DIR", dir)

	cfg := DefaultConfig()
	cfg.APIKey = "secret"
	cfg.History.Persist = true
	cfg.RequestTimeout = 30 * time.Second
	require.NoError(t, cfg.Save())

	info, err := os.Stat(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "gemini", loaded.Provider)
	assert.Equal(t, "secret", loaded.APIKey)
	assert.True(t, loaded.History.Persist)
	assert.Equal(t, 30*time.Second, loaded.Timeout())
}

func TestLoadKeepsDefaultsForOmittedFields(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SOAPFLOW_CONFIG_DIR", dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("provider: openai\nmodel: gpt-4o\n"), 0600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, DefaultRequestTimeout, cfg.Timeout())
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestApplyEnv(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		env      map[string]string
		wantKey  string
	}{
		{
			name:     "gemini key",
			provider: "gemini",
			env:      map[string]string{"GEMINI_API_KEY": "g"},
			wantKey:  "g",
		},
		{
			name:     "generic API_KEY for gemini",
			provider: "gemini",
			env:      map[string]string{"API_KEY": "k"},
			wantKey:  "k",
		},
		{
			name:     "explicit key wins",
			provider: "openai",
			env:      map[string]string{"SOAPFLOW_API_KEY": "s", "OPENAI_API_KEY": "o"},
			wantKey:  "s",
		},
		{
			name:     "other vendor key ignored",
			provider: "anthropic",
			env:      map[string]string{"OPENAI_API_KEY": "o"},
			wantKey:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg := &Config{Provider: tt.provider}
			cfg.ApplyEnv()
			assert.Equal(t, tt.wantKey, cfg.APIKey)
		})
	}
}

func TestApplyEnvOverridesProvider(t *testing.T) {
	clearEnv(t)
	t.Setenv("SOAPFLOW_PROVIDER", "groq")
	t.Setenv("SOAPFLOW_MODEL", "m")
	t.Setenv("GROQ_API_KEY", "q")

	cfg := DefaultConfig()
	cfg.ApplyEnv()
	assert.Equal(t, "groq", cfg.Provider)
	assert.Equal(t, "m", cfg.Model)
	assert.Equal(t, "q", cfg.APIKey)
}

func TestFromEnv(t *testing.T) {
	clearEnv(t)
	assert.Nil(t, FromEnv())

	t.Setenv("GEMINI_API_KEY", "g")
	cfg := FromEnv()
	require.NotNil(t, cfg)
	assert.Equal(t, "g", cfg.APIKey)
}

func TestPaths(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SOAPFLOW_CONFIG_DIR", dir)

	cfg := DefaultConfig()
	db, err := cfg.DataPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "soapflow.db"), db)

	cfg.DataDir = "/data"
	db, err = cfg.DataPath()
	require.NoError(t, err)
	assert.Equal(t, "/data/soapflow.db", db)

	logPath, err := cfg.LogPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "soapflow.log"), logPath)
}

func TestGetProvider(t *testing.T) {
	p := GetProvider("gemini")
	require.NotNil(t, p)
	assert.Equal(t, "gemini-2.5-flash", p.DefaultModel)
	assert.Nil(t, GetProvider("nope"))
}

func TestProviderSwitchUsesProviderDefaultModel(t *testing.T) {
	tests := []struct {
		name         string
		file         string
		env          map[string]string
		wantProvider string
		wantModel    string
		wantKey      string
	}{
		{
			name:         "env only",
			env:          map[string]string{"SOAPFLOW_PROVIDER": "openai", "OPENAI_API_KEY": "o"},
			wantProvider: "openai",
			wantModel:    "gpt-4o-mini",
			wantKey:      "o",
		},
		{
			name:         "file only",
			file:         "provider: anthropic\napi_key: k\n",
			wantProvider: "anthropic",
			wantModel:    "claude-sonnet-4-5",
			wantKey:      "k",
		},
		{
			name:         "env overrides file provider",
			file:         "provider: anthropic\napi_key: k\n",
			env:          map[string]string{"SOAPFLOW_PROVIDER": "groq", "GROQ_API_KEY": "q"},
			wantProvider: "groq",
			wantModel:    "meta-llama/llama-4-scout-17b-16e-instruct",
			wantKey:      "q",
		},
		{
			name:         "explicit model kept",
			file:         "provider: openai\nmodel: gpt-4o\napi_key: k\n",
			wantProvider: "openai",
			wantModel:    "gpt-4o",
			wantKey:      "k",
		},
		{
			name:         "default provider",
			env:          map[string]string{"GEMINI_API_KEY": "g"},
			wantProvider: "gemini",
			wantModel:    "gemini-2.5-flash",
			wantKey:      "g",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			dir := t.TempDir()
			t.Setenv("SOAPFLOW_CONFIG_DIR", dir)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			var cfg *Config
			if tt.file != "" {
				require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(tt.file), 0600))
				loaded, err := Load()
				require.NoError(t, err)
				require.NotNil(t, loaded)
				loaded.ApplyEnv()
				cfg = loaded
			} else {
				cfg = FromEnv()
				require.NotNil(t, cfg)
			}

			assert.Equal(t, tt.wantProvider, cfg.Provider)
			assert.Equal(t, tt.wantModel, cfg.Model)
			assert.Equal(t, tt.wantKey, cfg.APIKey)
		})
	}
}
