package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.NotEmpty(t, cfg.DBPath)
	assert.NotEmpty(t, cfg.PhotoPath)
	assert.Equal(t, 100, cfg.ListLimit)
	assert.Equal(t, VisionNone, cfg.VisionBackend)
}

func TestLoadCustomValues(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DB_PATH", "/custom/findit.db")
	t.Setenv("LIST_LIMIT", "25")
	t.Setenv("VISION_BACKEND", "claude")
	t.Setenv("CLAUDE_API_KEY", "sk-test123")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/custom/findit.db", cfg.DBPath)
	assert.Equal(t, 25, cfg.ListLimit)
	assert.Equal(t, "claude", cfg.VisionBackend)
	assert.Equal(t, "sk-test123", cfg.ClaudeAPIKey)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "findit.yaml")
	require.NoError(t, os.WriteFile(path, []byte("photo_path: /srv/photos\nlog_level: debug\n"), 0600))
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/photos", cfg.PhotoPath)
	assert.Equal(t, "warn", cfg.LogLevel, "environment wins over the file")
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("OLLAMA_MODEL=llava\n"), 0600))
	t.Cleanup(func() { _ = os.Unsetenv("OLLAMA_MODEL") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "llava", cfg.OllamaModel)
}

func TestLoadMissingConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "no vision", cfg: Config{VisionBackend: VisionNone, ListLimit: 1}},
		{name: "claude without key", cfg: Config{VisionBackend: VisionClaude, ListLimit: 1}, wantErr: true},
		{name: "claude with key", cfg: Config{VisionBackend: VisionClaude, ClaudeAPIKey: "k", ListLimit: 1}},
		{name: "ollama", cfg: Config{VisionBackend: VisionOllama, OllamaHost: "http://h", ListLimit: 1}},
		{name: "unknown backend", cfg: Config{VisionBackend: "gemini", ListLimit: 1}, wantErr: true},
		{name: "zero limit", cfg: Config{ListLimit: 0}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
