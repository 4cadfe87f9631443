package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, ":8080", cfg.Address())
	assert.Equal(t, StorageSQLite, cfg.Storage.Driver)
	assert.Equal(t, 0.7, cfg.Dialogue.IntentThreshold)
	assert.Equal(t, 0.8, cfg.Dialogue.ConfirmationThreshold)
	assert.Equal(t, 50, cfg.Dialogue.ShortResponseLength)
	assert.Equal(t, 3, cfg.Dialogue.ShortResponseLimit)
	assert.Equal(t, 40, cfg.RateLimit.TurnsPerMinute)
	assert.Equal(t, 100, cfg.RateLimit.CreatesPerMinute)
	assert.Equal(t, 2*time.Minute, cfg.Jobs.Timeout)
	assert.Equal(t, ProviderMock, cfg.LLM.Provider)
	assert.Equal(t, ProviderVader, cfg.Sentiment.Provider)
	assert.Equal(t, "image/png", cfg.ImageGen.Imagen.MIMEType)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	path := filepath.Join(dir, "custom.yaml")
	yaml := []byte(`
server:
  port: 9090
storage:
  driver: memory
dialogue:
  intent_threshold: 0.65
tts:
  provider: elevenlabs
  elevenlabs:
    api_key: file-key
    voice_id: voice-7
`)
	require.NoError(t, os.WriteFile(path, yaml, 0o644))

	t.Setenv("LINGUA_RATE_LIMIT_TURNS_PER_MINUTE", "10")
	t.Setenv("LINGUA_LLM_GEMINI_API_KEY", "env-key")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, 0.65, cfg.Dialogue.IntentThreshold)
	assert.Equal(t, 10, cfg.RateLimit.TurnsPerMinute)
	assert.Equal(t, "env-key", cfg.LLM.Gemini.APIKey)
	assert.Equal(t, "file-key", cfg.TTS.ElevenLabs.APIKey)
	assert.Equal(t, "voice-7", cfg.TTS.ElevenLabs.VoiceID)
}

func TestLoad_LegacyEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("GEMINI_API_KEY", "legacy-key")
	t.Setenv("PORT", "6060")
	t.Setenv("LINGUA_SERVER_PORT", "6161")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "legacy-key", cfg.LLM.Gemini.APIKey)
	assert.Equal(t, 6161, cfg.Server.Port, "prefixed name wins")
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LINGUA_SERVER_PORT=7070\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("LINGUA_SERVER_PORT") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	chdir(t, t.TempDir())
	base, err := Load("")
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown driver", func(c *Config) { c.Storage.Driver = "postgres" }},
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"gemini without key", func(c *Config) { c.LLM.Provider = ProviderGemini }},
		{"gemini embeddings without key", func(c *Config) { c.Embedding.Provider = ProviderGemini }},
		{"elevenlabs without key", func(c *Config) { c.TTS.Provider = ProviderElevenLabs }},
		{"negative rate", func(c *Config) { c.RateLimit.TurnsPerMinute = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := *base
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(LoggingConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	_, err = NewLogger(LoggingConfig{Level: "loud"})
	assert.Error(t, err)
}
