package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/satriahrh/lingua/domain/entities"
	"github.com/satriahrh/lingua/internal/config"
	"github.com/satriahrh/lingua/usecase"
)

func memoryConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Storage.Driver = config.StorageMemory
	cfg.LLM.Provider = config.ProviderMock
	cfg.Embedding.Provider = config.ProviderLocal
	cfg.ImageGen.Provider = config.ProviderMock
	cfg.Speech.Provider = config.ProviderMock
	cfg.TTS.Provider = config.ProviderMock
	cfg.Images.BaseURL = "mem://localhost/images"
	return cfg
}

func TestNewAppRunsTurn(t *testing.T) {
	a, err := newApp(context.Background(), memoryConfig(t), zaptest.NewLogger(t))
	require.NoError(t, err)
	defer a.Close(context.Background())

	assert.Nil(t, a.health)
	assert.NotNil(t, a.tts)

	var out bytes.Buffer
	resp, err := runChatTurn(context.Background(), a.chat, usecase.TurnRequest{
		UserID: "cli",
		Text:   "hello there",
	}, &out)
	require.NoError(t, err)

	assert.Equal(t, entities.StateConversing, resp.State)
	assert.NotEmpty(t, resp.Response)
	assert.Contains(t, out.String(), "[conversing")
	assert.Contains(t, out.String(), "conversation="+resp.ConversationID)

	page, err := a.conversation.List(context.Background(), usecase.ListRequest{UserID: "cli"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
}

func TestNewAppRejectsUnknownProvider(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.TTS.Provider = "speakers"

	_, err := newApp(context.Background(), cfg, zaptest.NewLogger(t))
	assert.ErrorContains(t, err, "unknown tts provider")
}

func TestNewAppWithSQLite(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.Storage.Driver = config.StorageSQLite
	cfg.Storage.SQLite.Path = t.TempDir() + "/lingua.db"

	a, err := newApp(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer a.Close(context.Background())

	require.NotNil(t, a.health)
	assert.NoError(t, a.health(context.Background()))
}
