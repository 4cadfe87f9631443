package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/satriahrh/lingua/domain/entities"
	"github.com/satriahrh/lingua/domain/repositories"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "data", "lingua.db"), zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestConversationRepository_RoundTrip(t *testing.T) {
	repo := openTestStore(t).Conversations()
	ctx := context.Background()

	conv := entities.NewConversation("u1", "yo")
	conv.AddMessage(entities.SenderUser, "Bawo ni", "", true)
	conv.AddMessage(entities.SenderBot, "Here's the generated image: file:///tmp/x.png", "file:///tmp/x.png", false)
	require.NoError(t, repo.Create(ctx, conv))

	got, err := repo.GetByID(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "yo", got.InputLanguage)
	assert.Equal(t, entities.StateGreeting, got.DialogueState)
	require.Len(t, got.Messages, 2)
	assert.True(t, got.Messages[0].HasAudio)
	assert.Equal(t, "file:///tmp/x.png", got.Messages[1].ImageURL)
	assert.True(t, conv.CreatedAt.Equal(got.CreatedAt))

	got.DialogueState = entities.StateGeneratingImage
	got.ImageTaskID = "task-1"
	got.ImagePrompt = "a red bicycle"
	require.NoError(t, repo.Update(ctx, got))

	again, err := repo.GetByID(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.StateGeneratingImage, again.DialogueState)
	assert.Equal(t, "task-1", again.ImageTaskID)
	assert.Equal(t, "a red bicycle", again.ImagePrompt)

	require.NoError(t, repo.Delete(ctx, conv.ID))
	_, err = repo.GetByID(ctx, conv.ID)
	assert.ErrorIs(t, err, repositories.ErrConversationNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, conv.ID), repositories.ErrConversationNotFound)
}

func TestConversationRepository_UpdateImageTaskStatus(t *testing.T) {
	repo := openTestStore(t).Conversations()
	ctx := context.Background()

	conv := entities.NewConversation("u1", "en")
	require.NoError(t, repo.Create(ctx, conv))

	started := time.Now().UTC().Add(-time.Second)
	require.NoError(t, repo.UpdateImageTaskStatus(ctx, conv.ID, entities.JobStatusStarted, started))
	done := time.Now().UTC()
	require.NoError(t, repo.UpdateImageTaskStatus(ctx, conv.ID, entities.JobStatusSuccess, done))

	got, err := repo.GetByID(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.JobStatusSuccess, got.ImageTaskStatus)
	require.NotNil(t, got.ImageTaskStartedAt)
	require.NotNil(t, got.ImageTaskCompletedAt)
	assert.True(t, started.Equal(*got.ImageTaskStartedAt))
	assert.True(t, done.Equal(*got.ImageTaskCompletedAt))

	// A regular update does not clobber job progress.
	got.ImageTaskStatus = ""
	got.Title = "Bikes"
	require.NoError(t, repo.Update(ctx, got))
	again, err := repo.GetByID(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.JobStatusSuccess, again.ImageTaskStatus)

	err = repo.UpdateImageTaskStatus(ctx, "missing", entities.JobStatusFailure, done)
	assert.ErrorIs(t, err, repositories.ErrConversationNotFound)
}

func TestConversationRepository_ListAndLatest(t *testing.T) {
	repo := openTestStore(t).Conversations()
	ctx := context.Background()

	none, err := repo.GetLatestByUserID(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, none)

	states := []entities.DialogueState{entities.StateEnd, entities.StateConversing, entities.StateGreeting}
	var ids []string
	for i, state := range states {
		conv := entities.NewConversation("u1", "en")
		conv.DialogueState = state
		conv.UpdatedAt = time.Now().Add(time.Duration(i-3) * time.Minute)
		require.NoError(t, repo.Create(ctx, conv))
		ids = append(ids, conv.ID)
	}
	require.NoError(t, repo.Create(ctx, entities.NewConversation("u2", "en")))

	latest, err := repo.GetLatestByUserID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, ids[2], latest.ID)

	page, total, err := repo.List(ctx, repositories.ConversationFilter{
		UserID: "u1", SortField: repositories.SortByTimestamp, SortDesc: true, Page: 1, PerPage: 2,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, page, 2)
	assert.Equal(t, ids[2], page[0].ID)
	assert.Equal(t, ids[1], page[1].ID)

	page, _, err = repo.List(ctx, repositories.ConversationFilter{
		UserID: "u1", SortField: repositories.SortByTimestamp, SortDesc: true, Page: 2, PerPage: 2,
	})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, ids[0], page[0].ID)

	filtered, total, err := repo.List(ctx, repositories.ConversationFilter{UserID: "u1", State: entities.StateEnd})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, filtered, 1)
	assert.Equal(t, ids[0], filtered[0].ID)

	byState, _, err := repo.List(ctx, repositories.ConversationFilter{UserID: "u1", SortField: repositories.SortByDialogueState})
	require.NoError(t, err)
	require.Len(t, byState, 3)
	assert.Equal(t, entities.StateConversing, byState[0].DialogueState)
	assert.Equal(t, entities.StateGreeting, byState[2].DialogueState)
}

func TestSessionRepository(t *testing.T) {
	store := openTestStore(t)
	repo := store.Sessions()
	ctx := context.Background()

	none, err := repo.GetActiveByUserID(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, none)

	session := entities.NewSession("u1")
	require.NoError(t, repo.Create(ctx, session))
	assert.Error(t, repo.Create(ctx, entities.NewSession("u1")), "second active session")

	active, err := repo.GetActiveByUserID(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, session.ID, active.ID)

	active.SetStreak(2)
	require.NoError(t, repo.Update(ctx, active))
	active, err = repo.GetActiveByUserID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, active.ShortResponseStreak)

	active.ExpiresAt = time.Now().Add(-time.Minute)
	require.NoError(t, repo.Update(ctx, active))
	require.NoError(t, repo.ExpireSessions(ctx))

	gone, err := repo.GetActiveByUserID(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, gone)

	var status string
	require.NoError(t, store.db.QueryRow(`SELECT status FROM sessions WHERE id = ?`, session.ID).Scan(&status))
	assert.Equal(t, string(entities.SessionStatusExpired), status)

	missing := entities.NewSession("u9")
	assert.ErrorIs(t, repo.Update(ctx, missing), repositories.ErrSessionNotFound)
}
