package dialogue

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestConfirmationDetector_PhraseMatch(t *testing.T) {
	d := NewConfirmationDetector(newTestEmbedder(), DefaultConfig(), zap.NewNop())

	confirm, streak := d.ShouldConfirm(context.Background(), "Is there anything else I can help with?", 1)
	assert.True(t, confirm)
	assert.Equal(t, 1, streak, "phrase match leaves the streak untouched")
}

func TestConfirmationDetector_ShortResponseStreak(t *testing.T) {
	d := NewConfirmationDetector(nil, DefaultConfig(), zap.NewNop())
	ctx := context.Background()
	short := "Paris."
	long := strings.Repeat("a", 51)

	confirm, streak := d.ShouldConfirm(ctx, short, 0)
	assert.False(t, confirm)
	assert.Equal(t, 1, streak)

	confirm, streak = d.ShouldConfirm(ctx, short, streak)
	assert.False(t, confirm)
	assert.Equal(t, 2, streak)

	confirm, streak = d.ShouldConfirm(ctx, short, streak)
	assert.True(t, confirm)
	assert.Equal(t, 3, streak)

	confirm, streak = d.ShouldConfirm(ctx, long, streak)
	assert.False(t, confirm)
	assert.Equal(t, 0, streak)
}

func TestConfirmationDetector_LengthBoundary(t *testing.T) {
	d := NewConfirmationDetector(nil, DefaultConfig(), zap.NewNop())

	_, streak := d.ShouldConfirm(context.Background(), strings.Repeat("é", 50), 0)
	assert.Equal(t, 1, streak, "50 characters counts as short regardless of byte length")

	_, streak = d.ShouldConfirm(context.Background(), strings.Repeat("a", 51), 2)
	assert.Equal(t, 0, streak)
}

func TestConfirmationDetector_EmbeddingFailureUsesHeuristic(t *testing.T) {
	d := NewConfirmationDetector(&fakeEmbedder{err: errBoom}, DefaultConfig(), zap.NewNop())

	confirm, streak := d.ShouldConfirm(context.Background(), "ok", 2)
	assert.True(t, confirm)
	assert.Equal(t, 3, streak)
}

func TestConfirmationDetector_NegativeStreakClamped(t *testing.T) {
	d := NewConfirmationDetector(nil, DefaultConfig(), zap.NewNop())

	_, streak := d.ShouldConfirm(context.Background(), "ok", -5)
	assert.Equal(t, 1, streak)
}
