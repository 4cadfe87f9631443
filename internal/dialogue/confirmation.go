package dialogue

import (
	"context"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/satriahrh/lingua/domain/repositories"
)

// ConfirmationDetector decides whether a bot response should steer the
// conversation toward closing. The short-response streak is owned by the
// caller and threaded through every call.
type ConfirmationDetector struct {
	index       *phraseIndex
	threshold   float64
	shortLength int
	shortLimit  int
	logger      *zap.Logger
}

// NewConfirmationDetector creates a detector. embedder may be nil, leaving only
// the short-response heuristic.
func NewConfirmationDetector(embedder repositories.Embedder, cfg Config, logger *zap.Logger) *ConfirmationDetector {
	cfg = cfg.withDefaults(logger)
	var index *phraseIndex
	if embedder != nil {
		index = newPhraseIndex(embedder, ConfirmationPhrases)
	}
	return &ConfirmationDetector{
		index:       index,
		threshold:   cfg.ConfirmationThreshold,
		shortLength: cfg.ShortResponseLength,
		shortLimit:  cfg.ShortResponseLimit,
		logger:      logger,
	}
}

// ShouldConfirm returns whether to move to confirming and the updated streak.
// A phrase match returns true and leaves the streak untouched.
func (d *ConfirmationDetector) ShouldConfirm(ctx context.Context, response string, streak int) (bool, int) {
	if streak < 0 {
		streak = 0
	}

	if d.index != nil {
		score, err := d.index.maxSimilarity(ctx, response)
		if err != nil {
			d.logger.Warn("Confirmation similarity check failed", zap.Error(err))
		} else if score >= d.threshold {
			return true, streak
		}
	}

	if utf8.RuneCountInString(response) <= d.shortLength {
		streak++
	} else {
		streak = 0
	}
	return streak >= d.shortLimit, streak
}
