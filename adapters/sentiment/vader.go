package sentiment

import (
	"context"
	"strings"

	"github.com/jonreiter/govader"

	"github.com/satriahrh/lingua/domain/repositories"
)

// VaderScorer rates English text with VADER. Polarity is the compound
// score, already normalised to [-1, 1].
type VaderScorer struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

var _ repositories.SentimentScorer = (*VaderScorer)(nil)

// NewVaderScorer loads the VADER lexicon. Build one and share it.
func NewVaderScorer() *VaderScorer {
	return &VaderScorer{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// Polarity implements repositories.SentimentScorer
func (v *VaderScorer) Polarity(ctx context.Context, text string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if strings.TrimSpace(text) == "" {
		return 0, nil
	}
	return v.analyzer.PolarityScores(text).Compound, nil
}
