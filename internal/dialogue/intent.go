package dialogue

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/satriahrh/lingua/domain/repositories"
)

// intentMaxTokens bounds the yes/no model reply.
const intentMaxTokens = 10

// IntentClassifier decides whether an utterance asks for an image.
// It tries embedding similarity first and asks the model only when that is inconclusive.
type IntentClassifier struct {
	index     *phraseIndex
	model     repositories.LargeLanguageModel
	threshold float64
	logger    *zap.Logger
}

// NewIntentClassifier creates an intent classifier. embedder may be nil, in which
// case every utterance goes to the model.
func NewIntentClassifier(embedder repositories.Embedder, model repositories.LargeLanguageModel, cfg Config, logger *zap.Logger) *IntentClassifier {
	cfg = cfg.withDefaults(logger)
	var index *phraseIndex
	if embedder != nil {
		index = newPhraseIndex(embedder, ImageRequestPhrases)
	}
	return &IntentClassifier{
		index:     index,
		model:     model,
		threshold: cfg.IntentThreshold,
		logger:    logger,
	}
}

// WantsImage reports whether text expresses a wish to have an image generated
func (c *IntentClassifier) WantsImage(ctx context.Context, text string) (bool, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return false, nil
	}

	if c.index != nil {
		score, err := c.index.maxSimilarity(ctx, text)
		if err != nil {
			c.logger.Warn("Embedding check failed, asking the model", zap.Error(err))
		} else if score >= c.threshold {
			c.logger.Debug("Image intent matched canonical phrase", zap.Float64("similarity", score))
			return true, nil
		}
	}

	reply, err := c.model.Generate(ctx, repositories.Prompt{
		Text:      fmt.Sprintf(intentPromptTemplate, text),
		MaxTokens: intentMaxTokens,
	})
	if err != nil {
		return false, fmt.Errorf("failed to query image intent: %w", err)
	}
	return strings.Contains(strings.ToLower(reply), "yes"), nil
}
