package translation

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/satriahrh/lingua/domain/repositories"
)

const translatePromptTemplate = "Translate the following text from %s to %s. " +
	"Reply with the translation only, without quotes or explanations.\n\n%s"

// LLMTranslator translates by prompting a language model
type LLMTranslator struct {
	model  repositories.LargeLanguageModel
	logger *zap.Logger
}

var _ repositories.Translator = (*LLMTranslator)(nil)

// NewLLMTranslator creates a translator backed by model
func NewLLMTranslator(model repositories.LargeLanguageModel, logger *zap.Logger) *LLMTranslator {
	return &LLMTranslator{model: model, logger: logger}
}

// Translate implements repositories.Translator
func (t *LLMTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	if strings.TrimSpace(text) == "" || source == target {
		return text, nil
	}

	prompt := fmt.Sprintf(translatePromptTemplate, LanguageName(source), LanguageName(target), text)
	translated, err := t.model.Generate(ctx, repositories.Prompt{Text: prompt})
	if err != nil {
		return "", fmt.Errorf("failed to translate from %s to %s: %w", source, target, err)
	}

	translated = strings.TrimSpace(translated)
	if translated == "" {
		return "", fmt.Errorf("empty translation from %s to %s", source, target)
	}
	t.logger.Debug("Translated text",
		zap.String("source", source),
		zap.String("target", target),
		zap.Int("length", len(translated)))
	return translated, nil
}

// Passthrough returns text unchanged. It stands in when no translation
// backend is configured.
type Passthrough struct{}

var _ repositories.Translator = Passthrough{}

// Translate implements repositories.Translator
func (Passthrough) Translate(_ context.Context, text, _, _ string) (string, error) {
	return text, nil
}
