package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/satriahrh/lingua/domain/repositories"
)

// MockLLM is an offline LargeLanguageModel for local development
type MockLLM struct{}

var _ repositories.LargeLanguageModel = MockLLM{}

// NewMockLLM creates a new mock model
func NewMockLLM() MockLLM {
	return MockLLM{}
}

// Generate implements repositories.LargeLanguageModel. Short-budget prompts
// are classification questions and always get "no".
func (MockLLM) Generate(ctx context.Context, prompt repositories.Prompt) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if prompt.MaxTokens > 0 && prompt.MaxTokens <= 10 {
		return "no", nil
	}

	text := strings.TrimSpace(prompt.Text)
	switch {
	case len(prompt.Images) > 0:
		return fmt.Sprintf("Thanks for the picture! You said: %q. Tell me more about it.", text), nil
	case text == "":
		return "I'm listening. What would you like to talk about?", nil
	default:
		return fmt.Sprintf("Thanks for sharing! You said: %q. What else would you like to talk about?", text), nil
	}
}
