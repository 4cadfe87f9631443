package llm

import (
	"context"
	"testing"

	"github.com/satriahrh/lingua/domain/repositories"
)

func TestValidateGeminiConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  GeminiConfig
		wantErr bool
	}{
		{"valid minimal", GeminiConfig{APIKey: "k"}, false},
		{"missing key", GeminiConfig{}, true},
		{"temperature too high", GeminiConfig{APIKey: "k", Temperature: 3}, true},
		{"negative topP", GeminiConfig{APIKey: "k", TopP: -0.1}, true},
		{"negative topK", GeminiConfig{APIKey: "k", TopK: -1}, true},
		{"negative timeout", GeminiConfig{APIKey: "k", TimeoutSeconds: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateGeminiConfig(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("Expected error=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestUserContent(t *testing.T) {
	content := userContent(repositories.Prompt{
		Text:   "what is in this picture?",
		Images: []repositories.Image{{Data: []byte{0x89, 'P', 'N', 'G'}, MIMEType: "image/png"}},
	})

	if content.Role != "user" {
		t.Errorf("Expected role user, got %s", content.Role)
	}
	if len(content.Parts) != 2 {
		t.Fatalf("Expected 2 parts, got %d", len(content.Parts))
	}
	if content.Parts[0].Text != "what is in this picture?" {
		t.Errorf("Expected text part first, got %q", content.Parts[0].Text)
	}
	if content.Parts[1].InlineData == nil || content.Parts[1].InlineData.MIMEType != "image/png" {
		t.Errorf("Expected inline png part, got %+v", content.Parts[1])
	}
}

func TestToGeminiHistory(t *testing.T) {
	history := toGeminiHistory([]repositories.ChatMessage{
		{Role: repositories.UserRole, Content: "hello"},
		{Role: repositories.ModelRole, Content: "hi there"},
		{Role: repositories.UserRole, Content: ""},
	})

	if len(history) != 2 {
		t.Fatalf("Expected 2 contents, got %d", len(history))
	}
	if history[1].Role != "model" {
		t.Errorf("Expected model role, got %s", history[1].Role)
	}
}

func TestMockLLM(t *testing.T) {
	model := NewMockLLM()
	ctx := context.Background()

	answer, err := model.Generate(ctx, repositories.Prompt{Text: "Is this an image request?", MaxTokens: 10})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if answer != "no" {
		t.Errorf("Expected classification answer no, got %q", answer)
	}

	reply, err := model.Generate(ctx, repositories.Prompt{Text: "I like football"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if reply == "" {
		t.Error("Expected a reply")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := model.Generate(cancelled, repositories.Prompt{Text: "hi"}); err == nil {
		t.Error("Expected error for cancelled context")
	}
}
