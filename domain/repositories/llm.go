package repositories

import "context"

// LargeLanguageModel abstracts any multimodal chat/LLM provider
type LargeLanguageModel interface {
	// Generate returns the model's reply to a prompt
	Generate(ctx context.Context, prompt Prompt) (string, error)
}

// Prompt is a single generation request. Images are attached after the text.
type Prompt struct {
	Text    string        `json:"text"`
	Images  []Image       `json:"-"`
	History []ChatMessage `json:"history,omitempty"`
	// MaxTokens overrides the provider default when positive.
	MaxTokens int `json:"max_tokens,omitempty"`
}

// Image is raw image input supplied to a model
type Image struct {
	Data     []byte
	MIMEType string
	// SourceURL is where the image came from, if it was fetched.
	SourceURL string
}

// ChatMessage represents a single message in a conversation
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Role defines the type of message sender
type Role string

const (
	UserRole  Role = "user"
	ModelRole Role = "model"
)
