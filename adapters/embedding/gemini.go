package embedding

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/satriahrh/lingua/domain/repositories"
)

const (
	defaultModel   = "text-embedding-004"
	similarityTask = "SEMANTIC_SIMILARITY"
)

// GeminiEmbedder implements repositories.Embedder with the Gemini embeddings API
type GeminiEmbedder struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

var _ repositories.Embedder = (*GeminiEmbedder)(nil)

// NewGeminiEmbedder creates an embedder. An empty model uses text-embedding-004.
func NewGeminiEmbedder(client *genai.Client, model string, logger *zap.Logger) *GeminiEmbedder {
	if model == "" {
		model = defaultModel
		logger.Info("Using default embedding model", zap.String("model", model))
	}
	return &GeminiEmbedder{client: client, model: model, logger: logger}
}

// Embed implements repositories.Embedder
func (e *GeminiEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	resp, err := e.client.Models.EmbedContent(ctx, e.model, contents, &genai.EmbedContentConfig{
		TaskType: similarityTask,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to embed texts: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Embeddings))
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		vectors[i] = emb.Values
	}
	return vectors, nil
}
