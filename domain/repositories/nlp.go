package repositories

import "context"

// Embedder turns text into dense vectors
type Embedder interface {
	// Embed returns one vector per input text, in order
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// SentimentScorer rates the polarity of a text in roughly [-1, 1]
type SentimentScorer interface {
	Polarity(ctx context.Context, text string) (float64, error)
}

// Translator translates text between ISO 639 language codes
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}
