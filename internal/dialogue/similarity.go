package dialogue

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/satriahrh/lingua/domain/repositories"
)

// cosine returns the cosine similarity of a and b, or 0 when either is empty
// or their dimensions differ.
func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// phraseIndex caches the embeddings of a fixed phrase list. A failed
// embedding call is not cached so the next turn retries it.
type phraseIndex struct {
	embedder repositories.Embedder
	phrases  []string

	mu      sync.Mutex
	vectors [][]float32
}

func newPhraseIndex(embedder repositories.Embedder, phrases []string) *phraseIndex {
	return &phraseIndex{embedder: embedder, phrases: phrases}
}

func (p *phraseIndex) load(ctx context.Context) ([][]float32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.vectors != nil {
		return p.vectors, nil
	}
	vectors, err := p.embedder.Embed(ctx, p.phrases)
	if err != nil {
		return nil, fmt.Errorf("failed to embed phrases: %w", err)
	}
	if len(vectors) != len(p.phrases) {
		return nil, fmt.Errorf("expected %d phrase embeddings, got %d", len(p.phrases), len(vectors))
	}
	p.vectors = vectors
	return vectors, nil
}

// maxSimilarity embeds text and returns its best cosine score against the phrases.
func (p *phraseIndex) maxSimilarity(ctx context.Context, text string) (float64, error) {
	if p == nil || p.embedder == nil {
		return 0, fmt.Errorf("no embedder configured")
	}
	phraseVectors, err := p.load(ctx)
	if err != nil {
		return 0, err
	}
	out, err := p.embedder.Embed(ctx, []string{text})
	if err != nil {
		return 0, fmt.Errorf("failed to embed text: %w", err)
	}
	if len(out) != 1 {
		return 0, fmt.Errorf("expected 1 embedding, got %d", len(out))
	}
	best := math.Inf(-1)
	for _, v := range phraseVectors {
		if s := cosine(out[0], v); s > best {
			best = s
		}
	}
	return best, nil
}

// containsAny reports whether text contains any keyword, ignoring case.
func containsAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}
