package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/satriahrh/lingua/domain/repositories"
)

// DefaultDimensions is the vector size of the hashing embedder
const DefaultDimensions = 256

// HashingEmbedder is an offline bag-of-words embedder. Each lowercased token
// is hashed into a fixed bucket and the resulting vector is L2 normalized, so
// texts sharing words get a positive cosine similarity.
type HashingEmbedder struct {
	dims int
}

var _ repositories.Embedder = (*HashingEmbedder)(nil)

// NewHashingEmbedder creates a hashing embedder with the given dimensions
func NewHashingEmbedder(dims int) *HashingEmbedder {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &HashingEmbedder{dims: dims}
}

// Embed implements repositories.Embedder
func (h *HashingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = h.vector(text)
	}
	return vectors, nil
}

func (h *HashingEmbedder) vector(text string) []float32 {
	vec := make([]float32, h.dims)
	for _, token := range tokenize(text) {
		hasher := fnv.New32a()
		hasher.Write([]byte(token))
		vec[hasher.Sum32()%uint32(h.dims)]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '\''
	})
}
