package embedding

import (
	"context"
	"math"
	"testing"
)

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func TestHashingEmbedder(t *testing.T) {
	embedder := NewHashingEmbedder(0)
	vectors, err := embedder.Embed(context.Background(), []string{
		"Can you generate an image?",
		"can you GENERATE an image",
		"What is the weather like today",
		"",
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(vectors) != 4 {
		t.Fatalf("Expected 4 vectors, got %d", len(vectors))
	}
	if len(vectors[0]) != DefaultDimensions {
		t.Errorf("Expected %d dimensions, got %d", DefaultDimensions, len(vectors[0]))
	}

	if sim := dot(vectors[0], vectors[1]); math.Abs(sim-1) > 1e-5 {
		t.Errorf("Expected identical token bags to have similarity 1, got %f", sim)
	}
	if sim := dot(vectors[0], vectors[2]); sim >= 0.5 {
		t.Errorf("Expected unrelated texts to be dissimilar, got %f", sim)
	}
	if sim := dot(vectors[3], vectors[3]); sim != 0 {
		t.Errorf("Expected empty text to embed to zero vector, got norm %f", sim)
	}
}

func TestTokenize(t *testing.T) {
	got := tokenize("I'd like a PICTURE, please!")
	want := []string{"i'd", "like", "a", "picture", "please"}
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected token %q at %d, got %q", want[i], i, got[i])
		}
	}
}

func TestHashingEmbedder_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewHashingEmbedder(8).Embed(ctx, []string{"hi"}); err == nil {
		t.Error("Expected error for cancelled context")
	}
}
