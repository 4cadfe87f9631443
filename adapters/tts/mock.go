package tts

import (
	"context"
	"errors"
	"strings"

	"github.com/satriahrh/lingua/domain/repositories"
)

// MockTTS emits silent PCM proportional to the text length
type MockTTS struct {
	ChunkSize int
}

var _ repositories.TextToSpeech = MockTTS{}

// ConvertTextToSpeech implements repositories.TextToSpeech
func (m MockTTS) ConvertTextToSpeech(ctx context.Context, text, _ string) (<-chan []byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("text cannot be empty")
	}
	size := m.ChunkSize
	if size <= 0 {
		size = defaultChunkSize
	}

	// Roughly 60ms of 16kHz mono PCM per character.
	remaining := len(text) * 1920
	out := make(chan []byte, 4)
	go func() {
		defer close(out)
		for remaining > 0 {
			n := min(size, remaining)
			select {
			case out <- make([]byte, n):
			case <-ctx.Done():
				return
			}
			remaining -= n
		}
	}()
	return out, nil
}
