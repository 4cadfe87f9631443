package repositories

import "context"

// TextToSpeech streams synthesized speech in chunks. The channel is closed
// when synthesis ends or fails.
type TextToSpeech interface {
	ConvertTextToSpeech(ctx context.Context, text, language string) (<-chan []byte, error)
}
