package stt

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/satriahrh/lingua/domain/repositories"
)

// MockSpeechToText is an offline recognizer for local development
type MockSpeechToText struct {
	logger *zap.Logger
}

var _ repositories.SpeechToText = (*MockSpeechToText)(nil)

// NewMockSpeechToText creates a new mock speech-to-text service
func NewMockSpeechToText(logger *zap.Logger) *MockSpeechToText {
	return &MockSpeechToText{logger: logger}
}

// TranscribeAudio returns a canned transcript chosen by clip size
func (s *MockSpeechToText) TranscribeAudio(ctx context.Context, audioData []byte, config repositories.AudioConfig) (string, error) {
	if len(audioData) == 0 {
		return "", errors.New("no audio data received")
	}

	s.logger.Info("Processing speech-to-text",
		zap.Int("audioSize", len(audioData)),
		zap.Int("sampleRate", config.SampleRate),
		zap.String("language", config.Language))

	switch {
	case len(audioData) > 10000:
		return "Hello, how are you? I want to tell you about my day.", nil
	case len(audioData) > 5000:
		return "Thank you for listening.", nil
	case len(audioData) > 1000:
		return "Hello there!", nil
	default:
		return "Hi", nil
	}
}
