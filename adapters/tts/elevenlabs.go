package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/lingua/domain/repositories"
)

const (
	defaultAPIBaseURL   = "https://api.elevenlabs.io/v1"
	defaultVoiceID      = "21m00Tcm4TlvDq8ikWAM" // Rachel
	defaultChunkSize    = 1024
	defaultOutputFormat = "mp3_44100_128"
	defaultModelID      = "eleven_multilingual_v2"
	defaultStability    = 0.5
	defaultClarity      = 0.5
	requestTimeout      = 60 * time.Second
)

// ElevenLabsConfig holds configuration for the ElevenLabs adapter. Only
// APIKey is required.
type ElevenLabsConfig struct {
	APIKey       string  `mapstructure:"api_key"`
	APIBaseURL   string  `mapstructure:"api_base_url"`
	VoiceID      string  `mapstructure:"voice_id"`
	ModelID      string  `mapstructure:"model_id"`
	OutputFormat string  `mapstructure:"output_format"`
	ChunkSize    int     `mapstructure:"chunk_size"`
	Stability    float64 `mapstructure:"stability"`
	Clarity      float64 `mapstructure:"clarity"`
}

// ElevenLabsTTS implements TextToSpeech using the ElevenLabs streaming API
type ElevenLabsTTS struct {
	config ElevenLabsConfig
	client *http.Client
	logger *zap.Logger
}

var _ repositories.TextToSpeech = (*ElevenLabsTTS)(nil)

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type synthesisRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	LanguageCode  string        `json:"language_code,omitempty"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

// ValidateElevenLabsConfig validates the ElevenLabsConfig
func ValidateElevenLabsConfig(config ElevenLabsConfig) error {
	if config.APIKey == "" {
		return errors.New("eleven labs API key is required")
	}
	if config.Stability < 0 || config.Stability > 1 {
		return fmt.Errorf("stability must be between 0 and 1, got %f", config.Stability)
	}
	if config.Clarity < 0 || config.Clarity > 1 {
		return fmt.Errorf("clarity must be between 0 and 1, got %f", config.Clarity)
	}
	if config.ChunkSize < 0 {
		return fmt.Errorf("chunk size must be positive, got %d", config.ChunkSize)
	}
	return nil
}

// NewElevenLabsTTS creates a new ElevenLabs TTS instance
func NewElevenLabsTTS(config ElevenLabsConfig, logger *zap.Logger) (*ElevenLabsTTS, error) {
	if err := ValidateElevenLabsConfig(config); err != nil {
		return nil, err
	}

	if config.APIBaseURL == "" {
		config.APIBaseURL = defaultAPIBaseURL
		logger.Info("Using default API base URL", zap.String("apiBaseURL", config.APIBaseURL))
	}
	if config.VoiceID == "" {
		config.VoiceID = defaultVoiceID
		logger.Info("Using default voice ID", zap.String("voiceID", config.VoiceID))
	}
	if config.ModelID == "" {
		config.ModelID = defaultModelID
		logger.Info("Using default model ID", zap.String("modelID", config.ModelID))
	}
	if config.OutputFormat == "" {
		config.OutputFormat = defaultOutputFormat
		logger.Info("Using default output format", zap.String("outputFormat", config.OutputFormat))
	}
	if config.ChunkSize == 0 {
		config.ChunkSize = defaultChunkSize
	}
	if config.Stability == 0 {
		config.Stability = defaultStability
	}
	if config.Clarity == 0 {
		config.Clarity = defaultClarity
	}

	return &ElevenLabsTTS{
		config: config,
		client: &http.Client{Timeout: requestTimeout},
		logger: logger,
	}, nil
}

// ContentType is the MIME type of the audio produced
func (e *ElevenLabsTTS) ContentType() string {
	if strings.HasPrefix(e.config.OutputFormat, "pcm") {
		return "audio/pcm"
	}
	return "audio/mpeg"
}

// ConvertTextToSpeech streams synthesized audio for text. Non-English
// language codes are passed through so the multilingual model picks the
// right pronunciation.
func (e *ElevenLabsTTS) ConvertTextToSpeech(ctx context.Context, text, language string) (<-chan []byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("text cannot be empty")
	}

	payload := synthesisRequest{
		Text:    text,
		ModelID: e.config.ModelID,
		VoiceSettings: voiceSettings{
			Stability:       e.config.Stability,
			SimilarityBoost: e.config.Clarity,
		},
	}
	if language != "" && language != "en" {
		payload.LanguageCode = language
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/text-to-speech/%s/stream?output_format=%s",
		e.config.APIBaseURL, e.config.VoiceID, e.config.OutputFormat)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Accept", e.ContentType())
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", e.config.APIKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute HTTP request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("eleven labs API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(errorBody)))
	}

	audioChan := make(chan []byte, 10)
	go e.stream(ctx, resp.Body, audioChan)
	return audioChan, nil
}

func (e *ElevenLabsTTS) stream(ctx context.Context, body io.ReadCloser, out chan<- []byte) {
	defer close(out)
	defer body.Close()

	buffer := make([]byte, e.config.ChunkSize)
	totalBytes := 0
	for {
		n, err := body.Read(buffer)
		if n > 0 {
			totalBytes += n
			chunk := make([]byte, n)
			copy(chunk, buffer[:n])
			select {
			case out <- chunk:
			case <-ctx.Done():
				e.logger.Warn("Context cancelled while streaming audio", zap.Int("totalBytes", totalBytes))
				return
			}
		}
		if err == io.EOF {
			e.logger.Debug("Finished streaming audio", zap.Int("totalBytes", totalBytes))
			return
		}
		if err != nil {
			e.logger.Error("Error reading audio stream", zap.Error(err))
			return
		}
	}
}
