package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func collect(ch <-chan []byte) []byte {
	var buf bytes.Buffer
	for chunk := range ch {
		buf.Write(chunk)
	}
	return buf.Bytes()
}

func TestNewElevenLabsTTS(t *testing.T) {
	logger := zaptest.NewLogger(t)

	if _, err := NewElevenLabsTTS(ElevenLabsConfig{}, logger); err == nil {
		t.Error("Expected error when API key is not set")
	}
	if _, err := NewElevenLabsTTS(ElevenLabsConfig{APIKey: "k", Stability: 2}, logger); err == nil {
		t.Error("Expected error for out of range stability")
	}

	tts, err := NewElevenLabsTTS(ElevenLabsConfig{APIKey: "test-api-key"}, logger)
	if err != nil {
		t.Fatalf("Failed to create ElevenLabsTTS: %v", err)
	}
	if tts.config.VoiceID != defaultVoiceID {
		t.Errorf("Expected default voice ID '%s', got '%s'", defaultVoiceID, tts.config.VoiceID)
	}
	if tts.ContentType() != "audio/mpeg" {
		t.Errorf("Expected audio/mpeg, got %s", tts.ContentType())
	}
}

func TestElevenLabsTTS_ConvertTextToSpeech(t *testing.T) {
	audio := bytes.Repeat([]byte{0x01, 0x02, 0x03}, 1000)
	requests := make(chan synthesisRequest, 2)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("xi-api-key") != "test-api-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Path != "/text-to-speech/voice-1/stream" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var req synthesisRequest
		json.NewDecoder(r.Body).Decode(&req)
		requests <- req
		w.Write(audio)
	}))
	defer server.Close()

	tts, err := NewElevenLabsTTS(ElevenLabsConfig{
		APIKey:     "test-api-key",
		APIBaseURL: server.URL,
		VoiceID:    "voice-1",
		ChunkSize:  256,
	}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Failed to create ElevenLabsTTS: %v", err)
	}

	ch, err := tts.ConvertTextToSpeech(context.Background(), "Habari", "sw")
	if err != nil {
		t.Fatalf("Failed to convert text to speech: %v", err)
	}
	if streamed := collect(ch); !bytes.Equal(streamed, audio) {
		t.Errorf("Expected %d bytes of audio, got %d", len(audio), len(streamed))
	}
	if got := <-requests; got.Text != "Habari" || got.LanguageCode != "sw" {
		t.Errorf("Expected text Habari in sw, got %+v", got)
	}

	ch, err = tts.ConvertTextToSpeech(context.Background(), "Hello", "en")
	if err != nil {
		t.Fatalf("Failed to convert text to speech: %v", err)
	}
	collect(ch)
	if got := <-requests; got.LanguageCode != "" {
		t.Errorf("Expected no language code for English, got %s", got.LanguageCode)
	}
}

func TestElevenLabsTTS_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	tts, err := NewElevenLabsTTS(ElevenLabsConfig{APIKey: "k", APIBaseURL: server.URL}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Failed to create ElevenLabsTTS: %v", err)
	}
	if _, err := tts.ConvertTextToSpeech(context.Background(), "hi", "en"); err == nil {
		t.Error("Expected error for non-200 response")
	}
}

func TestElevenLabsTTS_ConvertTextToSpeech_EmptyText(t *testing.T) {
	tts, err := NewElevenLabsTTS(ElevenLabsConfig{APIKey: "test-api-key"}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Failed to create ElevenLabsTTS: %v", err)
	}

	if _, err := tts.ConvertTextToSpeech(context.Background(), "   ", "en"); err == nil {
		t.Error("Expected error for whitespace-only text")
	}
}

func TestMockTTS(t *testing.T) {
	ch, err := MockTTS{ChunkSize: 100}.ConvertTextToSpeech(context.Background(), "hi", "en")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if n := len(collect(ch)); n != 2*1920 {
		t.Errorf("Expected %d bytes, got %d", 2*1920, n)
	}
}

// Integration test - only runs if LINGUA_TTS_ELEVENLABS_API_KEY is set with a real API key
func TestElevenLabsTTS_Integration(t *testing.T) {
	apiKey := os.Getenv("LINGUA_TTS_ELEVENLABS_API_KEY")
	if apiKey == "" {
		t.Skip("Skipping integration test - set LINGUA_TTS_ELEVENLABS_API_KEY with a real API key")
	}

	tts, err := NewElevenLabsTTS(ElevenLabsConfig{APIKey: apiKey}, zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to create ElevenLabsTTS: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ch, err := tts.ConvertTextToSpeech(ctx, "Bonjour, ceci est un test.", "fr")
	if err != nil {
		t.Fatalf("Failed to convert text to speech: %v", err)
	}
	if len(collect(ch)) == 0 {
		t.Error("No audio data received")
	}
}
