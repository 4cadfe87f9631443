package stt

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"

	"github.com/satriahrh/lingua/domain/repositories"
)

// ErrNoSpeech is returned when recognition produced no transcript
var ErrNoSpeech = errors.New("no speech detected in audio")

// recognitionLocales maps service language codes to Cloud Speech locales
var recognitionLocales = map[string]string{
	"en": "en-US",
	"sw": "sw-KE",
	"fr": "fr-FR",
	"ig": "ig-NG",
	"yo": "yo-NG",
	"rw": "rw-RW",
	"xh": "xh-ZA",
}

// GoogleSpeechToText implements SpeechToText with Cloud Speech-to-Text
type GoogleSpeechToText struct {
	client *speech.Client
	logger *zap.Logger
}

var _ repositories.SpeechToText = (*GoogleSpeechToText)(nil)

// NewGoogleSpeechToText creates a recognizer using application default credentials
func NewGoogleSpeechToText(ctx context.Context, logger *zap.Logger) (*GoogleSpeechToText, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}
	return &GoogleSpeechToText{client: client, logger: logger}, nil
}

// Close releases the underlying client
func (g *GoogleSpeechToText) Close() error {
	return g.client.Close()
}

// TranscribeAudio converts a complete audio clip to text
func (g *GoogleSpeechToText) TranscribeAudio(ctx context.Context, audioData []byte, config repositories.AudioConfig) (string, error) {
	if len(audioData) == 0 {
		return "", errors.New("no audio data received")
	}

	recognitionConfig, err := buildRecognitionConfig(audioData, config)
	if err != nil {
		return "", err
	}

	resp, err := g.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: recognitionConfig,
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audioData},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to recognize speech: %w", err)
	}

	var parts []string
	for _, result := range resp.Results {
		if len(result.Alternatives) > 0 {
			parts = append(parts, strings.TrimSpace(result.Alternatives[0].Transcript))
		}
	}
	transcript := strings.TrimSpace(strings.Join(parts, " "))
	if transcript == "" {
		return "", ErrNoSpeech
	}

	g.logger.Debug("Transcribed audio",
		zap.Int("audioSize", len(audioData)),
		zap.String("language", recognitionConfig.LanguageCode))
	return transcript, nil
}

// buildRecognitionConfig fills encoding and sample rate from the clip
// header when the caller did not specify them.
func buildRecognitionConfig(audio []byte, config repositories.AudioConfig) (*speechpb.RecognitionConfig, error) {
	name := config.Encoding
	sampleRate := config.SampleRate
	if name == "" {
		var detected int
		name, detected = DetectEncoding(audio)
		if sampleRate == 0 {
			sampleRate = detected
		}
	}

	encoding, err := getAudioEncoding(name)
	if err != nil {
		return nil, err
	}

	return &speechpb.RecognitionConfig{
		Encoding:                   encoding,
		SampleRateHertz:            int32(sampleRate),
		LanguageCode:               Locale(config.Language),
		EnableAutomaticPunctuation: true,
	}, nil
}

// Locale returns the Cloud Speech locale for a language code
func Locale(language string) string {
	if language == "" {
		return recognitionLocales["en"]
	}
	if locale, ok := recognitionLocales[language]; ok {
		return locale
	}
	return language
}

// DetectEncoding sniffs the container format of an audio clip. The sample
// rate is only known for WAV and is 0 otherwise.
func DetectEncoding(audio []byte) (string, int) {
	switch {
	case len(audio) >= 28 && bytes.HasPrefix(audio, []byte("RIFF")) && bytes.Equal(audio[8:12], []byte("WAVE")):
		return "LINEAR16", int(binary.LittleEndian.Uint32(audio[24:28]))
	case bytes.HasPrefix(audio, []byte("fLaC")):
		return "FLAC", 0
	case bytes.HasPrefix(audio, []byte("OggS")):
		return "OGG_OPUS", 0
	case bytes.HasPrefix(audio, []byte{0x1A, 0x45, 0xDF, 0xA3}):
		return "WEBM_OPUS", 0
	case bytes.HasPrefix(audio, []byte("#!AMR-WB")):
		return "AMR_WB", 0
	case bytes.HasPrefix(audio, []byte("#!AMR")):
		return "AMR", 0
	default:
		return "ENCODING_UNSPECIFIED", 0
	}
}

// getAudioEncoding converts string encoding to Google Speech API enum
func getAudioEncoding(encoding string) (speechpb.RecognitionConfig_AudioEncoding, error) {
	switch strings.ToUpper(encoding) {
	case "WAV", "LINEAR16":
		return speechpb.RecognitionConfig_LINEAR16, nil
	case "FLAC":
		return speechpb.RecognitionConfig_FLAC, nil
	case "MULAW":
		return speechpb.RecognitionConfig_MULAW, nil
	case "AMR":
		return speechpb.RecognitionConfig_AMR, nil
	case "AMR_WB":
		return speechpb.RecognitionConfig_AMR_WB, nil
	case "OGG_OPUS":
		return speechpb.RecognitionConfig_OGG_OPUS, nil
	case "SPEEX_WITH_HEADER_BYTE":
		return speechpb.RecognitionConfig_SPEEX_WITH_HEADER_BYTE, nil
	case "WEBM_OPUS":
		return speechpb.RecognitionConfig_WEBM_OPUS, nil
	case "MP3":
		return speechpb.RecognitionConfig_MP3, nil
	case "ENCODING_UNSPECIFIED":
		// Let the service read the header.
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, nil
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, fmt.Errorf("unsupported encoding: %s", encoding)
	}
}
