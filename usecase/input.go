package usecase

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/satriahrh/lingua/adapters/translation"
	"github.com/satriahrh/lingua/domain/entities"
	"github.com/satriahrh/lingua/domain/repositories"
)

// MaxUploadBytes bounds audio and image uploads
const MaxUploadBytes = 10 << 20

var allowedImageExtensions = map[string]bool{".png": true, ".jpg": true, ".jpeg": true}

// Upload is a file supplied with a turn
type Upload struct {
	Filename string
	Data     []byte
}

// TurnRequest is one user turn as received from a transport
type TurnRequest struct {
	UserID         string
	ConversationID string
	Text           string
	Audio          *Upload
	Image          *Upload
	ImageURL       string
	// Language is a display name or code. Empty keeps the conversation's language.
	Language string
}

// Validate checks the input shape before any state logic runs
func (r TurnRequest) Validate() error {
	if r.UserID == "" {
		return invalidf("user id is required")
	}
	hasText := strings.TrimSpace(r.Text) != ""
	hasAudio := r.Audio != nil && len(r.Audio.Data) > 0
	hasImage := r.Image != nil && len(r.Image.Data) > 0
	hasImageURL := strings.TrimSpace(r.ImageURL) != ""

	switch {
	case hasAudio && hasText:
		return invalidf("provide either audio or text, not both")
	case hasImage && hasImageURL:
		return invalidf("provide either an image file or an image URL, not both")
	case !hasText && !hasAudio && !hasImage && !hasImageURL:
		return invalidf("a turn needs text, audio or an image")
	}

	if hasAudio && len(r.Audio.Data) > MaxUploadBytes {
		return invalidf("audio exceeds %d bytes", MaxUploadBytes)
	}
	if hasImage {
		if len(r.Image.Data) > MaxUploadBytes {
			return invalidf("image exceeds %d bytes", MaxUploadBytes)
		}
		ext := strings.ToLower(filepath.Ext(r.Image.Filename))
		if !allowedImageExtensions[ext] {
			return invalidf("image must be a png, jpg or jpeg file")
		}
	}
	if hasImageURL {
		lower := strings.ToLower(r.ImageURL)
		if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
			return invalidf("image URL must be http or https")
		}
	}
	return nil
}

// processedInput is a turn normalised to English plus its images
type processedInput struct {
	// Original is what the user said, in their language.
	Original string
	English  string
	Images   []repositories.Image
	Kind     entities.InputKind
	ImageURL string
}

// inputProcessor turns raw uploads into English text and model images
type inputProcessor struct {
	stt        repositories.SpeechToText
	translator repositories.Translator
	images     repositories.ImageStore
	logger     *zap.Logger
}

func (p *inputProcessor) process(ctx context.Context, req TurnRequest, language string) (*processedInput, error) {
	out := &processedInput{Kind: entities.InputKindText, Original: strings.TrimSpace(req.Text)}

	if req.Audio != nil && len(req.Audio.Data) > 0 {
		if p.stt == nil {
			return nil, invalidf("audio input is not supported")
		}
		transcript, err := p.stt.TranscribeAudio(ctx, req.Audio.Data, repositories.AudioConfig{Language: language})
		if err != nil {
			return nil, fmt.Errorf("failed to transcribe audio: %w", err)
		}
		out.Original = strings.TrimSpace(transcript)
		out.Kind = entities.InputKindAudio
	}

	out.English = out.Original
	if out.Original != "" && language != translation.English {
		english, err := p.translator.Translate(ctx, out.Original, language, translation.English)
		if err != nil {
			// The model still gets something to work with.
			p.logger.Warn("Input translation failed, using original text",
				zap.String("userID", req.UserID),
				zap.String("language", language),
				zap.Error(err))
		} else {
			out.English = english
		}
	}

	switch {
	case req.Image != nil && len(req.Image.Data) > 0:
		mimeType := http.DetectContentType(req.Image.Data)
		if mimeType != "image/png" && mimeType != "image/jpeg" {
			return nil, invalidf("image content is %s, expected png or jpeg", mimeType)
		}
		out.Images = append(out.Images, repositories.Image{Data: req.Image.Data, MIMEType: mimeType})
	case strings.TrimSpace(req.ImageURL) != "":
		img, err := p.images.Fetch(ctx, strings.TrimSpace(req.ImageURL))
		if err != nil {
			return nil, invalidf("could not load image: %v", err)
		}
		out.Images = append(out.Images, *img)
		out.ImageURL = img.SourceURL
	}

	if len(out.Images) > 0 && out.English == "" {
		out.Kind = entities.InputKindImage
	}
	return out, nil
}
