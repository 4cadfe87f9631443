package imagegen

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/satriahrh/lingua/domain/repositories"
)

const (
	defaultModel       = "imagen-3.0-generate-002"
	defaultAspectRatio = "1:1"
	defaultMIMEType    = "image/png"
)

// ImagenConfig configures the Imagen generator
type ImagenConfig struct {
	Model       string `mapstructure:"model"`
	AspectRatio string `mapstructure:"aspect_ratio"`
	MIMEType    string `mapstructure:"mime_type"`
}

// ImagenGenerator implements repositories.ImageGenerator with Imagen on the Gemini API
type ImagenGenerator struct {
	client *genai.Client
	config ImagenConfig
	logger *zap.Logger
}

var _ repositories.ImageGenerator = (*ImagenGenerator)(nil)

// NewImagenGenerator creates a new Imagen generator
func NewImagenGenerator(client *genai.Client, config ImagenConfig, logger *zap.Logger) *ImagenGenerator {
	if config.Model == "" {
		config.Model = defaultModel
		logger.Info("Using default image model", zap.String("model", config.Model))
	}
	if config.AspectRatio == "" {
		config.AspectRatio = defaultAspectRatio
	}
	if config.MIMEType == "" {
		config.MIMEType = defaultMIMEType
	}
	return &ImagenGenerator{client: client, config: config, logger: logger}
}

// GenerateImage implements repositories.ImageGenerator
func (g *ImagenGenerator) GenerateImage(ctx context.Context, prompt string) (*repositories.Image, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, errors.New("prompt cannot be empty")
	}

	resp, err := g.client.Models.GenerateImages(ctx, g.config.Model, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		AspectRatio:    g.config.AspectRatio,
		OutputMIMEType: g.config.MIMEType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate image: %w", err)
	}
	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil {
		return nil, errors.New("no image generated, the prompt may have been filtered")
	}

	img := resp.GeneratedImages[0].Image
	mimeType := img.MIMEType
	if mimeType == "" {
		mimeType = g.config.MIMEType
	}

	g.logger.Info("Generated image",
		zap.String("model", g.config.Model),
		zap.Int("bytes", len(img.ImageBytes)))
	return &repositories.Image{Data: img.ImageBytes, MIMEType: mimeType}, nil
}
