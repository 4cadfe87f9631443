package imagegen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/png"
	"strings"

	"github.com/satriahrh/lingua/domain/repositories"
)

const placeholderSize = 256

// PlaceholderGenerator renders a gradient PNG seeded by the prompt. It
// stands in for a real model in local development and tests.
type PlaceholderGenerator struct{}

var _ repositories.ImageGenerator = PlaceholderGenerator{}

// GenerateImage implements repositories.ImageGenerator
func (PlaceholderGenerator) GenerateImage(ctx context.Context, prompt string) (*repositories.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, errors.New("prompt cannot be empty")
	}

	h := fnv.New32a()
	h.Write([]byte(prompt))
	seed := h.Sum32()
	base := color.RGBA{R: uint8(seed), G: uint8(seed >> 8), B: uint8(seed >> 16), A: 0xff}

	img := image.NewRGBA(image.Rect(0, 0, placeholderSize, placeholderSize))
	for y := 0; y < placeholderSize; y++ {
		for x := 0; x < placeholderSize; x++ {
			img.Set(x, y, color.RGBA{
				R: base.R + uint8(x/2),
				G: base.G + uint8(y/2),
				B: base.B,
				A: 0xff,
			})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode placeholder: %w", err)
	}
	return &repositories.Image{Data: buf.Bytes(), MIMEType: "image/png"}, nil
}
