package imagegen

import (
	"bytes"
	"context"
	"image/png"
	"testing"
)

func TestPlaceholderGenerator(t *testing.T) {
	gen := PlaceholderGenerator{}
	ctx := context.Background()

	img, err := gen.GenerateImage(ctx, "a red bicycle")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if img.MIMEType != "image/png" {
		t.Errorf("Expected image/png, got %s", img.MIMEType)
	}

	decoded, err := png.Decode(bytes.NewReader(img.Data))
	if err != nil {
		t.Fatalf("Expected a valid PNG: %v", err)
	}
	if decoded.Bounds().Dx() != placeholderSize {
		t.Errorf("Expected width %d, got %d", placeholderSize, decoded.Bounds().Dx())
	}

	again, _ := gen.GenerateImage(ctx, "a red bicycle")
	if !bytes.Equal(img.Data, again.Data) {
		t.Error("Expected the same prompt to render the same image")
	}

	if _, err := gen.GenerateImage(ctx, "  "); err == nil {
		t.Error("Expected error for empty prompt")
	}
}
