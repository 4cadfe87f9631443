package imagestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
	"go.uber.org/zap"

	"github.com/satriahrh/lingua/domain/repositories"
)

// MaxImageBytes bounds images fetched from user supplied URLs
const MaxImageBytes = 10 << 20

// Config configures where images are stored
type Config struct {
	// BaseURL is an afs URL such as file:///var/lib/lingua/images, mem://localhost/images or s3://bucket/images.
	BaseURL string `mapstructure:"base_url"`
	// PublicURL, when set, replaces BaseURL in returned links, e.g. https://cdn.example.com/images.
	PublicURL string `mapstructure:"public_url"`
}

// Store implements repositories.ImageStore on any afs backend
type Store struct {
	fs     afs.Service
	config Config
	logger *zap.Logger
}

var _ repositories.ImageStore = (*Store)(nil)

// New creates an image store
func New(config Config, logger *zap.Logger) (*Store, error) {
	config.BaseURL = normalizeURL(strings.TrimSpace(config.BaseURL))
	if config.BaseURL == "" {
		return nil, errors.New("image store base URL is required")
	}
	config.PublicURL = strings.TrimRight(strings.TrimSpace(config.PublicURL), "/")
	return &Store{fs: afs.New(), config: config, logger: logger}, nil
}

// Save implements repositories.ImageStore
func (s *Store) Save(ctx context.Context, name string, image *repositories.Image) (string, error) {
	if image == nil || len(image.Data) == 0 {
		return "", errors.New("image was empty")
	}
	name = strings.TrimLeft(name, "/")
	if name == "" || strings.Contains(name, "..") {
		return "", fmt.Errorf("invalid image name %q", name)
	}

	dest := url.Join(s.config.BaseURL, name)
	parent, _ := url.Split(dest, file.Scheme)
	if parent != "" {
		exists, err := s.fs.Exists(ctx, parent)
		if err != nil {
			return "", fmt.Errorf("failed to check image directory: %w", err)
		}
		if !exists {
			if err := s.fs.Create(ctx, parent, file.DefaultDirOsMode, true); err != nil {
				return "", fmt.Errorf("failed to create image directory: %w", err)
			}
		}
	}

	if err := s.fs.Upload(ctx, dest, file.DefaultFileOsMode, bytes.NewReader(image.Data)); err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	link := dest
	if s.config.PublicURL != "" {
		link = s.config.PublicURL + "/" + name
	}
	s.logger.Info("Stored image", zap.String("url", link), zap.Int("bytes", len(image.Data)))
	return link, nil
}

// Fetch implements repositories.ImageStore
func (s *Store) Fetch(ctx context.Context, location string) (*repositories.Image, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, errors.New("image URL is required")
	}
	if s.config.PublicURL != "" && strings.HasPrefix(location, s.config.PublicURL+"/") {
		location = url.Join(s.config.BaseURL, strings.TrimPrefix(location, s.config.PublicURL+"/"))
	}

	data, err := s.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("downloaded image was empty")
	}
	if len(data) > MaxImageBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", MaxImageBytes)
	}

	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, fmt.Errorf("unsupported image content type %s", mimeType)
	}
	return &repositories.Image{Data: data, MIMEType: mimeType, SourceURL: location}, nil
}

// ExtensionFor returns the file extension for an image MIME type
func ExtensionFor(mimeType string) string {
	switch strings.ToLower(mimeType) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".png"
	}
}

func normalizeURL(dest string) string {
	if dest == "" || strings.Contains(dest, "://") {
		return dest
	}
	if abs, err := filepath.Abs(dest); err == nil {
		return "file://" + abs
	}
	return "file://" + dest
}
