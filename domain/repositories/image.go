package repositories

import (
	"context"

	"github.com/satriahrh/lingua/domain/entities"
)

// ImageGenerator renders an image from a text prompt
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (*Image, error)
}

// ImageStore persists generated images and fetches user supplied ones
type ImageStore interface {
	// Save stores the image under name and returns a URL clients can load
	Save(ctx context.Context, name string, image *Image) (string, error)
	// Fetch downloads an image from a URL
	Fetch(ctx context.Context, url string) (*Image, error)
}

// ImageJobRequest describes an image generation job
type ImageJobRequest struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
	Prompt         string `json:"prompt"`
}

// ImageJobStatus is a point-in-time view of a job
type ImageJobStatus struct {
	ID     string             `json:"task_id"`
	Status entities.JobStatus `json:"status"`
	URL    string             `json:"image_url,omitempty"`
	Error  string             `json:"error,omitempty"`
}

// ImageJobTracker submits image jobs and reports their progress.
// Submit must not block on generation and Poll must not mutate the job.
type ImageJobTracker interface {
	Submit(ctx context.Context, req ImageJobRequest) (string, error)
	Poll(ctx context.Context, id string) (ImageJobStatus, error)
}
