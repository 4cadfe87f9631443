package imagejob

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/satriahrh/lingua/domain/entities"
	"github.com/satriahrh/lingua/domain/repositories"
	"github.com/satriahrh/lingua/internal/jobs"
)

// Kind is the job kind used for image generation
const Kind = "image_generation"

// Labels attached to every image job
const (
	LabelConversationID = "conversation_id"
	LabelUserID         = "user_id"
)

const (
	dataPrompt = "prompt"
	dataImage  = "image"
	dataURL    = "url"
)

// Tracker implements repositories.ImageJobTracker on top of the job manager
type Tracker struct {
	manager       *jobs.Manager
	generator     repositories.ImageGenerator
	store         repositories.ImageStore
	conversations repositories.ConversationRepository
	timeout       time.Duration
	logger        *zap.Logger
}

var _ repositories.ImageJobTracker = (*Tracker)(nil)

// NewTracker creates a tracker and subscribes it to job events so conversation
// records follow job progress. conversations may be nil.
func NewTracker(
	manager *jobs.Manager,
	generator repositories.ImageGenerator,
	store repositories.ImageStore,
	conversations repositories.ConversationRepository,
	timeout time.Duration,
	logger *zap.Logger,
) *Tracker {
	t := &Tracker{
		manager:       manager,
		generator:     generator,
		store:         store,
		conversations: conversations,
		timeout:       timeout,
		logger:        logger,
	}
	if conversations != nil {
		manager.Subscribe(t.recordStatus)
	}
	return t
}

// Submit enqueues an image generation job
func (t *Tracker) Submit(ctx context.Context, req repositories.ImageJobRequest) (string, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return "", fmt.Errorf("image prompt is empty")
	}

	id, err := t.manager.Submit(ctx, t.definition(), jobs.Data{dataPrompt: prompt}, map[string]string{
		LabelConversationID: req.ConversationID,
		LabelUserID:         req.UserID,
	})
	if err != nil {
		return "", fmt.Errorf("failed to submit image job: %w", err)
	}
	return id, nil
}

// Poll reports the job status. Unknown ids yield UNKNOWN without error.
func (t *Tracker) Poll(_ context.Context, id string) (repositories.ImageJobStatus, error) {
	job, ok := t.manager.Get(id)
	if !ok || job.Kind != Kind {
		return repositories.ImageJobStatus{ID: id, Status: entities.JobStatusUnknown}, nil
	}
	status := repositories.ImageJobStatus{ID: id, Status: job.Status, Error: job.Error}
	if job.Status == entities.JobStatusSuccess {
		status.URL = job.Result
	}
	return status, nil
}

func (t *Tracker) definition() jobs.Definition {
	return jobs.Definition{
		Kind:      Kind,
		Timeout:   t.timeout,
		ResultKey: dataURL,
		Steps: []jobs.Step{
			{
				Name: "generate",
				Run: func(ctx context.Context, data jobs.Data) error {
					img, err := t.generator.GenerateImage(ctx, data.String(dataPrompt))
					if err != nil {
						return err
					}
					if img == nil || len(img.Data) == 0 {
						return fmt.Errorf("generator returned no image")
					}
					data[dataImage] = img
					return nil
				},
			},
			{
				Name: "store",
				Run: func(ctx context.Context, data jobs.Data) error {
					img, _ := data[dataImage].(*repositories.Image)
					url, err := t.store.Save(ctx, objectName(img.MIMEType), img)
					if err != nil {
						return err
					}
					data[dataURL] = url
					return nil
				},
			},
		},
	}
}

// recordStatus mirrors job lifecycle changes onto the owning conversation
func (t *Tracker) recordStatus(event jobs.Event) {
	if event.Job.Kind != Kind {
		return
	}
	var status entities.JobStatus
	switch event.Type {
	case jobs.EventJobQueued, jobs.EventJobStarted, jobs.EventJobSucceeded, jobs.EventJobFailed:
		status = event.Job.Status
	default:
		return
	}
	convID := event.Job.Labels[LabelConversationID]
	if convID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := t.conversations.UpdateImageTaskStatus(ctx, convID, status, event.Timestamp); err != nil {
		t.logger.Warn("Failed to record image task status",
			zap.String("conversationID", convID),
			zap.String("jobID", event.Job.ID),
			zap.String("status", string(status)),
			zap.Error(err))
	}
}

func objectName(mimeType string) string {
	ext := "png"
	switch mimeType {
	case "image/jpeg", "image/jpg":
		ext = "jpg"
	}
	return fmt.Sprintf("%s/%s.%s", time.Now().UTC().Format("2006/01/02"), uuid.New().String(), ext)
}
