package imagejob

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/satriahrh/lingua/domain/entities"
	"github.com/satriahrh/lingua/domain/repositories"
	"github.com/satriahrh/lingua/internal/jobs"
)

type fakeGenerator struct {
	err   error
	calls int
	mu    sync.Mutex
}

func (f *fakeGenerator) GenerateImage(_ context.Context, prompt string) (*repositories.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &repositories.Image{Data: []byte(prompt), MIMEType: "image/png"}, nil
}

type fakeStore struct {
	mu    sync.Mutex
	saved map[string][]byte
}

func (f *fakeStore) Save(_ context.Context, name string, img *repositories.Image) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saved == nil {
		f.saved = map[string][]byte{}
	}
	f.saved[name] = img.Data
	return "https://cdn.example/" + name, nil
}

func (f *fakeStore) Fetch(context.Context, string) (*repositories.Image, error) {
	return nil, errors.New("not implemented")
}

// statusRecorder captures UpdateImageTaskStatus calls; other methods are unused.
type statusRecorder struct {
	repositories.ConversationRepository
	mu       sync.Mutex
	statuses []entities.JobStatus
}

func (r *statusRecorder) UpdateImageTaskStatus(_ context.Context, id string, status entities.JobStatus, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id != "conv-1" {
		return repositories.ErrConversationNotFound
	}
	r.statuses = append(r.statuses, status)
	return nil
}

func (r *statusRecorder) last() entities.JobStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.statuses) == 0 {
		return ""
	}
	return r.statuses[len(r.statuses)-1]
}

func setup(t *testing.T, gen *fakeGenerator) (*Tracker, *statusRecorder) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	manager := jobs.NewManager(jobs.Config{Workers: 2}, logger)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		_ = manager.Shutdown(context.Background())
	})

	rec := &statusRecorder{}
	tracker := NewTracker(manager, gen, &fakeStore{}, rec, time.Second, logger)
	go manager.Run(ctx)
	return tracker, rec
}

func TestTracker_SubmitAndPoll(t *testing.T) {
	gen := &fakeGenerator{}
	tracker, rec := setup(t, gen)
	ctx := context.Background()

	id, err := tracker.Submit(ctx, repositories.ImageJobRequest{ConversationID: "conv-1", UserID: "u1", Prompt: "a red fox"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	var status repositories.ImageJobStatus
	require.Eventually(t, func() bool {
		status, err = tracker.Poll(ctx, id)
		return err == nil && status.Status == entities.JobStatusSuccess
	}, 2*time.Second, 5*time.Millisecond)
	assert.Contains(t, status.URL, "https://cdn.example/")

	again, err := tracker.Poll(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, status, again)
	assert.Equal(t, 1, gen.calls, "polling must not resubmit")

	require.Eventually(t, func() bool { return rec.last() == entities.JobStatusSuccess }, time.Second, 5*time.Millisecond)
}

func TestTracker_Failure(t *testing.T) {
	tracker, rec := setup(t, &fakeGenerator{err: errors.New("quota exceeded")})
	ctx := context.Background()

	id, err := tracker.Submit(ctx, repositories.ImageJobRequest{ConversationID: "conv-1", Prompt: "a boat"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		status, _ := tracker.Poll(ctx, id)
		return status.Status == entities.JobStatusFailure
	}, 2*time.Second, 5*time.Millisecond)

	status, _ := tracker.Poll(ctx, id)
	assert.Empty(t, status.URL)
	assert.Contains(t, status.Error, "quota exceeded")
	require.Eventually(t, func() bool { return rec.last() == entities.JobStatusFailure }, time.Second, 5*time.Millisecond)
}

func TestTracker_PollUnknown(t *testing.T) {
	tracker, _ := setup(t, &fakeGenerator{})

	status, err := tracker.Poll(context.Background(), "nope")
	require.NoError(t, err)
	assert.Equal(t, entities.JobStatusUnknown, status.Status)
}

func TestTracker_EmptyPrompt(t *testing.T) {
	tracker, _ := setup(t, &fakeGenerator{})

	_, err := tracker.Submit(context.Background(), repositories.ImageJobRequest{Prompt: "  "})
	assert.Error(t, err)
}
