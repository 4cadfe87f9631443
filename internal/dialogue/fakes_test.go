package dialogue

import (
	"context"
	"errors"
	"sync"

	"github.com/satriahrh/lingua/domain/entities"
	"github.com/satriahrh/lingua/domain/repositories"
)

var errBoom = errors.New("boom")

// fakeEmbedder maps known texts to vectors; unknown texts embed to zero.
type fakeEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	err     error
	calls   int
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if v, ok := f.vectors[t]; ok {
			out[i] = v
		} else {
			out[i] = []float32{0, 0, 0}
		}
	}
	return out, nil
}

type fakeModel struct {
	mu      sync.Mutex
	replies []string
	err     error
	prompts []repositories.Prompt
}

func (f *fakeModel) Generate(_ context.Context, p repositories.Prompt) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, p)
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "", nil
	}
	reply := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	return reply, nil
}

func (f *fakeModel) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type fakeSentiment struct {
	score float64
	err   error
}

func (f fakeSentiment) Polarity(context.Context, string) (float64, error) {
	return f.score, f.err
}

type fakeJobs struct {
	mu        sync.Mutex
	nextID    string
	submitErr error
	pollErr   error
	statuses  map[string]repositories.ImageJobStatus
	submitted []repositories.ImageJobRequest
	polls     int
}

func (f *fakeJobs) Submit(_ context.Context, req repositories.ImageJobRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return "", f.submitErr
	}
	f.submitted = append(f.submitted, req)
	return f.nextID, nil
}

func (f *fakeJobs) Poll(_ context.Context, id string) (repositories.ImageJobStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls++
	if f.pollErr != nil {
		return repositories.ImageJobStatus{}, f.pollErr
	}
	st, ok := f.statuses[id]
	if !ok {
		return repositories.ImageJobStatus{ID: id, Status: entities.JobStatusUnknown}, nil
	}
	return st, nil
}

type stubIntent struct {
	wants bool
	err   error
	calls int
}

func (s *stubIntent) WantsImage(context.Context, string) (bool, error) {
	s.calls++
	return s.wants, s.err
}

type stubConfirm struct {
	confirm bool
	calls   int
}

func (s *stubConfirm) ShouldConfirm(_ context.Context, _ string, streak int) (bool, int) {
	s.calls++
	return s.confirm, streak + 1
}
