package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/satriahrh/lingua/domain/entities"
	"github.com/satriahrh/lingua/domain/repositories"
	"github.com/satriahrh/lingua/internal/dialogue"
)

var errBoom = errors.New("boom")

type fakeEngine struct {
	mu     sync.Mutex
	inputs []dialogue.TurnInput
	turn   func(in dialogue.TurnInput) (*dialogue.TurnResult, error)
}

func (f *fakeEngine) Turn(_ context.Context, in dialogue.TurnInput) (*dialogue.TurnResult, error) {
	f.mu.Lock()
	f.inputs = append(f.inputs, in)
	turn := f.turn
	f.mu.Unlock()
	if turn != nil {
		return turn(in)
	}
	return &dialogue.TurnResult{
		Response:            "echo: " + in.Text,
		State:               entities.StateConversing,
		ShortResponseStreak: in.ShortResponseStreak + 1,
	}, nil
}

func (f *fakeEngine) calls() []dialogue.TurnInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]dialogue.TurnInput(nil), f.inputs...)
}

// tagTranslator marks translated text with its target language
type tagTranslator struct {
	failTo string
}

func (f tagTranslator) Translate(_ context.Context, text, source, target string) (string, error) {
	if target == f.failTo {
		return "", errBoom
	}
	return "[" + target + "] " + strings.TrimPrefix(text, "["+source+"] "), nil
}

type fakeSTT struct {
	transcript string
	err        error
	language   string
}

func (f *fakeSTT) TranscribeAudio(_ context.Context, _ []byte, cfg repositories.AudioConfig) (string, error) {
	f.language = cfg.Language
	return f.transcript, f.err
}

type fakeImageStore struct {
	mu      sync.Mutex
	saved   []string
	fetched *repositories.Image
	err     error
}

func (f *fakeImageStore) Save(_ context.Context, name string, _ *repositories.Image) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, name)
	return "https://img.test/" + name, nil
}

func (f *fakeImageStore) Fetch(_ context.Context, url string) (*repositories.Image, error) {
	if f.err != nil {
		return nil, f.err
	}
	img := *f.fetched
	img.SourceURL = url
	return &img, nil
}

type fakeTracker struct {
	status repositories.ImageJobStatus
	polled []string
}

func (f *fakeTracker) Submit(context.Context, repositories.ImageJobRequest) (string, error) {
	return "job-1", nil
}

func (f *fakeTracker) Poll(_ context.Context, id string) (repositories.ImageJobStatus, error) {
	f.polled = append(f.polled, id)
	st := f.status
	st.ID = id
	return st, nil
}

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)
