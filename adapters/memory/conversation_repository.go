package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/satriahrh/lingua/domain/entities"
	"github.com/satriahrh/lingua/domain/repositories"
)

// ConversationRepository is an in-memory implementation of repositories.ConversationRepository.
// Records are deep-copied on the way in and out so callers never share state.
type ConversationRepository struct {
	mu            sync.RWMutex
	conversations map[string]*entities.Conversation
}

var _ repositories.ConversationRepository = (*ConversationRepository)(nil)

// NewConversationRepository creates a new in-memory conversation repository
func NewConversationRepository() *ConversationRepository {
	return &ConversationRepository{
		conversations: make(map[string]*entities.Conversation),
	}
}

// Create implements ConversationRepository interface
func (r *ConversationRepository) Create(ctx context.Context, conv *entities.Conversation) error {
	if conv == nil {
		return errors.New("conversation cannot be nil")
	}
	if err := conv.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.conversations[conv.ID]; exists {
		return errors.New("conversation with this ID already exists")
	}
	r.conversations[conv.ID] = clone(conv)
	return nil
}

// GetByID implements ConversationRepository interface
func (r *ConversationRepository) GetByID(ctx context.Context, id string) (*entities.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conv, exists := r.conversations[id]
	if !exists {
		return nil, repositories.ErrConversationNotFound
	}
	return clone(conv), nil
}

// GetLatestByUserID implements ConversationRepository interface
func (r *ConversationRepository) GetLatestByUserID(ctx context.Context, userID string) (*entities.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *entities.Conversation
	for _, conv := range r.conversations {
		if conv.UserID != userID {
			continue
		}
		if latest == nil || conv.UpdatedAt.After(latest.UpdatedAt) {
			latest = conv
		}
	}
	if latest == nil {
		return nil, nil
	}
	return clone(latest), nil
}

// List implements ConversationRepository interface
func (r *ConversationRepository) List(ctx context.Context, filter repositories.ConversationFilter) ([]*entities.Conversation, int64, error) {
	r.mu.RLock()
	matched := make([]*entities.Conversation, 0)
	for _, conv := range r.conversations {
		if filter.UserID != "" && conv.UserID != filter.UserID {
			continue
		}
		if filter.State != "" && conv.DialogueState != filter.State {
			continue
		}
		matched = append(matched, conv)
	}
	r.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		var less bool
		if filter.SortField == repositories.SortByDialogueState && a.DialogueState != b.DialogueState {
			less = a.DialogueState < b.DialogueState
		} else {
			less = a.UpdatedAt.Before(b.UpdatedAt)
		}
		if filter.SortDesc {
			return !less
		}
		return less
	})

	total := int64(len(matched))
	start := filter.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := len(matched)
	if filter.PerPage > 0 && start+filter.PerPage < end {
		end = start + filter.PerPage
	}

	out := make([]*entities.Conversation, 0, end-start)
	for _, conv := range matched[start:end] {
		out = append(out, clone(conv))
	}
	return out, total, nil
}

// Update implements ConversationRepository interface. Image task status
// fields keep their stored values.
func (r *ConversationRepository) Update(ctx context.Context, conv *entities.Conversation) error {
	if conv == nil {
		return errors.New("conversation cannot be nil")
	}
	if err := conv.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.conversations[conv.ID]
	if !exists {
		return repositories.ErrConversationNotFound
	}
	// Job progress is owned by UpdateImageTaskStatus.
	updated := clone(conv)
	updated.ImageTaskStatus = existing.ImageTaskStatus
	updated.ImageTaskStartedAt = existing.ImageTaskStartedAt
	updated.ImageTaskCompletedAt = existing.ImageTaskCompletedAt
	r.conversations[conv.ID] = updated
	return nil
}

// Delete implements ConversationRepository interface
func (r *ConversationRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.conversations[id]; !exists {
		return repositories.ErrConversationNotFound
	}
	delete(r.conversations, id)
	return nil
}

// UpdateImageTaskStatus implements ConversationRepository interface
func (r *ConversationRepository) UpdateImageTaskStatus(ctx context.Context, id string, status entities.JobStatus, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, exists := r.conversations[id]
	if !exists {
		return repositories.ErrConversationNotFound
	}
	conv.RecordJobStatus(status, at)
	return nil
}

func clone(c *entities.Conversation) *entities.Conversation {
	cp := *c
	cp.Messages = append([]entities.Message(nil), c.Messages...)
	if c.ImageTaskStartedAt != nil {
		t := *c.ImageTaskStartedAt
		cp.ImageTaskStartedAt = &t
	}
	if c.ImageTaskCompletedAt != nil {
		t := *c.ImageTaskCompletedAt
		cp.ImageTaskCompletedAt = &t
	}
	return &cp
}
