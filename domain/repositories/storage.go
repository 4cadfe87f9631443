package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/satriahrh/lingua/domain/entities"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrSessionNotFound      = errors.New("session not found")
)

// Sort fields accepted by ConversationFilter
const (
	SortByTimestamp     = "timestamp"
	SortByDialogueState = "dialogue_state"
)

// ConversationFilter selects a page of a user's conversations
type ConversationFilter struct {
	UserID    string
	State     entities.DialogueState
	SortField string
	SortDesc  bool
	Page      int
	PerPage   int
}

// Offset returns the number of records to skip for the filter's page
func (f ConversationFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.PerPage
}

// ConversationRepository defines data access methods for conversations
type ConversationRepository interface {
	Create(ctx context.Context, conv *entities.Conversation) error
	GetByID(ctx context.Context, id string) (*entities.Conversation, error)
	// GetLatestByUserID returns nil without error when the user has no conversation
	GetLatestByUserID(ctx context.Context, userID string) (*entities.Conversation, error)
	List(ctx context.Context, filter ConversationFilter) ([]*entities.Conversation, int64, error)
	Update(ctx context.Context, conv *entities.Conversation) error
	Delete(ctx context.Context, id string) error
	// UpdateImageTaskStatus records job progress without touching dialogue state
	UpdateImageTaskStatus(ctx context.Context, id string, status entities.JobStatus, at time.Time) error
}

// SessionRepository defines data access methods for chat sessions
type SessionRepository interface {
	Create(ctx context.Context, session *entities.Session) error
	// GetActiveByUserID returns nil without error when there is no live session
	GetActiveByUserID(ctx context.Context, userID string) (*entities.Session, error)
	Update(ctx context.Context, session *entities.Session) error
	ExpireSessions(ctx context.Context) error
}
