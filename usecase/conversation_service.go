package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/satriahrh/lingua/adapters/translation"
	"github.com/satriahrh/lingua/domain/entities"
	"github.com/satriahrh/lingua/domain/repositories"
)

// Paging defaults for ListConversations
const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// ListRequest selects a page of the user's conversations
type ListRequest struct {
	UserID        string
	Page          int
	PerPage       int
	DialogueState string
	// SortField is "timestamp" or "dialogue_state".
	SortField string
	// SortOrder is "asc" or "desc".
	SortOrder string
}

// ConversationPage is one page of conversations
type ConversationPage struct {
	Conversations []*entities.Conversation `json:"conversations"`
	Total         int64                    `json:"total"`
	Page          int                      `json:"page"`
	PerPage       int                      `json:"per_page"`
}

// ConversationUpdate holds the administrative fields a user may change
type ConversationUpdate struct {
	Title         *string `json:"title,omitempty"`
	DialogueState *string `json:"dialogue_state,omitempty"`
}

// ConversationService manages conversation records outside of dialogue turns
type ConversationService struct {
	conversations repositories.ConversationRepository
	jobs          repositories.ImageJobTracker
	locks         *UserLocks
	logger        *zap.Logger
}

// NewConversationService creates a new conversation service. locks must be
// the table the ChatService uses so edits never interleave with a turn; nil
// gives the service its own.
func NewConversationService(
	conversations repositories.ConversationRepository,
	jobs repositories.ImageJobTracker,
	locks *UserLocks,
	logger *zap.Logger,
) *ConversationService {
	if locks == nil {
		locks = NewUserLocks()
	}
	return &ConversationService{
		conversations: conversations,
		jobs:          jobs,
		locks:         locks,
		logger:        logger,
	}
}

// Create starts a new conversation in the greeting state
func (s *ConversationService) Create(ctx context.Context, userID, title, language string) (*entities.Conversation, error) {
	if userID == "" {
		return nil, invalidf("user id is required")
	}
	code, ok := translation.NormalizeLanguage(language)
	if !ok {
		return nil, invalidf("unsupported language %q", language)
	}

	conv := entities.NewConversation(userID, code)
	if title = strings.TrimSpace(title); title != "" {
		conv.Title = title
	}
	if err := s.conversations.Create(ctx, conv); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	s.logger.Info("Conversation created",
		zap.String("userID", userID),
		zap.String("conversationID", conv.ID),
		zap.String("language", code))
	return conv, nil
}

// Get returns a conversation owned by userID
func (s *ConversationService) Get(ctx context.Context, userID, id string) (*entities.Conversation, error) {
	conv, err := s.conversations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if conv.UserID != userID {
		return nil, ErrForbidden
	}
	return conv, nil
}

// List returns a filtered, sorted page of the user's conversations
func (s *ConversationService) List(ctx context.Context, req ListRequest) (*ConversationPage, error) {
	filter := repositories.ConversationFilter{
		UserID:    req.UserID,
		Page:      req.Page,
		PerPage:   req.PerPage,
		SortField: repositories.SortByTimestamp,
		SortDesc:  true,
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PerPage < 1 {
		filter.PerPage = DefaultPerPage
	}
	if filter.PerPage > MaxPerPage {
		filter.PerPage = MaxPerPage
	}

	if req.DialogueState != "" {
		state, err := entities.ParseDialogueState(req.DialogueState)
		if err != nil {
			return nil, invalidf("%v", err)
		}
		filter.State = state
	}

	switch req.SortField {
	case "", repositories.SortByTimestamp:
	case repositories.SortByDialogueState:
		filter.SortField = repositories.SortByDialogueState
	default:
		return nil, invalidf("sort_field must be %q or %q", repositories.SortByTimestamp, repositories.SortByDialogueState)
	}

	switch strings.ToLower(req.SortOrder) {
	case "", "desc":
	case "asc":
		filter.SortDesc = false
	default:
		return nil, invalidf("sort_order must be asc or desc")
	}

	convs, total, err := s.conversations.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return &ConversationPage{
		Conversations: convs,
		Total:         total,
		Page:          filter.Page,
		PerPage:       filter.PerPage,
	}, nil
}

// Update changes the title and/or dialogue state of a conversation
func (s *ConversationService) Update(ctx context.Context, userID, id string, update ConversationUpdate) (*entities.Conversation, error) {
	unlock := s.locks.lock(userID)
	defer unlock()

	conv, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if update.Title != nil {
		title := strings.TrimSpace(*update.Title)
		if title == "" {
			return nil, invalidf("title cannot be empty")
		}
		conv.Title = title
	}
	if update.DialogueState != nil {
		state, err := entities.ParseDialogueState(*update.DialogueState)
		if err != nil {
			return nil, invalidf("%v", err)
		}
		conv.DialogueState = state
		if state != entities.StateGeneratingImage {
			conv.ImageTaskID = ""
		}
	}

	if err := s.conversations.Update(ctx, conv); err != nil {
		return nil, fmt.Errorf("failed to update conversation: %w", err)
	}
	return conv, nil
}

// Delete removes a conversation owned by userID
func (s *ConversationService) Delete(ctx context.Context, userID, id string) error {
	unlock := s.locks.lock(userID)
	defer unlock()

	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	if err := s.conversations.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	s.logger.Info("Conversation deleted", zap.String("userID", userID), zap.String("conversationID", id))
	return nil
}

// ImageStatus reports the status of an image generation task
func (s *ConversationService) ImageStatus(ctx context.Context, taskID string) (repositories.ImageJobStatus, error) {
	if strings.TrimSpace(taskID) == "" {
		return repositories.ImageJobStatus{}, invalidf("task id is required")
	}
	return s.jobs.Poll(ctx, taskID)
}
