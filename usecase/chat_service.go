package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/satriahrh/lingua/adapters/imagestore"
	"github.com/satriahrh/lingua/adapters/translation"
	"github.com/satriahrh/lingua/domain/entities"
	"github.com/satriahrh/lingua/domain/repositories"
	"github.com/satriahrh/lingua/internal/dialogue"
	"github.com/satriahrh/lingua/internal/metrics"
)

// HistoryLength is how many stored messages are replayed to the model
const HistoryLength = 10

// TurnEngine runs one dialogue transition
type TurnEngine interface {
	Turn(ctx context.Context, in dialogue.TurnInput) (*dialogue.TurnResult, error)
}

// TurnResponse is what the user gets back for one turn
type TurnResponse struct {
	ConversationID string                 `json:"conversation_id"`
	Response       string                 `json:"response"`
	State          entities.DialogueState `json:"dialogue_state"`
	Language       string                 `json:"language"`
	ImageTaskID    string                 `json:"image_task_id,omitempty"`
	ImageURL       string                 `json:"image_url,omitempty"`
	// Transcript is the recognised speech for audio turns.
	Transcript  string           `json:"transcript,omitempty"`
	Sentiment   float64          `json:"sentiment"`
	UserMessage entities.Message `json:"user_message"`
	BotMessage  entities.Message `json:"bot_message"`
}

// ChatServiceDeps groups the collaborators of ChatService
type ChatServiceDeps struct {
	Engine        TurnEngine
	Conversations repositories.ConversationRepository
	Sessions      repositories.SessionRepository
	SpeechToText  repositories.SpeechToText
	Translator    repositories.Translator
	Images        repositories.ImageStore
	// Metrics is optional.
	Metrics *metrics.Metrics
	// Locks serializes per-user writes. Share it with ConversationService.
	Locks *UserLocks
}

// ChatService runs user turns end to end: input processing, the dialogue
// engine, translation and persistence.
type ChatService struct {
	engine        TurnEngine
	conversations repositories.ConversationRepository
	sessions      repositories.SessionRepository
	translator    repositories.Translator
	images        repositories.ImageStore
	input         *inputProcessor
	metrics       *metrics.Metrics
	locks         *UserLocks
	logger        *zap.Logger
}

// NewChatService creates a new chat service
func NewChatService(deps ChatServiceDeps, logger *zap.Logger) *ChatService {
	translator := deps.Translator
	if translator == nil {
		logger.Info("No translator configured, replies stay in English")
		translator = translation.Passthrough{}
	}
	locks := deps.Locks
	if locks == nil {
		locks = NewUserLocks()
	}
	return &ChatService{
		engine:        deps.Engine,
		conversations: deps.Conversations,
		sessions:      deps.Sessions,
		translator:    translator,
		images:        deps.Images,
		input: &inputProcessor{
			stt:        deps.SpeechToText,
			translator: translator,
			images:     deps.Images,
			logger:     logger,
		},
		metrics: deps.Metrics,
		locks:   locks,
		logger:  logger,
	}
}

// Turn processes one user turn. Turns of the same user are serialized.
func (s *ChatService) Turn(ctx context.Context, req TurnRequest) (*TurnResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var language string
	if strings.TrimSpace(req.Language) != "" {
		code, ok := translation.NormalizeLanguage(req.Language)
		if !ok {
			return nil, invalidf("unsupported language %q, expected one of %s",
				req.Language, strings.Join(translation.SupportedCodes(), ", "))
		}
		language = code
	}

	if s.metrics != nil {
		s.metrics.TurnsInFlight.Inc()
		defer s.metrics.TurnsInFlight.Dec()
	}

	unlock := s.locks.lock(req.UserID)
	defer unlock()

	conv, isNew, err := s.loadConversation(ctx, req.UserID, req.ConversationID, language)
	if err != nil {
		return nil, err
	}
	if language == "" {
		language = conv.InputLanguage
	}
	if language == "" {
		language = translation.English
	}

	input, err := s.input.process(ctx, req, language)
	if err != nil {
		return nil, err
	}
	if input.English == "" && len(input.Images) == 0 {
		return nil, invalidf("nothing was said")
	}
	if isNew {
		if err := s.conversations.Create(ctx, conv); err != nil {
			return nil, fmt.Errorf("failed to create conversation: %w", err)
		}
		s.logger.Info("Started new conversation",
			zap.String("userID", req.UserID),
			zap.String("conversationID", conv.ID))
	}
	if input.ImageURL == "" && len(input.Images) > 0 && req.Image != nil {
		input.ImageURL = s.saveUpload(ctx, req.UserID, input.Images[0])
	}

	session, err := s.activeSession(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	from := conv.CurrentState()
	result, err := s.engine.Turn(ctx, dialogue.TurnInput{
		UserID:         req.UserID,
		ConversationID: conv.ID,
		Text:           input.English,
		Prompt: repositories.Prompt{
			Text:    input.English,
			Images:  input.Images,
			History: history(conv.Messages, HistoryLength),
		},
		Language:            language,
		InputKind:           input.Kind,
		State:               from,
		ImageTaskID:         conv.ImageTaskID,
		PendingImagePrompt:  conv.ImagePrompt,
		ShortResponseStreak: session.ShortResponseStreak,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to run dialogue turn: %w", err)
	}

	reply := s.localize(ctx, req.UserID, result.Response, language)

	conv.InputLanguage, conv.OutputLanguage = language, language
	conv.LastInputKind = input.Kind
	conv.DialogueState = result.State
	// The task id is kept only while the image is being generated.
	if result.State == entities.StateGeneratingImage {
		conv.ImageTaskID = result.ImageTaskID
	} else {
		conv.ImageTaskID = ""
	}
	conv.ImagePrompt = result.ImagePrompt
	if conv.Title == entities.DefaultTitle && input.English != "" {
		conv.Title = GenerateTitle(input.English)
	}
	userMsg := conv.AddMessage(entities.SenderUser, input.Original, input.ImageURL, input.Kind == entities.InputKindAudio)
	botMsg := conv.AddMessage(entities.SenderBot, reply, result.ImageURL, false)

	if err := s.conversations.Update(ctx, conv); err != nil {
		return nil, fmt.Errorf("failed to save conversation: %w", err)
	}

	session.SetStreak(result.ShortResponseStreak)
	if err := s.sessions.Update(ctx, session); err != nil {
		s.logger.Error("Failed to save chat session",
			zap.String("userID", req.UserID),
			zap.String("sessionID", session.ID),
			zap.Error(err))
	}

	if s.metrics != nil {
		s.metrics.RecordTurn(input.Kind, from, result.State, result.Sentiment, result.Fallback)
	}
	s.logger.Info("Turn processed",
		zap.String("userID", req.UserID),
		zap.String("conversationID", conv.ID),
		zap.String("from", string(from)),
		zap.String("to", string(result.State)),
		zap.String("language", language))

	resp := &TurnResponse{
		ConversationID: conv.ID,
		Response:       reply,
		State:          result.State,
		Language:       language,
		ImageTaskID:    result.ImageTaskID,
		ImageURL:       result.ImageURL,
		Sentiment:      result.Sentiment,
		UserMessage:    userMsg,
		BotMessage:     botMsg,
	}
	if input.Kind == entities.InputKindAudio {
		resp.Transcript = input.Original
	}
	return resp, nil
}

// loadConversation resolves the conversation a turn belongs to. Without an
// id the user's latest conversation is continued, or a new one is returned
// unsaved with isNew set so nothing is stored for a turn that fails early.
func (s *ChatService) loadConversation(ctx context.Context, userID, id, language string) (conv *entities.Conversation, isNew bool, err error) {
	if id != "" {
		conv, err = s.conversations.GetByID(ctx, id)
		if err != nil {
			return nil, false, fmt.Errorf("failed to load conversation %s: %w", id, err)
		}
		if conv.UserID != userID {
			return nil, false, ErrForbidden
		}
		return conv, false, nil
	}

	conv, err = s.conversations.GetLatestByUserID(ctx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load latest conversation: %w", err)
	}
	if conv != nil {
		return conv, false, nil
	}
	return entities.NewConversation(userID, language), true, nil
}

// activeSession returns the user's live chat session, starting a new one
// with a zero streak when the previous session expired.
func (s *ChatService) activeSession(ctx context.Context, userID string) (*entities.Session, error) {
	session, err := s.sessions.GetActiveByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat session: %w", err)
	}
	if session != nil {
		return session, nil
	}

	session = entities.NewSession(userID)
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create chat session: %w", err)
	}
	return session, nil
}

// localize translates an English reply to the conversation language,
// keeping the English text when translation fails.
func (s *ChatService) localize(ctx context.Context, userID, reply, language string) string {
	if language == translation.English {
		return reply
	}
	translated, err := s.translator.Translate(ctx, reply, translation.English, language)
	if err != nil {
		s.logger.Warn("Response translation failed, replying in English",
			zap.String("userID", userID),
			zap.String("language", language),
			zap.Error(err))
		return reply
	}
	return translated
}

func (s *ChatService) saveUpload(ctx context.Context, userID string, img repositories.Image) string {
	if s.images == nil {
		return ""
	}
	name := fmt.Sprintf("uploads/%s/%s%s", userID, uuid.New().String(), imagestore.ExtensionFor(img.MIMEType))
	url, err := s.images.Save(ctx, name, &img)
	if err != nil {
		s.logger.Warn("Failed to store uploaded image", zap.String("userID", userID), zap.Error(err))
		return ""
	}
	return url
}

// history converts the last n stored messages to model chat history
func history(messages []entities.Message, n int) []repositories.ChatMessage {
	if len(messages) > n {
		messages = messages[len(messages)-n:]
	}
	out := make([]repositories.ChatMessage, 0, len(messages))
	for _, m := range messages {
		if strings.TrimSpace(m.Text) == "" {
			continue
		}
		role := repositories.UserRole
		if m.Sender == entities.SenderBot {
			role = repositories.ModelRole
		}
		out = append(out, repositories.ChatMessage{Role: role, Content: m.Text})
	}
	return out
}

// IsNotFound reports whether err means the conversation does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, repositories.ErrConversationNotFound)
}
