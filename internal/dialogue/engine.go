package dialogue

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/satriahrh/lingua/domain/entities"
	"github.com/satriahrh/lingua/domain/repositories"
)

// ErrMissingImageTask is returned when a conversation is generating an image
// but carries no job id.
var ErrMissingImageTask = errors.New("conversation is generating an image but has no image task id")

// IntentDetector is the image intent check used in the conversing state
type IntentDetector interface {
	WantsImage(ctx context.Context, text string) (bool, error)
}

// ConfirmationDecider decides when a generated reply should lead to confirming
type ConfirmationDecider interface {
	ShouldConfirm(ctx context.Context, response string, streak int) (bool, int)
}

// TurnInput is everything the engine needs to run one turn
type TurnInput struct {
	UserID         string
	ConversationID string
	// Text is the English utterance. It is empty for image-only turns.
	Text string
	// Prompt is the model-ready input, including any images and history.
	Prompt    repositories.Prompt
	Language  string
	InputKind entities.InputKind

	State              entities.DialogueState
	ImageTaskID        string
	PendingImagePrompt string

	ShortResponseStreak int
}

// TurnResult is the outcome of one turn
type TurnResult struct {
	Response    string
	State       entities.DialogueState
	ImageTaskID string
	ImageURL    string
	// ImagePrompt is the description to remember until the user confirms.
	ImagePrompt         string
	Sentiment           float64
	ShortResponseStreak int
	// Fallback is set when a collaborator failed and the generic reply was used.
	Fallback bool
}

// Engine runs the dialogue state machine
type Engine struct {
	intent    IntentDetector
	confirm   ConfirmationDecider
	generator repositories.LargeLanguageModel
	sentiment repositories.SentimentScorer
	jobs      repositories.ImageJobTracker
	logger    *zap.Logger
}

// NewEngine creates a dialogue engine
func NewEngine(
	intent IntentDetector,
	confirm ConfirmationDecider,
	generator repositories.LargeLanguageModel,
	sentiment repositories.SentimentScorer,
	jobs repositories.ImageJobTracker,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		intent:    intent,
		confirm:   confirm,
		generator: generator,
		sentiment: sentiment,
		jobs:      jobs,
		logger:    logger,
	}
}

// Turn executes exactly one transition for the given input
func (e *Engine) Turn(ctx context.Context, in TurnInput) (*TurnResult, error) {
	state := in.State
	if state == "" {
		state = entities.StateGreeting
	}
	if !state.Valid() {
		return nil, fmt.Errorf("unknown dialogue state %q", state)
	}

	res := &TurnResult{
		ShortResponseStreak: in.ShortResponseStreak,
		Sentiment:           e.polarity(ctx, in),
	}

	var err error
	switch state {
	case entities.StateGreeting:
		e.greeting(res)
	case entities.StateConversing:
		e.conversing(ctx, in, res)
	case entities.StateConfirmingImageGeneration:
		e.confirmingImageGeneration(ctx, in, res)
	case entities.StateGeneratingImage:
		err = e.generatingImage(ctx, in, res)
	case entities.StateConfirming:
		e.confirming(in, res)
	case entities.StateEnd:
		res.Response, res.State = ResponseGoodbye, entities.StateEnd
	}
	if err != nil {
		return nil, err
	}

	e.logger.Debug("Dialogue turn completed",
		zap.String("userID", in.UserID),
		zap.String("from", string(state)),
		zap.String("to", string(res.State)),
		zap.Bool("fallback", res.Fallback))

	return res, nil
}

func (e *Engine) polarity(ctx context.Context, in TurnInput) float64 {
	if strings.TrimSpace(in.Text) == "" || e.sentiment == nil {
		return 0
	}
	score, err := e.sentiment.Polarity(ctx, in.Text)
	if err != nil {
		e.logger.Warn("Sentiment scoring failed, treating as neutral",
			zap.String("userID", in.UserID),
			zap.Error(err))
		return 0
	}
	return score
}

func (e *Engine) fallback(res *TurnResult, next entities.DialogueState) {
	res.Response = ResponseFallback
	res.State = next
	res.Fallback = true
}

func (e *Engine) greeting(res *TurnResult) {
	if res.Sentiment >= 0 {
		res.Response = ResponseGreeting
	} else {
		res.Response = ResponseEmpatheticGreeting
	}
	res.State = entities.StateConversing
}

func (e *Engine) conversing(ctx context.Context, in TurnInput, res *TurnResult) {
	text := strings.TrimSpace(in.Text)

	// Image-only turns have no utterance to classify.
	if in.InputKind != entities.InputKindImage && text != "" {
		wants, err := e.intent.WantsImage(ctx, text)
		if err != nil {
			e.logger.Error("Image intent check failed", zap.String("userID", in.UserID), zap.Error(err))
			e.fallback(res, entities.StateConversing)
			return
		}
		if wants {
			res.Response = ResponseAskImagePrompt
			res.State = entities.StateConfirmingImageGeneration
			res.ImagePrompt = text
			return
		}
	}

	reply, err := e.generator.Generate(ctx, in.Prompt)
	if err != nil {
		e.logger.Error("Response generation failed", zap.String("userID", in.UserID), zap.Error(err))
		e.fallback(res, entities.StateConversing)
		return
	}
	if strings.TrimSpace(reply) == "" {
		e.logger.Warn("Model returned an empty reply", zap.String("userID", in.UserID))
		reply = ResponseRephrase
	}

	confirm, streak := e.confirm.ShouldConfirm(ctx, reply, in.ShortResponseStreak)
	res.Response = reply
	res.ShortResponseStreak = streak
	if confirm {
		res.State = entities.StateConfirming
	} else {
		res.State = entities.StateConversing
	}
}

func (e *Engine) confirmingImageGeneration(ctx context.Context, in TurnInput, res *TurnResult) {
	if !containsAny(in.Text, imageAffirmatives) {
		res.Response = ResponseKeepChatting
		res.State = entities.StateConversing
		return
	}

	prompt := imagePrompt(in.Text, in.PendingImagePrompt)
	id, err := e.jobs.Submit(ctx, repositories.ImageJobRequest{
		ConversationID: in.ConversationID,
		UserID:         in.UserID,
		Prompt:         prompt,
	})
	if err != nil {
		e.logger.Error("Image job submission failed", zap.String("userID", in.UserID), zap.Error(err))
		e.fallback(res, entities.StateConversing)
		return
	}

	res.Response = ResponseGeneratingImage
	res.State = entities.StateGeneratingImage
	res.ImageTaskID = id
	res.ImagePrompt = prompt
}

func (e *Engine) generatingImage(ctx context.Context, in TurnInput, res *TurnResult) error {
	if in.ImageTaskID == "" {
		return ErrMissingImageTask
	}
	res.ImageTaskID = in.ImageTaskID

	status, err := e.jobs.Poll(ctx, in.ImageTaskID)
	if err != nil {
		e.logger.Error("Image job poll failed",
			zap.String("userID", in.UserID),
			zap.String("taskID", in.ImageTaskID),
			zap.Error(err))
		e.fallback(res, entities.StateConversing)
		return nil
	}

	switch status.Status {
	case entities.JobStatusSuccess:
		if status.URL == "" {
			res.Response, res.State = ResponseImageStatusUnknown, entities.StateConversing
			return nil
		}
		res.Response = fmt.Sprintf(ResponseImageReady, status.URL)
		res.ImageURL = status.URL
		res.State = entities.StateConfirming
	case entities.JobStatusPending, entities.JobStatusStarted:
		res.Response = ResponseStillGenerating
		res.State = entities.StateGeneratingImage
		res.ImagePrompt = in.PendingImagePrompt
	case entities.JobStatusFailure:
		res.Response = ResponseImageFailed
		res.State = entities.StateConversing
	default:
		res.Response = ResponseImageStatusUnknown
		res.State = entities.StateConversing
	}
	return nil
}

func (e *Engine) confirming(in TurnInput, res *TurnResult) {
	switch {
	case containsAny(in.Text, closingAffirmatives):
		res.Response, res.State = ResponseWhatElse, entities.StateConversing
	case res.Sentiment >= 0:
		res.Response, res.State = ResponseFarewellPositive, entities.StateEnd
	default:
		res.Response, res.State = ResponseFarewellEmpathetic, entities.StateEnd
	}
}

// imagePrompt picks the description to render. An answer that is only
// agreement ("yes please") falls back to the utterance that raised the intent.
func imagePrompt(answer, pending string) string {
	answer = strings.TrimSpace(answer)
	if pending == "" {
		return answer
	}
	for _, word := range strings.FieldsFunc(strings.ToLower(answer), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '\'' || r > 127)
	}) {
		if !fillerWords[word] {
			return answer
		}
	}
	return pending
}
