package entities

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DialogueState is the position of a conversation in the dialogue state machine
type DialogueState string

const (
	StateGreeting                  DialogueState = "greeting"
	StateConversing                DialogueState = "conversing"
	StateConfirmingImageGeneration DialogueState = "confirming_image_generation"
	StateGeneratingImage           DialogueState = "generating_image"
	StateConfirming                DialogueState = "confirming"
	StateEnd                       DialogueState = "end"
)

// DialogueStates lists every state in declaration order
var DialogueStates = []DialogueState{
	StateGreeting,
	StateConversing,
	StateConfirmingImageGeneration,
	StateGeneratingImage,
	StateConfirming,
	StateEnd,
}

// Valid reports whether s is one of the known dialogue states
func (s DialogueState) Valid() bool {
	switch s {
	case StateGreeting, StateConversing, StateConfirmingImageGeneration,
		StateGeneratingImage, StateConfirming, StateEnd:
		return true
	}
	return false
}

// ParseDialogueState converts a raw string into a DialogueState
func ParseDialogueState(raw string) (DialogueState, error) {
	s := DialogueState(raw)
	if !s.Valid() {
		return "", fmt.Errorf("invalid dialogue state %q", raw)
	}
	return s, nil
}

// InputKind describes what the user supplied in a turn
type InputKind string

const (
	InputKindText  InputKind = "text"
	InputKindAudio InputKind = "audio"
	// InputKindImage marks an image-only turn.
	InputKindImage InputKind = "image"
)

// JobStatus is the lifecycle status of an image generation job
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusStarted JobStatus = "STARTED"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailure JobStatus = "FAILURE"
	JobStatusUnknown JobStatus = "UNKNOWN"
)

// Terminal reports whether the job will not change status anymore
func (s JobStatus) Terminal() bool {
	return s == JobStatusSuccess || s == JobStatusFailure
}

// Sender identifies who authored a message
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Message is a single utterance stored on a conversation
type Message struct {
	ID        string    `json:"id" bson:"id"`
	Sender    Sender    `json:"sender" bson:"sender"`
	Text      string    `json:"text" bson:"text"`
	ImageURL  string    `json:"image_url,omitempty" bson:"image_url,omitempty"`
	HasAudio  bool      `json:"has_audio,omitempty" bson:"has_audio,omitempty"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// Conversation is the per-user dialogue record
type Conversation struct {
	ID                   string        `json:"id" bson:"_id"`
	UserID               string        `json:"user_id" bson:"user_id"`
	Title                string        `json:"title" bson:"title"`
	InputLanguage        string        `json:"input_language" bson:"input_language"`
	OutputLanguage       string        `json:"output_language" bson:"output_language"`
	DialogueState        DialogueState `json:"dialogue_state" bson:"dialogue_state"`
	LastInputKind        InputKind     `json:"last_input_kind,omitempty" bson:"last_input_kind,omitempty"`
	ImageTaskID          string        `json:"image_task_id,omitempty" bson:"image_task_id,omitempty"`
	ImageTaskStatus      JobStatus     `json:"image_task_status,omitempty" bson:"image_task_status,omitempty"`
	ImagePrompt          string        `json:"image_prompt,omitempty" bson:"image_prompt,omitempty"`
	ImageTaskStartedAt   *time.Time    `json:"image_task_started_at,omitempty" bson:"image_task_started_at,omitempty"`
	ImageTaskCompletedAt *time.Time    `json:"image_task_completed_at,omitempty" bson:"image_task_completed_at,omitempty"`
	CreatedAt            time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt            time.Time     `json:"updated_at" bson:"updated_at"`
	Messages             []Message     `json:"messages" bson:"messages"`
}

// DefaultTitle is used until a title can be derived from the first utterance
const DefaultTitle = "Chat"

// NewConversation creates a conversation in the greeting state
func NewConversation(userID, language string) *Conversation {
	now := time.Now().UTC()
	if language == "" {
		language = "en"
	}
	return &Conversation{
		ID:             uuid.New().String(),
		UserID:         userID,
		Title:          DefaultTitle,
		InputLanguage:  language,
		OutputLanguage: language,
		DialogueState:  StateGreeting,
		CreatedAt:      now,
		UpdatedAt:      now,
		Messages:       make([]Message, 0),
	}
}

// CurrentState returns the dialogue state, treating an empty record as greeting
func (c *Conversation) CurrentState() DialogueState {
	if c == nil || c.DialogueState == "" {
		return StateGreeting
	}
	return c.DialogueState
}

// AddMessage appends a message and touches UpdatedAt
func (c *Conversation) AddMessage(sender Sender, text, imageURL string, hasAudio bool) Message {
	now := time.Now().UTC()
	msg := Message{
		ID:        uuid.New().String(),
		Sender:    sender,
		Text:      text,
		ImageURL:  imageURL,
		HasAudio:  hasAudio,
		Timestamp: now,
	}
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = now
	return msg
}

// RecordJobStatus stores the latest image job status and its timestamps
func (c *Conversation) RecordJobStatus(status JobStatus, at time.Time) {
	c.ImageTaskStatus = status
	switch status {
	case JobStatusStarted:
		c.ImageTaskStartedAt = &at
	case JobStatusSuccess, JobStatusFailure:
		c.ImageTaskCompletedAt = &at
	}
	c.UpdatedAt = at
}

// Validate validates the conversation data
func (c *Conversation) Validate() error {
	if c.ID == "" {
		return errors.New("id is required")
	}
	if c.UserID == "" {
		return errors.New("user_id is required")
	}
	if c.DialogueState != "" && !c.DialogueState.Valid() {
		return fmt.Errorf("invalid dialogue state %q", c.DialogueState)
	}
	return nil
}
