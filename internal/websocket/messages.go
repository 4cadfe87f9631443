package websocket

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/satriahrh/lingua/domain/repositories"
	"github.com/satriahrh/lingua/internal/dialogue"
	"github.com/satriahrh/lingua/usecase"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Client to server message types
const (
	MessageTypeChat           MessageType = "chat"
	MessageTypeListeningStart MessageType = "listening_start"
	MessageTypeListeningEnd   MessageType = "listening_end"
	MessageTypePing           MessageType = "ping"
)

// Server to client message types
const (
	MessageTypeChatResponse  MessageType = "chat_response"
	MessageTypeImageStatus   MessageType = "image_status"
	MessageTypeSpeakingStart MessageType = "speaking_start"
	MessageTypeSpeakingEnd   MessageType = "speaking_end"
	MessageTypePong          MessageType = "pong"
	MessageTypeError         MessageType = "error"
)

// Error codes sent in ErrorMessage
const (
	ErrorCodeInvalidMessage = "invalid_message"
	ErrorCodeInvalidInput   = "invalid_input"
	ErrorCodeForbidden      = "forbidden"
	ErrorCodeNotFound       = "not_found"
	ErrorCodeBadState       = "bad_state"
	ErrorCodeInternal       = "internal_error"
)

// BaseMessage defines the common structure for all WebSocket messages
type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp string      `json:"timestamp,omitempty"`
	MessageID string      `json:"message_id,omitempty"`
}

// ChatMessage is a text or multimodal turn sent by the client. Audio and
// image payloads are base64 encoded.
type ChatMessage struct {
	BaseMessage
	ConversationID string `json:"conversation_id,omitempty"`
	Text           string `json:"text,omitempty"`
	Language       string `json:"language,omitempty"`
	Audio          string `json:"audio,omitempty"`
	AudioFilename  string `json:"audio_filename,omitempty"`
	Image          string `json:"image,omitempty"`
	ImageFilename  string `json:"image_filename,omitempty"`
	ImageURL       string `json:"image_url,omitempty"`
	// Voice asks for the reply to be spoken as well.
	Voice bool `json:"voice,omitempty"`
}

// ListeningMessage opens or closes a binary audio stream for one turn
type ListeningMessage struct {
	BaseMessage
	ConversationID string `json:"conversation_id,omitempty"`
	Language       string `json:"language,omitempty"`
	Voice          bool   `json:"voice,omitempty"`
}

// PingMessage represents a ping message for connection health check
type PingMessage struct {
	BaseMessage
	Data string `json:"data,omitempty"`
}

// PongMessage represents a pong response
type PongMessage struct {
	BaseMessage
	Data string `json:"data,omitempty"`
}

// ChatResponseMessage carries the result of a turn
type ChatResponseMessage struct {
	BaseMessage
	*usecase.TurnResponse
}

// ImageStatusMessage is pushed when an image job finishes
type ImageStatusMessage struct {
	BaseMessage
	ConversationID string `json:"conversation_id,omitempty"`
	repositories.ImageJobStatus
}

// SpeakingMessage brackets the binary audio frames of a spoken reply
type SpeakingMessage struct {
	BaseMessage
	ConversationID string `json:"conversation_id,omitempty"`
	ContentType    string `json:"content_type,omitempty"`
	Bytes          int    `json:"bytes,omitempty"`
}

// ErrorMessage represents an error response
type ErrorMessage struct {
	BaseMessage
	Code    string `json:"error_code"`
	Message string `json:"message"`
}

// ParseMessage decodes and validates an incoming text frame
func ParseMessage(raw []byte) (any, error) {
	var base BaseMessage
	if err := json.Unmarshal(raw, &base); err != nil {
		return nil, fmt.Errorf("invalid JSON format: %w", err)
	}

	switch base.Type {
	case MessageTypeChat:
		var msg ChatMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, fmt.Errorf("invalid chat message: %w", err)
		}
		if _, err := msg.TurnRequest(""); err != nil {
			return nil, err
		}
		return &msg, nil

	case MessageTypeListeningStart, MessageTypeListeningEnd:
		var msg ListeningMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, fmt.Errorf("invalid %s message: %w", base.Type, err)
		}
		return &msg, nil

	case MessageTypePing:
		var msg PingMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, fmt.Errorf("invalid ping message: %w", err)
		}
		return &msg, nil

	case "":
		return nil, errors.New("message type is required")
	default:
		return nil, fmt.Errorf("unsupported message type: %s", base.Type)
	}
}

// TurnRequest converts the message into a chat turn for userID
func (m *ChatMessage) TurnRequest(userID string) (usecase.TurnRequest, error) {
	req := usecase.TurnRequest{
		UserID:         userID,
		ConversationID: m.ConversationID,
		Text:           m.Text,
		ImageURL:       m.ImageURL,
		Language:       m.Language,
	}
	if m.Audio != "" {
		data, err := base64.StdEncoding.DecodeString(m.Audio)
		if err != nil {
			return req, fmt.Errorf("audio is not valid base64: %w", err)
		}
		req.Audio = &usecase.Upload{Filename: m.AudioFilename, Data: data}
	}
	if m.Image != "" {
		data, err := base64.StdEncoding.DecodeString(m.Image)
		if err != nil {
			return req, fmt.Errorf("image is not valid base64: %w", err)
		}
		req.Image = &usecase.Upload{Filename: m.ImageFilename, Data: data}
	}
	return req, nil
}

// errorCode maps a turn error onto a client-facing code
func errorCode(err error) string {
	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		return ErrorCodeInvalidInput
	case errors.Is(err, usecase.ErrForbidden):
		return ErrorCodeForbidden
	case usecase.IsNotFound(err):
		return ErrorCodeNotFound
	case errors.Is(err, dialogue.ErrMissingImageTask):
		return ErrorCodeBadState
	default:
		return ErrorCodeInternal
	}
}

// CreateErrorMessage creates a standardized error message
func CreateErrorMessage(code, message string) *ErrorMessage {
	return &ErrorMessage{
		BaseMessage: newBase(MessageTypeError),
		Code:        code,
		Message:     message,
	}
}

// CreateErrorMessageFor builds the error frame for a failed turn. Internal
// errors are not echoed to the client.
func CreateErrorMessageFor(err error) *ErrorMessage {
	code := errorCode(err)
	message := err.Error()
	if code == ErrorCodeInternal {
		message = dialogue.ResponseFallback
	}
	return CreateErrorMessage(code, strings.TrimSpace(message))
}

// CreatePongMessage creates a pong response message
func CreatePongMessage(data string) *PongMessage {
	return &PongMessage{BaseMessage: newBase(MessageTypePong), Data: data}
}

func newBase(t MessageType) BaseMessage {
	return BaseMessage{Type: t, Timestamp: time.Now().UTC().Format(time.RFC3339)}
}
