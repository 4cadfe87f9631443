package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/satriahrh/lingua/domain/repositories"
	"github.com/satriahrh/lingua/internal/dialogue"
	"github.com/satriahrh/lingua/usecase"
)

func TestParseMessage(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    any
		wantErr bool
	}{
		{
			name:    "text chat",
			message: `{"type":"chat","text":"hello","language":"fr"}`,
			want:    &ChatMessage{},
		},
		{
			name:    "chat with image",
			message: `{"type":"chat","text":"look","image":"iVBORw0KGgo=","image_filename":"a.png"}`,
			want:    &ChatMessage{},
		},
		{
			name:    "bad base64 audio",
			message: `{"type":"chat","audio":"***"}`,
			wantErr: true,
		},
		{
			name:    "listening start",
			message: `{"type":"listening_start","conversation_id":"c1","language":"sw"}`,
			want:    &ListeningMessage{},
		},
		{
			name:    "ping",
			message: `{"type":"ping","data":"x"}`,
			want:    &PingMessage{},
		},
		{
			name:    "missing type",
			message: `{"text":"hello"}`,
			wantErr: true,
		},
		{
			name:    "unknown type",
			message: `{"type":"device_status"}`,
			wantErr: true,
		},
		{
			name:    "not json",
			message: `hello`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMessage([]byte(tt.message))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if fmt.Sprintf("%T", got) != fmt.Sprintf("%T", tt.want) {
				t.Errorf("Expected %T, got %T", tt.want, got)
			}
		})
	}
}

func TestChatMessage_TurnRequest(t *testing.T) {
	msg := &ChatMessage{
		ConversationID: "c1",
		Text:           "what is this?",
		Image:          "aGVsbG8=",
		ImageFilename:  "x.png",
		Language:       "yo",
	}

	req, err := msg.TurnRequest("u1")
	if err != nil {
		t.Fatalf("TurnRequest failed: %v", err)
	}
	if req.UserID != "u1" || req.ConversationID != "c1" || req.Language != "yo" {
		t.Errorf("Unexpected request %+v", req)
	}
	if req.Image == nil || string(req.Image.Data) != "hello" {
		t.Errorf("Expected decoded image, got %+v", req.Image)
	}
	if req.Audio != nil {
		t.Errorf("Expected no audio, got %+v", req.Audio)
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("wrap: %w", usecase.ErrInvalidInput), ErrorCodeInvalidInput},
		{usecase.ErrForbidden, ErrorCodeForbidden},
		{fmt.Errorf("load: %w", repositories.ErrConversationNotFound), ErrorCodeNotFound},
		{fmt.Errorf("turn: %w", dialogue.ErrMissingImageTask), ErrorCodeBadState},
		{errors.New("database on fire"), ErrorCodeInternal},
	}

	for _, tt := range tests {
		if got := errorCode(tt.err); got != tt.want {
			t.Errorf("errorCode(%v): expected %s, got %s", tt.err, tt.want, got)
		}
	}
}

func TestCreateErrorMessageFor_HidesInternalErrors(t *testing.T) {
	msg := CreateErrorMessageFor(errors.New("connection refused to 10.0.0.3"))
	if msg.Code != ErrorCodeInternal {
		t.Errorf("Expected %s, got %s", ErrorCodeInternal, msg.Code)
	}
	if msg.Message != dialogue.ResponseFallback {
		t.Errorf("Expected fallback message, got %q", msg.Message)
	}
}

func TestCreatePongMessage(t *testing.T) {
	pong := CreatePongMessage("test-data")

	data, err := json.Marshal(pong)
	if err != nil {
		t.Fatalf("Failed to marshal pong: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal pong: %v", err)
	}
	if decoded["type"] != string(MessageTypePong) {
		t.Errorf("Expected type pong, got %v", decoded["type"])
	}
	if decoded["data"] != "test-data" {
		t.Errorf("Expected data 'test-data', got %v", decoded["data"])
	}
	if decoded["timestamp"] == "" {
		t.Error("Expected timestamp to be set")
	}
}
