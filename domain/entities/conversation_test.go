package entities

import (
	"testing"
	"time"
)

func TestNewConversation(t *testing.T) {
	conv := NewConversation("user-1", "")

	if conv.DialogueState != StateGreeting {
		t.Errorf("Expected state %s, got %s", StateGreeting, conv.DialogueState)
	}
	if conv.InputLanguage != "en" || conv.OutputLanguage != "en" {
		t.Errorf("Expected default language en, got %s/%s", conv.InputLanguage, conv.OutputLanguage)
	}
	if conv.Title != DefaultTitle {
		t.Errorf("Expected title %s, got %s", DefaultTitle, conv.Title)
	}
	if err := conv.Validate(); err != nil {
		t.Errorf("Expected valid conversation, got error: %v", err)
	}
}

func TestCurrentStateDefaultsToGreeting(t *testing.T) {
	var missing *Conversation
	if missing.CurrentState() != StateGreeting {
		t.Errorf("Expected nil conversation to be in greeting, got %s", missing.CurrentState())
	}

	empty := &Conversation{}
	if empty.CurrentState() != StateGreeting {
		t.Errorf("Expected empty state to be greeting, got %s", empty.CurrentState())
	}
}

func TestParseDialogueState(t *testing.T) {
	for _, s := range DialogueStates {
		got, err := ParseDialogueState(string(s))
		if err != nil {
			t.Errorf("Expected %s to parse, got error: %v", s, err)
		}
		if got != s {
			t.Errorf("Expected %s, got %s", s, got)
		}
	}

	if _, err := ParseDialogueState("Conversing"); err == nil {
		t.Error("Expected error for mis-cased state name")
	}
}

func TestRecordJobStatus(t *testing.T) {
	conv := NewConversation("user-1", "en")
	started := time.Now()

	conv.RecordJobStatus(JobStatusStarted, started)
	if conv.ImageTaskStartedAt == nil || !conv.ImageTaskStartedAt.Equal(started) {
		t.Error("Expected started timestamp to be recorded")
	}
	if conv.ImageTaskCompletedAt != nil {
		t.Error("Expected no completion timestamp yet")
	}

	conv.RecordJobStatus(JobStatusSuccess, started.Add(time.Second))
	if conv.ImageTaskStatus != JobStatusSuccess {
		t.Errorf("Expected status %s, got %s", JobStatusSuccess, conv.ImageTaskStatus)
	}
	if conv.ImageTaskCompletedAt == nil {
		t.Error("Expected completion timestamp to be recorded")
	}
}

func TestAddMessage(t *testing.T) {
	conv := NewConversation("user-1", "en")

	conv.AddMessage(SenderUser, "Hello", "", false)
	conv.AddMessage(SenderBot, "Hello! How can I help you today?", "", false)

	if len(conv.Messages) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(conv.Messages))
	}
	if conv.Messages[0].Sender != SenderUser {
		t.Errorf("Expected user sender, got %s", conv.Messages[0].Sender)
	}
	if conv.Messages[1].Sender != SenderBot {
		t.Errorf("Expected bot sender, got %s", conv.Messages[1].Sender)
	}
	if conv.Messages[0].ID == conv.Messages[1].ID {
		t.Error("Expected distinct message IDs")
	}
}
