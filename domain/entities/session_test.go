package entities

import (
	"testing"
	"time"
)

func TestSessionCreation(t *testing.T) {
	userID := "user-123"
	session := NewSession(userID)

	if session.UserID != userID {
		t.Errorf("Expected user ID %s, got %s", userID, session.UserID)
	}

	if session.Status != SessionStatusActive {
		t.Errorf("Expected status %s, got %s", SessionStatusActive, session.Status)
	}

	if session.ShortResponseStreak != 0 {
		t.Errorf("Expected empty streak, got %d", session.ShortResponseStreak)
	}

	if got := session.ExpiresAt.Sub(session.LastActiveAt); got != SessionLifetime {
		t.Errorf("Expected lifetime %s, got %s", SessionLifetime, got)
	}
}

func TestSetStreak(t *testing.T) {
	session := NewSession("user")

	session.SetStreak(2)
	if session.ShortResponseStreak != 2 {
		t.Errorf("Expected streak 2, got %d", session.ShortResponseStreak)
	}

	session.SetStreak(-4)
	if session.ShortResponseStreak != 0 {
		t.Errorf("Expected negative streak to clamp to 0, got %d", session.ShortResponseStreak)
	}
}

func TestSessionExpiry(t *testing.T) {
	session := NewSession("user")
	if session.IsExpired() {
		t.Error("Expected new session to be active")
	}

	session.ExpiresAt = time.Now().Add(-time.Minute)
	if !session.IsExpired() {
		t.Error("Expected session past its expiry to be expired")
	}

	session = NewSession("user")
	session.Terminate()
	if !session.IsExpired() {
		t.Error("Expected terminated session to be expired")
	}
}

func TestSessionValidation(t *testing.T) {
	session := NewSession("user")
	if err := session.Validate(); err != nil {
		t.Errorf("Expected valid session, got error: %v", err)
	}

	session.UserID = ""
	if err := session.Validate(); err == nil {
		t.Error("Expected error for missing user ID")
	}

	session = NewSession("user")
	session.Status = "paused"
	if err := session.Validate(); err == nil {
		t.Error("Expected error for invalid status")
	}
}
