package entities

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// SessionLifetime is how long a chat session survives without activity
const SessionLifetime = 30 * time.Minute

// SessionStatus represents the status of a session
type SessionStatus string

const (
	SessionStatusActive     SessionStatus = "active"
	SessionStatusExpired    SessionStatus = "expired"
	SessionStatusTerminated SessionStatus = "terminated"
)

// Session holds per-user turn-taking state that lives outside the conversation record
type Session struct {
	ID           string        `json:"id" bson:"_id"`
	UserID       string        `json:"user_id" bson:"user_id"`
	CreatedAt    time.Time     `json:"created_at" bson:"created_at"`
	LastActiveAt time.Time     `json:"last_active_at" bson:"last_active_at"`
	ExpiresAt    time.Time     `json:"expires_at" bson:"expires_at"`
	Status       SessionStatus `json:"status" bson:"status"`

	// ShortResponseStreak counts consecutive short bot responses.
	ShortResponseStreak int `json:"short_response_streak" bson:"short_response_streak"`
}

// NewSession creates a new active session for a user
func NewSession(userID string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:           uuid.New().String(),
		UserID:       userID,
		CreatedAt:    now,
		LastActiveAt: now,
		ExpiresAt:    now.Add(SessionLifetime),
		Status:       SessionStatusActive,
	}
}

// UpdateLastActive updates the last active timestamp and extends expiration
func (s *Session) UpdateLastActive() {
	s.LastActiveAt = time.Now().UTC()
	s.ExpiresAt = s.LastActiveAt.Add(SessionLifetime)
}

// SetStreak stores the short-response streak, clamping negatives to zero
func (s *Session) SetStreak(n int) {
	if n < 0 {
		n = 0
	}
	s.ShortResponseStreak = n
	s.UpdateLastActive()
}

// IsExpired checks if the session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt) || s.Status != SessionStatusActive
}

// Terminate marks the session as terminated
func (s *Session) Terminate() {
	s.Status = SessionStatusTerminated
	s.UpdateLastActive()
}

// Expire marks the session as expired
func (s *Session) Expire() {
	s.Status = SessionStatusExpired
}

// Validate validates the session data
func (s *Session) Validate() error {
	if s.UserID == "" {
		return errors.New("user_id is required")
	}

	if s.Status != SessionStatusActive && s.Status != SessionStatusExpired && s.Status != SessionStatusTerminated {
		return errors.New("invalid session status")
	}

	if s.ShortResponseStreak < 0 {
		return errors.New("short_response_streak must not be negative")
	}

	return nil
}
