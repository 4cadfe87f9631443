package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/satriahrh/lingua/domain/entities"
	"github.com/satriahrh/lingua/domain/repositories"
)

// SessionRepository is an in-memory implementation of repositories.SessionRepository
type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*entities.Session // id -> session
	byUser   map[string]string            // user_id -> active session id
}

var _ repositories.SessionRepository = (*SessionRepository)(nil)

// NewSessionRepository creates a new in-memory session repository
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		sessions: make(map[string]*entities.Session),
		byUser:   make(map[string]string),
	}
}

// Create implements SessionRepository interface
func (r *SessionRepository) Create(ctx context.Context, session *entities.Session) error {
	if session == nil {
		return errors.New("session cannot be nil")
	}
	if err := session.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byUser[session.UserID]; ok {
		if existing := r.sessions[id]; existing != nil && !existing.IsExpired() {
			return errors.New("user already has an active session")
		}
	}

	cp := *session
	r.sessions[session.ID] = &cp
	r.byUser[session.UserID] = session.ID
	return nil
}

// GetActiveByUserID implements SessionRepository interface
func (r *SessionRepository) GetActiveByUserID(ctx context.Context, userID string) (*entities.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUser[userID]
	if !ok {
		return nil, nil
	}
	session := r.sessions[id]
	if session == nil || session.IsExpired() {
		return nil, nil
	}
	cp := *session
	return &cp, nil
}

// Update implements SessionRepository interface
func (r *SessionRepository) Update(ctx context.Context, session *entities.Session) error {
	if session == nil {
		return errors.New("session cannot be nil")
	}
	if err := session.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[session.ID]; !ok {
		return repositories.ErrSessionNotFound
	}
	cp := *session
	r.sessions[session.ID] = &cp
	return nil
}

// ExpireSessions implements SessionRepository interface
func (r *SessionRepository) ExpireSessions(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, session := range r.sessions {
		if !session.IsExpired() {
			continue
		}
		delete(r.sessions, id)
		if r.byUser[session.UserID] == id {
			delete(r.byUser, session.UserID)
		}
	}
	return nil
}

// Count returns the number of stored sessions
func (r *SessionRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
