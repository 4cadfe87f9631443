package websocket

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/lingua/domain/repositories"
)

const (
	defaultCleanupInterval = 5 * time.Minute
	cleanupTimeout         = time.Minute
)

// SessionCleanupService periodically expires chat sessions that outlived
// their lifetime so the next turn starts with a fresh streak.
type SessionCleanupService struct {
	sessionRepo repositories.SessionRepository
	interval    time.Duration
	logger      *zap.Logger
	stopChan    chan struct{}
	done        chan struct{}
}

// NewSessionCleanupService creates a new session cleanup service
func NewSessionCleanupService(sessionRepo repositories.SessionRepository, interval time.Duration, logger *zap.Logger) *SessionCleanupService {
	if interval <= 0 {
		interval = defaultCleanupInterval
		logger.Info("Using default session cleanup interval", zap.Duration("interval", interval))
	}
	return &SessionCleanupService{
		sessionRepo: sessionRepo,
		interval:    interval,
		logger:      logger,
		stopChan:    make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Start begins the background cleanup process
func (s *SessionCleanupService) Start() {
	go s.cleanupLoop()
	s.logger.Info("Session cleanup service started", zap.Duration("interval", s.interval))
}

// Stop stops the cleanup loop and waits for it to exit
func (s *SessionCleanupService) Stop() {
	close(s.stopChan)
	<-s.done
	s.logger.Info("Session cleanup service stopped")
}

func (s *SessionCleanupService) cleanupLoop() {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.runCleanup()
		}
	}
}

// runCleanup performs the actual cleanup of expired sessions
func (s *SessionCleanupService) runCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()

	if err := s.sessionRepo.ExpireSessions(ctx); err != nil {
		s.logger.Error("Failed to expire sessions", zap.Error(err))
		return
	}
	s.logger.Debug("Session cleanup completed")
}
