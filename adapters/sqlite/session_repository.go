package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/lingua/domain/entities"
	"github.com/satriahrh/lingua/domain/repositories"
)

// SessionRepository implements repositories.SessionRepository on SQLite
type SessionRepository struct {
	store *Store
}

var _ repositories.SessionRepository = (*SessionRepository)(nil)

// Create implements repositories.SessionRepository
func (r *SessionRepository) Create(ctx context.Context, session *entities.Session) error {
	if session == nil {
		return errors.New("session cannot be nil")
	}
	if err := session.Validate(); err != nil {
		return err
	}

	existing, err := r.GetActiveByUserID(ctx, session.UserID)
	if err != nil {
		return err
	}
	if existing != nil {
		return errors.New("user already has an active session")
	}

	r.store.writeMu.Lock()
	defer r.store.writeMu.Unlock()

	_, err = r.store.db.ExecContext(ctx, `INSERT INTO sessions
		(id, user_id, status, short_response_streak, created_at, last_active_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		session.ID, session.UserID, string(session.Status), session.ShortResponseStreak,
		toUnix(session.CreatedAt), toUnix(session.LastActiveAt), toUnix(session.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// GetActiveByUserID implements repositories.SessionRepository
func (r *SessionRepository) GetActiveByUserID(ctx context.Context, userID string) (*entities.Session, error) {
	row := r.store.db.QueryRowContext(ctx, `SELECT id, user_id, status, short_response_streak, created_at, last_active_at, expires_at
		FROM sessions WHERE user_id = ? AND status = ? AND expires_at > ?
		ORDER BY last_active_at DESC LIMIT 1`,
		userID, string(entities.SessionStatusActive), toUnix(time.Now()))

	var (
		session                         entities.Session
		status                          string
		createdAt, lastActive, expireAt int64
	)
	err := row.Scan(&session.ID, &session.UserID, &status, &session.ShortResponseStreak, &createdAt, &lastActive, &expireAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan session row: %w", err)
	}
	session.Status = entities.SessionStatus(status)
	session.CreatedAt = fromUnix(createdAt)
	session.LastActiveAt = fromUnix(lastActive)
	session.ExpiresAt = fromUnix(expireAt)
	return &session, nil
}

// Update implements repositories.SessionRepository
func (r *SessionRepository) Update(ctx context.Context, session *entities.Session) error {
	if session == nil {
		return errors.New("session cannot be nil")
	}
	if err := session.Validate(); err != nil {
		return err
	}

	r.store.writeMu.Lock()
	defer r.store.writeMu.Unlock()

	res, err := r.store.db.ExecContext(ctx, `UPDATE sessions SET
		status = ?, short_response_streak = ?, last_active_at = ?, expires_at = ?
		WHERE id = ?`,
		string(session.Status), session.ShortResponseStreak, toUnix(session.LastActiveAt), toUnix(session.ExpiresAt),
		session.ID,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return requireAffected(res, repositories.ErrSessionNotFound)
}

// ExpireSessions implements repositories.SessionRepository
func (r *SessionRepository) ExpireSessions(ctx context.Context) error {
	r.store.writeMu.Lock()
	defer r.store.writeMu.Unlock()

	res, err := r.store.db.ExecContext(ctx, `UPDATE sessions SET status = ? WHERE status = ? AND expires_at < ?`,
		string(entities.SessionStatusExpired), string(entities.SessionStatusActive), toUnix(time.Now()))
	if err != nil {
		return fmt.Errorf("expire sessions: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		r.store.logger.Info("Expired sessions", zap.Int64("count", n))
	}
	return nil
}
