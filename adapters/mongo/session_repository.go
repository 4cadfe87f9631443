package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/satriahrh/lingua/domain/entities"
	"github.com/satriahrh/lingua/domain/repositories"
)

// SessionRepository implements repositories.SessionRepository using MongoDB
type SessionRepository struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

var _ repositories.SessionRepository = (*SessionRepository)(nil)

// NewSessionRepository creates a new MongoDB session repository
func NewSessionRepository(db *mongo.Database, logger *zap.Logger) *SessionRepository {
	collection := db.Collection("sessions")

	ensureIndexes(collection, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "status", Value: 1}}},
		// Expired sessions are removed a day after they lapse.
		{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(int32((24 * time.Hour).Seconds()))},
	}, logger)

	return &SessionRepository{
		collection: collection,
		logger:     logger,
	}
}

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

	if _, err := r.collection.InsertOne(ctx, session); err != nil {
		r.logger.Error("Failed to create session", zap.Error(err), zap.String("user_id", session.UserID))
		return fmt.Errorf("failed to create session: %w", err)
	}

	r.logger.Debug("Session created",
		zap.String("session_id", session.ID),
		zap.String("user_id", session.UserID))
	return nil
}

// GetActiveByUserID implements repositories.SessionRepository
func (r *SessionRepository) GetActiveByUserID(ctx context.Context, userID string) (*entities.Session, error) {
	if userID == "" {
		return nil, errors.New("user ID cannot be empty")
	}

	filter := bson.M{
		"user_id":    userID,
		"status":     entities.SessionStatusActive,
		"expires_at": bson.M{"$gt": time.Now()},
	}
	opts := options.FindOne().SetSort(bson.M{"last_active_at": -1})

	var session entities.Session
	err := r.collection.FindOne(ctx, filter, opts).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active session for user %s: %w", userID, err)
	}

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

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": session.ID}, bson.M{"$set": bson.M{
		"last_active_at":        session.LastActiveAt,
		"expires_at":            session.ExpiresAt,
		"status":                session.Status,
		"short_response_streak": session.ShortResponseStreak,
	}})
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if result.MatchedCount == 0 {
		return repositories.ErrSessionNotFound
	}
	return nil
}

// ExpireSessions marks sessions past their expiration time as expired
func (r *SessionRepository) ExpireSessions(ctx context.Context) error {
	filter := bson.M{
		"status":     entities.SessionStatusActive,
		"expires_at": bson.M{"$lt": time.Now()},
	}
	update := bson.M{"$set": bson.M{"status": entities.SessionStatusExpired}}

	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		r.logger.Error("Failed to expire sessions", zap.Error(err))
		return fmt.Errorf("failed to expire sessions: %w", err)
	}

	if result.ModifiedCount > 0 {
		r.logger.Info("Expired sessions", zap.Int64("count", result.ModifiedCount))
	}
	return nil
}
