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

// ConversationRepository implements repositories.ConversationRepository using MongoDB.
// Messages are embedded in the conversation document.
type ConversationRepository struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

var _ repositories.ConversationRepository = (*ConversationRepository)(nil)

// NewConversationRepository creates a new MongoDB conversation repository
func NewConversationRepository(db *mongo.Database, logger *zap.Logger) *ConversationRepository {
	collection := db.Collection("conversations")

	ensureIndexes(collection, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "updated_at", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "dialogue_state", Value: 1}}},
	}, logger)

	return &ConversationRepository{
		collection: collection,
		logger:     logger,
	}
}

// Create implements repositories.ConversationRepository
func (r *ConversationRepository) Create(ctx context.Context, conv *entities.Conversation) error {
	if conv == nil {
		return errors.New("conversation cannot be nil")
	}
	if err := conv.Validate(); err != nil {
		return err
	}

	if _, err := r.collection.InsertOne(ctx, conv); err != nil {
		r.logger.Error("Failed to create conversation", zap.Error(err), zap.String("user_id", conv.UserID))
		return fmt.Errorf("failed to create conversation: %w", err)
	}
	return nil
}

// GetByID implements repositories.ConversationRepository
func (r *ConversationRepository) GetByID(ctx context.Context, id string) (*entities.Conversation, error) {
	var conv entities.Conversation
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&conv)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repositories.ErrConversationNotFound
		}
		r.logger.Error("Failed to get conversation by ID", zap.Error(err), zap.String("conversation_id", id))
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return &conv, nil
}

// GetLatestByUserID implements repositories.ConversationRepository
func (r *ConversationRepository) GetLatestByUserID(ctx context.Context, userID string) (*entities.Conversation, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "updated_at", Value: -1}})

	var conv entities.Conversation
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID}, opts).Decode(&conv)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest conversation for user %s: %w", userID, err)
	}
	return &conv, nil
}

// List implements repositories.ConversationRepository
func (r *ConversationRepository) List(ctx context.Context, filter repositories.ConversationFilter) ([]*entities.Conversation, int64, error) {
	query := bson.M{}
	if filter.UserID != "" {
		query["user_id"] = filter.UserID
	}
	if filter.State != "" {
		query["dialogue_state"] = filter.State
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count conversations: %w", err)
	}

	direction := 1
	if filter.SortDesc {
		direction = -1
	}
	sortKey := "updated_at"
	if filter.SortField == repositories.SortByDialogueState {
		sortKey = "dialogue_state"
	}

	opts := options.Find().
		SetSort(bson.D{{Key: sortKey, Value: direction}, {Key: "updated_at", Value: direction}}).
		SetSkip(int64(filter.Offset())).
		SetProjection(bson.M{"messages": 0})
	if filter.PerPage > 0 {
		opts.SetLimit(int64(filter.PerPage))
	}

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		r.logger.Error("Failed to list conversations", zap.Error(err), zap.String("user_id", filter.UserID))
		return nil, 0, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer cursor.Close(ctx)

	conversations := make([]*entities.Conversation, 0)
	for cursor.Next(ctx) {
		var conv entities.Conversation
		if err := cursor.Decode(&conv); err != nil {
			r.logger.Error("Failed to decode conversation", zap.Error(err))
			continue
		}
		conversations = append(conversations, &conv)
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, fmt.Errorf("cursor error: %w", err)
	}

	return conversations, total, nil
}

// Update implements repositories.ConversationRepository
func (r *ConversationRepository) Update(ctx context.Context, conv *entities.Conversation) error {
	if conv == nil {
		return errors.New("conversation cannot be nil")
	}
	if err := conv.Validate(); err != nil {
		return err
	}

	// The job tracker owns image_task_status and its timestamps.
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": conv.ID}, bson.M{"$set": bson.M{
		"title":           conv.Title,
		"input_language":  conv.InputLanguage,
		"output_language": conv.OutputLanguage,
		"dialogue_state":  conv.DialogueState,
		"last_input_kind": conv.LastInputKind,
		"image_task_id":   conv.ImageTaskID,
		"image_prompt":    conv.ImagePrompt,
		"updated_at":      conv.UpdatedAt,
		"messages":        conv.Messages,
	}})
	if err != nil {
		return fmt.Errorf("failed to update conversation: %w", err)
	}
	if result.MatchedCount == 0 {
		return repositories.ErrConversationNotFound
	}
	return nil
}

// Delete implements repositories.ConversationRepository
func (r *ConversationRepository) Delete(ctx context.Context, id string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		r.logger.Error("Failed to delete conversation", zap.Error(err), zap.String("conversation_id", id))
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	if result.DeletedCount == 0 {
		return repositories.ErrConversationNotFound
	}

	r.logger.Info("Conversation deleted", zap.String("conversation_id", id))
	return nil
}

// UpdateImageTaskStatus implements repositories.ConversationRepository
func (r *ConversationRepository) UpdateImageTaskStatus(ctx context.Context, id string, status entities.JobStatus, at time.Time) error {
	set := bson.M{"image_task_status": status}
	switch status {
	case entities.JobStatusStarted:
		set["image_task_started_at"] = at
	case entities.JobStatusSuccess, entities.JobStatusFailure:
		set["image_task_completed_at"] = at
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update image task status: %w", err)
	}
	if result.MatchedCount == 0 {
		return repositories.ErrConversationNotFound
	}
	return nil
}
