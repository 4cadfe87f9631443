package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/satriahrh/lingua/domain/entities"
	"github.com/satriahrh/lingua/domain/repositories"
)

const conversationColumns = `id, user_id, title, input_language, output_language, dialogue_state,
	last_input_kind, image_task_id, image_task_status, image_prompt,
	image_task_started_at, image_task_completed_at, messages_json, created_at, updated_at`

// ConversationRepository implements repositories.ConversationRepository on SQLite
type ConversationRepository struct {
	store *Store
}

var _ repositories.ConversationRepository = (*ConversationRepository)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (*entities.Conversation, error) {
	var (
		conv                 entities.Conversation
		state, kind, status  string
		started, completed   sql.NullInt64
		messagesJSON         string
		createdAt, updatedAt int64
	)
	err := row.Scan(
		&conv.ID, &conv.UserID, &conv.Title, &conv.InputLanguage, &conv.OutputLanguage, &state,
		&kind, &conv.ImageTaskID, &status, &conv.ImagePrompt,
		&started, &completed, &messagesJSON, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	conv.DialogueState = entities.DialogueState(state)
	conv.LastInputKind = entities.InputKind(kind)
	conv.ImageTaskStatus = entities.JobStatus(status)
	conv.ImageTaskStartedAt = timePtr(started)
	conv.ImageTaskCompletedAt = timePtr(completed)
	conv.CreatedAt = fromUnix(createdAt)
	conv.UpdatedAt = fromUnix(updatedAt)
	if err := json.Unmarshal([]byte(messagesJSON), &conv.Messages); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	return &conv, nil
}

// Create implements repositories.ConversationRepository
func (r *ConversationRepository) Create(ctx context.Context, conv *entities.Conversation) error {
	if conv == nil {
		return errors.New("conversation cannot be nil")
	}
	if err := conv.Validate(); err != nil {
		return err
	}
	messages, err := json.Marshal(conv.Messages)
	if err != nil {
		return fmt.Errorf("encode messages: %w", err)
	}

	r.store.writeMu.Lock()
	defer r.store.writeMu.Unlock()

	_, err = r.store.db.ExecContext(ctx, `INSERT INTO conversations (`+conversationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		conv.ID, conv.UserID, conv.Title, conv.InputLanguage, conv.OutputLanguage, string(conv.DialogueState),
		string(conv.LastInputKind), conv.ImageTaskID, string(conv.ImageTaskStatus), conv.ImagePrompt,
		nullableTime(conv.ImageTaskStartedAt), nullableTime(conv.ImageTaskCompletedAt), string(messages),
		toUnix(conv.CreatedAt), toUnix(conv.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert conversation: %w", err)
	}
	return nil
}

// GetByID implements repositories.ConversationRepository
func (r *ConversationRepository) GetByID(ctx context.Context, id string) (*entities.Conversation, error) {
	row := r.store.db.QueryRowContext(ctx, `SELECT `+conversationColumns+` FROM conversations WHERE id = ?`, id)
	conv, err := scanConversation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repositories.ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan conversation row: %w", err)
	}
	return conv, nil
}

// GetLatestByUserID implements repositories.ConversationRepository
func (r *ConversationRepository) GetLatestByUserID(ctx context.Context, userID string) (*entities.Conversation, error) {
	row := r.store.db.QueryRowContext(ctx, `SELECT `+conversationColumns+`
		FROM conversations WHERE user_id = ? ORDER BY updated_at DESC LIMIT 1`, userID)
	conv, err := scanConversation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan conversation row: %w", err)
	}
	return conv, nil
}

// List implements repositories.ConversationRepository
func (r *ConversationRepository) List(ctx context.Context, filter repositories.ConversationFilter) ([]*entities.Conversation, int64, error) {
	where := "WHERE 1 = 1"
	args := []any{}
	if filter.UserID != "" {
		where += " AND user_id = ?"
		args = append(args, filter.UserID)
	}
	if filter.State != "" {
		where += " AND dialogue_state = ?"
		args = append(args, string(filter.State))
	}

	var total int64
	if err := r.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM conversations "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count conversations: %w", err)
	}

	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}
	// Sort columns come from a fixed set, never from user input.
	order := "updated_at " + direction
	if filter.SortField == repositories.SortByDialogueState {
		order = "dialogue_state " + direction + ", updated_at " + direction
	}

	limit := -1
	if filter.PerPage > 0 {
		limit = filter.PerPage
	}
	query := "SELECT " + conversationColumns + " FROM conversations " + where +
		" ORDER BY " + order + " LIMIT ? OFFSET ?"
	rows, err := r.store.db.QueryContext(ctx, query, append(args, limit, filter.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("query conversations: %w", err)
	}
	defer rows.Close()

	conversations := make([]*entities.Conversation, 0)
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan conversation row: %w", err)
		}
		conversations = append(conversations, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate conversations: %w", err)
	}
	return conversations, total, nil
}

// Update implements repositories.ConversationRepository. Image task status
// columns are owned by UpdateImageTaskStatus and left untouched.
func (r *ConversationRepository) Update(ctx context.Context, conv *entities.Conversation) error {
	if conv == nil {
		return errors.New("conversation cannot be nil")
	}
	if err := conv.Validate(); err != nil {
		return err
	}
	messages, err := json.Marshal(conv.Messages)
	if err != nil {
		return fmt.Errorf("encode messages: %w", err)
	}

	r.store.writeMu.Lock()
	defer r.store.writeMu.Unlock()

	res, err := r.store.db.ExecContext(ctx, `UPDATE conversations SET
		title = ?, input_language = ?, output_language = ?, dialogue_state = ?,
		last_input_kind = ?, image_task_id = ?, image_prompt = ?, messages_json = ?, updated_at = ?
		WHERE id = ?`,
		conv.Title, conv.InputLanguage, conv.OutputLanguage, string(conv.DialogueState),
		string(conv.LastInputKind), conv.ImageTaskID, conv.ImagePrompt, string(messages), toUnix(conv.UpdatedAt),
		conv.ID,
	)
	if err != nil {
		return fmt.Errorf("update conversation: %w", err)
	}
	return requireAffected(res, repositories.ErrConversationNotFound)
}

// Delete implements repositories.ConversationRepository
func (r *ConversationRepository) Delete(ctx context.Context, id string) error {
	r.store.writeMu.Lock()
	defer r.store.writeMu.Unlock()

	res, err := r.store.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return requireAffected(res, repositories.ErrConversationNotFound)
}

// UpdateImageTaskStatus implements repositories.ConversationRepository
func (r *ConversationRepository) UpdateImageTaskStatus(ctx context.Context, id string, status entities.JobStatus, at time.Time) error {
	query := `UPDATE conversations SET image_task_status = ? WHERE id = ?`
	args := []any{string(status), id}
	switch status {
	case entities.JobStatusStarted:
		query = `UPDATE conversations SET image_task_status = ?, image_task_started_at = ? WHERE id = ?`
		args = []any{string(status), toUnix(at), id}
	case entities.JobStatusSuccess, entities.JobStatusFailure:
		query = `UPDATE conversations SET image_task_status = ?, image_task_completed_at = ? WHERE id = ?`
		args = []any{string(status), toUnix(at), id}
	}

	r.store.writeMu.Lock()
	defer r.store.writeMu.Unlock()

	res, err := r.store.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update image task status: %w", err)
	}
	return requireAffected(res, repositories.ErrConversationNotFound)
}

func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
