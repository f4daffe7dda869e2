package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hiufpe/hub-api/internal/models"
)

// ConversationRepository persists assistant conversations and their messages.
type ConversationRepository struct {
	db *sqlx.DB
}

// NewConversationRepository constructs the repository.
func NewConversationRepository(db *sqlx.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// CreateConversation inserts a conversation.
func (r *ConversationRepository) CreateConversation(ctx context.Context, conversation *models.Conversation) error {
	if conversation.ID == "" {
		conversation.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	conversation.CreatedAt = now
	conversation.UpdatedAt = now
	const query = `INSERT INTO conversations (id, student_id, title, created_at, updated_at) VALUES (:id, :student_id, :title, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, conversation); err != nil {
		return fmt.Errorf("create conversation: %w", err)
	}
	return nil
}

// GetConversation returns a conversation by ID.
func (r *ConversationRepository) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	var conversation models.Conversation
	if err := r.db.GetContext(ctx, &conversation, `SELECT id, student_id, title, created_at, updated_at FROM conversations WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &conversation, nil
}

// ListConversations returns a student's conversations, most recently active first.
func (r *ConversationRepository) ListConversations(ctx context.Context, studentID string) ([]models.Conversation, error) {
	var conversations []models.Conversation
	const query = `SELECT id, student_id, title, created_at, updated_at FROM conversations WHERE student_id = $1 ORDER BY updated_at DESC`
	if err := r.db.SelectContext(ctx, &conversations, query, studentID); err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return conversations, nil
}

// AppendMessage stores a message and bumps the conversation activity timestamp.
func (r *ConversationRepository) AppendMessage(ctx context.Context, message *models.Message) error {
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	message.CreatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin message transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insert = `INSERT INTO messages (id, conversation_id, role, content, created_at) VALUES ($1, $2, $3, $4, $5)`
	if _, err = tx.ExecContext(ctx, insert, message.ID, message.ConversationID, message.Role, message.Content, message.CreatedAt); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `UPDATE conversations SET updated_at = $1 WHERE id = $2`, message.CreatedAt, message.ConversationID); err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit message: %w", err)
	}
	return nil
}

// ListMessages returns the latest limit messages in chronological order. limit <= 0 returns all.
func (r *ConversationRepository) ListMessages(ctx context.Context, conversationID string, limit int) ([]models.Message, error) {
	query := `SELECT id, conversation_id, role, content, created_at FROM (
	SELECT id, conversation_id, role, content, created_at FROM messages WHERE conversation_id = $1 ORDER BY created_at DESC`
	args := []interface{}{conversationID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	query += `) recent ORDER BY created_at ASC`

	var messages []models.Message
	if err := r.db.SelectContext(ctx, &messages, query, args...); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}
