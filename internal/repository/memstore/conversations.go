package memstore

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/hiufpe/hub-api/internal/models"
)

// Conversations keeps assistant history in memory.
type Conversations struct {
	mu            sync.RWMutex
	conversations map[string]models.Conversation
	messages      map[string][]models.Message
}

// NewConversations returns an empty conversation store.
func NewConversations() *Conversations {
	return &Conversations{conversations: map[string]models.Conversation{}, messages: map[string][]models.Message{}}
}

func (c *Conversations) CreateConversation(ctx context.Context, conversation *models.Conversation) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if conversation.ID == "" {
		conversation.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	conversation.CreatedAt, conversation.UpdatedAt = now, now
	c.conversations[conversation.ID] = *conversation
	return nil
}

func (c *Conversations) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	conversation, ok := c.conversations[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &conversation, nil
}

func (c *Conversations) ListConversations(ctx context.Context, studentID string) ([]models.Conversation, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := lo.Filter(lo.Values(c.conversations), func(conv models.Conversation, _ int) bool { return conv.StudentID == studentID })
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (c *Conversations) AppendMessage(ctx context.Context, message *models.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	conversation, ok := c.conversations[message.ConversationID]
	if !ok {
		return sql.ErrNoRows
	}
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	message.CreatedAt = time.Now().UTC()
	c.messages[message.ConversationID] = append(c.messages[message.ConversationID], *message)
	conversation.UpdatedAt = message.CreatedAt
	c.conversations[conversation.ID] = conversation
	return nil
}

func (c *Conversations) ListMessages(ctx context.Context, conversationID string, limit int) ([]models.Message, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	all := c.messages[conversationID]
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	out := make([]models.Message, len(all))
	copy(out, all)
	return out, nil
}
