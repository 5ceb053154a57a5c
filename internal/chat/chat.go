// Package chat holds the conversation domain types shared by the assistant
// and the HTTP handlers.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned when a conversation or message does not exist for
// the requesting user.
var ErrNotFound = errors.New("not found")

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Conversation is one chat thread owned by a user.
type Conversation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
}

// Message is one turn in a conversation. Assistant messages carry the
// rendered response payload alongside the plain text content.
type Message struct {
	ID             string          `json:"id"`
	ConversationID string          `json:"conversationId"`
	UserID         string          `json:"userId"`
	Role           string          `json:"role"`
	Content        string          `json:"content"`
	Response       json.RawMessage `json:"response,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// Store persists conversations and messages. Implemented by the BigQuery
// repository.
type Store interface {
	CreateConversation(ctx context.Context, c *Conversation) error
	GetConversation(ctx context.Context, userID, conversationID string) (*Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]*Conversation, error)
	InsertMessage(ctx context.Context, m *Message) error
	ListMessages(ctx context.Context, userID, conversationID string) ([]*Message, error)
}
