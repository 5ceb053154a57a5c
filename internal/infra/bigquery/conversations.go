package bigquery

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/finance-assistant/internal/chat"
)

// conversationRow mirrors finance.conversations.
type conversationRow struct {
	ConversationID string    `bigquery:"conversation_id"`
	UserID         string    `bigquery:"user_id"`
	Title          string    `bigquery:"title"`
	CreatedTS      time.Time `bigquery:"created_ts"`
}

// chatMessageRow mirrors finance.chat_messages. The rendered response
// payload is stored as a JSON string; plain user messages leave it null.
type chatMessageRow struct {
	MessageID      string              `bigquery:"message_id"`
	ConversationID string              `bigquery:"conversation_id"`
	UserID         string              `bigquery:"user_id"`
	Role           string              `bigquery:"role"`
	Content        string              `bigquery:"content"`
	Response       bigquery.NullString `bigquery:"response"`
	CreatedTS      time.Time           `bigquery:"created_ts"`
}

// CreateConversation inserts a new conversation row.
func (r *Repository) CreateConversation(ctx context.Context, c *chat.Conversation) error {
	row := &conversationRow{
		ConversationID: c.ID,
		UserID:         c.UserID,
		Title:          c.Title,
		CreatedTS:      c.CreatedAt,
	}

	inserter := r.client.Dataset(r.datasetID).Table(tableConversations).Inserter()
	if err := inserter.Put(ctx, row); err != nil {
		return fmt.Errorf("CreateConversation: inserting row: %w", err)
	}
	return nil
}

// GetConversation retrieves one conversation scoped to the user.
func (r *Repository) GetConversation(ctx context.Context, userID, conversationID string) (*chat.Conversation, error) {
	query := fmt.Sprintf(`
		SELECT conversation_id, user_id, title, created_ts
		FROM %s
		WHERE user_id = @user_id AND conversation_id = @conversation_id
		LIMIT 1
	`, r.table(tableConversations))

	q := r.client.Query(query)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "conversation_id", Value: conversationID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetConversation: reading query: %w", err)
	}

	var row conversationRow
	if err := it.Next(&row); err == iterator.Done {
		return nil, chat.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("GetConversation: iterating: %w", err)
	}
	return conversationFromRow(&row), nil
}

// ListConversations retrieves the user's conversations, newest first.
func (r *Repository) ListConversations(ctx context.Context, userID string) ([]*chat.Conversation, error) {
	query := fmt.Sprintf(`
		SELECT conversation_id, user_id, title, created_ts
		FROM %s
		WHERE user_id = @user_id
		ORDER BY created_ts DESC
	`, r.table(tableConversations))

	q := r.client.Query(query)
	q.Parameters = []bigquery.QueryParameter{{Name: "user_id", Value: userID}}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListConversations: reading query: %w", err)
	}

	var out []*chat.Conversation
	for {
		var row conversationRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListConversations: iterating: %w", err)
		}
		out = append(out, conversationFromRow(&row))
	}
	return out, nil
}

// InsertMessage appends one message to a conversation.
func (r *Repository) InsertMessage(ctx context.Context, m *chat.Message) error {
	row := &chatMessageRow{
		MessageID:      m.ID,
		ConversationID: m.ConversationID,
		UserID:         m.UserID,
		Role:           m.Role,
		Content:        m.Content,
		CreatedTS:      m.CreatedAt,
	}
	if len(m.Response) > 0 {
		row.Response = bigquery.NullString{StringVal: string(m.Response), Valid: true}
	}

	inserter := r.client.Dataset(r.datasetID).Table(tableChatMessages).Inserter()
	if err := inserter.Put(ctx, row); err != nil {
		return fmt.Errorf("InsertMessage: inserting row: %w", err)
	}
	return nil
}

// ListMessages retrieves a conversation's messages in chronological order,
// scoped to the user.
func (r *Repository) ListMessages(ctx context.Context, userID, conversationID string) ([]*chat.Message, error) {
	query := fmt.Sprintf(`
		SELECT message_id, conversation_id, user_id, role, content, response, created_ts
		FROM %s
		WHERE user_id = @user_id AND conversation_id = @conversation_id
		ORDER BY created_ts ASC
	`, r.table(tableChatMessages))

	q := r.client.Query(query)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "conversation_id", Value: conversationID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListMessages: reading query: %w", err)
	}

	var out []*chat.Message
	for {
		var row chatMessageRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListMessages: iterating: %w", err)
		}

		m := &chat.Message{
			ID:             row.MessageID,
			ConversationID: row.ConversationID,
			UserID:         row.UserID,
			Role:           row.Role,
			Content:        row.Content,
			CreatedAt:      row.CreatedTS,
		}
		if row.Response.Valid {
			m.Response = json.RawMessage(row.Response.StringVal)
		}
		out = append(out, m)
	}
	return out, nil
}

func conversationFromRow(row *conversationRow) *chat.Conversation {
	return &chat.Conversation{
		ID:        row.ConversationID,
		UserID:    row.UserID,
		Title:     row.Title,
		CreatedAt: row.CreatedTS,
	}
}
