package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-assistant/internal/api/middleware"
	"github.com/dvloznov/finance-assistant/internal/chat"
)

// ConversationsHandler handles conversation history endpoints.
type ConversationsHandler struct {
	store chat.Store
	log   zerolog.Logger
}

// NewConversationsHandler creates a new conversations handler.
func NewConversationsHandler(store chat.Store, log zerolog.Logger) *ConversationsHandler {
	return &ConversationsHandler{
		store: store,
		log:   log,
	}
}

// ListConversations handles GET /api/conversations
func (h *ConversationsHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserIDFromContext(ctx)

	conversations, err := h.store.ListConversations(ctx, userID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list conversations")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list conversations")
		return
	}

	if conversations == nil {
		conversations = []*chat.Conversation{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"conversations": conversations,
		"count":         len(conversations),
	})
}

// ListMessages handles GET /api/conversations/{id}/messages
func (h *ConversationsHandler) ListMessages(w http.ResponseWriter, r *http.Request, conversationID string) {
	ctx := r.Context()
	userID := middleware.UserIDFromContext(ctx)

	if _, err := h.store.GetConversation(ctx, userID, conversationID); err != nil {
		if errors.Is(err, chat.ErrNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "Conversation not found")
			return
		}
		h.log.Error().Err(err).Str("conversation_id", conversationID).Msg("Failed to get conversation")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get conversation")
		return
	}

	messages, err := h.store.ListMessages(ctx, userID, conversationID)
	if err != nil {
		h.log.Error().Err(err).Str("conversation_id", conversationID).Msg("Failed to list messages")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list messages")
		return
	}

	if messages == nil {
		messages = []*chat.Message{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"messages": messages,
		"count":    len(messages),
	})
}
