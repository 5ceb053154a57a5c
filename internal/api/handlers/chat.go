// Package handlers implements the HTTP surface: chat streaming,
// conversation history, saved reports and export job polling. Every
// handler resolves the caller through the UserID middleware and never
// touches another user's rows.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-assistant/internal/api/middleware"
	"github.com/dvloznov/finance-assistant/internal/assistant"
	"github.com/dvloznov/finance-assistant/internal/chat"
)

// TurnRunner runs one chat turn, pushing events through emit as they
// happen. Implemented by assistant.Assistant.
type TurnRunner interface {
	RunTurn(ctx context.Context, userID, conversationID, message string, emit func(assistant.Event)) error
}

// ChatHandler handles the streaming chat endpoint.
type ChatHandler struct {
	runner TurnRunner
	store  chat.Store
	log    zerolog.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(runner TurnRunner, store chat.Store, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		runner: runner,
		store:  store,
		log:    log,
	}
}

// PostChat handles POST /api/chat. The response is a newline-delimited
// JSON stream of assistant events: zero or more deltas, then exactly one
// response or error event. A request without a conversationId starts a new
// conversation; its id is returned in the X-Conversation-ID header.
func (h *ChatHandler) PostChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserIDFromContext(ctx)

	var req struct {
		ConversationID string `json:"conversationId"`
		Message        string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Message == "" {
		middleware.WriteError(w, http.StatusBadRequest, "message is required")
		return
	}

	conversationID := req.ConversationID
	if conversationID == "" {
		conv := &chat.Conversation{
			ID:        uuid.New().String(),
			UserID:    userID,
			Title:     conversationTitle(req.Message),
			CreatedAt: time.Now(),
		}
		if err := h.store.CreateConversation(ctx, conv); err != nil {
			h.log.Error().Err(err).Msg("Failed to create conversation")
			middleware.WriteError(w, http.StatusInternalServerError, "Failed to create conversation")
			return
		}
		conversationID = conv.ID
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("X-Conversation-ID", conversationID)
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)

	emit := func(e assistant.Event) {
		if err := enc.Encode(e); err != nil {
			h.log.Warn().Err(err).Msg("client gone mid-stream")
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}

	if err := h.runner.RunTurn(ctx, userID, conversationID, req.Message, emit); err != nil {
		// The error event is already on the wire; nothing more to send.
		h.log.Error().
			Err(err).
			Str("user_id", userID).
			Str("conversation_id", conversationID).
			Msg("Chat turn failed")
	}
}

// conversationTitle derives a short title from the first message.
func conversationTitle(message string) string {
	const max = 60
	if len(message) <= max {
		return message
	}
	return message[:max]
}
