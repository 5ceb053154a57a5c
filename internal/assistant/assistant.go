// Package assistant orchestrates one chat turn: stream a model answer,
// find the embedded query directive, run it, format the result and persist
// the exchange.
package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-assistant/internal/chat"
	"github.com/dvloznov/finance-assistant/internal/format"
	"github.com/dvloznov/finance-assistant/internal/query"
)

// Event is one chunk of a streamed chat turn. Delta events carry model
// text as it arrives; the final response event carries the formatted
// payload.
type Event struct {
	Type     string           `json:"type"` // "delta", "response" or "error"
	Delta    string           `json:"delta,omitempty"`
	Response *format.Response `json:"response,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// CategorySource supplies the user's category taxonomy for the system
// prompt. Implemented by the BigQuery repository.
type CategorySource interface {
	DistinctTransactionCategories(ctx context.Context, userID string) ([]string, error)
}

// Executor runs one query descriptor. Implemented by query.Executor.
type Executor interface {
	Execute(ctx context.Context, userID string, d query.Descriptor) (query.Result, error)
}

// Assistant runs chat turns.
type Assistant struct {
	gen        Generator
	exec       Executor
	store      chat.Store
	categories CategorySource
	log        zerolog.Logger
	now        func() time.Time
}

// New creates an Assistant. categories may be nil; the system prompt then
// omits the taxonomy section.
func New(gen Generator, exec Executor, store chat.Store, categories CategorySource, log zerolog.Logger) *Assistant {
	return &Assistant{
		gen:        gen,
		exec:       exec,
		store:      store,
		categories: categories,
		log:        log,
		now:        time.Now,
	}
}

// RunTurn executes one chat turn. Deltas and the final response are pushed
// through emit in order. Fatal errors (unknown entity, storage failure)
// abort the turn: an error event is emitted and no assistant message is
// persisted. A missing or malformed directive is not an error; the turn
// completes as plain text.
func (a *Assistant) RunTurn(ctx context.Context, userID, conversationID, message string, emit func(Event)) error {
	history, err := a.store.ListMessages(ctx, userID, conversationID)
	if err != nil {
		return a.fail(emit, fmt.Errorf("RunTurn: loading history: %w", err))
	}

	var categories []string
	if a.categories != nil {
		categories, err = a.categories.DistinctTransactionCategories(ctx, userID)
		if err != nil {
			// Degraded prompt, not a failed turn.
			a.log.Warn().Err(err).Str("user_id", userID).Msg("loading categories failed")
		}
	}

	userMsg := &chat.Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		UserID:         userID,
		Role:           chat.RoleUser,
		Content:        message,
		CreatedAt:      a.now(),
	}
	if err := a.store.InsertMessage(ctx, userMsg); err != nil {
		return a.fail(emit, fmt.Errorf("RunTurn: saving user message: %w", err))
	}

	system := systemPrompt(a.now(), categories)
	full, err := a.gen.Generate(ctx, system, history, message, func(delta string) {
		emit(Event{Type: "delta", Delta: delta})
	})
	if err != nil {
		return a.fail(emit, fmt.Errorf("RunTurn: generating answer: %w", err))
	}

	resp, directive, err := a.resolve(ctx, userID, full)
	if err != nil {
		return a.fail(emit, err)
	}

	payload, err := json.Marshal(resp)
	if err != nil {
		return a.fail(emit, fmt.Errorf("RunTurn: encoding response: %w", err))
	}

	assistantMsg := &chat.Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		UserID:         userID,
		Role:           chat.RoleAssistant,
		Content:        resp.Content,
		Response:       payload,
		CreatedAt:      a.now(),
	}
	if err := a.store.InsertMessage(ctx, assistantMsg); err != nil {
		return a.fail(emit, fmt.Errorf("RunTurn: saving assistant message: %w", err))
	}

	a.log.Info().
		Str("user_id", userID).
		Str("conversation_id", conversationID).
		Str("response_type", string(resp.Type)).
		Bool("has_query", directive != nil && directive.HasQuery()).
		Msg("chat turn completed")

	emit(Event{Type: "response", Response: &resp})
	return nil
}

// resolve turns the model's full text into a formatted response, running
// the embedded query when one is present.
func (a *Assistant) resolve(ctx context.Context, userID, full string) (format.Response, *Directive, error) {
	directive := ExtractDirective(full)
	if directive == nil {
		return format.Response{Type: format.TypeText, Content: strings.TrimSpace(full)}, nil, nil
	}

	explanation := directive.Explanation
	if explanation == "" {
		explanation = StripDirective(full)
	}

	if !directive.HasQuery() {
		return format.Response{Type: format.TypeText, Content: explanation}, directive, nil
	}

	result, err := a.exec.Execute(ctx, userID, directive.Descriptor())
	if err != nil {
		return format.Response{}, directive, fmt.Errorf("RunTurn: %w", err)
	}

	resp := format.FormatResponse(directive.QueryType, result.Data(), directive.ChartType, explanation)
	return resp, directive, nil
}

func (a *Assistant) fail(emit func(Event), err error) error {
	a.log.Error().Err(err).Msg("chat turn failed")
	emit(Event{Type: "error", Error: err.Error()})
	return err
}
