package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-assistant/internal/api/middleware"
	"github.com/dvloznov/finance-assistant/internal/assistant"
	"github.com/dvloznov/finance-assistant/internal/chat"
	"github.com/dvloznov/finance-assistant/internal/format"
	"github.com/dvloznov/finance-assistant/internal/jobs"
	"github.com/dvloznov/finance-assistant/internal/jobs/inmemory"
	"github.com/dvloznov/finance-assistant/internal/report"
)

type fakeRunner struct {
	events []assistant.Event
	err    error
	gotCID string
}

func (f *fakeRunner) RunTurn(_ context.Context, _ string, conversationID, _ string, emit func(assistant.Event)) error {
	f.gotCID = conversationID
	for _, e := range f.events {
		emit(e)
	}
	return f.err
}

type fakeChatStore struct {
	conversations []*chat.Conversation
	messages      []*chat.Message
}

func (f *fakeChatStore) CreateConversation(_ context.Context, c *chat.Conversation) error {
	f.conversations = append(f.conversations, c)
	return nil
}

func (f *fakeChatStore) GetConversation(_ context.Context, userID, id string) (*chat.Conversation, error) {
	for _, c := range f.conversations {
		if c.ID == id && c.UserID == userID {
			return c, nil
		}
	}
	return nil, chat.ErrNotFound
}

func (f *fakeChatStore) ListConversations(_ context.Context, userID string) ([]*chat.Conversation, error) {
	var out []*chat.Conversation
	for _, c := range f.conversations {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeChatStore) InsertMessage(_ context.Context, m *chat.Message) error {
	f.messages = append(f.messages, m)
	return nil
}

func (f *fakeChatStore) ListMessages(_ context.Context, userID, conversationID string) ([]*chat.Message, error) {
	var out []*chat.Message
	for _, m := range f.messages {
		if m.UserID == userID && m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeReportStore struct {
	reports []*report.Report
}

func (f *fakeReportStore) InsertReport(_ context.Context, r *report.Report) error {
	f.reports = append(f.reports, r)
	return nil
}

func (f *fakeReportStore) GetReport(_ context.Context, userID, id string) (*report.Report, error) {
	for _, r := range f.reports {
		if r.ID == id && r.UserID == userID {
			return r, nil
		}
	}
	return nil, report.ErrNotFound
}

func (f *fakeReportStore) ListReports(_ context.Context, userID string) ([]*report.Report, error) {
	var out []*report.Report
	for _, r := range f.reports {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakePublisher struct {
	published []*jobs.ExportReportJob
}

func (f *fakePublisher) PublishExportReport(_ context.Context, job *jobs.ExportReportJob) error {
	job.JobID = "job-1"
	job.Status = jobs.JobStatusPending
	f.published = append(f.published, job)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

// asUser routes the request through the UserID middleware, like the real
// server does.
func asUser(userID string, handler http.HandlerFunc) (http.Handler, func(*http.Request)) {
	return middleware.UserID(handler), func(r *http.Request) {
		r.Header.Set("X-User-ID", userID)
	}
}

func TestPostChatStreamsNDJSON(t *testing.T) {
	runner := &fakeRunner{events: []assistant.Event{
		{Type: "delta", Delta: "Hello "},
		{Type: "delta", Delta: "there."},
		{Type: "response", Response: &format.Response{Type: format.TypeText, Content: "Hello there."}},
	}}
	store := &fakeChatStore{}
	h := NewChatHandler(runner, store, zerolog.Nop())

	wrapped, auth := asUser("u1", h.PostChat)
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"hi"}`))
	auth(req)
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/x-ndjson" {
		t.Errorf("Content-Type = %q", ct)
	}
	if rec.Header().Get("X-Conversation-ID") == "" {
		t.Error("X-Conversation-ID header missing for a new conversation")
	}
	if len(store.conversations) != 1 {
		t.Fatalf("conversations created = %d, want 1", len(store.conversations))
	}
	if runner.gotCID != store.conversations[0].ID {
		t.Errorf("runner got conversation %q, store has %q", runner.gotCID, store.conversations[0].ID)
	}

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d stream lines, want 3: %q", len(lines), lines)
	}
	var last assistant.Event
	if err := json.Unmarshal([]byte(lines[2]), &last); err != nil {
		t.Fatalf("last line not JSON: %v", err)
	}
	if last.Type != "response" || last.Response.Content != "Hello there." {
		t.Errorf("last event = %+v", last)
	}
}

func TestPostChatReusesConversation(t *testing.T) {
	runner := &fakeRunner{}
	store := &fakeChatStore{}
	h := NewChatHandler(runner, store, zerolog.Nop())

	wrapped, auth := asUser("u1", h.PostChat)
	req := httptest.NewRequest(http.MethodPost, "/api/chat",
		strings.NewReader(`{"conversationId":"c9","message":"again"}`))
	auth(req)
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)

	if runner.gotCID != "c9" {
		t.Errorf("conversation = %q, want c9", runner.gotCID)
	}
	if len(store.conversations) != 0 {
		t.Errorf("no new conversation should be created")
	}
}

func TestPostChatRequiresUser(t *testing.T) {
	h := NewChatHandler(&fakeRunner{}, &fakeChatStore{}, zerolog.Nop())
	wrapped, _ := asUser("", h.PostChat)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"hi"}`))
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestListMessagesScopedToUser(t *testing.T) {
	store := &fakeChatStore{
		conversations: []*chat.Conversation{
			{ID: "c1", UserID: "alice", Title: "t", CreatedAt: time.Now()},
		},
		messages: []*chat.Message{
			{ID: "m1", ConversationID: "c1", UserID: "alice", Role: chat.RoleUser, Content: "hi"},
		},
	}
	h := NewConversationsHandler(store, zerolog.Nop())

	wrapped, auth := asUser("bob", func(w http.ResponseWriter, r *http.Request) {
		h.ListMessages(w, r, "c1")
	})
	req := httptest.NewRequest(http.MethodGet, "/api/conversations/c1/messages", nil)
	auth(req)
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for another user's conversation", rec.Code)
	}
}

func TestCreateAndExportReport(t *testing.T) {
	store := &fakeReportStore{}
	publisher := &fakePublisher{}
	h := NewReportsHandler(store, publisher, zerolog.Nop())

	wrapped, auth := asUser("u1", h.CreateReport)
	body := `{"title":"Spending","response":{"responseType":"TEXT","content":"hi"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/reports", strings.NewReader(body))
	auth(req)
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if len(store.reports) != 1 {
		t.Fatalf("reports saved = %d", len(store.reports))
	}
	reportID := store.reports[0].ID

	wrapped, auth = asUser("u1", func(w http.ResponseWriter, r *http.Request) {
		h.ExportReport(w, r, reportID)
	})
	req = httptest.NewRequest(http.MethodPost, "/api/reports/"+reportID+"/export",
		strings.NewReader(`{"targets":["notion"]}`))
	auth(req)
	rec = httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if len(publisher.published) != 1 {
		t.Fatalf("jobs published = %d", len(publisher.published))
	}
	job := publisher.published[0]
	if job.ReportID != reportID || job.UserID != "u1" || job.Targets[0] != jobs.TargetNotion {
		t.Errorf("job = %+v", job)
	}
}

func TestExportReportRejectsUnknownTarget(t *testing.T) {
	store := &fakeReportStore{reports: []*report.Report{
		{ID: "r1", UserID: "u1", Response: json.RawMessage(`{}`)},
	}}
	h := NewReportsHandler(store, &fakePublisher{}, zerolog.Nop())

	wrapped, auth := asUser("u1", func(w http.ResponseWriter, r *http.Request) {
		h.ExportReport(w, r, "r1")
	})
	req := httptest.NewRequest(http.MethodPost, "/api/reports/r1/export",
		strings.NewReader(`{"targets":["fax"]}`))
	auth(req)
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestGetJobScopedToUser(t *testing.T) {
	jobStore := inmemory.NewStore()
	if err := jobStore.SaveJob(context.Background(), &jobs.ExportReportJob{
		JobID:    "j1",
		ReportID: "r1",
		UserID:   "alice",
		Status:   jobs.JobStatusCompleted,
	}); err != nil {
		t.Fatalf("SaveJob: %v", err)
	}
	h := NewJobsHandler(jobStore, zerolog.Nop())

	wrapped, auth := asUser("bob", func(w http.ResponseWriter, r *http.Request) {
		h.GetJob(w, r, "j1")
	})
	req := httptest.NewRequest(http.MethodGet, "/api/jobs/j1", nil)
	auth(req)
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for another user's job", rec.Code)
	}
}
