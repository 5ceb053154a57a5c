package export

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/jomei/notionapi"
	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-assistant/internal/jobs"
	"github.com/dvloznov/finance-assistant/internal/report"
)

type fakeNotionService struct {
	gotDatabase string
	gotProps    notionapi.Properties
	err         error
}

func (f *fakeNotionService) CreatePage(_ context.Context, databaseID string, props notionapi.Properties) (*notionapi.Page, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.gotDatabase = databaseID
	f.gotProps = props
	return &notionapi.Page{ID: "page-1"}, nil
}

type fakeReportStore struct {
	reports map[string]*report.Report
}

func (f *fakeReportStore) InsertReport(_ context.Context, r *report.Report) error {
	if f.reports == nil {
		f.reports = make(map[string]*report.Report)
	}
	f.reports[r.ID] = r
	return nil
}

func (f *fakeReportStore) GetReport(_ context.Context, userID, reportID string) (*report.Report, error) {
	r, ok := f.reports[reportID]
	if !ok || r.UserID != userID {
		return nil, report.ErrNotFound
	}
	return r, nil
}

func (f *fakeReportStore) ListReports(context.Context, string) ([]*report.Report, error) {
	return nil, nil
}

func sampleReport() *report.Report {
	payload, _ := json.Marshal(map[string]any{
		"responseType": "TEXT",
		"content":      "You spent a lot on food.",
	})
	return &report.Report{
		ID:        "r1",
		UserID:    "u1",
		Title:     "Food spending",
		Response:  payload,
		CreatedAt: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestReportToNotionProperties(t *testing.T) {
	props := ReportToNotionProperties(sampleReport())

	title, ok := props["Title"].(notionapi.TitleProperty)
	if !ok || len(title.Title) == 0 || title.Title[0].Text.Content != "Food spending" {
		t.Errorf("Title = %+v", props["Title"])
	}
	sel, ok := props["Type"].(notionapi.SelectProperty)
	if !ok || sel.Select.Name != "TEXT" {
		t.Errorf("Type = %+v", props["Type"])
	}
	summary, ok := props["Summary"].(notionapi.RichTextProperty)
	if !ok || !strings.Contains(summary.RichText[0].Text.Content, "food") {
		t.Errorf("Summary = %+v", props["Summary"])
	}
	if _, ok := props["Saved"]; !ok {
		t.Error("Saved date missing")
	}
}

func TestReportToNotionPropertiesUnparsableResponse(t *testing.T) {
	rep := sampleReport()
	rep.Response = json.RawMessage("not json")

	props := ReportToNotionProperties(rep)
	if _, ok := props["Title"]; !ok {
		t.Error("title should survive an unparsable response")
	}
	if _, ok := props["Type"]; ok {
		t.Error("type should be omitted for an unparsable response")
	}
}

func TestNotionExport(t *testing.T) {
	service := &fakeNotionService{}
	exporter := NewNotionExporter(service, "db-1")

	pageID, err := exporter.Export(context.Background(), sampleReport())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if pageID != "page-1" {
		t.Errorf("pageID = %q", pageID)
	}
	if service.gotDatabase != "db-1" {
		t.Errorf("databaseID = %q", service.gotDatabase)
	}
}

func TestHandleExportsToNotion(t *testing.T) {
	store := &fakeReportStore{}
	_ = store.InsertReport(context.Background(), sampleReport())

	service := &fakeNotionService{}
	e := NewExporter(store, nil, NewNotionExporter(service, "db-1"), zerolog.Nop())

	job := &jobs.ExportReportJob{
		JobID:    "j1",
		ReportID: "r1",
		UserID:   "u1",
		Targets:  []string{jobs.TargetNotion},
	}
	if err := e.Handle(context.Background(), job); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if service.gotProps == nil {
		t.Error("notion page never created")
	}
}

func TestHandleScopesReportToUser(t *testing.T) {
	store := &fakeReportStore{}
	_ = store.InsertReport(context.Background(), sampleReport())

	e := NewExporter(store, nil, NewNotionExporter(&fakeNotionService{}, "db-1"), zerolog.Nop())

	job := &jobs.ExportReportJob{
		JobID:    "j1",
		ReportID: "r1",
		UserID:   "someone-else",
		Targets:  []string{jobs.TargetNotion},
	}
	if err := e.Handle(context.Background(), job); err == nil {
		t.Fatal("expected error for foreign report")
	}
}

func TestHandleUnknownTarget(t *testing.T) {
	store := &fakeReportStore{}
	_ = store.InsertReport(context.Background(), sampleReport())

	e := NewExporter(store, nil, nil, zerolog.Nop())

	job := &jobs.ExportReportJob{
		JobID:    "j1",
		ReportID: "r1",
		UserID:   "u1",
		Targets:  []string{"fax"},
	}
	err := e.Handle(context.Background(), job)
	if err == nil || !strings.Contains(err.Error(), "unknown export target") {
		t.Fatalf("err = %v", err)
	}
}

func TestHandleUnconfiguredTarget(t *testing.T) {
	store := &fakeReportStore{}
	_ = store.InsertReport(context.Background(), sampleReport())

	e := NewExporter(store, nil, nil, zerolog.Nop())

	job := &jobs.ExportReportJob{
		JobID:    "j1",
		ReportID: "r1",
		UserID:   "u1",
		Targets:  []string{jobs.TargetGCS},
	}
	if err := e.Handle(context.Background(), job); err == nil {
		t.Fatal("expected error for unconfigured gcs target")
	}
}
