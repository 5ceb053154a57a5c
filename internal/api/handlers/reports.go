package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-assistant/internal/api/middleware"
	"github.com/dvloznov/finance-assistant/internal/jobs"
	"github.com/dvloznov/finance-assistant/internal/report"
)

// ReportsHandler handles saved-report endpoints.
type ReportsHandler struct {
	store     report.Store
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(store report.Store, publisher jobs.Publisher, log zerolog.Logger) *ReportsHandler {
	return &ReportsHandler{
		store:     store,
		publisher: publisher,
		log:       log,
	}
}

// CreateReport handles POST /api/reports. It freezes a rendered answer so
// it can be exported later.
func (h *ReportsHandler) CreateReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserIDFromContext(ctx)

	var req struct {
		Title      string          `json:"title"`
		Descriptor json.RawMessage `json:"descriptor"`
		Response   json.RawMessage `json:"response"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Response) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "response is required")
		return
	}

	rep := &report.Report{
		ID:         uuid.New().String(),
		UserID:     userID,
		Title:      req.Title,
		Descriptor: req.Descriptor,
		Response:   req.Response,
		CreatedAt:  time.Now(),
	}
	if err := h.store.InsertReport(ctx, rep); err != nil {
		h.log.Error().Err(err).Msg("Failed to save report")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to save report")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, rep)
}

// ListReports handles GET /api/reports
func (h *ReportsHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserIDFromContext(ctx)

	reports, err := h.store.ListReports(ctx, userID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list reports")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list reports")
		return
	}

	if reports == nil {
		reports = []*report.Report{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"reports": reports,
		"count":   len(reports),
	})
}

// GetReport handles GET /api/reports/{id}
func (h *ReportsHandler) GetReport(w http.ResponseWriter, r *http.Request, reportID string) {
	ctx := r.Context()
	userID := middleware.UserIDFromContext(ctx)

	rep, err := h.store.GetReport(ctx, userID, reportID)
	if err != nil {
		if errors.Is(err, report.ErrNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "Report not found")
			return
		}
		h.log.Error().Err(err).Str("report_id", reportID).Msg("Failed to get report")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get report")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, rep)
}

// ExportReport handles POST /api/reports/{id}/export. It enqueues an async
// export job and returns its id for polling.
func (h *ReportsHandler) ExportReport(w http.ResponseWriter, r *http.Request, reportID string) {
	ctx := r.Context()
	userID := middleware.UserIDFromContext(ctx)

	var req struct {
		Targets []string `json:"targets"`
	}
	// An empty body means default targets.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Targets) == 0 {
		req.Targets = []string{jobs.TargetGCS}
	}
	for _, target := range req.Targets {
		if target != jobs.TargetGCS && target != jobs.TargetNotion {
			middleware.WriteError(w, http.StatusBadRequest, "Unknown export target: "+target)
			return
		}
	}

	// Reject before enqueueing when the report does not exist for this user.
	if _, err := h.store.GetReport(ctx, userID, reportID); err != nil {
		if errors.Is(err, report.ErrNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "Report not found")
			return
		}
		h.log.Error().Err(err).Str("report_id", reportID).Msg("Failed to get report")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get report")
		return
	}

	job := &jobs.ExportReportJob{
		ReportID: reportID,
		UserID:   userID,
		Targets:  req.Targets,
	}
	if err := h.publisher.PublishExportReport(ctx, job); err != nil {
		h.log.Error().Err(err).Str("report_id", reportID).Msg("Failed to enqueue export job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue export job")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Str("report_id", reportID).Msg("Export job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id":    job.JobID,
		"report_id": reportID,
		"status":    string(job.Status),
	})
}
