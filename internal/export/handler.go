package export

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-assistant/internal/jobs"
	"github.com/dvloznov/finance-assistant/internal/report"
)

// Exporter processes export jobs from the queue. Either destination may be
// nil; a job naming an unconfigured target fails rather than silently
// skipping it.
type Exporter struct {
	reports report.Store
	gcs     *GCSArchiver
	notion  *NotionExporter
	log     zerolog.Logger
}

// NewExporter creates an Exporter.
func NewExporter(reports report.Store, gcs *GCSArchiver, notion *NotionExporter, log zerolog.Logger) *Exporter {
	return &Exporter{
		reports: reports,
		gcs:     gcs,
		notion:  notion,
		log:     log,
	}
}

// Handle is the jobs.JobHandler for report exports.
func (e *Exporter) Handle(ctx context.Context, job jobs.Job) error {
	exportJob, ok := job.(*jobs.ExportReportJob)
	if !ok {
		return fmt.Errorf("Handle: unexpected job type: %T", job)
	}

	rep, err := e.reports.GetReport(ctx, exportJob.UserID, exportJob.ReportID)
	if err != nil {
		return fmt.Errorf("Handle: loading report %s: %w", exportJob.ReportID, err)
	}

	for _, target := range exportJob.Targets {
		switch target {
		case jobs.TargetGCS:
			if e.gcs == nil {
				return fmt.Errorf("Handle: gcs export is not configured")
			}
			uri, err := e.gcs.Archive(ctx, rep)
			if err != nil {
				return fmt.Errorf("Handle: archiving report %s: %w", rep.ID, err)
			}
			e.log.Info().
				Str("job_id", exportJob.JobID).
				Str("report_id", rep.ID).
				Str("gcs_uri", uri).
				Msg("report archived to GCS")

		case jobs.TargetNotion:
			if e.notion == nil {
				return fmt.Errorf("Handle: notion export is not configured")
			}
			pageID, err := e.notion.Export(ctx, rep)
			if err != nil {
				return fmt.Errorf("Handle: exporting report %s to notion: %w", rep.ID, err)
			}
			e.log.Info().
				Str("job_id", exportJob.JobID).
				Str("report_id", rep.ID).
				Str("page_id", pageID).
				Msg("report exported to Notion")

		default:
			return fmt.Errorf("Handle: unknown export target %q", target)
		}
	}

	return nil
}
