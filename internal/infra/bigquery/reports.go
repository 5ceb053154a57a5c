package bigquery

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/finance-assistant/internal/report"
)

// reportRow mirrors finance.reports. Descriptor and response are frozen
// JSON strings so an export reproduces exactly what the user saw.
type reportRow struct {
	ReportID   string              `bigquery:"report_id"`
	UserID     string              `bigquery:"user_id"`
	Title      string              `bigquery:"title"`
	Descriptor bigquery.NullString `bigquery:"descriptor"`
	Response   string              `bigquery:"response"`
	CreatedTS  time.Time           `bigquery:"created_ts"`
}

// InsertReport saves one report row.
func (r *Repository) InsertReport(ctx context.Context, rep *report.Report) error {
	row := &reportRow{
		ReportID:  rep.ID,
		UserID:    rep.UserID,
		Title:     rep.Title,
		Response:  string(rep.Response),
		CreatedTS: rep.CreatedAt,
	}
	if len(rep.Descriptor) > 0 {
		row.Descriptor = bigquery.NullString{StringVal: string(rep.Descriptor), Valid: true}
	}

	inserter := r.client.Dataset(r.datasetID).Table(tableReports).Inserter()
	if err := inserter.Put(ctx, row); err != nil {
		return fmt.Errorf("InsertReport: inserting row: %w", err)
	}
	return nil
}

// GetReport retrieves one report scoped to the user.
func (r *Repository) GetReport(ctx context.Context, userID, reportID string) (*report.Report, error) {
	query := fmt.Sprintf(`
		SELECT report_id, user_id, title, descriptor, response, created_ts
		FROM %s
		WHERE user_id = @user_id AND report_id = @report_id
		LIMIT 1
	`, r.table(tableReports))

	q := r.client.Query(query)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "report_id", Value: reportID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetReport: reading query: %w", err)
	}

	var row reportRow
	if err := it.Next(&row); err == iterator.Done {
		return nil, report.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("GetReport: iterating: %w", err)
	}
	return reportFromRow(&row), nil
}

// ListReports retrieves the user's reports, newest first.
func (r *Repository) ListReports(ctx context.Context, userID string) ([]*report.Report, error) {
	query := fmt.Sprintf(`
		SELECT report_id, user_id, title, descriptor, response, created_ts
		FROM %s
		WHERE user_id = @user_id
		ORDER BY created_ts DESC
	`, r.table(tableReports))

	q := r.client.Query(query)
	q.Parameters = []bigquery.QueryParameter{{Name: "user_id", Value: userID}}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListReports: reading query: %w", err)
	}

	var out []*report.Report
	for {
		var row reportRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListReports: iterating: %w", err)
		}
		out = append(out, reportFromRow(&row))
	}
	return out, nil
}

func reportFromRow(row *reportRow) *report.Report {
	rep := &report.Report{
		ID:        row.ReportID,
		UserID:    row.UserID,
		Title:     row.Title,
		Response:  json.RawMessage(row.Response),
		CreatedAt: row.CreatedTS,
	}
	if row.Descriptor.Valid {
		rep.Descriptor = json.RawMessage(row.Descriptor.StringVal)
	}
	return rep
}
