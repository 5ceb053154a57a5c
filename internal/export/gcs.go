// Package export ships saved reports to external destinations: a GCS
// archive of the raw report JSON and a Notion page summarizing it. The
// worker drives it through the jobs queue.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/storage"

	"github.com/dvloznov/finance-assistant/internal/report"
)

// GCSArchiver writes report JSON into a bucket under
// reports/<user_id>/<report_id>.json.
type GCSArchiver struct {
	client *storage.Client
	bucket string
}

// NewGCSArchiver creates an archiver. It assumes Application Default
// Credentials are configured.
func NewGCSArchiver(ctx context.Context, bucket string) (*GCSArchiver, error) {
	if bucket == "" {
		return nil, fmt.Errorf("NewGCSArchiver: bucket is required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewGCSArchiver: create storage client: %w", err)
	}
	return &GCSArchiver{client: client, bucket: bucket}, nil
}

// Close releases the storage client.
func (g *GCSArchiver) Close() error {
	return g.client.Close()
}

// Archive uploads the report and returns its gs:// URI.
func (g *GCSArchiver) Archive(ctx context.Context, rep *report.Report) (string, error) {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return "", fmt.Errorf("Archive: encoding report: %w", err)
	}

	objectName := fmt.Sprintf("reports/%s/%s.json", rep.UserID, rep.ID)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := g.client.Bucket(g.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = "application/json"

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("Archive: writing object: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("Archive: finalize upload: %w", err)
	}

	return fmt.Sprintf("gs://%s/%s", g.bucket, objectName), nil
}
