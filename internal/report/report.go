// Package report holds saved chat answers that users can export later.
package report

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned when a report does not exist for the requesting
// user.
var ErrNotFound = errors.New("report not found")

// Report is one saved answer: the descriptor that produced it and the
// rendered response payload, frozen at save time.
type Report struct {
	ID         string          `json:"id"`
	UserID     string          `json:"userId"`
	Title      string          `json:"title"`
	Descriptor json.RawMessage `json:"descriptor,omitempty"`
	Response   json.RawMessage `json:"response"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// Store persists reports. Implemented by the BigQuery repository.
type Store interface {
	InsertReport(ctx context.Context, r *Report) error
	GetReport(ctx context.Context, userID, reportID string) (*Report, error)
	ListReports(ctx context.Context, userID string) ([]*Report, error)
}
