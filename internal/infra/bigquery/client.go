// Package bigquery is the BigQuery-backed storage layer for the finance
// assistant. Every read is scoped to a user id; callers supply additional
// predicates through a Where value and never raw SQL.
package bigquery

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/bigquery"
)

const (
	defaultDatasetID = "finance"

	// Table names form a closed set; Count validates against it so that an
	// entity name can never be spliced into SQL unchecked.
	TableTransactions     = "transactions"
	TableInvestments      = "investments"
	TableGoals            = "goals"
	TableAssets           = "assets"
	TableBankAccounts     = "bank_accounts"
	TableBankTransactions = "bank_transactions"

	tableConversations = "conversations"
	tableChatMessages  = "chat_messages"
	tableReports       = "reports"
)

// Repository holds a shared BigQuery client for all entity, chat and report
// operations. Create one per process and Close it on shutdown.
type Repository struct {
	client    *bigquery.Client
	projectID string
	datasetID string
}

// NewRepository creates a Repository for the given project. An empty projectID
// falls back to the GOOGLE_CLOUD_PROJECT environment variable; an empty
// datasetID falls back to "finance".
func NewRepository(ctx context.Context, projectID, datasetID string) (*Repository, error) {
	if projectID == "" {
		projectID = os.Getenv("GOOGLE_CLOUD_PROJECT")
	}
	if projectID == "" {
		return nil, fmt.Errorf("NewRepository: no project ID configured (set GOOGLE_CLOUD_PROJECT)")
	}
	if datasetID == "" {
		datasetID = defaultDatasetID
	}

	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewRepository: creating client: %w", err)
	}

	return &Repository{
		client:    client,
		projectID: projectID,
		datasetID: datasetID,
	}, nil
}

// Close closes the underlying BigQuery client.
func (r *Repository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// table returns the fully qualified table name for SQL text.
func (r *Repository) table(name string) string {
	return fmt.Sprintf("`%s.%s.%s`", r.projectID, r.datasetID, name)
}
