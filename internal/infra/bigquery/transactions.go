package bigquery

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"google.golang.org/api/iterator"
)

// TransactionRow represents a manually tracked transaction in
// finance.transactions. Category, subcategory and account display names are
// denormalized onto the row so reads need no joins.
type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"`
	UserID        string `bigquery:"user_id"`

	Amount          *big.Rat   `bigquery:"amount"`           // NUMERIC, always non-negative
	TransactionType string     `bigquery:"transaction_type"` // CREDIT | DEBIT
	Status          string     `bigquery:"status"`           // e.g. COMPLETED, PENDING
	Date            civil.Date `bigquery:"date"`

	Description     bigquery.NullString `bigquery:"description"`
	CategoryName    bigquery.NullString `bigquery:"category_name"`
	SubcategoryName bigquery.NullString `bigquery:"subcategory_name"`
	AccountName     bigquery.NullString `bigquery:"account_name"`
	PaymentMethod   bigquery.NullString `bigquery:"payment_method"`

	CreatedTS time.Time `bigquery:"created_ts"`
}

// ListTransactions returns the user's transactions matching the filter,
// newest first.
func (r *Repository) ListTransactions(ctx context.Context, userID string, w Where) ([]*TransactionRow, error) {
	query := fmt.Sprintf(`
		SELECT
			transaction_id,
			user_id,
			amount,
			transaction_type,
			status,
			date,
			description,
			category_name,
			subcategory_name,
			account_name,
			payment_method,
			created_ts
		FROM %s
		WHERE user_id = @user_id%s
		ORDER BY date DESC, created_ts DESC
	`, r.table(TableTransactions), w.clause())

	q := r.client.Query(query)
	q.Parameters = w.parameters(userID)

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: query read: %w", err)
	}

	var rows []*TransactionRow
	for {
		var row TransactionRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListTransactions: iter next: %w", err)
		}
		rows = append(rows, &row)
	}

	return rows, nil
}

// DistinctTransactionCategories returns the distinct category names present
// in the user's transactions, for prompt construction.
func (r *Repository) DistinctTransactionCategories(ctx context.Context, userID string) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT DISTINCT category_name
		FROM %s
		WHERE user_id = @user_id
		  AND category_name IS NOT NULL
		ORDER BY category_name
	`, r.table(TableTransactions))

	q := r.client.Query(query)
	q.Parameters = []bigquery.QueryParameter{{Name: "user_id", Value: userID}}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("DistinctTransactionCategories: query read: %w", err)
	}

	var names []string
	for {
		var row struct {
			CategoryName string `bigquery:"category_name"`
		}
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("DistinctTransactionCategories: iter next: %w", err)
		}
		names = append(names, row.CategoryName)
	}

	return names, nil
}
