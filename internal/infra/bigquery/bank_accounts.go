package bigquery

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

// BankAccountRow represents a linked bank account in finance.bank_accounts.
type BankAccountRow struct {
	AccountID string `bigquery:"account_id"`
	UserID    string `bigquery:"user_id"`

	Name            bigquery.NullString `bigquery:"name"`
	StartingBalance *big.Rat            `bigquery:"starting_balance"` // NUMERIC
	IsActive        bool                `bigquery:"is_active"`

	CreatedTS time.Time `bigquery:"created_ts"`
}

// ListBankAccounts returns the user's bank accounts matching the filter,
// newest first.
func (r *Repository) ListBankAccounts(ctx context.Context, userID string, w Where) ([]*BankAccountRow, error) {
	query := fmt.Sprintf(`
		SELECT
			account_id,
			user_id,
			name,
			starting_balance,
			is_active,
			created_ts
		FROM %s
		WHERE user_id = @user_id%s
		ORDER BY created_ts DESC
	`, r.table(TableBankAccounts), w.clause())

	q := r.client.Query(query)
	q.Parameters = w.parameters(userID)

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListBankAccounts: query read: %w", err)
	}

	var rows []*BankAccountRow
	for {
		var row BankAccountRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListBankAccounts: iter next: %w", err)
		}
		rows = append(rows, &row)
	}

	return rows, nil
}
