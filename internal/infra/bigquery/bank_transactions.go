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

// BankTransactionRow represents a statement-derived transaction in
// finance.bank_transactions. The account display name is denormalized onto
// the row so reads need no joins.
type BankTransactionRow struct {
	BankTransactionID string `bigquery:"bank_transaction_id"`
	UserID            string `bigquery:"user_id"`

	AccountID   bigquery.NullString `bigquery:"account_id"`
	AccountName bigquery.NullString `bigquery:"account_name"`

	Amount          *big.Rat   `bigquery:"amount"`           // NUMERIC, always non-negative
	TransactionType string     `bigquery:"transaction_type"` // CREDIT | DEBIT
	TransactionDate civil.Date `bigquery:"transaction_date"`
	CurrentBalance  *big.Rat   `bigquery:"current_balance"` // NUMERIC, NULLABLE

	Description bigquery.NullString `bigquery:"description"`

	CreatedTS time.Time `bigquery:"created_ts"`
}

// ListBankTransactions returns the user's bank transactions matching the
// filter, newest first.
func (r *Repository) ListBankTransactions(ctx context.Context, userID string, w Where) ([]*BankTransactionRow, error) {
	query := fmt.Sprintf(`
		SELECT
			bank_transaction_id,
			user_id,
			account_id,
			account_name,
			amount,
			transaction_type,
			transaction_date,
			current_balance,
			description,
			created_ts
		FROM %s
		WHERE user_id = @user_id%s
		ORDER BY transaction_date DESC, created_ts DESC
	`, r.table(TableBankTransactions), w.clause())

	q := r.client.Query(query)
	q.Parameters = w.parameters(userID)

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListBankTransactions: query read: %w", err)
	}

	var rows []*BankTransactionRow
	for {
		var row BankTransactionRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListBankTransactions: iter next: %w", err)
		}
		rows = append(rows, &row)
	}

	return rows, nil
}
