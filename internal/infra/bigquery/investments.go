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

// InvestmentRow represents a holding in finance.investments.
type InvestmentRow struct {
	InvestmentID string `bigquery:"investment_id"`
	UserID       string `bigquery:"user_id"`

	Name           bigquery.NullString `bigquery:"name"`
	InvestmentType string              `bigquery:"investment_type"` // STOCKS, MUTUAL_FUNDS, BONDS, FIXED_DEPOSIT, CRYPTO, OTHER
	CurrentValue   *big.Rat            `bigquery:"current_value"`   // NUMERIC
	InvestedAmount *big.Rat            `bigquery:"invested_amount"` // NUMERIC
	PurchaseDate   civil.Date          `bigquery:"purchase_date"`

	CreatedTS time.Time `bigquery:"created_ts"`
}

// ListInvestments returns the user's investments matching the filter,
// newest purchase first.
func (r *Repository) ListInvestments(ctx context.Context, userID string, w Where) ([]*InvestmentRow, error) {
	query := fmt.Sprintf(`
		SELECT
			investment_id,
			user_id,
			name,
			investment_type,
			current_value,
			invested_amount,
			purchase_date,
			created_ts
		FROM %s
		WHERE user_id = @user_id%s
		ORDER BY purchase_date DESC, created_ts DESC
	`, r.table(TableInvestments), w.clause())

	q := r.client.Query(query)
	q.Parameters = w.parameters(userID)

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListInvestments: query read: %w", err)
	}

	var rows []*InvestmentRow
	for {
		var row InvestmentRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListInvestments: iter next: %w", err)
		}
		rows = append(rows, &row)
	}

	return rows, nil
}
