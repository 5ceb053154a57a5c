package bigquery

import (
	"context"
	"fmt"

	"google.golang.org/api/iterator"
)

// countableTables is the closed set of entity tables Count may touch.
var countableTables = map[string]bool{
	TableTransactions:     true,
	TableInvestments:      true,
	TableGoals:            true,
	TableAssets:           true,
	TableBankAccounts:     true,
	TableBankTransactions: true,
}

// Count returns the number of the user's rows in the given entity table that
// match the filter, without materializing any rows.
func (r *Repository) Count(ctx context.Context, userID, table string, w Where) (int64, error) {
	if !countableTables[table] {
		return 0, fmt.Errorf("Count: unknown table %q", table)
	}

	query := fmt.Sprintf(`
		SELECT COUNT(*) AS n
		FROM %s
		WHERE user_id = @user_id%s
	`, r.table(table), w.clause())

	q := r.client.Query(query)
	q.Parameters = w.parameters(userID)

	it, err := q.Read(ctx)
	if err != nil {
		return 0, fmt.Errorf("Count: query read: %w", err)
	}

	var row struct {
		N int64 `bigquery:"n"`
	}
	if err := it.Next(&row); err != nil && err != iterator.Done {
		return 0, fmt.Errorf("Count: iter next: %w", err)
	}

	return row.N, nil
}
