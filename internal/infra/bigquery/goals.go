package bigquery

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

// GoalRow represents a savings goal in finance.goals.
type GoalRow struct {
	GoalID string `bigquery:"goal_id"`
	UserID string `bigquery:"user_id"`

	Name          bigquery.NullString `bigquery:"name"`
	CurrentAmount *big.Rat            `bigquery:"current_amount"` // NUMERIC
	TargetAmount  *big.Rat            `bigquery:"target_amount"`  // NUMERIC, NULLABLE
	IsActive      bool                `bigquery:"is_active"`

	CreatedTS time.Time `bigquery:"created_ts"`
}

// ListGoals returns the user's goals matching the filter, newest first.
func (r *Repository) ListGoals(ctx context.Context, userID string, w Where) ([]*GoalRow, error) {
	query := fmt.Sprintf(`
		SELECT
			goal_id,
			user_id,
			name,
			current_amount,
			target_amount,
			is_active,
			created_ts
		FROM %s
		WHERE user_id = @user_id%s
		ORDER BY created_ts DESC
	`, r.table(TableGoals), w.clause())

	q := r.client.Query(query)
	q.Parameters = w.parameters(userID)

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListGoals: query read: %w", err)
	}

	var rows []*GoalRow
	for {
		var row GoalRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListGoals: iter next: %w", err)
		}
		rows = append(rows, &row)
	}

	return rows, nil
}
