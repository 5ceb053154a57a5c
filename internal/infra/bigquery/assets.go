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

// AssetRow represents a physical asset in finance.assets.
type AssetRow struct {
	AssetID string `bigquery:"asset_id"`
	UserID  string `bigquery:"user_id"`

	Name         bigquery.NullString `bigquery:"name"`
	AssetType    string              `bigquery:"asset_type"`    // REAL_ESTATE, VEHICLE, JEWELRY, ELECTRONICS, OTHER
	CurrentValue *big.Rat            `bigquery:"current_value"` // NUMERIC
	PurchaseDate civil.Date          `bigquery:"purchase_date"`

	CreatedTS time.Time `bigquery:"created_ts"`
}

// ListAssets returns the user's assets matching the filter, newest purchase first.
func (r *Repository) ListAssets(ctx context.Context, userID string, w Where) ([]*AssetRow, error) {
	query := fmt.Sprintf(`
		SELECT
			asset_id,
			user_id,
			name,
			asset_type,
			current_value,
			purchase_date,
			created_ts
		FROM %s
		WHERE user_id = @user_id%s
		ORDER BY purchase_date DESC, created_ts DESC
	`, r.table(TableAssets), w.clause())

	q := r.client.Query(query)
	q.Parameters = w.parameters(userID)

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListAssets: query read: %w", err)
	}

	var rows []*AssetRow
	for {
		var row AssetRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListAssets: iter next: %w", err)
		}
		rows = append(rows, &row)
	}

	return rows, nil
}
