package query

import (
	"context"

	"github.com/shopspring/decimal"

	infra "github.com/dvloznov/finance-assistant/internal/infra/bigquery"
)

func assetWhere(f Filters) infra.Where {
	var w infra.Where
	if p, ok := dateParam("date_from", f.DateFrom); ok {
		w.Add("purchase_date >= @date_from", p)
	}
	if p, ok := dateParam("date_to", f.DateTo); ok {
		w.Add("purchase_date <= @date_to", p)
	}
	if f.Type != "" {
		w.Add("asset_type = @asset_type", infra.Param("asset_type", f.Type))
	}
	return w
}

func (e *Executor) assets(ctx context.Context, userID string, d Descriptor) (Result, error) {
	w := assetWhere(d.Filters)

	if d.Aggregation == AggregationCount {
		return e.count(ctx, userID, infra.TableAssets, w)
	}

	rows, err := e.store.ListAssets(ctx, userID, w)
	if err != nil {
		return Result{}, err
	}

	switch d.Aggregation {
	case AggregationSum:
		sum := decimal.Zero
		for _, r := range rows {
			sum = sum.Add(ratAmount(r.CurrentValue))
		}
		return scalar(sum), nil
	case AggregationAverage:
		sum := decimal.Zero
		for _, r := range rows {
			sum = sum.Add(ratAmount(r.CurrentValue))
		}
		return mean(sum, len(rows)), nil
	}

	out := make([]Record, 0, len(rows))
	for _, r := range rows {
		out = append(out, Record{
			"name":         nullString(r.Name),
			"type":         r.AssetType,
			"currentValue": ratFloat(r.CurrentValue),
			"purchaseDate": dateTime(r.PurchaseDate),
		})
	}
	return Result{Rows: out}, nil
}
