package query

import (
	"context"

	"github.com/shopspring/decimal"

	infra "github.com/dvloznov/finance-assistant/internal/infra/bigquery"
)

func bankAccountWhere(f Filters) infra.Where {
	var w infra.Where
	if p, ok := statusParam(f.Status); ok {
		w.Add("is_active = @is_active", p)
	}
	return w
}

func (e *Executor) bankAccounts(ctx context.Context, userID string, d Descriptor) (Result, error) {
	w := bankAccountWhere(d.Filters)

	if d.Aggregation == AggregationCount {
		return e.count(ctx, userID, infra.TableBankAccounts, w)
	}

	rows, err := e.store.ListBankAccounts(ctx, userID, w)
	if err != nil {
		return Result{}, err
	}

	switch d.Aggregation {
	case AggregationSum:
		sum := decimal.Zero
		for _, r := range rows {
			sum = sum.Add(ratAmount(r.StartingBalance))
		}
		return scalar(sum), nil
	case AggregationAverage:
		sum := decimal.Zero
		for _, r := range rows {
			sum = sum.Add(ratAmount(r.StartingBalance))
		}
		return mean(sum, len(rows)), nil
	}

	out := make([]Record, 0, len(rows))
	for _, r := range rows {
		out = append(out, Record{
			"name":            nullString(r.Name),
			"startingBalance": ratFloat(r.StartingBalance),
			"status":          statusLabel(r.IsActive),
		})
	}
	return Result{Rows: out}, nil
}
