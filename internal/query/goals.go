package query

import (
	"context"

	"github.com/shopspring/decimal"

	infra "github.com/dvloznov/finance-assistant/internal/infra/bigquery"
)

func goalWhere(f Filters) infra.Where {
	var w infra.Where
	if p, ok := statusParam(f.Status); ok {
		w.Add("is_active = @is_active", p)
	}
	return w
}

// goals carry no date or type columns, so grouping never applies and the
// only aggregations are over the amount saved so far.
func (e *Executor) goals(ctx context.Context, userID string, d Descriptor) (Result, error) {
	w := goalWhere(d.Filters)

	if d.Aggregation == AggregationCount {
		return e.count(ctx, userID, infra.TableGoals, w)
	}

	rows, err := e.store.ListGoals(ctx, userID, w)
	if err != nil {
		return Result{}, err
	}

	switch d.Aggregation {
	case AggregationSum:
		sum := decimal.Zero
		for _, r := range rows {
			sum = sum.Add(ratAmount(r.CurrentAmount))
		}
		return scalar(sum), nil
	case AggregationAverage:
		sum := decimal.Zero
		for _, r := range rows {
			sum = sum.Add(ratAmount(r.CurrentAmount))
		}
		return mean(sum, len(rows)), nil
	}

	out := make([]Record, 0, len(rows))
	for _, r := range rows {
		out = append(out, Record{
			"name":          nullString(r.Name),
			"currentAmount": ratFloat(r.CurrentAmount),
			"targetAmount":  ratFloat(r.TargetAmount),
			"status":        statusLabel(r.IsActive),
		})
	}
	return Result{Rows: out}, nil
}

func statusLabel(active bool) string {
	if active {
		return "active"
	}
	return "inactive"
}
