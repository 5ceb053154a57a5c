package query

import (
	"context"

	"github.com/shopspring/decimal"

	infra "github.com/dvloznov/finance-assistant/internal/infra/bigquery"
)

func bankTransactionWhere(f Filters) infra.Where {
	var w infra.Where
	if p, ok := dateParam("date_from", f.DateFrom); ok {
		w.Add("transaction_date >= @date_from", p)
	}
	if p, ok := dateParam("date_to", f.DateTo); ok {
		w.Add("transaction_date <= @date_to", p)
	}
	if f.Type != "" {
		w.Add("transaction_type = @transaction_type", infra.Param("transaction_type", f.Type))
	}
	return w
}

// bankTransactions follow the same credit/debit sign convention as
// transactions but carry no category, so category grouping falls back to
// plain rows.
func (e *Executor) bankTransactions(ctx context.Context, userID string, d Descriptor) (Result, error) {
	w := bankTransactionWhere(d.Filters)

	if d.Aggregation == AggregationCount {
		return e.count(ctx, userID, infra.TableBankTransactions, w)
	}

	rows, err := e.store.ListBankTransactions(ctx, userID, w)
	if err != nil {
		return Result{}, err
	}

	switch d.Aggregation {
	case AggregationSum:
		sum := decimal.Zero
		for _, r := range rows {
			sum = sum.Add(signedAmount(ratAmount(r.Amount), r.TransactionType))
		}
		return scalar(sum), nil
	case AggregationAverage:
		sum := decimal.Zero
		for _, r := range rows {
			sum = sum.Add(ratAmount(r.Amount))
		}
		return mean(sum, len(rows)), nil
	}

	if d.GroupBy != GroupByNone {
		likes := make([]txLike, 0, len(rows))
		for _, r := range rows {
			likes = append(likes, txLike{
				date:   r.TransactionDate,
				typ:    r.TransactionType,
				amount: ratAmount(r.Amount),
			})
		}
		if buckets, ok := groupRows(likes, d.GroupBy, false); ok {
			return Result{Rows: buckets}, nil
		}
	}

	out := make([]Record, 0, len(rows))
	for _, r := range rows {
		out = append(out, Record{
			"date":            dateTime(r.TransactionDate),
			"description":     nullString(r.Description),
			"amount":          ratFloat(r.Amount),
			"transactionType": r.TransactionType,
			"bankAccount":     nullString(r.AccountName),
			"currentBalance":  ratFloat(r.CurrentBalance),
		})
	}
	return Result{Rows: out}, nil
}
