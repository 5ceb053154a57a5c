package query

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	infra "github.com/dvloznov/finance-assistant/internal/infra/bigquery"
)

// transactionWhere interprets the filter subset transactions understand:
// date bounds on the transaction date, exact transaction type and status,
// and a case-insensitive substring match on the category name. Anything
// else is dropped.
func transactionWhere(f Filters) infra.Where {
	var w infra.Where
	if p, ok := dateParam("date_from", f.DateFrom); ok {
		w.Add("date >= @date_from", p)
	}
	if p, ok := dateParam("date_to", f.DateTo); ok {
		w.Add("date <= @date_to", p)
	}
	if f.Type != "" {
		w.Add("transaction_type = @transaction_type", infra.Param("transaction_type", f.Type))
	}
	if f.Status != "" {
		w.Add("status = @status", infra.Param("status", f.Status))
	}
	if f.Category != "" {
		w.Add("LOWER(category_name) LIKE @category",
			infra.Param("category", "%"+strings.ToLower(f.Category)+"%"))
	}
	return w
}

func (e *Executor) transactions(ctx context.Context, userID string, d Descriptor) (Result, error) {
	w := transactionWhere(d.Filters)

	if d.Aggregation == AggregationCount {
		return e.count(ctx, userID, infra.TableTransactions, w)
	}

	rows, err := e.store.ListTransactions(ctx, userID, w)
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
				date:     r.Date,
				typ:      r.TransactionType,
				category: r.CategoryName.StringVal,
				amount:   ratAmount(r.Amount),
			})
		}
		if buckets, ok := groupRows(likes, d.GroupBy, true); ok {
			return Result{Rows: buckets}, nil
		}
	}

	return Result{Rows: transactionRecords(rows)}, nil
}

func transactionRecords(rows []*infra.TransactionRow) []Record {
	out := make([]Record, 0, len(rows))
	for _, r := range rows {
		out = append(out, Record{
			"date":            dateTime(r.Date),
			"description":     nullString(r.Description),
			"amount":          ratFloat(r.Amount),
			"transactionType": r.TransactionType,
			"status":          r.Status,
			"category":        nullString(r.CategoryName),
			"subCategory":     nullString(r.SubcategoryName),
			"bankAccount":     nullString(r.AccountName),
			"paymentMethod":   nullString(r.PaymentMethod),
		})
	}
	return out
}
