package query

import (
	"sort"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// txLike is the shape grouping works over: transactions and bank
// transactions both reduce to a dated, typed amount with an optional
// category.
type txLike struct {
	date     civil.Date
	typ      string
	category string
	amount   decimal.Decimal // unsigned; sign is derived from typ
}

// signedAmount applies the credit/debit sign convention: credits add,
// debits subtract, anything else passes through unsigned.
func signedAmount(amt decimal.Decimal, typ string) decimal.Decimal {
	if typ == "DEBIT" {
		return amt.Neg()
	}
	return amt
}

type bucket struct {
	count int64
	total decimal.Decimal
}

// groupRows buckets rows by the requested dimension. Date and category
// buckets carry net signed totals; type buckets stay unsigned since the
// sign is the dimension itself. Returns false when the dimension does not
// apply to the entity, in which case the caller falls back to plain rows.
func groupRows(rows []txLike, g GroupBy, hasCategory bool) ([]Record, bool) {
	switch g {
	case GroupByDate:
		return bucketBy(rows, func(r txLike) string { return r.date.String() },
			func(r txLike) decimal.Decimal { return signedAmount(r.amount, r.typ) },
			"date"), true
	case GroupByCategory:
		if !hasCategory {
			return nil, false
		}
		return bucketBy(rows, func(r txLike) string {
			if r.category == "" {
				return "Uncategorized"
			}
			return r.category
		},
			func(r txLike) decimal.Decimal { return signedAmount(r.amount, r.typ) },
			"category"), true
	case GroupByType:
		return bucketBy(rows, func(r txLike) string { return r.typ },
			func(r txLike) decimal.Decimal { return r.amount },
			"type"), true
	}
	return nil, false
}

// bucketBy accumulates count and total per key and emits records in
// ascending key order so repeated runs produce identical output.
func bucketBy(rows []txLike, key func(txLike) string, amount func(txLike) decimal.Decimal, label string) []Record {
	buckets := make(map[string]*bucket)
	for _, r := range rows {
		k := key(r)
		b, ok := buckets[k]
		if !ok {
			b = &bucket{}
			buckets[k] = b
		}
		b.count++
		b.total = b.total.Add(amount(r))
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Record, 0, len(keys))
	for _, k := range keys {
		b := buckets[k]
		out = append(out, Record{
			label:   k,
			"count": b.count,
			"total": b.total.InexactFloat64(),
		})
	}
	return out
}
