package query

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	infra "github.com/dvloznov/finance-assistant/internal/infra/bigquery"
)

// ErrUnknownEntity is returned when a descriptor names an entity outside the
// closed six-way set. It is fatal for the chat turn and never retried.
var ErrUnknownEntity = errors.New("unknown entity")

// Store is the storage collaborator: one read per entity plus a count that
// never materializes rows. Implemented by the BigQuery repository; the
// interface lives here so tests can substitute a mock.
type Store interface {
	ListTransactions(ctx context.Context, userID string, w infra.Where) ([]*infra.TransactionRow, error)
	ListInvestments(ctx context.Context, userID string, w infra.Where) ([]*infra.InvestmentRow, error)
	ListGoals(ctx context.Context, userID string, w infra.Where) ([]*infra.GoalRow, error)
	ListAssets(ctx context.Context, userID string, w infra.Where) ([]*infra.AssetRow, error)
	ListBankAccounts(ctx context.Context, userID string, w infra.Where) ([]*infra.BankAccountRow, error)
	ListBankTransactions(ctx context.Context, userID string, w infra.Where) ([]*infra.BankTransactionRow, error)
	Count(ctx context.Context, userID, table string, w infra.Where) (int64, error)
}

// Executor runs descriptors against the store.
type Executor struct {
	store Store
	log   zerolog.Logger
}

// NewExecutor creates an Executor.
func NewExecutor(store Store, log zerolog.Logger) *Executor {
	return &Executor{store: store, log: log}
}

// Execute runs the descriptor scoped to userID. Storage errors are wrapped
// with the entity name and propagated, never swallowed.
func (e *Executor) Execute(ctx context.Context, userID string, d Descriptor) (Result, error) {
	e.log.Debug().
		Str("user_id", userID).
		Str("entity", string(d.Entity)).
		Str("aggregation", string(d.Aggregation)).
		Str("group_by", string(d.GroupBy)).
		Msg("executing query")

	var (
		res Result
		err error
	)
	switch d.Entity {
	case EntityTransaction:
		res, err = e.transactions(ctx, userID, d)
	case EntityInvestment:
		res, err = e.investments(ctx, userID, d)
	case EntityGoal:
		res, err = e.goals(ctx, userID, d)
	case EntityAsset:
		res, err = e.assets(ctx, userID, d)
	case EntityBankAccount:
		res, err = e.bankAccounts(ctx, userID, d)
	case EntityBankTransaction:
		res, err = e.bankTransactions(ctx, userID, d)
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownEntity, d.Entity)
	}
	if err != nil {
		return Result{}, fmt.Errorf("failed to query %s: %w", d.Entity, err)
	}
	return res, nil
}

// count runs a count aggregation for the given entity table.
func (e *Executor) count(ctx context.Context, userID, table string, w infra.Where) (Result, error) {
	n, err := e.store.Count(ctx, userID, table, w)
	if err != nil {
		return Result{}, err
	}
	return Result{Count: &n}, nil
}

// scalar wraps a decimal aggregate as a plain-float result.
func scalar(d decimal.Decimal) Result {
	v := d.InexactFloat64()
	return Result{Scalar: &v}
}

// ratAmount converts a storage NUMERIC into an exact decimal; nil means zero.
func ratAmount(r *big.Rat) decimal.Decimal {
	if r == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigRat(r, 9)
}

// ratFloat converts a storage NUMERIC into a plain float for output records;
// nil stays nil so tables can render a dash.
func ratFloat(r *big.Rat) any {
	if r == nil {
		return nil
	}
	f, _ := r.Float64()
	return f
}

// mean is the unsigned arithmetic mean of the amounts, zero for no rows.
func mean(sum decimal.Decimal, n int) Result {
	if n == 0 {
		z := 0.0
		return Result{Scalar: &z}
	}
	return scalar(sum.Div(decimal.NewFromInt(int64(n))))
}

// dateParam parses an ISO date filter into a typed query parameter.
// Malformed dates are dropped rather than failing the query.
func dateParam(name, s string) (bigquery.QueryParameter, bool) {
	if s == "" {
		return bigquery.QueryParameter{}, false
	}
	d, err := civil.ParseDate(s)
	if err != nil {
		return bigquery.QueryParameter{}, false
	}
	return infra.Param(name, d), true
}

// statusParam maps the active/inactive status filter onto the boolean
// column entities without a status string carry. Unknown values are
// dropped.
func statusParam(s string) (bigquery.QueryParameter, bool) {
	switch strings.ToLower(s) {
	case "active":
		return infra.Param("is_active", true), true
	case "inactive":
		return infra.Param("is_active", false), true
	}
	return bigquery.QueryParameter{}, false
}

// dateTime lifts a storage civil date into a UTC time for output records.
func dateTime(d civil.Date) time.Time {
	return d.In(time.UTC)
}

// nullString lifts a nullable storage string; invalid stays nil so tables
// can render a dash.
func nullString(s bigquery.NullString) any {
	if !s.Valid {
		return nil
	}
	return s.StringVal
}
