// Package query executes structured query descriptors against the user's
// finance records. A descriptor names one of six entities plus optional
// filters, aggregation and grouping; execution is always scoped to the
// calling user's id, whatever the descriptor says.
package query

// Entity is one of the six record kinds the executor can query.
type Entity string

const (
	EntityTransaction     Entity = "transaction"
	EntityInvestment      Entity = "investment"
	EntityGoal            Entity = "goal"
	EntityAsset           Entity = "asset"
	EntityBankAccount     Entity = "bankAccount"
	EntityBankTransaction Entity = "bankTransaction"
)

// Valid reports whether e is a recognized entity.
func (e Entity) Valid() bool {
	switch e {
	case EntityTransaction, EntityInvestment, EntityGoal,
		EntityAsset, EntityBankAccount, EntityBankTransaction:
		return true
	}
	return false
}

// Aggregation collapses matching rows into a single number.
type Aggregation string

const (
	AggregationNone    Aggregation = ""
	AggregationSum     Aggregation = "sum"
	AggregationCount   Aggregation = "count"
	AggregationAverage Aggregation = "average"
)

// GroupBy buckets rows by a key instead of returning them individually.
// Only transactions and bank transactions support grouping; for other
// entities, and when an aggregation is requested, it is ignored.
type GroupBy string

const (
	GroupByNone     GroupBy = ""
	GroupByDate     GroupBy = "date"
	GroupByCategory GroupBy = "category"
	GroupByType     GroupBy = "type"
)

// Filters is the full filter vocabulary. Each entity consumes only the
// subset that applies to it and silently drops the rest; callers may always
// send fewer fields, never different ones.
type Filters struct {
	DateFrom string `json:"dateFrom,omitempty"` // inclusive, YYYY-MM-DD
	DateTo   string `json:"dateTo,omitempty"`   // inclusive, YYYY-MM-DD
	Type     string `json:"type,omitempty"`
	Category string `json:"category,omitempty"`
	Status   string `json:"status,omitempty"`
}

// Descriptor is one executable query.
type Descriptor struct {
	Entity      Entity      `json:"entity"`
	Filters     Filters     `json:"filters"`
	Aggregation Aggregation `json:"aggregation"`
	GroupBy     GroupBy     `json:"groupBy"`
}

// Record is one normalized output row. Numeric fields are plain finite
// floats or nil, never storage-layer decimal wrappers.
type Record = map[string]any

// Result is the executor's output: exactly one of Count, Scalar or Rows is
// set. Count is the row count for count aggregation, Scalar the sum or
// average, Rows the record list (possibly grouped buckets).
type Result struct {
	Count  *int64
	Scalar *float64
	Rows   []Record
}

// Data flattens the result for the response formatter.
func (r Result) Data() any {
	switch {
	case r.Count != nil:
		return *r.Count
	case r.Scalar != nil:
		return *r.Scalar
	default:
		return r.Rows
	}
}
