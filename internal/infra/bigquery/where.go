package bigquery

import (
	"strings"

	"cloud.google.com/go/bigquery"
)

// Where accumulates filter predicates and their bound parameters for a
// single query. The zero value is an empty filter. Conditions reference
// parameters by @name; values are always bound, never spliced into SQL.
type Where struct {
	conds  []string
	params []bigquery.QueryParameter
}

// Add appends a condition and its parameters.
func (w *Where) Add(cond string, params ...bigquery.QueryParameter) {
	w.conds = append(w.conds, cond)
	w.params = append(w.params, params...)
}

// Empty reports whether no conditions have been added.
func (w Where) Empty() bool {
	return len(w.conds) == 0
}

// clause renders the conditions as SQL appended after a mandatory
// "user_id = @user_id" predicate, so the result always starts with " AND ".
func (w Where) clause() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " AND " + strings.Join(w.conds, " AND ")
}

// parameters returns the user id parameter followed by the filter parameters.
func (w Where) parameters(userID string) []bigquery.QueryParameter {
	params := make([]bigquery.QueryParameter, 0, len(w.params)+1)
	params = append(params, bigquery.QueryParameter{Name: "user_id", Value: userID})
	params = append(params, w.params...)
	return params
}

// Param is shorthand for a named query parameter.
func Param(name string, value interface{}) bigquery.QueryParameter {
	return bigquery.QueryParameter{Name: name, Value: value}
}
