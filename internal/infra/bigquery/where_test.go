package bigquery

import (
	"testing"
)

func TestWhereEmpty(t *testing.T) {
	var w Where
	if !w.Empty() {
		t.Error("zero Where should be empty")
	}
	if got := w.clause(); got != "" {
		t.Errorf("clause() = %q, want empty", got)
	}

	params := w.parameters("u1")
	if len(params) != 1 || params[0].Name != "user_id" || params[0].Value != "u1" {
		t.Errorf("parameters() = %v, want only user_id", params)
	}
}

func TestWhereBuildsClauseAndParams(t *testing.T) {
	var w Where
	w.Add("date >= @date_from", Param("date_from", "2025-01-01"))
	w.Add("transaction_type = @transaction_type", Param("transaction_type", "DEBIT"))

	want := " AND date >= @date_from AND transaction_type = @transaction_type"
	if got := w.clause(); got != want {
		t.Errorf("clause() = %q, want %q", got, want)
	}

	params := w.parameters("u1")
	if len(params) != 3 {
		t.Fatalf("got %d params, want 3", len(params))
	}
	if params[0].Name != "user_id" {
		t.Errorf("user_id must come first, got %q", params[0].Name)
	}
	if params[1].Name != "date_from" || params[2].Name != "transaction_type" {
		t.Errorf("params out of order: %v", params)
	}
}
