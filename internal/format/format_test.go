package format

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestFormatResponseTextJoinsExplanationAndData(t *testing.T) {
	resp := FormatResponse(TypeText, 12500.0, "", "You spent this much on food.")

	if resp.Type != TypeText {
		t.Fatalf("Type = %q", resp.Type)
	}
	if resp.Content != "You spent this much on food.\n\n₹12,500" {
		t.Errorf("Content = %q", resp.Content)
	}
}

func TestFormatResponseTextCount(t *testing.T) {
	resp := FormatResponse(TypeText, int64(42), "", "Transactions this month.")

	if !strings.HasSuffix(resp.Content, "42") {
		t.Errorf("count should render unformatted, got %q", resp.Content)
	}
	if strings.Contains(resp.Content, "₹") {
		t.Errorf("count must not be currency-formatted: %q", resp.Content)
	}
}

func TestTableFormatsCells(t *testing.T) {
	rows := []map[string]any{
		{
			"date":        time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
			"description": "Groceries",
			"amount":      1250.0,
			"category":    nil,
		},
	}
	resp := FormatResponse(TypeTable, rows, "", "Your transactions.")

	if resp.Table == nil {
		t.Fatal("Table missing")
	}
	row := resp.Table.Rows[0]
	if row["date"] != "15 Mar 2025" {
		t.Errorf("date = %q", row["date"])
	}
	if row["amount"] != "₹1,250" {
		t.Errorf("amount = %q", row["amount"])
	}
	if row["category"] != "-" {
		t.Errorf("nil cell = %q, want dash", row["category"])
	}
}

func TestTableColumnOrderIsStable(t *testing.T) {
	rows := []map[string]any{
		{"zebra": 1, "amount": 2.0, "date": time.Now(), "aardvark": 3, "_internal": 4, "fill": "#fff"},
	}

	first := FormatResponse(TypeTable, rows, "", "")
	second := FormatResponse(TypeTable, rows, "", "")

	want := []string{"date", "amount", "aardvark", "zebra"}
	if len(first.Table.Columns) != len(want) {
		t.Fatalf("Columns = %v, want %v", first.Table.Columns, want)
	}
	for i, col := range want {
		if first.Table.Columns[i] != col {
			t.Fatalf("Columns = %v, want %v", first.Table.Columns, want)
		}
	}
	for i := range want {
		if first.Table.Columns[i] != second.Table.Columns[i] {
			t.Fatal("column order differs between runs")
		}
	}
}

func TestTableWrapsScalar(t *testing.T) {
	resp := FormatResponse(TypeTable, int64(9), "", "")

	if resp.Table == nil || len(resp.Table.Rows) != 1 {
		t.Fatalf("Table = %+v", resp.Table)
	}
	if resp.Table.Rows[0]["count"] != "9" {
		t.Errorf("count cell = %q", resp.Table.Rows[0]["count"])
	}
}

func TestChartDegradesToTextOnEmptyData(t *testing.T) {
	resp := FormatResponse(TypeChart, []map[string]any{}, ChartLine, "")

	if resp.Type != TypeText {
		t.Fatalf("Type = %q, want TEXT degradation", resp.Type)
	}
	if resp.Content != "No data available for the requested chart." {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.Chart != nil {
		t.Error("degraded response must not carry a chart")
	}
}

func TestChartDegradesToTextOnScalar(t *testing.T) {
	resp := FormatResponse(TypeChart, 120.0, "", "Your total.")

	if resp.Type != TypeText || resp.Content != "Your total." {
		t.Errorf("resp = %+v", resp)
	}
}

func TestChartLineCoercesTotals(t *testing.T) {
	rows := []map[string]any{
		{"date": "2025-01-01", "count": int64(2), "total": 80.0},
		{"date": "2025-01-02", "count": int64(1), "total": "oops"},
	}
	resp := FormatResponse(TypeChart, rows, ChartLine, "Daily spend.")

	if resp.Chart == nil || resp.Chart.ChartType != ChartLine {
		t.Fatalf("Chart = %+v", resp.Chart)
	}
	if resp.Chart.XAxisKey != "date" || resp.Chart.YAxisKey != "total" {
		t.Errorf("axes = %q/%q", resp.Chart.XAxisKey, resp.Chart.YAxisKey)
	}
	if resp.Chart.Data[1]["total"] != 0.0 {
		t.Errorf("non-numeric total should coerce to 0, got %v", resp.Chart.Data[1]["total"])
	}
}

func TestChartInfersPieFromShape(t *testing.T) {
	rows := []map[string]any{
		{"category": "Food", "count": int64(4), "total": 300.0},
		{"category": "Travel", "count": int64(2), "total": 120.0},
	}
	resp := FormatResponse(TypeChart, rows, "", "Spending by group.")

	if resp.Chart == nil || resp.Chart.ChartType != ChartPie {
		t.Fatalf("ChartType = %v, want pie for category-shaped data", resp.Chart)
	}
	if resp.Chart.NameKey != "category" || resp.Chart.DataKey != "total" {
		t.Errorf("keys = %q/%q", resp.Chart.NameKey, resp.Chart.DataKey)
	}
	if len(resp.Chart.Config) != 2 {
		t.Errorf("Config = %v, want one entry per slice", resp.Chart.Config)
	}
	for _, slice := range resp.Chart.Data {
		if slice["fill"] == "" || slice["fill"] == nil {
			t.Errorf("slice missing fill: %v", slice)
		}
	}
}

func TestChartInfersPieFromExplanation(t *testing.T) {
	rows := []map[string]any{
		{"date": "2025-01-01", "total": 10.0},
	}
	resp := FormatResponse(TypeChart, rows, "", "A breakdown of your spending.")

	if resp.Chart.ChartType != ChartPie {
		t.Errorf("ChartType = %q, want pie from keyword", resp.Chart.ChartType)
	}
}

func TestChartDefaultsToBar(t *testing.T) {
	rows := []map[string]any{
		{"name": "Emergency fund", "currentAmount": 50000.0, "targetAmount": 100000.0},
	}
	resp := FormatResponse(TypeChart, rows, "", "Goal progress.")

	chart := resp.Chart
	if chart == nil || chart.ChartType != ChartBar {
		t.Fatalf("Chart = %+v, want bar", chart)
	}
	if chart.XAxisKey != "name" {
		t.Errorf("XAxisKey = %q", chart.XAxisKey)
	}
	want := []string{"currentAmount", "targetAmount"}
	if len(chart.YAxisKeys) != 2 || chart.YAxisKeys[0] != want[0] || chart.YAxisKeys[1] != want[1] {
		t.Errorf("YAxisKeys = %v, want %v", chart.YAxisKeys, want)
	}
	if chart.Config["currentAmount"].Color == chart.Config["targetAmount"].Color {
		t.Error("series should get distinct palette colors")
	}
}

func TestChartRespectsExplicitHint(t *testing.T) {
	rows := []map[string]any{
		{"category": "Food", "total": 300.0},
	}
	resp := FormatResponse(TypeChart, rows, ChartDonut, "")

	if resp.Chart.ChartType != ChartDonut {
		t.Errorf("ChartType = %q, want the donut hint honored", resp.Chart.ChartType)
	}
}

func TestChartPayloadIsIdempotent(t *testing.T) {
	rows := []map[string]any{
		{"category": "Food", "count": int64(4), "total": 300.0},
		{"category": "Travel", "count": int64(2), "total": 120.0},
	}

	a, err := json.Marshal(FormatResponse(TypeChart, rows, "", "breakdown"))
	if err != nil {
		t.Fatal(err)
	}
	b, err := json.Marshal(FormatResponse(TypeChart, rows, "", "breakdown"))
	if err != nil {
		t.Fatal(err)
	}
	if string(a) != string(b) {
		t.Error("repeated formatting produced different payloads")
	}
}

func TestCurrency(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"grouping", 150000.0, "₹1,50,000"},
		{"small", 950.0, "₹950"},
		{"rounds", 1250.6, "₹1,251"},
		{"negative", -450.0, "-₹450"},
		{"nil", nil, "₹0"},
		{"non-numeric", "abc", "₹0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Currency(tt.in); got != tt.want {
				t.Errorf("Currency(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
