package format

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// columnPriority fixes the display order of well-known record fields.
// Columns not listed here follow alphabetically. Record values are plain
// maps, so a stable order has to be imposed here; the same ordering is
// reused for bar-chart series so repeated formatting of the same input is
// byte-identical.
var columnPriority = []string{
	"date",
	"name",
	"description",
	"category",
	"subCategory",
	"type",
	"transactionType",
	"status",
	"paymentMethod",
	"bankAccount",
	"amount",
	"total",
	"count",
	"value",
	"currentValue",
	"investedAmount",
	"currentBalance",
	"startingBalance",
	"currentAmount",
	"targetAmount",
	"purchaseDate",
	"createdAt",
}

func buildTable(data any) *Table {
	rows := tableRows(data)
	cols := orderedKeys(rows)

	out := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		formatted := make(map[string]string, len(cols))
		for _, col := range cols {
			formatted[col] = formatCell(col, row[col])
		}
		out = append(out, formatted)
	}

	return &Table{Columns: cols, Rows: out}
}

// tableRows normalizes the executor's output to a row list: record lists
// pass through, a lone record or scalar is wrapped in a single row.
func tableRows(data any) []map[string]any {
	switch v := data.(type) {
	case nil:
		return nil
	case []map[string]any:
		return v
	case map[string]any:
		return []map[string]any{v}
	case int64:
		return []map[string]any{{"count": v}}
	case int:
		return []map[string]any{{"count": v}}
	default:
		return []map[string]any{{"value": v}}
	}
}

// orderedKeys returns the union of row keys in a deterministic display
// order, skipping presentation-internal keys (underscore-prefixed, "fill").
func orderedKeys(rows []map[string]any) []string {
	seen := make(map[string]bool)
	for _, row := range rows {
		for k := range row {
			if strings.HasPrefix(k, "_") || k == "fill" {
				continue
			}
			seen[k] = true
		}
	}

	cols := make([]string, 0, len(seen))
	for _, k := range columnPriority {
		if seen[k] {
			cols = append(cols, k)
			delete(seen, k)
		}
	}

	rest := make([]string, 0, len(seen))
	for k := range seen {
		rest = append(rest, k)
	}
	sort.Strings(rest)

	return append(cols, rest...)
}

// formatCell stringifies one cell. Nil renders as "-", dates as a readable
// day, nested objects as their name or id, and numbers in money-named
// columns as currency.
func formatCell(col string, v any) string {
	switch val := v.(type) {
	case nil:
		return "-"
	case time.Time:
		return val.Format("02 Jan 2006")
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case map[string]any:
		if name, ok := val["name"].(string); ok && name != "" {
			return name
		}
		if id, ok := val["id"]; ok && id != nil {
			return fmt.Sprint(id)
		}
		b, err := json.Marshal(val)
		if err != nil {
			return "-"
		}
		return string(b)
	default:
		if f, ok := numeric(v); ok {
			if currencyColumn(col) {
				return Currency(f)
			}
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
		return fmt.Sprint(val)
	}
}

// currencyColumn reports whether a column name denotes a money amount.
func currencyColumn(name string) bool {
	lower := strings.ToLower(name)
	for _, hint := range []string{"amount", "value", "price", "total"} {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}
