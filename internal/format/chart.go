package format

import (
	"fmt"
	"strings"
)

// barPalette colors bar-chart series, cycled per series.
var barPalette = []string{
	"#2563eb",
	"#f97316",
	"#22c55e",
	"#a855f7",
	"#ef4444",
}

// piePalette colors pie and donut slices, cycled per slice.
var piePalette = []string{
	"#2563eb",
	"#f97316",
	"#22c55e",
	"#a855f7",
	"#ef4444",
	"#06b6d4",
	"#eab308",
	"#ec4899",
	"#14b8a6",
	"#8b5cf6",
	"#f43f5e",
	"#84cc16",
}

// pieKeywords are explanation-text hints that the user asked for a
// proportional view. Best-effort only; an explicit chartType always wins.
var pieKeywords = []string{
	"pie",
	"donut",
	"circular",
	"proportion",
	"percentage",
	"breakdown",
	"distribution",
}

// buildChart renders rows as the hinted chart shape, inferring one when no
// hint is given. rows is non-empty (the caller degrades empty data to text).
func buildChart(rows []map[string]any, hint ChartType, explanation string) *Chart {
	shape := hint
	if shape == "" {
		shape = inferChartType(rows, explanation)
	}

	switch shape {
	case ChartLine:
		return buildLine(rows)
	case ChartPie, ChartDonut:
		return buildPie(rows, shape)
	default:
		return buildBar(rows)
	}
}

// inferChartType picks a shape when the caller gave no hint: data that is
// structurally a per-category summary prefers pie, as does an explanation
// that asks for one; everything else gets a bar chart.
func inferChartType(rows []map[string]any, explanation string) ChartType {
	if categorySummaryShaped(rows) {
		return ChartPie
	}

	lower := strings.ToLower(explanation)
	for _, kw := range pieKeywords {
		if strings.Contains(lower, kw) {
			return ChartPie
		}
	}

	return ChartBar
}

// categorySummaryShaped reports whether every row carries a category-or-type
// key and a total-or-value key without a date key, i.e. the data is a
// grouped-by-category summary rather than a time series.
func categorySummaryShaped(rows []map[string]any) bool {
	for _, row := range rows {
		if _, ok := row["date"]; ok {
			return false
		}
		_, hasCategory := row["category"]
		_, hasType := row["type"]
		if !hasCategory && !hasType {
			return false
		}
		_, hasTotal := row["total"]
		_, hasValue := row["value"]
		if !hasTotal && !hasValue {
			return false
		}
	}
	return true
}

func buildLine(rows []map[string]any) *Chart {
	data := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		point := cloneRow(row)
		point["total"] = toFloat(row["total"])
		data = append(data, point)
	}

	return &Chart{
		ChartType: ChartLine,
		Data:      data,
		XAxisKey:  "date",
		YAxisKey:  "total",
		Config: map[string]SeriesConfig{
			"total": {Label: "total", Color: barPalette[0]},
		},
	}
}

func buildBar(rows []map[string]any) *Chart {
	first := rows[0]

	xKey := "name"
	for _, k := range []string{"date", "name", "category", "type"} {
		if _, ok := first[k]; ok {
			xKey = k
			break
		}
	}

	var yKeys []string
	for _, k := range orderedKeys(rows[:1]) {
		if k == xKey {
			continue
		}
		if _, ok := numeric(first[k]); ok {
			yKeys = append(yKeys, k)
		}
	}
	if len(yKeys) == 0 {
		yKeys = []string{"value"}
	}

	config := make(map[string]SeriesConfig, len(yKeys))
	for i, k := range yKeys {
		config[k] = SeriesConfig{Label: k, Color: barPalette[i%len(barPalette)]}
	}

	data := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		data = append(data, cloneRow(row))
	}

	return &Chart{
		ChartType: ChartBar,
		Data:      data,
		XAxisKey:  xKey,
		YAxisKeys: yKeys,
		Config:    config,
	}
}

func buildPie(rows []map[string]any, shape ChartType) *Chart {
	first := rows[0]

	nameKey := "name"
	for _, k := range []string{"name", "category", "type"} {
		if _, ok := first[k]; ok {
			nameKey = k
			break
		}
	}

	dataKey := "value"
	for _, k := range []string{"value", "total", "amount"} {
		if _, ok := first[k]; ok {
			dataKey = k
			break
		}
	}

	data := make([]map[string]any, 0, len(rows))
	config := make(map[string]SeriesConfig, len(rows))
	for i, row := range rows {
		slice := cloneRow(row)
		slice["fill"] = sliceColor(row, i)

		name := ""
		if v, ok := row[nameKey]; ok && v != nil {
			name = fmt.Sprint(v)
		}
		if name != "" {
			config[name] = SeriesConfig{Label: name, Color: slice["fill"].(string)}
		}

		data = append(data, slice)
	}

	return &Chart{
		ChartType: shape,
		Data:      data,
		NameKey:   nameKey,
		DataKey:   dataKey,
		Config:    config,
	}
}

// sliceColor honors a color the row brought along, then falls back to the
// palette cycled by index.
func sliceColor(row map[string]any, i int) string {
	if s, ok := row["color"].(string); ok && s != "" {
		return s
	}
	if s, ok := row["fill"].(string); ok && s != "" {
		return s
	}
	return piePalette[i%len(piePalette)]
}

func cloneRow(row map[string]any) map[string]any {
	out := make(map[string]any, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}
