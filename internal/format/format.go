// Package format shapes query output into transport-ready chat payloads.
// A payload is one of TEXT, TABLE or CHART; formatting never fails, it
// degrades: an unchartable result becomes text, a missing key gets a
// default, a non-numeric value is coerced to zero. A chat turn must not
// break because the data came back smaller or shaped differently than the
// model promised.
package format

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Type is the top-level shape of a formatted response.
type Type string

const (
	TypeText  Type = "TEXT"
	TypeTable Type = "TABLE"
	TypeChart Type = "CHART"
)

// ChartType selects the rendering strategy within a CHART response.
type ChartType string

const (
	ChartLine  ChartType = "line"
	ChartBar   ChartType = "bar"
	ChartPie   ChartType = "pie"
	ChartDonut ChartType = "donut"
)

// SeriesConfig describes one chart series or pie slice for legend rendering.
type SeriesConfig struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// Table is a fully stringified tabular payload.
type Table struct {
	Columns []string            `json:"columns"`
	Rows    []map[string]string `json:"rows"`
}

// Chart is a chart payload. XAxisKey/YAxisKey apply to line charts,
// XAxisKey/YAxisKeys to bar charts, NameKey/DataKey to pie and donut.
type Chart struct {
	ChartType ChartType               `json:"chartType"`
	Data      []map[string]any        `json:"data"`
	Config    map[string]SeriesConfig `json:"config"`
	XAxisKey  string                  `json:"xAxisKey,omitempty"`
	YAxisKey  string                  `json:"yAxisKey,omitempty"`
	YAxisKeys []string                `json:"yAxisKeys,omitempty"`
	NameKey   string                  `json:"nameKey,omitempty"`
	DataKey   string                  `json:"dataKey,omitempty"`
}

// Response is the discriminated payload sent to the client.
type Response struct {
	Type    Type   `json:"responseType"`
	Content string `json:"content,omitempty"`
	Table   *Table `json:"table,omitempty"`
	Chart   *Chart `json:"chart,omitempty"`
}

// FormatResponse shapes data into the requested presentation type.
// data is the query executor's output: an int64 count, a float64 aggregate,
// or a []map[string]any record list. chartType is an optional hint; when
// empty the chart shape is inferred from the data and the explanation text.
func FormatResponse(queryType Type, data any, chartType ChartType, explanation string) Response {
	switch queryType {
	case TypeTable:
		return Response{Type: TypeTable, Content: explanation, Table: buildTable(data)}
	case TypeChart:
		rows, ok := data.([]map[string]any)
		if !ok || len(rows) == 0 {
			// Nothing to chart. Fall back to text rather than shipping an
			// empty chart the client cannot render.
			content := explanation
			if content == "" {
				content = "No data available for the requested chart."
			}
			return Response{Type: TypeText, Content: content}
		}
		return Response{Type: TypeChart, Content: explanation, Chart: buildChart(rows, chartType, explanation)}
	default:
		return Response{Type: TypeText, Content: textContent(explanation, data)}
	}
}

// textContent joins the explanation with a rendering of the data. Both
// pieces are kept when present; downstream consumers rely on the number or
// record dump being part of the text.
func textContent(explanation string, data any) string {
	rendered := renderData(data)
	switch {
	case explanation == "":
		return rendered
	case rendered == "":
		return explanation
	default:
		return explanation + "\n\n" + rendered
	}
}

func renderData(data any) string {
	switch v := data.(type) {
	case nil:
		return ""
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case float64:
		return Currency(v)
	case []map[string]any:
		if len(v) == 0 {
			return ""
		}
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	default:
		return fmt.Sprint(v)
	}
}
