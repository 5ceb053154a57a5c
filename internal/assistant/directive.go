package assistant

import (
	"encoding/json"
	"strings"

	"github.com/dvloznov/finance-assistant/internal/format"
	"github.com/dvloznov/finance-assistant/internal/query"
)

// Directive is the structured instruction the model embeds in its streamed
// answer. Everything except queryType is optional; a TEXT directive with no
// entity is a plain prose answer.
type Directive struct {
	QueryType   format.Type       `json:"queryType"`
	Entity      query.Entity      `json:"entity,omitempty"`
	Filters     query.Filters     `json:"filters,omitempty"`
	Aggregation query.Aggregation `json:"aggregation,omitempty"`
	GroupBy     query.GroupBy     `json:"groupBy,omitempty"`
	ChartType   format.ChartType  `json:"chartType,omitempty"`
	Explanation string            `json:"explanation,omitempty"`
}

// HasQuery reports whether the directive asks for data at all.
func (d *Directive) HasQuery() bool {
	return d.Entity != ""
}

// Descriptor converts the directive into an executable query. Aggregation
// and grouping values outside the known enums are normalized to none so a
// creative model cannot produce a silently-wrong result shape.
func (d *Directive) Descriptor() query.Descriptor {
	desc := query.Descriptor{
		Entity:  d.Entity,
		Filters: d.Filters,
	}
	switch d.Aggregation {
	case query.AggregationSum, query.AggregationCount, query.AggregationAverage:
		desc.Aggregation = d.Aggregation
	}
	switch d.GroupBy {
	case query.GroupByDate, query.GroupByCategory, query.GroupByType:
		desc.GroupBy = d.GroupBy
	}
	return desc
}

// ExtractDirective scans accumulated model output for an embedded JSON
// directive: either a fenced code block or a bare object containing the
// literal key "queryType". Returns nil when no directive is present, which
// makes the turn a plain-text answer rather than an error.
func ExtractDirective(text string) *Directive {
	for _, candidate := range jsonCandidates(text) {
		if !strings.Contains(candidate, `"queryType"`) {
			continue
		}
		var d Directive
		if err := json.Unmarshal([]byte(candidate), &d); err != nil {
			continue
		}
		if d.QueryType == "" {
			continue
		}
		return &d
	}
	return nil
}

// jsonCandidates returns substrings of text that could be the directive:
// fenced blocks first, then the widest balanced bare object.
func jsonCandidates(text string) []string {
	var out []string

	s := text
	for {
		start := strings.Index(s, "```")
		if start == -1 {
			break
		}
		rest := s[start+3:]
		// Drop the language tag line (```json or bare ```).
		if nl := strings.Index(rest, "\n"); nl != -1 {
			rest = rest[nl+1:]
		}
		end := strings.Index(rest, "```")
		if end == -1 {
			break
		}
		out = append(out, strings.TrimSpace(rest[:end]))
		s = rest[end+3:]
	}

	if obj := balancedObject(text); obj != "" {
		out = append(out, obj)
	}
	return out
}

// balancedObject returns the first brace-balanced object in text, tracking
// strings so braces inside values do not miscount.
func balancedObject(text string) string {
	start := strings.IndexByte(text, '{')
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

// StripDirective removes the directive JSON from the model's text so the
// user-facing content is prose only. Unrelated fenced blocks are left
// alone.
func StripDirective(text string) string {
	s := text
	from := 0
	for {
		start := strings.Index(s[from:], "```")
		if start == -1 {
			break
		}
		start += from
		rest := s[start+3:]
		end := strings.Index(rest, "```")
		if end == -1 {
			break
		}
		if strings.Contains(rest[:end], `"queryType"`) {
			s = s[:start] + rest[end+3:]
			from = start
			continue
		}
		from = start + 3 + end + 3
	}
	if obj := balancedObject(s); obj != "" && strings.Contains(obj, `"queryType"`) {
		s = strings.Replace(s, obj, "", 1)
	}
	return strings.TrimSpace(s)
}
