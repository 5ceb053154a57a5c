package format

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// inr prints numbers with Indian digit grouping (1,50,000).
var inr = message.NewPrinter(language.MustParse("en-IN"))

// Currency renders an amount as a whole-rupee string, e.g. "₹1,50,000".
// Nil and non-numeric values render as "₹0" rather than erroring.
func Currency(v any) string {
	f, ok := numeric(v)
	if !ok {
		return "₹0"
	}
	n := int64(math.Round(f))
	if n < 0 {
		return "-₹" + inr.Sprintf("%d", -n)
	}
	return "₹" + inr.Sprintf("%d", n)
}

// numeric converts any built-in numeric value to float64.
func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// toFloat is numeric with a zero fallback, for chart value coercion.
func toFloat(v any) float64 {
	f, _ := numeric(v)
	return f
}
