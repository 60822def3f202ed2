package engine

import (
	"fmt"
	"strconv"
	"time"
)

// Date layouts accepted for record values and filter operands. Fixture data
// carries ISO dates; RFC 3339 covers values with a time component.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// parseDate interprets a scalar as a timestamp, if it looks like one.
func parseDate(v any) (time.Time, bool) {
	switch d := v.(type) {
	case time.Time:
		return d, true
	case string:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, d); err == nil {
				return t, true
			}
		}
	}

	return time.Time{}, false
}

// toFloat interprets a scalar numerically. Strings are parsed; booleans and
// dates are not numbers.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)

		return f, err == nil
	default:
		return 0, false
	}
}

// toString renders a scalar for substring and distinct comparisons.
// Integral floats render without a fraction so JSON numbers compare cleanly
// against string ids.
func toString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		if s == float64(int64(s)) {
			return strconv.FormatInt(int64(s), 10)
		}

		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", s)
	}
}

// sameDay reports whether two timestamps fall on the same calendar day.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()

	return ay == by && am == bm && ad == bd
}

// equalValues compares two scalars loosely: dates by calendar day, numbers
// numerically, everything else by string rendering.
func equalValues(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if at, aok := parseDate(a); aok {
		if bt, bok := parseDate(b); bok {
			return sameDay(at, bt)
		}
	}

	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			return af == bf
		}
	}

	if ab, aok := a.(bool); aok {
		if bb, bok := b.(bool); bok {
			return ab == bb
		}
	}

	return toString(a) == toString(b)
}

// asSlice normalizes the common slice shapes a filter value can arrive in
// (JSON decoding, YAML decoding, literal Go values).
func asSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []string:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}

		return out, true
	case []float64:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}

		return out, true
	default:
		return nil, false
	}
}
