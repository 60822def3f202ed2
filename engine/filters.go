package engine

import (
	"strings"

	"github.com/ledgerlens/ledgerlens/schema"
)

// Operator is a filter condition operator.
type Operator string

// Filter operators.
const (
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "not_equals"
	OpGreaterThan Operator = "greater_than"
	OpLessThan    Operator = "less_than"
	OpBetween     Operator = "between"
	OpContains    Operator = "contains"
	OpIn          Operator = "in"
	OpIsTrue      Operator = "is_true"
	OpIsFalse     Operator = "is_false"
)

// Logic combines the conditions of a group.
type Logic string

// Group logic constants.
const (
	LogicAnd Logic = "AND"
	LogicOr  Logic = "OR"
)

// FilterCondition tests one qualified field against a value.
type FilterCondition struct {
	Field    schema.FieldRef `yaml:"field" json:"field"`
	Operator Operator        `yaml:"operator" json:"operator"`
	Value    any             `yaml:"value,omitempty" json:"value,omitempty"`
}

// FilterGroup is a flat boolean combination of conditions. An empty group
// matches every row.
type FilterGroup struct {
	Conditions []FilterCondition `yaml:"conditions" json:"conditions"`
	Logic      Logic             `yaml:"logic" json:"logic"`
}

// ApplyFilters returns the rows matching the group. An empty group is the
// identity filter and returns the input slice unchanged.
func ApplyFilters(rows []RowView, group FilterGroup) []RowView {
	if len(group.Conditions) == 0 {
		return rows
	}

	out := make([]RowView, 0, len(rows))
	for _, row := range rows {
		if group.Matches(row) {
			out = append(out, row)
		}
	}

	return out
}

// Matches evaluates the group against one row. AND requires every condition
// to match; OR requires at least one. Unset logic behaves as AND.
func (g FilterGroup) Matches(row RowView) bool {
	if len(g.Conditions) == 0 {
		return true
	}

	if g.Logic == LogicOr {
		for _, cond := range g.Conditions {
			if MatchesCondition(row.Display[cond.Field.Qualified()], cond) {
				return true
			}
		}

		return false
	}

	for _, cond := range g.Conditions {
		if !MatchesCondition(row.Display[cond.Field.Qualified()], cond) {
			return false
		}
	}

	return true
}

// MatchesCondition tests a single resolved value against a condition.
//
// A nil value never matches, for every operator including not_equals.
// That is asymmetric with SQL NULL semantics and is a fixed behavioral
// contract: an unresolved join must not satisfy any filter.
func MatchesCondition(value any, cond FilterCondition) bool {
	if value == nil {
		return false
	}

	switch cond.Operator {
	case OpEquals:
		return equalValues(value, cond.Value)

	case OpNotEquals:
		return !equalValues(value, cond.Value)

	case OpGreaterThan:
		return compareOrdered(value, cond.Value, func(a, b float64) bool { return a > b })

	case OpLessThan:
		return compareOrdered(value, cond.Value, func(a, b float64) bool { return a < b })

	case OpBetween:
		return matchesBetween(value, cond.Value)

	case OpContains:
		return matchesContains(value, cond.Value)

	case OpIn:
		elems, ok := asSlice(cond.Value)
		if !ok {
			return false
		}
		for _, e := range elems {
			if equalValues(value, e) {
				return true
			}
		}

		return false

	case OpIsTrue:
		b, ok := value.(bool)

		return ok && b

	case OpIsFalse:
		b, ok := value.(bool)

		return ok && !b
	}

	return false
}

// compareOrdered compares numerically when both sides are numbers, by
// instant when both sides are dates, and fails otherwise.
func compareOrdered(value, operand any, cmp func(a, b float64) bool) bool {
	if vf, ok := toFloat(value); ok {
		if of, ok := toFloat(operand); ok {
			return cmp(vf, of)
		}
	}

	if vt, ok := parseDate(value); ok {
		if ot, ok := parseDate(operand); ok {
			return cmp(float64(vt.UnixNano()), float64(ot.UnixNano()))
		}
	}

	return false
}

// matchesBetween checks an inclusive two-ended range.
func matchesBetween(value, operand any) bool {
	bounds, ok := asSlice(operand)
	if !ok || len(bounds) != 2 {
		return false
	}

	if vf, ok := toFloat(value); ok {
		lo, lok := toFloat(bounds[0])
		hi, hok := toFloat(bounds[1])

		return lok && hok && vf >= lo && vf <= hi
	}

	if vt, ok := parseDate(value); ok {
		lo, lok := parseDate(bounds[0])
		hi, hok := parseDate(bounds[1])

		return lok && hok && !vt.Before(lo) && !vt.After(hi)
	}

	return false
}

// matchesContains is a case-insensitive substring test; an array operand
// matches if any element is a substring.
func matchesContains(value, operand any) bool {
	haystack := strings.ToLower(toString(value))

	if elems, ok := asSlice(operand); ok {
		for _, e := range elems {
			if strings.Contains(haystack, strings.ToLower(toString(e))) {
				return true
			}
		}

		return false
	}

	return strings.Contains(haystack, strings.ToLower(toString(operand)))
}
