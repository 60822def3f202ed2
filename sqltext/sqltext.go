// Package sqltext renders a report spec as human-readable SQL.
//
// The output mirrors the selection, joins, filters, and metrics of the spec
// so users can sanity-check what a report means. It is never parsed back or
// executed, and carries no correctness guarantee beyond readability.
package sqltext

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/ledgerlens/ledgerlens"
	"github.com/ledgerlens/ledgerlens/engine"
	"github.com/ledgerlens/ledgerlens/schema"
)

// Generate renders the spec as pseudo-SQL: one row query, plus one
// aggregate query per metric block and a trailing comment describing the
// block calculation, when metrics are present.
func Generate(spec *ledgerlens.ReportSpec, catalog *schema.Catalog) string {
	if len(spec.Objects) == 0 {
		return "-- report selects no objects"
	}

	var sections []string

	if title := strings.TrimSpace(spec.Title); title != "" {
		sections = append(sections, "-- "+title)
	}

	sections = append(sections, rowQuery(spec, catalog))

	if spec.Metrics != nil {
		for _, block := range spec.Metrics.Blocks {
			sections = append(sections, blockQuery(spec, catalog, block))
		}

		if calc := spec.Metrics.Calculation; calc != nil {
			sections = append(sections, fmt.Sprintf("-- final metric: %s %s %s",
				calc.LeftOperand, calcSymbol(calc.Operator), calc.RightOperand))
		}
	}

	return strings.Join(sections, "\n\n") + "\n"
}

func rowQuery(spec *ledgerlens.ReportSpec, catalog *schema.Catalog) string {
	primary := spec.Objects[0]

	columns := lo.Map(spec.Fields, func(ref schema.FieldRef, _ int) string {
		return "  " + ref.Qualified()
	})
	if len(columns) == 0 {
		columns = []string{"  " + primary + ".*"}
	}

	var b strings.Builder
	b.WriteString("SELECT\n")
	b.WriteString(strings.Join(columns, ",\n"))
	b.WriteString("\nFROM " + primary)

	for _, clause := range joinClauses(spec.Objects, catalog) {
		b.WriteString("\n" + clause)
	}

	if where := whereClause(spec.Filters); where != "" {
		b.WriteString("\n" + where)
	}

	return b.String()
}

// joinClauses renders a LEFT JOIN per secondary object, walking the FK in
// either direction. Objects with no 1-hop path to any already-joined object
// get an explanatory comment instead of an invented join.
func joinClauses(objects []string, catalog *schema.Catalog) []string {
	joined := []string{objects[0]}

	var clauses []string

	for _, secondary := range objects[1:] {
		clause := ""

		for _, anchor := range joined {
			if fk, ok := catalog.ForeignKey(anchor, secondary); ok {
				clause = fmt.Sprintf("LEFT JOIN %s ON %s.%s = %s.id", secondary, anchor, fk, secondary)

				break
			}
			if fk, ok := catalog.ForeignKey(secondary, anchor); ok {
				clause = fmt.Sprintf("LEFT JOIN %s ON %s.%s = %s.id", secondary, secondary, fk, anchor)

				break
			}
		}

		if clause == "" {
			clause = fmt.Sprintf("-- no join path from %s", secondary)
		} else {
			joined = append(joined, secondary)
		}

		clauses = append(clauses, clause)
	}

	return clauses
}

func blockQuery(spec *ledgerlens.ReportSpec, catalog *schema.Catalog, block engine.MetricBlock) string {
	primary := spec.Objects[0]

	name := block.ID
	if block.Name != "" {
		name = block.Name
	}

	tsField := "created"
	if ts := catalog.Timestamps(primary); len(ts) > 0 {
		tsField = ts[0]
	}

	granularity := spec.ResolveGranularity()

	var b strings.Builder
	fmt.Fprintf(&b, "-- block: %s\n", name)
	b.WriteString("SELECT\n")
	fmt.Fprintf(&b, "  DATE_TRUNC('%s', %s.%s) AS bucket,\n", granularity, primary, tsField)
	fmt.Fprintf(&b, "  %s AS %s\n", aggregateExpr(block), block.ID)
	b.WriteString("FROM " + primary)

	if where := whereClause(engine.FilterGroup{Conditions: block.Filters, Logic: engine.LogicAnd}); where != "" {
		b.WriteString("\n" + where)
	}

	b.WriteString("\nGROUP BY bucket\nORDER BY bucket")

	return b.String()
}

func aggregateExpr(block engine.MetricBlock) string {
	source := "*"
	if block.Source != nil {
		source = block.Source.Qualified()
	}

	switch block.Op {
	case engine.AggSum:
		return "SUM(" + source + ")"
	case engine.AggAvg:
		return "AVG(" + source + ")"
	case engine.AggDistinctCount:
		return "COUNT(DISTINCT " + source + ")"
	case engine.AggLatest:
		return "LAST(" + source + ")"
	case engine.AggFirst:
		return "FIRST(" + source + ")"
	default:
		return "COUNT(*)"
	}
}

func whereClause(group engine.FilterGroup) string {
	if len(group.Conditions) == 0 {
		return ""
	}

	connector := "\n  AND "
	if group.Logic == engine.LogicOr {
		connector = "\n  OR "
	}

	predicates := lo.Map(group.Conditions, func(cond engine.FilterCondition, _ int) string {
		return predicate(cond)
	})

	return "WHERE " + strings.Join(predicates, connector)
}

func predicate(cond engine.FilterCondition) string {
	field := cond.Field.Qualified()

	switch cond.Operator {
	case engine.OpEquals:
		return fmt.Sprintf("%s = %s", field, literal(cond.Value))
	case engine.OpNotEquals:
		return fmt.Sprintf("%s <> %s", field, literal(cond.Value))
	case engine.OpGreaterThan:
		return fmt.Sprintf("%s > %s", field, literal(cond.Value))
	case engine.OpLessThan:
		return fmt.Sprintf("%s < %s", field, literal(cond.Value))
	case engine.OpBetween:
		if bounds, ok := toSlice(cond.Value); ok && len(bounds) == 2 {
			return fmt.Sprintf("%s BETWEEN %s AND %s", field, literal(bounds[0]), literal(bounds[1]))
		}

		return fmt.Sprintf("%s BETWEEN ? AND ?", field)
	case engine.OpContains:
		if elems, ok := toSlice(cond.Value); ok {
			parts := lo.Map(elems, func(e any, _ int) string {
				return fmt.Sprintf("%s ILIKE '%%%v%%'", field, e)
			})

			return "(" + strings.Join(parts, " OR ") + ")"
		}

		return fmt.Sprintf("%s ILIKE '%%%v%%'", field, cond.Value)
	case engine.OpIn:
		if elems, ok := toSlice(cond.Value); ok {
			parts := lo.Map(elems, func(e any, _ int) string { return literal(e) })

			return fmt.Sprintf("%s IN (%s)", field, strings.Join(parts, ", "))
		}

		return fmt.Sprintf("%s IN (%s)", field, literal(cond.Value))
	case engine.OpIsTrue:
		return field + " = TRUE"
	case engine.OpIsFalse:
		return field + " = FALSE"
	}

	return fmt.Sprintf("%s /* unsupported operator %q */", field, cond.Operator)
}

func literal(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + strings.ReplaceAll(val, "'", "''") + "'"
	case bool:
		if val {
			return "TRUE"
		}

		return "FALSE"
	default:
		return fmt.Sprintf("%v", val)
	}
}

func toSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []string:
		return lo.ToAnySlice(s), true
	case []float64:
		return lo.ToAnySlice(s), true
	default:
		return nil, false
	}
}

func calcSymbol(op engine.CalcOp) string {
	switch op {
	case engine.CalcAdd:
		return "+"
	case engine.CalcSubtract:
		return "-"
	case engine.CalcMultiply:
		return "*"
	default:
		return "/"
	}
}
