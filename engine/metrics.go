package engine

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/ledgerlens/ledgerlens/schema"
	"github.com/ledgerlens/ledgerlens/warehouse"
)

// AggOp is a per-bucket aggregation operation.
type AggOp string

// Aggregation operations.
const (
	AggCount         AggOp = "count"
	AggSum           AggOp = "sum"
	AggAvg           AggOp = "avg"
	AggDistinctCount AggOp = "distinct_count"
	AggLatest        AggOp = "latest"
	AggFirst         AggOp = "first"
)

// BlockType selects how a block's headline scalar is derived from its series.
type BlockType string

// Block types.
const (
	TypeSumOverPeriod     BlockType = "sum_over_period"
	TypeAverageOverPeriod BlockType = "average_over_period"
	TypeLatest            BlockType = "latest"
)

// CalcOp combines two blocks arithmetically.
type CalcOp string

// Calculation operators.
const (
	CalcAdd      CalcOp = "add"
	CalcSubtract CalcOp = "subtract"
	CalcMultiply CalcOp = "multiply"
	CalcDivide   CalcOp = "divide"
)

// MetricBlock is an independently filterable metric sub-computation.
type MetricBlock struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name,omitempty" json:"name,omitempty"`

	// Source is the aggregated field. Optional for count/distinct_count,
	// which fall back to counting primary rows.
	Source *schema.FieldRef `yaml:"source,omitempty" json:"source,omitempty"`

	Op   AggOp     `yaml:"op" json:"op"`
	Type BlockType `yaml:"type" json:"type"`

	// Unit overrides unit-type inference when set.
	Unit UnitType `yaml:"unit,omitempty" json:"unit,omitempty"`

	// Filters restrict which primary keys contribute to this block,
	// independent of any report-level filters. AND-combined.
	Filters []FilterCondition `yaml:"filters,omitempty" json:"filters,omitempty"`
}

// Calculation combines two blocks of a formula.
type Calculation struct {
	Operator     CalcOp   `yaml:"operator" json:"operator"`
	LeftOperand  string   `yaml:"leftOperand" json:"leftOperand"`
	RightOperand string   `yaml:"rightOperand" json:"rightOperand"`
	ResultUnit   UnitType `yaml:"resultUnit,omitempty" json:"resultUnit,omitempty"`
}

// Formula is one or more metric blocks, optionally combined by a
// calculation whose operands reference block IDs.
type Formula struct {
	Blocks      []MetricBlock `yaml:"blocks" json:"blocks"`
	Calculation *Calculation  `yaml:"calculation,omitempty" json:"calculation,omitempty"`
}

// BlockResult is one block's computed headline value and series.
type BlockResult struct {
	Value  *float64      `json:"value"`
	Series []SeriesPoint `json:"series"`
	Unit   UnitType      `json:"unit"`
}

// FormulaResult is the final output of ComputeFormula.
//
// A nil Value with a non-empty Note is a handled configuration error
// (unit-type mismatch, missing operand block), not a computation failure:
// the consuming UI renders the note instead of crashing.
type FormulaResult struct {
	Value  *float64      `json:"value"`
	Series []SeriesPoint `json:"series"`

	// Kind is the display hint derived from the result unit type:
	// "currency" for currency, "number" for everything else.
	Kind string `json:"kind"`

	// UnitOptions lists the unit types the caller may pin for multiply and
	// divide results; the first entry is the default.
	UnitOptions []UnitType `json:"unitOptions,omitempty"`

	Note string `json:"note,omitempty"`

	BlockResults map[string]BlockResult `json:"blockResults"`
}

// ComputeBlock computes a single metric block over the time range.
//
// When the block carries filters, row views are built for the selection, the
// block's filters applied, and the surviving primary keys form an include
// set restricting the aggregation. Rows without a resolvable timestamp never
// land in a bucket.
func (e *Engine) ComputeBlock(
	snap *warehouse.Snapshot,
	block MetricBlock,
	start, end time.Time,
	g Granularity,
	objects []string,
	fields []schema.FieldRef,
) BlockResult {
	rows := e.BuildRowViews(snap, objects, fields)

	if len(block.Filters) > 0 {
		passed := ApplyFilters(rows, FilterGroup{Conditions: block.Filters, Logic: LogicAnd})

		include := make(map[string]bool, len(passed))
		for _, row := range passed {
			include[row.PK.String()] = true
		}

		kept := rows[:0:0]
		for _, row := range rows {
			if include[row.PK.String()] {
				kept = append(kept, row)
			}
		}
		rows = kept
	}

	labels := bucketLabels(start, end, g)
	series := aggregateSeries(rows, block, labels, g)

	value := headlineValue(series, block.Type)

	return BlockResult{
		Value:  &value,
		Series: series,
		Unit:   e.blockUnit(block),
	}
}

// bucketLabels renders the ordered, deduplicated labels for a range.
func bucketLabels(start, end time.Time, g Granularity) []string {
	var labels []string
	seen := map[string]bool{}

	for _, b := range RangeByGranularity(start, end, g) {
		label := BucketLabel(b, g)
		if !seen[label] {
			seen[label] = true
			labels = append(labels, label)
		}
	}

	return labels
}

// aggregateSeries buckets rows by label and applies the block's operation
// per bucket.
func aggregateSeries(rows []RowView, block MetricBlock, labels []string, g Granularity) []SeriesPoint {
	buckets := make(map[string][]RowView, len(labels))
	inRange := map[string]bool{}
	for _, label := range labels {
		inRange[label] = true
	}

	for _, row := range rows {
		if row.TS == nil {
			continue
		}

		label := BucketLabel(*row.TS, g)
		if inRange[label] {
			buckets[label] = append(buckets[label], row)
		}
	}

	series := make([]SeriesPoint, 0, len(labels))
	for _, label := range labels {
		series = append(series, SeriesPoint{
			Date:  label,
			Value: aggregateBucket(buckets[label], block),
		})
	}

	return series
}

func aggregateBucket(rows []RowView, block MetricBlock) float64 {
	sourceValue := func(row RowView) (any, bool) {
		if block.Source == nil {
			return nil, false
		}
		v := row.Display[block.Source.Qualified()]

		return v, v != nil
	}

	switch block.Op {
	case AggCount:
		return float64(len(rows))

	case AggSum:
		var total float64
		for _, row := range rows {
			if v, ok := sourceValue(row); ok {
				if f, numeric := toFloat(v); numeric {
					total += f
				}
			}
		}

		return total

	case AggAvg:
		var total float64
		var n int
		for _, row := range rows {
			if v, ok := sourceValue(row); ok {
				if f, numeric := toFloat(v); numeric {
					total += f
					n++
				}
			}
		}
		if n == 0 {
			return 0
		}

		return total / float64(n)

	case AggDistinctCount:
		distinct := map[string]bool{}
		for _, row := range rows {
			if block.Source == nil {
				distinct[row.PK.String()] = true

				continue
			}
			if v, ok := sourceValue(row); ok {
				distinct[toString(v)] = true
			}
		}

		return float64(len(distinct))

	case AggLatest, AggFirst:
		var pick *RowView
		for i := range rows {
			row := &rows[i]
			if pick == nil {
				pick = row

				continue
			}
			if block.Op == AggLatest && row.TS.After(*pick.TS) {
				pick = row
			}
			if block.Op == AggFirst && row.TS.Before(*pick.TS) {
				pick = row
			}
		}
		if pick == nil {
			return 0
		}
		if v, ok := sourceValue(*pick); ok {
			if f, numeric := toFloat(v); numeric {
				return f
			}
		}

		return 0
	}

	return 0
}

// headlineValue folds a series into the block's scalar.
func headlineValue(series []SeriesPoint, t BlockType) float64 {
	if len(series) == 0 {
		return 0
	}

	switch t {
	case TypeLatest:
		return series[len(series)-1].Value
	case TypeAverageOverPeriod:
		return lo.SumBy(series, func(p SeriesPoint) float64 { return p.Value }) / float64(len(series))
	default: // sum_over_period
		return lo.SumBy(series, func(p SeriesPoint) float64 { return p.Value })
	}
}

// Field names treated as currency or date amounts when inferring a block's
// unit type. The schema's semantic type is the fallback.
var (
	currencyFieldNames = map[string]bool{
		"amount": true, "amount_due": true, "amount_paid": true,
		"amount_refunded": true, "subtotal": true, "total": true,
		"balance": true, "price": true, "mrr": true,
	}
	dateFieldNames = map[string]bool{
		"created": true, "date": true, "due_date": true,
		"current_period_start": true, "current_period_end": true,
		"canceled_at": true, "trial_end": true,
	}
)

// blockUnit resolves a block's unit type: explicit declaration, then
// count-op inference, then known field-name sets, then schema field type.
func (e *Engine) blockUnit(block MetricBlock) UnitType {
	if block.Unit != "" {
		return block.Unit
	}

	if block.Op == AggCount || block.Op == AggDistinctCount {
		return UnitCount
	}

	if block.Source != nil {
		if currencyFieldNames[block.Source.Field] {
			return UnitCurrency
		}
		if dateFieldNames[block.Source.Field] {
			return UnitDate
		}

		if obj, ok := e.catalog.Object(block.Source.Object); ok {
			if f := obj.Field(block.Source.Field); f != nil && f.Type == schema.TypeDate {
				return UnitDate
			}
		}
	}

	return UnitCount
}

// ComputeFormula computes every block of the formula and, when a
// calculation is present, combines the two operand blocks.
func (e *Engine) ComputeFormula(
	snap *warehouse.Snapshot,
	formula Formula,
	start, end time.Time,
	g Granularity,
	objects []string,
	fields []schema.FieldRef,
) FormulaResult {
	blockResults := make(map[string]BlockResult, len(formula.Blocks))
	for _, block := range formula.Blocks {
		blockResults[block.ID] = e.ComputeBlock(snap, block, start, end, g, objects, fields)
	}

	result := FormulaResult{BlockResults: blockResults}

	if len(formula.Blocks) == 0 {
		result.Kind = "number"
		result.Note = "Formula has no blocks"

		return result
	}

	if formula.Calculation == nil || len(formula.Blocks) == 1 {
		first := blockResults[formula.Blocks[0].ID]
		result.Value = first.Value
		result.Series = first.Series
		result.Kind = displayKind(first.Unit)

		return result
	}

	calc := *formula.Calculation

	left, lok := blockResults[calc.LeftOperand]
	right, rok := blockResults[calc.RightOperand]
	if !lok || !rok {
		var missing []string
		if !lok {
			missing = append(missing, calc.LeftOperand)
		}
		if !rok {
			missing = append(missing, calc.RightOperand)
		}

		result.Kind = "number"
		result.Note = "Calculation references missing blocks: " + strings.Join(missing, ", ")

		return result
	}

	// Add and subtract only make sense on matching dimensions; a mismatch is
	// a handled configuration error, never a panic.
	if calc.Operator == CalcAdd || calc.Operator == CalcSubtract {
		if left.Unit != right.Unit {
			verb := "Addition"
			if calc.Operator == CalcSubtract {
				verb = "Subtraction"
			}

			result.Kind = "number"
			result.Note = fmt.Sprintf("%s requires matching unit types: %s vs %s", verb, left.Unit, right.Unit)

			return result
		}

		result.Kind = displayKind(left.Unit)
	} else {
		// Multiply/divide accept any combination; the caller may pin a
		// result unit, else the first option is the default.
		result.UnitOptions = lo.Uniq([]UnitType{left.Unit, right.Unit, UnitRate})

		unit := calc.ResultUnit
		if unit == "" {
			unit = result.UnitOptions[0]
		}
		result.Kind = displayKind(unit)
	}

	result.Series = ApplySeriesCalculation(left.Series, right.Series, calc.Operator)
	result.Value = combineScalars(left.Value, right.Value, calc.Operator)

	return result
}

func displayKind(u UnitType) string {
	if u == UnitCurrency {
		return "currency"
	}

	return "number"
}

// ApplySeriesCalculation combines two series point-wise over the union of
// their bucket labels. A label missing from one side contributes 0;
// division by zero saturates to 0 rather than producing Inf or NaN.
func ApplySeriesCalculation(left, right []SeriesPoint, op CalcOp) []SeriesPoint {
	lv := make(map[string]float64, len(left))
	for _, p := range left {
		lv[p.Date] = p.Value
	}
	rv := make(map[string]float64, len(right))
	for _, p := range right {
		rv[p.Date] = p.Value
	}

	labels := lo.Keys(lv)
	for label := range rv {
		if _, ok := lv[label]; !ok {
			labels = append(labels, label)
		}
	}
	// Bucket labels sort lexicographically in chronological order.
	sort.Strings(labels)

	out := make([]SeriesPoint, 0, len(labels))
	for _, label := range labels {
		out = append(out, SeriesPoint{
			Date:  label,
			Value: applyCalcOp(lv[label], rv[label], op),
		})
	}

	return out
}

// combineScalars mirrors the series rule except for nil handling: a nil
// operand makes the combined scalar nil, where a missing series point
// becomes 0. Formatting downstream distinguishes "legitimately zero" from
// "unavailable".
func combineScalars(left, right *float64, op CalcOp) *float64 {
	if left == nil || right == nil {
		return nil
	}

	v := applyCalcOp(*left, *right, op)

	return &v
}

func applyCalcOp(l, r float64, op CalcOp) float64 {
	switch op {
	case CalcAdd:
		return l + r
	case CalcSubtract:
		return l - r
	case CalcMultiply:
		return l * r
	case CalcDivide:
		if r == 0 {
			return 0
		}

		return l / r
	}

	return 0
}
