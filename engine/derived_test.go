package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerlens/ledgerlens/schema"
)

func TestApplyDerived(t *testing.T) {
	t.Parallel()

	compiled, err := CompileDerived([]DerivedField{
		{Name: "fee", Expr: `row["charge.amount"] * 0.029`},
	})
	require.NoError(t, err)

	e := testEngine()
	rows := e.BuildRowViews(billingSnapshot(), []string{"charge"},
		refs([2]string{"charge", "amount"}))
	e.ApplyDerived(rows, compiled)

	require.Len(t, rows, 3)
	assert.InDelta(t, 2.9, rows[0].Display["derived.fee"].(float64), 1e-9)
	assert.InDelta(t, 7.25, rows[1].Display["derived.fee"].(float64), 1e-9)
}

func TestDerivedFieldsFilterable(t *testing.T) {
	t.Parallel()

	compiled, err := CompileDerived([]DerivedField{
		{Name: "large", Expr: `row["charge.amount"] >= 100`},
	})
	require.NoError(t, err)

	e := testEngine()
	rows := e.BuildRowViews(billingSnapshot(), []string{"charge"},
		refs([2]string{"charge", "id"}, [2]string{"charge", "amount"}))
	e.ApplyDerived(rows, compiled)

	out := ApplyFilters(rows, FilterGroup{
		Conditions: []FilterCondition{
			{Field: schema.FieldRef{Object: "derived", Field: "large"}, Operator: OpIsTrue},
		},
		Logic: LogicAnd,
	})

	assert.Len(t, out, 2)
}

func TestCompileDerivedRejectsMalformedExpression(t *testing.T) {
	t.Parallel()

	_, err := CompileDerived([]DerivedField{{Name: "bad", Expr: `row[`}})
	require.Error(t, err)
}

func TestApplyDerivedEvaluationErrorYieldsNil(t *testing.T) {
	t.Parallel()

	// Multiplying a nil operand fails per-row; the value degrades to nil
	// instead of aborting the build.
	compiled, err := CompileDerived([]DerivedField{
		{Name: "fee", Expr: `row["charge.amount"] * 0.029`},
	})
	require.NoError(t, err)

	e := testEngine()
	rows := []RowView{{Display: map[string]any{"charge.amount": nil}}}
	e.ApplyDerived(rows, compiled)

	assert.Nil(t, rows[0].Display["derived.fee"])
}
