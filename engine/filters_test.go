package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerlens/ledgerlens/schema"
)

func chargeRef(field string) schema.FieldRef {
	return schema.FieldRef{Object: "charge", Field: field}
}

func chargeRows(t *testing.T) []RowView {
	t.Helper()

	e := testEngine()
	rows := e.BuildRowViews(billingSnapshot(), []string{"charge"},
		refs(
			[2]string{"charge", "id"},
			[2]string{"charge", "amount"},
			[2]string{"charge", "status"},
			[2]string{"charge", "paid"},
			[2]string{"charge", "created"},
			[2]string{"charge", "invoice_id"},
		))
	require.Len(t, rows, 3)

	return rows
}

func TestApplyFiltersEmptyGroupIsIdentity(t *testing.T) {
	t.Parallel()

	rows := chargeRows(t)
	out := ApplyFilters(rows, FilterGroup{Logic: LogicAnd})

	assert.Equal(t, rows, out)
}

func TestApplyFiltersIdempotent(t *testing.T) {
	t.Parallel()

	rows := chargeRows(t)
	group := FilterGroup{
		Conditions: []FilterCondition{
			{Field: chargeRef("status"), Operator: OpEquals, Value: "succeeded"},
		},
		Logic: LogicAnd,
	}

	once := ApplyFilters(rows, group)
	twice := ApplyFilters(once, group)

	assert.Equal(t, once, twice)
	assert.Len(t, once, 2)
}

func TestApplyFiltersAndOrLogic(t *testing.T) {
	t.Parallel()

	rows := chargeRows(t)

	and := ApplyFilters(rows, FilterGroup{
		Conditions: []FilterCondition{
			{Field: chargeRef("status"), Operator: OpEquals, Value: "succeeded"},
			{Field: chargeRef("amount"), Operator: OpGreaterThan, Value: 200},
		},
		Logic: LogicAnd,
	})
	require.Len(t, and, 1)
	assert.Equal(t, "ch_2", and[0].Display["charge.id"])

	or := ApplyFilters(rows, FilterGroup{
		Conditions: []FilterCondition{
			{Field: chargeRef("status"), Operator: OpEquals, Value: "failed"},
			{Field: chargeRef("amount"), Operator: OpGreaterThan, Value: 200},
		},
		Logic: LogicOr,
	})
	assert.Len(t, or, 2)
}

func TestNullValuesNeverMatch(t *testing.T) {
	t.Parallel()

	// ch_3 carries a null invoice_id; no operator matches null — not even
	// not_equals. Fixed contract, deliberately unlike SQL NULL semantics.
	rows := chargeRows(t)

	for _, op := range []Operator{OpEquals, OpNotEquals, OpGreaterThan, OpLessThan, OpContains, OpIn, OpIsTrue, OpIsFalse} {
		matched := ApplyFilters(rows, FilterGroup{
			Conditions: []FilterCondition{
				{Field: chargeRef("invoice_id"), Operator: op, Value: "in_1"},
			},
			Logic: LogicAnd,
		})

		for _, row := range matched {
			assert.NotEqual(t, "ch_3", row.Display["charge.id"],
				"operator %s matched a null value", op)
		}
	}
}

func TestMatchesConditionDateEquality(t *testing.T) {
	t.Parallel()

	cond := FilterCondition{Field: chargeRef("created"), Operator: OpEquals, Value: "2024-01-05"}

	// Time-of-day is ignored when both sides parse as dates.
	assert.True(t, MatchesCondition("2024-01-05T14:30:00Z", cond))
	assert.True(t, MatchesCondition("2024-01-05", cond))
	assert.False(t, MatchesCondition("2024-01-06", cond))
}

func TestMatchesConditionComparisons(t *testing.T) {
	t.Parallel()

	gt := FilterCondition{Field: chargeRef("amount"), Operator: OpGreaterThan, Value: 50}
	assert.True(t, MatchesCondition(100.0, gt))
	assert.False(t, MatchesCondition(50.0, gt))

	lt := FilterCondition{Field: chargeRef("created"), Operator: OpLessThan, Value: "2024-02-01"}
	assert.True(t, MatchesCondition("2024-01-05", lt))
	assert.False(t, MatchesCondition("2024-02-10", lt))
}

func TestMatchesConditionBetween(t *testing.T) {
	t.Parallel()

	numeric := FilterCondition{Field: chargeRef("amount"), Operator: OpBetween, Value: []any{50, 250}}
	assert.True(t, MatchesCondition(50.0, numeric), "inclusive lower bound")
	assert.True(t, MatchesCondition(250.0, numeric), "inclusive upper bound")
	assert.False(t, MatchesCondition(251.0, numeric))

	dates := FilterCondition{Field: chargeRef("created"), Operator: OpBetween, Value: []string{"2024-01-01", "2024-01-31"}}
	assert.True(t, MatchesCondition("2024-01-31", dates))
	assert.False(t, MatchesCondition("2024-02-01", dates))
}

func TestMatchesConditionContains(t *testing.T) {
	t.Parallel()

	single := FilterCondition{Operator: OpContains, Value: "EXAMPLE"}
	assert.True(t, MatchesCondition("ada@example.com", single), "case-insensitive")
	assert.False(t, MatchesCondition("ada@other.org", single))

	multi := FilterCondition{Operator: OpContains, Value: []string{"gmail", "example"}}
	assert.True(t, MatchesCondition("ada@example.com", multi), "any element may match")
}

func TestMatchesConditionIn(t *testing.T) {
	t.Parallel()

	cond := FilterCondition{Operator: OpIn, Value: []string{"succeeded", "pending"}}
	assert.True(t, MatchesCondition("succeeded", cond))
	assert.False(t, MatchesCondition("failed", cond))
}

func TestMatchesConditionBooleans(t *testing.T) {
	t.Parallel()

	isTrue := FilterCondition{Operator: OpIsTrue}
	isFalse := FilterCondition{Operator: OpIsFalse}

	assert.True(t, MatchesCondition(true, isTrue))
	assert.False(t, MatchesCondition(false, isTrue))
	assert.True(t, MatchesCondition(false, isFalse))

	// Strict boolean equality: truthy non-booleans don't count.
	assert.False(t, MatchesCondition("true", isTrue))
	assert.False(t, MatchesCondition(1.0, isTrue))
}

func TestFilterOnAbsentFieldNeverMatches(t *testing.T) {
	t.Parallel()

	rows := chargeRows(t)
	out := ApplyFilters(rows, FilterGroup{
		Conditions: []FilterCondition{
			{Field: schema.FieldRef{Object: "customer", Field: "email"}, Operator: OpNotEquals, Value: "x"},
		},
		Logic: LogicAnd,
	})

	assert.Empty(t, out, "field absent from display map behaves as null")
}
