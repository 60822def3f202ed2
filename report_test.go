package ledgerlens

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerlens/ledgerlens/engine"
	"github.com/ledgerlens/ledgerlens/schema"
)

const reportYAML = `
title: January volume
objects: [charge, customer]
fields:
  - object: charge
    field: amount
  - object: customer
    field: email
filters:
  logic: AND
  conditions:
    - field: {object: charge, field: status}
      operator: equals
      value: succeeded
metrics:
  blocks:
    - id: volume
      op: sum
      type: sum_over_period
      source: {object: charge, field: amount}
time:
  start: "2024-01-01"
  end: "2024-03-31"
  granularity: month
`

func TestParseReport(t *testing.T) {
	t.Parallel()

	spec, err := ParseReport([]byte(reportYAML))
	require.NoError(t, err)

	assert.Equal(t, "January volume", spec.Title)
	assert.Equal(t, []string{"charge", "customer"}, spec.Objects)
	require.Len(t, spec.Fields, 2)
	assert.Equal(t, "charge.amount", spec.Fields[0].Qualified())

	require.Len(t, spec.Filters.Conditions, 1)
	assert.Equal(t, engine.OpEquals, spec.Filters.Conditions[0].Operator)

	require.NotNil(t, spec.Metrics)
	require.Len(t, spec.Metrics.Blocks, 1)
	assert.Equal(t, engine.AggSum, spec.Metrics.Blocks[0].Op)

	require.NoError(t, spec.Validate(schema.Default()))
}

func TestParseReportRejectsMalformedYAML(t *testing.T) {
	t.Parallel()

	_, err := ParseReport([]byte("objects: ["))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	base := func() *ReportSpec {
		return &ReportSpec{
			Objects: []string{"charge"},
			Fields:  []schema.FieldRef{{Object: "charge", Field: "amount"}},
			Time:    TimeRange{Start: "2024-01-01", End: "2024-03-31"},
		}
	}

	t.Run("valid", func(t *testing.T) {
		t.Parallel()
		require.NoError(t, base().Validate(schema.Default()))
	})

	t.Run("no objects", func(t *testing.T) {
		t.Parallel()

		spec := base()
		spec.Objects = nil
		require.ErrorIs(t, spec.Validate(schema.Default()), ErrNoObjects)
	})

	t.Run("unknown object", func(t *testing.T) {
		t.Parallel()

		spec := base()
		spec.Objects = []string{"shipment"}
		require.ErrorIs(t, spec.Validate(schema.Default()), ErrUnknownObject)
	})

	t.Run("unknown field", func(t *testing.T) {
		t.Parallel()

		spec := base()
		spec.Fields = []schema.FieldRef{{Object: "charge", Field: "weight"}}
		require.ErrorIs(t, spec.Validate(schema.Default()), ErrUnknownField)
	})

	t.Run("derived fields skip catalog lookup", func(t *testing.T) {
		t.Parallel()

		spec := base()
		spec.Fields = append(spec.Fields, schema.FieldRef{Object: "derived", Field: "fee"})
		require.NoError(t, spec.Validate(schema.Default()))
	})

	t.Run("inverted range", func(t *testing.T) {
		t.Parallel()

		spec := base()
		spec.Time = TimeRange{Start: "2024-03-31", End: "2024-01-01"}
		require.ErrorIs(t, spec.Validate(schema.Default()), ErrInvalidTimeRange)
	})

	t.Run("unparseable date", func(t *testing.T) {
		t.Parallel()

		spec := base()
		spec.Time.Start = "January 1st"
		require.ErrorIs(t, spec.Validate(schema.Default()), ErrInvalidTimeRange)
	})

	t.Run("unknown granularity", func(t *testing.T) {
		t.Parallel()

		spec := base()
		spec.Time.Granularity = "fortnight"
		require.ErrorIs(t, spec.Validate(schema.Default()), engine.ErrUnknownGranularity)
	})

	t.Run("calculation referencing missing block", func(t *testing.T) {
		t.Parallel()

		spec := base()
		spec.Metrics = &engine.Formula{
			Blocks: []engine.MetricBlock{{ID: "a", Op: engine.AggCount}},
			Calculation: &engine.Calculation{
				Operator: engine.CalcDivide, LeftOperand: "a", RightOperand: "ghost",
			},
		}
		require.ErrorIs(t, spec.Validate(schema.Default()), ErrUnknownBlock)
	})
}

func TestResolveGranularity(t *testing.T) {
	t.Parallel()

	explicit := &ReportSpec{Time: TimeRange{Start: "2024-01-01", End: "2024-01-31", Granularity: "week"}}
	assert.Equal(t, engine.GranularityWeek, explicit.ResolveGranularity())

	suggested := &ReportSpec{Time: TimeRange{Start: "2024-01-01", End: "2024-01-31"}}
	assert.Equal(t, engine.GranularityDay, suggested.ResolveGranularity())

	broken := &ReportSpec{Time: TimeRange{Start: "bad", End: "worse"}}
	assert.Equal(t, engine.GranularityMonth, broken.ResolveGranularity())
}
