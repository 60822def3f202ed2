// Package ledgerlens composes analytics reports over normalized business
// entities: it resolves the selected objects and fields into flat row views,
// filters them, and computes metric formulas bucketed into time series.
//
// The heavy lifting lives in the engine package; this package binds a report
// spec, a schema catalog, and a warehouse store together into one call.
package ledgerlens

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ledgerlens/ledgerlens/engine"
	"github.com/ledgerlens/ledgerlens/schema"
	"github.com/ledgerlens/ledgerlens/warehouse"
)

// Result is the render-ready output of Run. Presentation layers (table,
// chart, SQL text) consume it without touching the engine again.
type Result struct {
	Title string `json:"title,omitempty"`

	// Columns are the qualified field names in display order, derived
	// fields last.
	Columns []string `json:"columns"`

	// Rows are the filtered row views, in primary-table order.
	Rows []engine.RowView `json:"rows"`

	// Formula is set when the report declares metrics.
	Formula *engine.FormulaResult `json:"formula,omitempty"`

	Granularity engine.Granularity `json:"granularity"`

	// Validation advises on series length; Valid false means the range and
	// granularity produce more buckets than a caller should render.
	Validation engine.RangeValidation `json:"validation"`
}

// Runner executes report specs against one catalog and store.
type Runner struct {
	catalog *schema.Catalog
	store   *warehouse.Store
	logger  *zap.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the logger handed to the engine and used for run events.
func WithLogger(logger *zap.Logger) RunnerOption {
	return func(r *Runner) { r.logger = logger }
}

// NewRunner creates a runner.
func NewRunner(catalog *schema.Catalog, store *warehouse.Store, opts ...RunnerOption) *Runner {
	r := &Runner{
		catalog: catalog,
		store:   store,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Run validates the spec, loads the entities it touches, and executes it
// against a snapshot of the store.
//
// Entity loading is the only I/O; everything after the snapshot is taken is
// synchronous and pure. Entities that load empty or are referenced only by
// unresolvable joins degrade to empty rows and null values, per the
// engine's contracts.
func (r *Runner) Run(ctx context.Context, spec *ReportSpec) (*Result, error) {
	if err := spec.Validate(r.catalog); err != nil {
		return nil, err
	}

	if err := r.store.EnsureLoaded(ctx, spec.Objects...); err != nil {
		return nil, err
	}

	snap := r.store.Snapshot()
	eng := engine.New(r.catalog, engine.WithLogger(r.logger))

	start, end, err := spec.Range()
	if err != nil {
		return nil, err
	}

	granularity := spec.ResolveGranularity()

	result := &Result{
		Title:       spec.Title,
		Granularity: granularity,
		Validation:  eng.ValidateRange(start, end, granularity, spec.MaxBuckets),
	}

	rows := eng.BuildRowViews(snap, spec.Objects, spec.Fields)

	if len(spec.Derived) > 0 {
		compiled, err := engine.CompileDerived(spec.Derived)
		if err != nil {
			return nil, fmt.Errorf("compiling derived fields: %w", err)
		}
		eng.ApplyDerived(rows, compiled)
	}

	result.Rows = engine.ApplyFilters(rows, spec.Filters)

	for _, ref := range spec.Fields {
		result.Columns = append(result.Columns, ref.Qualified())
	}
	for _, d := range spec.Derived {
		result.Columns = append(result.Columns, "derived."+d.Name)
	}

	if spec.Metrics != nil {
		formula := eng.ComputeFormula(snap, *spec.Metrics, start, end, granularity, spec.Objects, spec.Fields)
		result.Formula = &formula
	}

	r.logger.Info("report executed",
		zap.String("title", spec.Title),
		zap.Int("rows", len(result.Rows)),
		zap.String("granularity", string(granularity)),
		zap.Uint64("snapshot", snap.Seq()))

	return result, nil
}
