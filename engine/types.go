// Package engine is the in-memory query/aggregation core: it resolves joins
// across normalized entity tables into flat row views, applies filter trees,
// buckets rows into time series, and computes single- and multi-block metric
// formulas.
//
// Every operation is a synchronous pure function over an immutable warehouse
// snapshot; the engine never performs I/O and never throws on bad report
// configuration: missing data degrades to empty results and invalid
// formulas degrade to null results with explanatory notes.
package engine

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ledgerlens/ledgerlens/schema"
)

// RowKey identifies the primary-object record a row view originates from.
type RowKey struct {
	Object string `json:"object"`
	ID     string `json:"id"`
}

// String renders the key in "object:id" form, as used by include sets.
func (k RowKey) String() string {
	return k.Object + ":" + k.ID
}

// RowView is the flattened, join-resolved projection of one primary-object
// record. Display is keyed by qualified field name ("<object>.<field>");
// values pulled across unresolvable joins are nil.
type RowView struct {
	Display map[string]any `json:"display"`
	PK      RowKey         `json:"pk"`

	// TS is the row's canonical timestamp, derived from the primary
	// object's timestamp priority list. Nil when no candidate is present.
	TS *time.Time `json:"ts,omitempty"`
}

// SeriesPoint is one time bucket's value, labelled by BucketLabel.
type SeriesPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// UnitType is the semantic dimension of a numeric value. Add and subtract
// require matching unit types on both operands; multiply and divide do not.
type UnitType string

// Unit type constants.
const (
	UnitCount    UnitType = "count"
	UnitCurrency UnitType = "currency"
	UnitDate     UnitType = "date"
	UnitRate     UnitType = "rate"
)

// Engine resolves row views and computes metrics against a schema catalog.
// It is safe for concurrent use; the only internal state is the dedup set
// for unresolved-join warnings.
type Engine struct {
	catalog    *schema.Catalog
	logger     *zap.Logger
	maxBuckets int

	warnedJoins sync.Map // "primary→target" → struct{}
}

// New creates an engine over the given catalog.
func New(catalog *schema.Catalog, opts ...Option) *Engine {
	e := &Engine{
		catalog:    catalog,
		logger:     zap.NewNop(),
		maxBuckets: DefaultMaxBuckets,
	}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Catalog returns the catalog the engine was built with.
func (e *Engine) Catalog() *schema.Catalog {
	return e.catalog
}
