// Package warehouse holds the denormalized entity tables the engine reads.
//
// Tables load lazily and independently; a table is either absent or fully
// present, never partial. Each completed load publishes a new immutable
// Snapshot, so engine calls that captured an earlier snapshot keep reading
// consistent data while other entities load concurrently.
package warehouse

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Load-time errors. Fixture problems are deployment defects and fail hard,
// unlike engine-side conditions which degrade softly.
var (
	ErrMissingID   = errors.New("warehouse: record has no id field")
	ErrDuplicateID = errors.New("warehouse: duplicate record id")
)

// Record is one denormalized row: field name to scalar value
// (string | float64 | bool | nil, as produced by encoding/json).
type Record = map[string]any

// Table is the full, ordered record array for one entity.
type Table = []Record

// Loader fetches the raw record array for an entity. This is the only
// I/O-bound surface in the system; the engine itself never calls it.
type Loader interface {
	LoadTable(ctx context.Context, entity string) (Table, error)
}

// Snapshot is an immutable view of the store at a point in time.
type Snapshot struct {
	seq    uint64
	tables map[string]Table
}

// Seq returns the snapshot's monotonic sequence number.
func (s *Snapshot) Seq() uint64 { return s.seq }

// Has reports whether an entity's table is present.
func (s *Snapshot) Has(entity string) bool {
	_, ok := s.tables[entity]

	return ok
}

// Table returns the entity's record array. The caller must not mutate it.
func (s *Snapshot) Table(entity string) (Table, bool) {
	t, ok := s.tables[entity]

	return t, ok
}

// Entities returns the names of all loaded entities, in no particular order.
func (s *Snapshot) Entities() []string {
	names := make([]string, 0, len(s.tables))
	for name := range s.tables {
		names = append(names, name)
	}

	return names
}

// NewSnapshot builds a standalone snapshot from pre-materialized tables.
// Intended for tests and embedded fixtures; production code loads through a
// Store.
func NewSnapshot(tables map[string]Table) *Snapshot {
	copied := make(map[string]Table, len(tables))
	for name, t := range tables {
		copied[name] = t
	}

	return &Snapshot{seq: 1, tables: copied}
}

// Store loads entity tables on demand and publishes immutable snapshots.
// A table loads at most once; concurrent loads of the same entity share one
// in-flight call.
type Store struct {
	loader Loader
	logger *zap.Logger

	snap atomic.Pointer[Snapshot]

	mu       sync.Mutex
	inflight map[string]*loadCall
}

type loadCall struct {
	done chan struct{}
	err  error
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for load events.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// NewStore creates an empty store backed by the given loader.
func NewStore(loader Loader, opts ...Option) *Store {
	s := &Store{
		loader:   loader,
		logger:   zap.NewNop(),
		inflight: make(map[string]*loadCall),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.snap.Store(&Snapshot{tables: map[string]Table{}})

	return s
}

// Snapshot returns the current immutable snapshot.
func (s *Store) Snapshot() *Snapshot {
	return s.snap.Load()
}

// Has reports whether an entity is loaded in the current snapshot.
func (s *Store) Has(entity string) bool {
	return s.Snapshot().Has(entity)
}

// LoadEntity ensures the entity's table is loaded. Concurrent callers for
// the same entity wait on a single underlying load. Loading an already
// loaded entity is a no-op; tables load at most once.
func (s *Store) LoadEntity(ctx context.Context, entity string) error {
	s.mu.Lock()

	if s.Snapshot().Has(entity) {
		s.mu.Unlock()

		return nil
	}

	if call, ok := s.inflight[entity]; ok {
		s.mu.Unlock()

		select {
		case <-call.done:
			return call.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	call := &loadCall{done: make(chan struct{})}
	s.inflight[entity] = call
	s.mu.Unlock()

	table, err := s.loader.LoadTable(ctx, entity)
	if err == nil {
		err = validateTable(entity, table)
	}

	s.mu.Lock()
	if err == nil {
		s.publish(entity, table)
		s.logger.Info("entity loaded",
			zap.String("entity", entity),
			zap.Int("records", len(table)),
			zap.Uint64("seq", s.Snapshot().Seq()))
	} else {
		s.logger.Error("entity load failed", zap.String("entity", entity), zap.Error(err))
	}
	call.err = err
	delete(s.inflight, entity)
	s.mu.Unlock()

	close(call.done)

	return err
}

// EnsureLoaded loads every named entity, stopping at the first failure.
func (s *Store) EnsureLoaded(ctx context.Context, entities ...string) error {
	for _, entity := range entities {
		if err := s.LoadEntity(ctx, entity); err != nil {
			return fmt.Errorf("loading %q: %w", entity, err)
		}
	}

	return nil
}

// publish swaps in a new snapshot containing the table. Caller holds s.mu.
func (s *Store) publish(entity string, table Table) {
	old := s.snap.Load()

	tables := make(map[string]Table, len(old.tables)+1)
	for name, t := range old.tables {
		tables[name] = t
	}
	tables[entity] = table

	s.snap.Store(&Snapshot{seq: old.seq + 1, tables: tables})
}

// validateTable checks the unique-id invariant before a table is published.
func validateTable(entity string, table Table) error {
	seen := make(map[string]bool, len(table))

	for i, rec := range table {
		id, ok := RecordID(rec)
		if !ok {
			return fmt.Errorf("%w: %s[%d]", ErrMissingID, entity, i)
		}
		if seen[id] {
			return fmt.Errorf("%w: %s id %q", ErrDuplicateID, entity, id)
		}
		seen[id] = true
	}

	return nil
}

// RecordID extracts a record's id as a string. JSON numbers are accepted and
// rendered without a trailing fraction when integral.
func RecordID(rec Record) (string, bool) {
	switch id := rec["id"].(type) {
	case string:
		if id == "" {
			return "", false
		}

		return id, true
	case float64:
		if id == float64(int64(id)) {
			return fmt.Sprintf("%d", int64(id)), true
		}

		return fmt.Sprintf("%v", id), true
	default:
		return "", false
	}
}
