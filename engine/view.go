package engine

import (
	"go.uber.org/zap"

	"github.com/ledgerlens/ledgerlens/schema"
	"github.com/ledgerlens/ledgerlens/warehouse"
)

// BuildRowViews resolves the selected fields into one row view per record of
// the primary object (objects[0]). Joins never fan out: a row view exists
// for every primary record and for no other record, regardless of how many
// secondary records relate to it.
//
// Join resolution walks the catalog's relationship edges (with a
// "<object>_id" naming fallback) up to two hops, using the other selected
// objects as bridges. A field with no resolvable path gets a nil value; this
// includes one-to-many joins from the primary object, which are deliberately
// unsupported; the model stays "one row per primary record".
//
// A missing primary table yields an empty result, not an error: callers are
// responsible for loading entities before building views.
func (e *Engine) BuildRowViews(snap *warehouse.Snapshot, objects []string, fields []schema.FieldRef) []RowView {
	if len(objects) == 0 {
		return nil
	}

	primary := objects[0]

	table, ok := snap.Table(primary)
	if !ok {
		return nil
	}

	idx := newJoinIndex(snap)
	tsFields := e.catalog.Timestamps(primary)

	rows := make([]RowView, 0, len(table))

	for _, rec := range table {
		id, _ := warehouse.RecordID(rec)

		row := RowView{
			Display: make(map[string]any, len(fields)),
			PK:      RowKey{Object: primary, ID: id},
		}

		for _, field := range fields {
			if field.Object == primary {
				row.Display[field.Qualified()] = rec[field.Field]

				continue
			}

			row.Display[field.Qualified()] = e.resolveJoin(snap, idx, objects, primary, rec, id, field)
		}

		for _, candidate := range tsFields {
			if ts, ok := parseDate(rec[candidate]); ok {
				row.TS = &ts

				break
			}
		}

		rows = append(rows, row)
	}

	return rows
}

// resolveJoin resolves a secondary-object field for one primary record.
// Resolution order: direct 1-hop FK, then each other selected object as a
// 2-hop bridge (reverse edge first, then forward chain). First hit wins.
func (e *Engine) resolveJoin(
	snap *warehouse.Snapshot,
	idx *joinIndex,
	objects []string,
	primary string,
	rec warehouse.Record,
	recID string,
	field schema.FieldRef,
) any {
	target := field.Object

	// 1-hop: primary record carries a FK to the target.
	if fk, ok := e.catalog.ForeignKey(primary, target); ok {
		if tgt := idx.lookup(target, rec[fk]); tgt != nil {
			return tgt[field.Field]
		}
	}

	// 2-hop through another selected object.
	for _, bridge := range objects[1:] {
		if bridge == target || bridge == primary {
			continue
		}

		// Reverse bridge: first bridge record pointing back at the primary,
		// then its FK onward to the target.
		if fkToPrimary, ok := e.catalog.ForeignKey(bridge, primary); ok {
			if brec := idx.firstReferencing(bridge, fkToPrimary, recID); brec != nil {
				if fkToTarget, ok := e.catalog.ForeignKey(bridge, target); ok {
					if tgt := idx.lookup(target, brec[fkToTarget]); tgt != nil {
						return tgt[field.Field]
					}
				}
			}
		}

		// Forward chain: primary → bridge → target.
		if fkToBridge, ok := e.catalog.ForeignKey(primary, bridge); ok {
			if brec := idx.lookup(bridge, rec[fkToBridge]); brec != nil {
				if fkToTarget, ok := e.catalog.ForeignKey(bridge, target); ok {
					if tgt := idx.lookup(target, brec[fkToTarget]); tgt != nil {
						return tgt[field.Field]
					}
				}
			}
		}
	}

	e.warnUnresolvedJoin(primary, target)

	return nil
}

// warnUnresolvedJoin logs once per distinct primary→target pattern so a
// 10k-row table doesn't produce 10k identical warnings.
func (e *Engine) warnUnresolvedJoin(primary, target string) {
	key := primary + "→" + target
	if _, seen := e.warnedJoins.LoadOrStore(key, struct{}{}); seen {
		return
	}

	e.logger.Warn("no join path resolved; field values will be null",
		zap.String("primary", primary),
		zap.String("target", target))
}

// joinIndex lazily builds id-keyed indexes over secondary tables for the
// duration of one BuildRowViews call.
type joinIndex struct {
	snap    *warehouse.Snapshot
	indexes map[string]map[string]warehouse.Record
}

func newJoinIndex(snap *warehouse.Snapshot) *joinIndex {
	return &joinIndex{
		snap:    snap,
		indexes: make(map[string]map[string]warehouse.Record),
	}
}

// lookup finds the record of object whose id matches ref (a FK value).
func (x *joinIndex) lookup(object string, ref any) warehouse.Record {
	if ref == nil {
		return nil
	}

	idx, ok := x.indexes[object]
	if !ok {
		idx = map[string]warehouse.Record{}

		if table, present := x.snap.Table(object); present {
			for _, rec := range table {
				if id, hasID := warehouse.RecordID(rec); hasID {
					idx[id] = rec
				}
			}
		}

		x.indexes[object] = idx
	}

	return idx[toString(ref)]
}

// firstReferencing scans object's table in stored order for the first record
// whose fk field references id.
func (x *joinIndex) firstReferencing(object, fk, id string) warehouse.Record {
	table, ok := x.snap.Table(object)
	if !ok {
		return nil
	}

	for _, rec := range table {
		if rec[fk] != nil && toString(rec[fk]) == id {
			return rec
		}
	}

	return nil
}
