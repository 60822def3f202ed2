package warehouse

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
)

// FixtureLoader reads entity tables from static JSON files: one
// "<entity>.json" array per entity under a directory or embedded filesystem.
type FixtureLoader struct {
	fsys fs.FS
}

// NewFixtureLoader creates a loader over the given filesystem.
func NewFixtureLoader(fsys fs.FS) *FixtureLoader {
	return &FixtureLoader{fsys: fsys}
}

// LoadTable implements Loader.
func (l *FixtureLoader) LoadTable(_ context.Context, entity string) (Table, error) {
	data, err := fs.ReadFile(l.fsys, entity+".json")
	if err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}

	var table Table
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parsing fixture %s.json: %w", entity, err)
	}

	return table, nil
}
