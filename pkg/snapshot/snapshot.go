package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/rewardlytics/rewardsx/pkg/table"
)

// ErrMissingTable marks a fatal load failure: a required canonical table
// is entirely absent from the source.
var ErrMissingTable = fmt.Errorf("snapshot: required table missing")

// Snapshot is one immutable load of the canonical table set. All
// downstream computation is a pure function of a snapshot; its
// fingerprint keys the pipeline memo cache.
type Snapshot struct {
	tables      map[string]*table.Table
	loadedAt    time.Time
	fingerprint string
}

// New validates the canonical set and fingerprints it. Every table in
// RequiredTables must be present; extra tables are carried through
// untouched.
func New(tables map[string]*table.Table) (*Snapshot, error) {
	for _, name := range RequiredTables {
		if tables[name] == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingTable, name)
		}
	}
	return &Snapshot{
		tables:      tables,
		loadedAt:    time.Now().UTC(),
		fingerprint: fingerprint(tables),
	}, nil
}

// Table returns the named canonical table, nil when absent.
func (s *Snapshot) Table(name string) *table.Table {
	return s.tables[name]
}

// LoadedAt returns when the snapshot was materialized.
func (s *Snapshot) LoadedAt() time.Time {
	return s.loadedAt
}

// Fingerprint is a content hash over table names, column sets and cells.
// Two loads of identical data share a fingerprint regardless of load
// time, which is what makes the pipeline cache safe.
func (s *Snapshot) Fingerprint() string {
	return s.fingerprint
}

// Source produces snapshots. The CSV source reads exported files, the
// warehouse source reads the same canonical tables out of ClickHouse.
type Source interface {
	Name() string
	Load(ctx context.Context) (*Snapshot, error)
}
