// Package snaptest builds snapshot fixtures for tests: a full canonical
// table set with empty tables everywhere a test does not care about.
package snaptest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rewardlytics/rewardsx/pkg/snapshot"
	"github.com/rewardlytics/rewardsx/pkg/table"
)

// Table builds a table from column names and rows, failing the test on a
// malformed row.
func Table(t testing.TB, cols []string, rows ...[]any) *table.Table {
	t.Helper()
	out := table.New(cols...)
	for _, row := range rows {
		require.NoError(t, out.AppendRow(row...))
	}
	return out
}

// Snapshot assembles a valid snapshot: every required table exists with
// its declared columns and no rows, except where overridden.
func Snapshot(t testing.TB, overrides map[string]*table.Table) *snapshot.Snapshot {
	t.Helper()
	tables := make(map[string]*table.Table, len(snapshot.RequiredTables))
	for _, name := range snapshot.RequiredTables {
		if o, ok := overrides[name]; ok {
			tables[name] = o
			continue
		}
		schema := snapshot.Schemas[name]
		cols := make([]string, 0, len(schema.Guaranteed)+len(schema.Optional))
		for _, c := range schema.Columns() {
			cols = append(cols, c.Name)
		}
		tables[name] = table.New(cols...)
	}
	snap, err := snapshot.New(tables)
	require.NoError(t, err)
	return snap
}
