package table

import (
	"fmt"
	"strings"
)

// JoinType selects the row-retention rule for a join. The choice is part
// of the view contract, not a tuning knob: an inner stage drops left rows
// that cannot be resolved, a left stage keeps them with nil enrichment.
type JoinType int

const (
	Inner JoinType = iota
	Left
)

func (j JoinType) String() string {
	if j == Inner {
		return "inner"
	}
	return "left"
}

// ErrJoinPrecondition is returned when a join key column is missing on
// either side. Callers decide whether that is fatal (inner stages) or a
// reason to skip the stage (left stages).
var ErrJoinPrecondition = fmt.Errorf("table: join key column missing")

// Join hash-joins t with right on the named key columns (same names on
// both sides). Right-side columns already present on the left are not
// re-added, so repeating an enrichment stage never duplicates columns.
// Rows whose key contains a nil cell never match. A right side with
// several matches per key fans the left row out into several output rows.
func (t *Table) Join(right *Table, how JoinType, keys ...string) (*Table, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("table: join without key columns")
	}
	for _, k := range keys {
		if !t.HasColumn(k) {
			return nil, fmt.Errorf("%w: %q on left side", ErrJoinPrecondition, k)
		}
		if !right.HasColumn(k) {
			return nil, fmt.Errorf("%w: %q on right side", ErrJoinPrecondition, k)
		}
	}

	// Columns contributed by the right side: everything the left does not
	// already carry.
	var rightCols []string
	var rightIdx []int
	for i, c := range right.cols {
		if !t.HasColumn(c) {
			rightCols = append(rightCols, c)
			rightIdx = append(rightIdx, i)
		}
	}

	index := make(map[string][]int, right.NumRows())
	for i := 0; i < right.NumRows(); i++ {
		k, ok := compositeKey(right.Row(i), keys)
		if !ok {
			continue
		}
		index[k] = append(index[k], i)
	}

	out := New(append(t.Columns(), rightCols...)...)
	for li := 0; li < t.NumRows(); li++ {
		k, ok := compositeKey(t.Row(li), keys)
		var matches []int
		if ok {
			matches = index[k]
		}
		if len(matches) == 0 {
			if how == Inner {
				continue
			}
			cells := append([]any(nil), t.rows[li]...)
			for range rightCols {
				cells = append(cells, nil)
			}
			out.rows = append(out.rows, cells)
			continue
		}
		for _, ri := range matches {
			cells := append([]any(nil), t.rows[li]...)
			for _, ci := range rightIdx {
				cells = append(cells, right.rows[ri][ci])
			}
			out.rows = append(out.rows, cells)
		}
	}
	return out, nil
}

// DedupFirst returns a table with at most one row per composite key,
// keeping the first occurrence in row order. Rows whose key cells are all
// nil collapse into a single empty-key group, matching the grain rule
// rather than dropping them.
func (t *Table) DedupFirst(keys ...string) *Table {
	out := New(t.cols...)
	seen := make(map[string]bool, t.NumRows())
	for i := 0; i < t.NumRows(); i++ {
		parts := make([]string, len(keys))
		for j, k := range keys {
			s, _ := t.Row(i).String(k)
			parts[j] = s
		}
		key := strings.Join(parts, "\x1f")
		if seen[key] {
			continue
		}
		seen[key] = true
		out.rows = append(out.rows, append([]any(nil), t.rows[i]...))
	}
	return out
}

func compositeKey(r Row, keys []string) (string, bool) {
	parts := make([]string, len(keys))
	for i, k := range keys {
		s, ok := r.String(k)
		if !ok {
			return "", false
		}
		parts[i] = s
	}
	return strings.Join(parts, "\x1f"), true
}
