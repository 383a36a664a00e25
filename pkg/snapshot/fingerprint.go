package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"sort"

	"github.com/rewardlytics/rewardsx/pkg/table"
)

// fingerprint hashes the full snapshot content in deterministic order:
// table names sorted, then each table's column list and row cells.
func fingerprint(tables map[string]*table.Table) string {
	names := make([]string, 0, len(tables))
	for n := range tables {
		names = append(names, n)
	}
	sort.Strings(names)

	h := sha256.New()
	for _, name := range names {
		t := tables[name]
		writeField(h, name)
		for _, c := range t.Columns() {
			writeField(h, c)
		}
		cols := t.Columns()
		for i := 0; i < t.NumRows(); i++ {
			row := t.Row(i)
			for _, c := range cols {
				v := row.Value(c)
				if v == nil {
					writeField(h, "\x00")
					continue
				}
				s, _ := table.AsString(v)
				writeField(h, s)
			}
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeField(w io.Writer, s string) {
	_, _ = fmt.Fprintf(w, "%d:%s;", len(s), s)
}
