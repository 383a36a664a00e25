package table

// Kind is the cell type a column is declared to carry.
type Kind int

const (
	KindString Kind = iota
	KindFloat
	KindTime
)

// Column declares one canonical column and its cell kind.
type Column struct {
	Name string
	Kind Kind
}

// Schema is the column contract of a canonical table: Guaranteed columns
// are always produced by ingestion, Optional columns may be missing from
// a given export. Consumers declare their column dependencies against the
// schema once and resolve availability through Capabilities instead of
// re-checking inline at every call site.
type Schema struct {
	Guaranteed []Column
	Optional   []Column
}

// Columns returns the full declared column list, guaranteed first.
func (s Schema) Columns() []Column {
	out := make([]Column, 0, len(s.Guaranteed)+len(s.Optional))
	out = append(out, s.Guaranteed...)
	out = append(out, s.Optional...)
	return out
}

// Kind returns the declared kind for a column name, defaulting to string
// for undeclared columns.
func (s Schema) Kind(name string) Kind {
	for _, c := range s.Columns() {
		if c.Name == name {
			return c.Kind
		}
	}
	return KindString
}

// Capabilities is the resolved availability of a schema against a concrete
// table.
type Capabilities struct {
	present map[string]bool
}

// Resolve checks which declared columns the table actually carries.
func (s Schema) Resolve(t *Table) Capabilities {
	caps := Capabilities{present: make(map[string]bool)}
	for _, c := range s.Columns() {
		if t.HasColumn(c.Name) {
			caps.present[c.Name] = true
		}
	}
	return caps
}

// Has reports whether every named column resolved as present.
func (c Capabilities) Has(cols ...string) bool {
	for _, col := range cols {
		if !c.present[col] {
			return false
		}
	}
	return true
}
