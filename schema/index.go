package schema

import "strings"

// IndexKind is the kind of a table index.
type IndexKind uint8

// Index kinds.
const (
	IndexPlain IndexKind = iota
	IndexUnique
	IndexPrimary
)

// Index is an index over one or more columns. Drop removes it instead.
type Index struct {
	Kind    IndexKind
	Columns []string
	Drop    bool
}

// Name returns the index name: the table and columns joined with "_" and
// suffixed with the kind.
func (i Index) Name(table string) string {
	suffix := "index"
	switch i.Kind {
	case IndexUnique:
		suffix = "unique"
	case IndexPrimary:
		suffix = "primary"
	}
	return table + "_" + strings.Join(i.Columns, "_") + "_" + suffix
}
