package main

import (
	"context"

	"github.com/RoaringBitmap/roaring/roaring64"
)

// Index is a logical index over its B-tree: the indexed columns resolved
// from the CREATE INDEX statement, equality lookups producing rowid sets.
type Index struct {
	src     PageSource
	entry   SchemaEntry
	columns []string
}

// NewIndex creates a logical index from its schema entry.
func NewIndex(src PageSource, entry SchemaEntry) *Index {
	return &Index{
		src:     src,
		entry:   entry,
		columns: indexedColumns(entry.SQL),
	}
}

// Name returns the index name.
func (ix *Index) Name() string {
	return ix.entry.Name
}

// TableName returns the name of the table the index belongs to.
func (ix *Index) TableName() string {
	return ix.entry.TblName
}

// Columns returns the indexed column names in index order.
func (ix *Index) Columns() []string {
	return ix.columns
}

// FirstColumn returns the first indexed column, or "" when the CREATE
// INDEX statement could not be parsed. Equality lookups are only valid
// against the first column.
func (ix *Index) FirstColumn() string {
	if len(ix.columns) == 0 {
		return ""
	}
	return ix.columns[0]
}

// SearchEqual returns the set of rowids whose first indexed column equals
// the key, sorted ascending.
func (ix *Index) SearchEqual(ctx context.Context, key Value) (*roaring64.Bitmap, error) {
	return SearchIndex(ctx, ix.src, ix.entry.RootPage, key)
}
