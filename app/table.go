package main

import (
	"context"

	"github.com/RoaringBitmap/roaring/roaring64"
)

// Table is a logical table over its B-tree: declared columns resolved from
// the CREATE TABLE statement, rows materialised from traversals.
type Table struct {
	src        PageSource
	entry      SchemaEntry
	columns    []string // cached declared column names
	rowidAlias int      // position of the INTEGER PRIMARY KEY column, -1 if none
	indexes    []*Index
}

// NewTable creates a logical table from its schema entry.
func NewTable(src PageSource, entry SchemaEntry) *Table {
	return &Table{
		src:        src,
		entry:      entry,
		rowidAlias: rowidAliasIndex(entry.SQL),
	}
}

// Name returns the table name.
func (t *Table) Name() string {
	return t.entry.TblName
}

// RootPage returns the table's B-tree root page.
func (t *Table) RootPage() int {
	return t.entry.RootPage
}

// Columns returns the declared column names in declaration order.
func (t *Table) Columns() ([]string, error) {
	if t.columns != nil {
		return t.columns, nil
	}
	if t.entry.SQL == "" {
		return nil, NewDatabaseError("table_columns", ErrInvalidSchema, map[string]interface{}{
			"table_name": t.Name(),
		})
	}
	columns, err := tableColumns(t.entry.SQL)
	if err != nil {
		return nil, err
	}
	t.columns = columns
	return columns, nil
}

// ColumnIndex resolves a column name to its position, matching ASCII
// case-insensitively.
func (t *Table) ColumnIndex(name string) (int, error) {
	columns, err := t.Columns()
	if err != nil {
		return 0, err
	}
	want := asciiLower(name)
	for i, column := range columns {
		if asciiLower(column) == want {
			return i, nil
		}
	}
	return 0, NewDatabaseError("resolve_column", ErrColumnNotFound, map[string]interface{}{
		"table_name":  t.Name(),
		"column_name": name,
	})
}

// Rows returns every row of the table in ascending rowid order, with the
// rowid-alias column materialised.
func (t *Table) Rows(ctx context.Context) ([]Row, error) {
	rows, err := ScanTable(ctx, t.src, t.entry.RootPage)
	if err != nil {
		return nil, err
	}
	t.materializeRowids(rows)
	return rows, nil
}

// RowsByRowid returns the rows whose rowid is in the target set, with the
// rowid-alias column materialised.
func (t *Table) RowsByRowid(ctx context.Context, targets *roaring64.Bitmap) ([]Row, error) {
	rows, err := FetchRowsByRowid(ctx, t.src, t.entry.RootPage, targets)
	if err != nil {
		return nil, err
	}
	t.materializeRowids(rows)
	return rows, nil
}

// Count returns the number of rows in the table.
func (t *Table) Count(ctx context.Context) (int, error) {
	return CountRows(ctx, t.src, t.entry.RootPage)
}

// AddIndex associates an index with the table.
func (t *Table) AddIndex(index *Index) {
	t.indexes = append(t.indexes, index)
}

// Indexes returns the indexes associated with the table.
func (t *Table) Indexes() []*Index {
	return t.indexes
}

// materializeRowids writes each row's rowid into the declared
// INTEGER PRIMARY KEY column, which is stored NULL in the payload.
func (t *Table) materializeRowids(rows []Row) {
	if t.rowidAlias < 0 {
		return
	}
	for i := range rows {
		if t.rowidAlias < len(rows[i].Values) {
			rows[i].Values[t.rowidAlias] = IntValue(rows[i].Rowid)
		}
	}
}
