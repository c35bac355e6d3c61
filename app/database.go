package main

import (
	"context"
	"fmt"
)

// Database is the logical database: the pager plus the schema catalogue
// resolved into table and index objects.
type Database struct {
	pager        *Pager
	entries      []SchemaEntry
	tables       map[string]*Table
	indexes      map[string]*Index
	tableOrder   []string // user table names in schema order
	schemaLoaded bool
}

// OpenDatabase opens a database file with functional options.
func OpenDatabase(filePath string, options ...ReaderOption) (*Database, error) {
	pager, err := OpenPager(filePath, options...)
	if err != nil {
		return nil, err
	}

	return &Database{
		pager:   pager,
		tables:  make(map[string]*Table),
		indexes: make(map[string]*Index),
	}, nil
}

// LoadSchema reads and caches the schema catalogue, resolving tables and
// their indexes.
func (db *Database) LoadSchema(ctx context.Context) error {
	if db.schemaLoaded {
		return nil
	}

	entries, err := readSchema(ctx, db.pager)
	if err != nil {
		return fmt.Errorf("load schema: %w", err)
	}

	tables := make(map[string]*Table)
	indexes := make(map[string]*Index)
	var tableOrder []string

	for _, entry := range entries {
		switch entry.Type {
		case "table":
			table := NewTable(db.pager, entry)
			tables[asciiLower(entry.TblName)] = table
			if entry.IsUserTable() {
				tableOrder = append(tableOrder, entry.TblName)
			}
		case "index":
			indexes[entry.Name] = NewIndex(db.pager, entry)
		}
	}

	// Associate each index with its table.
	for _, index := range indexes {
		if table, ok := tables[asciiLower(index.TableName())]; ok {
			table.AddIndex(index)
		}
	}

	db.entries = entries
	db.tables = tables
	db.indexes = indexes
	db.tableOrder = tableOrder
	db.schemaLoaded = true
	return nil
}

// UserTables returns the names of the user tables in schema order.
func (db *Database) UserTables(ctx context.Context) ([]string, error) {
	if err := db.LoadSchema(ctx); err != nil {
		return nil, err
	}
	return db.tableOrder, nil
}

// Table returns a table by name, matched ASCII case-insensitively.
func (db *Database) Table(ctx context.Context, name string) (*Table, error) {
	if err := db.LoadSchema(ctx); err != nil {
		return nil, err
	}
	if table, ok := db.tables[asciiLower(name)]; ok {
		return table, nil
	}
	return nil, NewDatabaseError("get_table", ErrTableNotFound, map[string]interface{}{
		"table_name": name,
	})
}

// Index returns an index by name.
func (db *Database) Index(ctx context.Context, name string) (*Index, error) {
	if err := db.LoadSchema(ctx); err != nil {
		return nil, err
	}
	if index, ok := db.indexes[name]; ok {
		return index, nil
	}
	return nil, NewDatabaseError("get_index", ErrTableNotFound, map[string]interface{}{
		"index_name": name,
	})
}

// Entries returns the raw schema catalogue entries.
func (db *Database) Entries(ctx context.Context) ([]SchemaEntry, error) {
	if err := db.LoadSchema(ctx); err != nil {
		return nil, err
	}
	return db.entries, nil
}

// PageSize returns the database page size.
func (db *Database) PageSize() int {
	return db.pager.PageSize()
}

// Close closes the database.
func (db *Database) Close() error {
	return db.pager.Close()
}
