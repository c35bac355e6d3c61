package main

import (
	"context"
	"fmt"
	"strings"
)

// SchemaEntry is one row of the sqlite_schema catalogue.
type SchemaEntry struct {
	Type     string // "table", "index", "view", "trigger"
	Name     string // object name
	TblName  string // table name (for indexes, the table they belong to)
	RootPage int    // root page number in the database file
	SQL      string // CREATE statement, empty when stored NULL
}

// IsUserTable reports whether the entry is a user table (not one of the
// sqlite_-prefixed internal tables).
func (e *SchemaEntry) IsUserTable() bool {
	return e.Type == "table" && !strings.HasPrefix(e.TblName, "sqlite_")
}

// readSchema reads the sqlite_schema catalogue from page 1, which is a
// table B-tree leaf for this reader's inputs. Rows whose type, tbl_name,
// rootpage or sql columns are not of the expected variants are skipped
// rather than failing the catalogue; internal entries such as
// sqlite_sequence carry unusual shapes.
func readSchema(ctx context.Context, src PageSource) ([]SchemaEntry, error) {
	page, err := src.ReadPage(ctx, 1)
	if err != nil {
		return nil, fmt.Errorf("read schema page: %w", err)
	}

	header, cellsAt, err := parsePageHeader(page, true)
	if err != nil {
		return nil, fmt.Errorf("parse schema page header: %w", err)
	}
	if !header.IsLeafTable() {
		return nil, NewDatabaseError("read_schema", ErrInvalidPageType, map[string]interface{}{
			"page_type": header.PageType,
		})
	}

	pointers, err := cellPointerArray(page, header, cellsAt)
	if err != nil {
		return nil, fmt.Errorf("read schema cell pointers: %w", err)
	}

	entries := make([]SchemaEntry, 0, len(pointers))
	for i, pointer := range pointers {
		cell, err := parseTableLeafCell(page[pointer:])
		if err != nil {
			return nil, fmt.Errorf("read schema cell %d: %w", i, err)
		}
		values, err := parseRecord(cell.Payload)
		if err != nil {
			return nil, fmt.Errorf("decode schema cell %d: %w", i, err)
		}
		if entry, ok := schemaEntryFromRecord(values); ok {
			entries = append(entries, entry)
		}
	}

	return entries, nil
}

// schemaEntryFromRecord builds a SchemaEntry from a decoded sqlite_schema
// record: (type, name, tbl_name, rootpage, sql). The sql column may be
// NULL; a name that is not text is left empty; any other variant mismatch
// in type, tbl_name, rootpage or sql rejects the row.
func schemaEntryFromRecord(values []Value) (SchemaEntry, bool) {
	if len(values) < 5 {
		return SchemaEntry{}, false
	}
	if values[0].Kind != KindText || values[2].Kind != KindText || values[3].Kind != KindInt {
		return SchemaEntry{}, false
	}

	entry := SchemaEntry{
		Type:     values[0].Text,
		TblName:  values[2].Text,
		RootPage: int(values[3].Int),
	}
	if values[1].Kind == KindText {
		entry.Name = values[1].Text
	}
	switch values[4].Kind {
	case KindText:
		entry.SQL = values[4].Text
	case KindNull:
	default:
		return SchemaEntry{}, false
	}

	return entry, true
}

// asciiLower lower-cases ASCII letters only; identifier matching here is
// ASCII case-insensitive.
func asciiLower(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		b.WriteByte(c)
	}
	return b.String()
}

// trimIdentifier strips surrounding quote characters from an identifier.
func trimIdentifier(s string) string {
	return strings.Trim(s, "`\"'[]")
}

// columnDefs splits the body of a CREATE statement into its comma-separated
// definitions: the substring between the first "(" and the last ")".
func columnDefs(createSQL string) ([]string, error) {
	start := strings.Index(createSQL, "(")
	end := strings.LastIndex(createSQL, ")")
	if start == -1 || end <= start {
		return nil, NewDatabaseError("parse_create_sql", ErrInvalidSchema, map[string]interface{}{
			"sql": createSQL,
		})
	}
	return strings.Split(createSQL[start+1:end], ","), nil
}

// tableColumns extracts the declared column names of a CREATE TABLE
// statement, in declaration order: the first whitespace-separated token of
// each comma-separated definition.
func tableColumns(createSQL string) ([]string, error) {
	defs, err := columnDefs(createSQL)
	if err != nil {
		return nil, err
	}

	columns := make([]string, 0, len(defs))
	for _, def := range defs {
		fields := strings.Fields(def)
		if len(fields) == 0 {
			return nil, NewDatabaseError("parse_create_sql", ErrInvalidSchema, map[string]interface{}{
				"sql": createSQL,
			})
		}
		columns = append(columns, trimIdentifier(fields[0]))
	}
	return columns, nil
}

// rowidAliasIndex returns the position of the table's INTEGER PRIMARY KEY
// column, or -1 when the table has none. That column is stored NULL in row
// payloads and materialised from the cell rowid.
func rowidAliasIndex(createSQL string) int {
	defs, err := columnDefs(createSQL)
	if err != nil {
		return -1
	}
	for i, def := range defs {
		if strings.Contains(asciiLower(def), "integer primary key") {
			return i
		}
	}
	return -1
}

// indexedColumns extracts the column names of a CREATE INDEX statement, in
// index order.
func indexedColumns(createSQL string) []string {
	defs, err := columnDefs(createSQL)
	if err != nil {
		return nil
	}
	columns := make([]string, 0, len(defs))
	for _, def := range defs {
		fields := strings.Fields(def)
		if len(fields) == 0 {
			continue
		}
		columns = append(columns, trimIdentifier(fields[0]))
	}
	return columns
}
