package main

import (
	"context"
	"strconv"
)

// WhereClause is the parsed equality predicate of a query:
// column = literal.
type WhereClause struct {
	Column   string
	Literal  string
	IsString bool // literal was a quoted string
}

// keyValue converts the literal into the value used as an index search key.
func (w *WhereClause) keyValue() (Value, error) {
	if w.IsString {
		return TextValue(w.Literal), nil
	}
	n, err := strconv.ParseInt(w.Literal, 10, 64)
	if err != nil {
		return Value{}, NewDatabaseError("parse_where_literal", ErrUnsupportedQuery, map[string]interface{}{
			"literal": w.Literal,
		})
	}
	return IntValue(n), nil
}

// QueryPlan is the access path chosen for a SELECT: an index equality
// lookup followed by a rowid fetch when a usable index exists, otherwise a
// full scan with in-memory filtering.
type QueryPlan struct {
	Table *Table
	Where *WhereClause
	Index *Index // nil means full scan
}

// planSelect resolves the access path for a table and optional predicate.
// An index is usable when the predicate column is its first indexed column.
func planSelect(table *Table, where *WhereClause) *QueryPlan {
	plan := &QueryPlan{Table: table, Where: where}
	if where == nil {
		return plan
	}

	want := asciiLower(where.Column)
	for _, index := range table.Indexes() {
		if asciiLower(index.FirstColumn()) == want {
			plan.Index = index
			break
		}
	}
	return plan
}

// Rows executes the plan and returns the matching rows in traversal order.
// Rows fetched through the index path are re-checked against the predicate,
// which also covers the rowid-alias column.
func (p *QueryPlan) Rows(ctx context.Context) ([]Row, error) {
	if p.Where == nil {
		return p.Table.Rows(ctx)
	}

	// Unknown predicate column is fatal, regardless of access path.
	columnIndex, err := p.Table.ColumnIndex(p.Where.Column)
	if err != nil {
		return nil, err
	}

	var rows []Row
	if p.Index != nil {
		key, err := p.Where.keyValue()
		if err != nil {
			return nil, err
		}
		rowids, err := p.Index.SearchEqual(ctx, key)
		if err != nil {
			return nil, err
		}
		rows, err = p.Table.RowsByRowid(ctx, rowids)
		if err != nil {
			return nil, err
		}
	} else {
		rows, err = p.Table.Rows(ctx)
		if err != nil {
			return nil, err
		}
	}

	matched := make([]Row, 0, len(rows))
	for _, row := range rows {
		if columnIndex < len(row.Values) && row.Values[columnIndex].equalsLiteral(p.Where.Literal) {
			matched = append(matched, row)
		}
	}
	return matched, nil
}
