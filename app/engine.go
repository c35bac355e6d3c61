package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xwb1989/sqlparser"
)

// Engine executes the supported commands against an open database:
// .dbinfo, .tables, and the SELECT grammar.
type Engine struct {
	db        *Database
	formatter OutputFormatter
	out       io.Writer
}

// NewEngine opens the database at dbPath and returns an engine writing to
// standard output.
func NewEngine(dbPath string, options ...ReaderOption) (*Engine, error) {
	db, err := OpenDatabase(dbPath, options...)
	if err != nil {
		return nil, err
	}

	return &Engine{
		db:        db,
		formatter: NewConsoleFormatter(),
		out:       os.Stdout,
	}, nil
}

// Close closes the engine's database.
func (e *Engine) Close() error {
	return e.db.Close()
}

// ExecuteCommand executes a dot command or SQL string.
func (e *Engine) ExecuteCommand(ctx context.Context, command string) error {
	switch {
	case command == ".dbinfo":
		return e.runDBInfo(ctx)
	case command == ".tables":
		return e.runTables(ctx)
	case strings.HasPrefix(command, "."):
		return NewDatabaseError("execute_command", ErrUnsupportedQuery, map[string]interface{}{
			"command": command,
		})
	default:
		return e.runSQL(ctx, command)
	}
}

// runDBInfo handles the .dbinfo command
func (e *Engine) runDBInfo(ctx context.Context) error {
	fmt.Fprintf(e.out, "database page size: %d\n", e.db.PageSize())

	tables, err := e.db.UserTables(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "number of tables: %d\n", len(tables))
	return nil
}

// runTables handles the .tables command
func (e *Engine) runTables(ctx context.Context) error {
	tables, err := e.db.UserTables(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(e.out, strings.Join(tables, " "))
	return nil
}

// runSQL parses and executes an SQL command.
func (e *Engine) runSQL(ctx context.Context, sql string) error {
	stmt, err := sqlparser.Parse(sql)
	if err != nil {
		return fmt.Errorf("parse SQL: %w", err)
	}

	selectStmt, ok := stmt.(*sqlparser.Select)
	if !ok {
		return NewDatabaseError("execute_sql", ErrUnsupportedQuery, map[string]interface{}{
			"statement_type": fmt.Sprintf("%T", stmt),
		})
	}
	return e.runSelect(ctx, selectStmt)
}

// runSelect executes a SELECT statement: projection and COUNT(*), an
// optional equality WHERE, index-backed when possible.
func (e *Engine) runSelect(ctx context.Context, stmt *sqlparser.Select) error {
	tableName := extractTableName(stmt)
	if tableName == "" {
		return NewDatabaseError("run_select", ErrUnsupportedQuery, map[string]interface{}{
			"reason": "missing table name",
		})
	}
	if len(stmt.From) > 1 || len(stmt.OrderBy) > 0 {
		return NewDatabaseError("run_select", ErrUnsupportedQuery, map[string]interface{}{
			"reason": "joins and ORDER BY are not supported",
		})
	}

	table, err := e.db.Table(ctx, tableName)
	if err != nil {
		return err
	}

	columnNames, isStar, isCount, err := extractProjection(stmt)
	if err != nil {
		return err
	}

	where, err := extractWhereClause(stmt.Where)
	if err != nil {
		return err
	}

	if isCount && where == nil {
		count, err := table.Count(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(e.out, e.formatter.FormatCount(count))
		return nil
	}

	rows, err := planSelect(table, where).Rows(ctx)
	if err != nil {
		return err
	}

	if isCount {
		fmt.Fprintln(e.out, e.formatter.FormatCount(len(rows)))
		return nil
	}

	projection, err := resolveProjection(table, columnNames, isStar)
	if err != nil {
		return err
	}

	for _, row := range rows {
		fmt.Fprintln(e.out, e.formatter.FormatRow(row, projection))
	}
	return nil
}

// resolveProjection maps the requested column names to positions; a star
// projection selects every declared column in order.
func resolveProjection(table *Table, columnNames []string, isStar bool) ([]int, error) {
	if isStar {
		columns, err := table.Columns()
		if err != nil {
			return nil, err
		}
		projection := make([]int, len(columns))
		for i := range columns {
			projection[i] = i
		}
		return projection, nil
	}

	projection := make([]int, len(columnNames))
	for i, name := range columnNames {
		index, err := table.ColumnIndex(name)
		if err != nil {
			return nil, err
		}
		projection[i] = index
	}
	return projection, nil
}

// extractTableName extracts the table name from a SELECT statement
func extractTableName(stmt *sqlparser.Select) string {
	if len(stmt.From) == 0 {
		return ""
	}

	if tableExpr, ok := stmt.From[0].(*sqlparser.AliasedTableExpr); ok {
		if table, ok := tableExpr.Expr.(sqlparser.TableName); ok {
			return table.Name.String()
		}
	}
	return ""
}

// extractProjection collects the projected column names and detects star
// and COUNT(*) projections.
func extractProjection(stmt *sqlparser.Select) (columnNames []string, isStar, isCount bool, err error) {
	for _, expr := range stmt.SelectExprs {
		switch selectExpr := expr.(type) {
		case *sqlparser.StarExpr:
			isStar = true
		case *sqlparser.AliasedExpr:
			switch innerExpr := selectExpr.Expr.(type) {
			case *sqlparser.FuncExpr:
				if strings.ToLower(innerExpr.Name.String()) != "count" {
					return nil, false, false, NewDatabaseError("extract_projection", ErrUnsupportedQuery, map[string]interface{}{
						"function": innerExpr.Name.String(),
					})
				}
				isCount = true
			case *sqlparser.ColName:
				columnNames = append(columnNames, innerExpr.Name.String())
			default:
				return nil, false, false, NewDatabaseError("extract_projection", ErrUnsupportedQuery, map[string]interface{}{
					"expression_type": fmt.Sprintf("%T", innerExpr),
				})
			}
		default:
			return nil, false, false, NewDatabaseError("extract_projection", ErrUnsupportedQuery, map[string]interface{}{
				"expression_type": fmt.Sprintf("%T", selectExpr),
			})
		}
	}

	if !isStar && !isCount && len(columnNames) == 0 {
		return nil, false, false, NewDatabaseError("extract_projection", ErrUnsupportedQuery, map[string]interface{}{
			"reason": "no columns selected",
		})
	}
	return columnNames, isStar, isCount, nil
}

// extractWhereClause converts a parsed WHERE into the supported equality
// predicate. Anything beyond column = literal is a query error.
func extractWhereClause(where *sqlparser.Where) (*WhereClause, error) {
	if where == nil {
		return nil, nil
	}

	comparison, ok := where.Expr.(*sqlparser.ComparisonExpr)
	if !ok {
		return nil, NewDatabaseError("extract_where", ErrUnsupportedQuery, map[string]interface{}{
			"expression_type": fmt.Sprintf("%T", where.Expr),
		})
	}
	if comparison.Operator != sqlparser.EqualStr {
		return nil, NewDatabaseError("extract_where", ErrUnsupportedQuery, map[string]interface{}{
			"operator": comparison.Operator,
		})
	}

	colName, ok := comparison.Left.(*sqlparser.ColName)
	if !ok {
		return nil, NewDatabaseError("extract_where", ErrUnsupportedQuery, map[string]interface{}{
			"reason": "left side of comparison must be a column name",
		})
	}
	literal, ok := comparison.Right.(*sqlparser.SQLVal)
	if !ok {
		return nil, NewDatabaseError("extract_where", ErrUnsupportedQuery, map[string]interface{}{
			"reason": "right side of comparison must be a literal",
		})
	}

	return &WhereClause{
		Column:   colName.Name.String(),
		Literal:  string(literal.Val),
		IsString: literal.Type == sqlparser.StrVal,
	}, nil
}
