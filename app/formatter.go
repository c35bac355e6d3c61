package main

import (
	"fmt"
	"strconv"
	"strings"
)

// OutputFormatter handles different output formats
type OutputFormatter interface {
	FormatValue(value Value) string
	FormatRow(row Row, columns []int) string
	FormatCount(count int) string
}

// ConsoleFormatter formats query results for console display: one row per
// line, projected columns separated by "|".
type ConsoleFormatter struct{}

// NewConsoleFormatter creates a new console formatter
func NewConsoleFormatter() *ConsoleFormatter {
	return &ConsoleFormatter{}
}

// FormatValue formats a single value
func (cf *ConsoleFormatter) FormatValue(value Value) string {
	return value.Render()
}

// FormatRow formats the projected columns of a row
func (cf *ConsoleFormatter) FormatRow(row Row, columns []int) string {
	parts := make([]string, 0, len(columns))
	for _, column := range columns {
		if column < len(row.Values) {
			parts = append(parts, cf.FormatValue(row.Values[column]))
		} else {
			parts = append(parts, "NULL")
		}
	}
	return strings.Join(parts, "|")
}

// FormatCount formats a count result
func (cf *ConsoleFormatter) FormatCount(count int) string {
	return strconv.Itoa(count)
}

// JSONFormatter formats query results as JSON
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// FormatValue formats a single value as JSON
func (jf *JSONFormatter) FormatValue(value Value) string {
	switch value.Kind {
	case KindNull:
		return "null"
	case KindText, KindBlob:
		return strconv.Quote(value.Render())
	default:
		return value.Render()
	}
}

// FormatRow formats the projected columns of a row as a JSON array
func (jf *JSONFormatter) FormatRow(row Row, columns []int) string {
	parts := make([]string, 0, len(columns))
	for _, column := range columns {
		if column < len(row.Values) {
			parts = append(parts, jf.FormatValue(row.Values[column]))
		} else {
			parts = append(parts, "null")
		}
	}
	return fmt.Sprintf("[%s]", strings.Join(parts, ", "))
}

// FormatCount formats a count result as JSON
func (jf *JSONFormatter) FormatCount(count int) string {
	return fmt.Sprintf(`{"count": %d}`, count)
}
