package main

import (
	"bytes"
	"strconv"
	"strings"
)

// ValueKind identifies the variant held by a Value.
type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindInt
	KindFloat
	KindText
	KindBlob
)

// Value is a decoded column value. It is a closed sum over
// {Null, Int, Float, Text, Blob}; exactly one payload field is meaningful,
// selected by Kind.
type Value struct {
	Kind  ValueKind
	Int   int64
	Float float64
	Text  string
	Blob  []byte
}

// NullValue returns a NULL value.
func NullValue() Value {
	return Value{Kind: KindNull}
}

// IntValue returns an integer value.
func IntValue(i int64) Value {
	return Value{Kind: KindInt, Int: i}
}

// FloatValue returns a floating-point value.
func FloatValue(f float64) Value {
	return Value{Kind: KindFloat, Float: f}
}

// TextValue returns a text value.
func TextValue(s string) Value {
	return Value{Kind: KindText, Text: s}
}

// BlobValue returns a blob value.
func BlobValue(b []byte) Value {
	return Value{Kind: KindBlob, Blob: b}
}

// Render returns the display form of the value: text as raw bytes, integers
// in decimal, floats as the shortest round-trippable decimal, blobs as the
// literal [BLOB] marker and NULL as the literal NULL.
func (v Value) Render() string {
	switch v.Kind {
	case KindNull:
		return "NULL"
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case KindText:
		return v.Text
	case KindBlob:
		return "[BLOB]"
	}
	return ""
}

// typeRank returns the value's precedence class for comparison: NULL sorts
// before numbers, numbers before text, text before blobs.
func (v Value) typeRank() int {
	switch v.Kind {
	case KindNull:
		return 0
	case KindInt, KindFloat:
		return 1
	case KindText:
		return 2
	case KindBlob:
		return 3
	}
	return 4
}

// asFloat widens a numeric value to float64 for cross-width comparison.
func (v Value) asFloat() float64 {
	if v.Kind == KindInt {
		return float64(v.Int)
	}
	return v.Float
}

// compareValues orders two values: first by type rank, then within the rank
// (numeric by magnitude, text and blob bytewise). All NULLs compare equal.
func compareValues(a, b Value) int {
	rankA, rankB := a.typeRank(), b.typeRank()
	if rankA != rankB {
		if rankA < rankB {
			return -1
		}
		return 1
	}

	switch rankA {
	case 1:
		fa, fb := a.asFloat(), b.asFloat()
		if fa < fb {
			return -1
		} else if fa > fb {
			return 1
		}
		return 0
	case 2:
		return strings.Compare(a.Text, b.Text)
	case 3:
		return bytes.Compare(a.Blob, b.Blob)
	}
	return 0
}

// equalsLiteral reports whether the value matches a query literal under
// equality. Text columns compare byte-equal to the literal; integer columns
// compare after decimal parsing of the literal, and a non-numeric literal
// matches nothing. Other variants never match.
func (v Value) equalsLiteral(literal string) bool {
	switch v.Kind {
	case KindText:
		return v.Text == literal
	case KindInt:
		n, err := strconv.ParseInt(literal, 10, 64)
		if err != nil {
			return false
		}
		return v.Int == n
	}
	return false
}
