package main

import (
	"testing"
)

func TestValueRender(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  string
	}{
		{"null", NullValue(), "NULL"},
		{"int", IntValue(-42), "-42"},
		{"zero", IntValue(0), "0"},
		{"float", FloatValue(3.25), "3.25"},
		{"float shortest", FloatValue(0.1), "0.1"},
		{"text", TextValue("Golden Delicious"), "Golden Delicious"},
		{"blob", BlobValue([]byte{0x01, 0x02}), "[BLOB]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.value.Render(); got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCompareValues(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want int
	}{
		{"null before int", NullValue(), IntValue(0), -1},
		{"int before text", IntValue(99), TextValue(""), -1},
		{"text before blob", TextValue("zzz"), BlobValue(nil), -1},
		{"nulls equal", NullValue(), NullValue(), 0},
		{"int order", IntValue(1), IntValue(2), -1},
		{"int float cross", IntValue(2), FloatValue(1.5), 1},
		{"int float equal", IntValue(2), FloatValue(2.0), 0},
		{"text bytewise", TextValue("apple"), TextValue("banana"), -1},
		{"text equal", TextValue("Pink Eyes"), TextValue("Pink Eyes"), 0},
		{"blob bytewise", BlobValue([]byte{0x01}), BlobValue([]byte{0x02}), -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := compareValues(tt.a, tt.b); got != tt.want {
				t.Errorf("compareValues() = %d, want %d", got, tt.want)
			}
			if got := compareValues(tt.b, tt.a); got != -tt.want {
				t.Errorf("compareValues() reversed = %d, want %d", got, -tt.want)
			}
		})
	}
}

func TestValueEqualsLiteral(t *testing.T) {
	tests := []struct {
		name    string
		value   Value
		literal string
		want    bool
	}{
		{"text match", TextValue("Yellow"), "Yellow", true},
		{"text mismatch", TextValue("Yellow"), "yellow", false},
		{"numeric-looking text", TextValue("5"), "5", true},
		{"int match", IntValue(297), "297", true},
		{"int mismatch", IntValue(297), "298", false},
		{"int non-numeric literal", IntValue(297), "Pink Eyes", false},
		{"float never matches", FloatValue(1.0), "1", false},
		{"null never matches", NullValue(), "NULL", false},
		{"blob never matches", BlobValue([]byte("x")), "x", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.value.equalsLiteral(tt.literal); got != tt.want {
				t.Errorf("equalsLiteral(%q) = %v, want %v", tt.literal, got, tt.want)
			}
		})
	}
}
