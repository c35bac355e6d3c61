package main

import (
	"errors"
	"math"
	"testing"
)

func TestReadVarint_RoundTrip(t *testing.T) {
	values := []uint64{
		0, 1, 42, 127, 128, 255, 16383, 16384,
		1<<21 - 1, 1 << 21, 1 << 28, 1 << 35, 1 << 42, 1 << 49,
		1<<56 - 1, 1 << 56, math.MaxUint64,
	}

	for _, want := range values {
		encoded := encodeVarint(want)
		got, n, err := readVarint(encoded)
		if err != nil {
			t.Fatalf("readVarint(%d) error = %v", want, err)
		}
		if got != want {
			t.Errorf("readVarint(encode(%d)) = %d", want, got)
		}
		if n != len(encoded) {
			t.Errorf("readVarint(encode(%d)) consumed %d bytes, want %d", want, n, len(encoded))
		}
	}
}

func TestReadVarint_NineByteForm(t *testing.T) {
	// Eight continuation bytes contributing zero bits, then a final byte
	// using all 8 bits.
	data := []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0xFF}
	got, n, err := readVarint(data)
	if err != nil {
		t.Fatalf("readVarint() error = %v", err)
	}
	if got != 0xFF || n != 9 {
		t.Errorf("readVarint() = (%d, %d), want (255, 9)", got, n)
	}

	if len(encodeVarint(math.MaxUint64)) != 9 {
		t.Errorf("encodeVarint(MaxUint64) should use 9 bytes")
	}
}

func TestReadVarint_SingleByte(t *testing.T) {
	got, n, err := readVarint([]byte{0x2A, 0xFF})
	if err != nil {
		t.Fatalf("readVarint() error = %v", err)
	}
	if got != 42 || n != 1 {
		t.Errorf("readVarint() = (%d, %d), want (42, 1)", got, n)
	}
}

func TestReadVarint_Truncated(t *testing.T) {
	cases := [][]byte{
		{},
		{0x80},
		{0xFF, 0xFF, 0xFF},
	}
	for _, data := range cases {
		if _, _, err := readVarint(data); err == nil {
			t.Errorf("readVarint(%x) should fail on truncated input", data)
		} else if !errors.Is(err, ErrInsufficientData) {
			t.Errorf("readVarint(%x) error = %v, want ErrInsufficientData", data, err)
		}
	}
}
