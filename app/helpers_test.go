package main

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// Test builders for varints, records, cells and pages. These synthesize the
// on-disk format so the binary layers can be exercised without a fixture
// database.

// encodeVarint encodes v in the 1..9-byte varint format.
func encodeVarint(v uint64) []byte {
	if v>>56 != 0 {
		// 9-byte form: 8 continuation bytes carrying the top 56 bits,
		// then a final byte with all 8 low bits.
		buf := make([]byte, 9)
		buf[8] = byte(v)
		rest := v >> 8
		for i := 7; i >= 0; i-- {
			buf[i] = byte(rest&0x7F) | 0x80
			rest >>= 7
		}
		return buf
	}

	var groups [9]byte
	n := 0
	for {
		groups[n] = byte(v & 0x7F)
		v >>= 7
		n++
		if v == 0 {
			break
		}
	}
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = groups[n-1-i]
		if i != n-1 {
			out[i] |= 0x80
		}
	}
	return out
}

// testColumn is one column of a synthesized record.
type testColumn struct {
	serial uint64
	data   []byte
}

func nullColumn() testColumn {
	return testColumn{serial: 0}
}

func int8Column(v int8) testColumn {
	return testColumn{serial: 1, data: []byte{byte(v)}}
}

func int64Column(v int64) testColumn {
	data := make([]byte, 8)
	binary.BigEndian.PutUint64(data, uint64(v))
	return testColumn{serial: 6, data: data}
}

func textColumn(s string) testColumn {
	return testColumn{serial: uint64(13 + 2*len(s)), data: []byte(s)}
}

func blobColumn(b []byte) testColumn {
	return testColumn{serial: uint64(12 + 2*len(b)), data: b}
}

// encodeRecord builds a record payload: header-size varint, serial-type
// varints, packed column bodies.
func encodeRecord(cols ...testColumn) []byte {
	var serials, body []byte
	for _, col := range cols {
		serials = append(serials, encodeVarint(col.serial)...)
		body = append(body, col.data...)
	}

	// The header size includes its own varint; grow the length until the
	// encoding is stable.
	headerLen := 1
	for len(encodeVarint(uint64(len(serials)+headerLen))) != headerLen {
		headerLen++
	}

	payload := encodeVarint(uint64(len(serials) + headerLen))
	payload = append(payload, serials...)
	return append(payload, body...)
}

// Cell encoders, one per cell shape.

func encodeTableLeafCell(rowid uint64, record []byte) []byte {
	cell := encodeVarint(uint64(len(record)))
	cell = append(cell, encodeVarint(rowid)...)
	return append(cell, record...)
}

func encodeTableInteriorCell(child uint32, rowid uint64) []byte {
	cell := make([]byte, 4)
	binary.BigEndian.PutUint32(cell, child)
	return append(cell, encodeVarint(rowid)...)
}

func encodeIndexLeafCell(record []byte) []byte {
	cell := encodeVarint(uint64(len(record)))
	return append(cell, record...)
}

func encodeIndexInteriorCell(child uint32, record []byte) []byte {
	cell := make([]byte, 4)
	binary.BigEndian.PutUint32(cell, child)
	cell = append(cell, encodeVarint(uint64(len(record)))...)
	return append(cell, record...)
}

// buildPage lays out a B-tree page: header, cell pointer array, cells
// packed against the page tail. Pointer order follows the cells slice.
func buildPage(pageSize int, pageOne bool, pageType uint8, rightMost uint32, cells [][]byte) []byte {
	page := make([]byte, pageSize)
	headerOffset := 0
	if pageOne {
		headerOffset = databaseHeaderSize
	}
	interior := pageType == PageTypeInteriorTable || pageType == PageTypeInteriorIndex
	headerSize := 8
	if interior {
		headerSize = 12
	}

	content := pageSize
	pointers := make([]uint16, len(cells))
	for i, cell := range cells {
		content -= len(cell)
		copy(page[content:], cell)
		pointers[i] = uint16(content)
	}

	page[headerOffset] = pageType
	binary.BigEndian.PutUint16(page[headerOffset+3:], uint16(len(cells)))
	binary.BigEndian.PutUint16(page[headerOffset+5:], uint16(content))
	if interior {
		binary.BigEndian.PutUint32(page[headerOffset+8:], rightMost)
	}
	for i, p := range pointers {
		binary.BigEndian.PutUint16(page[headerOffset+headerSize+i*2:], p)
	}
	return page
}

// fakePager serves pages from memory.
type fakePager struct {
	pages    map[int][]byte
	pageSize int
}

func (f *fakePager) ReadPage(_ context.Context, pageNum int) ([]byte, error) {
	page, ok := f.pages[pageNum]
	if !ok {
		return nil, fmt.Errorf("read page %d: no such page", pageNum)
	}
	return page, nil
}

func (f *fakePager) PageSize() int {
	return f.pageSize
}

// schemaRecord builds a sqlite_schema row record.
func schemaRecord(typ, name, tblName string, rootPage int64, sql string) []byte {
	sqlCol := textColumn(sql)
	if sql == "" {
		sqlCol = nullColumn()
	}
	return encodeRecord(
		textColumn(typ),
		textColumn(name),
		textColumn(tblName),
		int64Column(rootPage),
		sqlCol,
	)
}

// writeTestDatabase writes a small single-file database to disk:
//
//	fruits(id integer primary key, name text, color text), 3 rows, plus an
//	index idx_fruits_color on (color).
//
// Page 1 holds the schema, page 2 the fruits table, page 3 the index.
func writeTestDatabase(t *testing.T) string {
	t.Helper()
	const pageSize = 512

	page1 := buildPage(pageSize, true, PageTypeLeafTable, 0, [][]byte{
		encodeTableLeafCell(1, schemaRecord("table", "fruits", "fruits", 2,
			"CREATE TABLE fruits (id integer primary key, name text, color text)")),
		encodeTableLeafCell(2, schemaRecord("index", "idx_fruits_color", "fruits", 3,
			"CREATE INDEX idx_fruits_color ON fruits (color)")),
	})
	// Database header over the zeroed prefix of page 1.
	copy(page1, sqliteMagic)
	binary.BigEndian.PutUint16(page1[16:], pageSize)

	page2 := buildPage(pageSize, false, PageTypeLeafTable, 0, [][]byte{
		encodeTableLeafCell(1, encodeRecord(nullColumn(), textColumn("Granny Smith"), textColumn("Green"))),
		encodeTableLeafCell(2, encodeRecord(nullColumn(), textColumn("Golden Delicious"), textColumn("Yellow"))),
		encodeTableLeafCell(3, encodeRecord(nullColumn(), textColumn("Honeycrisp"), textColumn("Red"))),
	})

	// Index entries sorted by (color, rowid).
	page3 := buildPage(pageSize, false, PageTypeLeafIndex, 0, [][]byte{
		encodeIndexLeafCell(encodeRecord(textColumn("Green"), int8Column(1))),
		encodeIndexLeafCell(encodeRecord(textColumn("Red"), int8Column(3))),
		encodeIndexLeafCell(encodeRecord(textColumn("Yellow"), int8Column(2))),
	})

	path := filepath.Join(t.TempDir(), "fruits.db")
	var file []byte
	file = append(file, page1...)
	file = append(file, page2...)
	file = append(file, page3...)
	if err := os.WriteFile(path, file, 0o644); err != nil {
		t.Fatalf("write test database: %v", err)
	}
	return path
}
