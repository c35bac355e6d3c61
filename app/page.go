package main

import (
	"encoding/binary"
)

// B-tree page types
const (
	PageTypeInteriorIndex uint8 = 0x02
	PageTypeInteriorTable uint8 = 0x05
	PageTypeLeafIndex     uint8 = 0x0A
	PageTypeLeafTable     uint8 = 0x0D
)

// databaseHeaderSize is the size of the file header at the start of page 1.
const databaseHeaderSize = 100

// PageHeader represents a B-tree page header
type PageHeader struct {
	PageType         uint8
	FirstFreeblock   uint16
	CellCount        uint16
	CellContentStart uint32 // stored 0 means 65536
	FragmentedBytes  uint8
	RightMostPointer uint32 // interior pages only
}

// IsLeafTable reports whether the page is a table B-tree leaf.
func (h *PageHeader) IsLeafTable() bool { return h.PageType == PageTypeLeafTable }

// IsInteriorTable reports whether the page is a table B-tree interior node.
func (h *PageHeader) IsInteriorTable() bool { return h.PageType == PageTypeInteriorTable }

// IsLeafIndex reports whether the page is an index B-tree leaf.
func (h *PageHeader) IsLeafIndex() bool { return h.PageType == PageTypeLeafIndex }

// IsInteriorIndex reports whether the page is an index B-tree interior node.
func (h *PageHeader) IsInteriorIndex() bool { return h.PageType == PageTypeInteriorIndex }

// IsInterior reports whether the page carries a right-most child pointer.
func (h *PageHeader) IsInterior() bool {
	return h.PageType == PageTypeInteriorTable || h.PageType == PageTypeInteriorIndex
}

// headerSize returns the page header size: 12 bytes for interior pages,
// 8 for leaves.
func (h *PageHeader) headerSize() int {
	if h.IsInterior() {
		return 12
	}
	return 8
}

// parsePageHeader parses the B-tree page header of a page. On page 1 the
// header starts after the 100-byte database header. It returns the parsed
// header and the offset of the cell pointer array within the page.
func parsePageHeader(page []byte, isPageOne bool) (*PageHeader, int, error) {
	offset := 0
	if isPageOne {
		offset = databaseHeaderSize
	}
	if len(page) < offset+8 {
		return nil, 0, NewDatabaseError("parse_page_header", ErrInsufficientData, map[string]interface{}{
			"page_size": len(page),
		})
	}

	raw := page[offset:]
	header := &PageHeader{
		PageType:         raw[0],
		FirstFreeblock:   binary.BigEndian.Uint16(raw[1:3]),
		CellCount:        binary.BigEndian.Uint16(raw[3:5]),
		CellContentStart: uint32(binary.BigEndian.Uint16(raw[5:7])),
		FragmentedBytes:  raw[7],
	}
	if header.CellContentStart == 0 {
		header.CellContentStart = 65536
	}

	switch header.PageType {
	case PageTypeLeafTable, PageTypeLeafIndex:
	case PageTypeInteriorTable, PageTypeInteriorIndex:
		if len(raw) < 12 {
			return nil, 0, NewDatabaseError("parse_page_header", ErrInsufficientData, map[string]interface{}{
				"page_size": len(page),
			})
		}
		header.RightMostPointer = binary.BigEndian.Uint32(raw[8:12])
	default:
		return nil, 0, NewDatabaseError("parse_page_header", ErrInvalidPageType, map[string]interface{}{
			"page_type": header.PageType,
		})
	}

	return header, offset + header.headerSize(), nil
}

// cellPointerArray reads the cell pointer array that follows the page
// header. Pointers are big-endian u16 offsets into the page; each must land
// inside the cell content area.
func cellPointerArray(page []byte, header *PageHeader, arrayOffset int) ([]uint16, error) {
	count := int(header.CellCount)
	if arrayOffset+count*2 > len(page) {
		return nil, NewDatabaseError("read_cell_pointers", ErrInsufficientData, map[string]interface{}{
			"cell_count":   count,
			"array_offset": arrayOffset,
		})
	}

	pointers := make([]uint16, count)
	for i := 0; i < count; i++ {
		p := binary.BigEndian.Uint16(page[arrayOffset+i*2 : arrayOffset+i*2+2])
		if uint32(p) < header.CellContentStart || int(p) >= len(page) {
			return nil, NewDatabaseError("parse_cell_pointer", ErrInvalidCellPointer, map[string]interface{}{
				"pointer_index": i,
				"pointer_value": p,
				"page_size":     len(page),
			})
		}
		pointers[i] = p
	}
	return pointers, nil
}

// TableLeafCell is a cell of a table B-tree leaf page: the row payload
// keyed by rowid. Inputs are restricted to payloads that fit in the page;
// a payload that would spill to an overflow page is a format error.
type TableLeafCell struct {
	PayloadSize uint64
	Rowid       uint64
	Payload     []byte
}

// parseTableLeafCell parses a table leaf cell starting at the beginning of
// data (the cell body, typically page[cellOffset:]).
func parseTableLeafCell(data []byte) (*TableLeafCell, error) {
	payloadSize, n, err := readVarint(data)
	if err != nil {
		return nil, NewDatabaseError("parse_table_leaf_cell", err, nil)
	}
	rowid, m, err := readVarint(data[n:])
	if err != nil {
		return nil, NewDatabaseError("parse_table_leaf_cell", err, nil)
	}

	rest := data[n+m:]
	if uint64(len(rest)) < payloadSize {
		return nil, NewDatabaseError("parse_table_leaf_cell", ErrOverflowPayload, map[string]interface{}{
			"payload_size":    payloadSize,
			"bytes_available": len(rest),
		})
	}

	return &TableLeafCell{
		PayloadSize: payloadSize,
		Rowid:       rowid,
		Payload:     rest[:payloadSize],
	}, nil
}

// TableInteriorCell is a cell of a table B-tree interior page. Rowid is the
// inclusive maximum rowid reachable through LeftChildPage.
type TableInteriorCell struct {
	LeftChildPage uint32
	Rowid         uint64
}

// parseTableInteriorCell parses a table interior cell.
func parseTableInteriorCell(data []byte) (*TableInteriorCell, error) {
	if len(data) < 4 {
		return nil, NewDatabaseError("parse_table_interior_cell", ErrInsufficientData, nil)
	}
	leftChild := binary.BigEndian.Uint32(data[:4])
	rowid, _, err := readVarint(data[4:])
	if err != nil {
		return nil, NewDatabaseError("parse_table_interior_cell", err, nil)
	}
	return &TableInteriorCell{LeftChildPage: leftChild, Rowid: rowid}, nil
}

// IndexLeafCell is a cell of an index B-tree leaf page. The payload is a
// record whose last column is the target table's rowid.
type IndexLeafCell struct {
	PayloadSize uint64
	Payload     []byte
}

// parseIndexLeafCell parses an index leaf cell.
func parseIndexLeafCell(data []byte) (*IndexLeafCell, error) {
	payloadSize, n, err := readVarint(data)
	if err != nil {
		return nil, NewDatabaseError("parse_index_leaf_cell", err, nil)
	}
	rest := data[n:]
	if uint64(len(rest)) < payloadSize {
		return nil, NewDatabaseError("parse_index_leaf_cell", ErrOverflowPayload, map[string]interface{}{
			"payload_size":    payloadSize,
			"bytes_available": len(rest),
		})
	}
	return &IndexLeafCell{PayloadSize: payloadSize, Payload: rest[:payloadSize]}, nil
}

// IndexInteriorCell is a cell of an index B-tree interior page. The payload
// is the inclusive maximum key reachable via LeftChildPage.
type IndexInteriorCell struct {
	LeftChildPage uint32
	PayloadSize   uint64
	Payload       []byte
}

// parseIndexInteriorCell parses an index interior cell.
func parseIndexInteriorCell(data []byte) (*IndexInteriorCell, error) {
	if len(data) < 4 {
		return nil, NewDatabaseError("parse_index_interior_cell", ErrInsufficientData, nil)
	}
	leftChild := binary.BigEndian.Uint32(data[:4])
	payloadSize, n, err := readVarint(data[4:])
	if err != nil {
		return nil, NewDatabaseError("parse_index_interior_cell", err, nil)
	}
	rest := data[4+n:]
	if uint64(len(rest)) < payloadSize {
		return nil, NewDatabaseError("parse_index_interior_cell", ErrOverflowPayload, map[string]interface{}{
			"payload_size":    payloadSize,
			"bytes_available": len(rest),
		})
	}
	return &IndexInteriorCell{
		LeftChildPage: leftChild,
		PayloadSize:   payloadSize,
		Payload:       rest[:payloadSize],
	}, nil
}
