package main

import (
	"context"
	"fmt"

	"github.com/RoaringBitmap/roaring/roaring64"
)

// Row is a decoded table row: the record's column values keyed by rowid.
type Row struct {
	Rowid  int64
	Values []Value
}

// loadPage reads a page and parses its B-tree header.
func loadPage(ctx context.Context, src PageSource, pageNum int) ([]byte, *PageHeader, int, error) {
	page, err := src.ReadPage(ctx, pageNum)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("read page %d: %w", pageNum, err)
	}
	header, cellsAt, err := parsePageHeader(page, pageNum == 1)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("parse header of page %d: %w", pageNum, err)
	}
	return page, header, cellsAt, nil
}

// pushReversed pushes child pages onto the stack in reverse order so they
// pop in left-to-right order.
func pushReversed(stack []int, children []uint32) []int {
	for i := len(children) - 1; i >= 0; i-- {
		stack = append(stack, int(children[i]))
	}
	return stack
}

// ScanTable walks the table B-tree rooted at rootPage depth-first,
// left-to-right, and returns every row in ascending rowid order.
func ScanTable(ctx context.Context, src PageSource, rootPage int) ([]Row, error) {
	var rows []Row
	stack := []int{rootPage}

	for len(stack) > 0 {
		pageNum := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		page, header, cellsAt, err := loadPage(ctx, src, pageNum)
		if err != nil {
			return nil, err
		}

		switch {
		case header.IsLeafTable():
			pointers, err := cellPointerArray(page, header, cellsAt)
			if err != nil {
				return nil, fmt.Errorf("page %d: %w", pageNum, err)
			}
			for i, pointer := range pointers {
				cell, err := parseTableLeafCell(page[pointer:])
				if err != nil {
					return nil, fmt.Errorf("page %d cell %d: %w", pageNum, i, err)
				}
				values, err := parseRecord(cell.Payload)
				if err != nil {
					return nil, fmt.Errorf("page %d cell %d: %w", pageNum, i, err)
				}
				rows = append(rows, Row{Rowid: int64(cell.Rowid), Values: values})
			}

		case header.IsInteriorTable():
			children, err := tableChildren(page, header, cellsAt, nil)
			if err != nil {
				return nil, fmt.Errorf("page %d: %w", pageNum, err)
			}
			stack = pushReversed(stack, children)

		default:
			return nil, NewDatabaseError("scan_table", ErrInvalidPageType, map[string]interface{}{
				"page_num":  pageNum,
				"page_type": header.PageType,
			})
		}
	}

	return rows, nil
}

// CountRows counts the rows of the table B-tree rooted at rootPage without
// decoding row payloads.
func CountRows(ctx context.Context, src PageSource, rootPage int) (int, error) {
	count := 0
	stack := []int{rootPage}

	for len(stack) > 0 {
		pageNum := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		page, header, cellsAt, err := loadPage(ctx, src, pageNum)
		if err != nil {
			return 0, err
		}

		switch {
		case header.IsLeafTable():
			count += int(header.CellCount)

		case header.IsInteriorTable():
			children, err := tableChildren(page, header, cellsAt, nil)
			if err != nil {
				return 0, fmt.Errorf("page %d: %w", pageNum, err)
			}
			stack = pushReversed(stack, children)

		default:
			return 0, NewDatabaseError("count_rows", ErrInvalidPageType, map[string]interface{}{
				"page_num":  pageNum,
				"page_type": header.PageType,
			})
		}
	}

	return count, nil
}

// tableChildren collects the child pages of a table interior page in key
// order: each cell's left child, then the right-most pointer. When keep is
// non-nil only cells it accepts are included; the right-most child always is.
func tableChildren(page []byte, header *PageHeader, cellsAt int, keep func(*TableInteriorCell) bool) ([]uint32, error) {
	pointers, err := cellPointerArray(page, header, cellsAt)
	if err != nil {
		return nil, err
	}

	children := make([]uint32, 0, len(pointers)+1)
	for i, pointer := range pointers {
		cell, err := parseTableInteriorCell(page[pointer:])
		if err != nil {
			return nil, fmt.Errorf("interior cell %d: %w", i, err)
		}
		if keep == nil || keep(cell) {
			children = append(children, cell.LeftChildPage)
		}
	}
	children = append(children, header.RightMostPointer)
	return children, nil
}

// SearchIndex performs an equality search over the index B-tree rooted at
// rootPage. At interior nodes it descends into every child whose inclusive
// maximum key is >= the target, plus the right-most child; at leaves it
// collects the trailing rowid of every cell whose first payload column
// equals the target. The resulting bitmap is sorted and deduplicated by
// construction.
func SearchIndex(ctx context.Context, src PageSource, rootPage int, target Value) (*roaring64.Bitmap, error) {
	rowids := roaring64.New()
	stack := []int{rootPage}

	for len(stack) > 0 {
		pageNum := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		page, header, cellsAt, err := loadPage(ctx, src, pageNum)
		if err != nil {
			return nil, err
		}

		switch {
		case header.IsLeafIndex():
			pointers, err := cellPointerArray(page, header, cellsAt)
			if err != nil {
				return nil, fmt.Errorf("page %d: %w", pageNum, err)
			}
			for i, pointer := range pointers {
				cell, err := parseIndexLeafCell(page[pointer:])
				if err != nil {
					return nil, fmt.Errorf("page %d cell %d: %w", pageNum, i, err)
				}
				values, err := parseRecord(cell.Payload)
				if err != nil {
					return nil, fmt.Errorf("page %d cell %d: %w", pageNum, i, err)
				}
				if len(values) < 2 {
					return nil, NewDatabaseError("search_index", ErrInvalidRecord, map[string]interface{}{
						"page_num":     pageNum,
						"cell_index":   i,
						"column_count": len(values),
					})
				}
				if compareValues(values[0], target) == 0 {
					rowid := values[len(values)-1]
					if rowid.Kind != KindInt {
						return nil, NewDatabaseError("search_index", ErrInvalidRecord, map[string]interface{}{
							"page_num":   pageNum,
							"cell_index": i,
						})
					}
					rowids.Add(uint64(rowid.Int))
				}
			}

		case header.IsInteriorIndex():
			pointers, err := cellPointerArray(page, header, cellsAt)
			if err != nil {
				return nil, fmt.Errorf("page %d: %w", pageNum, err)
			}
			children := make([]uint32, 0, len(pointers)+1)
			for i, pointer := range pointers {
				cell, err := parseIndexInteriorCell(page[pointer:])
				if err != nil {
					return nil, fmt.Errorf("page %d cell %d: %w", pageNum, i, err)
				}
				values, err := parseRecord(cell.Payload)
				if err != nil {
					return nil, fmt.Errorf("page %d cell %d: %w", pageNum, i, err)
				}
				if len(values) >= 1 && compareValues(target, values[0]) <= 0 {
					children = append(children, cell.LeftChildPage)
				}
			}
			children = append(children, header.RightMostPointer)
			stack = pushReversed(stack, children)

		default:
			return nil, NewDatabaseError("search_index", ErrInvalidPageType, map[string]interface{}{
				"page_num":  pageNum,
				"page_type": header.PageType,
			})
		}
	}

	return rowids, nil
}

// FetchRowsByRowid walks the table B-tree rooted at rootPage and returns
// the rows whose rowid is in the target set, in ascending rowid order.
// Interior subtrees whose inclusive maximum rowid is below the smallest
// target cannot contain a match and are skipped.
func FetchRowsByRowid(ctx context.Context, src PageSource, rootPage int, targets *roaring64.Bitmap) ([]Row, error) {
	if targets == nil || targets.IsEmpty() {
		return nil, nil
	}

	minTarget := targets.Minimum()
	var rows []Row
	stack := []int{rootPage}

	for len(stack) > 0 {
		pageNum := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		page, header, cellsAt, err := loadPage(ctx, src, pageNum)
		if err != nil {
			return nil, err
		}

		switch {
		case header.IsLeafTable():
			pointers, err := cellPointerArray(page, header, cellsAt)
			if err != nil {
				return nil, fmt.Errorf("page %d: %w", pageNum, err)
			}
			for i, pointer := range pointers {
				cell, err := parseTableLeafCell(page[pointer:])
				if err != nil {
					return nil, fmt.Errorf("page %d cell %d: %w", pageNum, i, err)
				}
				if !targets.Contains(cell.Rowid) {
					continue
				}
				values, err := parseRecord(cell.Payload)
				if err != nil {
					return nil, fmt.Errorf("page %d cell %d: %w", pageNum, i, err)
				}
				rows = append(rows, Row{Rowid: int64(cell.Rowid), Values: values})
			}

		case header.IsInteriorTable():
			children, err := tableChildren(page, header, cellsAt, func(cell *TableInteriorCell) bool {
				return cell.Rowid >= minTarget
			})
			if err != nil {
				return nil, fmt.Errorf("page %d: %w", pageNum, err)
			}
			stack = pushReversed(stack, children)

		default:
			return nil, NewDatabaseError("fetch_rows_by_rowid", ErrInvalidPageType, map[string]interface{}{
				"page_num":  pageNum,
				"page_type": header.PageType,
			})
		}
	}

	return rows, nil
}
