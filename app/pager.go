package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// sqliteMagic is the 16-byte string at the start of every database file.
var sqliteMagic = []byte("SQLite format 3\x00")

// DatabaseHeader represents the 100-byte database file header
type DatabaseHeader struct {
	MagicNumber     [16]byte
	PageSize        uint16
	FileFormatWrite uint8
	FileFormatRead  uint8
	ReservedBytes   uint8
	MaxPayload      uint8
	MinPayload      uint8
	LeafPayload     uint8
	FileChangeCount uint32
	DatabaseSize    uint32
	FirstFreePage   uint32
	FreePageCount   uint32
	SchemaCookie    uint32
	SchemaFormat    uint32
	DefaultCache    uint32
	LargestBTree    uint32
	TextEncoding    uint32
	UserVersion     uint32
	IncrVacuum      uint32
	AppID           uint32
	Reserved        [20]byte
	VersionValid    uint32
	SQLiteVersion   uint32
}

// IsValidMagicNumber checks the header magic string.
func (h *DatabaseHeader) IsValidMagicNumber() bool {
	return bytes.Equal(h.MagicNumber[:], sqliteMagic)
}

// ActualPageSize returns the page size in bytes, resolving the sentinel
// value 1 to 65536.
func (h *DatabaseHeader) ActualPageSize() int {
	if h.PageSize == 1 {
		return 65536
	}
	return int(h.PageSize)
}

// PageSource provides page-sized random reads over a paged file.
type PageSource interface {
	ReadPage(ctx context.Context, pageNum int) ([]byte, error)
	PageSize() int
}

// Pager opens a database file read-only and exposes page-sized reads.
// Pages are read on demand and not cached.
type Pager struct {
	file           *os.File
	header         *DatabaseHeader
	pageSize       int
	config         *ReaderConfig
	resourceMgr    *ResourceManager
	concurrencySem chan struct{} // Semaphore for limiting concurrency
}

// OpenPager opens a database file and parses its header.
func OpenPager(filePath string, options ...ReaderOption) (*Pager, error) {
	config := DefaultReaderConfig()
	for _, opt := range options {
		opt(config)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open database file: %w", err)
	}

	resourceMgr := NewResourceManager()
	resourceMgr.Add(file)

	p := &Pager{
		file:           file,
		config:         config,
		resourceMgr:    resourceMgr,
		concurrencySem: make(chan struct{}, config.MaxConcurrency),
	}

	if err := p.parseHeader(); err != nil {
		resourceMgr.Close()
		return nil, fmt.Errorf("parse database header: %w", err)
	}

	return p, nil
}

// parseHeader reads and validates the 100-byte database header.
func (p *Pager) parseHeader() error {
	if _, err := p.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("seek to header: %w", err)
	}

	p.header = &DatabaseHeader{}
	if err := binary.Read(p.file, binary.BigEndian, p.header); err != nil {
		return fmt.Errorf("read header: %w", err)
	}

	if p.config.ValidationMode >= ValidationBasic {
		if !p.header.IsValidMagicNumber() {
			return fmt.Errorf("%w: bad magic %q", ErrInvalidDatabase, string(p.header.MagicNumber[:15]))
		}
	}

	p.pageSize = p.header.ActualPageSize()
	if p.pageSize < 512 || p.pageSize > 65536 || (p.pageSize&(p.pageSize-1)) != 0 {
		return fmt.Errorf("%w: invalid page size %d", ErrInvalidDatabase, p.pageSize)
	}

	return nil
}

// ReadPage reads page pageNum (1-based) into a fresh page-sized buffer.
// A short read is fatal.
func (p *Pager) ReadPage(ctx context.Context, pageNum int) ([]byte, error) {
	select {
	case p.concurrencySem <- struct{}{}:
		defer func() { <-p.concurrencySem }()
	case <-ctx.Done():
		return nil, fmt.Errorf("read page cancelled: %w", ctx.Err())
	}

	if pageNum < 1 {
		return nil, NewDatabaseError("read_page", ErrInvalidDatabase, map[string]interface{}{
			"page_num": pageNum,
		})
	}

	offset := int64(pageNum-1) * int64(p.pageSize)
	pageData := make([]byte, p.pageSize)
	n, err := p.file.ReadAt(pageData, offset)
	if err != nil {
		return nil, fmt.Errorf("read page %d at offset %d: %w", pageNum, offset, err)
	}
	if n != p.pageSize {
		return nil, fmt.Errorf("incomplete page read: page %d, expected %d bytes, got %d",
			pageNum, p.pageSize, n)
	}

	return pageData, nil
}

// PageSize returns the database page size.
func (p *Pager) PageSize() int {
	return p.pageSize
}

// Header returns the parsed database header.
func (p *Pager) Header() *DatabaseHeader {
	return p.header
}

// Close closes the database file.
func (p *Pager) Close() error {
	if p.resourceMgr != nil {
		return p.resourceMgr.Close()
	}
	return nil
}
