// Package path decodes the L-Path-Table (ECMA-119 9.4) and the per-file
// Extended Attribute Record (9.5.3) some images attach to a directory
// record. Neither is required to walk a tree — directory.WalkBlock does
// that directly — but the path table gives a faster flat listing of every
// directory's location and parent, which the facade exposes alongside the
// directory tree.
package path

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/bgrewell/iso9660reader/pkg/logging"
	"github.com/go-logr/logr"
)

// NewPathTableRecord creates a new PathTableRecord with the provided logger.
func NewPathTableRecord(logger logr.Logger) *PathTableRecord {
	return &PathTableRecord{logger: logger}
}

// PathTableRecord represents a record in the path table.
type PathTableRecord struct {
	DirectoryIdentifierLength     byte
	ExtendedAttributeRecordLength byte
	LocationOfExtent              uint32
	ParentDirectoryNumber         uint16
	DirectoryIdentifier           string
	Padding                       []byte
	logger                        logr.Logger
}

// Unmarshal parses one Path Table Record from the given data slice.
func (ptr *PathTableRecord) Unmarshal(data []byte) error {
	if len(data) < 9 {
		return errors.New("invalid data length")
	}

	ptr.DirectoryIdentifierLength = data[0]
	ptr.ExtendedAttributeRecordLength = data[1]
	ptr.LocationOfExtent = binary.LittleEndian.Uint32(data[2:6])
	ptr.ParentDirectoryNumber = binary.LittleEndian.Uint16(data[6:8])

	dirIDEnd := 8 + int(ptr.DirectoryIdentifierLength)
	if dirIDEnd > len(data) {
		return fmt.Errorf("directory identifier out of range: end=%d, data len=%d", dirIDEnd, len(data))
	}
	ptr.DirectoryIdentifier = string(data[8:dirIDEnd])

	ptr.Padding = nil
	if ptr.DirectoryIdentifierLength%2 != 0 {
		ptr.Padding = []byte{0}
	}

	ptr.logger.V(logging.LEVEL_TRACE).Info("PathTableRecord fields",
		"directoryIdentifierLength", ptr.DirectoryIdentifierLength,
		"extendedAttributeRecordLength", ptr.ExtendedAttributeRecordLength,
		"locationOfExtent", ptr.LocationOfExtent,
		"parentDirectoryNumber", ptr.ParentDirectoryNumber,
		"directoryIdentifier", ptr.DirectoryIdentifier,
		"paddingLength", len(ptr.Padding),
	)

	return nil
}

// recordLen returns the byte length of this record once Unmarshal has run:
// the fixed 8-byte header, the identifier, and its padding byte if any.
func (ptr *PathTableRecord) recordLen() int {
	n := 8 + int(ptr.DirectoryIdentifierLength)
	if ptr.DirectoryIdentifierLength%2 != 0 {
		n++
	}
	return n
}

// Table is a fully decoded L-Path-Table: one PathTableRecord per directory
// in the image, in path-table order (parents before children).
type Table struct {
	Records []*PathTableRecord
}

// Parse reads size bytes of an L-Path-Table starting at byteOffset in r and
// decodes every record it holds.
func Parse(r io.ReaderAt, byteOffset int64, size int, logger logr.Logger) (*Table, error) {
	table := &Table{}

	offset := byteOffset
	end := byteOffset + int64(size)
	for offset < end {
		header := make([]byte, 8)
		n, err := r.ReadAt(header, offset)
		if err != nil && n < 8 {
			return nil, fmt.Errorf("path: reading record header at offset %d: %w", offset, err)
		}

		dirLen := header[0]
		recordLen := 8 + int(dirLen)
		if dirLen%2 != 0 {
			recordLen++
		}
		if offset+int64(recordLen) > end {
			return nil, fmt.Errorf("path: record at offset %d would exceed path table size", offset)
		}

		buf := make([]byte, recordLen)
		if n, err := r.ReadAt(buf, offset); err != nil && n < recordLen {
			return nil, fmt.Errorf("path: reading record at offset %d: %w", offset, err)
		}

		record := NewPathTableRecord(logger)
		if err := record.Unmarshal(buf); err != nil {
			return nil, fmt.Errorf("path: unmarshaling record at offset %d: %w", offset, err)
		}
		table.Records = append(table.Records, record)

		offset += int64(record.recordLen())
	}

	return table, nil
}
