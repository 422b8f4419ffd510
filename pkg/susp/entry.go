// Package susp implements the System Use Sharing Protocol layer that carries
// Rock Ridge (and other) extensions in the System Use area of a directory
// record: entry framing, continuation-area recursion, and the extension
// signature records that advertise which extensions are in play.
package susp

import (
	"fmt"
	"io"

	"github.com/bgrewell/iso9660reader/pkg/consts"
	"github.com/bgrewell/iso9660reader/pkg/logging"
)

// EntryType identifies the two-character SUSP entry signature.
type EntryType string

const (
	TypeContinuation  EntryType = "CE"
	TypePadding       EntryType = "PD"
	TypeSharingProto  EntryType = "SP"
	TypeTerminator    EntryType = "ST"
	TypeExtensionRef  EntryType = "ER"
	TypeExtensionSel  EntryType = "ES"
)

// Entry is one System Use Entry: a two-byte signature, a one-byte length,
// a one-byte version, and a payload. Parse strips the four-byte header and
// keeps only the payload in data.
type Entry struct {
	entryType EntryType
	length    uint8
	data      []byte
}

func (e Entry) Type() EntryType { return e.entryType }
func (e Entry) Length() uint8   { return e.length }
func (e Entry) Data() []byte    { return e.data }

// Entries is a parsed System Use area: every entry in document order, with
// continuation-area ("CE") entries already resolved and spliced in.
type Entries []Entry

// Parse splits a directory record's System Use area into typed entries,
// following "CE" continuation entries into the image via source. A set of
// already-visited continuation blocks guards against a chain that loops
// back on itself.
func Parse(data []byte, source io.ReaderAt, logger *logging.Logger) (Entries, error) {
	return parse(data, make(map[uint32]bool), source, logger)
}

func parse(data []byte, visited map[uint32]bool, source io.ReaderAt, logger *logging.Logger) (Entries, error) {
	var entries Entries

	for offset := 0; offset < len(data); {
		if data[offset] == 0x00 {
			break
		}

		remaining := len(data[offset:])
		if remaining < 4 {
			logger.Trace("susp: short trailing data", "remaining", remaining, "offset", offset)
			break
		}

		entryLen := int(data[offset+2])
		if entryLen < 4 {
			return nil, fmt.Errorf("susp: invalid entry length %d", entryLen)
		}
		if entryLen > remaining {
			return nil, fmt.Errorf("susp: entry length %d exceeds remaining data %d", entryLen, remaining)
		}

		entry := Entry{
			entryType: EntryType(data[offset : offset+2]),
			length:    data[offset+2],
			data:      data[offset+4 : offset+entryLen],
		}

		if entry.Type() == TypeContinuation {
			continued, err := followContinuation(entry, visited, source, logger)
			if err != nil {
				return nil, err
			}
			entries = append(entries, continued...)
		} else {
			entries = append(entries, entry)
		}

		offset += entryLen
	}

	return entries, nil
}

func followContinuation(entry Entry, visited map[uint32]bool, source io.ReaderAt, logger *logging.Logger) (Entries, error) {
	record, err := decodeContinuation(entry)
	if err != nil {
		return nil, fmt.Errorf("susp: decoding CE entry: %w", err)
	}

	if visited[record.blockLocation] {
		return nil, fmt.Errorf("susp: circular continuation reference at block %d", record.blockLocation)
	}
	visited[record.blockLocation] = true

	buffer := make([]byte, record.lengthOfArea)
	ceOffset := int64(record.blockLocation)*consts.ISO9660_SECTOR_SIZE + int64(record.offset)
	if _, err := source.ReadAt(buffer, ceOffset); err != nil {
		return nil, fmt.Errorf("susp: reading continuation area at %d: %w", ceOffset, err)
	}

	logger.Trace("susp: following CE continuation", "block", record.blockLocation, "offset", record.offset, "length", record.lengthOfArea)
	return parse(buffer, visited, source, logger)
}
