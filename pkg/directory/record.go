// Package directory decodes ISO9660 directory records and walks the
// sector-aligned blocks that hold them, applying the Joliet and Rock Ridge
// name/permission overrides a record may carry.
package directory

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/bgrewell/iso9660reader/pkg/charset"
	"github.com/bgrewell/iso9660reader/pkg/consts"
	"github.com/bgrewell/iso9660reader/pkg/isotime"
	"github.com/bgrewell/iso9660reader/pkg/logging"
	"github.com/bgrewell/iso9660reader/pkg/susp"
)

// Record is one decoded directory record: the fixed fields of ECMA-119
// 9.1, plus whatever Rock Ridge evidence its System Use area carried.
type Record struct {
	Length               uint8
	ExtendedAttrLength    uint8
	Extent                uint32
	DataLength            uint32
	RecordedAt            []byte // raw 7-byte recording date/time
	Flags                 *FileFlags
	FileUnitSize          uint8
	InterleaveGapSize     uint8
	VolumeSequenceNumber  uint16
	RawIdentifier         string // identifier exactly as decoded: "\x00" for self, "\x01" for parent
	SystemUse             []byte
	SystemUseEntries      susp.Entries
	RockRidge             *susp.Info
	Joliet                bool

	// multiExtentBroken is set by DecodeRecord when a prev record was
	// supplied but this one fails the contiguity/identity check a valid
	// multi-extent continuation requires; WalkBlock drops the chain
	// instead of merging it. multiExtentSameName distinguishes a gap in
	// the same file's chain (the whole file is unrecoverable, this
	// record included) from an unrelated record that simply follows a
	// chain that never continued (this record stands on its own).
	multiExtentBroken   bool
	multiExtentSameName bool
}

// Name returns the display name for this record: the Rock Ridge alternate
// name when present, otherwise the raw (possibly Joliet-decoded, version-
// stripped) identifier.
func (r *Record) Name(stripVersion bool) string {
	if r.RockRidge != nil && r.RockRidge.AlternateName != "" {
		return r.RockRidge.AlternateName
	}
	name := r.RawIdentifier
	switch name {
	case "\x00":
		return "."
	case "\x01":
		return ".."
	}
	if stripVersion {
		name = stripVersionSuffix(name)
	}
	return name
}

func stripVersionSuffix(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == ';' {
			return name[:i]
		}
	}
	return name
}

// IsSelf reports whether the record is the "." self-reference.
func (r *Record) IsSelf() bool { return r.RawIdentifier == "\x00" }

// IsParent reports whether the record is the ".." parent-reference.
func (r *Record) IsParent() bool { return r.RawIdentifier == "\x01" }

// Suppressed reports whether the record must be hidden from directory
// listings: a Rock Ridge "RE" entry marks a directory that has been
// relocated elsewhere in the tree, and its original location is a
// placeholder that real directory walks must not show.
func (r *Record) Suppressed() bool {
	return r.RockRidge != nil && r.RockRidge.Relocated
}

// DecodeRecord decodes one directory record starting at the beginning of
// data. data must contain at least the fixed 33-byte header; the record's
// own Length field determines how much of data it actually consumes.
// source is consulted only when the record's System Use area carries a
// Rock Ridge "CE" continuation entry.
//
// prev is non-nil iff this record is a candidate continuation of a
// multi-extent chain already in progress. When prev is non-nil and this
// record shares its identifier and its extent immediately follows the
// sectors prev has accumulated so far, the returned Record is prev merged
// with this one (DataLength summed, Extent kept at the chain's start).
// Otherwise the chain is ill: the returned Record describes only this
// record and carries a broken-chain marker so the caller drops prev
// rather than folding it in.
func DecodeRecord(data []byte, prev *Record, source io.ReaderAt, joliet bool, logger *logging.Logger) (*Record, error) {
	if len(data) < 33 {
		return nil, fmt.Errorf("directory: record shorter than fixed header (%d bytes)", len(data))
	}

	r := &Record{Joliet: joliet}
	r.Length = data[0]
	r.ExtendedAttrLength = data[1]
	r.Extent = binary.LittleEndian.Uint32(data[2:6])
	r.DataLength = binary.LittleEndian.Uint32(data[10:14])

	if len(data) < 25 {
		return nil, fmt.Errorf("directory: record too short for recording time")
	}
	r.RecordedAt = append([]byte(nil), data[18:25]...)

	r.Flags = &FileFlags{}
	r.Flags.Set(data[25])
	r.FileUnitSize = data[26]
	r.InterleaveGapSize = data[27]
	r.VolumeSequenceNumber = binary.LittleEndian.Uint16(data[28:30])

	idLen := int(data[32])
	if 33+idLen > len(data) {
		return nil, fmt.Errorf("directory: file identifier extends beyond record")
	}
	rawIdentifier := data[33 : 33+idLen]

	if joliet && idLen != 1 {
		name, ok := charset.UCS2BEToUTF8(trimOddTrailingByte(rawIdentifier))
		if !ok {
			return nil, fmt.Errorf("directory: invalid Joliet identifier")
		}
		r.RawIdentifier = name
	} else {
		r.RawIdentifier = string(rawIdentifier)
	}

	systemUseStart := 33 + idLen
	if idLen%2 == 0 {
		systemUseStart++ // one byte of padding keeps the record even-length
	}

	if systemUseStart < len(data) {
		r.SystemUse = append([]byte(nil), data[systemUseStart:r.Length]...)
		entries, err := susp.Parse(r.SystemUse, source, logger)
		if err != nil {
			return nil, fmt.Errorf("directory: parsing system use area: %w", err)
		}
		r.SystemUseEntries = entries

		info, err := entries.Resolve()
		if err != nil {
			return nil, fmt.Errorf("directory: resolving rock ridge entries: %w", err)
		}
		r.RockRidge = info
	}

	if prev != nil {
		sectors := (prev.DataLength + consts.ISO9660_SECTOR_SIZE - 1) / consts.ISO9660_SECTOR_SIZE
		switch {
		case prev.RawIdentifier == r.RawIdentifier && prev.Extent+sectors == r.Extent:
			r.DataLength += prev.DataLength
			r.Extent = prev.Extent
		case prev.RawIdentifier == r.RawIdentifier:
			r.multiExtentBroken = true
			r.multiExtentSameName = true
		default:
			r.multiExtentBroken = true
		}
	}

	return r, nil
}

// trimOddTrailingByte drops the single padding byte some writers leave on
// an odd-length Joliet identifier so the remaining bytes decode as UCS-2BE.
func trimOddTrailingByte(data []byte) []byte {
	if len(data)%2 == 0 {
		return data
	}
	return data[:len(data)-1]
}

// RecordingTime decodes the record's 7-byte recording date/time.
func (r *Record) RecordingTime() (time.Time, error) {
	return isotime.DecodeDirectoryTime(r.RecordedAt)
}
