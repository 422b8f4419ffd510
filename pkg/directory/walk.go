package directory

import (
	"fmt"

	"github.com/bgrewell/iso9660reader/pkg/consts"
	"github.com/bgrewell/iso9660reader/pkg/logging"
)

// WalkBlock decodes every directory record held in a directory's data
// extent (block is the concatenation of every logical sector in that
// extent, already read by the caller). A record never spans a sector
// boundary: if the next record's length byte is zero before the end of a
// 2048-byte sector, the walker skips to the start of the next sector
// rather than treating the zero byte as a corrupt record.
//
// Records whose FileFlags.MultiExtent bit is set are chained: their data
// continues in the following record with the same identifier, and the
// caller-visible listing collapses the chain into a single entry whose
// DataLength is the sum across the chain and whose Extent is the first
// record's. DecodeRecord performs the actual reconciliation (identity and
// contiguity check); when it reports a chain as ill, WalkBlock drops the
// accumulated pending record entirely rather than merging a bogus stat.
func WalkBlock(block []byte, source fileReaderAt, joliet bool, logger *logging.Logger) ([]*Record, error) {
	var out []*Record
	var pending *Record

	offset := 0
	for offset < len(block) {
		sectorEnd := ((offset / consts.ISO9660_SECTOR_SIZE) + 1) * consts.ISO9660_SECTOR_SIZE
		if sectorEnd > len(block) {
			sectorEnd = len(block)
		}

		if block[offset] == 0 {
			offset = sectorEnd
			continue
		}

		recLen := int(block[offset])
		if offset+recLen > sectorEnd {
			return nil, fmt.Errorf("directory: record at offset %d overruns its sector", offset)
		}

		rec, err := DecodeRecord(block[offset:offset+recLen], pending, source, joliet, logger)
		if err != nil {
			return nil, fmt.Errorf("directory: decoding record at offset %d: %w", offset, err)
		}

		switch {
		case pending != nil && rec.multiExtentBroken:
			if logger != nil {
				logger.Warn("directory: dropping ill multi-extent chain",
					"name", pending.RawIdentifier, "extent", pending.Extent, "sameName", rec.multiExtentSameName)
			}
			pending = nil
			if !rec.multiExtentSameName {
				if rec.Flags.MultiExtent {
					pending = rec
				} else {
					out = append(out, rec)
				}
			}
		case pending != nil:
			pending = rec
			if !rec.Flags.MultiExtent {
				out = append(out, pending)
				pending = nil
			}
		case rec.Flags.MultiExtent:
			pending = rec
		default:
			out = append(out, rec)
		}

		offset += recLen
	}

	if pending != nil && logger != nil {
		logger.Warn("directory: dropping unterminated multi-extent chain",
			"name", pending.RawIdentifier, "extent", pending.Extent)
	}

	return out, nil
}

// fileReaderAt is the minimal reader capability WalkBlock's record decoding
// needs (Rock Ridge continuation-area lookups); satisfied by io.ReaderAt.
type fileReaderAt interface {
	ReadAt(p []byte, off int64) (int, error)
}
