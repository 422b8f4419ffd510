// Package descriptor scans an image's volume descriptor sequence starting
// at LSN 16 and decodes the Primary, Supplementary (Joliet), and Boot
// Record descriptors it contains.
package descriptor

import (
	"fmt"
	"strings"

	"github.com/bgrewell/iso9660reader/pkg/charset"
	"github.com/bgrewell/iso9660reader/pkg/consts"
	"github.com/bgrewell/iso9660reader/pkg/directory"
	"github.com/bgrewell/iso9660reader/pkg/logging"
	"github.com/bgrewell/iso9660reader/pkg/sector"
	"github.com/bgrewell/iso9660reader/pkg/tristate"
)

// Header is the common 7-byte prefix every volume descriptor starts with.
type Header struct {
	Type       consts.VolumeDescriptorType
	Identifier string
	Version    uint8
}

func decodeHeader(data []byte) Header {
	return Header{
		Type:       consts.VolumeDescriptorType(data[0]),
		Identifier: string(data[1:6]),
		Version:    data[6],
	}
}

// Primary is a decoded Primary Volume Descriptor (ECMA-119 8.4).
type Primary struct {
	Header
	SystemIdentifier       string
	VolumeIdentifier       string
	VolumeSpaceSize        uint32
	VolumeSetSize          uint16
	VolumeSequenceNumber   uint16
	LogicalBlockSize       uint16
	PathTableSize          uint32
	LPathTableLocation     uint32
	MPathTableLocation     uint32
	RootRecord             *directory.Record
	VolumeSetIdentifier    string
	PublisherIdentifier    string
	DataPreparerIdentifier string
	ApplicationIdentifier  string
	VolumeCreationDate     string
	VolumeModificationDate string
	ApplicationUse         [512]byte
}

// Supplementary is a decoded Supplementary Volume Descriptor: the same
// layout as Primary with an escape-sequence field that, for a Joliet SVD,
// identifies the UCS-2 level in use.
type Supplementary struct {
	Header
	EscapeSequences        [32]byte
	JolietLevel            int // 0 if not Joliet, else 1/2/3
	SystemIdentifier       string
	VolumeIdentifier       string
	VolumeSpaceSize        uint32
	LogicalBlockSize       uint16
	LPathTableLocation     uint32
	MPathTableLocation     uint32
	RootRecord             *directory.Record
	VolumeSetIdentifier    string
	PublisherIdentifier    string
	DataPreparerIdentifier string
	ApplicationIdentifier  string
}

func (s *Supplementary) IsJoliet() bool { return s.JolietLevel > 0 }

// BootRecord is a decoded Boot Record Volume Descriptor (type 0).
type BootRecord struct {
	Header
	BootSystemIdentifier string
	BootIdentifier       string
	CatalogLSN           uint32
	IsElTorito           bool
}

// Set is every volume descriptor recovered from an image's descriptor
// sequence.
type Set struct {
	Primary         *Primary
	Supplementaries []*Supplementary
	BootRecords     []*BootRecord
	HasXA           tristate.Value
	HasMode2        tristate.Value
}

// JolietSupplementary returns the richest Joliet SVD present (highest
// level wins when more than one is found), or nil.
func (s *Set) JolietSupplementary() *Supplementary {
	var best *Supplementary
	for _, svd := range s.Supplementaries {
		if svd.IsJoliet() && (best == nil || svd.JolietLevel > best.JolietLevel) {
			best = svd
		}
	}
	return best
}

// Scan reads the volume descriptor sequence starting at LSN 16, which must
// hold the Primary Volume Descriptor, and classifies each descriptor until
// the Set Terminator (type 255) is reached or a sector after the PVD can no
// longer be read.
func Scan(r sector.Reader, mask consts.ExtensionMask, logger *logging.Logger) (*Set, error) {
	set := &Set{HasXA: tristate.Unknown, HasMode2: tristate.Unknown}

	for lsn := uint32(consts.PVD_LSN); ; lsn++ {
		data, err := r.ReadSectors(lsn, 1)
		if err != nil {
			if lsn > consts.PVD_LSN {
				logger.Debug("descriptor: volume descriptor sequence ends at unreadable sector", "lsn", lsn, "error", err)
				return set, nil
			}
			return nil, fmt.Errorf("descriptor: reading volume descriptor at lsn %d: %w", lsn, err)
		}

		header := decodeHeader(data)
		if header.Identifier != consts.ISO9660_STD_IDENTIFIER {
			return nil, fmt.Errorf("descriptor: invalid standard identifier %q at lsn %d", header.Identifier, lsn)
		}
		if lsn == consts.PVD_LSN && header.Type != consts.VolumeDescriptorPrimary {
			return nil, fmt.Errorf("descriptor: expected a Primary Volume Descriptor at lsn %d, found type %d", lsn, header.Type)
		}

		switch header.Type {
		case consts.VolumeDescriptorPrimary:
			pvd, err := decodePrimary(data, r, logger)
			if err != nil {
				return nil, fmt.Errorf("descriptor: decoding PVD: %w", err)
			}
			set.Primary = pvd
			if set.HasXA == tristate.Unknown {
				set.HasXA = tristate.FromBool(detectXA(data))
			}

		case consts.VolumeDescriptorSupplementary:
			if mask.Has(consts.ExtensionJoliet) {
				svd, err := decodeSupplementary(data, r, logger)
				if err != nil {
					return nil, fmt.Errorf("descriptor: decoding SVD: %w", err)
				}
				set.Supplementaries = append(set.Supplementaries, svd)
			}

		case consts.VolumeDescriptorBootRecord:
			if mask.Has(consts.ExtensionElTorito) {
				br, err := decodeBootRecord(data)
				if err != nil {
					return nil, fmt.Errorf("descriptor: decoding boot record: %w", err)
				}
				set.BootRecords = append(set.BootRecords, br)
			}

		case consts.VolumeDescriptorSetTerminator:
			return set, nil

		default:
			logger.Trace("descriptor: skipping unrecognized descriptor", "type", header.Type, "lsn", lsn)
		}
	}
}

func decodePrimary(data []byte, r sector.Reader, logger *logging.Logger) (*Primary, error) {
	pvd := &Primary{Header: decodeHeader(data)}

	rootData, err := readRootRecordArea(data, r, consts.ISO9660_SECTOR_SIZE)
	if err != nil {
		return nil, err
	}
	root, err := directory.DecodeRecord(rootData, nil, r, false, logger)
	if err != nil {
		return nil, fmt.Errorf("root directory record: %w", err)
	}
	pvd.RootRecord = root

	pvd.SystemIdentifier = trim(data[8:40])
	pvd.VolumeIdentifier = trim(data[40:72])
	pvd.VolumeSpaceSize = bothEndianUint32(data[80:88])
	pvd.VolumeSetSize = bothEndianUint16(data[120:124])
	pvd.VolumeSequenceNumber = bothEndianUint16(data[124:128])
	pvd.LogicalBlockSize = bothEndianUint16(data[128:132])
	pvd.PathTableSize = bothEndianUint32(data[132:140])
	pvd.LPathTableLocation = leUint32(data[140:144])
	pvd.MPathTableLocation = beUint32(data[148:152])
	pvd.VolumeSetIdentifier = trim(data[190:318])
	pvd.PublisherIdentifier = trim(data[318:446])
	pvd.DataPreparerIdentifier = trim(data[446:574])
	pvd.ApplicationIdentifier = trim(data[574:702])
	pvd.VolumeCreationDate = string(data[813:830])
	pvd.VolumeModificationDate = string(data[830:847])
	copy(pvd.ApplicationUse[:], data[883:1395])

	return pvd, nil
}

func decodeSupplementary(data []byte, r sector.Reader, logger *logging.Logger) (*Supplementary, error) {
	svd := &Supplementary{Header: decodeHeader(data)}
	copy(svd.EscapeSequences[:], data[88:120])
	svd.JolietLevel = jolietLevel(svd.EscapeSequences[0:3])

	rootData, err := readRootRecordArea(data, r, consts.ISO9660_SECTOR_SIZE)
	if err != nil {
		return nil, err
	}
	root, err := directory.DecodeRecord(rootData, nil, r, svd.IsJoliet(), logger)
	if err != nil {
		return nil, fmt.Errorf("root directory record: %w", err)
	}
	svd.RootRecord = root

	svd.SystemIdentifier = jolietString(data[8:40], svd.IsJoliet())
	svd.VolumeIdentifier = jolietString(data[40:72], svd.IsJoliet())
	svd.VolumeSpaceSize = bothEndianUint32(data[80:88])
	svd.LogicalBlockSize = bothEndianUint16(data[128:132])
	svd.LPathTableLocation = leUint32(data[140:144])
	svd.MPathTableLocation = beUint32(data[148:152])
	svd.VolumeSetIdentifier = jolietString(data[190:318], svd.IsJoliet())
	svd.PublisherIdentifier = jolietString(data[318:446], svd.IsJoliet())
	svd.DataPreparerIdentifier = jolietString(data[446:574], svd.IsJoliet())
	svd.ApplicationIdentifier = jolietString(data[574:702], svd.IsJoliet())

	return svd, nil
}

// jolietString decodes a volume descriptor string field as UCS-2BE when
// joliet is true (a Joliet SVD mirrors the Primary's byte layout for these
// fields, just in a 16-bit charset), falling back to the plain ASCII trim
// used everywhere else when the decode fails.
func jolietString(b []byte, joliet bool) string {
	if joliet {
		if s, ok := charset.UCS2BEToUTF8(trimOddTrailingJoliet(b)); ok {
			return strings.TrimRight(s, " \x00")
		}
	}
	return trim(b)
}

// trimOddTrailingJoliet drops a single trailing padding byte so an odd-length
// field still decodes as whole UCS-2BE code units.
func trimOddTrailingJoliet(b []byte) []byte {
	if len(b)%2 == 0 {
		return b
	}
	return b[:len(b)-1]
}

func decodeBootRecord(data []byte) (*BootRecord, error) {
	br := &BootRecord{Header: decodeHeader(data)}
	br.BootSystemIdentifier = trim(data[7:39])
	br.BootIdentifier = trim(data[39:71])
	if br.BootSystemIdentifier == consts.EL_TORITO_BOOT_SYSTEM_ID {
		br.IsElTorito = true
		br.CatalogLSN = leUint32(data[71:75])
	}
	return br, nil
}

// readRootRecordArea returns the 34-byte root directory record embedded at
// offset 156 of the volume descriptor payload.
func readRootRecordArea(data []byte, r sector.Reader, _ int) ([]byte, error) {
	if len(data) < 190 {
		return nil, fmt.Errorf("descriptor: volume descriptor too short for root record")
	}
	return data[156:190], nil
}

func jolietLevel(escape []byte) int {
	switch string(escape) {
	case consts.JOLIET_LEVEL_1_ESCAPE:
		return 1
	case consts.JOLIET_LEVEL_2_ESCAPE:
		return 2
	case consts.JOLIET_LEVEL_3_ESCAPE:
		return 3
	default:
		return 0
	}
}

// detectXA reports whether the CD-ROM XA signature is present at its fixed
// offset within the PVD.
func detectXA(data []byte) bool {
	if len(data) < consts.XA_MARKER_OFFSET+len(consts.XA_MARKER_STRING) {
		return false
	}
	return string(data[consts.XA_MARKER_OFFSET:consts.XA_MARKER_OFFSET+len(consts.XA_MARKER_STRING)]) == consts.XA_MARKER_STRING
}

func trim(b []byte) string {
	return strings.TrimRight(string(b), " \x00")
}

func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func beUint32(b []byte) uint32 {
	return uint32(b[3]) | uint32(b[2])<<8 | uint32(b[1])<<16 | uint32(b[0])<<24
}

func bothEndianUint32(b []byte) uint32 {
	return leUint32(b[0:4])
}

func bothEndianUint16(b []byte) uint16 {
	return uint16(b[0]) | uint16(b[1])<<8
}
