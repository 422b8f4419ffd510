// Package eltorito decodes the El Torito boot catalog: the validation
// entry, the default/initial entry, and any section headers and their
// entries, and repairs the handful of boot images whose catalog size field
// is known to be unreliable.
package eltorito

import (
	"encoding/binary"
	"fmt"

	"github.com/bgrewell/iso9660reader/pkg/consts"
)

const (
	BootCatalogLSN           = 0x11
	DefaultCatalogName       = "BOOT.CAT"
	DefaultCatalogNameRR     = "boot.catalog"
	virtualSectorsPerBlock   = consts.EL_TORITO_SECTORS_PER_BLOCK
	sizeRepairGapThreshold   = 0x4000 // LSN gap below which a size of 0/1 is trusted as-is
)

// Platform identifies the target booting system for a boot entry.
type Platform uint8

const (
	BIOS Platform = 0x00
	PPC  Platform = 0x01
	Mac  Platform = 0x02
	EFI  Platform = 0xef
)

// Emulation identifies the emulation mode used to boot an entry.
type Emulation uint8

const (
	NoEmulation        Emulation = 0x00
	Floppy12Emulation  Emulation = 0x01
	Floppy144Emulation Emulation = 0x02
	Floppy288Emulation Emulation = 0x03
	HardDiskEmulation  Emulation = 0x04
)

func (e Emulation) String() string {
	switch e {
	case NoEmulation:
		return "no-emulation"
	case Floppy12Emulation:
		return "1.2M-floppy"
	case Floppy144Emulation:
		return "1.44M-floppy"
	case Floppy288Emulation:
		return "2.88M-floppy"
	case HardDiskEmulation:
		return "hard-disk"
	default:
		return "unknown"
	}
}

// PartitionType mirrors the MBR partition type byte carried by a hard-disk
// emulation entry.
type PartitionType byte

const (
	PartitionNone  PartitionType = 0x00
	PartitionFat12 PartitionType = 0x01
	PartitionFat16 PartitionType = 0x06
	PartitionNTFS  PartitionType = 0x07
	PartitionFat32 PartitionType = 0x0b
	PartitionLinux PartitionType = 0x83
	PartitionEFI   PartitionType = 0xef
)

// Catalog is a decoded El Torito boot catalog.
type Catalog struct {
	Platform Platform
	Entries  []*Entry
}

// Entry is one bootable image referenced from the catalog: either the
// default/initial entry or one member of a platform section.
type Entry struct {
	Index         int
	Platform      Platform
	Emulation     Emulation
	LoadSegment   uint16
	PartitionType PartitionType
	SectorCount   uint16       // raw catalog field, in 512-byte virtual sectors; see RepairSize
	Location      uint32       // LSN of the boot image's first logical block
	BootIndicator bool         // 0x88 byte: this entry is actually bootable
}

// Size returns the entry's boot image length in bytes, using the raw
// catalog field.
func (e *Entry) Size() int64 {
	return int64(e.SectorCount) * consts.EL_TORITO_VIRTUAL_SECTOR_SIZE
}

// Name is the synthetic filename this entry is projected under inside the
// boot namespace.
func (e *Entry) Name() string {
	return fmt.Sprintf("%d-boot-%s.img", e.Index+1, e.Emulation)
}

// ParseCatalog decodes a 2048-byte boot catalog sector into a Catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	if len(data) < 32 {
		return nil, fmt.Errorf("eltorito: catalog too short")
	}
	if err := validateEntry(data[:32]); err != nil {
		return nil, fmt.Errorf("eltorito: invalid validation entry: %w", err)
	}

	cat := &Catalog{Platform: Platform(data[1])}

	sectionCount := 0
	index := 0
	for offset := 32; offset+32 <= len(data); offset += 32 {
		record := data[offset : offset+32]

		if record[0] == 0x00 {
			break
		}

		if record[0] == 0x90 || record[0] == 0x91 {
			sectionCount = int(binary.LittleEndian.Uint16(record[2:4]))
			continue
		}

		if len(cat.Entries) == consts.EL_TORITO_MAX_IMAGES {
			break
		}
		entry := parseEntry(record, index)
		cat.Entries = append(cat.Entries, entry)
		index++

		if sectionCount > 0 {
			sectionCount--
		}
	}

	return cat, nil
}

func parseEntry(data []byte, index int) *Entry {
	return &Entry{
		Index:         index,
		BootIndicator: data[0] == 0x88,
		Platform:      Platform(data[1]),
		Emulation:     Emulation(data[2]),
		LoadSegment:   binary.LittleEndian.Uint16(data[4:6]),
		PartitionType: PartitionType(data[4]),
		SectorCount:   binary.LittleEndian.Uint16(data[6:8]),
		Location:      binary.LittleEndian.Uint32(data[8:12]),
	}
}

func validateEntry(data []byte) error {
	if data[0] != 0x01 {
		return fmt.Errorf("unexpected header ID %#x", data[0])
	}
	var checksum uint16
	for i := 0; i < 32; i += 2 {
		checksum += binary.LittleEndian.Uint16(data[i : i+2])
	}
	if checksum != 0 {
		return fmt.Errorf("checksum does not sum to zero")
	}
	if data[0x1E] != 0x55 || data[0x1F] != 0xAA {
		return fmt.Errorf("missing 0x55AA key bytes")
	}
	return nil
}

// RepairSize returns the entry's boot image size in logical (2048-byte)
// sectors, substituting a computed size when the catalog's own field is
// known to be unreliable: a reported size of 0 or 1 virtual sector is
// trusted only when the gap to the next entry's LSN is small; a large gap
// indicates the catalog size field was never filled in, and the true size
// is derived from that gap instead.
func (e *Entry) RepairSize(nextLSN uint32) int {
	if e.SectorCount > 1 {
		return (int(e.SectorCount) + virtualSectorsPerBlock - 1) / virtualSectorsPerBlock
	}
	if nextLSN <= e.Location {
		return int(e.SectorCount)
	}
	gap := nextLSN - e.Location
	if gap < sizeRepairGapThreshold {
		return int(e.SectorCount)
	}
	return int(gap)
}
