package consts

const (
	// Number of system area sectors.
	ISO9660_SYSTEM_AREA_SECTORS = 16

	// Standard ISO9660 identifier.
	ISO9660_STD_IDENTIFIER = "CD001"

	// ISO9660 volume descriptor version (always 1).
	ISO9660_VOLUME_DESC_VERSION = 1

	// ISO9660 default sector size (logical block size).
	ISO9660_SECTOR_SIZE = 2048

	// Raw CD-ROM frame sizes for the fuzzy locator (C3).
	FRAME_SIZE_ISO    = 2048 // plain ISO9660, no raw frame wrapper
	FRAME_SIZE_RAW    = 2352 // sync(12) + header(4) + data(2048) + ECC/EDC(288)
	FRAME_SIZE_M2RAW  = 2336 // subheader(8) + data(2048) + ECC/EDC(280)
	CD_SYNC_SIZE      = 12
	CD_HEADER_SIZE    = 4
	CD_SUBHEADER_SIZE = 8

	// LSN of the Primary Volume Descriptor.
	PVD_LSN = 16

	// ISO9660 volume descriptor header size
	ISO9660_VOLUME_DESC_HEADER_SIZE = 7

	// ISO9660 application use area size
	ISO9660_APPLICATION_USE_SIZE = 512

	// JOLIET level 1, 2, and 3 escape sequences.
	JOLIET_LEVEL_1_ESCAPE = "%/@"
	JOLIET_LEVEL_2_ESCAPE = "%/C"
	JOLIET_LEVEL_3_ESCAPE = "%/E"

	// El Torito bootable cdrom system identifier.
	EL_TORITO_BOOT_SYSTEM_ID = "EL TORITO SPECIFICATION"

	// El Torito virtual sector size and the ratio to a logical block.
	EL_TORITO_VIRTUAL_SECTOR_SIZE = 512
	EL_TORITO_SECTORS_PER_BLOCK   = ISO9660_SECTOR_SIZE / EL_TORITO_VIRTUAL_SECTOR_SIZE

	// Maximum number of boot images tracked from the catalog.
	EL_TORITO_MAX_IMAGES = 8

	// Name used for the synthetic boot namespace directory (C8).
	BOOT_DIRECTORY_NAME = "[BOOT]"

	// XA marker string and its offset within the PVD.
	XA_MARKER_STRING = "CD-XA001"
	XA_MARKER_OFFSET = 1024

	// Record-level XA signature.
	XA_RECORD_SIGNATURE = "XA"

	// a-characters set which are specified in the International Reference Version at the following positions.
	//   | 2/0 - 2/2
	//   | 2/5 - 2/15
	//   | 3/0 - 3/15
	//   | 4/1 - 4/15
	//   | 5/0 - 5/10
	//   | 5/15
	A_CHARACTERS = " !\"%&'()*+,-./0123456789:;<=>?ABCDEFGHIJKLMNOPQRSTUVWXYZ_"

	// d-characters: 37 characters in the following positions of the International Reference Version
	// | 3/0 - 3/9
	// | 4/1 - 5/10
	// | 5/15
	D_CHARACTERS = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ_"

	// Separators allowed by ISO9660 0x2E and 0x3B.
	ISO9660_SEPARATOR_1 = "."
	ISO9660_SEPARATOR_2 = ";"

	// ISO9660 Filler 0x20 (space)
	ISO9660_FILLER = " "
)

// VolumeDescriptorType identifies the type byte of a volume descriptor.
type VolumeDescriptorType byte

const (
	VolumeDescriptorBootRecord    VolumeDescriptorType = 0
	VolumeDescriptorPrimary       VolumeDescriptorType = 1
	VolumeDescriptorSupplementary VolumeDescriptorType = 2
	VolumeDescriptorPartition     VolumeDescriptorType = 3
	VolumeDescriptorSetTerminator VolumeDescriptorType = 255
)

// ExtensionMask selects which ISO9660 extensions the reader is allowed to
// recognize.
type ExtensionMask uint16

const ExtensionNone ExtensionMask = 0

const (
	ExtensionJolietLevel1 ExtensionMask = 1 << iota
	ExtensionJolietLevel2
	ExtensionJolietLevel3
	ExtensionRockRidge
	ExtensionHighSierra
	ExtensionElTorito
)

const (
	ExtensionJoliet = ExtensionJolietLevel1 | ExtensionJolietLevel2 | ExtensionJolietLevel3
	ExtensionAll    = ExtensionJoliet | ExtensionRockRidge | ExtensionElTorito
)

func (m ExtensionMask) Has(bit ExtensionMask) bool {
	return m&bit != 0
}
