package descriptor

import (
	"bytes"
	"testing"

	"github.com/bgrewell/iso9660reader/pkg/consts"
	"github.com/bgrewell/iso9660reader/pkg/logging"
	"github.com/bgrewell/iso9660reader/pkg/sector"
	"github.com/bgrewell/iso9660reader/pkg/tristate"
	"github.com/go-logr/logr"
)

func TestJolietLevel(t *testing.T) {
	cases := []struct {
		escape []byte
		want   int
	}{
		{[]byte(consts.JOLIET_LEVEL_1_ESCAPE), 1},
		{[]byte(consts.JOLIET_LEVEL_2_ESCAPE), 2},
		{[]byte(consts.JOLIET_LEVEL_3_ESCAPE), 3},
		{[]byte("xxx"), 0},
	}
	for _, c := range cases {
		if got := jolietLevel(c.escape); got != c.want {
			t.Errorf("jolietLevel(%q) = %d, want %d", c.escape, got, c.want)
		}
	}
}

func TestDetectXA(t *testing.T) {
	data := make([]byte, consts.XA_MARKER_OFFSET+len(consts.XA_MARKER_STRING))
	copy(data[consts.XA_MARKER_OFFSET:], consts.XA_MARKER_STRING)
	if !detectXA(data) {
		t.Error("expected detectXA true when the marker is present")
	}
	if detectXA(make([]byte, 32)) {
		t.Error("expected detectXA false for a short/empty buffer")
	}
}

func TestTrim(t *testing.T) {
	if got := trim([]byte("HELLO   \x00\x00")); got != "HELLO" {
		t.Errorf("trim() = %q, want HELLO", got)
	}
}

func TestBothEndianHelpers(t *testing.T) {
	le := []byte{0x34, 0x12, 0x00, 0x00}
	if got := leUint32(le); got != 0x1234 {
		t.Errorf("leUint32() = %#x, want 0x1234", got)
	}
	be := []byte{0x00, 0x00, 0x12, 0x34}
	if got := beUint32(be); got != 0x1234 {
		t.Errorf("beUint32() = %#x, want 0x1234", got)
	}
}

// buildRootRecord returns a minimal 34-byte self-referencing directory
// record, the shape every PVD/SVD embeds at offset 156 of its payload.
func buildRootRecord(extent, dataLength uint32) []byte {
	data := make([]byte, 34)
	data[0] = 34
	data[2] = byte(extent)
	data[10] = byte(dataLength)
	data[11] = byte(dataLength >> 8)
	data[25] = 0x02 // directory
	data[32] = 1    // identifier length
	data[33] = 0x00 // self
	return data
}

func buildPVDSector() []byte {
	data := make([]byte, consts.ISO9660_SECTOR_SIZE)
	data[0] = byte(consts.VolumeDescriptorPrimary)
	copy(data[1:6], consts.ISO9660_STD_IDENTIFIER)
	data[6] = 1
	copy(data[128:132], []byte{0x00, 0x08, 0x08, 0x00}) // both-endian16 logical block size 2048
	copy(data[156:190], buildRootRecord(20, 2048))
	return data
}

func buildTerminatorSector() []byte {
	data := make([]byte, consts.ISO9660_SECTOR_SIZE)
	data[0] = byte(consts.VolumeDescriptorSetTerminator)
	copy(data[1:6], consts.ISO9660_STD_IDENTIFIER)
	data[6] = 1
	return data
}

func TestJolietString_DecodesUCS2BEWhenJoliet(t *testing.T) {
	// "AB" in UCS-2BE, padded with trailing zero bytes the way a fixed
	// field is.
	data := []byte{0x00, 'A', 0x00, 'B', 0x00, 0x00, 0x00, 0x00}
	if got := jolietString(data, true); got != "AB" {
		t.Errorf("jolietString(joliet) = %q, want AB", got)
	}
}

func TestJolietString_FallsBackToASCIIWhenNotJoliet(t *testing.T) {
	data := []byte("HELLO   \x00\x00")
	if got := jolietString(data, false); got != "HELLO" {
		t.Errorf("jolietString(ascii) = %q, want HELLO", got)
	}
}

// buildSVDSector builds a minimal Joliet Level 3 Supplementary Volume
// Descriptor carrying a UCS-2BE volume identifier distinct from a
// PVD's truncated ASCII form.
func buildSVDSector() []byte {
	data := make([]byte, consts.ISO9660_SECTOR_SIZE)
	data[0] = byte(consts.VolumeDescriptorSupplementary)
	copy(data[1:6], consts.ISO9660_STD_IDENTIFIER)
	data[6] = 1
	copy(data[88:91], []byte(consts.JOLIET_LEVEL_3_ESCAPE))
	copy(data[128:132], []byte{0x00, 0x08, 0x08, 0x00})
	copy(data[156:190], buildRootRecord(20, 2048))
	// "MyVol" in UCS-2BE at the volume identifier field.
	name := []byte{0x00, 'M', 0x00, 'y', 0x00, 'V', 0x00, 'o', 0x00, 'l'}
	copy(data[40:72], name)
	return data
}

func TestScan_JolietSupplementaryDecodesUCS2BEIdentifier(t *testing.T) {
	var image bytes.Buffer
	image.Write(make([]byte, consts.PVD_LSN*consts.ISO9660_SECTOR_SIZE))
	image.Write(buildPVDSector())
	image.Write(buildSVDSector())
	image.Write(buildTerminatorSector())

	reader := sector.New(bytes.NewReader(image.Bytes()))
	logger := logging.NewLogger(logr.Discard())

	set, err := Scan(reader, consts.ExtensionAll, logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	svd := set.JolietSupplementary()
	if svd == nil {
		t.Fatal("expected a decoded Joliet Supplementary Volume Descriptor")
	}
	if svd.VolumeIdentifier != "MyVol" {
		t.Errorf("VolumeIdentifier = %q, want MyVol", svd.VolumeIdentifier)
	}
}

func TestScan_PrimaryAndTerminator(t *testing.T) {
	var image bytes.Buffer
	image.Write(make([]byte, consts.PVD_LSN*consts.ISO9660_SECTOR_SIZE)) // system area + reserved
	image.Write(buildPVDSector())
	image.Write(buildTerminatorSector())

	reader := sector.New(bytes.NewReader(image.Bytes()))
	logger := logging.NewLogger(logr.Discard())

	set, err := Scan(reader, consts.ExtensionAll, logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set.Primary == nil {
		t.Fatal("expected a decoded Primary Volume Descriptor")
	}
	if set.Primary.LogicalBlockSize != consts.ISO9660_SECTOR_SIZE {
		t.Errorf("LogicalBlockSize = %d, want %d", set.Primary.LogicalBlockSize, consts.ISO9660_SECTOR_SIZE)
	}
	if set.Primary.RootRecord == nil || !set.Primary.RootRecord.IsSelf() {
		t.Error("expected the root record to decode as the self entry")
	}
	if set.HasXA != tristate.No {
		t.Errorf("HasXA = %v, want No (no XA marker present)", set.HasXA)
	}
}
