package susp

import (
	"bytes"
	"testing"

	"github.com/bgrewell/iso9660reader/pkg/consts"
	"github.com/bgrewell/iso9660reader/pkg/logging"
	"github.com/go-logr/logr"
)

// buildEntry frames a two-byte signature, length byte, version byte, and
// payload the way SUSP 5.1 requires.
func buildEntry(sig string, version byte, payload []byte) []byte {
	out := []byte{sig[0], sig[1], byte(4 + len(payload)), version}
	return append(out, payload...)
}

func TestParse_SimpleEntries(t *testing.T) {
	data := append(buildEntry("PX", 1, make([]byte, 32)), buildEntry("NM", 1, []byte{0x00, 'a'})...)
	logger := logging.NewLogger(logr.Discard())

	entries, err := Parse(data, nil, logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Type() != EntryType("PX") || entries[1].Type() != EntryType("NM") {
		t.Errorf("unexpected entry types: %v, %v", entries[0].Type(), entries[1].Type())
	}
}

func TestParse_StopsAtNulByte(t *testing.T) {
	data := append(buildEntry("PX", 1, make([]byte, 32)), 0x00, 0x00, 0x00, 0x00)
	logger := logging.NewLogger(logr.Discard())

	entries, err := Parse(data, nil, logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
}

func TestParse_InvalidLength(t *testing.T) {
	data := []byte{'P', 'X', 2, 1} // length 2 is below the minimum of 4
	logger := logging.NewLogger(logr.Discard())
	if _, err := Parse(data, nil, logger); err == nil {
		t.Fatal("expected error for invalid entry length")
	}
}

// continuationSource backs a "CE" entry's target with an in-memory buffer
// addressed as LSN*2048+offset, the same logical byte space sector.Reader
// exposes via its own ReadAt.
type continuationSource struct {
	sector map[uint32][]byte
}

func (c *continuationSource) ReadAt(p []byte, off int64) (int, error) {
	lsn := uint32(off / consts.ISO9660_SECTOR_SIZE)
	sub := int(off % consts.ISO9660_SECTOR_SIZE)
	buf, ok := c.sector[lsn]
	if !ok {
		return 0, bytes.ErrTooLarge
	}
	return copy(p, buf[sub:]), nil
}

func TestParse_FollowsContinuation(t *testing.T) {
	continuationEntries := buildEntry("NM", 1, []byte{0x00, 'x'})
	sectorData := make([]byte, consts.ISO9660_SECTOR_SIZE)
	copy(sectorData, continuationEntries)

	source := &continuationSource{sector: map[uint32][]byte{5: sectorData}}

	ce := make([]byte, 24)
	putBothEndian32(ce[0:8], 5)
	putBothEndian32(ce[8:16], 0)
	putBothEndian32(ce[16:24], uint32(len(continuationEntries)))
	data := buildEntry("CE", 1, ce)

	logger := logging.NewLogger(logr.Discard())
	entries, err := Parse(data, source, logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].Type() != EntryType("NM") {
		t.Fatalf("expected the continuation's NM entry to be spliced in, got %+v", entries)
	}
}

func putBothEndian32(dst []byte, v uint32) {
	dst[0] = byte(v)
	dst[1] = byte(v >> 8)
	dst[2] = byte(v >> 16)
	dst[3] = byte(v >> 24)
	dst[4] = byte(v >> 24)
	dst[5] = byte(v >> 16)
	dst[6] = byte(v >> 8)
	dst[7] = byte(v)
}
