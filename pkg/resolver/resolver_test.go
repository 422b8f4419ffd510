package resolver

import (
	"testing"

	"github.com/bgrewell/iso9660reader/pkg/consts"
	"github.com/bgrewell/iso9660reader/pkg/directory"
	"github.com/bgrewell/iso9660reader/pkg/logging"
	"github.com/go-logr/logr"
)

// buildRecord constructs a minimal directory record for name, mirroring
// pkg/directory's own test helper since that one isn't exported.
func buildRecord(name string, extent, dataLength uint32, flags byte) []byte {
	idLen := len(name)
	systemUseStart := 33 + idLen
	if idLen%2 == 0 {
		systemUseStart++
	}
	data := make([]byte, systemUseStart)
	data[0] = byte(systemUseStart)
	data[2] = byte(extent)
	data[10] = byte(dataLength)
	data[11] = byte(dataLength >> 8)
	data[25] = flags
	data[32] = byte(idLen)
	copy(data[33:33+idLen], name)
	return data
}

// fakeImage serves directory extents out of an in-memory map keyed by LSN,
// satisfying the Image interface resolver needs.
type fakeImage struct {
	extents map[uint32][]byte
}

func (f *fakeImage) ReadExtent(extent uint32, length uint32) ([]byte, error) {
	return f.extents[extent], nil
}

func (f *fakeImage) ReadAt(p []byte, off int64) (int, error) {
	return 0, nil
}

func (f *fakeImage) Joliet() bool { return false }

// buildSUSPEntry wire-frames one System Use Entry: a two-byte signature,
// one-byte length, one-byte version, then the payload.
func buildSUSPEntry(sig string, data []byte) []byte {
	entry := make([]byte, 4+len(data))
	copy(entry[0:2], sig)
	entry[2] = byte(len(entry))
	entry[3] = 1
	copy(entry[4:], data)
	return entry
}

// buildRecordWithSUSP is buildRecord plus a System Use area appended after
// the (possibly padded) identifier.
func buildRecordWithSUSP(name string, extent, dataLength uint32, flags byte, susp []byte) []byte {
	rec := buildRecord(name, extent, dataLength, flags)
	rec[0] = byte(len(rec) + len(susp))
	return append(rec, susp...)
}

func buildBlock(records ...[]byte) []byte {
	block := make([]byte, consts.ISO9660_SECTOR_SIZE)
	offset := 0
	for _, r := range records {
		copy(block[offset:], r)
		offset += len(r)
	}
	return block
}

func newTestResolver(t *testing.T) (*Resolver, *fakeImage) {
	t.Helper()
	logger := logging.NewLogger(logr.Discard())

	rootBlock := buildBlock(
		buildRecord("\x00", 10, 2048, 0x02),
		buildRecord("\x01", 10, 2048, 0x02),
		buildRecord("SUBDIR", 20, 2048, 0x02),
		buildRecord("FILE.TXT;1", 30, 512, 0),
	)
	subBlock := buildBlock(
		buildRecord("\x00", 20, 2048, 0x02),
		buildRecord("\x01", 10, 2048, 0x02),
		buildRecord("NESTED.TXT;1", 40, 256, 0),
	)

	img := &fakeImage{extents: map[uint32][]byte{10: rootBlock, 20: subBlock}}
	root := &directory.Entry{
		Record: &directory.Record{
			Extent: 10, DataLength: 2048,
			Flags: &directory.FileFlags{Directory: true},
		},
		StripVersion: true,
	}

	return New(img, root, logger), img
}

func TestResolver_Readdir_SkipsSelfAndParent(t *testing.T) {
	r, _ := newTestResolver(t)
	children, err := r.Readdir(r.root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(children) != 2 {
		t.Fatalf("got %d children, want 2 (SUBDIR, FILE.TXT)", len(children))
	}
	if children[0].Name() != "SUBDIR" || children[1].Name() != "FILE.TXT" {
		t.Errorf("unexpected children: %q, %q", children[0].Name(), children[1].Name())
	}
}

func TestResolver_Stat(t *testing.T) {
	r, _ := newTestResolver(t)
	entry, err := r.Stat("/SUBDIR/NESTED.TXT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Name() != "NESTED.TXT" {
		t.Errorf("Name() = %q, want NESTED.TXT", entry.Name())
	}
}

func TestResolver_StatTranslate_CaseInsensitive(t *testing.T) {
	r, _ := newTestResolver(t)
	entry, err := r.StatTranslate("/subdir/nested.txt;1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Name() != "NESTED.TXT" {
		t.Errorf("Name() = %q, want NESTED.TXT", entry.Name())
	}
}

func TestResolver_Stat_NotFound(t *testing.T) {
	r, _ := newTestResolver(t)
	if _, err := r.Stat("/NOPE.TXT"); err == nil {
		t.Fatal("expected error for a missing path")
	}
}

func TestResolver_FindLSN(t *testing.T) {
	r, _ := newTestResolver(t)
	entry, err := r.FindLSN(40)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry == nil || entry.Name() != "NESTED.TXT" {
		t.Fatalf("expected to find NESTED.TXT, got %+v", entry)
	}
}

func TestResolver_FindLSNPath(t *testing.T) {
	r, _ := newTestResolver(t)
	path, entry, err := r.FindLSNPath(40)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry == nil {
		t.Fatal("expected to find an entry")
	}
	want := []string{"SUBDIR", "NESTED.TXT"}
	if len(path) != len(want) || path[0] != want[0] || path[1] != want[1] {
		t.Errorf("FindLSNPath path = %v, want %v", path, want)
	}
}

func TestResolver_Stat_TranslatedFallbackWhenNoRockRidgeName(t *testing.T) {
	r, _ := newTestResolver(t)
	// FILE.TXT;1 carries no Rock Ridge name: a plain (non-translate) Stat
	// for a differently-cased path should still resolve it, per the
	// translated-name fallback a bare ISO9660 image needs (the exact,
	// non-translated comparison alone would fail on the case mismatch).
	entry, err := r.Stat("/file.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Name() != "FILE.TXT" {
		t.Errorf("Name() = %q, want FILE.TXT", entry.Name())
	}
}

func TestResolver_Stat_NoFallbackWhenRockRidgeNamePresent(t *testing.T) {
	logger := logging.NewLogger(logr.Discard())
	nameEntry := buildSUSPEntry("NM", []byte{0x00, 'r', 'e', 'a', 'l', '.', 't', 'x', 't'})
	rootBlock := buildBlock(
		buildRecord("\x00", 10, 2048, 0x02),
		buildRecord("\x01", 10, 2048, 0x02),
		buildRecordWithSUSP("FILE.TXT;1", 30, 512, 0, nameEntry),
	)
	img := &fakeImage{extents: map[uint32][]byte{10: rootBlock}}
	root := &directory.Entry{
		Record:       &directory.Record{Extent: 10, DataLength: 2048, Flags: &directory.FileFlags{Directory: true}},
		StripVersion: true,
	}
	r := New(img, root, logger)

	// the raw identifier would translate-match "FILE.TXT", but a Rock
	// Ridge name is present, so the plain lookup must not fall back and
	// must instead fail to find a path that targets the raw identifier.
	if _, err := r.Stat("/FILE.TXT"); err == nil {
		t.Fatal("expected no fallback match when the candidate carries a Rock Ridge name")
	}
	entry, err := r.Stat("/real.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Name() != "real.txt" {
		t.Errorf("Name() = %q, want real.txt", entry.Name())
	}
}

func TestResolver_Readdir_SuppressesRelocatedPlaceholder(t *testing.T) {
	logger := logging.NewLogger(logr.Discard())
	reEntry := buildSUSPEntry("RE", nil)
	rootBlock := buildBlock(
		buildRecord("\x00", 10, 2048, 0x02),
		buildRecord("\x01", 10, 2048, 0x02),
		buildRecordWithSUSP("RR_TARGET", 50, 2048, 0x02, reEntry),
		buildRecord("FILE.TXT;1", 30, 512, 0),
	)
	img := &fakeImage{extents: map[uint32][]byte{10: rootBlock}}
	root := &directory.Entry{
		Record:       &directory.Record{Extent: 10, DataLength: 2048, Flags: &directory.FileFlags{Directory: true}},
		StripVersion: true,
	}
	r := New(img, root, logger)

	children, err := r.Readdir(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, c := range children {
		if c.Name() == "RR_TARGET" {
			t.Fatal("expected the relocated placeholder to be suppressed from a normal listing")
		}
	}
}

func TestResolver_FindLSN_DescendsIntoRelocatedSubtree(t *testing.T) {
	logger := logging.NewLogger(logr.Discard())
	reEntry := buildSUSPEntry("RE", nil)
	rootBlock := buildBlock(
		buildRecord("\x00", 10, 2048, 0x02),
		buildRecord("\x01", 10, 2048, 0x02),
		buildRecordWithSUSP("RR_TARGET", 50, 2048, 0x02, reEntry),
	)
	subBlock := buildBlock(
		buildRecord("\x00", 50, 2048, 0x02),
		buildRecord("\x01", 10, 2048, 0x02),
		buildRecord("DEEP.TXT;1", 60, 100, 0),
	)
	img := &fakeImage{extents: map[uint32][]byte{10: rootBlock, 50: subBlock}}
	root := &directory.Entry{
		Record:       &directory.Record{Extent: 10, DataLength: 2048, Flags: &directory.FileFlags{Directory: true}},
		StripVersion: true,
	}
	r := New(img, root, logger)

	entry, err := r.FindLSN(60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry == nil || entry.Name() != "DEEP.TXT" {
		t.Fatalf("expected to find DEEP.TXT through the relocated subtree, got %+v", entry)
	}
}

func TestResolver_FindLSN_NotFound(t *testing.T) {
	r, _ := newTestResolver(t)
	entry, err := r.FindLSN(999)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry != nil {
		t.Errorf("expected nil entry, got %+v", entry)
	}
}
