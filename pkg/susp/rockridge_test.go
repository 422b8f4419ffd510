package susp

import "testing"

func TestEntries_Resolve_PosixAndName(t *testing.T) {
	px := make([]byte, 32)
	putBothEndian32(px[0:8], 0100644)
	putBothEndian32(px[8:16], 1)
	putBothEndian32(px[16:24], 0)
	putBothEndian32(px[24:32], 0)

	entries := Entries{
		{entryType: EntryType("PX"), length: 36, data: px},
		{entryType: EntryType("NM"), length: 8, data: []byte{0x00, 'f', 'o', 'o'}},
	}

	info, err := entries.Resolve()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !info.HasRockRidge {
		t.Error("expected HasRockRidge true")
	}
	if info.AlternateName != "foo" {
		t.Errorf("AlternateName = %q, want foo", info.AlternateName)
	}
	if info.Permissions == nil || info.Permissions.Mode.Perm() != 0644 {
		t.Errorf("unexpected Permissions: %+v", info.Permissions)
	}
}

func TestEntries_Resolve_Symlink(t *testing.T) {
	// entry flags, then two components: a bare root ("/") and "usr".
	data := []byte{0x00, 0x08, 0x00, 0x00, 0x03, 'u', 's', 'r'}
	entries := Entries{
		{entryType: EntryType("SL"), length: byte(4 + len(data)), data: data},
	}
	info, err := entries.Resolve()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !info.IsSymlink {
		t.Fatal("expected IsSymlink true")
	}
	if info.SymlinkTarget != "/usr" {
		t.Errorf("SymlinkTarget = %q, want /usr", info.SymlinkTarget)
	}
}

func TestEntries_Resolve_RelocatedAndChildLink(t *testing.T) {
	entries := Entries{
		{entryType: EntryType("RE"), length: 4, data: nil},
		{entryType: EntryType("CL"), length: 12, data: make([]byte, 8)},
	}
	info, err := entries.Resolve()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !info.Relocated || !info.ChildLink {
		t.Errorf("expected Relocated and ChildLink both true, got %+v", info)
	}
}

func TestEntries_Resolve_NoRockRidgeEvidence(t *testing.T) {
	info, err := Entries{}.Resolve()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.HasRockRidge {
		t.Error("expected HasRockRidge false for an empty entry set")
	}
}

func TestEntries_hasSignature(t *testing.T) {
	er := make([]byte, 4+len("RRIP_1991A")+0+0)
	er[0] = byte(len("RRIP_1991A"))
	er[3] = 1 // rockridge.Version
	copy(er[4:], "RRIP_1991A")
	entries := Entries{{entryType: TypeExtensionRef, length: byte(4 + len(er)), data: er}}

	if !entries.hasSignature() {
		t.Error("expected hasSignature true for a matching RRIP_1991A ER entry")
	}
}
