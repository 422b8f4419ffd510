package directory

import "testing"

func TestFileFlags_Set(t *testing.T) {
	var ff FileFlags
	ff.Set(0x02 | 0x80) // directory + multi-extent

	if !ff.Directory {
		t.Error("expected Directory true")
	}
	if !ff.MultiExtent {
		t.Error("expected MultiExtent true")
	}
	if ff.Existence || ff.AssociatedFile || ff.Record || ff.Protection {
		t.Error("expected all other flags false")
	}
}

func TestFileFlags_String(t *testing.T) {
	var ff FileFlags
	ff.Set(0x02)
	s := ff.String()
	if s == "" {
		t.Error("expected non-empty summary")
	}
}
