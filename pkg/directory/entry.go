package directory

import (
	"io/fs"
	"time"
)

// Entry wraps a decoded Record with enough context to answer an fs.FileInfo
// query: its position in the tree (for FullPath) and the Rock Ridge
// permission bits a caller may prefer over the synthesized default mode.
type Entry struct {
	Record       *Record
	Parent       *Entry
	StripVersion bool
}

var _ fs.FileInfo = (*Entry)(nil)

func (e *Entry) Name() string {
	return e.Record.Name(e.StripVersion)
}

func (e *Entry) Size() int64 {
	return int64(e.Record.DataLength)
}

func (e *Entry) IsDir() bool {
	return e.Record.Flags.Directory
}

func (e *Entry) ModTime() time.Time {
	if e.Record.RockRidge != nil && e.Record.RockRidge.Timestamps != nil && e.Record.RockRidge.Timestamps.HasModified {
		return e.Record.RockRidge.Timestamps.Modified
	}
	t, err := e.Record.RecordingTime()
	if err != nil {
		return time.Time{}
	}
	return t
}

func (e *Entry) Mode() fs.FileMode {
	if e.Record.RockRidge != nil && e.Record.RockRidge.Permissions != nil {
		return e.Record.RockRidge.Permissions.Mode
	}
	if e.IsDir() {
		return fs.ModeDir | 0555
	}
	return 0444
}

func (e *Entry) Sys() any {
	return e.Record
}

// FullPath reconstructs the entry's path from the root by walking its
// Parent chain.
func (e *Entry) FullPath() string {
	if e.Parent == nil {
		return "/"
	}
	parent := e.Parent.FullPath()
	if parent == "/" {
		return "/" + e.Name()
	}
	return parent + "/" + e.Name()
}

// IsSymlink reports whether the entry carries a Rock Ridge "SL" symlink
// target.
func (e *Entry) IsSymlink() bool {
	return e.Record.RockRidge != nil && e.Record.RockRidge.IsSymlink
}

// SymlinkTarget returns the Rock Ridge symlink target, or "" if the entry
// is not a symlink.
func (e *Entry) SymlinkTarget() string {
	if !e.IsSymlink() {
		return ""
	}
	return e.Record.RockRidge.SymlinkTarget
}
