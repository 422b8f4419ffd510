package eltorito

import (
	"io/fs"
	"time"
)

// VirtualEntry projects one catalog Entry as a file inside the synthetic
// boot namespace: it satisfies fs.FileInfo so it can be listed and stat'd
// exactly like a real directory.Entry, but its bytes live at Entry.Location
// rather than behind a directory record.
type VirtualEntry struct {
	*Entry
	sizeInSectors int // resolved via RepairSize against the following entry's LSN
}

var _ fs.FileInfo = (*VirtualEntry)(nil)

func (v *VirtualEntry) Name() string       { return v.Entry.Name() }
func (v *VirtualEntry) IsDir() bool        { return false }
func (v *VirtualEntry) ModTime() time.Time { return time.Time{} }
func (v *VirtualEntry) Mode() fs.FileMode  { return 0444 }
func (v *VirtualEntry) Sys() any           { return v.Entry }

func (v *VirtualEntry) Size() int64 {
	return int64(v.sizeInSectors) * 2048
}

// VirtualDirectory projects every entry in a catalog into the synthetic
// boot namespace, repairing each entry's size against the LSN of the next
// entry in the catalog. The last entry has no following LSN to repair
// against: its raw 512-byte-sector count is only converted to logical
// sectors, rounded up.
func VirtualDirectory(cat *Catalog) []*VirtualEntry {
	out := make([]*VirtualEntry, 0, len(cat.Entries))
	for i, entry := range cat.Entries {
		sectors := (int(entry.SectorCount) + virtualSectorsPerBlock - 1) / virtualSectorsPerBlock
		if i+1 < len(cat.Entries) {
			sectors = entry.RepairSize(cat.Entries[i+1].Location)
		}
		out = append(out, &VirtualEntry{Entry: entry, sizeInSectors: sectors})
	}
	return out
}
