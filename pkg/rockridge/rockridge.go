package rockridge

import (
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/bgrewell/iso9660reader/pkg/encoding"
	"github.com/bgrewell/iso9660reader/pkg/isotime"
)

const (
	Identifier = "RRIP_1991A"
	Version    = 1
)

// Signature identifies a two-byte Rock Ridge System Use Entry tag.
type Signature string

const (
	SigPosixPerms    Signature = "PX" // POSIX file permissions (owner, group, other)
	SigPosixDevice   Signature = "PN" // device numbers for block/character device nodes
	SigSymlink       Signature = "SL" // symbolic link data (path components, flags)
	SigAlternateName Signature = "NM" // alternate name, used for long filenames and case preservation
	SigChildLink     Signature = "CL" // child link, used for directory relocation chains
	SigParentLink    Signature = "PL" // parent link, ties a relocated directory back to its parent
	SigRelocated     Signature = "RE" // marks a directory that has been relocated
	SigTimestamps    Signature = "TF" // creation, modification, access, and attribute timestamps
	SigSparseFile    Signature = "SF" // sparse file information
	SigSignature     Signature = "RR" // legacy extension signature, superseded by SP/ER
)

// NameEntry is a decoded "NM" alternate-name entry.
type NameEntry struct {
	Continue bool // Bit 0: name continues in the next "NM" entry
	Current  bool // Bit 1: refers to the current directory ("." in POSIX)
	Parent   bool // Bit 2: refers to the parent directory (".." in POSIX)
	Name     string
}

// DecodeNameEntry decodes an "NM" entry. data begins at offset 4 of the
// System Use Entry record (the flags byte); length is the full entry
// length taken from offset 2 of the record.
func DecodeNameEntry(length uint8, data []byte) (*NameEntry, error) {
	if len(data) < 1 {
		return nil, fmt.Errorf("rockridge: NM entry too short")
	}
	nameLen := int(length) - 5
	if nameLen < 0 || nameLen+1 > len(data) {
		return nil, fmt.Errorf("rockridge: NM entry length %d inconsistent with payload", length)
	}
	flags := data[0]
	return &NameEntry{
		Continue: flags&0x01 != 0,
		Current:  flags&0x02 != 0,
		Parent:   flags&0x04 != 0,
		Name:     string(data[1 : nameLen+1]),
	}, nil
}

// PosixEntry is a decoded "PX" entry: POSIX mode, link count, uid/gid.
type PosixEntry struct {
	Mode    fs.FileMode
	Links   uint32
	UserID  uint32
	GroupID uint32
}

// DecodePosixEntry decodes a "PX" entry. data begins at offset 4 of the
// System Use Entry record.
func DecodePosixEntry(data []byte) (*PosixEntry, error) {
	if len(data) < 32 {
		return nil, fmt.Errorf("rockridge: PX entry too short")
	}
	modeVal, err := encoding.UnmarshalUint32LSBMSB(data[0:8])
	if err != nil {
		return nil, fmt.Errorf("rockridge: PX mode: %w", err)
	}
	links, err := encoding.UnmarshalUint32LSBMSB(data[8:16])
	if err != nil {
		return nil, fmt.Errorf("rockridge: PX links: %w", err)
	}
	uid, err := encoding.UnmarshalUint32LSBMSB(data[16:24])
	if err != nil {
		return nil, fmt.Errorf("rockridge: PX uid: %w", err)
	}
	gid, err := encoding.UnmarshalUint32LSBMSB(data[24:32])
	if err != nil {
		return nil, fmt.Errorf("rockridge: PX gid: %w", err)
	}
	return &PosixEntry{
		Mode:    parseFileMode(modeVal),
		Links:   links,
		UserID:  uid,
		GroupID: gid,
	}, nil
}

// parseFileMode converts a POSIX mode word into an fs.FileMode.
func parseFileMode(mode uint32) fs.FileMode {
	var fileMode fs.FileMode

	switch mode & 0xF000 {
	case 0xC000:
		fileMode |= fs.ModeSocket
	case 0xA000:
		fileMode |= fs.ModeSymlink
	case 0x6000:
		fileMode |= fs.ModeDevice
	case 0x2000:
		fileMode |= fs.ModeCharDevice
	case 0x4000:
		fileMode |= fs.ModeDir
	case 0x1000:
		fileMode |= fs.ModeNamedPipe
	}

	fileMode |= fs.FileMode(mode & 0777)

	if mode&0x0800 != 0 {
		fileMode |= os.ModeSetuid
	}
	if mode&0x0400 != 0 {
		fileMode |= os.ModeSetgid
	}
	if mode&0x0200 != 0 {
		fileMode |= os.ModeSticky
	}

	return fileMode
}

// SymlinkComponent is one path component of an "SL" entry.
type SymlinkComponent struct {
	Current  bool // Bit 1: "."
	Parent   bool // Bit 2: ".."
	Root     bool // Bit 3: "/"
	Continue bool // Bit 0: component text continues in the next component record
	Text     string
}

// DecodeSymlinkEntry decodes an "SL" entry into its path components.
// entryContinues reports whether the target continues in a following SL
// entry (Bit 0 of the entry-level flags byte at data[0]).
func DecodeSymlinkEntry(data []byte) (components []SymlinkComponent, entryContinues bool, err error) {
	if len(data) < 1 {
		return nil, false, fmt.Errorf("rockridge: SL entry too short")
	}
	entryContinues = data[0]&0x01 != 0
	offset := 1
	for offset < len(data) {
		if offset+2 > len(data) {
			return nil, false, fmt.Errorf("rockridge: truncated SL component")
		}
		cflags := data[offset]
		clen := int(data[offset+1])
		offset += 2
		if offset+clen > len(data) {
			return nil, false, fmt.Errorf("rockridge: SL component overruns entry")
		}
		components = append(components, SymlinkComponent{
			Current:  cflags&0x02 != 0,
			Parent:   cflags&0x04 != 0,
			Root:     cflags&0x08 != 0,
			Continue: cflags&0x01 != 0,
			Text:     string(data[offset : offset+clen]),
		})
		offset += clen
	}
	return components, entryContinues, nil
}

// JoinSymlinkTarget renders a component slice as a POSIX path.
func JoinSymlinkTarget(components []SymlinkComponent) string {
	var out string
	for i, c := range components {
		switch {
		case c.Root:
			out += "/"
			continue
		case c.Current:
			out += "."
		case c.Parent:
			out += ".."
		default:
			out += c.Text
		}
		if i < len(components)-1 && !components[i+1].Root {
			out += "/"
		}
	}
	return out
}

// Timestamps is a decoded "TF" entry. Only the fields whose presence bit is
// set carry a meaningful time; the rest remain the zero time.Time.
type Timestamps struct {
	Created      time.Time
	Modified     time.Time
	Accessed     time.Time
	HasCreated   bool
	HasModified  bool
	HasAccessed  bool
	HasBackup    bool
	HasExpire    bool
	HasEffective bool
	LongForm     bool
}

const (
	tfCreation   = 0x01
	tfModify     = 0x02
	tfAccess     = 0x04
	tfAttributes = 0x08
	tfBackup     = 0x10
	tfExpiration = 0x20
	tfEffective  = 0x40
	tfLongForm   = 0x80
)

// DecodeTimestampEntry decodes a "TF" entry. data begins at offset 4 of the
// System Use Entry record (the flags byte), followed by one timestamp per
// set flag bit in create/modify/access/attributes/backup/expiration/
// effective order, each 7 bytes (directory-record form) unless the
// long-form flag is set, in which case each is the 17-byte volume
// descriptor form.
func DecodeTimestampEntry(data []byte) (*Timestamps, error) {
	if len(data) < 1 {
		return nil, fmt.Errorf("rockridge: TF entry too short")
	}
	flags := data[0]
	t := &Timestamps{
		HasCreated:   flags&tfCreation != 0,
		HasModified:  flags&tfModify != 0,
		HasAccessed:  flags&tfAccess != 0,
		HasBackup:    flags&tfBackup != 0,
		HasExpire:    flags&tfExpiration != 0,
		HasEffective: flags&tfEffective != 0,
		LongForm:     flags&tfLongForm != 0,
	}

	stampLen := 7
	decode := isotime.DecodeDirectoryTime
	if t.LongForm {
		stampLen = 17
		decode = isotime.DecodeVolumeTime
	}

	offset := 1
	next := func() (time.Time, error) {
		if offset+stampLen > len(data) {
			return time.Time{}, fmt.Errorf("rockridge: TF entry truncated")
		}
		ts, err := decode(data[offset : offset+stampLen])
		offset += stampLen
		return ts, err
	}

	var err error
	if flags&tfCreation != 0 {
		if t.Created, err = next(); err != nil {
			return nil, err
		}
	}
	if flags&tfModify != 0 {
		if t.Modified, err = next(); err != nil {
			return nil, err
		}
	}
	if flags&tfAccess != 0 {
		if t.Accessed, err = next(); err != nil {
			return nil, err
		}
	}
	if flags&tfAttributes != 0 {
		if _, err = next(); err != nil {
			return nil, err
		}
	}
	if flags&tfBackup != 0 {
		if _, err = next(); err != nil {
			return nil, err
		}
	}
	if flags&tfExpiration != 0 {
		if _, err = next(); err != nil {
			return nil, err
		}
	}
	if flags&tfEffective != 0 {
		if _, err = next(); err != nil {
			return nil, err
		}
	}

	return t, nil
}
