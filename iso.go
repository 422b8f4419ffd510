// Package iso9660 opens a read-only ISO9660 image — optionally extended
// with Joliet, Rock Ridge, and El Torito — and exposes its directory tree,
// path lookup, and LSN search through a single Image handle.
package iso9660

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/bgrewell/iso9660reader/pkg/consts"
	"github.com/bgrewell/iso9660reader/pkg/descriptor"
	"github.com/bgrewell/iso9660reader/pkg/directory"
	"github.com/bgrewell/iso9660reader/pkg/eltorito"
	"github.com/bgrewell/iso9660reader/pkg/fuzzy"
	"github.com/bgrewell/iso9660reader/pkg/logging"
	"github.com/bgrewell/iso9660reader/pkg/options"
	"github.com/bgrewell/iso9660reader/pkg/path"
	"github.com/bgrewell/iso9660reader/pkg/resolver"
	"github.com/bgrewell/iso9660reader/pkg/sector"
	"github.com/bgrewell/iso9660reader/pkg/systemarea"
	"github.com/bgrewell/iso9660reader/pkg/tristate"
)

// defaultFuzzRadius is how far OpenFuzzy searches around LSN 16 when the
// caller didn't request a specific radius.
const defaultFuzzRadius = 64

// Image is an opened ISO9660 image.
type Image struct {
	file         *os.File
	options      options.Options
	logger       *logging.Logger
	sectorReader sector.Reader
	systemArea   systemarea.SystemArea

	descriptors   *descriptor.Set
	root          *directory.Entry
	resolver      *resolver.Resolver
	bootCatalog   *eltorito.Catalog
	jolietLevel   int
	parsed        bool
	fuzzyEvidence fuzzy.Evidence
}

var _ resolver.Image = (*Image)(nil)

// Open opens the image at location. Unless options.WithParseOnOpen(false)
// is given, the volume descriptor sequence is decoded immediately and a
// Primary Volume Descriptor is required at LSN 16.
func Open(location string, opts ...options.Option) (*Image, error) {
	o := options.Default()
	for _, opt := range opts {
		opt(&o)
	}

	f, err := os.Open(location)
	if err != nil {
		return nil, fmt.Errorf("iso9660: opening %s: %w", location, err)
	}

	img := &Image{
		file:         f,
		options:      o,
		logger:       logging.NewLogger(o.Logger),
		sectorReader: sector.New(f),
	}

	if o.ParseOnOpen {
		if err := img.Parse(); err != nil {
			f.Close()
			return nil, err
		}
	}
	return img, nil
}

// OpenFuzzy is Open for images whose Primary Volume Descriptor is not at a
// clean LSN-16, frame-size-2048 offset: BIN/CUE dumps, raw CD frame
// captures, and filesystems embedded inside a larger container. It always
// parses on open; when options.WithFuzzRadius was not given (or was given
// 0), the search radius is defaultFuzzRadius.
func OpenFuzzy(location string, opts ...options.Option) (*Image, error) {
	o := options.Default()
	for _, opt := range opts {
		opt(&o)
	}
	if o.FuzzRadius == 0 {
		o.FuzzRadius = defaultFuzzRadius
	}

	f, err := os.Open(location)
	if err != nil {
		return nil, fmt.Errorf("iso9660: opening %s: %w", location, err)
	}

	logger := logging.NewLogger(o.Logger)
	reader, evidence, err := fuzzy.Locate(f, o.FuzzRadius, logger)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("iso9660: fuzzy discovery failed: %w", err)
	}

	img := &Image{
		file:          f,
		options:       o,
		logger:        logger,
		sectorReader:  reader,
		fuzzyEvidence: evidence,
	}
	if err := img.Parse(); err != nil {
		f.Close()
		return nil, err
	}
	return img, nil
}

// Close releases the underlying file handle.
func (img *Image) Close() error {
	return img.file.Close()
}

// Parse decodes the volume descriptor sequence. Open calls this
// automatically unless options.WithParseOnOpen(false) was given.
func (img *Image) Parse() error {
	saBuf := make([]byte, len(img.systemArea))
	if _, err := img.sectorReader.ReadAt(saBuf, 0); err != nil {
		return fmt.Errorf("iso9660: reading system area: %w", err)
	}
	copy(img.systemArea[:], saBuf)

	set, err := descriptor.Scan(img.sectorReader, img.options.ExtensionMask, img.logger)
	if err != nil {
		return fmt.Errorf("iso9660: scanning volume descriptors: %w", err)
	}
	img.descriptors = set

	// A fuzzy-located raw frame image carries Mode-2/XA evidence the PVD
	// adjuster recovered from the frame's sync header while correcting the
	// frame stride. Where the adjuster reached a finding it takes precedence:
	// the descriptor scan never sets HasMode2, and sets HasXA only from the
	// marker bytes inside the PVD payload.
	if img.fuzzyEvidence.XA != tristate.Unknown {
		set.HasXA = img.fuzzyEvidence.XA
	}
	if img.fuzzyEvidence.Mode2 != tristate.Unknown {
		set.HasMode2 = img.fuzzyEvidence.Mode2
	}

	root := set.Primary.RootRecord
	img.jolietLevel = 0
	if img.options.PreferJoliet {
		if svd := set.JolietSupplementary(); svd != nil {
			root = svd.RootRecord
			img.jolietLevel = svd.JolietLevel
		}
	}
	img.root = &directory.Entry{Record: root, Parent: nil, StripVersion: img.options.StripVersionInfo}

	for _, br := range set.BootRecords {
		if !br.IsElTorito {
			continue
		}
		catData, err := img.sectorReader.ReadSectors(br.CatalogLSN, 1)
		if err != nil {
			return fmt.Errorf("iso9660: reading boot catalog: %w", err)
		}
		cat, err := eltorito.ParseCatalog(catData)
		if err != nil {
			img.logger.Warn("iso9660: ignoring unparseable boot catalog", "error", err)
			continue
		}
		img.bootCatalog = cat
		break
	}

	img.resolver = resolver.New(img, img.root, img.logger)
	img.parsed = true
	return nil
}

// Parsed reports whether Parse has run.
func (img *Image) Parsed() bool { return img.parsed }

// ReadExtent satisfies resolver.Image: it reads length bytes (rounded up to
// whole sectors) starting at the logical sector extent.
func (img *Image) ReadExtent(extent uint32, length uint32) ([]byte, error) {
	sectors := int((length + consts.ISO9660_SECTOR_SIZE - 1) / consts.ISO9660_SECTOR_SIZE)
	data, err := img.sectorReader.ReadSectors(extent, sectors)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// ReadFile reads a file entry's full contents, trimmed to its recorded
// data length.
func (img *Image) ReadFile(entry *directory.Entry) ([]byte, error) {
	if entry.IsDir() {
		return nil, fmt.Errorf("iso9660: %q is a directory", entry.FullPath())
	}
	data, err := img.ReadExtent(entry.Record.Extent, entry.Record.DataLength)
	if err != nil {
		return nil, err
	}
	if uint32(len(data)) > entry.Record.DataLength {
		data = data[:entry.Record.DataLength]
	}
	return data, nil
}

// ReadAt satisfies resolver.Image (and io.ReaderAt) over the sector
// reader's logical byte address space.
func (img *Image) ReadAt(p []byte, off int64) (int, error) {
	return img.sectorReader.ReadAt(p, off)
}

// Joliet satisfies resolver.Image: whether the tree currently rooted at
// img.root decodes file identifiers as Joliet UCS-2BE.
func (img *Image) Joliet() bool {
	return img.jolietLevel > 0
}

// RootDirectory returns the root of the directory tree in use (Joliet's if
// options.WithPreferJoliet and a Joliet tree is present, else the Primary
// Volume Descriptor's).
func (img *Image) RootDirectory() *directory.Entry {
	return img.root
}

// Readdir lists dir's children. A nil dir lists the root; the root listing
// also carries the synthetic boot namespace entry when an El Torito
// catalog was found.
func (img *Image) Readdir(dir *directory.Entry) ([]*directory.Entry, error) {
	if dir == nil {
		dir = img.root
	}
	children, err := img.resolver.Readdir(dir)
	if err != nil {
		return nil, err
	}
	if dir.FullPath() == "/" && img.bootCatalog != nil {
		children = append([]*directory.Entry{img.bootNamespaceEntry()}, children...)
	}
	return children, nil
}

// bootNamespaceEntry is the synthetic [BOOT] directory entry listed
// alongside the root's real children when an El Torito catalog is present.
func (img *Image) bootNamespaceEntry() *directory.Entry {
	return &directory.Entry{
		Record: &directory.Record{
			Flags:         &directory.FileFlags{Directory: true},
			RawIdentifier: img.options.BootDirectory,
		},
		Parent: img.root,
	}
}

// Stat resolves path against exact on-disk (or Joliet-decoded) identifiers,
// falling back to a case-insensitive, version-suffix-free match as
// resolver.Resolver.Stat describes.
func (img *Image) Stat(path string) (fs.FileInfo, error) {
	if entry, ok := img.statBootPath(path); ok {
		return entry, nil
	}
	return img.resolver.Stat(path)
}

// StatTranslate resolves path case-insensitively and without requiring a
// ";n" version suffix.
func (img *Image) StatTranslate(path string) (fs.FileInfo, error) {
	if entry, ok := img.statBootPath(path); ok {
		return entry, nil
	}
	return img.resolver.StatTranslate(path)
}

// statBootPath short-circuits lookups rooted at the synthetic boot
// namespace before any real directory walk runs.
func (img *Image) statBootPath(path string) (fs.FileInfo, bool) {
	if img.bootCatalog == nil {
		return nil, false
	}
	trimmed := trimSlashes(path)
	if trimmed == img.options.BootDirectory {
		return img.bootNamespaceEntry(), true
	}
	prefix := img.options.BootDirectory + "/"
	if len(trimmed) <= len(prefix) || trimmed[:len(prefix)] != prefix {
		return nil, false
	}
	want := trimmed[len(prefix):]
	for _, v := range eltorito.VirtualDirectory(img.bootCatalog) {
		if v.Name() == want {
			return v, true
		}
	}
	return nil, true
}

func trimSlashes(s string) string {
	for len(s) > 0 && s[0] == '/' {
		s = s[1:]
	}
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}

// FindLSN returns the directory entry whose data extent begins at lsn.
func (img *Image) FindLSN(lsn uint32) (fs.FileInfo, error) {
	entry, err := img.resolver.FindLSN(lsn)
	if err != nil || entry == nil {
		return nil, err
	}
	return entry, nil
}

// FindLSNPath is FindLSN plus the full path components from the root.
func (img *Image) FindLSNPath(lsn uint32) ([]string, fs.FileInfo, error) {
	path, entry, err := img.resolver.FindLSNPath(lsn)
	if err != nil || entry == nil {
		return nil, nil, err
	}
	return path, entry, nil
}

// HaveRockRidge reports whether any directory record encountered while
// descending from the root carries Rock Ridge evidence. The descent stops
// at the first directory whose own entry already shows evidence, so a
// large tree with Rock Ridge applied uniformly is cheap to confirm.
func (img *Image) HaveRockRidge() bool {
	return img.haveRockRidgeRecurse(img.root, 0)
}

func (img *Image) haveRockRidgeRecurse(dir *directory.Entry, depth int) bool {
	const maxProbeDepth = 4
	if dir.Record.RockRidge != nil && dir.Record.RockRidge.HasRockRidge {
		return true
	}
	if depth >= maxProbeDepth {
		return false
	}
	children, err := img.resolver.Readdir(dir)
	if err != nil {
		return false
	}
	for _, c := range children {
		if c.Record.RockRidge != nil && c.Record.RockRidge.HasRockRidge {
			return true
		}
		if c.IsDir() && img.haveRockRidgeRecurse(c, depth+1) {
			return true
		}
	}
	return false
}

// IsXA reports whether the image carries the CD-ROM XA marker: Yes/No once
// the Primary Volume Descriptor has been scanned, Unknown before Parse.
func (img *Image) IsXA() tristate.Value {
	if img.descriptors == nil {
		return tristate.Unknown
	}
	return img.descriptors.HasXA
}

// IsMode2 reports whether the image's sectors carry CD-ROM XA Mode 2 Form 1
// headers: Yes/No once a fuzzy-located raw frame has been adjusted,
// Unknown for a plain 2048-byte image where the question doesn't apply.
func (img *Image) IsMode2() tristate.Value {
	if img.descriptors == nil {
		return tristate.Unknown
	}
	return img.descriptors.HasMode2
}

// JolietLevel returns the Joliet escape-sequence level in use (1, 2, or 3),
// or 0 if the tree in use is not Joliet.
func (img *Image) JolietLevel() int {
	return img.jolietLevel
}

// HasElTorito reports whether a bootable El Torito catalog was found.
func (img *Image) HasElTorito() bool {
	return img.bootCatalog != nil
}

// notAvailable is returned by the metadata getters when neither the Primary
// nor a Joliet Supplementary Volume Descriptor carries a usable value.
const notAvailable = "not available"

// preferJoliet implements the metadata getters' shared rule: if a Joliet
// tree is in use and its decoded value is non-empty and distinct from the
// primary-namespace form, prefer it; otherwise fall back to the primary
// form; otherwise report the field unavailable.
func (img *Image) preferJoliet(primary string, joliet func(*descriptor.Supplementary) string) string {
	if svd := img.descriptors.JolietSupplementary(); img.Joliet() && svd != nil {
		if v := joliet(svd); v != "" && v != primary {
			return v
		}
	}
	if primary != "" {
		return primary
	}
	return notAvailable
}

// VolumeIdentifier returns the volume identifier: the Joliet-decoded form
// when a Joliet tree is in use and its value differs from the primary
// namespace's, otherwise the Primary Volume Descriptor's form.
func (img *Image) VolumeIdentifier() string {
	return img.preferJoliet(img.descriptors.Primary.VolumeIdentifier, func(s *descriptor.Supplementary) string {
		return s.VolumeIdentifier
	})
}

// SystemIdentifier returns the system identifier, preferring the
// Joliet-decoded form per the same rule as VolumeIdentifier.
func (img *Image) SystemIdentifier() string {
	return img.preferJoliet(img.descriptors.Primary.SystemIdentifier, func(s *descriptor.Supplementary) string {
		return s.SystemIdentifier
	})
}

// PublisherIdentifier returns the publisher identifier, preferring the
// Joliet-decoded form per the same rule as VolumeIdentifier.
func (img *Image) PublisherIdentifier() string {
	return img.preferJoliet(img.descriptors.Primary.PublisherIdentifier, func(s *descriptor.Supplementary) string {
		return s.PublisherIdentifier
	})
}

// ApplicationIdentifier returns the application identifier, preferring the
// Joliet-decoded form per the same rule as VolumeIdentifier.
func (img *Image) ApplicationIdentifier() string {
	return img.preferJoliet(img.descriptors.Primary.ApplicationIdentifier, func(s *descriptor.Supplementary) string {
		return s.ApplicationIdentifier
	})
}

// PreparerID returns the data preparer identifier, preferring the
// Joliet-decoded form per the same rule as VolumeIdentifier.
func (img *Image) PreparerID() string {
	return img.preferJoliet(img.descriptors.Primary.DataPreparerIdentifier, func(s *descriptor.Supplementary) string {
		return s.DataPreparerIdentifier
	})
}

// VolumeSetID returns the volume set identifier, preferring the
// Joliet-decoded form per the same rule as VolumeIdentifier.
func (img *Image) VolumeSetID() string {
	return img.preferJoliet(img.descriptors.Primary.VolumeSetIdentifier, func(s *descriptor.Supplementary) string {
		return s.VolumeSetIdentifier
	})
}

// VolumeSpaceSize returns the image's size in logical blocks.
func (img *Image) VolumeSpaceSize() uint32 {
	return img.descriptors.Primary.VolumeSpaceSize
}

// SystemArea returns the raw bytes preceding LSN 16.
func (img *Image) SystemArea() systemarea.SystemArea {
	return img.systemArea
}

// PathTable decodes the Primary Volume Descriptor's L-Path-Table: a flat
// listing of every directory's location and parent, faster to scan than
// walking the tree when a caller only needs directory locations.
func (img *Image) PathTable() (*path.Table, error) {
	pvd := img.descriptors.Primary
	byteOffset := int64(pvd.LPathTableLocation) * consts.ISO9660_SECTOR_SIZE
	return path.Parse(img.sectorReader, byteOffset, int(pvd.PathTableSize), img.options.Logger)
}

// ExtendedAttribute decodes entry's Extended Attribute Record, or returns
// nil if the record carries none.
func (img *Image) ExtendedAttribute(entry *directory.Entry) (*path.ExtendedAttributeRecord, error) {
	n := entry.Record.ExtendedAttrLength
	if n == 0 {
		return nil, nil
	}
	data, err := img.sectorReader.ReadSectors(entry.Record.Extent-uint32(n), int(n))
	if err != nil {
		return nil, fmt.Errorf("iso9660: reading extended attribute record: %w", err)
	}
	ear := path.NewExtendedAttributeRecord(img.options.Logger)
	if err := ear.Unmarshal(data); err != nil {
		return nil, fmt.Errorf("iso9660: decoding extended attribute record: %w", err)
	}
	return ear, nil
}
