// Package sector translates a logical sector number and count into bytes,
// honoring the raw CD frame size, data-start offset, and fuzzy offset that
// the volume-descriptor scanner and fuzzy locator commit during discovery.
package sector

import (
	"errors"
	"fmt"
	"io"

	"github.com/bgrewell/iso9660reader/pkg/consts"
)

// ErrShortRead is returned whenever a sector read yields fewer bytes than
// requested.
var ErrShortRead = errors.New("iso9660: short sector read")

// Reader reads logical sectors out of a block-addressable byte stream. It
// is deliberately a small value type: the fuzzy locator (C3) copies one to
// try candidate frame sizes without disturbing a reader that has already
// been committed to the image.
type Reader struct {
	Source      io.ReaderAt
	FrameSize   int   // 2048, 2336, or 2352
	DataStart   int64 // 0 or 16: raw-frame sync/header/subheader bytes absorbed before the payload
	FuzzyOffset int64 // signed; nonzero only after fuzzy discovery
}

// New returns a Reader configured for a plain, unwrapped 2048-byte-sector
// image: the common case before fuzzy discovery is attempted.
func New(source io.ReaderAt) Reader {
	return Reader{
		Source:    source,
		FrameSize: consts.ISO9660_SECTOR_SIZE,
		DataStart: 0,
	}
}

// byteOffset computes the stream offset of logical sector lsn.
func (r Reader) byteOffset(lsn uint32) int64 {
	return int64(lsn)*int64(r.FrameSize) + r.FuzzyOffset + r.DataStart
}

// ReadSectors reads n logical sectors (2048 bytes of payload each) starting
// at LSN lsn, regardless of the underlying raw frame size. Any short read
// is a failure and propagates as ErrShortRead.
func (r Reader) ReadSectors(lsn uint32, n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	out := make([]byte, n*consts.ISO9660_SECTOR_SIZE)
	for i := 0; i < n; i++ {
		offset := r.byteOffset(lsn + uint32(i))
		buf := out[i*consts.ISO9660_SECTOR_SIZE : (i+1)*consts.ISO9660_SECTOR_SIZE]
		read, err := r.Source.ReadAt(buf, offset)
		if read < len(buf) {
			if err == nil {
				err = io.ErrUnexpectedEOF
			}
			return nil, fmt.Errorf("%w: lsn %d: %v", ErrShortRead, lsn+uint32(i), err)
		}
	}
	return out, nil
}

// ReadAt satisfies io.ReaderAt over the logical byte address space lsn*2048
// + offset: callers that hold a raw LSN and a sub-sector offset (Rock Ridge
// continuation areas, path table records) can address the image without
// knowing its raw frame size or fuzzy offset.
func (r Reader) ReadAt(p []byte, off int64) (int, error) {
	lsn := uint32(off / consts.ISO9660_SECTOR_SIZE)
	sub := int(off % consts.ISO9660_SECTOR_SIZE)
	n := sub + len(p)
	sectors := (n + consts.ISO9660_SECTOR_SIZE - 1) / consts.ISO9660_SECTOR_SIZE
	data, err := r.ReadSectors(lsn, sectors)
	if err != nil {
		return 0, err
	}
	return copy(p, data[sub:]), nil
}

// ReadFrame reads exactly one raw frame (FrameSize bytes, untranslated by
// DataStart) starting at LSN lsn, sync header included.
func (r Reader) ReadFrame(lsn uint32) ([]byte, error) {
	offset := int64(lsn)*int64(r.FrameSize) + r.FuzzyOffset
	buf := make([]byte, r.FrameSize)
	n, err := r.Source.ReadAt(buf, offset)
	if n < len(buf) {
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("%w: frame at lsn %d: %v", ErrShortRead, lsn, err)
	}
	return buf, nil
}
