// Package fuzzy locates an ISO9660 Primary Volume Descriptor embedded at an
// unknown byte offset inside a raw image — a BIN/CUE dump, a CD image with
// leading sync/header bytes, or a filesystem nested inside a larger
// container — by scanning candidate logical sector numbers and raw frame
// sizes for the "CD001" magic.
package fuzzy

import (
	"bytes"
	"fmt"
	"io"

	"github.com/bgrewell/iso9660reader/pkg/consts"
	"github.com/bgrewell/iso9660reader/pkg/logging"
	"github.com/bgrewell/iso9660reader/pkg/sector"
	"github.com/bgrewell/iso9660reader/pkg/tristate"
)

var frameSizes = []int{consts.FRAME_SIZE_ISO, consts.FRAME_SIZE_RAW, consts.FRAME_SIZE_M2RAW}

// cdSectorSyncPattern is the 12-byte sync pattern every raw CD-ROM sector
// frame starts with: 00 FF*10 00.
var cdSectorSyncPattern = []byte{0x00, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x00}

// Evidence is the Mode-2/XA detail the PVD adjuster recovers while
// re-examining a raw-framed (2352-byte) candidate match. Both fields stay
// Unknown when the winning candidate never went through the raw-frame
// adjustment (a plain 2048-byte image, or one already matched under the
// headerless 2336-byte M2RAW trial).
type Evidence struct {
	Mode2 tristate.Value
	XA    tristate.Value
}

// candidateOffsets returns the LSN probe order around consts.PVD_LSN:
// 16, 17, 15, 18, 14, ... out to radius i_fuzz.
func candidateOffsets(iFuzz int) []int {
	offsets := []int{0}
	for i := 1; i <= iFuzz; i++ {
		offsets = append(offsets, i, -i)
	}
	return offsets
}

// Locate tries every candidate LSN/frame-size combination and returns a
// sector.Reader configured with whichever combination produced a
// validated Primary Volume Descriptor. iFuzz bounds how many sectors on
// either side of LSN 16 are tried. A match under the raw 2352-byte frame
// size is re-examined by the PVD adjuster before being returned: a
// headerless M2RAW (2336-byte) image can spuriously satisfy the 2352-byte
// trial (which runs first), and committing to the wrong stride there would
// corrupt every sector read after the PVD.
func Locate(source io.ReaderAt, iFuzz int, logger *logging.Logger) (sector.Reader, Evidence, error) {
	for _, delta := range candidateOffsets(iFuzz) {
		lsn := consts.PVD_LSN + delta
		if lsn < 0 {
			continue
		}
		for _, frameSize := range frameSizes {
			reader, ok := tryCandidate(source, lsn, frameSize, logger)
			if !ok {
				continue
			}
			adjusted, evidence := adjustFuzzyPVD(source, reader, logger)
			return adjusted, evidence, nil
		}
	}
	return sector.Reader{}, Evidence{}, fmt.Errorf("fuzzy: no CD001 volume descriptor found within %d sectors of LSN %d", iFuzz, consts.PVD_LSN)
}

// adjustFuzzyPVD re-examines a candidate that matched under the raw
// 2352-byte frame size: it reads the sync(12)+header(4)+subheader(8) bytes
// that should immediately precede the PVD payload and checks for the
// standard CD-ROM sector sync pattern at the two offsets a Mode 1 or
// Mode 2 Form 1 frame would place it. If neither is present, there was no
// frame header at all: the 2352-byte match was spurious and the candidate
// is corrected to the headerless 2336-byte M2RAW stride.
func adjustFuzzyPVD(source io.ReaderAt, candidate sector.Reader, logger *logging.Logger) (sector.Reader, Evidence) {
	if candidate.FrameSize != consts.FRAME_SIZE_RAW {
		return candidate, Evidence{}
	}

	probeLen := consts.CD_SYNC_SIZE + consts.CD_HEADER_SIZE + consts.CD_SUBHEADER_SIZE
	pvdByteOffset := int64(consts.PVD_LSN)*int64(candidate.FrameSize) + candidate.FuzzyOffset + candidate.DataStart
	probeOffset := pvdByteOffset - int64(probeLen)

	buf := make([]byte, probeLen)
	if _, err := source.ReadAt(buf, probeOffset); err != nil {
		return candidate, Evidence{}
	}

	switch {
	case bytes.Equal(buf[consts.CD_SUBHEADER_SIZE:consts.CD_SUBHEADER_SIZE+consts.CD_SYNC_SIZE], cdSectorSyncPattern):
		// Sync+header occupy only the last 16 bytes before the data: Mode 1,
		// no subheader, no XA.
		logger.Debug("fuzzy: raw frame carries a Mode 1 sector header")
		return candidate, Evidence{Mode2: tristate.No, XA: tristate.No}

	case bytes.Equal(buf[:consts.CD_SYNC_SIZE], cdSectorSyncPattern):
		// Sync+header+subheader occupy the full probe window: Mode 2 Form 1.
		logger.Debug("fuzzy: raw frame carries a Mode 2 Form 1 sector header")
		return candidate, Evidence{Mode2: tristate.Yes}

	default:
		// No frame header at all: the 2352-byte match was coincidental.
		// The image is really a headerless M2RAW dump; recompute the
		// byte address using that frame size directly.
		adjusted := candidate
		adjusted.FrameSize = consts.FRAME_SIZE_M2RAW
		adjusted.FuzzyOffset = int64(consts.FRAME_SIZE_RAW-consts.FRAME_SIZE_M2RAW)*int64(consts.PVD_LSN) +
			candidate.FuzzyOffset + candidate.DataStart
		adjusted.DataStart = 0
		logger.Debug("fuzzy: raw frame match was spurious, correcting to M2RAW stride",
			"frameSize", adjusted.FrameSize, "fuzzyOffset", adjusted.FuzzyOffset)
		return adjusted, Evidence{}
	}
}

func tryCandidate(source io.ReaderAt, lsn, frameSize int, logger *logging.Logger) (sector.Reader, bool) {
	frame := make([]byte, frameSize)
	frameStart := int64(lsn) * int64(frameSize)
	if _, err := source.ReadAt(frame, frameStart); err != nil {
		return sector.Reader{}, false
	}

	idx := bytes.Index(frame, []byte(consts.ISO9660_STD_IDENTIFIER))
	if idx < 0 {
		return sector.Reader{}, false
	}

	// idx points at the "CD001" bytes, which sit at offset 1 of a
	// 2048-byte volume descriptor payload that begins at offset idx-1 of the
	// frame. The reader adds DataStart to every sector address, so it is
	// taken back out of the fuzzy offset here.
	var dataStart int64
	if frameSize != consts.FRAME_SIZE_ISO {
		dataStart = int64(consts.CD_SYNC_SIZE + consts.CD_HEADER_SIZE)
	}
	fuzzyOffset := int64(idx-1) - dataStart - int64(consts.PVD_LSN-lsn)*int64(frameSize)

	candidate := sector.Reader{
		Source:      source,
		FrameSize:   frameSize,
		DataStart:   dataStart,
		FuzzyOffset: fuzzyOffset,
	}

	payload, err := candidate.ReadSectors(uint32(consts.PVD_LSN), 1)
	if err != nil {
		return sector.Reader{}, false
	}
	if payload[0] != byte(consts.VolumeDescriptorPrimary) {
		return sector.Reader{}, false
	}
	if string(payload[1:6]) != consts.ISO9660_STD_IDENTIFIER {
		return sector.Reader{}, false
	}

	logger.Debug("fuzzy: located PVD", "lsn", lsn, "frameSize", frameSize, "fuzzyOffset", fuzzyOffset)
	return candidate, true
}
