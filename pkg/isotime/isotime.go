// Package isotime decodes the two ISO9660 date-time encodings: the 7-byte
// directory-record format and the 17-byte volume-descriptor format.
package isotime

import (
	"fmt"
	"time"
)

// DecodeDirectoryTime decodes the 7-byte recording date/time found in a
// directory record.
func DecodeDirectoryTime(data []byte) (time.Time, error) {
	if len(data) != 7 {
		return time.Time{}, fmt.Errorf("isotime: invalid directory time length %d", len(data))
	}
	year := int(data[0]) + 1900
	month := time.Month(data[1])
	day := int(data[2])
	hour := int(data[3])
	minute := int(data[4])
	second := int(data[5])
	offset := int8(data[6])

	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("isotime: invalid month %d", month)
	}

	loc := time.FixedZone("ISO9660", int(offset)*15*60)
	return time.Date(year, month, day, hour, minute, second, 0, loc), nil
}

// DecodeVolumeTime decodes the 17-byte volume descriptor date/time field:
// 16 ASCII digits (YYYYMMDDHHMMSScc) followed by a signed GMT offset in
// 15-minute intervals. An all-zero/all-space field ("not specified")
// decodes to the zero time.Time without error.
func DecodeVolumeTime(data []byte) (time.Time, error) {
	if len(data) != 17 {
		return time.Time{}, fmt.Errorf("isotime: invalid volume time length %d", len(data))
	}

	digits := string(data[0:16])
	if isUnspecified(digits) {
		return time.Time{}, nil
	}

	var year, month, day, hour, minute, second, hundredths int
	if _, err := fmt.Sscanf(digits, "%4d%2d%2d%2d%2d%2d%2d",
		&year, &month, &day, &hour, &minute, &second, &hundredths); err != nil {
		return time.Time{}, fmt.Errorf("isotime: malformed volume time %q: %w", digits, err)
	}

	offset := int8(data[16])
	loc := time.FixedZone("ISO9660", int(offset)*15*60)
	nsec := hundredths * 10 * int(time.Millisecond)
	return time.Date(year, time.Month(month), day, hour, minute, second, nsec, loc), nil
}

func isUnspecified(digits string) bool {
	for _, c := range digits {
		if c != '0' && c != ' ' {
			return false
		}
	}
	return true
}
