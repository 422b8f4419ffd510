// Package charset decodes the UCS-2BE filenames used by Joliet supplementary
// volume descriptors into UTF-8.
package charset

import (
	"unicode/utf16"
)

// UCS2BEToUTF8 converts raw big-endian UCS-2 bytes to a UTF-8 string. An odd
// byte length is rejected. The caller is responsible for trimming padding.
func UCS2BEToUTF8(data []byte) (string, bool) {
	if len(data)%2 != 0 {
		return "", false
	}
	units := make([]uint16, len(data)/2)
	for i := range units {
		units[i] = uint16(data[2*i])<<8 | uint16(data[2*i+1])
	}
	return string(utf16.Decode(units)), true
}
