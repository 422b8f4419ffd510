// encoding_test.go
package encoding

import (
	"encoding/binary"
	"io"
	"testing"
)

// TestMarshalString verifies that MarshalString properly truncates or pads a string.
func TestMarshalString(t *testing.T) {
	// Case 1: input shorter than pad length → pads with spaces.
	s := "hello"
	result := MarshalString(s, 10)
	expected := "hello     "
	if got := string(result); got != expected {
		t.Errorf("MarshalString(%q, 10) = %q; want %q", s, got, expected)
	}

	// Case 2: input exactly the pad length → no padding.
	s = "12345"
	result = MarshalString(s, 5)
	expected = "12345"
	if got := string(result); got != expected {
		t.Errorf("MarshalString(%q, 5) = %q; want %q", s, got, expected)
	}

	// Case 3: input longer than pad length → truncates.
	s = "Hello, World!"
	result = MarshalString(s, 5)
	expected = "Hello"
	if got := string(result); got != expected {
		t.Errorf("MarshalString(%q, 5) = %q; want %q", s, got, expected)
	}

	// Edge: pad length zero returns an empty byte slice.
	s = "anything"
	result = MarshalString(s, 0)
	if len(result) != 0 {
		t.Errorf("MarshalString(%q, 0) returned non-empty result: %q", s, string(result))
	}
}

// --- UnmarshalInt32LSBMSB & UnmarshalUint32LSBMSB Tests ---

// TestUnmarshalInt32LSBMSB_Positive tests a valid 32-bit integer decoding.
func TestUnmarshalInt32LSBMSB_Positive(t *testing.T) {
	var buf [8]byte
	value := int32(12345678)
	// Create 8 bytes where both representations encode the same value.
	binary.LittleEndian.PutUint32(buf[0:4], uint32(value))
	binary.BigEndian.PutUint32(buf[4:8], uint32(value))

	result, err := UnmarshalInt32LSBMSB(buf[:])
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result != value {
		t.Errorf("Expected %d, got %d", value, result)
	}
}

// TestUnmarshalInt32LSBMSB_Negative tests error conditions for UnmarshalInt32LSBMSB.
func TestUnmarshalInt32LSBMSB_Negative(t *testing.T) {
	// Test with insufficient data.
	data := []byte{0, 1, 2, 3, 4, 5, 6} // Only 7 bytes.
	_, err := UnmarshalInt32LSBMSB(data)
	if err != io.ErrUnexpectedEOF {
		t.Errorf("Expected error %v for insufficient data, got %v", io.ErrUnexpectedEOF, err)
	}

	// Test with mismatched little- and big-endian representations.
	var buf [8]byte
	binary.LittleEndian.PutUint32(buf[0:4], uint32(100))
	binary.BigEndian.PutUint32(buf[4:8], uint32(101))
	_, err = UnmarshalInt32LSBMSB(buf[:])
	if err == nil {
		t.Errorf("Expected error for mismatched values, got nil")
	}
}

// TestUnmarshalUint32LSBMSB_Positive tests the unsigned version.
func TestUnmarshalUint32LSBMSB_Positive(t *testing.T) {
	var buf [8]byte
	value := uint32(98765432)
	binary.LittleEndian.PutUint32(buf[0:4], value)
	binary.BigEndian.PutUint32(buf[4:8], value)

	result, err := UnmarshalUint32LSBMSB(buf[:])
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result != value {
		t.Errorf("Expected %d, got %d", value, result)
	}
}

// TestUnmarshalUint32LSBMSB_Negative verifies error conditions.
func TestUnmarshalUint32LSBMSB_Negative(t *testing.T) {
	// Insufficient data.
	data := []byte{0, 1, 2, 3, 4, 5, 6}
	_, err := UnmarshalUint32LSBMSB(data)
	if err != io.ErrUnexpectedEOF {
		t.Errorf("Expected error %v for insufficient data, got %v", io.ErrUnexpectedEOF, err)
	}

	// Mismatched values.
	var buf [8]byte
	binary.LittleEndian.PutUint32(buf[0:4], uint32(200))
	binary.BigEndian.PutUint32(buf[4:8], uint32(201))
	_, err = UnmarshalUint32LSBMSB(buf[:])
	if err == nil {
		t.Errorf("Expected error for mismatched values, got nil")
	}
}

// --- UnmarshalInt16LSBMSB Tests ---

// TestUnmarshalInt16LSBMSB_Positive tests a valid 16-bit integer decoding.
func TestUnmarshalInt16LSBMSB_Positive(t *testing.T) {
	var buf [4]byte
	value := int16(12345)
	binary.LittleEndian.PutUint16(buf[0:2], uint16(value))
	binary.BigEndian.PutUint16(buf[2:4], uint16(value))

	result, err := UnmarshalInt16LSBMSB(buf[:])
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result != value {
		t.Errorf("Expected %d, got %d", value, result)
	}
}

// TestUnmarshalInt16LSBMSB_Negative tests error conditions for 16-bit decoding.
func TestUnmarshalInt16LSBMSB_Negative(t *testing.T) {
	// Test with insufficient data.
	data := []byte{0, 1, 2} // Only 3 bytes.
	_, err := UnmarshalInt16LSBMSB(data)
	if err != io.ErrUnexpectedEOF {
		t.Errorf("Expected error %v for insufficient data, got %v", io.ErrUnexpectedEOF, err)
	}

	// Test with mismatched little- and big-endian representations.
	var buf [4]byte
	binary.LittleEndian.PutUint16(buf[0:2], uint16(300))
	binary.BigEndian.PutUint16(buf[2:4], uint16(301))
	_, err = UnmarshalInt16LSBMSB(buf[:])
	if err == nil {
		t.Errorf("Expected error for mismatched values, got nil")
	}
}

// --- WriteInt32LSBMSB Tests ---

// TestWriteInt32LSBMSB_Positive verifies that WriteInt32LSBMSB writes correctly.
func TestWriteInt32LSBMSB_Positive(t *testing.T) {
	buf := make([]byte, 8)
	value := int32(54321)
	WriteInt32LSBMSB(buf, value)

	// Now decode the written bytes.
	result, err := UnmarshalInt32LSBMSB(buf)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result != value {
		t.Errorf("Expected %d, got %d", value, result)
	}
}

// TestWriteInt32LSBMSB_Negative verifies that WriteInt32LSBMSB panics when given a too-short slice.
func TestWriteInt32LSBMSB_Negative(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected panic due to insufficient slice length")
		}
	}()
	buf := make([]byte, 7) // Too short for 8 bytes.
	WriteInt32LSBMSB(buf, 123)
}

// --- WriteInt16LSBMSB Tests ---

// TestWriteInt16LSBMSB_Positive verifies correct writing for a 16-bit integer.
func TestWriteInt16LSBMSB_Positive(t *testing.T) {
	buf := make([]byte, 4)
	value := int16(1234)
	WriteInt16LSBMSB(buf, value)

	result, err := UnmarshalInt16LSBMSB(buf)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result != value {
		t.Errorf("Expected %d, got %d", value, result)
	}
}

// TestWriteInt16LSBMSB_Negative verifies that WriteInt16LSBMSB panics when the destination slice is too short.
func TestWriteInt16LSBMSB_Negative(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected panic due to insufficient slice length")
		}
	}()
	buf := make([]byte, 3) // Too short for 4 bytes.
	WriteInt16LSBMSB(buf, 1234)
}
