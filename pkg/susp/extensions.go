package susp

import (
	"fmt"

	"github.com/bgrewell/iso9660reader/pkg/encoding"
)

// ExtensionRecord is a decoded "ER" entry: the identifier, descriptor, and
// source strings an implementation uses to advertise an extension (Rock
// Ridge's is "RRIP_1991A").
type ExtensionRecord struct {
	Version    int
	Identifier string
	Descriptor string
	Source     string
}

func decodeExtensionRecord(e Entry) (*ExtensionRecord, error) {
	if e.Type() != TypeExtensionRef {
		return nil, fmt.Errorf("susp: expected ER entry, got %s", e.Type())
	}
	if len(e.data) < 4 {
		return nil, fmt.Errorf("susp: ER entry too short")
	}

	identifierLen := int(e.data[0])
	descriptorLen := int(e.data[1])
	sourceLen := int(e.data[2])
	need := 4 + identifierLen + descriptorLen + sourceLen
	if len(e.data) < need {
		return nil, fmt.Errorf("susp: ER entry truncated, need %d bytes, have %d", need, len(e.data))
	}

	pos := 4
	identifier := string(e.data[pos : pos+identifierLen])
	pos += identifierLen
	descriptor := string(e.data[pos : pos+descriptorLen])
	pos += descriptorLen
	source := string(e.data[pos : pos+sourceLen])

	return &ExtensionRecord{
		Version:    int(e.data[3]),
		Identifier: identifier,
		Descriptor: descriptor,
		Source:     source,
	}, nil
}

// ExtensionRecords returns every "ER" entry found in the System Use area.
func (e Entries) ExtensionRecords() ([]*ExtensionRecord, error) {
	var records []*ExtensionRecord
	for _, entry := range e {
		if entry.Type() != TypeExtensionRef {
			continue
		}
		record, err := decodeExtensionRecord(entry)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// continuationRecord is the decoded payload of a "CE" entry (SUSP 5.1): the
// block, offset, and length of a continuation area holding more entries.
type continuationRecord struct {
	blockLocation uint32
	offset        uint32
	lengthOfArea  uint32
}

func decodeContinuation(e Entry) (*continuationRecord, error) {
	if e.Length() != 28 {
		return nil, fmt.Errorf("susp: CE entry length %d, expected 28", e.Length())
	}

	location, err := encoding.UnmarshalUint32LSBMSB(e.data[0:8])
	if err != nil {
		return nil, fmt.Errorf("susp: CE block location: %w", err)
	}
	offset, err := encoding.UnmarshalUint32LSBMSB(e.data[8:16])
	if err != nil {
		return nil, fmt.Errorf("susp: CE offset: %w", err)
	}
	length, err := encoding.UnmarshalUint32LSBMSB(e.data[16:24])
	if err != nil {
		return nil, fmt.Errorf("susp: CE length: %w", err)
	}

	return &continuationRecord{
		blockLocation: location,
		offset:        offset,
		lengthOfArea:  length,
	}, nil
}
