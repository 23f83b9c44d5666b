package rfm69

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// RecordSize is the encoded size of a WireRecord:
// int16 + int16 + uint32 + float32 + float32, little-endian, unpadded.
const RecordSize = 16

// WireRecord is the sensor record exchanged with every radio node.
// The byte layout is a wire contract and must stay bit-stable.
type WireRecord struct {
	NodeID   int16
	SensorID int16
	Counter  uint32
	FloatA   float32
	FloatB   float32
}

// EnrichedRecord is a received WireRecord plus reception metadata.
// None of the extra fields are ever transmitted.
type EnrichedRecord struct {
	WireRecord
	RSSI       int
	SenderID   uint16
	ReceivedAt time.Time
}

// DecodeRecord parses one WireRecord. Any length other than RecordSize
// is rejected without reading the fields.
func DecodeRecord(data []byte) (WireRecord, error) {
	if len(data) != RecordSize {
		return WireRecord{}, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidLength, len(data), RecordSize)
	}

	le := binary.LittleEndian
	return WireRecord{
		NodeID:   int16(le.Uint16(data[0:2])),  // #nosec G115 -- reinterpreting wire bits
		SensorID: int16(le.Uint16(data[2:4])),  // #nosec G115 -- reinterpreting wire bits
		Counter:  le.Uint32(data[4:8]),
		FloatA:   math.Float32frombits(le.Uint32(data[8:12])),
		FloatB:   math.Float32frombits(le.Uint32(data[12:16])),
	}, nil
}

// EncodeRecord returns the RecordSize-byte wire form of r.
func EncodeRecord(r WireRecord) []byte {
	buf := make([]byte, RecordSize)

	le := binary.LittleEndian
	le.PutUint16(buf[0:2], uint16(r.NodeID))   // #nosec G115 -- reinterpreting wire bits
	le.PutUint16(buf[2:4], uint16(r.SensorID)) // #nosec G115 -- reinterpreting wire bits
	le.PutUint32(buf[4:8], r.Counter)
	le.PutUint32(buf[8:12], math.Float32bits(r.FloatA))
	le.PutUint32(buf[12:16], math.Float32bits(r.FloatB))

	return buf
}
