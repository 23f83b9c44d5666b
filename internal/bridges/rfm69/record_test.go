package rfm69

import (
	"bytes"
	"encoding/hex"
	"errors"
	"math"
	"testing"
)

func TestDecodeRecord_InvalidLength(t *testing.T) {
	for n := 0; n <= 3*RecordSize; n++ {
		if n == RecordSize {
			continue
		}
		_, err := DecodeRecord(make([]byte, n))
		if !errors.Is(err, ErrInvalidLength) {
			t.Errorf("DecodeRecord(%d bytes) error = %v, want ErrInvalidLength", n, err)
		}
	}
}

func TestDecodeRecord_Nil(t *testing.T) {
	if _, err := DecodeRecord(nil); !errors.Is(err, ErrInvalidLength) {
		t.Errorf("DecodeRecord(nil) error = %v, want ErrInvalidLength", err)
	}
}

func TestEncodeRecord_Layout(t *testing.T) {
	got := EncodeRecord(WireRecord{NodeID: 5, SensorID: 2, Counter: 100, FloatA: 1.5, FloatB: 2.5})

	want, _ := hex.DecodeString("0500" + "0200" + "64000000" + "0000c03f" + "00002040")
	if !bytes.Equal(got, want) {
		t.Errorf("EncodeRecord() = % x, want % x", got, want)
	}
}

func TestRecord_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		r    WireRecord
	}{
		{"zero", WireRecord{}},
		{"typical", WireRecord{NodeID: 5, SensorID: 2, Counter: 100, FloatA: 1.5, FloatB: 2.5}},
		{"negative ids", WireRecord{NodeID: -1, SensorID: math.MinInt16, Counter: 1, FloatA: -0.25, FloatB: -1e9}},
		{"max values", WireRecord{NodeID: math.MaxInt16, SensorID: math.MaxInt16, Counter: math.MaxUint32, FloatA: math.MaxFloat32, FloatB: math.SmallestNonzeroFloat32}},
		{"infinities", WireRecord{FloatA: float32(math.Inf(1)), FloatB: float32(math.Inf(-1))}},
		{"nan payload", WireRecord{FloatA: math.Float32frombits(0x7FC00001), FloatB: float32(math.Copysign(0, -1))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := EncodeRecord(tt.r)
			if len(data) != RecordSize {
				t.Fatalf("len(EncodeRecord()) = %d, want %d", len(data), RecordSize)
			}

			got, err := DecodeRecord(data)
			if err != nil {
				t.Fatalf("DecodeRecord() error = %v", err)
			}
			if got.NodeID != tt.r.NodeID || got.SensorID != tt.r.SensorID || got.Counter != tt.r.Counter {
				t.Errorf("DecodeRecord() = %+v, want %+v", got, tt.r)
			}
			// Bitwise, so NaN and -0 count as equal to themselves.
			if math.Float32bits(got.FloatA) != math.Float32bits(tt.r.FloatA) ||
				math.Float32bits(got.FloatB) != math.Float32bits(tt.r.FloatB) {
				t.Errorf("floats = %v/%v, want %v/%v", got.FloatA, got.FloatB, tt.r.FloatA, tt.r.FloatB)
			}
		})
	}
}
