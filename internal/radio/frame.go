package radio

import (
	"fmt"
)

// Host link framing bytes.
const (
	StartByte = 0x7E
	EndByte   = 0x7F
	EscByte   = 0x7D
	EscXor    = 0x20
)

// Packet size limits. The body is length(1) + type(1) + payload + crc(2).
const (
	MaxPayloadSize = 250
	packetOverhead = 4
	maxBodySize    = MaxPayloadSize + packetOverhead
)

// Packet is one decoded host link packet.
type Packet struct {
	Type    uint8
	Payload []byte
}

// EncodePacket builds a framed, byte-stuffed packet ready for the wire:
//
//	START | stuff(len | type | payload | crc_hi | crc_lo) | END
func EncodePacket(msgType uint8, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadSize {
		return nil, fmt.Errorf("%w: payload too large: %d bytes (max %d)",
			ErrLinkProtocol, len(payload), MaxPayloadSize)
	}

	body := make([]byte, 0, len(payload)+packetOverhead)
	body = append(body, uint8(len(payload)), msgType)
	body = append(body, payload...)

	crc := checksum(body)
	body = append(body, byte(crc>>8), byte(crc&0xFF))

	out := make([]byte, 0, len(body)*2+2)
	out = append(out, StartByte)
	for _, b := range body {
		if b == StartByte || b == EndByte || b == EscByte {
			out = append(out, EscByte, b^EscXor)
		} else {
			out = append(out, b)
		}
	}
	out = append(out, EndByte)

	return out, nil
}

// Decoder reassembles packets from a byte stream.
// Bytes outside a START..END pair are ignored, so a decoder can join a
// stream mid-packet and resynchronise on the next START.
type Decoder struct {
	body       []byte
	inPacket   bool
	escapeNext bool
}

// NewDecoder creates a decoder waiting for a START byte.
func NewDecoder() *Decoder {
	return &Decoder{body: make([]byte, 0, maxBodySize)}
}

// Reset drops any partial packet.
func (d *Decoder) Reset() {
	d.body = d.body[:0]
	d.inPacket = false
	d.escapeNext = false
}

// DecodeByte feeds one byte. It returns a packet when b completes one,
// nil while a packet is in progress, or an error for a corrupt packet.
func (d *Decoder) DecodeByte(b byte) (*Packet, error) {
	switch {
	case b == StartByte:
		d.Reset()
		d.inPacket = true
		return nil, nil
	case !d.inPacket:
		return nil, nil
	case b == EndByte:
		if d.escapeNext {
			d.Reset()
			return nil, fmt.Errorf("%w: END inside escape sequence", ErrLinkProtocol)
		}
		pkt, err := d.finish()
		d.Reset()
		return pkt, err
	case b == EscByte && !d.escapeNext:
		d.escapeNext = true
		return nil, nil
	}

	if d.escapeNext {
		b ^= EscXor
		d.escapeNext = false
	}
	if len(d.body) >= maxBodySize {
		d.Reset()
		return nil, fmt.Errorf("%w: packet exceeds %d bytes", ErrLinkProtocol, maxBodySize)
	}
	d.body = append(d.body, b)
	return nil, nil
}

func (d *Decoder) finish() (*Packet, error) {
	if len(d.body) < packetOverhead {
		return nil, fmt.Errorf("%w: short packet (%d bytes)", ErrLinkProtocol, len(d.body))
	}

	n := int(d.body[0])
	if n != len(d.body)-packetOverhead {
		return nil, fmt.Errorf("%w: length byte %d, body carries %d",
			ErrLinkProtocol, n, len(d.body)-packetOverhead)
	}

	crcAt := len(d.body) - 2
	want := uint16(d.body[crcAt])<<8 | uint16(d.body[crcAt+1])
	if got := checksum(d.body[:crcAt]); got != want {
		return nil, fmt.Errorf("%w: CRC mismatch: expected 0x%04X, got 0x%04X", ErrLinkProtocol, got, want)
	}

	payload := make([]byte, n)
	copy(payload, d.body[2:crcAt])
	return &Packet{Type: d.body[1], Payload: payload}, nil
}
