package radio

import (
	"bytes"
	"errors"
	"testing"
)

func TestChecksum_KnownVector(t *testing.T) {
	// CRC-16/CCITT-FALSE check value.
	if got := checksum([]byte("123456789")); got != 0x29B1 {
		t.Errorf("checksum(123456789) = 0x%04X, want 0x29B1", got)
	}
}

func decodeAll(t *testing.T, d *Decoder, wire []byte) []*Packet {
	t.Helper()
	var out []*Packet
	for _, b := range wire {
		pkt, err := d.DecodeByte(b)
		if err != nil {
			t.Fatalf("DecodeByte(0x%02X) error = %v", b, err)
		}
		if pkt != nil {
			out = append(out, pkt)
		}
	}
	return out
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		msgType uint8
		payload []byte
	}{
		{"empty payload", MsgSendAck, nil},
		{"plain bytes", MsgSend, []byte{0x01, 0x02, 0x03}},
		{"needs stuffing", MsgReceived, []byte{StartByte, EndByte, EscByte, 0x00, 0xFF}},
		{"type is a framing byte", StartByte, []byte{0x10}},
		{"max payload", MsgReceived, bytes.Repeat([]byte{0x7D}, MaxPayloadSize)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wire, err := EncodePacket(tt.msgType, tt.payload)
			if err != nil {
				t.Fatalf("EncodePacket() error = %v", err)
			}
			if wire[0] != StartByte || wire[len(wire)-1] != EndByte {
				t.Fatalf("packet not framed: % X", wire)
			}
			for _, b := range wire[1 : len(wire)-1] {
				if b == StartByte || b == EndByte {
					t.Fatalf("unescaped framing byte inside packet: % X", wire)
				}
			}

			pkts := decodeAll(t, NewDecoder(), wire)
			if len(pkts) != 1 {
				t.Fatalf("decoded %d packets, want 1", len(pkts))
			}
			if pkts[0].Type != tt.msgType {
				t.Errorf("Type = 0x%02X, want 0x%02X", pkts[0].Type, tt.msgType)
			}
			if !bytes.Equal(pkts[0].Payload, tt.payload) {
				t.Errorf("Payload = % X, want % X", pkts[0].Payload, tt.payload)
			}
		})
	}
}

func TestEncodePacket_TooLarge(t *testing.T) {
	_, err := EncodePacket(MsgSend, make([]byte, MaxPayloadSize+1))
	if !errors.Is(err, ErrLinkProtocol) {
		t.Errorf("EncodePacket() error = %v, want ErrLinkProtocol", err)
	}
}

func TestDecoder_ResyncAfterGarbage(t *testing.T) {
	a, _ := EncodePacket(MsgSend, []byte{0xAA})
	b, _ := EncodePacket(MsgReceived, []byte{0xBB})

	stream := append([]byte{0x00, 0x13, EndByte, 0x42}, a...)
	// Truncated packet: a new START abandons it.
	stream = append(stream, StartByte, 0x05, 0x20)
	stream = append(stream, b...)

	d := NewDecoder()
	var got []*Packet
	for _, c := range stream {
		pkt, _ := d.DecodeByte(c)
		if pkt != nil {
			got = append(got, pkt)
		}
	}
	if len(got) != 2 {
		t.Fatalf("decoded %d packets, want 2", len(got))
	}
	if got[0].Type != MsgSend || got[1].Type != MsgReceived {
		t.Errorf("types = 0x%02X 0x%02X", got[0].Type, got[1].Type)
	}
}

func TestDecoder_Errors(t *testing.T) {
	good, _ := EncodePacket(MsgSend, []byte{0x01, 0x02})

	badCRC := append([]byte(nil), good...)
	badCRC[len(badCRC)-2] ^= 0x01

	tests := []struct {
		name string
		wire []byte
	}{
		{"crc mismatch", badCRC},
		{"short packet", []byte{StartByte, 0x00, EndByte}},
		{"length mismatch", []byte{StartByte, 0x05, 0x20, 0x00, 0x00, EndByte}},
		{"end after escape", []byte{StartByte, 0x00, EscByte, EndByte}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDecoder()
			var lastErr error
			for _, b := range tt.wire {
				pkt, err := d.DecodeByte(b)
				if pkt != nil {
					t.Fatalf("unexpected packet %+v", pkt)
				}
				if err != nil {
					lastErr = err
				}
			}
			if !errors.Is(lastErr, ErrLinkProtocol) {
				t.Errorf("error = %v, want ErrLinkProtocol", lastErr)
			}
		})
	}
}

func TestDecoder_Overflow(t *testing.T) {
	d := NewDecoder()
	d.DecodeByte(StartByte)

	var err error
	for i := 0; i <= maxBodySize && err == nil; i++ {
		_, err = d.DecodeByte(0x01)
	}
	if !errors.Is(err, ErrLinkProtocol) {
		t.Errorf("error = %v, want ErrLinkProtocol", err)
	}
}
