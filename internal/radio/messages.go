package radio

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Host link message types.
//
//	0x1x  configuration (host -> transceiver and result)
//	0x2x  transmit
//	0x3x  receive
//	0xEx  errors
const (
	MsgConfigure       = 0x10
	MsgConfigureResult = 0x11
	MsgSend            = 0x20
	MsgSendResult      = 0x21
	MsgSendAck         = 0x22
	MsgReceived        = 0x30
	MsgError           = 0xE0
)

// configureMsg applies Settings to the transceiver.
type configureMsg struct {
	Seq          uint8  `cbor:"1,keyasint"`
	FrequencyMHz int    `cbor:"2,keyasint"`
	NodeID       uint16 `cbor:"3,keyasint"`
	NetworkID    uint8  `cbor:"4,keyasint"`
	Key          []byte `cbor:"5,keyasint,omitempty"`
	HighPower    bool   `cbor:"6,keyasint"`
	Promiscuous  bool   `cbor:"7,keyasint"`
}

// sendMsg asks the transceiver to send with its own retry/ack handshake.
type sendMsg struct {
	Seq    uint8  `cbor:"1,keyasint"`
	Target uint16 `cbor:"2,keyasint"`
	Data   []byte `cbor:"3,keyasint"`
}

// resultMsg answers configureMsg and sendMsg.
type resultMsg struct {
	Seq    uint8  `cbor:"1,keyasint"`
	OK     bool   `cbor:"2,keyasint"`
	Reason string `cbor:"3,keyasint,omitempty"`
}

// sendAckMsg acknowledges the last frame from Target. No result follows.
type sendAckMsg struct {
	Target uint16 `cbor:"1,keyasint"`
}

// receivedMsg carries one over-the-air frame to the host.
type receivedMsg struct {
	Sender       uint16 `cbor:"1,keyasint"`
	Target       uint16 `cbor:"2,keyasint"`
	Data         []byte `cbor:"3,keyasint"`
	RSSI         int    `cbor:"4,keyasint"`
	AckRequested bool   `cbor:"5,keyasint"`
}

// errorMsg reports an asynchronous transceiver fault.
type errorMsg struct {
	Code    int    `cbor:"1,keyasint"`
	Message string `cbor:"2,keyasint"`
}

func newConfigureMsg(seq uint8, s Settings) configureMsg {
	return configureMsg{
		Seq:          seq,
		FrequencyMHz: s.Band.MHz(),
		NodeID:       s.NodeID,
		NetworkID:    s.NetworkID,
		Key:          s.Key,
		HighPower:    s.HighPower,
		Promiscuous:  s.Promiscuous,
	}
}

func (m receivedMsg) frame() RawFrame {
	return RawFrame{
		SenderID:     m.Sender,
		TargetID:     m.Target,
		Data:         m.Data,
		RSSI:         m.RSSI,
		AckRequested: m.AckRequested,
	}
}

// marshalPacket CBOR-encodes v and frames it as msgType.
func marshalPacket(msgType uint8, v any) ([]byte, error) {
	payload, err := cbor.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode CBOR: %w", err)
	}
	return EncodePacket(msgType, payload)
}

// unmarshalPayload decodes a packet payload into v.
func unmarshalPayload(p *Packet, v any) error {
	if err := cbor.Unmarshal(p.Payload, v); err != nil {
		return fmt.Errorf("%w: type 0x%02X: %w", ErrLinkProtocol, p.Type, err)
	}
	return nil
}
