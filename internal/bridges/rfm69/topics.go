package rfm69

import (
	"fmt"
	"strconv"
	"strings"
)

// Variable indices of the four messages published per record.
const (
	VarCounter = 1
	VarFloatA  = 2
	VarFloatB  = 3
	VarRSSI    = 4
)

// commandFields is the number of comma-separated fields in a command payload.
const commandFields = 4

// ValueKind selects the payload format of a published variable.
type ValueKind int

const (
	// KindInt is a signed integer, zero-padded to four characters ("-045").
	KindInt ValueKind = iota
	// KindUnsigned is a plain decimal ("100").
	KindUnsigned
	// KindFloat is fixed-point with six decimals ("1.500000").
	KindFloat
)

// Message is one MQTT publish produced from a record.
type Message struct {
	Topic   string
	Payload []byte
}

// Command is an MQTT-originated record bound for a radio node.
// Record.NodeID is the destination node.
type Command struct {
	Network uint8
	Record  WireRecord
}

// EncodeTopic builds the compact topic for one variable of one sensor:
// two digits of node, one of sensor, one of variable. Node > 99 or
// sensor/variable > 9 widen the string and can collide; they are not
// corrected.
func EncodeTopic(node, sensor, variable int) string {
	return fmt.Sprintf("%02d%01d%01d", node, sensor, variable)
}

// EncodeValue formats v for kind. Integer kinds expect an integer type,
// KindFloat a float32 or float64.
func EncodeValue(kind ValueKind, v any) string {
	switch kind {
	case KindInt:
		return fmt.Sprintf("%04d", v)
	case KindUnsigned:
		return fmt.Sprintf("%d", v)
	case KindFloat:
		return fmt.Sprintf("%f", v)
	default:
		return fmt.Sprint(v)
	}
}

// JoinTopic prefixes topic with prefix. An empty prefix yields the bare topic.
func JoinTopic(prefix, topic string) string {
	if prefix == "" {
		return topic
	}
	return prefix + "/" + topic
}

// RecordMessages returns the four independent messages for r, in
// variable order: counter, float A, float B, signal strength.
func RecordMessages(prefix string, r EnrichedRecord) []Message {
	node, sensor := int(r.NodeID), int(r.SensorID)

	msg := func(variable int, payload string) Message {
		return Message{
			Topic:   JoinTopic(prefix, EncodeTopic(node, sensor, variable)),
			Payload: []byte(payload),
		}
	}

	return []Message{
		msg(VarCounter, EncodeValue(KindUnsigned, r.Counter)),
		msg(VarFloatA, EncodeValue(KindFloat, r.FloatA)),
		msg(VarFloatB, EncodeValue(KindFloat, r.FloatB)),
		msg(VarRSSI, EncodeValue(KindInt, r.RSSI)),
	}
}

// SubscriptionFilter is the MQTT filter covering every command for network.
func SubscriptionFilter(root string, network uint8) string {
	return fmt.Sprintf("%s/%03d/#", root, network)
}

// ParseCommand decodes an inbound command.
//
// The topic must be exactly <root>/<network>/<node>. A network other than
// the configured one yields ErrWrongNetwork, which callers ignore quietly.
// The payload must be sensorId,counter,floatA,floatB; anything that does
// not split into exactly four parseable fields yields ErrInvalidPayload.
func ParseCommand(root string, network uint8, topic string, payload []byte) (Command, error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[0] != root {
		return Command{}, fmt.Errorf("%w: %q", ErrInvalidTopic, topic)
	}

	netID, err := strconv.ParseUint(parts[1], 10, 8)
	if err != nil {
		return Command{}, fmt.Errorf("%w: network %q: %w", ErrInvalidTopic, parts[1], err)
	}
	if uint8(netID) != network {
		return Command{}, fmt.Errorf("%w: %d (configured %d)", ErrWrongNetwork, netID, network)
	}

	// Radio addresses are 8-bit.
	node, err := strconv.ParseUint(parts[2], 10, 8)
	if err != nil {
		return Command{}, fmt.Errorf("%w: node %q", ErrInvalidTopic, parts[2])
	}

	rec, err := parseCommandPayload(string(payload))
	if err != nil {
		return Command{}, err
	}
	rec.NodeID = int16(node) // #nosec G115 -- parsed with bitSize 8

	return Command{Network: network, Record: rec}, nil
}

func parseCommandPayload(s string) (WireRecord, error) {
	fields := strings.Split(s, ",")
	if len(fields) != commandFields {
		return WireRecord{}, fmt.Errorf("%w: %d fields, want %d", ErrInvalidPayload, len(fields), commandFields)
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	sensor, err := strconv.ParseInt(fields[0], 10, 16)
	if err != nil {
		return WireRecord{}, fmt.Errorf("%w: sensor id %q", ErrInvalidPayload, fields[0])
	}
	counter, err := strconv.ParseUint(fields[1], 10, 32)
	if err != nil {
		return WireRecord{}, fmt.Errorf("%w: counter %q", ErrInvalidPayload, fields[1])
	}
	a, err := strconv.ParseFloat(fields[2], 32)
	if err != nil {
		return WireRecord{}, fmt.Errorf("%w: float A %q", ErrInvalidPayload, fields[2])
	}
	b, err := strconv.ParseFloat(fields[3], 32)
	if err != nil {
		return WireRecord{}, fmt.Errorf("%w: float B %q", ErrInvalidPayload, fields[3])
	}

	return WireRecord{
		SensorID: int16(sensor),  // #nosec G115 -- parsed with bitSize 16
		Counter:  uint32(counter), // #nosec G115 -- parsed with bitSize 32
		FloatA:   float32(a),
		FloatB:   float32(b),
	}, nil
}
