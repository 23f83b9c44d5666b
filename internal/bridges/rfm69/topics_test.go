package rfm69

import (
	"errors"
	"testing"
)

func TestEncodeTopic(t *testing.T) {
	tests := []struct {
		node, sensor, variable int
		want                   string
	}{
		{5, 2, 3, "0523"},
		{12, 9, 1, "1291"},
		{0, 0, 0, "0000"},
		{99, 9, 4, "9994"},
		// Out of range widens the topic; not corrected.
		{100, 1, 1, "10011"},
		{1, 10, 1, "01101"},
	}

	for _, tt := range tests {
		if got := EncodeTopic(tt.node, tt.sensor, tt.variable); got != tt.want {
			t.Errorf("EncodeTopic(%d, %d, %d) = %q, want %q", tt.node, tt.sensor, tt.variable, got, tt.want)
		}
	}
}

func TestEncodeValue(t *testing.T) {
	tests := []struct {
		name string
		kind ValueKind
		v    any
		want string
	}{
		{"int padded", KindInt, 7, "0007"},
		{"int negative", KindInt, -45, "-045"},
		{"int wide", KindInt, 12345, "12345"},
		{"unsigned", KindUnsigned, uint32(100), "100"},
		{"unsigned max", KindUnsigned, uint32(4294967295), "4294967295"},
		{"float32", KindFloat, float32(1.5), "1.500000"},
		{"float64", KindFloat, 2.25, "2.250000"},
		{"float negative", KindFloat, float32(-0.125), "-0.125000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EncodeValue(tt.kind, tt.v); got != tt.want {
				t.Errorf("EncodeValue() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRecordMessages(t *testing.T) {
	rec := EnrichedRecord{
		WireRecord: WireRecord{NodeID: 5, SensorID: 2, Counter: 100, FloatA: 1.5, FloatB: 2.5},
		RSSI:       -45,
	}

	tests := []struct {
		prefix string
		topics []string
	}{
		{"RFM", []string{"RFM/0521", "RFM/0522", "RFM/0523", "RFM/0524"}},
		{"", []string{"0521", "0522", "0523", "0524"}},
	}
	payloads := []string{"100", "1.500000", "2.500000", "-045"}

	for _, tt := range tests {
		msgs := RecordMessages(tt.prefix, rec)
		if len(msgs) != 4 {
			t.Fatalf("RecordMessages(%q) returned %d messages, want 4", tt.prefix, len(msgs))
		}
		for i, m := range msgs {
			if m.Topic != tt.topics[i] {
				t.Errorf("prefix %q message %d topic = %q, want %q", tt.prefix, i, m.Topic, tt.topics[i])
			}
			if string(m.Payload) != payloads[i] {
				t.Errorf("prefix %q message %d payload = %q, want %q", tt.prefix, i, m.Payload, payloads[i])
			}
		}
	}
}

func TestSubscriptionFilter(t *testing.T) {
	if got := SubscriptionFilter("RFM", 101); got != "RFM/101/#" {
		t.Errorf("SubscriptionFilter(RFM, 101) = %q", got)
	}
	if got := SubscriptionFilter("RFM", 7); got != "RFM/007/#" {
		t.Errorf("SubscriptionFilter(RFM, 7) = %q", got)
	}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name    string
		network uint8
		topic   string
		payload string
		want    WireRecord
		wantErr error
	}{
		{
			name: "valid", network: 101, topic: "RFM/101/7", payload: "002,100,1.5,2.5",
			want: WireRecord{NodeID: 7, SensorID: 2, Counter: 100, FloatA: 1.5, FloatB: 2.5},
		},
		{
			name: "zero padded network", network: 7, topic: "RFM/007/3", payload: "1,0,0,0",
			want: WireRecord{NodeID: 3, SensorID: 1},
		},
		{
			name: "whitespace trimmed", network: 101, topic: "RFM/101/9", payload: " 4, 42 ,-1.25, 3e2",
			want: WireRecord{NodeID: 9, SensorID: 4, Counter: 42, FloatA: -1.25, FloatB: 300},
		},
		{name: "other network", network: 102, topic: "RFM/101/7", payload: "002,100,1.5,2.5", wantErr: ErrWrongNetwork},
		{name: "wrong root", network: 101, topic: "XYZ/101/7", payload: "1,1,1,1", wantErr: ErrInvalidTopic},
		{name: "extra segment", network: 101, topic: "RFM/101/7/x", payload: "1,1,1,1", wantErr: ErrInvalidTopic},
		{name: "missing node", network: 101, topic: "RFM/101", payload: "1,1,1,1", wantErr: ErrInvalidTopic},
		{name: "non numeric network", network: 101, topic: "RFM/abc/7", payload: "1,1,1,1", wantErr: ErrInvalidTopic},
		{name: "network out of range", network: 101, topic: "RFM/300/7", payload: "1,1,1,1", wantErr: ErrInvalidTopic},
		{
			name: "max node", network: 101, topic: "RFM/101/255", payload: "1,1,1,1",
			want: WireRecord{NodeID: 255, SensorID: 1, Counter: 1, FloatA: 1, FloatB: 1},
		},
		{name: "node above 8 bits", network: 101, topic: "RFM/101/300", payload: "1,1,1,1", wantErr: ErrInvalidTopic},
		{name: "node out of range", network: 101, topic: "RFM/101/40000", payload: "1,1,1,1", wantErr: ErrInvalidTopic},
		{name: "negative node", network: 101, topic: "RFM/101/-1", payload: "1,1,1,1", wantErr: ErrInvalidTopic},
		{name: "three fields", network: 101, topic: "RFM/101/7", payload: "002,100,1.5", wantErr: ErrInvalidPayload},
		{name: "five fields", network: 101, topic: "RFM/101/7", payload: "1,2,3,4,5", wantErr: ErrInvalidPayload},
		{name: "empty payload", network: 101, topic: "RFM/101/7", payload: "", wantErr: ErrInvalidPayload},
		{name: "bad sensor", network: 101, topic: "RFM/101/7", payload: "x,1,1,1", wantErr: ErrInvalidPayload},
		{name: "negative counter", network: 101, topic: "RFM/101/7", payload: "1,-1,1,1", wantErr: ErrInvalidPayload},
		{name: "bad float", network: 101, topic: "RFM/101/7", payload: "1,1,abc,1", wantErr: ErrInvalidPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := ParseCommand("RFM", tt.network, tt.topic, []byte(tt.payload))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("ParseCommand() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCommand() error = %v", err)
			}
			if cmd.Record != tt.want {
				t.Errorf("ParseCommand() = %+v, want %+v", cmd.Record, tt.want)
			}
			if cmd.Network != tt.network {
				t.Errorf("Network = %d, want %d", cmd.Network, tt.network)
			}
		})
	}
}
