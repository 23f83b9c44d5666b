package radio

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// fakeCoprocessor answers link requests on the far end of a net.Pipe.
type fakeCoprocessor struct {
	conn    net.Conn
	sendOK  bool
	silent  bool // never answer requests
	reject  string
	sends   chan sendMsg
	configs chan configureMsg
	acks    chan sendAckMsg
}

func newFakeCoprocessor(conn net.Conn) *fakeCoprocessor {
	f := &fakeCoprocessor{
		conn:    conn,
		sendOK:  true,
		sends:   make(chan sendMsg, 8),
		configs: make(chan configureMsg, 8),
		acks:    make(chan sendAckMsg, 8),
	}
	return f
}

func (f *fakeCoprocessor) run() {
	dec := NewDecoder()
	buf := make([]byte, 64)
	for {
		n, err := f.conn.Read(buf)
		for _, b := range buf[:n] {
			pkt, _ := dec.DecodeByte(b)
			if pkt != nil {
				f.handle(pkt)
			}
		}
		if err != nil {
			return
		}
	}
}

func (f *fakeCoprocessor) handle(pkt *Packet) {
	switch pkt.Type {
	case MsgSend:
		var m sendMsg
		if cbor.Unmarshal(pkt.Payload, &m) != nil {
			return
		}
		f.sends <- m
		if !f.silent {
			f.reply(MsgSendResult, resultMsg{Seq: m.Seq, OK: f.sendOK})
		}
	case MsgConfigure:
		var m configureMsg
		if cbor.Unmarshal(pkt.Payload, &m) != nil {
			return
		}
		f.configs <- m
		if !f.silent {
			f.reply(MsgConfigureResult, resultMsg{Seq: m.Seq, OK: f.reject == "", Reason: f.reject})
		}
	case MsgSendAck:
		var m sendAckMsg
		if cbor.Unmarshal(pkt.Payload, &m) != nil {
			return
		}
		f.acks <- m
	}
}

func (f *fakeCoprocessor) reply(msgType uint8, v any) {
	pkt, err := marshalPacket(msgType, v)
	if err != nil {
		panic(err)
	}
	f.conn.Write(pkt) //nolint:errcheck // pipe closed at test end
}

func newTestLink(t *testing.T, timeout time.Duration) (*Link, *fakeCoprocessor) {
	t.Helper()
	host, device := net.Pipe()
	fake := newFakeCoprocessor(device)
	go fake.run()

	link := NewLink(host, LinkOptions{SendTimeout: timeout})
	t.Cleanup(func() {
		link.Close()
		device.Close()
	})
	return link, fake
}

func waitReady(t *testing.T, l *Link) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !l.ReceiveReady() {
		if time.Now().After(deadline) {
			t.Fatal("frame not received")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestLink_ReceiveFrame(t *testing.T) {
	link, fake := newTestLink(t, time.Second)

	if link.ReceiveReady() {
		t.Fatal("ReceiveReady() = true before any frame")
	}
	if _, err := link.Read(); !errors.Is(err, ErrNoFrame) {
		t.Errorf("Read() on empty queue error = %v, want ErrNoFrame", err)
	}

	go fake.reply(MsgReceived, receivedMsg{
		Sender:       5,
		Target:       1,
		Data:         []byte{0x05, 0x00, 0x02, 0x00},
		RSSI:         -45,
		AckRequested: true,
	})

	waitReady(t, link)
	f, err := link.Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if f.SenderID != 5 || f.TargetID != 1 || f.RSSI != -45 || !f.AckRequested {
		t.Errorf("frame = %+v", f)
	}
	if len(f.Data) != 4 {
		t.Errorf("Data = % X", f.Data)
	}
}

func TestLink_SendWithRetry(t *testing.T) {
	tests := []struct {
		name   string
		sendOK bool
	}{
		{"acknowledged", true},
		{"retries exhausted", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link, fake := newTestLink(t, time.Second)
			fake.sendOK = tt.sendOK

			ok, err := link.SendWithRetry(context.Background(), 7, []byte("ACK TEST"))
			if err != nil {
				t.Fatalf("SendWithRetry() error = %v", err)
			}
			if ok != tt.sendOK {
				t.Errorf("SendWithRetry() = %v, want %v", ok, tt.sendOK)
			}

			m := <-fake.sends
			if m.Target != 7 || string(m.Data) != "ACK TEST" {
				t.Errorf("sent %+v", m)
			}
		})
	}
}

func TestLink_SendTimeout(t *testing.T) {
	link, fake := newTestLink(t, 50*time.Millisecond)
	fake.silent = true

	_, err := link.SendWithRetry(context.Background(), 7, []byte{0x01})
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("SendWithRetry() error = %v, want ErrTimeout", err)
	}
}

func TestLink_SendCancelled(t *testing.T) {
	link, fake := newTestLink(t, time.Second)
	fake.silent = true

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := link.SendWithRetry(ctx, 7, []byte{0x01})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("SendWithRetry() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestLink_SendAck(t *testing.T) {
	link, fake := newTestLink(t, time.Second)

	if err := link.SendAck(9); err != nil {
		t.Fatalf("SendAck() error = %v", err)
	}
	select {
	case m := <-fake.acks:
		if m.Target != 9 {
			t.Errorf("ack target = %d, want 9", m.Target)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ack not delivered")
	}
}

func TestLink_Reinitialize(t *testing.T) {
	link, fake := newTestLink(t, time.Second)

	s := Settings{
		Band:        Band868,
		NodeID:      1,
		NetworkID:   101,
		Key:         []byte("sampleEncryptKey"),
		HighPower:   true,
		Promiscuous: true,
	}
	if err := link.Reinitialize(s); err != nil {
		t.Fatalf("Reinitialize() error = %v", err)
	}

	m := <-fake.configs
	if m.FrequencyMHz != 868 || m.NodeID != 1 || m.NetworkID != 101 ||
		string(m.Key) != "sampleEncryptKey" || !m.HighPower || !m.Promiscuous {
		t.Errorf("configure = %+v", m)
	}
}

func TestLink_ReinitializeRejected(t *testing.T) {
	link, fake := newTestLink(t, time.Second)
	fake.reject = "spi fault"

	err := link.Reinitialize(Settings{Band: Band433})
	if !errors.Is(err, ErrRejected) {
		t.Errorf("Reinitialize() error = %v, want ErrRejected", err)
	}
}

func TestLink_ReinitializeInvalid(t *testing.T) {
	link, _ := newTestLink(t, time.Second)

	err := link.Reinitialize(Settings{Band: Band433, Key: []byte("short")})
	if !errors.Is(err, ErrInvalidKey) {
		t.Errorf("Reinitialize() error = %v, want ErrInvalidKey", err)
	}
}

func TestLink_Closed(t *testing.T) {
	host, device := net.Pipe()
	link := NewLink(host, LinkOptions{SendTimeout: time.Second})
	defer link.Close()

	if err := link.Err(); err != nil {
		t.Errorf("Err() on a live link = %v", err)
	}
	device.Close()

	select {
	case <-link.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("reader did not stop after peer closed")
	}

	if _, err := link.Read(); !errors.Is(err, ErrClosed) {
		t.Errorf("Read() error = %v, want ErrClosed", err)
	}
	if err := link.Err(); !errors.Is(err, ErrClosed) {
		t.Errorf("Err() = %v, want ErrClosed", err)
	}
	if _, err := link.SendWithRetry(context.Background(), 1, nil); !errors.Is(err, ErrClosed) {
		t.Errorf("SendWithRetry() error = %v, want ErrClosed", err)
	}
	if err := link.SendAck(1); !errors.Is(err, ErrClosed) {
		t.Errorf("SendAck() error = %v, want ErrClosed", err)
	}
}
