//go:build integration

package mqtt

import (
	"testing"
	"time"
)

// These tests need a broker on 127.0.0.1:1883.
//
//	go test -tags=integration ./internal/infrastructure/mqtt/...

func TestIntegration_ConnectAndStatus(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.ClientID = "rfm-gateway-it-status"

	client, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	if !client.IsConnected() {
		t.Fatal("IsConnected() = false after Connect()")
	}

	got := make(chan []byte, 1)
	err = client.Subscribe(client.Topics().Status(), 1, func(_ string, payload []byte) error {
		select {
		case got <- payload:
		default:
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	select {
	case payload := <-got:
		if len(payload) == 0 {
			t.Error("empty retained status")
		}
	case <-time.After(3 * time.Second):
		t.Error("retained status not received")
	}
}

func TestIntegration_CommandRoundtrip(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.ClientID = "rfm-gateway-it-roundtrip"

	client, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	received := make(chan string, 1)
	if err := client.Subscribe("RFM/101/#", 1, func(topic string, payload []byte) error {
		received <- topic + " " + string(payload)
		return nil
	}); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if !client.HasSubscription("RFM/101/#") {
		t.Error("subscription not tracked")
	}

	if err := client.Publish("RFM/101/7", []byte("002,100,1.5,2.5"), 1, false); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case msg := <-received:
		if msg != "RFM/101/7 002,100,1.5,2.5" {
			t.Errorf("received %q", msg)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("message not delivered")
	}

	if err := client.Unsubscribe("RFM/101/#"); err != nil {
		t.Errorf("Unsubscribe() error = %v", err)
	}
}
