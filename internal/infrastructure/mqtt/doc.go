// Package mqtt provides the broker connection for the RFM69 gateway.
//
// This package manages:
//   - Connection to the broker with auto-reconnect and clean sessions
//   - Publishing with QoS validation and bounded waits
//   - Subscriptions that survive reconnects
//   - The retained gateway status topic and its Last Will
//
// # Architecture
//
//	RFM69 nodes ))) transceiver ↔ rfm69 bridge ↔ this package ↔ broker
//
// The bridge never sees paho types: cmd/rfmgateway adapts *Client to the
// bridge's MQTTClient interface.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err // fatal: the gateway cannot start without a broker
//	}
//	defer client.Close()
//
//	err = client.Subscribe("RFM/101/#", 0, func(topic string, payload []byte) error {
//	    inbox <- message{topic, payload}
//	    return nil
//	})
package mqtt
