package main

import (
	"github.com/nerrad567/rfm-gateway/internal/bridges/rfm69"
	"github.com/nerrad567/rfm-gateway/internal/infrastructure/influxdb"
	"github.com/nerrad567/rfm-gateway/internal/infrastructure/mqtt"
)

// mqttPublisher is the part of *mqtt.Client the adapter uses.
type mqttPublisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	IsConnected() bool
}

// mqttBridgeAdapter adapts the infrastructure MQTT client to the bridge's
// MQTTClient interface. Only the handler signature differs:
// - Infrastructure mqtt: func(topic string, payload []byte) error
// - rfm69 bridge expects: func(topic string, payload []byte)
type mqttBridgeAdapter struct {
	client mqttPublisher
}

// Publish implements rfm69.MQTTClient.
func (a *mqttBridgeAdapter) Publish(topic string, payload []byte, qos byte, retained bool) error {
	return a.client.Publish(topic, payload, qos, retained)
}

// Subscribe implements rfm69.MQTTClient.
func (a *mqttBridgeAdapter) Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error {
	return a.client.Subscribe(topic, qos, func(t string, p []byte) error {
		handler(t, p)
		return nil
	})
}

// IsConnected implements rfm69.MQTTClient.
func (a *mqttBridgeAdapter) IsConnected() bool {
	return a.client.IsConnected()
}

// readingWriter is the part of *influxdb.Client the sink uses.
type readingWriter interface {
	WriteSensorReading(r influxdb.SensorReading)
}

// influxSink stores every decoded record in InfluxDB.
type influxSink struct {
	client readingWriter
}

// WriteReading implements rfm69.TelemetrySink.
func (s influxSink) WriteReading(r rfm69.EnrichedRecord) {
	s.client.WriteSensorReading(influxdb.SensorReading{
		Node:       int(r.NodeID),
		Sensor:     int(r.SensorID),
		Counter:    r.Counter,
		FloatA:     r.FloatA,
		FloatB:     r.FloatB,
		RSSI:       r.RSSI,
		ReceivedAt: r.ReceivedAt,
	})
}
