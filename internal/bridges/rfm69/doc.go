// Package rfm69 bridges an RFM69 sensor network and MQTT.
//
// # Architecture
//
//	┌──────────────┐  radio   ┌────────────────────┐   MQTT   ┌──────────┐
//	│ sensor nodes │◄────────►│  Bridge (this pkg) │◄────────►│  broker  │
//	└──────────────┘          └────────────────────┘          └──────────┘
//
// Every node sends the same 16-byte WireRecord. Each received record is
// republished as four independent messages, one per variable:
//
//	<prefix>/<node:02><sensor:01><var:01>
//
//	var 1  counter        "100"
//	var 2  float A        "1.500000"
//	var 3  float B        "2.500000"
//	var 4  signal (RSSI)  "-045"
//
// In the other direction the bridge subscribes to <root>/<network:03>/#
// and turns "sensorId,counter,floatA,floatB" published on
// <root>/<network>/<node> into a WireRecord sent to that node with the
// transceiver's retry/ack handshake.
//
// # Link liveness
//
// A Watchdog reinitialises the transceiver when no frame has arrived for
// Config.WatchdogTimeout (30 minutes by default).
//
// # Acks
//
// Frames that request an ack are acked at once. Every third such request
// also schedules a reverse "ACK TEST" probe to the sender a few
// milliseconds later, so the gateway exercises both its receive-and-ack and
// send-and-retry paths.
//
// # Thread Safety
//
// The loop (Run/Step) must run on a single goroutine. Stats, HealthCheck
// and SetLogger are safe from any goroutine.
package rfm69
