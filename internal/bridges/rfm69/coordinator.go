package rfm69

import (
	"context"
	"time"

	"github.com/nerrad567/rfm-gateway/internal/infrastructure/metrics"
)

// probePayload is sent to a node during a reverse ack probe.
var probePayload = []byte("ACK TEST")

// probe is a scheduled reverse ack test.
type probe struct {
	node uint16
	due  time.Time
}

// AckCoordinator runs both ack flows:
//
//   - inbound: a frame asks for an ack, which is sent at once. Every
//     probeEvery-th request (counting from the first) also schedules a
//     reverse probe to the same node after probeDelay.
//   - outbound: an MQTT command is encoded and sent with the transceiver's
//     retry handshake.
//
// Both record MessagesSent and AcksReceived/AcksMissed. Confirmation is
// radio-link level only; nothing is retried beyond the transceiver.
//
// Not safe for concurrent use. The bridge loop owns it.
type AckCoordinator struct {
	radio      Transceiver
	stats      *statsRecorder
	metrics    Metrics
	now        func() time.Time
	probeEvery uint64
	probeDelay time.Duration

	requests uint64
	pending  []probe
}

func newAckCoordinator(radio Transceiver, stats *statsRecorder, m Metrics, now func() time.Time, every int, delay time.Duration) *AckCoordinator {
	if every <= 0 {
		every = DefaultProbeEvery
	}
	return &AckCoordinator{
		radio:      radio,
		stats:      stats,
		metrics:    m,
		now:        now,
		probeEvery: uint64(every), // #nosec G115 -- positive
		probeDelay: delay,
	}
}

// HandleAckRequest acks node immediately and applies the probe sampling
// policy. It returns the SendAck error, if any; sampling happens anyway.
func (c *AckCoordinator) HandleAckRequest(now time.Time, node uint16) (scheduled bool, err error) {
	c.stats.inc(acksRequested)
	err = c.radio.SendAck(node)

	n := c.requests
	c.requests++
	if n%c.probeEvery == 0 {
		c.pending = append(c.pending, probe{node: node, due: now.Add(c.probeDelay)})
		c.stats.inc(ackPingCycles)
		scheduled = true
	}
	return scheduled, err
}

// RunDue sends every probe due at or before now and returns one result
// per probe sent, in send order.
func (c *AckCoordinator) RunDue(ctx context.Context, now time.Time) []ProbeResult {
	if len(c.pending) == 0 {
		return nil
	}

	var results []ProbeResult
	remaining := c.pending[:0]
	for _, p := range c.pending {
		if p.due.After(now) {
			remaining = append(remaining, p)
			continue
		}
		ok, err := c.send(ctx, p.node, probePayload)
		results = append(results, ProbeResult{Node: p.node, Acked: ok, Err: err})
	}
	c.pending = remaining

	return results
}

// Pending returns the number of scheduled probes not yet sent.
func (c *AckCoordinator) Pending() int {
	return len(c.pending)
}

// Deliver encodes cmd and sends it to its node.
func (c *AckCoordinator) Deliver(ctx context.Context, cmd Command) (bool, error) {
	node := uint16(cmd.Record.NodeID) // #nosec G115 -- ParseCommand bounds NodeID to int16 >= 0
	return c.send(ctx, node, EncodeRecord(cmd.Record))
}

// ProbeResult is the outcome of one reverse ack probe.
type ProbeResult struct {
	Node  uint16
	Acked bool
	Err   error
}

func (c *AckCoordinator) send(ctx context.Context, node uint16, data []byte) (bool, error) {
	c.stats.inc(messagesSent)

	start := c.now()
	ok, err := c.radio.SendWithRetry(ctx, node, data)
	if c.metrics != nil {
		c.metrics.ObserveLatency(metrics.SendLatency, c.now().Sub(start).Seconds())
	}

	if ok && err == nil {
		c.stats.inc(acksReceived)
		return true, nil
	}
	c.stats.inc(acksMissed)
	return false, err
}
