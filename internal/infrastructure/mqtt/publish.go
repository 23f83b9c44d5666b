package mqtt

import (
	"fmt"
)

// maxPayloadSize caps a single message. Gateway payloads are a few bytes
// of decimal text or a small health document; this guards against bugs.
const maxPayloadSize = 1 << 20

// Publish sends a message and waits for paho to confirm it.
//
// QoS 0 confirms once the packet is written to the socket; QoS 1 and 2
// wait for the broker handshake. Retain only state documents (status,
// health), never telemetry samples.
//
// Parameters:
//   - topic: Full topic, e.g. "RFM/0521"
//   - payload: Raw bytes, at most 1 MiB
//   - qos: 0, 1 or 2
//   - retained: Whether the broker keeps the message for new subscribers
//
// Returns:
//   - error: ErrInvalidTopic, ErrInvalidQoS, ErrNotConnected or a wrapped
//     ErrPublishFailed; nil once paho confirms delivery
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	return nil
}

// PublishRetained publishes a retained message with the configured QoS.
func (c *Client) PublishRetained(topic string, payload []byte) error {
	return c.Publish(topic, payload, byte(c.cfg.QoS), true)
}
