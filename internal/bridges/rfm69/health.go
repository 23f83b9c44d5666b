package rfm69

import (
	"encoding/json"
	"time"
)

// HealthStatus represents the operational status of the gateway.
type HealthStatus string

const (
	// HealthHealthy indicates frames are arriving and the broker is connected.
	HealthHealthy HealthStatus = "healthy"

	// HealthDegraded indicates the broker is disconnected or the radio has
	// been silent for longer than the watchdog timeout.
	HealthDegraded HealthStatus = "degraded"

	// HealthStarting is published once the transceiver is initialised.
	HealthStarting HealthStatus = "starting"

	// HealthStopping is published when the loop exits.
	HealthStopping HealthStatus = "stopping"
)

// defaultHealthInterval is used when Config.HealthInterval is zero.
const defaultHealthInterval = 30 * time.Second

// HealthMessage is published retained to the health topic.
type HealthMessage struct {
	GatewayID     string       `json:"gateway_id"`
	InstanceID    string       `json:"instance_id"`
	Version       string       `json:"version"`
	Status        HealthStatus `json:"status"`
	Reason        string       `json:"reason,omitempty"`
	Timestamp     time.Time    `json:"timestamp"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	Radio         RadioHealth  `json:"radio"`
	Stats         Stats        `json:"stats"`
}

// RadioHealth describes the transceiver side of the gateway.
type RadioHealth struct {
	FrequencyMHz  int    `json:"frequency_mhz"`
	NetworkID     uint8  `json:"network_id"`
	NodeID        uint16 `json:"node_id"`
	Encrypted     bool   `json:"encrypted"`
	PendingProbes int    `json:"pending_probes"`
}

// HealthPublisher is the subset of MQTTClient the reporter needs.
type HealthPublisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	IsConnected() bool
}

// HealthReporter builds and publishes HealthMessages. The bridge loop
// calls Due and Publish; there is no reporter goroutine.
type HealthReporter struct {
	gatewayID  string
	instanceID string
	version    string
	topic      string
	interval   time.Duration
	startTime  time.Time
	publisher  HealthPublisher

	lastPublish time.Time
}

// HealthReporterConfig holds configuration for the health reporter.
type HealthReporterConfig struct {
	GatewayID  string
	InstanceID string
	Version    string
	Topic      string

	// Interval is how often to publish health status.
	// Default: 30 seconds.
	Interval time.Duration

	Publisher HealthPublisher
	StartTime time.Time
}

// NewHealthReporter creates a reporter. Nothing is published until Publish.
func NewHealthReporter(cfg HealthReporterConfig) *HealthReporter {
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultHealthInterval
	}

	return &HealthReporter{
		gatewayID:  cfg.GatewayID,
		instanceID: cfg.InstanceID,
		version:    cfg.Version,
		topic:      cfg.Topic,
		interval:   interval,
		startTime:  cfg.StartTime,
		publisher:  cfg.Publisher,
	}
}

// Due reports whether the interval has elapsed since the last publish.
func (h *HealthReporter) Due(now time.Time) bool {
	return h.lastPublish.IsZero() || now.Sub(h.lastPublish) >= h.interval
}

// Build assembles a message without publishing it.
func (h *HealthReporter) Build(now time.Time, status HealthStatus, reason string, radio RadioHealth, stats Stats) HealthMessage {
	return HealthMessage{
		GatewayID:     h.gatewayID,
		InstanceID:    h.instanceID,
		Version:       h.version,
		Status:        status,
		Reason:        reason,
		Timestamp:     now.UTC(),
		UptimeSeconds: int64(now.Sub(h.startTime).Seconds()),
		Radio:         radio,
		Stats:         stats,
	}
}

// Publish sends msg retained with QoS 1 and restarts the interval at now.
// With no publisher configured it only restarts the interval.
//
// now should be the value passed to Build. msg.Timestamp is UTC and has
// lost its monotonic reading, so Due never compares against it.
func (h *HealthReporter) Publish(now time.Time, msg HealthMessage) error {
	h.lastPublish = now
	if h.publisher == nil || h.topic == "" {
		return nil
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return h.publisher.Publish(h.topic, payload, 1, true)
}

// determineStatus evaluates the current gateway status.
func determineStatus(connected bool, silentFor, watchdogTimeout time.Duration) (HealthStatus, string) {
	if !connected {
		return HealthDegraded, "MQTT disconnected"
	}
	if watchdogTimeout > 0 && silentFor > watchdogTimeout {
		return HealthDegraded, "no radio frames within watchdog timeout"
	}
	return HealthHealthy, ""
}
