package rfm69

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/rfm-gateway/internal/infrastructure/metrics"
	"github.com/nerrad567/rfm-gateway/internal/radio"
)

// Bridge defaults, used when the matching Config field is zero.
const (
	DefaultRoot            = "RFM"
	DefaultWatchdogTimeout = 30 * time.Minute
	DefaultPollInterval    = 10 * time.Millisecond
	DefaultProbeEvery      = 3
	DefaultProbeDelay      = 3 * time.Millisecond
	DefaultInboxSize       = 64
)

// Config holds the bridge settings. It is fixed for the process lifetime.
type Config struct {
	// Root is the command/status topic root ("RFM").
	Root string

	// PublishPrefix is prepended to telemetry topics; empty publishes bare topics.
	PublishPrefix string

	// QoS for telemetry publishes and the command subscription.
	QoS byte

	// Settings are applied at Start and on every watchdog trigger.
	Settings radio.Settings

	// WatchdogTimeout of zero uses the default; negative disables the watchdog.
	WatchdogTimeout time.Duration
	PollInterval    time.Duration
	ProbeEvery      int
	ProbeDelay      time.Duration
	HealthInterval  time.Duration
	InboxSize       int

	// HealthTopic receives retained HealthMessages. Empty disables them.
	HealthTopic string

	GatewayID string
	Version   string
}

func (c Config) withDefaults() Config {
	if c.Root == "" {
		c.Root = DefaultRoot
	}
	if c.WatchdogTimeout == 0 {
		c.WatchdogTimeout = DefaultWatchdogTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.ProbeEvery <= 0 {
		c.ProbeEvery = DefaultProbeEvery
	}
	if c.ProbeDelay <= 0 {
		c.ProbeDelay = DefaultProbeDelay
	}
	if c.HealthInterval <= 0 {
		c.HealthInterval = defaultHealthInterval
	}
	if c.InboxSize <= 0 {
		c.InboxSize = DefaultInboxSize
	}
	return c
}

// MQTTClient is the interface for MQTT operations.
// This allows mocking in tests and flexibility in implementation.
type MQTTClient interface {
	// Publish sends a message to a topic.
	Publish(topic string, payload []byte, qos byte, retained bool) error

	// Subscribe registers a handler for a topic pattern.
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error

	// IsConnected returns true if connected to the broker.
	IsConnected() bool
}

// Transceiver is the radio as the bridge sees it.
// *radio.Link and *radio.Sim satisfy it.
type Transceiver interface {
	ReceiveReady() bool
	Read() (radio.RawFrame, error)
	SendWithRetry(ctx context.Context, node uint16, data []byte) (bool, error)
	SendAck(node uint16) error
	Reinitialize(s radio.Settings) error
}

// TelemetrySink receives every decoded record. Optional.
type TelemetrySink interface {
	WriteReading(r EnrichedRecord)
}

// Metrics receives counter and gauge updates. Optional.
type Metrics interface {
	IncCounter(name string, v float64)
	SetGauge(name string, v float64)
	ObserveLatency(name string, seconds float64)
}

// Logger is the structured logger used by the bridge.
// *logging.Logger satisfies it.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// BridgeOptions holds configuration for creating a bridge.
type BridgeOptions struct {
	Config Config

	// MQTTClient is the MQTT client implementation.
	MQTTClient MQTTClient

	// Radio is the transceiver.
	Radio Transceiver

	// Sink is an optional telemetry store (InfluxDB).
	Sink TelemetrySink

	// Metrics is optional (Prometheus).
	Metrics Metrics

	// Logger is optional structured logger.
	Logger Logger

	// Clock overrides time.Now in tests.
	Clock func() time.Time
}

// inboundMessage is an MQTT message waiting for the loop.
type inboundMessage struct {
	topic   string
	payload []byte
}

// Bridge moves records between the radio and MQTT.
//
// One goroutine runs the loop (Run) and owns the transceiver, the watchdog
// and the ack coordinator. MQTT callbacks only enqueue into a bounded
// inbox that the loop drains. Stats is safe to call from any goroutine.
type Bridge struct {
	cfg     Config
	mqtt    MQTTClient
	radio   Transceiver
	sink    TelemetrySink
	metrics Metrics
	now     func() time.Time

	watchdog *Watchdog
	acks     *AckCoordinator
	health   *HealthReporter
	stats    *statsRecorder

	inbox     chan inboundMessage
	pending   *EnrichedRecord // record whose publish is due
	startedAt time.Time
	running   atomic.Bool

	logger   Logger
	loggerMu sync.RWMutex
}

// NewBridge creates a new bridge instance.
// Call Start, then Run.
func NewBridge(opts BridgeOptions) (*Bridge, error) {
	if opts.MQTTClient == nil {
		return nil, fmt.Errorf("MQTT client is required")
	}
	if opts.Radio == nil {
		return nil, fmt.Errorf("radio is required")
	}

	cfg := opts.Config.withDefaults()
	if err := cfg.Settings.Validate(); err != nil {
		return nil, fmt.Errorf("radio settings: %w", err)
	}

	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	started := now()

	stats := newStatsRecorder(opts.Metrics)

	b := &Bridge{
		cfg:       cfg,
		mqtt:      opts.MQTTClient,
		radio:     opts.Radio,
		sink:      opts.Sink,
		metrics:   opts.Metrics,
		now:       now,
		watchdog:  NewWatchdog(cfg.WatchdogTimeout, started),
		stats:     stats,
		inbox:     make(chan inboundMessage, cfg.InboxSize),
		startedAt: started,
		logger:    opts.Logger,
	}
	b.acks = newAckCoordinator(opts.Radio, stats, opts.Metrics, now, cfg.ProbeEvery, cfg.ProbeDelay)
	b.health = NewHealthReporter(HealthReporterConfig{
		GatewayID:  cfg.GatewayID,
		InstanceID: uuid.NewString(),
		Version:    cfg.Version,
		Topic:      cfg.HealthTopic,
		Interval:   cfg.HealthInterval,
		Publisher:  opts.MQTTClient,
		StartTime:  started,
	})

	return b, nil
}

// Start initialises the transceiver and subscribes to commands.
// An initialisation failure is fatal for the caller.
func (b *Bridge) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := b.radio.Reinitialize(b.cfg.Settings); err != nil {
		return fmt.Errorf("%w: %w", ErrReinitFailed, err)
	}
	b.watchdog.RecordFrame(b.now())
	b.logInfo("listening",
		"frequency_mhz", b.cfg.Settings.Band.MHz(),
		"network_id", b.cfg.Settings.NetworkID,
		"node_id", b.cfg.Settings.NodeID,
		"encrypted", b.cfg.Settings.EncryptionEnabled(),
		"promiscuous", b.cfg.Settings.Promiscuous,
	)

	filter := SubscriptionFilter(b.cfg.Root, b.cfg.Settings.NetworkID)
	if err := b.mqtt.Subscribe(filter, b.cfg.QoS, b.handleMQTTMessage); err != nil {
		return fmt.Errorf("subscribing to %s: %w", filter, err)
	}
	b.logInfo("subscribed to commands", "filter", filter)

	b.publishHealth(HealthStarting, "transceiver initialised")
	return nil
}

// Run loops until ctx is cancelled (returns nil) or the transceiver
// cannot be reinitialised (returns an error wrapping ErrReinitFailed).
func (b *Bridge) Run(ctx context.Context) error {
	b.running.Store(true)
	defer b.running.Store(false)

	for {
		if err := b.Step(ctx); err != nil {
			b.publishHealth(HealthStopping, err.Error())
			return err
		}
		if ctx.Err() != nil {
			b.publishHealth(HealthStopping, "shutdown")
			return nil
		}
	}
}

// Step runs one loop iteration:
//
//  1. wait up to PollInterval for MQTT commands and handle all queued ones
//  2. watchdog check
//  3. send due ack probes
//  4. read at most one radio frame
//  5. publish the decoded record
//  6. publish health when due
func (b *Bridge) Step(ctx context.Context) error {
	b.pollInbox(ctx)

	now := b.now()
	triggered, err := b.watchdog.Check(now, func() error {
		return b.radio.Reinitialize(b.cfg.Settings)
	})
	if triggered {
		b.stats.inc(watchdogTriggers)
		b.logWarn("message watchdog expired, reinitialising transceiver",
			"timeout", b.cfg.WatchdogTimeout.String())
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrReinitFailed, err)
	}

	for _, r := range b.acks.RunDue(ctx, now) {
		b.logProbe(r)
	}

	b.receive(now)
	b.publishRecord()

	if b.health.Due(now) {
		status, reason := b.currentStatus(now)
		b.publishHealth(status, reason)
	}
	return nil
}

// Stats returns a copy of the counters.
func (b *Bridge) Stats() Stats {
	return b.stats.snapshot()
}

// HealthCheck reports whether the loop is running.
func (b *Bridge) HealthCheck(_ context.Context) error {
	if !b.running.Load() {
		return ErrNotRunning
	}
	return nil
}

// SetLogger sets the logger for this bridge.
func (b *Bridge) SetLogger(logger Logger) {
	b.loggerMu.Lock()
	b.logger = logger
	b.loggerMu.Unlock()
}

// handleMQTTMessage runs on the MQTT client goroutine. It never blocks.
func (b *Bridge) handleMQTTMessage(topic string, payload []byte) {
	msg := inboundMessage{topic: topic, payload: append([]byte(nil), payload...)}

	select {
	case b.inbox <- msg:
	default:
		b.stats.inc(inboxDropped)
		b.logWarn("command inbox full, dropping message", "topic", topic, "capacity", cap(b.inbox))
	}
}

// pollInbox waits up to PollInterval for the first command, then drains
// whatever else is queued.
func (b *Bridge) pollInbox(ctx context.Context) {
	timer := time.NewTimer(b.cfg.PollInterval)
	defer timer.Stop()

	select {
	case msg := <-b.inbox:
		b.handleCommand(ctx, msg)
	case <-timer.C:
		return
	case <-ctx.Done():
		return
	}

	for {
		select {
		case msg := <-b.inbox:
			b.handleCommand(ctx, msg)
		default:
			if b.metrics != nil {
				b.metrics.SetGauge(metrics.InboxLength, float64(len(b.inbox)))
			}
			return
		}
	}
}

func (b *Bridge) handleCommand(ctx context.Context, msg inboundMessage) {
	cmd, err := ParseCommand(b.cfg.Root, b.cfg.Settings.NetworkID, msg.topic, msg.payload)
	switch {
	case errors.Is(err, ErrWrongNetwork):
		b.logDebug("ignoring command for another network", "topic", msg.topic)
		return
	case err != nil:
		b.stats.inc(commandsRejected)
		b.logWarn("rejecting command", "topic", msg.topic, "payload", string(msg.payload), "error", err)
		return
	}

	r := cmd.Record
	b.logInfo("sending command to node",
		"node_id", r.NodeID,
		"sensor_id", r.SensorID,
		"counter", r.Counter,
		"float_a", r.FloatA,
		"float_b", r.FloatB,
	)

	acked, err := b.acks.Deliver(ctx, cmd)
	switch {
	case err != nil:
		b.logWarn("command delivery failed", "node_id", r.NodeID, "error", err)
	case acked:
		b.logDebug("command acknowledged", "node_id", r.NodeID)
	default:
		b.logWarn("command not acknowledged", "node_id", r.NodeID)
	}
}

// receive reads one frame, if any.
func (b *Bridge) receive(now time.Time) {
	if !b.radio.ReceiveReady() {
		return
	}

	frame, err := b.radio.Read()
	if err != nil {
		if !errors.Is(err, radio.ErrNoFrame) {
			b.logWarn("radio read failed", "error", err)
		}
		return
	}

	// Any reception proves the link is alive, even a malformed frame.
	b.watchdog.RecordFrame(now)
	b.stats.frameReceived(now)

	if b.cfg.Settings.Promiscuous {
		b.logDebug("frame received", "sender_id", frame.SenderID, "target_id", frame.TargetID, "length", len(frame.Data))
	} else {
		b.logDebug("frame received", "sender_id", frame.SenderID, "length", len(frame.Data))
	}

	rec, err := DecodeRecord(frame.Data)
	if err != nil {
		b.stats.inc(invalidFrames)
		b.logWarn("invalid payload received, dropping frame",
			"sender_id", frame.SenderID,
			"length", len(frame.Data),
			"expected", RecordSize,
			"data", hex.EncodeToString(frame.Data),
		)
	} else {
		b.pending = &EnrichedRecord{
			WireRecord: rec,
			RSSI:       frame.RSSI,
			SenderID:   frame.SenderID,
			ReceivedAt: now,
		}
		b.stats.setRSSI(frame.RSSI)
		b.logInfo("record received",
			"node_id", rec.NodeID,
			"sensor_id", rec.SensorID,
			"counter", rec.Counter,
			"rssi", frame.RSSI,
			"float_a", rec.FloatA,
			"float_b", rec.FloatB,
		)
	}

	if frame.AckRequested {
		scheduled, err := b.acks.HandleAckRequest(now, frame.SenderID)
		if err != nil {
			b.logWarn("sending ack failed", "node_id", frame.SenderID, "error", err)
		}
		if scheduled {
			b.logDebug("reverse ack probe scheduled", "node_id", frame.SenderID, "delay", b.cfg.ProbeDelay.String())
		}
	}
}

// publishRecord emits the four per-variable messages of the pending record.
func (b *Bridge) publishRecord() {
	if b.pending == nil {
		return
	}
	rec := *b.pending
	b.pending = nil

	for _, m := range RecordMessages(b.cfg.PublishPrefix, rec) {
		if err := b.mqtt.Publish(m.Topic, m.Payload, b.cfg.QoS, false); err != nil {
			b.stats.inc(publishErrors)
			b.logError("publish failed", "topic", m.Topic, "error", err)
		}
	}

	if b.sink != nil {
		b.sink.WriteReading(rec)
	}
}

func (b *Bridge) currentStatus(now time.Time) (HealthStatus, string) {
	last := b.stats.snapshot().LastFrameAt
	if last.IsZero() {
		last = b.startedAt
	}
	return determineStatus(b.mqtt.IsConnected(), now.Sub(last), b.cfg.WatchdogTimeout)
}

func (b *Bridge) publishHealth(status HealthStatus, reason string) {
	s := b.cfg.Settings
	now := b.now()
	msg := b.health.Build(now, status, reason, RadioHealth{
		FrequencyMHz:  s.Band.MHz(),
		NetworkID:     s.NetworkID,
		NodeID:        s.NodeID,
		Encrypted:     s.EncryptionEnabled(),
		PendingProbes: b.acks.Pending(),
	}, b.stats.snapshot())

	if err := b.health.Publish(now, msg); err != nil {
		b.logError("failed to publish health", "error", err)
	}
}

func (b *Bridge) logProbe(r ProbeResult) {
	switch {
	case r.Err != nil:
		b.logWarn("reverse ack probe failed", "node_id", r.Node, "error", r.Err)
	case r.Acked:
		b.logDebug("reverse ack probe ok", "node_id", r.Node)
	default:
		b.logDebug("reverse ack probe got nothing", "node_id", r.Node)
	}
}

func (b *Bridge) getLogger() Logger {
	b.loggerMu.RLock()
	defer b.loggerMu.RUnlock()
	return b.logger
}

func (b *Bridge) logInfo(msg string, keysAndValues ...any) {
	if l := b.getLogger(); l != nil {
		l.Info(msg, keysAndValues...)
	}
}

func (b *Bridge) logWarn(msg string, keysAndValues ...any) {
	if l := b.getLogger(); l != nil {
		l.Warn(msg, keysAndValues...)
	}
}

func (b *Bridge) logError(msg string, keysAndValues ...any) {
	if l := b.getLogger(); l != nil {
		l.Error(msg, keysAndValues...)
	}
}

func (b *Bridge) logDebug(msg string, keysAndValues ...any) {
	if l := b.getLogger(); l != nil {
		l.Debug(msg, keysAndValues...)
	}
}
