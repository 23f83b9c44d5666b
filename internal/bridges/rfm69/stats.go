package rfm69

import (
	"sync"
	"time"

	"github.com/nerrad567/rfm-gateway/internal/infrastructure/metrics"
)

// Stats are the gateway counters. They only ever increase and live for
// the process lifetime.
type Stats struct {
	WatchdogTriggers uint64 `json:"watchdog_triggers"`
	MessagesSent     uint64 `json:"messages_sent"`
	MessagesReceived uint64 `json:"messages_received"`
	AcksRequested    uint64 `json:"acks_requested"`
	AcksReceived     uint64 `json:"acks_received"`
	AcksMissed       uint64 `json:"acks_missed"`
	AckPingCycles    uint64 `json:"ack_ping_cycles"`
	InvalidFrames    uint64 `json:"invalid_frames"`
	CommandsRejected uint64 `json:"commands_rejected"`
	PublishErrors    uint64 `json:"publish_errors"`
	InboxDropped     uint64 `json:"inbox_dropped"`

	LastRSSI    int       `json:"last_rssi"`
	LastFrameAt time.Time `json:"last_frame_at,omitzero"`
}

type counter int

const (
	watchdogTriggers counter = iota
	messagesSent
	messagesReceived
	acksRequested
	acksReceived
	acksMissed
	ackPingCycles
	invalidFrames
	commandsRejected
	publishErrors
	inboxDropped
	numCounters
)

var counterMetrics = [numCounters]string{
	watchdogTriggers: metrics.WatchdogTriggers,
	messagesSent:     metrics.MessagesSent,
	messagesReceived: metrics.MessagesReceived,
	acksRequested:    metrics.AcksRequested,
	acksReceived:     metrics.AcksReceived,
	acksMissed:       metrics.AcksMissed,
	ackPingCycles:    metrics.AckPingCycles,
	invalidFrames:    metrics.InvalidFrames,
	commandsRejected: metrics.CommandsRejected,
	publishErrors:    metrics.PublishErrors,
	inboxDropped:     metrics.InboxDropped,
}

// statsRecorder owns Stats and mirrors every change to Metrics.
// The MQTT callback goroutine touches it too, hence the lock.
type statsRecorder struct {
	mu          sync.Mutex
	counts      [numCounters]uint64
	lastRSSI    int
	lastFrameAt time.Time

	metrics Metrics
}

func newStatsRecorder(m Metrics) *statsRecorder {
	return &statsRecorder{metrics: m}
}

func (r *statsRecorder) inc(c counter) {
	r.mu.Lock()
	r.counts[c]++
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.IncCounter(counterMetrics[c], 1)
	}
}

func (r *statsRecorder) frameReceived(at time.Time) {
	r.mu.Lock()
	r.counts[messagesReceived]++
	r.lastFrameAt = at
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.IncCounter(metrics.MessagesReceived, 1)
	}
}

func (r *statsRecorder) setRSSI(rssi int) {
	r.mu.Lock()
	r.lastRSSI = rssi
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.SetGauge(metrics.LastRSSI, float64(rssi))
	}
}

func (r *statsRecorder) snapshot() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := r.counts
	return Stats{
		WatchdogTriggers: c[watchdogTriggers],
		MessagesSent:     c[messagesSent],
		MessagesReceived: c[messagesReceived],
		AcksRequested:    c[acksRequested],
		AcksReceived:     c[acksReceived],
		AcksMissed:       c[acksMissed],
		AckPingCycles:    c[ackPingCycles],
		InvalidFrames:    c[invalidFrames],
		CommandsRejected: c[commandsRejected],
		PublishErrors:    c[publishErrors],
		InboxDropped:     c[inboxDropped],
		LastRSSI:         r.lastRSSI,
		LastFrameAt:      r.lastFrameAt,
	}
}
