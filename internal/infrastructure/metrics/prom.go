package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter names. Each mirrors a field of the bridge stats.
const (
	WatchdogTriggers = "rfmgw_watchdog_triggers_total"
	MessagesSent     = "rfmgw_messages_sent_total"
	MessagesReceived = "rfmgw_messages_received_total"
	AcksRequested    = "rfmgw_acks_requested_total"
	AcksReceived     = "rfmgw_acks_received_total"
	AcksMissed       = "rfmgw_acks_missed_total"
	AckPingCycles    = "rfmgw_ack_ping_cycles_total"
	InvalidFrames    = "rfmgw_invalid_frames_total"
	CommandsRejected = "rfmgw_commands_rejected_total"
	PublishErrors    = "rfmgw_publish_errors_total"
	InboxDropped     = "rfmgw_inbox_dropped_total"
)

// Gauge names.
const (
	LastRSSI    = "rfmgw_last_rssi_dbm"
	InboxLength = "rfmgw_inbox_length"
)

// Histogram names.
const (
	SendLatency = "rfmgw_radio_send_latency_seconds"
)

var counterHelp = map[string]string{
	WatchdogTriggers: "Transceiver reinitialisations forced by the link watchdog.",
	MessagesSent:     "Frames handed to the transceiver for sending with retry.",
	MessagesReceived: "Frames read from the transceiver, valid or not.",
	AcksRequested:    "Received frames that requested a link-level ack.",
	AcksReceived:     "Sends confirmed by the transceiver's ack handshake.",
	AcksMissed:       "Sends that exhausted the transceiver's retries.",
	AckPingCycles:    "Reverse ack probes scheduled by the sampling policy.",
	InvalidFrames:    "Frames dropped because their length is not a record.",
	CommandsRejected: "Inbound MQTT commands with an unparseable payload.",
	PublishErrors:    "MQTT publishes that returned an error.",
	InboxDropped:     "Inbound MQTT commands dropped because the inbox was full.",
}

var gaugeHelp = map[string]string{
	LastRSSI:    "Signal strength of the most recent valid record.",
	InboxLength: "Inbound MQTT commands waiting for the bridge loop.",
}

// PromMetrics exposes gateway counters to Prometheus.
// Unknown names are ignored so callers never need to check.
type PromMetrics struct {
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
}

// NewPromMetrics creates and registers all collectors on reg.
// Pass prometheus.DefaultRegisterer in production and a fresh
// prometheus.NewRegistry() in tests.
func NewPromMetrics(reg prometheus.Registerer) *PromMetrics {
	p := &PromMetrics{
		counters: make(map[string]prometheus.Counter, len(counterHelp)),
		gauges:   make(map[string]prometheus.Gauge, len(gaugeHelp)),
		histos:   make(map[string]prometheus.Observer, 1),
	}

	collectors := make([]prometheus.Collector, 0, len(counterHelp)+len(gaugeHelp)+1)
	for name, help := range counterHelp {
		c := prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: help})
		p.counters[name] = c
		collectors = append(collectors, c)
	}
	for name, help := range gaugeHelp {
		g := prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help})
		p.gauges[name] = g
		collectors = append(collectors, g)
	}

	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    SendLatency,
		Help:    "Time spent in the transceiver's send-with-retry call.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	})
	p.histos[SendLatency] = latency
	collectors = append(collectors, latency)

	reg.MustRegister(collectors...)
	return p
}

// IncCounter adds v to the named counter.
func (p *PromMetrics) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

// SetGauge sets the named gauge.
func (p *PromMetrics) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}

// ObserveLatency records seconds in the named histogram.
func (p *PromMetrics) ObserveLatency(name string, seconds float64) {
	if h, ok := p.histos[name]; ok {
		h.Observe(seconds)
	}
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
