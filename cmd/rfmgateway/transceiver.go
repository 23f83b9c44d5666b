package main

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/nerrad567/rfm-gateway/internal/bridges/rfm69"
	"github.com/nerrad567/rfm-gateway/internal/infrastructure/config"
	"github.com/nerrad567/rfm-gateway/internal/radio"
)

// transceiver is an opened radio driver plus its lifecycle hooks.
type transceiver struct {
	rfm69.Transceiver

	// wait blocks until ctx is done (nil) or the link dies (error).
	wait  func(ctx context.Context) error
	close func() error
}

func (t *transceiver) Wait(ctx context.Context) error { return t.wait(ctx) }
func (t *transceiver) Close() error                   { return t.close() }

// openTransceiver opens the driver selected by radio.driver.
func openTransceiver(ctx context.Context, rc config.RadioConfig, log radio.Logger) (*transceiver, error) {
	switch rc.Driver {
	case config.DriverSerial:
		port, err := radio.OpenSerial(rc.Device, rc.Baud)
		if err != nil {
			return nil, err
		}
		log.Info("serial link open", "device", rc.Device, "baud", rc.Baud)
		return linkTransceiver(radio.NewLink(port, radio.LinkOptions{SendTimeout: rc.SendTimeout, Logger: log})), nil

	case config.DriverWebSocket:
		conn, err := radio.DialWebSocket(ctx, rc.URL, rc.Username, rc.Password)
		if err != nil {
			return nil, err
		}
		log.Info("websocket link open", "url", rc.URL)
		return linkTransceiver(radio.NewLink(conn, radio.LinkOptions{SendTimeout: rc.SendTimeout, Logger: log})), nil

	case config.DriverSim:
		sim := radio.NewSim()
		gen := &simTraffic{sim: sim, interval: rc.SimInterval}
		log.Info("simulated transceiver", "interval", rc.SimInterval.String())
		return &transceiver{Transceiver: sim, wait: gen.run, close: sim.Close}, nil

	default:
		return nil, fmt.Errorf("unknown radio driver %q", rc.Driver)
	}
}

func linkTransceiver(l *radio.Link) *transceiver {
	return &transceiver{
		Transceiver: l,
		wait: func(ctx context.Context) error {
			select {
			case <-ctx.Done():
				return nil
			case <-l.Done():
				return fmt.Errorf("transceiver link lost: %w", l.Err())
			}
		},
		close: l.Close,
	}
}

// simTraffic injects synthetic records into a Sim so a bench setup shows
// traffic on the broker. Every other frame asks for an ack.
type simTraffic struct {
	sim      *radio.Sim
	interval time.Duration
	counter  uint32
}

// simNodes are the sender ids cycled through by simTraffic.
var simNodes = []int16{2, 3, 5}

func (g *simTraffic) run(ctx context.Context) error {
	if g.interval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			g.sim.Inject(g.next())
		}
	}
}

func (g *simTraffic) next() radio.RawFrame {
	n := g.counter
	g.counter++

	node := simNodes[int(n)%len(simNodes)]
	phase := float64(n) / 10
	rec := rfm69.WireRecord{
		NodeID:   node,
		SensorID: 1,
		Counter:  n,
		FloatA:   float32(20 + 2*math.Sin(phase)), // temperature-ish
		FloatB:   float32(50 + 5*math.Cos(phase)), // humidity-ish
	}

	return radio.RawFrame{
		SenderID:     uint16(node), // #nosec G115 -- positive constants
		TargetID:     1,
		Data:         rfm69.EncodeRecord(rec),
		RSSI:         -40 - int(n%30),
		AckRequested: n%2 == 0,
	}
}
