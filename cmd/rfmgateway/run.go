package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/rfm-gateway/internal/api"
	"github.com/nerrad567/rfm-gateway/internal/bridges/rfm69"
	"github.com/nerrad567/rfm-gateway/internal/infrastructure/config"
	"github.com/nerrad567/rfm-gateway/internal/infrastructure/influxdb"
	"github.com/nerrad567/rfm-gateway/internal/infrastructure/logging"
	"github.com/nerrad567/rfm-gateway/internal/infrastructure/metrics"
	"github.com/nerrad567/rfm-gateway/internal/infrastructure/mqtt"
	"github.com/nerrad567/rfm-gateway/internal/radio"
)

// run is the gateway lifecycle, separated from main for testability.
// It returns nil on a clean shutdown (ctx cancelled) and an error when
// startup fails or the transceiver cannot be reinitialised.
func run(ctx context.Context, configPath string) error {
	log := logging.Default()
	log.Info("starting rfm-gateway",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	settings, err := radioSettings(cfg.Radio)
	if err != nil {
		return fmt.Errorf("radio settings: %w", err)
	}

	// The broker is mandatory: without it there is nowhere to publish.
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log.Component("mqtt"))
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	var sink rfm69.TelemetrySink
	influxClient, err := influxdb.Connect(ctx, cfg.InfluxDB)
	switch {
	case errors.Is(err, influxdb.ErrDisabled):
		log.Info("InfluxDB disabled")
	case err != nil:
		log.Warn("InfluxDB unavailable, continuing without history", "error", err)
	default:
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		sink = influxSink{client: influxClient}
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	promMetrics := metrics.NewPromMetrics(registry)

	g, gctx := errgroup.WithContext(ctx)

	trx, err := openTransceiver(gctx, cfg.Radio, log.Component("radio"))
	if err != nil {
		return fmt.Errorf("opening transceiver: %w", err)
	}
	defer func() {
		if closeErr := trx.Close(); closeErr != nil {
			log.Error("error closing transceiver", "error", closeErr)
		}
	}()

	bridge, err := rfm69.NewBridge(rfm69.BridgeOptions{
		Config: rfm69.Config{
			Root:            cfg.MQTT.Root,
			PublishPrefix:   cfg.MQTT.PublishPrefix,
			QoS:             byte(cfg.MQTT.QoS), // #nosec G115 -- validated 0..2
			Settings:        settings,
			WatchdogTimeout: cfg.Bridge.WatchdogTimeout,
			PollInterval:    cfg.Bridge.PollInterval,
			ProbeEvery:      cfg.Bridge.AckProbeEvery,
			ProbeDelay:      cfg.Bridge.AckProbeDelay,
			HealthInterval:  cfg.Bridge.HealthInterval,
			InboxSize:       cfg.Bridge.InboxSize,
			HealthTopic:     mqttClient.Topics().Health(),
			GatewayID:       cfg.Gateway.ID,
			Version:         version,
		},
		MQTTClient: &mqttBridgeAdapter{client: mqttClient},
		Radio:      trx,
		Sink:       sink,
		Metrics:    promMetrics,
		Logger:     log.Component("rfm69"),
	})
	if err != nil {
		return fmt.Errorf("creating bridge: %w", err)
	}

	if err := bridge.Start(gctx); err != nil {
		return fmt.Errorf("starting bridge: %w", err)
	}
	log.Info("bridge started",
		"frequency", settings.Band.String(),
		"network_id", settings.NetworkID,
		"node_id", settings.NodeID,
		"driver", cfg.Radio.Driver,
	)

	g.Go(func() error {
		return bridge.Run(gctx)
	})

	g.Go(func() error {
		return trx.Wait(gctx)
	})

	if cfg.API.Enabled {
		checks := map[string]api.HealthChecker{
			"bridge": bridge,
			"mqtt":   mqttClient,
		}
		if sink != nil {
			checks["influxdb"] = influxClient
		}

		srv, err := api.New(api.Deps{
			Config:  cfg.API,
			Logger:  log.Component("api"),
			Stats:   bridge,
			Checks:  checks,
			Metrics: metrics.Handler(registry),
			Version: version,
		})
		if err != nil {
			return fmt.Errorf("creating API server: %w", err)
		}
		g.Go(func() error {
			return srv.Run(gctx)
		})
	}

	log.Info("initialisation complete, waiting for shutdown signal")
	if err := g.Wait(); err != nil {
		return err
	}

	log.Info("rfm-gateway stopped", "stats", bridge.Stats())
	return nil
}

// radioSettings converts the radio config section.
func radioSettings(rc config.RadioConfig) (radio.Settings, error) {
	band, err := radio.BandFromMHz(rc.Frequency)
	if err != nil {
		return radio.Settings{}, err
	}
	key, err := rc.Key()
	if err != nil {
		return radio.Settings{}, err
	}

	s := radio.Settings{
		Band:        band,
		NodeID:      uint16(rc.NodeID),   // #nosec G115 -- validated 0..255
		NetworkID:   uint8(rc.NetworkID), // #nosec G115 -- validated 0..255
		Key:         key,
		HighPower:   rc.HighPower,
		Promiscuous: rc.Promiscuous,
	}
	return s, s.Validate()
}
