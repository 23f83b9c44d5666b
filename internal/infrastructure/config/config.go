package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Radio driver names accepted in radio.driver.
const (
	DriverSerial    = "serial"
	DriverWebSocket = "websocket"
	DriverSim       = "sim"
)

// encryptKeyLength is the only non-zero key length the RFM69 AES engine accepts.
const encryptKeyLength = 16

// Config is the root configuration structure for the RFM69 gateway.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Gateway  GatewayConfig  `yaml:"gateway"`
	Radio    RadioConfig    `yaml:"radio"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Bridge   BridgeConfig   `yaml:"bridge"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	API      APIConfig      `yaml:"api"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// GatewayConfig identifies this gateway instance.
type GatewayConfig struct {
	ID string `yaml:"id"`
}

// RadioConfig describes the transceiver and how to reach it.
type RadioConfig struct {
	// Driver selects the transceiver link: "serial", "websocket" or "sim".
	Driver string `yaml:"driver"`

	// Device and Baud are used by the serial driver.
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`

	// URL, Username and Password are used by the websocket driver.
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	NetworkID   int    `yaml:"network_id"`
	NodeID      int    `yaml:"node_id"`
	Frequency   int    `yaml:"frequency"` // MHz: 433, 868 or 915
	EncryptKey  string `yaml:"encrypt_key"`
	HighPower   bool   `yaml:"high_power"`
	Promiscuous bool   `yaml:"promiscuous"`

	// SendTimeout bounds a single send-with-retry round trip to the co-processor.
	SendTimeout time.Duration `yaml:"send_timeout"`

	// SimInterval makes the sim driver emit a synthetic record at this rate.
	// Zero disables synthetic traffic.
	SimInterval time.Duration `yaml:"sim_interval"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`

	// Root is the topic root used for commands and gateway status ("RFM").
	Root string `yaml:"root"`

	// PublishPrefix is prepended to telemetry topics. An empty string
	// publishes bare topics such as "0521".
	PublishPrefix string `yaml:"publish_prefix"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings, in seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// BridgeConfig tunes the radio/MQTT bridge loop.
type BridgeConfig struct {
	WatchdogTimeout time.Duration `yaml:"watchdog_timeout"`
	PollInterval    time.Duration `yaml:"poll_interval"`
	AckProbeEvery   int           `yaml:"ack_probe_every"`
	AckProbeDelay   time.Duration `yaml:"ack_probe_delay"`
	HealthInterval  time.Duration `yaml:"health_interval"`
	InboxSize       int           `yaml:"inbox_size"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// APIConfig contains the status HTTP server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings, in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern RFMGW_SECTION_KEY,
// for example RFMGW_MQTT_HOST or RFMGW_RADIO_NETWORK_ID.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the built-in configuration, as used when no file sets a value.
func Default() *Config {
	return defaultConfig()
}

// defaultConfig mirrors the stock piGateway deployment: 433 MHz,
// network 101, gateway node 1, a 30 minute link watchdog.
func defaultConfig() *Config {
	return &Config{
		Gateway: GatewayConfig{
			ID: "rfm-gateway",
		},
		Radio: RadioConfig{
			Driver:      DriverSerial,
			Device:      "/dev/ttyUSB0",
			Baud:        115200,
			NetworkID:   101,
			NodeID:      1,
			Frequency:   433,
			HighPower:   true,
			SendTimeout: time.Second,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "rfm-gateway",
			},
			QoS: 0,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
			Root:          "RFM",
			PublishPrefix: "RFM",
		},
		Bridge: BridgeConfig{
			WatchdogTimeout: 30 * time.Minute,
			PollInterval:    10 * time.Millisecond,
			AckProbeEvery:   3,
			AckProbeDelay:   3 * time.Millisecond,
			HealthInterval:  30 * time.Second,
			InboxSize:       64,
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 9101,
			Timeouts: APITimeoutConfig{
				Read:  10,
				Write: 10,
				Idle:  60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies RFMGW_* environment variables on top of the file.
// Numeric variables that do not parse are reported rather than ignored.
func applyEnvOverrides(cfg *Config) error {
	var errs []string

	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		v := os.Getenv(key)
		if v == "" {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %q is not an integer", key, v))
			return
		}
		*dst = n
	}

	setString("RFMGW_GATEWAY_ID", &cfg.Gateway.ID)

	setString("RFMGW_RADIO_DRIVER", &cfg.Radio.Driver)
	setString("RFMGW_RADIO_DEVICE", &cfg.Radio.Device)
	setString("RFMGW_RADIO_URL", &cfg.Radio.URL)
	setString("RFMGW_RADIO_PASSWORD", &cfg.Radio.Password)
	setString("RFMGW_RADIO_ENCRYPT_KEY", &cfg.Radio.EncryptKey)
	setInt("RFMGW_RADIO_NETWORK_ID", &cfg.Radio.NetworkID)
	setInt("RFMGW_RADIO_NODE_ID", &cfg.Radio.NodeID)

	setString("RFMGW_MQTT_HOST", &cfg.MQTT.Broker.Host)
	setInt("RFMGW_MQTT_PORT", &cfg.MQTT.Broker.Port)
	setString("RFMGW_MQTT_USERNAME", &cfg.MQTT.Auth.Username)
	setString("RFMGW_MQTT_PASSWORD", &cfg.MQTT.Auth.Password)

	setString("RFMGW_INFLUXDB_TOKEN", &cfg.InfluxDB.Token)

	setString("RFMGW_LOG_LEVEL", &cfg.Logging.Level)

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Validate checks the configuration for errors.
// All problems are collected so a single run reports every bad field.
func (c *Config) Validate() error {
	var errs []string

	if c.Gateway.ID == "" {
		errs = append(errs, "gateway.id is required")
	}

	// Radio
	switch c.Radio.Driver {
	case DriverSerial:
		if c.Radio.Device == "" {
			errs = append(errs, "radio.device is required for the serial driver")
		}
		if c.Radio.Baud <= 0 {
			errs = append(errs, "radio.baud must be positive")
		}
	case DriverWebSocket:
		if !strings.HasPrefix(c.Radio.URL, "ws://") && !strings.HasPrefix(c.Radio.URL, "wss://") {
			errs = append(errs, "radio.url must start with ws:// or wss://")
		}
	case DriverSim:
	default:
		errs = append(errs, fmt.Sprintf("radio.driver %q must be serial, websocket or sim", c.Radio.Driver))
	}
	if c.Radio.NetworkID < 0 || c.Radio.NetworkID > 255 {
		errs = append(errs, "radio.network_id must be between 0 and 255")
	}
	if c.Radio.NodeID < 0 || c.Radio.NodeID > 255 {
		errs = append(errs, "radio.node_id must be between 0 and 255")
	}
	switch c.Radio.Frequency {
	case 433, 868, 915:
	default:
		errs = append(errs, "radio.frequency must be 433, 868 or 915")
	}
	if _, err := c.Radio.Key(); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Radio.SendTimeout <= 0 {
		errs = append(errs, "radio.send_timeout must be positive")
	}

	// MQTT
	if c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Root == "" || strings.ContainsAny(c.MQTT.Root, "+#") {
		errs = append(errs, "mqtt.root must be a non-empty topic level without wildcards")
	}
	if strings.ContainsAny(c.MQTT.PublishPrefix, "+#") {
		errs = append(errs, "mqtt.publish_prefix must not contain wildcards")
	}

	// Bridge
	if c.Bridge.WatchdogTimeout <= 0 {
		errs = append(errs, "bridge.watchdog_timeout must be positive")
	}
	if c.Bridge.PollInterval <= 0 {
		errs = append(errs, "bridge.poll_interval must be positive")
	}
	if c.Bridge.AckProbeEvery < 1 {
		errs = append(errs, "bridge.ack_probe_every must be at least 1")
	}
	if c.Bridge.AckProbeDelay < 0 {
		errs = append(errs, "bridge.ack_probe_delay must not be negative")
	}
	if c.Bridge.InboxSize < 1 {
		errs = append(errs, "bridge.inbox_size must be at least 1")
	}

	// InfluxDB
	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.bucket is required when influxdb is enabled")
		}
	}

	// API
	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// Key decodes the encryption key. Keys are written either as 16 raw
// characters or as 32 hex digits; an empty key disables encryption.
func (r RadioConfig) Key() ([]byte, error) {
	switch len(r.EncryptKey) {
	case 0:
		return nil, nil
	case encryptKeyLength:
		return []byte(r.EncryptKey), nil
	case encryptKeyLength * 2:
		key, err := hex.DecodeString(r.EncryptKey)
		if err != nil {
			return nil, fmt.Errorf("radio.encrypt_key is not valid hex: %w", err)
		}
		return key, nil
	default:
		return nil, fmt.Errorf("radio.encrypt_key must be empty, 16 characters or 32 hex digits (got %d characters)", len(r.EncryptKey))
	}
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
