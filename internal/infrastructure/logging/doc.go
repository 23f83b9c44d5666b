// Package logging provides structured logging for the gateway.
//
// It wraps log/slog so every component logs with the same handler,
// level filter and default fields (service, version).
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr, discard
//
// # Usage
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Info("radio initialised", "frequency_mhz", 433)
//	logger.Component("bridge").Warn("invalid frame", "hex", "0a0b")
//
// Never log the radio encryption key or broker credentials.
package logging
