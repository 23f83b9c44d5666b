package rfm69

import "errors"

// Domain errors for the RFM69 bridge package.
var (
	// ErrInvalidLength is returned when a radio frame is not exactly one
	// WireRecord long.
	ErrInvalidLength = errors.New("rfm69: invalid record length")

	// ErrInvalidTopic is returned when an inbound MQTT topic does not
	// match <root>/<network>/<node>.
	ErrInvalidTopic = errors.New("rfm69: invalid command topic")

	// ErrWrongNetwork is returned when an inbound command addresses a
	// network other than the configured one.
	ErrWrongNetwork = errors.New("rfm69: command for another network")

	// ErrInvalidPayload is returned when an inbound command payload is not
	// sensorId,counter,floatA,floatB.
	ErrInvalidPayload = errors.New("rfm69: invalid command payload")

	// ErrReinitFailed is returned when the transceiver cannot be
	// (re)initialised. The bridge loop stops on it.
	ErrReinitFailed = errors.New("rfm69: transceiver initialisation failed")

	// ErrNotRunning is returned by HealthCheck when the loop is not running.
	ErrNotRunning = errors.New("rfm69: bridge not running")
)
