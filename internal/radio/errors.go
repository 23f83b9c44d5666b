package radio

import "errors"

// Domain errors for the radio package.
var (
	// ErrTimeout is returned when the transceiver does not answer a
	// request within the send timeout.
	ErrTimeout = errors.New("radio: operation timed out")

	// ErrClosed is returned once the link to the transceiver is gone.
	ErrClosed = errors.New("radio: link closed")

	// ErrNoFrame is returned by Read when no frame is queued.
	ErrNoFrame = errors.New("radio: no frame ready")

	// ErrInvalidKey is returned for an encryption key that is neither
	// empty nor exactly 16 bytes.
	ErrInvalidKey = errors.New("radio: encryption key must be 0 or 16 bytes")

	// ErrInvalidBand is returned for an unsupported frequency.
	ErrInvalidBand = errors.New("radio: unsupported frequency band")

	// ErrLinkProtocol is returned for malformed host link packets.
	ErrLinkProtocol = errors.New("radio: link protocol error")

	// ErrRejected is returned when the transceiver refuses a request.
	ErrRejected = errors.New("radio: request rejected by transceiver")
)
