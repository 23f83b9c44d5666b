package radio

import (
	"fmt"
)

// KeySize is the only non-zero AES key length the RFM69 engine accepts.
const KeySize = 16

// Band is an RFM69 frequency band in MHz.
type Band int

// Supported frequency bands.
const (
	Band433 Band = 433
	Band868 Band = 868
	Band915 Band = 915
)

// BandFromMHz maps a configured frequency to a Band.
func BandFromMHz(mhz int) (Band, error) {
	switch Band(mhz) {
	case Band433, Band868, Band915:
		return Band(mhz), nil
	default:
		return 0, fmt.Errorf("%w: %d MHz", ErrInvalidBand, mhz)
	}
}

// MHz returns the band centre frequency in MHz.
func (b Band) MHz() int {
	return int(b)
}

// String implements fmt.Stringer.
func (b Band) String() string {
	return fmt.Sprintf("%d MHz", int(b))
}

// Settings are applied to the transceiver at start-up and on every
// watchdog reinitialisation. They never change while the process runs.
type Settings struct {
	Band        Band
	NodeID      uint16
	NetworkID   uint8
	Key         []byte // empty disables encryption
	HighPower   bool
	Promiscuous bool
}

// Validate checks the settings before they reach the transceiver.
func (s Settings) Validate() error {
	if _, err := BandFromMHz(int(s.Band)); err != nil {
		return err
	}
	if len(s.Key) != 0 && len(s.Key) != KeySize {
		return fmt.Errorf("%w: got %d bytes", ErrInvalidKey, len(s.Key))
	}
	return nil
}

// EncryptionEnabled reports whether a key is configured.
func (s Settings) EncryptionEnabled() bool {
	return len(s.Key) == KeySize
}

// RawFrame is one packet as received by the transceiver.
type RawFrame struct {
	SenderID     uint16
	TargetID     uint16
	Data         []byte
	RSSI         int
	AckRequested bool
}

// Logger is the structured logger used by the drivers.
// *logging.Logger satisfies it.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}
