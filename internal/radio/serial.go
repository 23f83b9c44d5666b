package radio

import (
	"fmt"

	"go.bug.st/serial"
)

// DefaultBaudRate matches the co-processor firmware.
const DefaultBaudRate = 115200

// OpenSerial opens the co-processor's USB serial port (8N1).
func OpenSerial(device string, baud int) (serial.Port, error) {
	if baud <= 0 {
		baud = DefaultBaudRate
	}

	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(device, mode)
	if err != nil {
		return nil, fmt.Errorf("opening serial port %s: %w", device, err)
	}
	return port, nil
}
