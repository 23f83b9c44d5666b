package mqtt

import "fmt"

// DefaultRoot is the topic root used when none is configured.
const DefaultRoot = "RFM"

// Topics builds the gateway's own topics under a configurable root.
// Telemetry and command topics are owned by the rfm69 bridge; this
// builder covers the topics the connection itself publishes.
//
//	topics := mqtt.Topics{Root: "RFM"}
//	topics.Status() // "RFM/gateway/status"
type Topics struct {
	Root string
}

func (t Topics) root() string {
	if t.Root == "" {
		return DefaultRoot
	}
	return t.Root
}

// Status is the retained online/offline topic, also used for the Last Will.
//
// Example: RFM/gateway/status
func (t Topics) Status() string {
	return fmt.Sprintf("%s/gateway/status", t.root())
}

// Health is the retained periodic health topic.
//
// Example: RFM/gateway/health
func (t Topics) Health() string {
	return fmt.Sprintf("%s/gateway/health", t.root())
}

// All matches every topic under the root. Intended for diagnostics only.
//
// Pattern: RFM/#
func (t Topics) All() string {
	return fmt.Sprintf("%s/#", t.root())
}
