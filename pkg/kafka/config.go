package kafka

import (
	"time"
)

// Config holds Kafka producer configuration
type Config struct {
	Brokers  []string
	ClientID string

	BatchSize    int
	BatchTimeout time.Duration
	RequiredAcks int // 0: no ack, 1: leader ack, -1: all replicas ack
	WriteTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Brokers:  []string{"localhost:9092"},
		ClientID: "fulfillment-scheduler",

		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: -1,
		WriteTimeout: 10 * time.Second,
	}
}

// Topics contains the Kafka topics the scheduler writes to
var Topics = struct {
	WavesEvents         string
	PickingEvents       string
	LaborEvents         string
	NotificationsEvents string
}{
	WavesEvents:         "wms.waves.events",
	PickingEvents:       "wms.picking.events",
	LaborEvents:         "wms.labor.events",
	NotificationsEvents: "wms.notifications.events",
}
