// Package mqtt publishes readings, alerts and lifecycle events, with an abstraction for
// testing. Publishing is fire-and-forget: failures are logged by the publisher and never
// reach the control loop.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/sweeney/strain-sensor/internal/strain"
)

// Topics.
const (
	TopicStrain = "strain/sensor/strain"
	TopicLoad   = "strain/sensor/load"
	TopicAlert  = "strain/sensor/alert"
	TopicSystem = "strain/sensor/system"
)

// Publisher publishes telemetry to MQTT.
type Publisher interface {
	// PublishStrain sends a strain-gauge record.
	PublishStrain(rec StrainRecord) error

	// PublishLoadCell sends a load-cell record.
	PublishLoadCell(rec LoadRecord) error

	// PublishAlert sends an alert for a status change.
	PublishAlert(alert Alert) error

	// PublishSystem sends a system lifecycle event.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// StrainRecord is one strain-gauge telemetry sample.
type StrainRecord struct {
	Timestamp  time.Time `json:"-"`
	Time       string    `json:"timestamp"`
	AvgVoltage float64   `json:"avg_voltage"`
	DeltaL     float64   `json:"delta_l"`
	Load       float64   `json:"load"`
	Strain     float64   `json:"strain"`
	Stress     float64   `json:"stress"`
	Vr         float64   `json:"vr"`
	Status     string    `json:"status"`
	Hold       bool      `json:"hold"`
	Calibrated bool      `json:"calibrated"`
}

// NewStrainRecord builds a record from a reading.
func NewStrainRecord(ts time.Time, r strain.Reading, s strain.Status, hold, calibrated bool) StrainRecord {
	return StrainRecord{
		Timestamp:  ts,
		AvgVoltage: r.Voltage,
		DeltaL:     r.Elongation,
		Load:       r.PercentLoad,
		Strain:     r.Strain,
		Stress:     r.Stress,
		Vr:         r.BridgeRatio,
		Status:     s.String(),
		Hold:       hold,
		Calibrated: calibrated,
	}
}

// LoadRecord is one load-cell telemetry sample, in grams.
type LoadRecord struct {
	Timestamp time.Time `json:"-"`
	Time      string    `json:"timestamp"`
	Load      float64   `json:"load"`
	Hold      bool      `json:"hold"`
}

// Alert is a notification for a non-normal status.
type Alert struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"-"`
	Time      string    `json:"timestamp"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	Load      float64   `json:"load"`
}

// NewAlert returns an alert for s with a fresh identifier.
func NewAlert(ts time.Time, s strain.Status, load float64) Alert {
	return Alert{
		ID:        uuid.NewString(),
		Timestamp: ts,
		Message:   s.Message(),
		Type:      s.Tag(),
		Load:      load,
	}
}

func stamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// FormatStrain creates the JSON payload for a strain record.
func FormatStrain(rec StrainRecord) ([]byte, error) {
	rec.Time = stamp(rec.Timestamp)
	return json.Marshal(rec)
}

// FormatLoad creates the JSON payload for a load-cell record.
func FormatLoad(rec LoadRecord) ([]byte, error) {
	rec.Time = stamp(rec.Timestamp)
	return json.Marshal(rec)
}

// FormatAlert creates the JSON payload for an alert.
func FormatAlert(a Alert) ([]byte, error) {
	a.Time = stamp(a.Timestamp)
	return json.Marshal(a)
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: stamp(event.Timestamp),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
