package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string          `json:"event,omitempty"`
	Reason        string          `json:"reason,omitempty"`
	Mode          string          `json:"mode"`
	Hold          bool            `json:"hold"`
	Level         string          `json:"level"`
	AlertSent     bool            `json:"alert_sent"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	StartTime     string          `json:"start_time"`
	Timestamp     string          `json:"timestamp"`
	Calibration   CalibrationJSON `json:"calibration"`
	Reading       ReadingJSON     `json:"reading"`
	LoadCell      LoadCellJSON    `json:"load_cell"`
	MQTT          MQTTStatus      `json:"mqtt"`
	Counts        CountsJSON      `json:"counts"`
	Config        ConfigJSON      `json:"config"`
}

// CalibrationJSON reports the tare state.
type CalibrationJSON struct {
	Calibrated     bool    `json:"calibrated"`
	Offset         float64 `json:"offset"`
	Noise          float64 `json:"noise"`
	NoiseThreshold float64 `json:"noise_threshold"`
	At             string  `json:"at,omitempty"`
}

// ReadingJSON is the reading in effect.
type ReadingJSON struct {
	Average     float64 `json:"average"`
	Net         float64 `json:"net"`
	Voltage     float64 `json:"voltage"`
	BridgeRatio float64 `json:"vr"`
	Strain      float64 `json:"strain"`
	Stress      float64 `json:"stress"`
	Elongation  float64 `json:"delta_l"`
	PercentLoad float64 `json:"load"`
}

// LoadCellJSON reports the load cell.
type LoadCellJSON struct {
	Grams float64 `json:"grams"`
	Hold  bool    `json:"hold"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON counts operator and alert activity since start.
type CountsJSON struct {
	Tares  int `json:"tares"`
	Alerts int `json:"alerts"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs       int64  `json:"poll_ms"`
	DebounceMs   int64  `json:"debounce_ms"`
	TelemetryMs  int64  `json:"telemetry_ms"`
	HeartbeatMs  int64  `json:"heartbeat_ms"`
	FilterWindow int    `json:"filter_window"`
	TareSamples  int    `json:"tare_samples"`
	Broker       string `json:"broker"`
	HTTPPort     string `json:"http_port"`
}

func buildInner(snap Snapshot) StatusInner {
	cal := CalibrationJSON{Calibrated: snap.Calibrated}
	if snap.Calibrated {
		cal.Offset = snap.Calibration.Offset
		cal.Noise = snap.Calibration.Noise
		cal.NoiseThreshold = snap.Calibration.NoiseThreshold
		if !snap.Calibration.At.IsZero() {
			cal.At = snap.Calibration.At.UTC().Format(time.RFC3339)
		}
	}
	r := snap.Reading

	return StatusInner{
		Mode:          snap.Mode,
		Hold:          snap.Hold,
		Level:         snap.Status.String(),
		AlertSent:     snap.AlertSent,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		Calibration:   cal,
		Reading: ReadingJSON{
			Average:     r.Average,
			Net:         r.Net,
			Voltage:     r.Voltage,
			BridgeRatio: r.BridgeRatio,
			Strain:      r.Strain,
			Stress:      r.Stress,
			Elongation:  r.Elongation,
			PercentLoad: r.PercentLoad,
		},
		LoadCell: LoadCellJSON{Grams: snap.LoadGrams, Hold: snap.LoadHold},
		MQTT:     MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts:   CountsJSON{Tares: snap.Tares, Alerts: snap.Alerts},
		Config: ConfigJSON{
			PollMs:       snap.Config.PollMs,
			DebounceMs:   snap.Config.DebounceMs,
			TelemetryMs:  snap.Config.TelemetryMs,
			HeartbeatMs:  snap.Config.HeartbeatMs,
			FilterWindow: snap.Config.FilterWindow,
			TareSamples:  snap.Config.TareSamples,
			Broker:       snap.Config.Broker,
			HTTPPort:     snap.Config.HTTPPort,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
