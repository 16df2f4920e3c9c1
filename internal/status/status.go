// Package status provides a thread-safe status tracker for the strain-sensor daemon.
// The control loop writes it once per tick; HTTP handlers and telemetry read snapshots.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/strain-sensor/internal/strain"
)

// Config contains daemon configuration for display.
type Config struct {
	PollMs       int64
	DebounceMs   int64
	TelemetryMs  int64
	HeartbeatMs  int64
	FilterWindow int
	TareSamples  int
	Broker       string
	HTTPPort     string
}

// State is what the control loop reports each tick.
type State struct {
	Mode        string
	Hold        bool
	Calibrated  bool
	Calibration strain.Calibration
	Reading     strain.Reading
	Status      strain.Status
	AlertSent   bool
	LoadGrams   float64
	LoadHold    bool
	Tares       int
	Alerts      int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	State
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
			State:     State{Mode: "strain"},
		},
		now: time.Now,
	}
}

// Update replaces the loop state.
func (t *Tracker) Update(s State) {
	t.mu.Lock()
	t.snap.State = s
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = t.now()
	return s
}
