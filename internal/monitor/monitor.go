// Package monitor runs one control-loop tick: read inputs, debounce, maybe tare, filter,
// derive, classify and notify, actuate, render and emit periodic telemetry. All state is
// owned by the caller's loop goroutine; nothing here is safe for concurrent use.
package monitor

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sweeney/strain-sensor/internal/display"
	"github.com/sweeney/strain-sensor/internal/hw"
	"github.com/sweeney/strain-sensor/internal/input"
	"github.com/sweeney/strain-sensor/internal/loadcell"
	"github.com/sweeney/strain-sensor/internal/mqtt"
	"github.com/sweeney/strain-sensor/internal/status"
	"github.com/sweeney/strain-sensor/internal/strain"
)

// Deps are the collaborators of a Monitor. LoadCell, Display and Publisher may be nil.
type Deps struct {
	IO         hw.IO
	Controls   *input.Controller
	Gauge      *strain.Gauge
	Calibrator *strain.Calibrator
	LoadCell   *loadcell.Cell
	Display    display.Display
	Publisher  mqtt.Publisher
	Log        logrus.FieldLogger
}

// Settings are the loop parameters.
type Settings struct {
	Channel           int
	IndicatorPin      int
	AudiblePin        int
	TelemetryInterval time.Duration // 0 disables telemetry
	LoadInterval      time.Duration // minimum time between load-cell updates
}

// Monitor owns the per-tick orchestration.
type Monitor struct {
	Deps
	settings Settings

	start         time.Time
	mode          display.Mode
	lastTelemetry time.Time
	lastLoad      time.Time
	lastHeartbeat time.Time
	tares         int
	alerts        int

	analogFailing bool
	outputFailing bool
}

// New returns a monitor in strain mode. start anchors the debounce tick counter and the
// heartbeat schedule. A hold switch already closed at startup takes effect immediately.
func New(d Deps, s Settings, start time.Time) *Monitor {
	m := &Monitor{
		Deps:          d,
		settings:      s,
		start:         start,
		lastTelemetry: start,
		lastHeartbeat: start,
	}
	m.syncHold()
	return m
}

// TickMs converts now to the wrapping millisecond counter the debouncers run on.
func (m *Monitor) TickMs(now time.Time) uint32 {
	return uint32(now.Sub(m.start).Milliseconds())
}

// Mode returns the active view.
func (m *Monitor) Mode() display.Mode {
	return m.mode
}

// Tick runs one iteration of the control loop.
func (m *Monitor) Tick(now time.Time) {
	if err := m.Controls.Poll(m.TickMs(now)); err != nil {
		m.Log.Debugf("input poll: %v", err)
	}

	if m.Controls.ConsumePressed(input.Mode) {
		m.toggleMode()
	}
	if m.Controls.ConsumePressed(input.Tare) {
		m.tareActive()
	}
	// The hold event only wakes us up; the switch level is authoritative, so an event
	// dropped by ResetAll above cannot leave hold out of step.
	m.Controls.ConsumePressed(input.Hold)
	m.syncHold()

	m.sampleStrain()
	if m.mode == display.ModeLoadCell {
		m.sampleLoad(now)
	}

	st := m.Gauge.Evaluate()
	if m.Gauge.ShouldNotify() {
		m.notify(now, st)
	}
	m.actuate(st)
	m.render()

	if m.settings.TelemetryInterval > 0 && now.Sub(m.lastTelemetry) >= m.settings.TelemetryInterval {
		m.lastTelemetry = now
		m.telemetry(now, st)
	}
}

func (m *Monitor) toggleMode() {
	if m.mode == display.ModeStrain && m.LoadCell != nil {
		m.mode = display.ModeLoadCell
	} else {
		m.mode = display.ModeStrain
	}
	m.Log.Infof("mode: %s", m.mode)
	if m.Display != nil {
		m.Display.ShowModeChange(m.mode)
	}
	m.Controls.ResetAll()
}

func (m *Monitor) tareActive() {
	if m.mode == display.ModeLoadCell {
		m.TareLoadCell()
		return
	}
	if err := m.TareStrain(); err != nil {
		m.Log.Errorf("tare: %v", err)
	}
}

// syncHold follows the latching switch: LOW is held. The switch holds whichever sensors
// are fitted so the frozen values survive a mode change.
func (m *Monitor) syncHold() {
	held := m.Controls.Level(input.Hold) == input.Low
	if held == m.Gauge.Holding() {
		return
	}
	m.Gauge.SetHold(held)
	if m.LoadCell != nil {
		m.LoadCell.SetHold(held)
	}
	m.Log.Infof("hold: %v", held)
}

// TareStrain runs the blocking tare procedure and installs the result. On error the
// previous calibration stays in place.
func (m *Monitor) TareStrain() error {
	m.message("TARE...", "Keep plate still")
	m.Log.Info("tare: started")

	cal, err := m.Calibrator.Run(func() (uint16, error) {
		return m.IO.ReadAnalog(m.settings.Channel)
	})
	if err != nil {
		m.message("TARE FAILED", "")
		return err
	}
	m.Gauge.ApplyCalibration(cal)
	m.tares++
	m.Log.WithFields(logrus.Fields{
		"offset":    cal.Offset,
		"noise":     cal.Noise,
		"threshold": cal.NoiseThreshold,
		"samples":   cal.Samples,
	}).Info("tare: done")
	m.message("TARE DONE", "")
	m.Controls.ResetAll()
	return nil
}

// TareLoadCell zeroes the load cell.
func (m *Monitor) TareLoadCell() {
	if m.LoadCell == nil {
		return
	}
	m.message("TARE...", "")
	if err := m.LoadCell.Tare(); err != nil {
		m.Log.Errorf("load cell tare: %v", err)
		m.message("TARE FAILED", "")
		return
	}
	m.tares++
	m.Log.WithField("offset", m.LoadCell.Offset()).Info("load cell tare: done")
	m.message("TARE DONE", "")
	m.Controls.ResetAll()
}

func (m *Monitor) message(l1, l2 string) {
	if m.Display != nil {
		m.Display.ShowMessage(l1, l2)
	}
}

func (m *Monitor) sampleStrain() {
	s, err := m.IO.ReadAnalog(m.settings.Channel)
	if err != nil {
		if !m.analogFailing {
			m.Log.Warnf("analog read: %v", err)
			m.analogFailing = true
		}
		return
	}
	if m.analogFailing {
		m.Log.Info("analog read recovered")
		m.analogFailing = false
	}
	m.Gauge.Update(s)
}

func (m *Monitor) sampleLoad(now time.Time) {
	if m.LoadCell == nil || now.Sub(m.lastLoad) < m.settings.LoadInterval {
		return
	}
	m.lastLoad = now
	if err := m.LoadCell.Update(); err != nil {
		m.Log.Debugf("load cell: %v", err)
	}
}

// notify dispatches one alert per status change. The alert is marked sent whether or not
// the publish succeeded.
func (m *Monitor) notify(now time.Time, st strain.Status) {
	load := m.Gauge.Current().PercentLoad
	m.Log.WithField("load", load).Warnf("alert: %s: %s", st, st.Message())
	if m.Publisher != nil {
		if err := m.Publisher.PublishAlert(mqtt.NewAlert(now, st, load)); err != nil {
			m.Log.Warnf("alert publish: %v", err)
		}
	}
	m.Gauge.MarkAlertSent()
	m.alerts++
}

func (m *Monitor) actuate(st strain.Status) {
	out := strain.Actuation(st)
	err := m.IO.WriteDigital(m.settings.IndicatorPin, out.Indicator)
	if err == nil {
		err = m.IO.WriteDigital(m.settings.AudiblePin, out.Audible)
	}
	switch {
	case err != nil && !m.outputFailing:
		m.Log.Warnf("actuator write: %v", err)
		m.outputFailing = true
	case err == nil:
		m.outputFailing = false
	}
}

func (m *Monitor) render() {
	if m.Display == nil {
		return
	}
	if m.mode == display.ModeLoadCell && m.LoadCell != nil {
		m.Display.ShowLoadCell(m.LoadCell.Weight(), m.LoadCell.Holding())
		return
	}
	r := m.Gauge.Current()
	m.Display.ShowStrain(display.View{
		PercentLoad: r.PercentLoad,
		Status:      m.Gauge.Status(),
		Strain:      r.Strain,
		Hold:        m.Gauge.Holding(),
		Calibrated:  m.Gauge.Calibrated(),
	})
}

func (m *Monitor) telemetry(now time.Time, st strain.Status) {
	r := m.Gauge.Current()
	m.Log.WithFields(logrus.Fields{
		"mode":    m.mode.String(),
		"load":    r.PercentLoad,
		"net":     r.Net,
		"voltage": r.Voltage,
		"vr":      r.BridgeRatio,
		"strain":  r.Strain,
		"dl_m":    r.Elongation,
		"dl_mm":   r.Elongation * 1000,
		"stress":  r.Stress,
	}).Debug("reading")

	if m.Publisher == nil {
		return
	}
	rec := mqtt.NewStrainRecord(now, r, st, m.Gauge.Holding(), m.Gauge.Calibrated())
	if err := m.Publisher.PublishStrain(rec); err != nil {
		m.Log.Debugf("strain publish: %v", err)
	}
	if m.LoadCell != nil {
		lr := mqtt.LoadRecord{Timestamp: now, Load: m.LoadCell.Weight(), Hold: m.LoadCell.Holding()}
		if err := m.Publisher.PublishLoadCell(lr); err != nil {
			m.Log.Debugf("load publish: %v", err)
		}
	}
}

// CheckHeartbeat reports whether interval has elapsed since the last heartbeat and, if so,
// restarts the interval. A zero interval disables heartbeats.
func (m *Monitor) CheckHeartbeat(now time.Time, interval time.Duration) bool {
	if interval <= 0 || now.Sub(m.lastHeartbeat) < interval {
		return false
	}
	m.lastHeartbeat = now
	return true
}

// State returns the loop state for the status tracker.
func (m *Monitor) State() status.State {
	cal, ok := m.Gauge.Calibration()
	st := status.State{
		Mode:        m.mode.String(),
		Hold:        m.Gauge.Holding(),
		Calibrated:  ok,
		Calibration: cal,
		Reading:     m.Gauge.Current(),
		Status:      m.Gauge.Status(),
		AlertSent:   m.Gauge.AlertSent(),
		Tares:       m.tares,
		Alerts:      m.alerts,
	}
	if m.LoadCell != nil {
		st.LoadGrams = m.LoadCell.Weight()
		st.LoadHold = m.LoadCell.Holding()
	}
	return st
}
