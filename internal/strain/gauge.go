package strain

// Gauge owns the per-tick state of one strain channel: filter, calibration, live reading,
// hold snapshot and alert tracker. It is not safe for concurrent use.
type Gauge struct {
	params     Params
	filter     *Filter
	cal        Calibration
	calibrated bool

	live Reading
	held *Reading

	alerts AlertTracker
}

// NewGauge returns an uncalibrated gauge. Until ApplyCalibration is called the offset and
// threshold are zero.
func NewGauge(p Params) *Gauge {
	return &Gauge{params: p, filter: NewFilter(p.FilterWindow)}
}

// ApplyCalibration installs cal and reseeds the filter to its offset so the average does
// not need a full window to settle.
func (g *Gauge) ApplyCalibration(cal Calibration) {
	g.cal = cal
	g.calibrated = true
	g.filter.Seed(cal.Offset)
}

// Calibration returns the current calibration and whether one has been applied.
func (g *Gauge) Calibration() (Calibration, bool) {
	return g.cal, g.calibrated
}

// Calibrated reports whether a tare has completed.
func (g *Gauge) Calibrated() bool {
	return g.calibrated
}

// Update ingests one raw sample and returns the reading in effect: the live derivation, or
// the frozen snapshot while held. The filter ingests samples in both cases.
func (g *Gauge) Update(sample uint16) Reading {
	g.filter.Push(sample)
	if g.held != nil {
		return *g.held
	}
	g.live = Derive(g.filter.Average(), g.cal, g.params)
	return g.live
}

// SetHold freezes (true) or releases (false) the reported reading. Entering hold snapshots
// the last live reading; calling it again with the same value is a no-op.
func (g *Gauge) SetHold(on bool) {
	switch {
	case on && g.held == nil:
		snap := g.live
		g.held = &snap
	case !on:
		g.held = nil
	}
}

// Holding reports whether the reading is frozen.
func (g *Gauge) Holding() bool {
	return g.held != nil
}

// Current returns the reading in effect without ingesting a sample.
func (g *Gauge) Current() Reading {
	if g.held != nil {
		return *g.held
	}
	return g.live
}

// Live returns the last live reading, even while held.
func (g *Gauge) Live() Reading {
	return g.live
}

// Evaluate classifies the reading in effect and feeds the alert tracker.
func (g *Gauge) Evaluate() Status {
	s := Classify(g.Current().PercentLoad)
	g.alerts.Observe(s)
	return s
}

// Status is the last evaluated status.
func (g *Gauge) Status() Status {
	return g.alerts.Status()
}

// ShouldNotify reports whether an alert for the current status is due.
func (g *Gauge) ShouldNotify() bool {
	return g.alerts.ShouldNotify()
}

// MarkAlertSent records the alert for the current status as dispatched.
func (g *Gauge) MarkAlertSent() {
	g.alerts.MarkSent()
}

// AlertSent reports whether the current status has been notified.
func (g *Gauge) AlertSent() bool {
	return g.alerts.Sent()
}

// Filter exposes the moving average for inspection.
func (g *Gauge) Filter() *Filter {
	return g.filter
}

// Params returns the constants the gauge derives with.
func (g *Gauge) Params() Params {
	return g.params
}
