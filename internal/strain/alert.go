package strain

// Status is the severity of the current load, ordered by ascending severity.
type Status int

const (
	Normal Status = iota
	Notice
	Warning
	Danger
)

// Load thresholds in percent, evaluated high to low.
const (
	NoticePercent  = 50.0
	WarningPercent = 70.0
	DangerPercent  = 90.0
)

func (s Status) String() string {
	switch s {
	case Notice:
		return "NOTICE"
	case Warning:
		return "WARNING"
	case Danger:
		return "DANGER"
	default:
		return "NORMAL"
	}
}

// Message is the operator-facing alert text for s. Normal has none.
func (s Status) Message() string {
	switch s {
	case Notice:
		return "Strain level elevated"
	case Warning:
		return "High strain detected"
	case Danger:
		return "Load capacity exceeded (≥90%)"
	default:
		return ""
	}
}

// Tag is the alert severity tag sent with telemetry.
func (s Status) Tag() string {
	switch s {
	case Notice:
		return "info"
	case Warning:
		return "warning"
	case Danger:
		return "danger"
	default:
		return ""
	}
}

// Classify maps a percent load to a status.
func Classify(percent float64) Status {
	switch {
	case percent >= DangerPercent:
		return Danger
	case percent >= WarningPercent:
		return Warning
	case percent >= NoticePercent:
		return Notice
	default:
		return Normal
	}
}

// AlertTracker suppresses repeat notifications while a status persists. The sent flag is
// cleared only when the observed status changes.
type AlertTracker struct {
	last Status
	sent bool
}

// Observe records the current status and reports whether it changed.
func (a *AlertTracker) Observe(s Status) bool {
	if s == a.last {
		return false
	}
	a.last = s
	a.sent = false
	return true
}

// Status is the last observed status.
func (a *AlertTracker) Status() Status {
	return a.last
}

// ShouldNotify is true when a non-normal status has not yet been notified.
func (a *AlertTracker) ShouldNotify() bool {
	return a.last != Normal && !a.sent
}

// MarkSent records that a notification was dispatched for the current status.
func (a *AlertTracker) MarkSent() {
	a.sent = true
}

// Sent reports whether the current status has been notified.
func (a *AlertTracker) Sent() bool {
	return a.sent
}

// Outputs are the levels of the two local actuators.
type Outputs struct {
	Indicator bool
	Audible   bool
}

// Actuation maps a status to actuator levels.
func Actuation(s Status) Outputs {
	switch s {
	case Normal:
		return Outputs{}
	case Notice:
		return Outputs{Indicator: true}
	default:
		return Outputs{Indicator: true, Audible: true}
	}
}
