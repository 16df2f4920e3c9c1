// Package input turns raw active-low button levels into debounced, consume-once events.
// Time is a wrapping millisecond tick counter supplied by the caller; the package does no I/O
// except through the PinReader handed to a Controller.
package input

import "time"

// Levels of an active-low input with pull-up.
const (
	Low  = false
	High = true
)

// DefaultWindow is the settling time a raw level must hold before it is accepted.
const DefaultWindow = 50 * time.Millisecond

// Kind selects how stable transitions map to events.
type Kind int

const (
	// Momentary fires once per press: on a stable HIGH->LOW transition while the
	// active latch is clear.
	Momentary Kind = iota
	// Latching fires on every stable transition; callers read Stable for direction.
	Latching
)

func (k Kind) String() string {
	if k == Latching {
		return "latching"
	}
	return "momentary"
}

// Debouncer tracks one input.
type Debouncer struct {
	kind     Kind
	windowMs uint32

	lastRaw   bool   // last observed raw level, not yet necessarily accepted
	changedAt uint32 // tick at which lastRaw was first observed
	stable    bool   // accepted level
	active    bool   // momentary only: stable LOW seen, waiting for release
	pending   bool   // event waiting to be consumed
}

// NewDebouncer seeds the debouncer from the current raw level so that wiring which holds
// the input LOW at startup does not produce a spurious event.
func NewDebouncer(kind Kind, window time.Duration, initial bool, nowMs uint32) *Debouncer {
	return &Debouncer{
		kind:      kind,
		windowMs:  uint32(window / time.Millisecond),
		lastRaw:   initial,
		changedAt: nowMs,
		stable:    initial,
		active:    kind == Momentary && initial == Low,
	}
}

// Update feeds one raw sample taken at nowMs and reports whether an event fired on this
// tick. A raw change restarts the settling window; the level is promoted to stable only
// once more than the window has elapsed since the last change.
func (d *Debouncer) Update(raw bool, nowMs uint32) bool {
	if raw != d.lastRaw {
		d.lastRaw = raw
		d.changedAt = nowMs
		return false
	}

	// unsigned subtraction keeps this correct across counter wraparound
	if nowMs-d.changedAt <= d.windowMs {
		return false
	}

	if d.lastRaw == d.stable {
		return false
	}
	d.stable = d.lastRaw

	switch d.kind {
	case Latching:
		d.pending = true
		return true
	default:
		if d.stable == Low {
			if d.active {
				return false
			}
			d.active = true
			d.pending = true
			return true
		}
		d.active = false
		return false
	}
}

// Stable returns the accepted level.
func (d *Debouncer) Stable() bool {
	return d.stable
}

// Pending reports whether an event is waiting, without consuming it.
func (d *Debouncer) Pending() bool {
	return d.pending
}

// Consume returns true at most once per event and clears it.
func (d *Debouncer) Consume() bool {
	p := d.pending
	d.pending = false
	return p
}

// Clear drops any pending event.
func (d *Debouncer) Clear() {
	d.pending = false
}
