// Package display renders readings on a 20x4 character LCD. Rendering is rate-limited and
// device errors are logged, never returned: a missing or failing panel must not stall the
// control loop.
package display

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sweeney/strain-sensor/internal/strain"
)

// Panel geometry.
const (
	Cols = 20
	Rows = 4
)

// DefaultInterval between live redraws.
const DefaultInterval = 500 * time.Millisecond

// DefaultMessageDwell is how long mode and message screens stay up before live screens
// may redraw over them.
const DefaultMessageDwell = time.Second

// Mode is the active sensor view.
type Mode int

const (
	ModeStrain Mode = iota
	ModeLoadCell
)

func (m Mode) String() string {
	if m == ModeLoadCell {
		return "loadcell"
	}
	return "strain"
}

// Title is the name shown on the mode-change screen.
func (m Mode) Title() string {
	if m == ModeLoadCell {
		return "LOAD CELL"
	}
	return "STRAIN GAUGE"
}

// View is the read-only snapshot the strain screen renders.
type View struct {
	PercentLoad float64
	Status      strain.Status
	Strain      float64
	Hold        bool
	Calibrated  bool
}

// Display is what the control loop draws on.
type Display interface {
	ShowStrain(v View)
	ShowLoadCell(grams float64, hold bool)
	ShowModeChange(m Mode)
	ShowMessage(line1, line2 string)
}

// Device is a character panel.
type Device interface {
	Clear() error
	SetCursor(col, row int) error
	Print(text string) error
}

// LCD implements Display on a Device.
type LCD struct {
	dev      Device
	log      logrus.FieldLogger
	interval time.Duration
	dwell    time.Duration
	now      func() time.Time

	last   time.Time
	until  time.Time // live screens are suppressed before this
	failed bool
}

// NewLCD returns a renderer. A nil dev yields a renderer that draws nothing.
func NewLCD(dev Device, interval time.Duration, log logrus.FieldLogger) *LCD {
	return &LCD{dev: dev, log: log, interval: interval, dwell: DefaultMessageDwell, now: time.Now}
}

// SetMessageDwell changes how long message screens are protected from live redraws.
func (l *LCD) SetMessageDwell(d time.Duration) {
	l.dwell = d
}

// Available reports whether a device is attached.
func (l *LCD) Available() bool {
	return l.dev != nil
}

// due applies the redraw rate limit to live screens.
func (l *LCD) due() bool {
	if l.dev == nil {
		return false
	}
	now := l.now()
	if now.Before(l.until) {
		return false
	}
	if !l.last.IsZero() && now.Sub(l.last) < l.interval {
		return false
	}
	l.last = now
	return true
}

func (l *LCD) check(err error) {
	if err == nil {
		if l.failed {
			l.log.Info("display recovered")
			l.failed = false
		}
		return
	}
	if !l.failed {
		l.log.Warnf("display: %v", err)
		l.failed = true
	}
}

func (l *LCD) line(row int, text string) {
	if err := l.dev.SetCursor(0, row); err != nil {
		l.check(err)
		return
	}
	l.check(l.dev.Print(pad(text)))
}

func (l *LCD) centered(row int, text string) {
	l.line(row, center(text))
}

func (l *LCD) clear() bool {
	err := l.dev.Clear()
	l.check(err)
	return err == nil
}

// ShowStrain draws the strain screen, at most once per interval.
func (l *LCD) ShowStrain(v View) {
	if !l.due() {
		return
	}
	title := "STRAIN LIVE"
	if v.Hold {
		title = "STRAIN HOLD"
	}
	l.centered(0, title)
	l.line(1, fmt.Sprintf("LOAD   : %.1f %%", v.PercentLoad))
	l.line(2, "STATUS : "+v.Status.String())
	if !v.Calibrated {
		l.line(3, "NOT CALIBRATED")
		return
	}
	l.line(3, fmt.Sprintf("STRAIN : %.6f", v.Strain))
}

// ShowLoadCell draws the load-cell screen, at most once per interval.
func (l *LCD) ShowLoadCell(grams float64, hold bool) {
	if !l.due() {
		return
	}
	title := "LOAD CELL LIVE"
	if hold {
		title = "LOAD CELL HOLD"
	}
	l.centered(0, title)
	l.line(1, "Weight:")
	l.line(2, fmt.Sprintf("%.2f g", grams))
	l.line(3, "")
}

// ShowModeChange clears the panel and names the new mode.
func (l *LCD) ShowModeChange(m Mode) {
	if l.dev == nil || !l.clear() {
		return
	}
	l.centered(1, "MODE: "+m.Title())
	l.until = l.now().Add(l.dwell)
}

// ShowMessage clears the panel and shows one or two centred lines.
func (l *LCD) ShowMessage(line1, line2 string) {
	if l.dev == nil || !l.clear() {
		return
	}
	l.centered(1, line1)
	if line2 != "" {
		l.centered(2, line2)
	}
	l.until = l.now().Add(l.dwell)
}

func pad(s string) string {
	r := []rune(s)
	if len(r) >= Cols {
		return string(r[:Cols])
	}
	return s + strings.Repeat(" ", Cols-len(r))
}

func center(s string) string {
	r := []rune(s)
	if len(r) > Cols {
		r = r[:Cols]
	}
	return strings.Repeat(" ", (Cols-len(r))/2) + string(r)
}
