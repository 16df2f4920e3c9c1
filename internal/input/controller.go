package input

import (
	"errors"
	"fmt"
	"time"
)

// Control identifies one of the operator inputs.
type Control int

const (
	Hold Control = iota
	Tare
	Mode
	numControls
)

func (c Control) String() string {
	switch c {
	case Hold:
		return "HOLD"
	case Tare:
		return "TARE"
	case Mode:
		return "MODE"
	default:
		return "UNKNOWN"
	}
}

// PinReader reads a digital input level.
type PinReader interface {
	ReadDigital(pin int) (bool, error)
}

// Pins maps each control to its input pin.
type Pins struct {
	Hold int
	Tare int
	Mode int
}

func (p Pins) pin(c Control) int {
	switch c {
	case Hold:
		return p.Hold
	case Tare:
		return p.Tare
	default:
		return p.Mode
	}
}

// Controller owns the three operator inputs. Hold is a latching switch; tare and mode are
// momentary buttons. Events are consumed destructively, so each control has exactly one
// logical consumer.
type Controller struct {
	reader  PinReader
	pins    Pins
	buttons [numControls]*Debouncer
}

// NewController reads the current level of every pin to seed its debouncer.
func NewController(reader PinReader, pins Pins, window time.Duration, nowMs uint32) (*Controller, error) {
	c := &Controller{reader: reader, pins: pins}
	for ctl := Control(0); ctl < numControls; ctl++ {
		level, err := reader.ReadDigital(pins.pin(ctl))
		if err != nil {
			return nil, fmt.Errorf("read %s pin %d: %w", ctl, pins.pin(ctl), err)
		}
		kind := Momentary
		if ctl == Hold {
			kind = Latching
		}
		c.buttons[ctl] = NewDebouncer(kind, window, level, nowMs)
	}
	return c, nil
}

// Poll samples every pin once. A failed read leaves that control untouched; the remaining
// pins are still polled and the errors are returned joined.
func (c *Controller) Poll(nowMs uint32) error {
	var errs []error
	for ctl := Control(0); ctl < numControls; ctl++ {
		level, err := c.reader.ReadDigital(c.pins.pin(ctl))
		if err != nil {
			errs = append(errs, fmt.Errorf("read %s pin %d: %w", ctl, c.pins.pin(ctl), err))
			continue
		}
		c.buttons[ctl].Update(level, nowMs)
	}
	return errors.Join(errs...)
}

// ConsumePressed returns true at most once per physical event on ctl.
func (c *Controller) ConsumePressed(ctl Control) bool {
	if ctl < 0 || ctl >= numControls {
		return false
	}
	return c.buttons[ctl].Consume()
}

// Level returns the debounced level of ctl.
func (c *Controller) Level(ctl Control) bool {
	if ctl < 0 || ctl >= numControls {
		return High
	}
	return c.buttons[ctl].Stable()
}

// ResetAll drops every pending event, e.g. after a full-screen mode change.
func (c *Controller) ResetAll() {
	for _, b := range c.buttons {
		b.Clear()
	}
}
