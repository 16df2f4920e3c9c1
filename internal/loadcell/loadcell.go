// Package loadcell converts HX711 counts to grams with a tare offset, a dead zone around
// zero and a hold snapshot.
package loadcell

import (
	"errors"
	"fmt"
	"math"
)

// Sampler returns one raw conversion. *hw.HX711 satisfies it.
type Sampler interface {
	Read() (int32, error)
}

// Settings configures a Cell.
type Settings struct {
	Factor      float64 // counts per gram; sign follows the wiring
	Samples     int     // conversions averaged per update
	TareSamples int     // conversions averaged per tare
	DeadZone    float64 // |grams| below this read as zero
}

// DefaultSettings matches the reference rig. Samples is kept low because every update
// blocks for Samples conversions (100 ms each at the chip's 10 Hz rate).
func DefaultSettings() Settings {
	return Settings{Factor: -430, Samples: 5, TareSamples: 10, DeadZone: 5}
}

// Cell is one load cell channel. It is not safe for concurrent use.
type Cell struct {
	src      Sampler
	settings Settings

	offset  float64
	current float64
	held    *float64
}

// New returns a cell reading through src. Call Tare before trusting readings.
func New(src Sampler, s Settings) *Cell {
	if s.Samples < 1 {
		s.Samples = 1
	}
	if s.TareSamples < 1 {
		s.TareSamples = 1
	}
	return &Cell{src: src, settings: s}
}

func (c *Cell) average(n int) (float64, error) {
	var sum float64
	for i := 0; i < n; i++ {
		v, err := c.src.Read()
		if err != nil {
			return 0, fmt.Errorf("load cell sample %d/%d: %w", i+1, n, err)
		}
		sum += float64(v)
	}
	return sum / float64(n), nil
}

// Tare zeroes the cell at the current load and clears the hold snapshot value.
func (c *Cell) Tare() error {
	avg, err := c.average(c.settings.TareSamples)
	if err != nil {
		return err
	}
	c.offset = avg
	c.current = 0
	if c.held != nil {
		zero := 0.0
		c.held = &zero
	}
	return nil
}

// Update takes a fresh averaged reading unless held. On error the previous weight stays.
func (c *Cell) Update() error {
	if c.held != nil {
		return nil
	}
	avg, err := c.average(c.settings.Samples)
	if err != nil {
		return err
	}
	if c.settings.Factor == 0 {
		return errors.New("load cell factor is zero")
	}
	w := (avg - c.offset) / c.settings.Factor
	if math.Abs(w) < c.settings.DeadZone {
		w = 0
	}
	c.current = w
	return nil
}

// ToggleHold flips hold; entering hold snapshots the current weight.
func (c *Cell) ToggleHold() {
	c.SetHold(c.held == nil)
}

// SetHold freezes (true) or releases (false) the reported weight.
func (c *Cell) SetHold(on bool) {
	switch {
	case on && c.held == nil:
		w := c.current
		c.held = &w
	case !on:
		c.held = nil
	}
}

// Weight returns grams: the held value while held, else the last reading.
func (c *Cell) Weight() float64 {
	if c.held != nil {
		return *c.held
	}
	return c.current
}

// Holding reports whether the weight is frozen.
func (c *Cell) Holding() bool {
	return c.held != nil
}

// Offset is the tare offset in counts.
func (c *Cell) Offset() float64 {
	return c.offset
}
