package hw

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotReady means the HX711 did not signal a conversion in time.
var ErrNotReady = errors.New("hx711 not ready")

// Line is a single GPIO line. *gpiocdev.Line satisfies it.
type Line interface {
	Value() (int, error)
	SetValue(value int) error
}

// HX711 bit-bangs the 24-bit load-cell ADC. Channel A with gain 128 is selected by one
// extra clock pulse after each conversion.
type HX711 struct {
	data  Line
	clock Line

	// Timeout bounds the wait for DOUT to go low.
	Timeout time.Duration
	sleep   func(time.Duration)
}

// NewHX711 drives the chip through the given lines.
func NewHX711(data, clock Line) *HX711 {
	return &HX711{data: data, clock: clock, Timeout: 200 * time.Millisecond, sleep: time.Sleep}
}

// Ready reports whether a conversion is waiting (DOUT low).
func (h *HX711) Ready() (bool, error) {
	v, err := h.data.Value()
	if err != nil {
		return false, fmt.Errorf("read hx711 data: %w", err)
	}
	return v == 0, nil
}

func (h *HX711) waitReady() error {
	deadline := h.Timeout
	const step = time.Millisecond
	for {
		ok, err := h.Ready()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if deadline <= 0 {
			return ErrNotReady
		}
		h.sleep(step)
		deadline -= step
	}
}

func (h *HX711) pulse() error {
	if err := h.clock.SetValue(1); err != nil {
		return fmt.Errorf("hx711 clock high: %w", err)
	}
	if err := h.clock.SetValue(0); err != nil {
		return fmt.Errorf("hx711 clock low: %w", err)
	}
	return nil
}

// Read returns one signed conversion.
func (h *HX711) Read() (int32, error) {
	if err := h.waitReady(); err != nil {
		return 0, err
	}

	var raw uint32
	for i := 0; i < 24; i++ {
		if err := h.clock.SetValue(1); err != nil {
			return 0, fmt.Errorf("hx711 clock high: %w", err)
		}
		bit, err := h.data.Value()
		if err != nil {
			return 0, fmt.Errorf("read hx711 data: %w", err)
		}
		if err := h.clock.SetValue(0); err != nil {
			return 0, fmt.Errorf("hx711 clock low: %w", err)
		}
		raw = raw<<1 | uint32(bit&1)
	}
	if err := h.pulse(); err != nil {
		return 0, err
	}

	// sign-extend 24 bits
	if raw&0x800000 != 0 {
		raw |= 0xFF000000
	}
	return int32(raw), nil
}

// PowerDown holds the clock high, which puts the chip to sleep after 60 us.
func (h *HX711) PowerDown() error {
	return h.clock.SetValue(1)
}

// PowerUp wakes the chip.
func (h *HX711) PowerUp() error {
	return h.clock.SetValue(0)
}
