//go:build linux

package hw

import (
	"errors"
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// BoardConfig names the lines and analog source of a Board.
type BoardConfig struct {
	Chip    string
	Inputs  []int
	Outputs []int
	HXData  int // 0 disables the HX711
	HXClock int
}

// Analog provides analog channel reads, e.g. *SerialADC.
type Analog interface {
	ReadAnalog(channel int) (uint16, error)
	Close() error
}

// Board is the real IO using the Linux GPIO character device for digital lines and an
// Analog source for the bridge.
type Board struct {
	chip    *gpiocdev.Chip
	inputs  map[int]*gpiocdev.Line
	outputs map[int]*gpiocdev.Line
	analog  Analog

	hxLines []*gpiocdev.Line
	hx      *HX711
}

// OpenBoard requests every configured line. Inputs are pulled up (buttons are active-low);
// outputs start low.
func OpenBoard(cfg BoardConfig, analog Analog) (*Board, error) {
	name := cfg.Chip
	if name == "" {
		name = "gpiochip0"
	}
	chip, err := gpiocdev.NewChip(name)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	b := &Board{
		chip:    chip,
		inputs:  make(map[int]*gpiocdev.Line),
		outputs: make(map[int]*gpiocdev.Line),
		analog:  analog,
	}

	for _, pin := range cfg.Inputs {
		l, err := chip.RequestLine(pin, gpiocdev.AsInput, gpiocdev.WithPullUp)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("request input pin %d: %w", pin, err)
		}
		b.inputs[pin] = l
	}
	for _, pin := range cfg.Outputs {
		l, err := chip.RequestLine(pin, gpiocdev.AsOutput(0))
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("request output pin %d: %w", pin, err)
		}
		b.outputs[pin] = l
	}

	if cfg.HXData > 0 && cfg.HXClock > 0 {
		data, err := chip.RequestLine(cfg.HXData, gpiocdev.AsInput)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("request hx711 data pin %d: %w", cfg.HXData, err)
		}
		b.hxLines = append(b.hxLines, data)
		clock, err := chip.RequestLine(cfg.HXClock, gpiocdev.AsOutput(0))
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("request hx711 clock pin %d: %w", cfg.HXClock, err)
		}
		b.hxLines = append(b.hxLines, clock)
		b.hx = NewHX711(data, clock)
	}

	return b, nil
}

// ReadDigital returns the raw level of an input line.
func (b *Board) ReadDigital(pin int) (bool, error) {
	l, ok := b.inputs[pin]
	if !ok {
		return false, fmt.Errorf("input %d: %w", pin, ErrUnknownPin)
	}
	v, err := l.Value()
	if err != nil {
		return false, fmt.Errorf("read pin %d: %w", pin, err)
	}
	return v != 0, nil
}

// ReadAnalog reads the bridge through the analog source.
func (b *Board) ReadAnalog(channel int) (uint16, error) {
	if b.analog == nil {
		return 0, fmt.Errorf("channel %d: %w", channel, ErrNoSample)
	}
	return b.analog.ReadAnalog(channel)
}

// WriteDigital drives an output line.
func (b *Board) WriteDigital(pin int, level bool) error {
	l, ok := b.outputs[pin]
	if !ok {
		return fmt.Errorf("output %d: %w", pin, ErrUnknownPin)
	}
	v := 0
	if level {
		v = 1
	}
	if err := l.SetValue(v); err != nil {
		return fmt.Errorf("write pin %d: %w", pin, err)
	}
	return nil
}

// HX711 returns the load-cell amplifier, or nil if not configured.
func (b *Board) HX711() *HX711 {
	return b.hx
}

// Close drives outputs low, then reconfigures every line as a pulled-up input before
// releasing it so the pins are left in a safe state.
func (b *Board) Close() error {
	var errs []error

	for pin, l := range b.outputs {
		if err := l.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("clear output %d: %w", pin, err))
		}
	}

	release := func(what string, l *gpiocdev.Line) {
		if err := l.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullUp); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure %s: %w", what, err))
		}
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", what, err))
		}
	}
	for pin, l := range b.inputs {
		release(fmt.Sprintf("input %d", pin), l)
	}
	for pin, l := range b.outputs {
		release(fmt.Sprintf("output %d", pin), l)
	}
	for _, l := range b.hxLines {
		release("hx711 line", l)
	}

	if b.analog != nil {
		if err := b.analog.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if b.chip != nil {
		if err := b.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	return errors.Join(errs...)
}
