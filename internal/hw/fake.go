package hw

import (
	"fmt"
	"sync"
)

// Write is one recorded WriteDigital call.
type Write struct {
	Pin   int
	Level bool
}

// FakeIO is a test double with settable input levels, scripted analog samples and a record
// of every output write.
type FakeIO struct {
	mu sync.Mutex

	levels  map[int]bool
	samples map[int][]uint16
	index   map[int]int
	outputs map[int]bool

	// Writes records every WriteDigital call in order.
	Writes []Write

	// DigitalError and AnalogError, if set, are returned by the respective reads.
	DigitalError error
	AnalogError  error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeIO returns a board with every input HIGH (pulled up, released).
func NewFakeIO() *FakeIO {
	return &FakeIO{
		levels:  make(map[int]bool),
		samples: make(map[int][]uint16),
		index:   make(map[int]int),
		outputs: make(map[int]bool),
	}
}

// SetLevel sets the raw level of an input pin.
func (f *FakeIO) SetLevel(pin int, level bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.levels[pin] = level
}

// SetSamples scripts an analog channel. Each read consumes the next sample; once exhausted
// the last sample repeats.
func (f *FakeIO) SetSamples(channel int, samples ...uint16) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.samples[channel] = samples
	f.index[channel] = 0
}

// ReadDigital returns the configured level, HIGH by default.
func (f *FakeIO) ReadDigital(pin int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.DigitalError != nil {
		return false, f.DigitalError
	}
	level, ok := f.levels[pin]
	if !ok {
		return true, nil
	}
	return level, nil
}

// ReadAnalog returns the next scripted sample.
func (f *FakeIO) ReadAnalog(channel int) (uint16, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.AnalogError != nil {
		return 0, f.AnalogError
	}
	s := f.samples[channel]
	if len(s) == 0 {
		return 0, fmt.Errorf("channel %d: %w", channel, ErrNoSample)
	}
	i := f.index[channel]
	if i < len(s)-1 {
		f.index[channel] = i + 1
	}
	return s[i], nil
}

// WriteDigital records the write.
func (f *FakeIO) WriteDigital(pin int, level bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outputs[pin] = level
	f.Writes = append(f.Writes, Write{Pin: pin, Level: level})
	return nil
}

// Output returns the last level written to pin.
func (f *FakeIO) Output(pin int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.outputs[pin]
}

// Close marks the board as closed and drops outputs.
func (f *FakeIO) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for pin := range f.outputs {
		f.outputs[pin] = false
	}
	f.Closed = true
	return nil
}
