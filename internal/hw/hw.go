// Package hw abstracts the board: digital inputs and outputs, the analog bridge channel and
// the HX711 load-cell amplifier. The real implementation uses the Linux GPIO character
// device and a serial ADC bridge; FakeIO allows testing without hardware.
package hw

import "errors"

var (
	// ErrNoSample means the analog channel has not produced a value yet.
	ErrNoSample = errors.New("no analog sample available")
	// ErrStale means the analog source has stopped producing fresh values.
	ErrStale = errors.New("analog sample stale")
	// ErrUnknownPin means the pin was not configured on this board.
	ErrUnknownPin = errors.New("unknown pin")
)

// IO is the hardware capability the control loop runs against.
type IO interface {
	// ReadDigital returns the raw level of an input pin (true = HIGH).
	ReadDigital(pin int) (bool, error)
	// ReadAnalog returns the latest raw count of an analog channel.
	ReadAnalog(channel int) (uint16, error)
	// WriteDigital drives an output pin.
	WriteDigital(pin int, level bool) error
	// Close releases hardware resources and leaves outputs off.
	Close() error
}

// Pin definitions (BCM numbering) and the bridge channel of the reference rig.
const (
	PinHold      = 4
	PinTare      = 17
	PinMode      = 27
	PinIndicator = 22
	PinAudible   = 23
	PinHXData    = 5
	PinHXClock   = 6

	ChannelBridge = 0
)
