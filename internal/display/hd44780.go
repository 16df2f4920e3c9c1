package display

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// DefaultAddress of the PCF8574 backpack.
const DefaultAddress = 0x27

// PCF8574 pin mapping of the common backpack.
const (
	bitRS        = 0x01
	bitEnable    = 0x04
	bitBacklight = 0x08
)

// HD44780 commands.
const (
	cmdClear       = 0x01
	cmdEntryMode   = 0x06 // increment, no shift
	cmdDisplayOn   = 0x0C // display on, cursor off, blink off
	cmdFunctionSet = 0x28 // 4-bit, 2 line, 5x8
	cmdSetDDRAM    = 0x80
)

var rowOffsets = [Rows]byte{0x00, 0x40, 0x14, 0x54}

// HD44780 drives a character LCD through a PCF8574 I²C expander in 4-bit mode.
type HD44780 struct {
	c     conn.Conn
	bus   i2c.BusCloser
	light byte
	sleep func(time.Duration)
}

// OpenHD44780 initialises the host drivers, opens the I²C bus (empty name selects the
// first) and checks the panel at addr.
func OpenHD44780(busName string, addr uint16) (*HD44780, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init host: %w", err)
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", busName, err)
	}
	lcd := NewHD44780(&i2c.Dev{Bus: bus, Addr: addr})
	lcd.bus = bus
	if err := lcd.Init(); err != nil {
		bus.Close()
		return nil, fmt.Errorf("lcd at 0x%02x: %w", addr, err)
	}
	return lcd, nil
}

// NewHD44780 wraps an already open connection. Call Init before use.
func NewHD44780(c conn.Conn) *HD44780 {
	return &HD44780{c: c, light: bitBacklight, sleep: time.Sleep}
}

func (h *HD44780) expander(b byte) error {
	return h.c.Tx([]byte{b | h.light}, nil)
}

func (h *HD44780) nibble(n, mode byte) error {
	if err := h.expander(n | mode | bitEnable); err != nil {
		return err
	}
	return h.expander(n | mode)
}

func (h *HD44780) send(b, mode byte) error {
	if err := h.nibble(b&0xF0, mode); err != nil {
		return err
	}
	return h.nibble((b<<4)&0xF0, mode)
}

func (h *HD44780) command(b byte) error {
	return h.send(b, 0)
}

// Init runs the 4-bit power-on sequence and clears the panel.
func (h *HD44780) Init() error {
	h.sleep(50 * time.Millisecond)
	if err := h.expander(0); err != nil {
		return err
	}
	for _, d := range []time.Duration{4500 * time.Microsecond, 150 * time.Microsecond, 150 * time.Microsecond} {
		if err := h.nibble(0x30, 0); err != nil {
			return err
		}
		h.sleep(d)
	}
	if err := h.nibble(0x20, 0); err != nil {
		return err
	}
	for _, c := range []byte{cmdFunctionSet, cmdDisplayOn, cmdEntryMode} {
		if err := h.command(c); err != nil {
			return err
		}
	}
	return h.Clear()
}

// Clear blanks the panel and homes the cursor.
func (h *HD44780) Clear() error {
	if err := h.command(cmdClear); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	h.sleep(2 * time.Millisecond)
	return nil
}

// SetCursor moves to col, row; out-of-range values are clamped.
func (h *HD44780) SetCursor(col, row int) error {
	row = min(max(row, 0), Rows-1)
	col = min(max(col, 0), Cols-1)
	if err := h.command(cmdSetDDRAM | (byte(col) + rowOffsets[row])); err != nil {
		return fmt.Errorf("set cursor: %w", err)
	}
	return nil
}

// Print writes text at the cursor. Characters outside ASCII are shown as '?'.
func (h *HD44780) Print(text string) error {
	for _, r := range text {
		b := byte('?')
		if r < 0x80 {
			b = byte(r)
		}
		if err := h.send(b, bitRS); err != nil {
			return fmt.Errorf("print: %w", err)
		}
	}
	return nil
}

// Backlight switches the backlight.
func (h *HD44780) Backlight(on bool) error {
	h.light = 0
	if on {
		h.light = bitBacklight
	}
	return h.expander(0)
}

// Close turns the backlight off and releases the bus if this driver opened it.
func (h *HD44780) Close() error {
	err := h.Backlight(false)
	if h.bus != nil {
		if cerr := h.bus.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
