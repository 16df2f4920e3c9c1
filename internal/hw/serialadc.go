package hw

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sigurn/crc8"
	"github.com/sirupsen/logrus"
	"go.bug.st/serial"
)

// DefaultBaudRate of the ADC bridge microcontroller.
const DefaultBaudRate = 115200

// DefaultMaxAge is how old the latest frame of a channel may be before reads fail. The MCU
// streams every channel at well over 10 Hz.
const DefaultMaxAge = time.Second

var (
	errBadFrame = errors.New("malformed frame")
	errBadCRC   = errors.New("bad crc")
)

var crcTable = crc8.MakeTable(crc8.Params{
	Poly:   0x31, // 1 + x^4 + x^5 + x^8
	Init:   0xFF,
	RefIn:  false,
	RefOut: false,
	XorOut: 0x00,
})

// Frame is one analog reading sent by the bridge MCU.
type Frame struct {
	Channel int
	Value   uint16
}

// FrameCRC returns the checksum the MCU appends to "<channel>,<value>".
func FrameCRC(payload string) byte {
	return crc8.Checksum([]byte(payload), crcTable)
}

// FormatFrame renders f the way the MCU sends it, without the newline.
func FormatFrame(f Frame) string {
	payload := fmt.Sprintf("%d,%d", f.Channel, f.Value)
	return fmt.Sprintf("%s,%02X", payload, FrameCRC(payload))
}

// ParseFrame parses "<channel>,<value>,<crc hex>".
func ParseFrame(line string) (Frame, error) {
	line = strings.TrimSpace(line)
	i := strings.LastIndexByte(line, ',')
	if i < 0 {
		return Frame{}, fmt.Errorf("%w: %q", errBadFrame, line)
	}
	payload, sum := line[:i], line[i+1:]

	want, err := strconv.ParseUint(sum, 16, 8)
	if err != nil {
		return Frame{}, fmt.Errorf("%w: crc %q", errBadFrame, sum)
	}
	if got := FrameCRC(payload); got != byte(want) {
		return Frame{}, fmt.Errorf("%w: got %02X want %02X", errBadCRC, got, want)
	}

	parts := strings.Split(payload, ",")
	if len(parts) != 2 {
		return Frame{}, fmt.Errorf("%w: %q", errBadFrame, line)
	}
	ch, err := strconv.Atoi(parts[0])
	if err != nil || ch < 0 {
		return Frame{}, fmt.Errorf("%w: channel %q", errBadFrame, parts[0])
	}
	v, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil {
		return Frame{}, fmt.Errorf("%w: value %q", errBadFrame, parts[1])
	}
	return Frame{Channel: ch, Value: uint16(v)}, nil
}

// SerialADC keeps the latest value of each analog channel reported by the bridge MCU over
// a serial line. A background goroutine parses frames; reads never block.
type SerialADC struct {
	// MaxAge bounds the age of a value returned by ReadAnalog; 0 disables the check.
	MaxAge time.Duration

	log  logrus.FieldLogger
	conn io.ReadCloser
	now  func() time.Time

	mu     sync.RWMutex
	latest map[int]uint16
	seen   map[int]time.Time
	bad    int
	err    error // why the reader stopped
	done   chan struct{}
}

// OpenSerialADC opens the named port and starts reading frames.
func OpenSerialADC(port string, baud int, log logrus.FieldLogger) (*SerialADC, error) {
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	conn, err := serial.Open(port, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", port, err)
	}
	return NewSerialADC(conn, log), nil
}

// NewSerialADC starts reading frames from conn.
func NewSerialADC(conn io.ReadCloser, log logrus.FieldLogger) *SerialADC {
	a := &SerialADC{
		MaxAge: DefaultMaxAge,
		log:    log,
		conn:   conn,
		now:    time.Now,
		latest: make(map[int]uint16),
		seen:   make(map[int]time.Time),
		done:   make(chan struct{}),
	}
	go a.readFrames()
	return a
}

func (a *SerialADC) readFrames() {
	defer close(a.done)

	scanner := bufio.NewScanner(a.conn)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		f, err := ParseFrame(line)
		if err != nil {
			a.mu.Lock()
			a.bad++
			a.mu.Unlock()
			a.log.Debugf("adc: drop frame: %v", err)
			continue
		}
		a.mu.Lock()
		a.latest[f.Channel] = f.Value
		a.seen[f.Channel] = a.now()
		a.mu.Unlock()
	}
	err := scanner.Err()
	if err != nil && !errors.Is(err, io.EOF) {
		a.log.Warnf("adc: read: %v", err)
	}
	if err == nil {
		err = io.EOF
	}
	a.mu.Lock()
	a.err = err
	a.mu.Unlock()
}

// ReadAnalog returns the latest value of channel. Once the reader has stopped, or the
// channel has been silent for longer than MaxAge, it fails with ErrStale.
func (a *SerialADC) ReadAnalog(channel int) (uint16, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.err != nil {
		return 0, fmt.Errorf("channel %d: %w: reader stopped: %v", channel, ErrStale, a.err)
	}
	v, ok := a.latest[channel]
	if !ok {
		return 0, fmt.Errorf("channel %d: %w", channel, ErrNoSample)
	}
	if age := a.now().Sub(a.seen[channel]); a.MaxAge > 0 && age > a.MaxAge {
		return 0, fmt.Errorf("channel %d: %w: last frame %v ago", channel, ErrStale, age.Truncate(time.Millisecond))
	}
	return v, nil
}

// LastSeen returns when channel last produced a valid frame.
func (a *SerialADC) LastSeen(channel int) (time.Time, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	t, ok := a.seen[channel]
	return t, ok
}

// BadFrames counts frames dropped for framing or checksum errors.
func (a *SerialADC) BadFrames() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.bad
}

// Close closes the port and waits for the reader to exit.
func (a *SerialADC) Close() error {
	err := a.conn.Close()
	<-a.done
	if err != nil {
		return fmt.Errorf("close serial port: %w", err)
	}
	return nil
}
