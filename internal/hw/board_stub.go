//go:build !linux

package hw

import "errors"

// BoardConfig names the lines and analog source of a Board.
type BoardConfig struct {
	Chip    string
	Inputs  []int
	Outputs []int
	HXData  int
	HXClock int
}

// Analog provides analog channel reads, e.g. *SerialADC.
type Analog interface {
	ReadAnalog(channel int) (uint16, error)
	Close() error
}

// Board is not available on non-Linux platforms.
type Board struct{}

var errUnsupported = errors.New("hw: not supported on this platform (requires Linux)")

// OpenBoard returns an error on non-Linux platforms.
func OpenBoard(BoardConfig, Analog) (*Board, error) {
	return nil, errUnsupported
}

func (b *Board) ReadDigital(int) (bool, error) { return false, errUnsupported }
func (b *Board) ReadAnalog(int) (uint16, error) { return 0, errUnsupported }
func (b *Board) WriteDigital(int, bool) error { return errUnsupported }
func (b *Board) HX711() *HX711 { return nil }
func (b *Board) Close() error { return nil }
