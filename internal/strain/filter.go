package strain

import "math"

// Filter is a fixed-length moving average over raw ADC counts. Push and Average are O(1).
type Filter struct {
	buf  []uint16
	sum  uint64
	next int
}

// NewFilter returns a filter of n slots, all zero. n < 1 is treated as 1.
func NewFilter(n int) *Filter {
	if n < 1 {
		n = 1
	}
	return &Filter{buf: make([]uint16, n)}
}

// Seed fills every slot with v rounded to the nearest count.
func (f *Filter) Seed(v float64) {
	var s uint16
	switch {
	case math.IsNaN(v) || v <= 0:
		s = 0
	case v >= math.MaxUint16:
		s = math.MaxUint16
	default:
		s = uint16(math.Round(v))
	}
	for i := range f.buf {
		f.buf[i] = s
	}
	f.sum = uint64(s) * uint64(len(f.buf))
	f.next = 0
}

// Push replaces the oldest sample with s.
func (f *Filter) Push(s uint16) {
	f.sum -= uint64(f.buf[f.next])
	f.buf[f.next] = s
	f.sum += uint64(s)
	f.next = (f.next + 1) % len(f.buf)
}

// Average is the mean of the window.
func (f *Filter) Average() float64 {
	return float64(f.sum) / float64(len(f.buf))
}

// Sum is the running total.
func (f *Filter) Sum() uint64 {
	return f.sum
}

// Len is the window length.
func (f *Filter) Len() int {
	return len(f.buf)
}

// Samples returns a copy of the window in slot order.
func (f *Filter) Samples() []uint16 {
	out := make([]uint16, len(f.buf))
	copy(out, f.buf)
	return out
}
