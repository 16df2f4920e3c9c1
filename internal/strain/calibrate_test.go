package strain

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sleepLog struct {
	calls []time.Duration
}

func (s *sleepLog) sleep(d time.Duration) { s.calls = append(s.calls, d) }

func testCalibrator(samples int) (*Calibrator, *sleepLog) {
	sl := &sleepLog{}
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	return &Calibrator{
		Settings: TareSettings{Samples: samples, Interval: 5 * time.Millisecond, Settle: time.Second},
		Sleep:    sl.sleep,
		Now:      func() time.Time { return at },
	}, sl
}

func constant(v uint16) func() (uint16, error) {
	return func() (uint16, error) { return v, nil }
}

func TestCalibrator_ConstantInputIdempotent(t *testing.T) {
	c, _ := testCalibrator(400)
	for i := 0; i < 3; i++ {
		cal, err := c.Run(constant(2047))
		require.NoError(t, err)
		assert.Equal(t, 2047.0, cal.Offset)
		assert.Equal(t, 0.0, cal.Noise)
		assert.Equal(t, 0.0, cal.NoiseThreshold)
		assert.Equal(t, 400, cal.Samples)
	}
}

func TestCalibrator_Statistics(t *testing.T) {
	// alternating 2000/2010: mean 2005, population sigma 5
	c, _ := testCalibrator(100)
	i := 0
	cal, err := c.Run(func() (uint16, error) {
		i++
		if i%2 == 0 {
			return 2010, nil
		}
		return 2000, nil
	})
	require.NoError(t, err)
	assert.InDelta(t, 2005.0, cal.Offset, 1e-9)
	assert.InDelta(t, 5.0, cal.Noise, 1e-9)
	assert.InDelta(t, 15.0, cal.NoiseThreshold, 1e-9)
}

func TestCalibrator_LargeOffsetStable(t *testing.T) {
	// tiny variance riding on a near full-scale offset
	c, _ := testCalibrator(400)
	i := 0
	cal, err := c.Run(func() (uint16, error) {
		i++
		return uint16(65000 + i%2), nil
	})
	require.NoError(t, err)
	assert.InDelta(t, 65000.5, cal.Offset, 1e-9)
	assert.InDelta(t, 0.5, cal.Noise, 1e-9)
	assert.False(t, math.IsNaN(cal.Noise))
}

func TestCalibrator_Timing(t *testing.T) {
	c, sl := testCalibrator(4)
	_, err := c.Run(constant(1))
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{
		time.Second,
		5 * time.Millisecond, 5 * time.Millisecond, 5 * time.Millisecond,
	}, sl.calls)
}

func TestCalibrator_ReadErrorAborts(t *testing.T) {
	c, _ := testCalibrator(10)
	boom := errors.New("adc gone")
	n := 0
	_, err := c.Run(func() (uint16, error) {
		n++
		if n == 5 {
			return 0, boom
		}
		return 100, nil
	})
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "5/10")
}

func TestCalibrator_NoSamples(t *testing.T) {
	c, _ := testCalibrator(0)
	_, err := c.Run(constant(1))
	assert.Error(t, err)
}
