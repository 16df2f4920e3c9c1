package strain

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Calibration is the result of one tare.
type Calibration struct {
	Offset         float64   // mean raw count at rest
	Noise          float64   // population standard deviation of the tare samples
	NoiseThreshold float64   // 3 sigma denoise gate
	Samples        int       // number of samples taken
	At             time.Time // completion time
}

// Calibrator runs the blocking tare procedure.
type Calibrator struct {
	Settings TareSettings
	Sleep    func(time.Duration) // defaults to time.Sleep
	Now      func() time.Time    // defaults to time.Now
}

// NewCalibrator returns a calibrator using the real clock.
func NewCalibrator(s TareSettings) *Calibrator {
	return &Calibrator{Settings: s, Sleep: time.Sleep, Now: time.Now}
}

// Run waits for the settle delay, then reads Settings.Samples values Settings.Interval apart
// and computes mean and standard deviation in a single pass with Welford's update. Any read
// error aborts the run.
func (c *Calibrator) Run(read func() (uint16, error)) (Calibration, error) {
	n := c.Settings.Samples
	if n < 1 {
		return Calibration{}, errors.New("tare needs at least one sample")
	}
	sleep := c.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	now := c.Now
	if now == nil {
		now = time.Now
	}

	if c.Settings.Settle > 0 {
		sleep(c.Settings.Settle)
	}

	var mean, m2 float64
	for i := 1; i <= n; i++ {
		s, err := read()
		if err != nil {
			return Calibration{}, fmt.Errorf("tare sample %d/%d: %w", i, n, err)
		}
		x := float64(s)
		d := x - mean
		mean += d / float64(i)
		m2 += d * (x - mean)
		if i < n && c.Settings.Interval > 0 {
			sleep(c.Settings.Interval)
		}
	}

	noise := math.Sqrt(math.Max(0, m2/float64(n)))
	return Calibration{
		Offset:         mean,
		Noise:          noise,
		NoiseThreshold: 3 * noise,
		Samples:        n,
		At:             now(),
	}, nil
}
