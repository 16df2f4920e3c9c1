package strain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGauge_EndToEnd(t *testing.T) {
	p := DefaultParams()
	g := NewGauge(p)
	require.False(t, g.Calibrated())

	c, _ := testCalibrator(400)
	cal, err := c.Run(constant(2000))
	require.NoError(t, err)
	require.Equal(t, 2000.0, cal.Offset)
	require.Equal(t, 0.0, cal.Noise)
	g.ApplyCalibration(cal)
	require.True(t, g.Calibrated())

	var r Reading
	for i := 0; i < p.FilterWindow; i++ {
		r = g.Update(1900)
	}

	vr := 100.0 / 4095 / 1215.34
	eps := 4 * vr / (2.14 * (1 + 2*vr))
	want := eps / 0.0008 * 100
	assert.InEpsilon(t, want, r.PercentLoad, 1e-6)
	assert.Equal(t, 1900.0, r.Average)
}

func TestGauge_TareReseedsFilter(t *testing.T) {
	g := NewGauge(DefaultParams())
	g.ApplyCalibration(Calibration{Offset: 3000})
	r := g.Update(3000)
	assert.Equal(t, 3000.0, r.Average, "no warm-up transient after tare")
	assert.Equal(t, 0.0, r.PercentLoad)
}

func TestGauge_HoldFreeze(t *testing.T) {
	p := DefaultParams()
	g := NewGauge(p)
	g.ApplyCalibration(Calibration{Offset: 2000})

	for i := 0; i < p.FilterWindow; i++ {
		g.Update(1900)
	}
	frozen := g.Current()
	g.SetHold(true)
	g.SetHold(true)
	require.True(t, g.Holding())

	for i := 0; i < 100; i++ {
		assert.Equal(t, frozen, g.Update(uint16(500+i)))
	}
	assert.Equal(t, frozen, g.Current())

	g.SetHold(false)
	r := g.Update(500)
	assert.NotEqual(t, frozen, r)
	assert.Equal(t, r, g.Live())
}

func TestGauge_UncalibratedReadsZero(t *testing.T) {
	g := NewGauge(DefaultParams())
	r := g.Update(2000)
	// offset 0 minus a positive average is negative strain, clamped to zero load
	assert.Equal(t, 0.0, r.PercentLoad)
	_, ok := g.Calibration()
	assert.False(t, ok)
}

func TestGauge_EvaluateAndNotify(t *testing.T) {
	p := DefaultParams()
	g := NewGauge(p)
	g.ApplyCalibration(Calibration{Offset: 4095})

	for i := 0; i < p.FilterWindow; i++ {
		g.Update(0)
	}
	assert.Equal(t, Danger, g.Evaluate())
	assert.Equal(t, Danger, g.Status())
	require.True(t, g.ShouldNotify())
	g.MarkAlertSent()
	assert.True(t, g.AlertSent())
	assert.Equal(t, Danger, g.Evaluate())
	assert.False(t, g.ShouldNotify())
}
