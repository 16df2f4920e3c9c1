package strain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDerive_HandComputed(t *testing.T) {
	p := DefaultParams()
	cal := Calibration{Offset: 2000}

	r := Derive(1900, cal, p)

	v := 100 * 3.3 / 4095
	vr := v / (3.3 * 1215.34)
	eps := 4 * vr / (2.14 * (1 + 2*vr))
	assert.Equal(t, 100.0, r.Net)
	assert.InEpsilon(t, v, r.Voltage, 1e-9)
	assert.InEpsilon(t, vr, r.BridgeRatio, 1e-9)
	assert.InEpsilon(t, eps, r.Strain, 1e-9)
	assert.InEpsilon(t, eps*0.5, r.Elongation, 1e-9)
	assert.InEpsilon(t, eps*200e9, r.Stress, 1e-9)
	assert.InEpsilon(t, eps/0.0008*100, r.PercentLoad, 1e-9)
}

func TestDerive_ReversePolarity(t *testing.T) {
	p := DefaultParams()
	r := Derive(2100, Calibration{Offset: 2000}, p)
	assert.Less(t, r.Net, 0.0)
	assert.Less(t, r.Strain, 0.0)
	assert.Equal(t, 0.0, r.PercentLoad, "negative strain clamps to zero load")
}

func TestDerive_PercentClampsHigh(t *testing.T) {
	r := Derive(0, Calibration{Offset: 4095}, DefaultParams())
	assert.Equal(t, 100.0, r.PercentLoad)
}

func TestDerive_DenoiseGate(t *testing.T) {
	p := DefaultParams()
	cal := Calibration{Offset: 2000, Noise: 10.0 / 3, NoiseThreshold: 10}

	for _, avg := range []float64{1991, 2009, 2000, 1995.5} {
		r := Derive(avg, cal, p)
		assert.Equal(t, 0.0, r.Net, "avg %v", avg)
		assert.Equal(t, 0.0, r.Strain, "avg %v", avg)
		assert.Equal(t, 0.0, r.Stress, "avg %v", avg)
		assert.Equal(t, 0.0, r.Elongation, "avg %v", avg)
		assert.Equal(t, 0.0, r.PercentLoad, "avg %v", avg)
	}

	above := Derive(1989, cal, p)
	assert.Equal(t, 11.0, above.Net)
	assert.Greater(t, above.Strain, 0.0)

	below := Derive(2011, cal, p)
	assert.Equal(t, -11.0, below.Net)
	assert.Less(t, below.Strain, 0.0)
}

func TestDerive_DegenerateParams(t *testing.T) {
	p := DefaultParams()
	p.ADCMax = 0
	p.StrainMax = 0
	r := Derive(1000, Calibration{Offset: 2000}, p)
	require.False(t, math.IsNaN(r.PercentLoad))
	assert.Equal(t, 0.0, r.Voltage)
	assert.Equal(t, 0.0, r.PercentLoad)

	p = DefaultParams()
	p.GaugeFactor = 0
	r = Derive(1000, Calibration{Offset: 2000}, p)
	assert.Equal(t, 0.0, r.Strain)
	assert.Equal(t, 0.0, r.Stress)

	r = Derive(math.NaN(), Calibration{Offset: 2000}, DefaultParams())
	assert.Equal(t, 0.0, r.Strain)
	assert.Equal(t, 0.0, r.PercentLoad)
}

func TestParams_Validate(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())

	p := DefaultParams()
	p.Modulus = 0
	err := p.Validate()
	require.ErrorIs(t, err, ErrInvalidParams)
	assert.Contains(t, err.Error(), "modulus")

	p = DefaultParams()
	p.FilterWindow = 0
	assert.ErrorIs(t, p.Validate(), ErrInvalidParams)

	p = DefaultParams()
	p.Gain = math.NaN()
	assert.ErrorIs(t, p.Validate(), ErrInvalidParams)

	p = DefaultParams()
	p.PlateLength = math.Inf(1)
	err = p.Validate()
	require.ErrorIs(t, err, ErrInvalidParams)
	assert.Contains(t, err.Error(), "plate_length")
}
