// Package strain is the signal path of the gauge: moving-average filter, tare calibration,
// derivation of physical quantities and the status/alert state machine.
package strain

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidParams is returned by Params.Validate.
var ErrInvalidParams = errors.New("invalid strain parameters")

// Params holds the fixed physical and calibration constants of the bridge.
type Params struct {
	Vref         float64 // ADC reference voltage
	ADCMax       float64 // full-scale ADC count
	Gain         float64 // instrumentation amplifier gain
	GaugeFactor  float64
	PlateLength  float64 // metres
	Modulus      float64 // elastic modulus, Pa
	StrainMax    float64 // strain mapped to 100 % load
	FilterWindow int     // moving-average length
}

// DefaultParams returns the constants of the reference rig.
func DefaultParams() Params {
	return Params{
		Vref:         3.3,
		ADCMax:       4095,
		Gain:         1215.34,
		GaugeFactor:  2.14,
		PlateLength:  0.5,
		Modulus:      200e9,
		StrainMax:    0.0008,
		FilterWindow: 20,
	}
}

// Validate rejects constants that would make the derivation meaningless.
func (p Params) Validate() error {
	checks := []struct {
		name string
		v    float64
	}{
		{"vref", p.Vref},
		{"adc_max", p.ADCMax},
		{"gain", p.Gain},
		{"gauge_factor", p.GaugeFactor},
		{"plate_length", p.PlateLength},
		{"modulus", p.Modulus},
		{"strain_max", p.StrainMax},
	}
	for _, c := range checks {
		if !(c.v > 0) || math.IsInf(c.v, 0) {
			return fmt.Errorf("%w: %s must be positive and finite, got %g", ErrInvalidParams, c.name, c.v)
		}
	}
	if p.FilterWindow < 1 {
		return fmt.Errorf("%w: filter_window must be at least 1, got %d", ErrInvalidParams, p.FilterWindow)
	}
	return nil
}

// TareSettings controls the tare procedure.
type TareSettings struct {
	Samples  int
	Interval time.Duration
	Settle   time.Duration
}

// DefaultTare is 400 samples at 5 ms after a 1 s settle.
func DefaultTare() TareSettings {
	return TareSettings{Samples: 400, Interval: 5 * time.Millisecond, Settle: time.Second}
}
