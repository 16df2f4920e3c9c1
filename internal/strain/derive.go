package strain

import "math"

// Reading is one set of derived quantities.
type Reading struct {
	Average     float64 // filtered raw count
	Net         float64 // offset - average, after the denoise gate
	Voltage     float64 // V
	BridgeRatio float64 // Vr
	Strain      float64
	Stress      float64 // Pa
	Elongation  float64 // m
	PercentLoad float64 // 0..100
}

// Derive converts a filtered count into physical quantities.
//
// Polarity is reversed: the bridge is wired so that load pulls the ADC count down, so
// net = offset - average. A |net| below the calibration's noise threshold is treated as zero.
// Degenerate arithmetic yields zero rather than Inf or NaN.
func Derive(average float64, cal Calibration, p Params) Reading {
	r := Reading{Average: average}

	net := cal.Offset - average
	if math.Abs(net) < cal.NoiseThreshold {
		net = 0
	}
	r.Net = net

	r.Voltage = finite(div(net*p.Vref, p.ADCMax))
	r.BridgeRatio = finite(div(r.Voltage, p.Vref*p.Gain))
	r.Strain = finite(div(4*r.BridgeRatio, p.GaugeFactor*(1+2*r.BridgeRatio)))
	r.Elongation = finite(r.Strain * p.PlateLength)
	r.Stress = finite(r.Strain * p.Modulus)
	r.PercentLoad = clamp(finite(div(r.Strain, p.StrainMax)*100), 0, 100)
	return r
}

func div(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
