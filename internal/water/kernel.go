package water

import "math"

// mexicanHat is the bell kernel shared by radial sources and splashes. It
// peaks at 1 for q=0, crosses zero at q=1/sqrt(2) and has a negative ring.
func mexicanHat(q float64) float64 {
	q2 := q * q
	return (1 - 2*q2) * math.Exp(-q2)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Dispersion derives the wavenumber and angular frequency of a source.
// omega, period and speed are consulted in that order; zero means unset.
// When none is given the deep-water relation sqrt(g*k) is used, floored at
// minOmega.
func Dispersion(wavelength, omega, period, speed, g, minOmega float64) (k, w float64) {
	if wavelength > 0 && finite(wavelength) {
		k = 2 * math.Pi / wavelength
	}
	switch {
	case omega != 0:
		w = omega
	case period != 0:
		w = 2 * math.Pi / period
	case speed != 0:
		w = math.Abs(k * speed)
	default:
		w = math.Max(math.Sqrt(math.Max(g*k, 0)), minOmega)
	}
	return k, w
}
