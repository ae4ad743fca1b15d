package ir

import "math"

// Quantizer converts between continuous time and Ticks at a fixed precision
// (ticks per unit of time).
type Quantizer struct {
	Precision float64
}

// ValidPrecision reports whether p can serve as a precision: positive and
// finite.
func ValidPrecision(p float64) bool {
	return p > 0 && !math.IsInf(p, 0)
}

// NewQuantizer returns a quantizer with the given precision.
func NewQuantizer(precision float64) Quantizer {
	return Quantizer{Precision: precision}
}

// Ticks rounds t to the nearest representable tick.
func (q Quantizer) Ticks(t float64) Ticks {
	return Ticks(math.Floor(t*q.Precision + 0.5))
}

// Time converts ticks back to continuous time.
func (q Quantizer) Time(t Ticks) float64 {
	return float64(t) / q.Precision
}

// Decimals is the number of decimal places needed to print a tick exactly.
func (q Quantizer) Decimals() int {
	if q.Precision <= 1 {
		return 0
	}
	return int(math.Ceil(math.Log10(q.Precision)))
}
