package analysis

import (
	"fmt"

	"github.com/san-kum/attractor/internal/dynamo"
)

// Maxima is a sequence of local maxima in order of occurrence. Element 0 is
// always a sentinel 0 that does not correspond to any sample; ratios built
// from index 0 therefore start with a division by zero. Use Peaks for the
// detected values only.
type Maxima []float64

// Peaks returns the detected maxima without the leading sentinel.
func (m Maxima) Peaks() []float64 {
	if len(m) == 0 {
		return nil
	}
	return m[1:]
}

// FindMaxima returns every strict interior local maximum of signal, where
// signal[i-1] < signal[i] > signal[i+1], prefixed with the sentinel 0.
// Plateaus are not maxima.
func FindMaxima(signal []float64) Maxima {
	out := Maxima{0}
	for i := 1; i+1 < len(signal); i++ {
		if signal[i-1] < signal[i] && signal[i+1] < signal[i] {
			out = append(out, signal[i])
		}
	}
	return out
}

// Normalize returns the ratios m[i+1]/m[i]. It follows IEEE 754: a zero
// divisor yields +Inf, -Inf or NaN (for 0/0), never a panic. Inputs with
// fewer than two values produce an empty slice.
func Normalize(m []float64) []float64 {
	if len(m) < 2 {
		return []float64{}
	}
	out := make([]float64, len(m)-1)
	for i := range out {
		out[i] = m[i+1] / m[i]
	}
	return out
}

// NormalizeStrict is Normalize but fails on the first zero divisor.
func NormalizeStrict(m []float64) ([]float64, error) {
	for i := 0; i+1 < len(m); i++ {
		if m[i] == 0 {
			return nil, fmt.Errorf("normalize maxima: %w", &dynamo.DomainError{Op: "divide by zero maximum", Index: i, Value: m[i]})
		}
	}
	return Normalize(m), nil
}

// ReturnMap pairs each peak with its successor: x[i] = peaks[i] and
// y[i] = peaks[i+1]. The last peak has no successor and is dropped.
func ReturnMap(peaks []float64) (x, y []float64) {
	if len(peaks) < 2 {
		return []float64{}, []float64{}
	}
	n := len(peaks) - 1
	return append([]float64(nil), peaks[:n]...), append([]float64(nil), peaks[1:]...)
}
