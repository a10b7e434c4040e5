package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/attractor/internal/dynamo"
)

// Separation returns the Euclidean distance between a[i] and b[i] for every
// index. The trajectories are compared index for index, so they must have
// the same length; sample times are not checked.
func Separation(a, b dynamo.Trajectory) ([]float64, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("%w: trajectories differ in length (%d vs %d)", dynamo.ErrPrecondition, len(a), len(b))
	}
	out := make([]float64, len(a))
	for i := range a {
		out[i] = floats.Distance(a[i].State[:], b[i].State[:], 2)
	}
	return out, nil
}

// LogTransform returns the natural log of every element. A zero or negative
// element is reported as a *dynamo.DomainError rather than mapped to -Inf.
func LogTransform(series []float64) ([]float64, error) {
	out := make([]float64, len(series))
	for i, v := range series {
		if !(v > 0) {
			return nil, fmt.Errorf("log transform: %w", &dynamo.DomainError{Op: "log of non-positive value", Index: i, Value: v})
		}
		out[i] = math.Log(v)
	}
	return out, nil
}

// SaturationOptions tunes SaturationIndex.
type SaturationOptions struct {
	// Window is the number of samples in each local slope fit.
	Window int
	// Threshold is the fraction of the initial slope below which growth is
	// considered over.
	Threshold float64
}

func DefaultSaturationOptions() SaturationOptions {
	return SaturationOptions{Window: 100, Threshold: 0.2}
}

// Saturation marks where exponential divergence stops.
type Saturation struct {
	Index int
	Time  float64
	// Knee is set when no window fell below the threshold and the point
	// furthest above the chord of the series was used instead.
	Knee bool
}

// SaturationIndex estimates where a log separation series stops growing
// linearly. It slides a least-squares fit of Window samples along the series
// and returns the start of the first window whose slope drops below
// Threshold times the slope of the first window.
func SaturationIndex(times, logSep []float64, opts SaturationOptions) (Saturation, error) {
	n := len(logSep)
	if len(times) != n {
		return Saturation{}, fmt.Errorf("%w: %d times for %d values", dynamo.ErrPrecondition, len(times), n)
	}
	if n < 3 {
		return Saturation{}, fmt.Errorf("%w: need at least 3 samples, got %d", dynamo.ErrPrecondition, n)
	}
	if !(opts.Threshold > 0 && opts.Threshold < 1) {
		return Saturation{}, fmt.Errorf("%w: threshold must be in (0, 1), got %g", dynamo.ErrPrecondition, opts.Threshold)
	}

	w := opts.Window
	if w > n/4 {
		w = n / 4
	}
	if w < 2 {
		w = 2
	}

	slope := func(i int) float64 {
		_, beta := stat.LinearRegression(times[i:i+w], logSep[i:i+w], nil, false)
		return beta
	}

	initial := slope(0)
	if initial > 0 {
		for i := 1; i+w <= n; i++ {
			if slope(i) < opts.Threshold*initial {
				return Saturation{Index: i, Time: times[i]}, nil
			}
		}
	}

	k := knee(times, logSep)
	return Saturation{Index: k, Time: times[k], Knee: true}, nil
}

// knee returns the index of the point furthest above the chord joining the
// first and last samples, both axes normalized to [0, 1].
func knee(xs, ys []float64) int {
	minX, maxX := xs[0], xs[len(xs)-1]
	minY, maxY := floats.Min(ys), floats.Max(ys)
	if maxX == minX || maxY == minY {
		return len(xs) - 1
	}

	y0 := (ys[0] - minY) / (maxY - minY)
	y1 := (ys[len(ys)-1] - minY) / (maxY - minY)

	best, bestDist := len(xs)-1, math.Inf(-1)
	for i := range xs {
		xn := (xs[i] - minX) / (maxX - minX)
		yn := (ys[i] - minY) / (maxY - minY)
		dist := yn - (y0 + (y1-y0)*xn)
		if dist > bestDist {
			best, bestDist = i, dist
		}
	}
	return best
}

// GrowthRate fits a line to logSep over [0, end) and returns its slope, an
// estimate of the largest Lyapunov exponent when the window covers only the
// exponential growth regime.
func GrowthRate(times, logSep []float64, end int) (float64, error) {
	if len(times) != len(logSep) {
		return 0, fmt.Errorf("%w: %d times for %d values", dynamo.ErrPrecondition, len(times), len(logSep))
	}
	if end < 2 || end > len(logSep) {
		return 0, fmt.Errorf("%w: fit window [0, %d) outside series of length %d", dynamo.ErrPrecondition, end, len(logSep))
	}
	_, beta := stat.LinearRegression(times[:end], logSep[:end], nil, false)
	return beta, nil
}
