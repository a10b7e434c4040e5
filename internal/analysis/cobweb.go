package analysis

import (
	"fmt"
	"math"

	"github.com/san-kum/attractor/internal/dynamo"
)

// Path is a cobweb staircase between a map curve and the diagonal.
type Path struct {
	X []float64
	Y []float64
}

func (p Path) Len() int { return len(p.X) }

// Iterates returns r_0, r_1, ... r_{n-1}, the x value of every vertex on
// the diagonal side of the staircase.
func (p Path) Iterates() []float64 {
	out := make([]float64, 0, (len(p.X)+1)/2)
	for i := 0; i < len(p.X); i += 2 {
		out = append(out, p.X[i])
	}
	return out
}

// CobwebPath builds the 2n vertices of the cobweb for r_{k+1} = f(r_k)
// starting at start. The first vertex is (start, 0). Each odd vertex moves
// vertically to the curve, (r, f(r)), and r becomes f(r); each even vertex
// moves horizontally to the diagonal, (r, r).
func CobwebPath(f func(float64) float64, n int, start float64) (Path, error) {
	if n < 1 {
		return Path{}, fmt.Errorf("%w: cobweb needs at least one iteration, got %d", dynamo.ErrPrecondition, n)
	}
	if f == nil {
		return Path{}, fmt.Errorf("%w: nil map", dynamo.ErrPrecondition)
	}
	if !finite(start) {
		return Path{}, fmt.Errorf("cobweb: %w", &dynamo.DomainError{Op: "non-finite start", Index: 0, Value: start})
	}

	p := Path{X: make([]float64, 2*n), Y: make([]float64, 2*n)}
	r := start
	p.X[0], p.Y[0] = r, 0
	for i := 1; i < 2*n; i++ {
		if i%2 == 1 {
			next := f(r)
			if !finite(next) {
				return Path{}, fmt.Errorf("cobweb: %w", &dynamo.DomainError{Op: "map undefined", Index: i, Value: r})
			}
			p.X[i], p.Y[i] = r, next
			r = next
		} else {
			p.X[i], p.Y[i] = r, r
		}
	}
	return p, nil
}

// PoincareMap is p(r) = (1 + e^-1 (r^-2 - 1))^-1/2. It returns NaN where the
// expression is undefined, including r = 0.
func PoincareMap(r float64) float64 {
	if r == 0 {
		return math.NaN()
	}
	v := 1 + math.Exp(-1)*(1/(r*r)-1)
	if v <= 0 {
		return math.NaN()
	}
	return 1 / math.Sqrt(v)
}

// MapCurve samples f on [lo, hi) every step, skipping points where f is not
// finite.
func MapCurve(f func(float64) float64, lo, hi, step float64) (x, y []float64, err error) {
	if !(step > 0) || !(hi > lo) {
		return nil, nil, fmt.Errorf("%w: bad curve range [%g, %g) step %g", dynamo.ErrPrecondition, lo, hi, step)
	}
	n := int(math.Ceil((hi - lo) / step))
	x, y = make([]float64, 0, n), make([]float64, 0, n)
	for k := 0; k < n; k++ {
		r := lo + float64(k)*step
		if r >= hi {
			break
		}
		if v := f(r); finite(v) {
			x = append(x, r)
			y = append(y, v)
		}
	}
	return x, y, nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
