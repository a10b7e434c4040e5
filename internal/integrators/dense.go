package integrators

import "github.com/san-kum/attractor/internal/dynamo"

// Dense output coefficients of the 4th order continuous extension.
var (
	d1 = -12715105075.0 / 11282082432.0
	d3 = 87487479700.0 / 32700410799.0
	d4 = -10690763975.0 / 1880347072.0
	d5 = 701980252875.0 / 199316789632.0
	d6 = -1453857185.0 / 822651844.0
	d7 = 69997945.0 / 29380423.0
)

// interpolant evaluates the solution anywhere inside one accepted step.
type interpolant struct {
	t0, h              float64
	r1, r2, r3, r4, r5 dynamo.State
}

func newInterpolant(t0, h float64, x0, x1 dynamo.State, k stages) interpolant {
	ip := interpolant{t0: t0, h: h, r1: x0}
	for i := range x0 {
		ip.r2[i] = x1[i] - x0[i]
		ip.r3[i] = h*k[0][i] - ip.r2[i]
		ip.r4[i] = ip.r2[i] - h*k[6][i] - ip.r3[i]
		ip.r5[i] = h * (d1*k[0][i] + d3*k[2][i] + d4*k[3][i] + d5*k[4][i] + d6*k[5][i] + d7*k[6][i])
	}
	return ip
}

func (ip interpolant) at(t float64) dynamo.State {
	theta := (t - ip.t0) / ip.h
	theta1 := 1 - theta
	var out dynamo.State
	for i := range out {
		out[i] = ip.r1[i] + theta*(ip.r2[i]+theta1*(ip.r3[i]+theta*(ip.r4[i]+theta1*ip.r5[i])))
	}
	return out
}

// grid yields the uniform output times t0 + k*dt, snapping the final point
// onto tEnd when rounding would overshoot it.
type grid struct {
	t0, tEnd, dt float64
	k            int
}

func (g *grid) next() float64 {
	t := g.t0 + float64(g.k)*g.dt
	if t > g.tEnd || g.tEnd-t <= 1e-9*g.dt {
		return g.tEnd
	}
	return t
}

func (g *grid) advance() { g.k++ }
