package integrators

import (
	"math"

	"github.com/san-kum/attractor/internal/dynamo"
)

// Dormand-Prince coefficients (RK45)
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	// difference between the 5th and embedded 4th order weights
	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

// stages holds the slopes of one attempted step. k[0] is the slope at the
// start, k[6] the slope at the new point (first same as last).
type stages [7]dynamo.State

// attempt takes one trial step of size h from (t, x) given the slope k1 at
// x. It returns the 5th order solution, all stage slopes and the scaled RMS
// error estimate. Six derivative evaluations are made.
func attempt(sys dynamo.System, t, h float64, x, k1 dynamo.State, rtol, atol float64) (dynamo.State, stages, float64) {
	var k stages
	k[0] = k1

	var x2, x3, x4, x5, x6, xNew dynamo.State
	for i := range x {
		x2[i] = x[i] + h*b21*k[0][i]
	}
	k[1] = sys.Derive(t+a2*h, x2)

	for i := range x {
		x3[i] = x[i] + h*(b31*k[0][i]+b32*k[1][i])
	}
	k[2] = sys.Derive(t+a3*h, x3)

	for i := range x {
		x4[i] = x[i] + h*(b41*k[0][i]+b42*k[1][i]+b43*k[2][i])
	}
	k[3] = sys.Derive(t+a4*h, x4)

	for i := range x {
		x5[i] = x[i] + h*(b51*k[0][i]+b52*k[1][i]+b53*k[2][i]+b54*k[3][i])
	}
	k[4] = sys.Derive(t+a5*h, x5)

	for i := range x {
		x6[i] = x[i] + h*(b61*k[0][i]+b62*k[1][i]+b63*k[2][i]+b64*k[3][i]+b65*k[4][i])
	}
	k[5] = sys.Derive(t+h, x6)

	for i := range x {
		xNew[i] = x[i] + h*(c1*k[0][i]+c3*k[2][i]+c4*k[3][i]+c5*k[4][i]+c6*k[5][i])
	}
	k[6] = sys.Derive(t+h, xNew)

	sum := 0.0
	for i := range x {
		errEst := h * (dc1*k[0][i] + dc3*k[2][i] + dc4*k[3][i] + dc5*k[4][i] + dc6*k[5][i] + dc7*k[6][i])
		scale := atol + rtol*math.Max(math.Abs(x[i]), math.Abs(xNew[i]))
		sum += (errEst / scale) * (errEst / scale)
	}

	return xNew, k, math.Sqrt(sum / float64(len(x)))
}

// stepFactor converts a scaled error into the next step multiplier.
func (d *DormandPrince) stepFactor(errNorm float64, afterReject bool) float64 {
	var scale float64
	if errNorm == 0 {
		scale = d.maxScale
	} else {
		scale = d.safety * math.Pow(errNorm, -0.2)
	}
	scale = math.Max(d.minScale, math.Min(d.maxScale, scale))
	if afterReject && scale > 1 {
		scale = 1
	}
	return scale
}
