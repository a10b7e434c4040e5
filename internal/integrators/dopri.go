package integrators

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/attractor/internal/dynamo"
)

const (
	DefaultMaxSteps = 100000
	DefaultMinStep  = 1e-12

	// how many step attempts pass between context checks
	ctxCheckEvery = 128
)

// DormandPrince integrates a system with the embedded 5(4) Dormand-Prince
// pair and adaptive step size control. A DormandPrince holds no run state
// and may be shared between goroutines.
type DormandPrince struct {
	safety   float64
	minScale float64
	maxScale float64
	maxSteps int
	minStep  float64
}

type Option func(*DormandPrince)

// WithMaxSteps bounds the number of step attempts, accepted or rejected.
func WithMaxSteps(n int) Option {
	return func(d *DormandPrince) { d.maxSteps = n }
}

// WithMinStep sets the step size below which a run is abandoned.
func WithMinStep(h float64) Option {
	return func(d *DormandPrince) { d.minStep = h }
}

func New(opts ...Option) *DormandPrince {
	d := &DormandPrince{
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
		maxSteps: DefaultMaxSteps,
		minStep:  DefaultMinStep,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *DormandPrince) MaxSteps() int { return d.maxSteps }

// Integrate solves sys from ic.X0 at ic.T0 up to ic.TEnd.
//
// Invalid conditions return a nil result and an error wrapping
// dynamo.ErrPrecondition. Otherwise the result is always non-nil; when the
// run stops early the error is a *dynamo.IntegrationError and the result
// holds the trajectory computed so far.
func (d *DormandPrince) Integrate(ctx context.Context, sys dynamo.System, ic dynamo.InitialConditions) (*dynamo.Result, error) {
	if sys == nil {
		return nil, fmt.Errorf("%w: nil system", dynamo.ErrPrecondition)
	}
	if err := ic.Validate(); err != nil {
		return nil, err
	}
	if d.maxSteps <= 0 {
		return nil, fmt.Errorf("%w: max steps must be positive, got %d", dynamo.ErrPrecondition, d.maxSteps)
	}

	rec := newRecorder()
	dense := ic.OutputInterval > 0
	out := grid{t0: ic.T0, tEnd: ic.TEnd, dt: ic.OutputInterval, k: 1}

	capHint := 1024
	if dense {
		capHint = int(math.Min((ic.TEnd-ic.T0)/ic.OutputInterval, 1<<20)) + 2
	}
	traj := make(dynamo.Trajectory, 0, capHint)
	traj = append(traj, dynamo.Sample{T: ic.T0, State: ic.X0})

	t, x := ic.T0, ic.X0
	h := math.Min(ic.Dt, ic.TEnd-ic.T0)
	k1 := sys.Derive(t, x)
	rec.evaluations++
	rejected := false

	fail := func(attempts int, cause error) (*dynamo.Result, error) {
		return &dynamo.Result{Trajectory: traj, Stats: rec.stats()},
			&dynamo.IntegrationError{Step: attempts, Time: t, State: x, Wrapped: cause}
	}

	if !k1.IsValid() {
		return fail(0, dynamo.ErrInvalidState)
	}

	for attempts := 0; t < ic.TEnd; attempts++ {
		if attempts%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return fail(attempts, err)
			}
		}
		if attempts >= d.maxSteps {
			return fail(attempts, dynamo.ErrMaxSteps)
		}

		last := false
		if t+h >= ic.TEnd || ic.TEnd-(t+h) <= d.minStep {
			h = ic.TEnd - t
			last = true
		}
		if h < d.minStep || t+h == t {
			return fail(attempts, dynamo.ErrStepTooSmall)
		}

		xNew, k, errNorm := attempt(sys, t, h, x, k1, ic.RTol, ic.ATol)
		rec.evaluations += 6

		if !xNew.IsValid() || math.IsNaN(errNorm) {
			return fail(attempts, dynamo.ErrInvalidState)
		}

		if errNorm > 1 {
			rec.rejected++
			h *= d.stepFactor(errNorm, rejected)
			rejected = true
			continue
		}

		tNew := t + h
		if last {
			tNew = ic.TEnd
		}
		rec.accept(h)

		if dense {
			ip := newInterpolant(t, h, x, xNew, k)
			for tOut := out.next(); tOut <= tNew; tOut = out.next() {
				if tOut == tNew {
					traj = append(traj, dynamo.Sample{T: tOut, State: xNew})
				} else {
					traj = append(traj, dynamo.Sample{T: tOut, State: ip.at(tOut)})
				}
				out.advance()
				if tOut == ic.TEnd {
					break
				}
			}
		} else {
			traj = append(traj, dynamo.Sample{T: tNew, State: xNew})
		}

		t, x, k1 = tNew, xNew, k[6]
		h *= d.stepFactor(errNorm, rejected)
		rejected = false
	}

	return &dynamo.Result{Trajectory: traj, Stats: rec.stats()}, nil
}
