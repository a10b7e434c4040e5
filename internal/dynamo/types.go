package dynamo

import (
	"fmt"
	"math"
)

// State is a point (x, y, z) in phase space. It is a value type, so copies
// never alias each other.
type State [3]float64

func NewState(x, y, z float64) State {
	return State{x, y, z}
}

func (s State) X() float64 { return s[0] }
func (s State) Y() float64 { return s[1] }
func (s State) Z() float64 { return s[2] }

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Add(other State) State {
	return State{s[0] + other[0], s[1] + other[1], s[2] + other[2]}
}

func (s State) Sub(other State) State {
	return State{s[0] - other[0], s[1] - other[1], s[2] - other[2]}
}

func (s State) Scale(factor float64) State {
	return State{s[0] * factor, s[1] * factor, s[2] * factor}
}

func (s State) String() string {
	return fmt.Sprintf("(%g, %g, %g)", s[0], s[1], s[2])
}

// System is a vector field dX/dt = f(t, X).
type System interface {
	Derive(t float64, x State) State
}

// Sample is one point of a trajectory.
type Sample struct {
	T     float64
	State State
}

// Trajectory is an ordered sequence of samples with strictly increasing time.
type Trajectory []Sample

func (tr Trajectory) Len() int { return len(tr) }

func (tr Trajectory) Times() []float64 {
	out := make([]float64, len(tr))
	for i, s := range tr {
		out[i] = s.T
	}
	return out
}

// Axis returns the flattened values of one coordinate (0=x, 1=y, 2=z).
func (tr Trajectory) Axis(i int) []float64 {
	out := make([]float64, len(tr))
	for j, s := range tr {
		out[j] = s.State[i]
	}
	return out
}

func (tr Trajectory) States() []State {
	out := make([]State, len(tr))
	for i, s := range tr {
		out[i] = s.State
	}
	return out
}

// Last returns the final sample. ok is false for an empty trajectory.
func (tr Trajectory) Last() (Sample, bool) {
	if len(tr) == 0 {
		return Sample{}, false
	}
	return tr[len(tr)-1], true
}

// InitialConditions configures a single integration run.
type InitialConditions struct {
	T0   float64
	TEnd float64
	// Dt is the size of the first trial step.
	Dt   float64
	X0   State
	RTol float64
	ATol float64
	// OutputInterval > 0 samples the solution on the uniform grid
	// T0 + k*OutputInterval instead of at every accepted step.
	OutputInterval float64
}

func NewInitialConditions(t0, tEnd, dt float64, x0 State, rtol, atol float64) InitialConditions {
	return InitialConditions{
		T0:   t0,
		TEnd: tEnd,
		Dt:   dt,
		X0:   x0,
		RTol: rtol,
		ATol: atol,
	}
}

// WithOutputInterval returns a copy sampled on a uniform output grid.
func (ic InitialConditions) WithOutputInterval(dt float64) InitialConditions {
	ic.OutputInterval = dt
	return ic
}

func (ic InitialConditions) Validate() error {
	switch {
	case !(ic.TEnd > ic.T0):
		return fmt.Errorf("%w: t_end (%g) must be greater than t0 (%g)", ErrPrecondition, ic.TEnd, ic.T0)
	case !(ic.Dt > 0):
		return fmt.Errorf("%w: initial step must be positive, got %g", ErrPrecondition, ic.Dt)
	case !(ic.RTol > 0):
		return fmt.Errorf("%w: rtol must be positive, got %g", ErrPrecondition, ic.RTol)
	case !(ic.ATol > 0):
		return fmt.Errorf("%w: atol must be positive, got %g", ErrPrecondition, ic.ATol)
	case ic.OutputInterval < 0 || math.IsNaN(ic.OutputInterval):
		return fmt.Errorf("%w: output interval must not be negative, got %g", ErrPrecondition, ic.OutputInterval)
	case !ic.X0.IsValid():
		return fmt.Errorf("%w: initial state %v is not finite", ErrPrecondition, ic.X0)
	case math.IsInf(ic.TEnd, 0) || math.IsInf(ic.T0, 0):
		return fmt.Errorf("%w: integration bounds must be finite", ErrPrecondition)
	}
	return nil
}

// Stats reports how an integration run went. It is diagnostic only.
type Stats struct {
	Accepted    int
	Rejected    int
	Evaluations int
	StepMin     float64
	StepMax     float64
	StepP50     float64
	StepP99     float64
}

func (s Stats) String() string {
	return fmt.Sprintf("accepted=%d rejected=%d evaluations=%d h[min=%.3g p50=%.3g p99=%.3g max=%.3g]",
		s.Accepted, s.Rejected, s.Evaluations, s.StepMin, s.StepP50, s.StepP99, s.StepMax)
}

// Result is the output of one integration run. Trajectory holds every sample
// produced, including those from a run that ended in failure.
type Result struct {
	Trajectory Trajectory
	Stats      Stats
}
