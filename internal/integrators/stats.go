package integrators

import (
	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/san-kum/attractor/internal/dynamo"
)

// step sizes are recorded in units of 1e-9 time units
const (
	stepResolution = 1e9
	maxRecorded    = 1e12
)

type recorder struct {
	hist        *hdrhistogram.Histogram
	accepted    int
	rejected    int
	evaluations int
}

func newRecorder() *recorder {
	return &recorder{hist: hdrhistogram.New(1, maxRecorded, 3)}
}

func (r *recorder) accept(h float64) {
	r.accepted++
	v := int64(h * stepResolution)
	if v < 1 {
		v = 1
	}
	if v > maxRecorded {
		v = maxRecorded
	}
	_ = r.hist.RecordValue(v)
}

func (r *recorder) stats() dynamo.Stats {
	s := dynamo.Stats{
		Accepted:    r.accepted,
		Rejected:    r.rejected,
		Evaluations: r.evaluations,
	}
	if r.hist.TotalCount() > 0 {
		s.StepMin = float64(r.hist.Min()) / stepResolution
		s.StepMax = float64(r.hist.Max()) / stepResolution
		s.StepP50 = float64(r.hist.ValueAtQuantile(50)) / stepResolution
		s.StepP99 = float64(r.hist.ValueAtQuantile(99)) / stepResolution
	}
	return s
}
