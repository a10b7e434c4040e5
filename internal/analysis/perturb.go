package analysis

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sync"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/san-kum/attractor/internal/dynamo"
)

// Perturber draws nearby starting points for divergence experiments. It is
// safe for concurrent use; draws are serialized on the underlying source.
type Perturber struct {
	mu  sync.Mutex
	src rand.Source
}

// NewPerturber uses src for every draw. A nil src uses a randomly seeded
// PCG source.
func NewPerturber(src rand.Source) *Perturber {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &Perturber{src: src}
}

// NewSeededPerturber returns a Perturber whose draws are reproducible.
func NewSeededPerturber(seed uint64) *Perturber {
	return NewPerturber(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Perturb offsets each coordinate of center independently by a value drawn
// uniformly from [-maxOffset/3, maxOffset/3). The result lies in a cube
// around center, not in a ball of radius maxOffset.
func (p *Perturber) Perturb(center dynamo.State, maxOffset float64) (dynamo.State, error) {
	if maxOffset < 0 || math.IsNaN(maxOffset) || math.IsInf(maxOffset, 0) {
		return dynamo.State{}, fmt.Errorf("%w: max offset must be finite and non-negative, got %g", dynamo.ErrPrecondition, maxOffset)
	}
	if !center.IsValid() {
		return dynamo.State{}, fmt.Errorf("%w: center %v is not finite", dynamo.ErrPrecondition, center)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	dist := distuv.Uniform{Min: -maxOffset / 3, Max: maxOffset / 3, Src: p.src}
	var out dynamo.State
	for i, c := range center {
		out[i] = c + dist.Rand()
	}
	return out, nil
}
