package analysis

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/attractor/internal/dynamo"
)

func TestPerturbBounds(t *testing.T) {
	p := NewSeededPerturber(42)
	center := dynamo.State{1.5, -20, 37}
	d := 1e-6

	for i := 0; i < 100000; i++ {
		got, err := p.Perturb(center, d)
		require.NoError(t, err)
		for k := range got {
			if math.Abs(got[k]-center[k]) > d/3 {
				t.Fatalf("draw %d: coordinate %d offset %g exceeds %g", i, k, got[k]-center[k], d/3)
			}
		}
	}
}

func TestPerturbCoversCube(t *testing.T) {
	p := NewSeededPerturber(7)
	var lo, hi dynamo.State
	for i := 0; i < 10000; i++ {
		got, err := p.Perturb(dynamo.State{}, 3)
		require.NoError(t, err)
		for k, v := range got {
			lo[k] = math.Min(lo[k], v)
			hi[k] = math.Max(hi[k], v)
		}
	}
	for k := range lo {
		assert.Less(t, lo[k], -0.95, "axis %d", k)
		assert.Greater(t, hi[k], 0.95, "axis %d", k)
	}
}

func TestPerturbReproducible(t *testing.T) {
	a, b := NewSeededPerturber(99), NewSeededPerturber(99)
	for i := 0; i < 10; i++ {
		pa, err := a.Perturb(dynamo.State{1, 1, 1}, 1e-3)
		require.NoError(t, err)
		pb, err := b.Perturb(dynamo.State{1, 1, 1}, 1e-3)
		require.NoError(t, err)
		assert.Equal(t, pa, pb)
	}

	c := NewSeededPerturber(100)
	pa, _ := NewSeededPerturber(99).Perturb(dynamo.State{}, 1)
	pc, _ := c.Perturb(dynamo.State{}, 1)
	assert.NotEqual(t, pa, pc)
}

func TestPerturbZeroOffset(t *testing.T) {
	center := dynamo.State{4, 5, 6}
	got, err := NewSeededPerturber(1).Perturb(center, 0)
	require.NoError(t, err)
	assert.Equal(t, center, got)
}

func TestPerturbPreconditions(t *testing.T) {
	p := NewPerturber(nil)
	for _, d := range []float64{-1, math.NaN(), math.Inf(1)} {
		_, err := p.Perturb(dynamo.State{}, d)
		assert.ErrorIs(t, err, dynamo.ErrPrecondition, "offset %v", d)
	}
	_, err := p.Perturb(dynamo.State{math.NaN(), 0, 0}, 1)
	assert.ErrorIs(t, err, dynamo.ErrPrecondition)
}

func TestPerturbConcurrent(t *testing.T) {
	p := NewSeededPerturber(3)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				got, err := p.Perturb(dynamo.State{}, 1)
				if err != nil || got.Norm() > math.Sqrt(3)/3 {
					t.Errorf("bad draw %v %v", got, err)
					return
				}
			}
		}()
	}
	wg.Wait()
}
