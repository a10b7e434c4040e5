package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/attractor/internal/dynamo"
)

func TestFindMaxima(t *testing.T) {
	tests := []struct {
		name   string
		signal []float64
		want   Maxima
	}{
		{"empty", nil, Maxima{0}},
		{"too short", []float64{1, 2}, Maxima{0}},
		{"single peak", []float64{1, 3, 2}, Maxima{0, 3}},
		{"two peaks", []float64{0, 2, 1, 5, 4}, Maxima{0, 2, 5}},
		{"endpoints ignored", []float64{9, 1, 9}, Maxima{0}},
		{"plateau is not a peak", []float64{1, 3, 3, 1}, Maxima{0}},
		{"negative peak", []float64{-5, -1, -3}, Maxima{0, -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FindMaxima(tt.signal))
		})
	}
}

func TestFindMaximaCondition(t *testing.T) {
	signal := make([]float64, 2000)
	for i := range signal {
		x := float64(i) * 0.01
		signal[i] = math.Sin(3*x) + 0.5*math.Sin(7.1*x)
	}

	m := FindMaxima(signal)
	require.NotEmpty(t, m.Peaks())
	assert.Equal(t, 0.0, m[0])

	// map each peak back to its index and check the strict condition
	j := 1
	for i := 1; i+1 < len(signal); i++ {
		if signal[i-1] < signal[i] && signal[i+1] < signal[i] {
			require.Less(t, j, len(m))
			assert.Equal(t, signal[i], m[j])
			j++
		}
	}
	assert.Equal(t, len(m), j)
}

func TestNormalize(t *testing.T) {
	m := FindMaxima([]float64{0, 2, 1, 4, 3, 2, 1, 8, 0})
	got := Normalize(m)

	require.Len(t, got, len(m)-1)
	assert.True(t, math.IsInf(got[0], 1), "sentinel divisor should give +Inf, got %v", got[0])
	assert.Equal(t, []float64{2, 2}, got[1:])

	assert.Empty(t, Normalize(nil))
	assert.Empty(t, Normalize([]float64{3}))
	assert.True(t, math.IsNaN(Normalize([]float64{0, 0})[0]))
}

func TestNormalizeStrict(t *testing.T) {
	_, err := NormalizeStrict(Maxima{0, 2, 4})
	require.ErrorIs(t, err, dynamo.ErrNumericDomain)

	var de *dynamo.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 0, de.Index)

	got, err := NormalizeStrict(Maxima{0, 2, 4}.Peaks())
	require.NoError(t, err)
	assert.Equal(t, []float64{2}, got)
}

func TestReturnMap(t *testing.T) {
	x, y := ReturnMap([]float64{1, 2, 3, 4})
	assert.Equal(t, []float64{1, 2, 3}, x)
	assert.Equal(t, []float64{2, 3, 4}, y)

	x, y = ReturnMap([]float64{1})
	assert.Empty(t, x)
	assert.Empty(t, y)
}
