package rates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jollyseber/internal/model"
)

func TestUncapturedLastOccasionIsOne(t *testing.T) {
	for _, tc := range []struct{ phi, p float64 }{{0.5, 0.5}, {0.9, 0.1}, {0.01, 0.99}, {1, 1}} {
		d := Derived{Survival: Constant(tc.phi), Capture: Constant(tc.p)}
		for i := 0; i < 3; i++ {
			chi := UncapturedRow(d, i, 5)
			assert.Equal(t, 1.0, chi[4])
			for _, v := range chi {
				assert.GreaterOrEqual(t, v, 0.0)
				assert.LessOrEqual(t, v, 1.0)
			}
		}
	}
}

func TestUncapturedBoundaries(t *testing.T) {
	alwaysSurviveNeverSeen := Derived{Survival: Constant(1), Capture: Constant(0)}
	for _, v := range UncapturedRow(alwaysSurviveNeverSeen, 0, 6) {
		assert.Equal(t, 1.0, v)
	}

	certainDeath := Derived{Survival: Constant(0), Capture: Constant(0.8)}
	for _, v := range UncapturedRow(certainDeath, 0, 6) {
		assert.Equal(t, 1.0, v)
	}
}

func TestUncapturedMatchesHandComputation(t *testing.T) {
	d := Derived{Survival: Constant(0.5), Capture: Constant(0.5)}
	chi := UncapturedRow(d, 0, 3)
	// chi[1] = 0.5 + 0.5*0.5*1, chi[0] = 0.5 + 0.5*0.5*0.75
	assert.InDelta(t, 0.75, chi[1], 1e-12)
	assert.InDelta(t, 0.6875, chi[0], 1e-12)
}

func TestUncapturedUsesPerCellRates(t *testing.T) {
	survival, err := NewGrid([][]float64{{1, 1}, {0, 0}})
	require.NoError(t, err)
	capture, err := NewGrid([][]float64{{0.5, 0.5, 0.5}, {0.5, 0.5, 0.5}})
	require.NoError(t, err)

	d := Derived{Survival: survival, Capture: capture}
	first := UncapturedRow(d, 0, 3)
	assert.InDelta(t, 0.25, first[0], 1e-12)
	assert.InDelta(t, 0.5, first[1], 1e-12)
	assert.Equal(t, []float64{1, 1, 1}, UncapturedRow(d, 1, 3))
}

func TestNewGridValidates(t *testing.T) {
	_, err := NewGrid([][]float64{{0.5, 1.2}})
	assert.ErrorIs(t, err, model.ErrInvalidParameter)

	_, err = NewGrid([][]float64{{0.5, 0.5}, {0.5}})
	assert.ErrorIs(t, err, model.ErrShapeMismatch)
}

func TestBroadcast(t *testing.T) {
	d := Broadcast(model.ParameterSet{MeanSurvival: 0.8, MeanCapture: 0.3})
	assert.Equal(t, 0.8, d.Survival.Rate(7, 2))
	assert.Equal(t, 0.3, d.Capture.Rate(0, 0))
}
