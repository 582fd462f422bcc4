// Package rates provides per-individual, per-occasion survival and capture
// probabilities and the backward "never captured again" recursion.
package rates

import (
	"fmt"

	"jollyseber/internal/model"
)

// Rate yields a probability for individual i at zero-based occasion t. For
// survival, t is the interval from occasion t to t+1.
type Rate interface {
	Rate(i, t int) float64
}

// Constant broadcasts one probability to every cell.
type Constant float64

func (c Constant) Rate(_, _ int) float64 {
	return float64(c)
}

// Grid stores one probability per cell.
type Grid struct {
	values [][]float64
}

// NewGrid copies values and checks every cell lies in [0,1].
func NewGrid(values [][]float64) (Grid, error) {
	out := make([][]float64, len(values))
	for i, row := range values {
		if i > 0 && len(row) != len(values[0]) {
			return Grid{}, fmt.Errorf("%w: grid row %d has %d cells, want %d", model.ErrShapeMismatch, i, len(row), len(values[0]))
		}
		for t, v := range row {
			if !(v >= 0 && v <= 1) {
				return Grid{}, fmt.Errorf("%w: grid[%d][%d]=%v must be in [0,1]", model.ErrInvalidParameter, i, t, v)
			}
		}
		out[i] = append([]float64(nil), row...)
	}
	return Grid{values: out}, nil
}

func (g Grid) Rate(i, t int) float64 {
	return g.values[i][t]
}

// Derived bundles the survival and capture rates used by the evaluator and
// the simulator.
type Derived struct {
	Survival Rate
	Capture  Rate
}

// Broadcast builds time- and individual-invariant rates from the means.
func Broadcast(params model.ParameterSet) Derived {
	return Derived{
		Survival: Constant(params.MeanSurvival),
		Capture:  Constant(params.MeanCapture),
	}
}
