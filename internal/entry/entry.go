// Package entry converts raw positive entry weights into entry probabilities
// and their sequential conditional (hazard) form.
package entry

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"jollyseber/internal/capture"
	"jollyseber/internal/model"
)

// DefaultFloor is the remaining-mass floor below which a conditional entry
// probability is treated as degenerate.
const DefaultFloor = 1e-12

// Probabilities holds b (entry distribution over occasions) and nu
// (probability of entering at t given not entered before t).
type Probabilities struct {
	B  []float64
	Nu []float64

	// DegenerateFrom is the first occasion whose remaining entry mass was at
	// or below the floor, or capture.Never.
	DegenerateFrom capture.Occasion
}

// Degenerate reports whether any conditional entry probability was forced.
func (p Probabilities) Degenerate() bool {
	return !p.DegenerateFrom.IsNever()
}

// Transform normalises weights into b and derives nu. nu[T-1] is always 1.
// When the mass remaining before an occasion is at or below floor, nu at that
// occasion is set to 1 and the occasion is recorded in DegenerateFrom.
func Transform(weights []float64, floor float64) (Probabilities, error) {
	occasions := len(weights)
	if occasions == 0 {
		return Probabilities{}, fmt.Errorf("%w: entry weights are empty", model.ErrShapeMismatch)
	}
	if floor < 0 {
		floor = 0
	}
	total := floats.Sum(weights)
	if !(total > 0) || math.IsInf(total, 0) {
		return Probabilities{}, fmt.Errorf("%w: entry weights sum to %v", model.ErrInvalidParameter, total)
	}

	b := make([]float64, occasions)
	floats.ScaleTo(b, 1/total, weights)

	// remaining[t] = sum of b[t:], the mass not yet entered before t.
	remaining := make([]float64, occasions)
	acc := 0.0
	for t := occasions - 1; t >= 0; t-- {
		acc += b[t]
		remaining[t] = acc
	}

	out := Probabilities{B: b, Nu: make([]float64, occasions)}
	out.Nu[0] = b[0]
	for t := 1; t < occasions-1; t++ {
		if remaining[t] <= floor {
			out.Nu[t] = 1
			if out.DegenerateFrom.IsNever() {
				out.DegenerateFrom = capture.At(t + 1)
			}
			continue
		}
		out.Nu[t] = math.Min(1, b[t]/remaining[t])
	}
	out.Nu[occasions-1] = 1
	return out, nil
}

// LogEntry returns, per occasion t, the log probability of not having
// entered before t and entering at t. That product of (1-nu[s]) and nu[t]
// telescopes to b[t], so it is taken from b directly and stays finite when
// an early nu rounds to 1.
func (p Probabilities) LogEntry() []float64 {
	out := make([]float64, len(p.B))
	for t, b := range p.B {
		out[t] = math.Log(b)
	}
	return out
}
