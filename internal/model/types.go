package model

import (
	"fmt"
	"math"
)

// ParameterSet is one candidate parameter vector proposed by an inference
// engine. The core never mutates it.
type ParameterSet struct {
	MeanSurvival float64   `json:"mean_survival" yaml:"mean_survival"`
	MeanCapture  float64   `json:"mean_capture" yaml:"mean_capture"`
	Psi          float64   `json:"psi" yaml:"psi"`
	EntryWeights []float64 `json:"entry_weights" yaml:"entry_weights"`
}

// Occasions returns the number of occasions implied by the entry weights.
func (p ParameterSet) Occasions() int {
	return len(p.EntryWeights)
}

// Validate checks the open domains required by the likelihood: every
// probability in (0,1) and every entry weight > 0.
func (p ParameterSet) Validate(occasions int) error {
	if err := openUnit("mean_survival", p.MeanSurvival); err != nil {
		return err
	}
	if err := openUnit("mean_capture", p.MeanCapture); err != nil {
		return err
	}
	return p.ValidateInclusion(occasions)
}

// ValidateInclusion checks only psi and the entry weights, for callers that
// supply survival and capture rates separately.
func (p ParameterSet) ValidateInclusion(occasions int) error {
	if err := p.checkShape(occasions); err != nil {
		return err
	}
	if err := openUnit("psi", p.Psi); err != nil {
		return err
	}
	for i, w := range p.EntryWeights {
		if !(w > 0) || math.IsInf(w, 0) {
			return fmt.Errorf("%w: entry_weights[%d]=%v must be > 0", ErrInvalidParameter, i, w)
		}
	}
	return nil
}

// ValidateForSimulation accepts the closed unit interval and non-negative
// entry weights with a positive total, so boundary scenarios can be drawn.
func (p ParameterSet) ValidateForSimulation(occasions int) error {
	if err := p.checkShape(occasions); err != nil {
		return err
	}
	if err := closedUnit("mean_survival", p.MeanSurvival); err != nil {
		return err
	}
	if err := closedUnit("mean_capture", p.MeanCapture); err != nil {
		return err
	}
	if err := closedUnit("psi", p.Psi); err != nil {
		return err
	}
	total := 0.0
	for i, w := range p.EntryWeights {
		if !(w >= 0) || math.IsInf(w, 0) {
			return fmt.Errorf("%w: entry_weights[%d]=%v must be >= 0", ErrInvalidParameter, i, w)
		}
		total += w
	}
	if total <= 0 {
		return fmt.Errorf("%w: entry_weights must have a positive sum", ErrInvalidParameter)
	}
	return nil
}

func (p ParameterSet) checkShape(occasions int) error {
	if occasions <= 0 {
		return fmt.Errorf("%w: occasions must be > 0, got %d", ErrShapeMismatch, occasions)
	}
	if len(p.EntryWeights) != occasions {
		return fmt.Errorf("%w: entry_weights has length %d, want %d", ErrShapeMismatch, len(p.EntryWeights), occasions)
	}
	return nil
}

func openUnit(name string, v float64) error {
	if !(v > 0 && v < 1) {
		return fmt.Errorf("%w: %s=%v must be in (0,1)", ErrInvalidParameter, name, v)
	}
	return nil
}

func closedUnit(name string, v float64) error {
	if !(v >= 0 && v <= 1) {
		return fmt.Errorf("%w: %s=%v must be in [0,1]", ErrInvalidParameter, name, v)
	}
	return nil
}

// Vector packs the parameters as [meanSurvival, meanCapture, psi, w1..wT].
func (p ParameterSet) Vector() []float64 {
	out := make([]float64, 0, 3+len(p.EntryWeights))
	out = append(out, p.MeanSurvival, p.MeanCapture, p.Psi)
	return append(out, p.EntryWeights...)
}

// FromVector is the inverse of Vector for a study with the given number of
// occasions. The weights are copied.
func FromVector(x []float64, occasions int) (ParameterSet, error) {
	if occasions <= 0 || len(x) != 3+occasions {
		return ParameterSet{}, fmt.Errorf("%w: parameter vector has length %d, want %d", ErrShapeMismatch, len(x), 3+occasions)
	}
	return ParameterSet{
		MeanSurvival: x[0],
		MeanCapture:  x[1],
		Psi:          x[2],
		EntryWeights: append([]float64(nil), x[3:]...),
	}, nil
}
