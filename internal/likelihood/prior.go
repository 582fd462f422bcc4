package likelihood

import (
	"fmt"

	"gonum.org/v1/gonum/stat/distuv"

	"jollyseber/internal/model"
)

// GammaPrior is a Gamma(shape, rate) density.
type GammaPrior struct {
	Shape float64 `yaml:"shape"`
	Rate  float64 `yaml:"rate"`
}

var DefaultEntryPrior = GammaPrior{Shape: 1, Rate: 1}

func (g GammaPrior) validate() error {
	if !(g.Shape > 0) || !(g.Rate > 0) {
		return fmt.Errorf("%w: entry prior shape=%v rate=%v must be > 0", model.ErrInvalidParameter, g.Shape, g.Rate)
	}
	return nil
}

var unitUniform = distuv.Uniform{Min: 0, Max: 1}

// LogPrior sums independent priors: Uniform(0,1) on the survival, capture
// and inclusion probabilities and the gamma prior on each entry weight.
func (e *Evaluator) LogPrior(params model.ParameterSet) float64 {
	lp := unitUniform.LogProb(params.MeanSurvival) +
		unitUniform.LogProb(params.MeanCapture) +
		unitUniform.LogProb(params.Psi)
	gamma := distuv.Gamma{Alpha: e.cfg.EntryPrior.Shape, Beta: e.cfg.EntryPrior.Rate}
	for _, w := range params.EntryWeights {
		lp += gamma.LogProb(w)
	}
	return lp
}
