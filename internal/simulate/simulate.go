// Package simulate draws latent inclusion and alive-state trajectories for
// one parameter draw and derives population-size summaries from them.
package simulate

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"jollyseber/internal/entry"
	"jollyseber/internal/model"
	"jollyseber/internal/rates"
)

// Result is one realisation of the latent population.
type Result struct {
	// W is the inclusion indicator per individual.
	W       []bool   `json:"w"`
	// Z is the alive state per individual and occasion, ignoring inclusion.
	Z       [][]bool `json:"z"`
	// U is Z masked by W.
	U       [][]bool `json:"u"`
	// Recruit marks the occasion at which an included individual entered.
	Recruit [][]bool `json:"recruit"`
	// NInd counts the occasions each individual was alive and included.
	NInd    []int    `json:"nind"`
	// N is the population size per occasion.
	N       []int    `json:"n"`
	// B is the number of new entrants per occasion.
	B       []int    `json:"b"`
	// NSuper is the realised superpopulation size.
	NSuper  int      `json:"nsuper"`
}

// Run draws a latent population of the given size. Survival is read from d;
// capture rates are not used. src must not be shared with concurrent callers.
func Run(params model.ParameterSet, d rates.Derived, individuals int, src rand.Source) (Result, error) {
	occasions := params.Occasions()
	if err := params.ValidateForSimulation(occasions); err != nil {
		return Result{}, err
	}
	if individuals <= 0 {
		return Result{}, fmt.Errorf("%w: individuals must be > 0, got %d", model.ErrShapeMismatch, individuals)
	}
	if src == nil {
		return Result{}, fmt.Errorf("random source is required")
	}
	if d.Survival == nil {
		return Result{}, fmt.Errorf("survival rate is required")
	}
	probs, err := entry.Transform(params.EntryWeights, entry.DefaultFloor)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		W:       make([]bool, individuals),
		Z:       make([][]bool, individuals),
		U:       make([][]bool, individuals),
		Recruit: make([][]bool, individuals),
		NInd:    make([]int, individuals),
		N:       make([]int, occasions),
		B:       make([]int, occasions),
	}
	for i := 0; i < individuals; i++ {
		res.W[i] = draw(params.Psi, src)
		res.Z[i] = make([]bool, occasions)
		if res.W[i] {
			trajectory(res.Z[i], i, probs.Nu, d.Survival, src)
		}

		res.U[i] = make([]bool, occasions)
		res.Recruit[i] = make([]bool, occasions)
		for t := 0; t < occasions; t++ {
			u := res.Z[i][t] && res.W[i]
			res.U[i][t] = u
			res.Recruit[i][t] = u && (t == 0 || !res.U[i][t-1])
			if u {
				res.NInd[i]++
				res.N[t]++
			}
			if res.Recruit[i][t] {
				res.B[t]++
			}
		}
		if res.NInd[i] > 0 {
			res.NSuper++
		}
	}
	return res, nil
}

// trajectory fills z for an included individual. An individual alive at t-1
// survives with the survival rate; one that has never been alive may enter
// with nu[t]. After death it cannot re-enter.
func trajectory(z []bool, i int, nu []float64, survival rates.Rate, src rand.Source) {
	z[0] = draw(nu[0], src)
	everAlive := z[0]
	for t := 1; t < len(z); t++ {
		var p float64
		switch {
		case z[t-1]:
			p = survival.Rate(i, t-1)
		case !everAlive:
			p = nu[t]
		}
		z[t] = draw(p, src)
		everAlive = everAlive || z[t]
	}
}

func draw(p float64, src rand.Source) bool {
	return distuv.Bernoulli{P: p, Src: src}.Rand() == 1
}
