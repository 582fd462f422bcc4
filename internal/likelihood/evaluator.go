// Package likelihood evaluates the Jolly-Seber superpopulation log-likelihood
// with the unknown entry occasion and inclusion marginalised in log space.
package likelihood

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"jollyseber/internal/capture"
	"jollyseber/internal/entry"
	"jollyseber/internal/model"
	"jollyseber/internal/rates"
)

type Config struct {
	// Workers bounds the number of goroutines evaluating individuals.
	Workers    int
	// Floor is the remaining entry mass at or below which nu is forced to 1.
	Floor      float64
	// Strict turns a degenerate entry normalisation into an error.
	Strict     bool
	// EntryPrior is the gamma prior on each raw entry weight.
	EntryPrior GammaPrior
}

type Evaluator struct {
	captures capture.Matrix
	index    []capture.Index
	cfg      Config
}

func New(captures capture.Matrix, cfg Config) (*Evaluator, error) {
	if captures.Individuals() == 0 || captures.Occasions() == 0 {
		return nil, fmt.Errorf("%w: capture matrix is empty", model.ErrShapeMismatch)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Floor <= 0 {
		cfg.Floor = entry.DefaultFloor
	}
	if cfg.EntryPrior == (GammaPrior{}) {
		cfg.EntryPrior = DefaultEntryPrior
	}
	if err := cfg.EntryPrior.validate(); err != nil {
		return nil, err
	}
	return &Evaluator{
		captures: captures,
		index:    capture.IndexMatrix(captures),
		cfg:      cfg,
	}, nil
}

// Occasions returns T.
func (e *Evaluator) Occasions() int {
	return e.captures.Occasions()
}

// Individuals returns the augmented sample size M.
func (e *Evaluator) Individuals() int {
	return e.captures.Individuals()
}

// LogLikelihood returns the data log-likelihood with survival and capture
// broadcast from the parameter means.
func (e *Evaluator) LogLikelihood(ctx context.Context, params model.ParameterSet) (float64, error) {
	if err := params.Validate(e.Occasions()); err != nil {
		return 0, err
	}
	return e.LogLikelihoodWithRates(ctx, params, rates.Broadcast(params))
}

// LogLikelihoodWithRates evaluates the log-likelihood under caller-supplied
// survival and capture rates. Only psi and the entry weights are read from
// params, so MeanSurvival and MeanCapture are neither used nor validated.
func (e *Evaluator) LogLikelihoodWithRates(ctx context.Context, params model.ParameterSet, d rates.Derived) (float64, error) {
	contributions, err := e.Contributions(ctx, params, d)
	if err != nil {
		return 0, err
	}
	return floats.Sum(contributions), nil
}

// LogDensity is the log-likelihood plus the prior log-density.
func (e *Evaluator) LogDensity(ctx context.Context, params model.ParameterSet) (float64, error) {
	ll, err := e.LogLikelihood(ctx, params)
	if err != nil {
		return 0, err
	}
	return ll + e.LogPrior(params), nil
}

// Contributions returns one log-likelihood term per individual. Each slot is
// written by exactly one goroutine, so the sum does not depend on scheduling.
// A term that is not finite, for example from a capture rate of 1 at a missed
// occasion, is reported as ErrInvalidParameter.
func (e *Evaluator) Contributions(ctx context.Context, params model.ParameterSet, d rates.Derived) ([]float64, error) {
	if d.Survival == nil || d.Capture == nil {
		return nil, fmt.Errorf("survival and capture rates are required")
	}
	if err := params.ValidateInclusion(e.Occasions()); err != nil {
		return nil, err
	}
	probs, err := entry.Transform(params.EntryWeights, e.cfg.Floor)
	if err != nil {
		return nil, err
	}
	if probs.Degenerate() && e.cfg.Strict {
		return nil, fmt.Errorf("%w: remaining entry mass <= %g from %s", model.ErrDegenerateNormalization, e.cfg.Floor, probs.DegenerateFrom)
	}
	logEntry := probs.LogEntry()

	out := make([]float64, e.Individuals())
	g, gctx := errgroup.WithContext(ctx)
	for _, b := range splitBlocks(len(out), e.cfg.Workers) {
		g.Go(func() error {
			for i := b.start; i < b.end; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				v := e.individual(i, params.Psi, d, logEntry)
				if math.IsNaN(v) || math.IsInf(v, 0) {
					return fmt.Errorf("%w: individual %d produced log-likelihood %v", model.ErrInvalidParameter, i, v)
				}
				out[i] = v
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

type block struct {
	start, end int
}

func splitBlocks(n, workers int) []block {
	if workers > n {
		workers = n
	}
	if workers <= 0 {
		return nil
	}
	size := (n + workers - 1) / workers
	blocks := make([]block, 0, workers)
	for start := 0; start < n; start += size {
		blocks = append(blocks, block{start: start, end: min(start+size, n)})
	}
	return blocks
}
