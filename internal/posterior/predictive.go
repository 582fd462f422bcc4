// Package posterior runs the latent-state simulator once per retained
// parameter draw and summarises the derived population quantities.
package posterior

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"jollyseber/internal/model"
	"jollyseber/internal/rates"
	"jollyseber/internal/simulate"
)

type Config struct {
	Individuals int
	Workers     int
	Seed        uint64
	// KeepDraws retains every simulated result in Summary.Results.
	KeepDraws   bool
}

// Quantity summarises one scalar across draws.
type Quantity struct {
	Mean   float64 `json:"mean" yaml:"mean"`
	SD     float64 `json:"sd" yaml:"sd"`
	Lower  float64 `json:"q025" yaml:"q025"`
	Median float64 `json:"q50" yaml:"q50"`
	Upper  float64 `json:"q975" yaml:"q975"`
}

type Summary struct {
	Draws  int        `json:"draws" yaml:"draws"`
	N      []Quantity `json:"n" yaml:"n"`
	B      []Quantity `json:"b" yaml:"b"`
	NSuper Quantity   `json:"nsuper" yaml:"nsuper"`

	Results []simulate.Result `json:"results,omitempty" yaml:"results,omitempty"`
}

// Predict simulates one latent population per draw. Draw k uses a random
// stream seeded from (Seed, k), so the summary is reproducible regardless of
// the worker count.
func Predict(ctx context.Context, draws []model.ParameterSet, cfg Config) (Summary, error) {
	if len(draws) == 0 {
		return Summary{}, errors.New("at least one parameter draw is required")
	}
	if cfg.Individuals <= 0 {
		return Summary{}, fmt.Errorf("%w: individuals must be > 0", model.ErrShapeMismatch)
	}
	occasions := draws[0].Occasions()
	for k, d := range draws {
		if d.Occasions() != occasions {
			return Summary{}, fmt.Errorf("%w: draw %d has %d occasions, want %d", model.ErrShapeMismatch, k, d.Occasions(), occasions)
		}
	}

	results, err := simulateAll(ctx, draws, cfg)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{
		Draws: len(draws),
		N:     make([]Quantity, occasions),
		B:     make([]Quantity, occasions),
	}
	column := make([]float64, len(results))
	for t := 0; t < occasions; t++ {
		for k, res := range results {
			column[k] = float64(res.N[t])
		}
		summary.N[t] = summarize(column)
		for k, res := range results {
			column[k] = float64(res.B[t])
		}
		summary.B[t] = summarize(column)
	}
	for k, res := range results {
		column[k] = float64(res.NSuper)
	}
	summary.NSuper = summarize(column)
	if cfg.KeepDraws {
		summary.Results = results
	}
	return summary, nil
}

// simulateAll runs one simulation per draw on at most cfg.Workers
// goroutines. Results land in per-draw slots.
func simulateAll(ctx context.Context, draws []model.ParameterSet, cfg Config) ([]simulate.Result, error) {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	out := make([]simulate.Result, len(draws))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for k, params := range draws {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := simulate.Run(params, rates.Broadcast(params), cfg.Individuals, rand.NewPCG(cfg.Seed, uint64(k)))
			if err != nil {
				return fmt.Errorf("draw %d: %w", k, err)
			}
			out[k] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func summarize(values []float64) Quantity {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	q := Quantity{
		Mean:   stat.Mean(sorted, nil),
		Lower:  stat.Quantile(0.025, stat.Empirical, sorted, nil),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Upper:  stat.Quantile(0.975, stat.Empirical, sorted, nil),
	}
	if len(sorted) > 1 {
		q.SD = stat.StdDev(sorted, nil)
	}
	return q
}
