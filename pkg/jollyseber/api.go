// Package jollyseber is the entry point an external inference engine uses to
// evaluate the Jolly-Seber superpopulation log density and to draw
// posterior-predictive latent populations.
package jollyseber

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"runtime"

	"gonum.org/v1/gonum/diff/fd"

	"jollyseber/internal/capture"
	"jollyseber/internal/entry"
	"jollyseber/internal/likelihood"
	"jollyseber/internal/model"
	"jollyseber/internal/posterior"
	"jollyseber/internal/rates"
	"jollyseber/internal/simulate"
)

type (
	ParameterSet      = model.ParameterSet
	SimulationResult  = simulate.Result
	PredictiveSummary = posterior.Summary
	Quantity          = posterior.Quantity
)

var (
	ErrInvalidParameter        = model.ErrInvalidParameter
	ErrDegenerateNormalization = model.ErrDegenerateNormalization
	ErrShapeMismatch           = model.ErrShapeMismatch
)

const defaultGradientStep = 1e-6

type Options struct {
	// Augment pads the capture matrix with all-zero pseudo-individuals.
	Augment             int
	Workers             int
	DegenerateFloor     float64
	StrictNormalization bool
	EntryPriorShape     float64
	EntryPriorRate      float64
	GradientStep        float64
	Logger              *slog.Logger
}

type Model struct {
	eval   *likelihood.Evaluator
	logger *slog.Logger
	step   float64
}

func New(captures [][]int, opts Options) (*Model, error) {
	rows, err := capture.Augment(captures, opts.Augment)
	if err != nil {
		return nil, err
	}
	matrix, err := capture.NewMatrix(rows)
	if err != nil {
		return nil, err
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	floor := opts.DegenerateFloor
	if floor <= 0 {
		floor = entry.DefaultFloor
	}
	prior := likelihood.DefaultEntryPrior
	if opts.EntryPriorShape != 0 || opts.EntryPriorRate != 0 {
		prior = likelihood.GammaPrior{Shape: opts.EntryPriorShape, Rate: opts.EntryPriorRate}
	}
	step := opts.GradientStep
	if step <= 0 {
		step = defaultGradientStep
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	eval, err := likelihood.New(matrix, likelihood.Config{
		Workers:    workers,
		Floor:      floor,
		Strict:     opts.StrictNormalization,
		EntryPrior: prior,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("model ready",
		slog.Int("individuals", matrix.Individuals()),
		slog.Int("observed", matrix.Observed()),
		slog.Int("occasions", matrix.Occasions()),
		slog.Int("workers", workers),
	)
	return &Model{eval: eval, logger: logger, step: step}, nil
}

// Occasions returns T.
func (m *Model) Occasions() int {
	return m.eval.Occasions()
}

// Individuals returns the augmented sample size M.
func (m *Model) Individuals() int {
	return m.eval.Individuals()
}

// Dimension is the length of the flat parameter vector.
func (m *Model) Dimension() int {
	return 3 + m.Occasions()
}

// Unpack converts a flat vector [phi, p, psi, w1..wT] into a ParameterSet.
func (m *Model) Unpack(x []float64) (ParameterSet, error) {
	return model.FromVector(x, m.Occasions())
}

func (m *Model) LogLikelihood(ctx context.Context, params ParameterSet) (float64, error) {
	ll, err := m.eval.LogLikelihood(ctx, params)
	if err != nil {
		m.logger.Debug("log-likelihood rejected", slog.Any("error", err))
		return 0, err
	}
	return ll, nil
}

// LogLikelihoodWithRates evaluates the log-likelihood under per-cell survival
// and capture probabilities. survival is individuals x (T-1), capture is
// individuals x T.
func (m *Model) LogLikelihoodWithRates(ctx context.Context, params ParameterSet, survival, capt [][]float64) (float64, error) {
	if len(survival) != m.Individuals() || len(capt) != m.Individuals() {
		return 0, fmt.Errorf("%w: rate grids need %d rows", ErrShapeMismatch, m.Individuals())
	}
	if len(survival[0]) != m.Occasions()-1 || len(capt[0]) != m.Occasions() {
		return 0, fmt.Errorf("%w: survival needs %d columns and capture %d", ErrShapeMismatch, m.Occasions()-1, m.Occasions())
	}
	phi, err := rates.NewGrid(survival)
	if err != nil {
		return 0, err
	}
	p, err := rates.NewGrid(capt)
	if err != nil {
		return 0, err
	}
	return m.eval.LogLikelihoodWithRates(ctx, params, rates.Derived{Survival: phi, Capture: p})
}

// LogDensity is the unnormalised posterior log density of a flat parameter
// vector.
func (m *Model) LogDensity(ctx context.Context, x []float64) (float64, error) {
	params, err := m.Unpack(x)
	if err != nil {
		return 0, err
	}
	lp, err := m.eval.LogDensity(ctx, params)
	if err != nil {
		m.logger.Debug("log density rejected", slog.Any("error", err))
		return 0, err
	}
	return lp, nil
}

// Gradient returns a central finite-difference gradient of LogDensity at x.
// x must lie far enough inside the domain for every finite-difference point to be valid.
func (m *Model) Gradient(ctx context.Context, x []float64) ([]float64, error) {
	if len(x) != m.Dimension() {
		return nil, fmt.Errorf("%w: parameter vector has length %d, want %d", ErrShapeMismatch, len(x), m.Dimension())
	}
	if _, err := m.LogDensity(ctx, x); err != nil {
		return nil, err
	}

	var evalErr error
	f := func(point []float64) float64 {
		v, err := m.LogDensity(ctx, point)
		if err != nil {
			if evalErr == nil {
				evalErr = err
			}
			return math.NaN()
		}
		return v
	}
	grad := fd.Gradient(nil, f, x, &fd.Settings{Formula: fd.Central, Step: m.step})
	if evalErr != nil {
		if errors.Is(evalErr, context.Canceled) || errors.Is(evalErr, context.DeadlineExceeded) {
			return nil, evalErr
		}
		return nil, fmt.Errorf("gradient step left the parameter domain: %w", evalErr)
	}
	return grad, nil
}

// Simulate draws one latent population of size Individuals for params.
func (m *Model) Simulate(params ParameterSet, seed uint64) (SimulationResult, error) {
	return simulate.Run(params, rates.Broadcast(params), m.Individuals(), rand.NewPCG(seed, 0))
}

// PredictOptions controls Predict. Workers <= 0 uses GOMAXPROCS.
type PredictOptions struct {
	Seed    uint64
	Workers int
	// KeepDraws returns every simulated population in PredictiveSummary.Results.
	KeepDraws bool
}

// Predict simulates one latent population per retained draw and summarises
// N, B and Nsuper.
func (m *Model) Predict(ctx context.Context, draws []ParameterSet, opts PredictOptions) (PredictiveSummary, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	summary, err := posterior.Predict(ctx, draws, posterior.Config{
		Individuals: m.Individuals(),
		Workers:     workers,
		Seed:        opts.Seed,
		KeepDraws:   opts.KeepDraws,
	})
	if err != nil {
		return PredictiveSummary{}, err
	}
	m.logger.Debug("predictive summary",
		slog.Int("draws", summary.Draws),
		slog.Float64("nsuper_mean", summary.NSuper.Mean),
	)
	return summary, nil
}
