package jollyseber

import (
	"bytes"
	"context"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func handScenario(t *testing.T, opts Options) *Model {
	t.Helper()
	m, err := New([][]int{{1, 0}, {0, 1}}, Options{Augment: 1, Workers: opts.Workers, Logger: opts.Logger})
	require.NoError(t, err)
	return m
}

func TestModelLogDensityOfFlatVector(t *testing.T) {
	m := handScenario(t, Options{Workers: 2})
	require.Equal(t, 3, m.Individuals())
	require.Equal(t, 2, m.Occasions())
	require.Equal(t, 5, m.Dimension())

	want := math.Log(0.09375) + math.Log(0.15625) + math.Log(0.71875) - 2
	got, err := m.LogDensity(context.Background(), []float64{0.5, 0.5, 0.5, 1, 1})
	require.NoError(t, err)
	assert.InDelta(t, want, got, 1e-9)

	_, err = m.LogDensity(context.Background(), []float64{0.5, 0.5, 0.5, 1})
	assert.ErrorIs(t, err, ErrShapeMismatch)
	_, err = m.LogDensity(context.Background(), []float64{0.5, 1.5, 0.5, 1, 1})
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestModelGradientMatchesAnalyticPsiDerivative(t *testing.T) {
	m := handScenario(t, Options{})
	grad, err := m.Gradient(context.Background(), []float64{0.5, 0.5, 0.5, 1, 1})
	require.NoError(t, err)
	require.Len(t, grad, 5)

	// Rows 1 and 2 contribute 1/psi each; row 3 is log(0.4375 psi + 1 - psi).
	want := 2/0.5 + (0.4375-1)/0.71875
	assert.InDelta(t, want, grad[2], 1e-5)
}

func TestModelGradientRejectsBoundaryStep(t *testing.T) {
	m := handScenario(t, Options{})
	_, err := m.Gradient(context.Background(), []float64{0.5, 0.5, 1e-9, 1, 1})
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestModelLogLikelihoodWithRatesMatchesBroadcast(t *testing.T) {
	m := handScenario(t, Options{})
	params := ParameterSet{MeanSurvival: 0.5, MeanCapture: 0.5, Psi: 0.5, EntryWeights: []float64{1, 1}}
	broadcast, err := m.LogLikelihood(context.Background(), params)
	require.NoError(t, err)

	survival := [][]float64{{0.5}, {0.5}, {0.5}}
	capt := [][]float64{{0.5, 0.5}, {0.5, 0.5}, {0.5, 0.5}}
	grid, err := m.LogLikelihoodWithRates(context.Background(), params, survival, capt)
	require.NoError(t, err)
	assert.InDelta(t, broadcast, grid, 1e-12)

	_, err = m.LogLikelihoodWithRates(context.Background(), params, survival[:2], capt)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	// Individual 1 is captured at occasion 2 where capture is impossible.
	impossible := [][]float64{{0.5, 0.5}, {0.5, 0}, {0.5, 0.5}}
	ll, err := m.LogLikelihoodWithRates(context.Background(), params, survival, impossible)
	assert.ErrorIs(t, err, ErrInvalidParameter)
	assert.Equal(t, 0.0, ll)
}

func TestModelSimulateAndPredict(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	m := handScenario(t, Options{Logger: logger})
	assert.Contains(t, logs.String(), "model ready")

	params := ParameterSet{MeanSurvival: 0.5, MeanCapture: 0.5, Psi: 1, EntryWeights: []float64{1, 0}}
	res, err := m.Simulate(params, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, res.NSuper)
	assert.Equal(t, 3, res.N[0])

	summary, err := m.Predict(context.Background(), []ParameterSet{params, params, params}, PredictOptions{Seed: 5, Workers: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Draws)
	assert.Equal(t, 3.0, summary.NSuper.Mean)
	assert.Empty(t, summary.Results)

	kept, err := m.Predict(context.Background(), []ParameterSet{params, params}, PredictOptions{Seed: 5, KeepDraws: true})
	require.NoError(t, err)
	require.Len(t, kept.Results, 2)
	assert.Equal(t, 3, kept.Results[1].NSuper)
	assert.Contains(t, logs.String(), "predictive summary")
}

func TestNewRejectsRaggedCaptures(t *testing.T) {
	_, err := New([][]int{{1, 0}, {1}}, Options{})
	assert.ErrorIs(t, err, ErrShapeMismatch)
}
