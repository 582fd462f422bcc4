package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"jollyseber/internal/config"
	"jollyseber/pkg/jollyseber"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

type globalFlags struct {
	fixture string
	verbose bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:           "jsctl",
		Short:         "Evaluate and simulate a Jolly-Seber superpopulation model from a YAML fixture",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVarP(&flags.fixture, "fixture", "f", "", "YAML fixture with captures and parameters")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "debug logging")
	_ = root.MarkPersistentFlagRequired("fixture")

	root.AddCommand(
		loglikCmd(flags, stdout, stderr),
		simulateCmd(flags, stdout, stderr),
		predictCmd(flags, stdout, stderr),
	)
	return root
}

func loglikCmd(flags *globalFlags, stdout, stderr io.Writer) *cobra.Command {
	var withPrior bool
	cmd := &cobra.Command{
		Use:   "loglik",
		Short: "Print the log-likelihood (or log density with --prior) of the fixture parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fx, m, err := open(flags, stderr)
			if err != nil {
				return err
			}
			ll, err := m.LogLikelihood(cmd.Context(), fx.Parameters)
			if err != nil {
				return err
			}
			out := map[string]any{"log_likelihood": ll}
			if withPrior {
				lp, err := m.LogDensity(cmd.Context(), fx.Parameters.Vector())
				if err != nil {
					return err
				}
				out["log_density"] = lp
			}
			return writeJSON(stdout, out)
		},
	}
	cmd.Flags().BoolVar(&withPrior, "prior", false, "also print the log density including priors")
	return cmd
}

func simulateCmd(flags *globalFlags, stdout, stderr io.Writer) *cobra.Command {
	var seed uint64
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Draw one latent population for the fixture parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fx, m, err := open(flags, stderr)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("seed") {
				seed = fx.Options.Seed
			}
			res, err := m.Simulate(fx.Parameters, seed)
			if err != nil {
				return err
			}
			return writeJSON(stdout, map[string]any{
				"n":      res.N,
				"b":      res.B,
				"nsuper": res.NSuper,
			})
		},
	}
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed (defaults to options.seed)")
	return cmd
}

func predictCmd(flags *globalFlags, stdout, stderr io.Writer) *cobra.Command {
	var keepDraws bool
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Summarise N, B and Nsuper over the fixture draws",
		Long:  "Simulates one latent population per entry of draws. When draws is empty the fixture parameters are replicated options.draws times.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fx, m, err := open(flags, stderr)
			if err != nil {
				return err
			}
			draws := fx.Draws
			if len(draws) == 0 {
				draws = make([]jollyseber.ParameterSet, fx.Options.Draws)
				for i := range draws {
					draws[i] = fx.Parameters
				}
			}
			summary, err := m.Predict(cmd.Context(), draws, jollyseber.PredictOptions{
				Seed:      fx.Options.Seed,
				Workers:   fx.Options.Workers,
				KeepDraws: keepDraws,
			})
			if err != nil {
				return err
			}
			return writeJSON(stdout, summary)
		},
	}
	cmd.Flags().BoolVar(&keepDraws, "keep-draws", false, "include every simulated population in the output")
	return cmd
}

func open(flags *globalFlags, stderr io.Writer) (config.Fixture, *jollyseber.Model, error) {
	if flags.fixture == "" {
		return config.Fixture{}, nil, errors.New("--fixture is required")
	}
	fx, err := config.LoadFixture(flags.fixture)
	if err != nil {
		return config.Fixture{}, nil, err
	}

	level := slog.LevelInfo
	if flags.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	m, err := jollyseber.New(fx.Captures, jollyseber.Options{
		Augment:             fx.Augment,
		Workers:             fx.Options.Workers,
		DegenerateFloor:     fx.Options.DegenerateFloor,
		StrictNormalization: fx.Options.StrictNormalization,
		EntryPriorShape:     fx.Options.EntryPrior.Shape,
		EntryPriorRate:      fx.Options.EntryPrior.Rate,
		Logger:              logger,
	})
	if err != nil {
		return config.Fixture{}, nil, err
	}
	return fx, m, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
