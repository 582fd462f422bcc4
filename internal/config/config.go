// Package config loads evaluator and simulation options from YAML.
package config

import (
	"bytes"
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"jollyseber/internal/entry"
	"jollyseber/internal/likelihood"
	"jollyseber/internal/model"
)

type Options struct {
	Workers             int                   `yaml:"workers"`
	DegenerateFloor     float64               `yaml:"degenerate_floor"`
	StrictNormalization bool                  `yaml:"strict_normalization"`
	EntryPrior          likelihood.GammaPrior `yaml:"entry_prior"`
	Seed                uint64                `yaml:"seed"`
	Draws               int                   `yaml:"draws"`
}

// Default returns the options used when a field is left unset.
func Default() Options {
	return Options{
		Workers:         runtime.GOMAXPROCS(0),
		DegenerateFloor: entry.DefaultFloor,
		EntryPrior:      likelihood.DefaultEntryPrior,
		Seed:            1,
		Draws:           1000,
	}
}

// Fixture is a self-contained evaluation input used by the CLI harness.
type Fixture struct {
	Options    Options              `yaml:"options"`
	Augment    int                  `yaml:"augment"`
	Captures   [][]int              `yaml:"captures"`
	Parameters model.ParameterSet   `yaml:"parameters"`
	Draws      []model.ParameterSet `yaml:"draws"`
}

// ApplyDefaults fills unset fields from Default.
func (o *Options) ApplyDefaults() {
	def := Default()
	if o.Workers <= 0 {
		o.Workers = def.Workers
	}
	if o.DegenerateFloor <= 0 {
		o.DegenerateFloor = def.DegenerateFloor
	}
	if o.EntryPrior == (likelihood.GammaPrior{}) {
		o.EntryPrior = def.EntryPrior
	}
	if o.Seed == 0 {
		o.Seed = def.Seed
	}
	if o.Draws <= 0 {
		o.Draws = def.Draws
	}
}

func (o Options) Validate() error {
	if o.DegenerateFloor >= 1 {
		return fmt.Errorf("degenerate_floor must be < 1, got %v", o.DegenerateFloor)
	}
	if !(o.EntryPrior.Shape > 0) || !(o.EntryPrior.Rate > 0) {
		return fmt.Errorf("%w: entry_prior shape and rate must be > 0", model.ErrInvalidParameter)
	}
	return nil
}

// LoadFixture reads a fixture file and applies option defaults.
func LoadFixture(path string) (Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, err
	}
	var fx Fixture
	if err := decodeStrict(data, &fx); err != nil {
		return Fixture{}, fmt.Errorf("decode %s: %w", path, err)
	}
	fx.Options.ApplyDefaults()
	if err := fx.Options.Validate(); err != nil {
		return Fixture{}, err
	}
	if fx.Augment < 0 {
		return Fixture{}, fmt.Errorf("augment must be >= 0, got %d", fx.Augment)
	}
	return fx, nil
}

func decodeStrict(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return err
	}
	return nil
}
