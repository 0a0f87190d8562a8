// Package config loads the tunable balance of a simulation from TOML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"

	"github.com/nstehr/dominion/dominion-core/agent"
	"github.com/nstehr/dominion/dominion-core/archetype"
	"github.com/nstehr/dominion/dominion-core/combat"
	"github.com/nstehr/dominion/dominion-core/memory"
	"github.com/nstehr/dominion/dominion-core/rules"
	"github.com/nstehr/dominion/dominion-core/sim"
)

var ErrInvalidConfig = errors.New("invalid config")

var validate = validator.New()

type Config struct {
	Combat   combat.Config `toml:"combat" json:"combat"`
	Memory   memory.Config `toml:"memory" json:"memory"`
	Decision rules.Config  `toml:"decision" json:"decision"`
	Sim      sim.Config    `toml:"sim" json:"sim"`
	// Archetypes overrides built-in profiles, keyed by archetype name.
	Archetypes map[string]archetype.Override `toml:"archetypes" json:"archetypes,omitempty"`
}

// Default returns the shipped balance.
func Default() Config {
	return Config{
		Combat:   combat.DefaultConfig(),
		Memory:   memory.DefaultConfig(),
		Decision: rules.DefaultConfig(),
		Sim:      sim.DefaultConfig(),
	}
}

// Load reads a TOML file on top of the defaults. Keys absent from the file
// keep their default values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}
	return Parse(data)
}

// Parse decodes TOML on top of the defaults and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: failed to parse TOML: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every section, including that archetype overrides name
// real archetypes and produce valid profiles.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := c.Table(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Table is the built-in archetype table with overrides applied.
func (c Config) Table() (*archetype.Table, error) {
	if len(c.Archetypes) == 0 {
		return archetype.Default(), nil
	}
	return archetype.Default().WithOverrides(c.Archetypes)
}

// Library compiles the decision engines this configuration describes.
func (c Config) Library() (*agent.Library, error) {
	table, err := c.Table()
	if err != nil {
		return nil, err
	}
	return agent.NewLibrary(table, c.Decision, combat.NewResolver(c.Combat))
}

// GameOptions bundles what sim.NewGame needs besides the setup.
func (c Config) GameOptions(lib *agent.Library, metrics *sim.Metrics) sim.Options {
	return sim.Options{
		Library: lib,
		Config:  c.Sim,
		Memory:  c.Memory,
		Metrics: metrics,
	}
}
