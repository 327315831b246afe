package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest is the run-level YAML configuration. Every value has a default
// and every value can be overridden by a CLI flag; the engine itself only
// ever sees plain values.
type Manifest struct {
	Seed    int64 `yaml:"seed"`
	MaxDays int   `yaml:"max_days"`

	NationBackend string  `yaml:"nation_backend"`
	NationModel   string  `yaml:"nation_model"`
	WorldBackend  string  `yaml:"world_backend"`
	WorldModel    string  `yaml:"world_model"`
	Temperature   float64 `yaml:"temperature"`

	Roster  string `yaml:"roster"`
	Catalog string `yaml:"catalog"`

	ClampDynamicVariables bool   `yaml:"clamp_dynamic_variables"`
	SelfAppliesOtherDelta bool   `yaml:"self_applies_other_delta"`
	MaxModelRetries       int    `yaml:"max_model_retries"`
	DayZeroScenario       string `yaml:"day_zero_scenario"`

	Archive string `yaml:"archive"`
}

// LoadManifest reads a manifest file, or returns the defaults when path is
// empty.
func LoadManifest(path string) (Manifest, error) {
	m := defaults()
	if strings.TrimSpace(path) == "" {
		return m, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return m, err
	}
	if err := yaml.Unmarshal(b, &m); err != nil {
		return m, fmt.Errorf("%s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return m, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func defaults() Manifest {
	return Manifest{
		Seed:            0,
		MaxDays:         14,
		NationBackend:   "scripted",
		NationModel:     "",
		WorldBackend:    "scripted",
		WorldModel:      "",
		Temperature:     1.0,
		Roster:          "configs/nations.csv",
		Catalog:         "configs/actions.csv",
		MaxModelRetries: 5,
		Archive:         "data/statecraft.db",
	}
}

// Validate rejects values the engine cannot run with.
func (m Manifest) Validate() error {
	if m.MaxDays < 0 {
		return fmt.Errorf("max_days must be >= 0, got %d", m.MaxDays)
	}
	if m.MaxModelRetries < 1 {
		return fmt.Errorf("max_model_retries must be >= 1, got %d", m.MaxModelRetries)
	}
	if m.Roster == "" || m.Catalog == "" {
		return fmt.Errorf("roster and catalog paths are required")
	}
	return nil
}
