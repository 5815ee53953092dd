// Package scenarios registers the built-in chamber scenarios. Each one is a
// YAML document embedded in the binary and decoded over the defaults.
package scenarios

import (
	"embed"
	"fmt"

	"github.com/vovakirdan/bubble-chamber/internal/config"
	"github.com/vovakirdan/bubble-chamber/internal/registry"
)

//go:embed data/*.yaml
var files embed.FS

// Scenario is a registry.Scenario backed by an embedded document.
type Scenario struct {
	id          string
	title       string
	description string
}

func (s Scenario) ID() string          { return s.id }
func (s Scenario) Title() string       { return s.title }
func (s Scenario) Description() string { return s.description }

// Config decodes the scenario document.
func (s Scenario) Config() (config.SimulationConfig, error) {
	data, err := files.ReadFile("data/" + s.id + ".yaml")
	if err != nil {
		return config.SimulationConfig{}, fmt.Errorf("scenarios: %s: %w", s.id, err)
	}
	cfg, err := config.Parse(data)
	if err != nil {
		return config.SimulationConfig{}, fmt.Errorf("scenarios: %s: %w", s.id, err)
	}
	return cfg, nil
}

var builtins = []Scenario{
	{"bubble", "Bubble Chamber", "one heavy neutral particle, the original run"},
	{"cascade", "Cascade", "three charged particles showering across the chamber"},
	{"cloud", "Cloud", "a burst of light particles from the centre"},
	{"spiral", "Spiral", "a long-lived charged particle in a strong field"},
}

// Register the scenarios with the registry
func init() {
	for _, s := range builtins {
		registry.Register(s.id, func() registry.Scenario {
			return s
		})
	}
}
