package chamber

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/bubble-chamber/internal/config"
	"github.com/vovakirdan/bubble-chamber/internal/core"
)

// FromConfig validates cfg and builds a simulation populated with its
// initial particles.
func FromConfig(cfg config.SimulationConfig, sampler Sampler, logger *log.Logger) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sim, err := New(Options{
		Field:     vec(cfg.MagneticField),
		DecayRate: cfg.Particles.DecayRate,
		Friction:  cfg.Physics.Friction,
		Sampler:   sampler,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("chamber: build simulation: %w", err)
	}

	seeds := make([]Seed, len(cfg.Particles.AtStart))
	for i, p := range cfg.Particles.AtStart {
		seeds[i] = Seed{
			Charges:  Charges(p.Charges),
			Position: vec(p.Position),
			Velocity: vec(p.Velocity),
		}
	}
	if err := sim.Spawn(seeds); err != nil {
		return nil, err
	}
	return sim, nil
}

func vec(a [3]float64) core.Vec3 {
	return core.V3(a[0], a[1], a[2])
}
