package config

import (
	_ "embed"
)

//go:embed defaults/chamber.yaml
var defaultChamberYAML []byte

// DefaultYAML returns the embedded default configuration document.
func DefaultYAML() []byte {
	return defaultChamberYAML
}

// DefaultConfig returns the hard-coded default configuration.
// It matches defaults/chamber.yaml and is used when that cannot be parsed.
func DefaultConfig() SimulationConfig {
	return SimulationConfig{
		Chamber:       ChamberConfig{Width: 1920, Height: 1080},
		MagneticField: [3]float64{0, 0, 2},
		Particles: ParticlesConfig{
			DecayRate: 1.0,
			AtStart: []ParticleConfig{
				{
					Charges:  [3]int{10, 10, 10},
					Position: [3]float64{0, 540, 0},
					Velocity: [3]float64{500, 0, 0},
				},
			},
		},
		Physics: PhysicsConfig{
			Friction: 0.3,
			TimeStep: 0.016,
			MaxTicks: 3000,
		},
		Export: ExportConfig{
			SVGPath:          "particles.svg",
			IncludeSurvivors: true,
			StrokeWidth:      3,
			Sink:             SinkFS,
			S3: S3Config{
				Prefix: "chamber/",
				Region: "us-east-1",
			},
		},
		Storage: StorageConfig{
			Path:    "~/.chamber/runs.db",
			Enabled: true,
		},
	}
}
