// Package config provides YAML-based simulation configuration: the chamber
// size, the magnetic field, the initial population and the output settings.
package config

import (
	"errors"
	"fmt"
)

// SimulationConfig contains all configuration for one chamber run.
type SimulationConfig struct {
	Chamber       ChamberConfig   `yaml:"chamber"`
	MagneticField [3]float64      `yaml:"magnetic_field"`
	Particles     ParticlesConfig `yaml:"particles"`
	Physics       PhysicsConfig   `yaml:"physics"`
	Export        ExportConfig    `yaml:"export"`
	Storage       StorageConfig   `yaml:"storage"`
}

// ChamberConfig is the visible area of the chamber, in chamber units.
type ChamberConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// ParticlesConfig defines the initial population and how fast particles decay.
type ParticlesConfig struct {
	DecayRate float64          `yaml:"decay_rate"`
	AtStart   []ParticleConfig `yaml:"at_start"`
}

// ParticleConfig is one particle of the initial population.
type ParticleConfig struct {
	Charges  [3]int     `yaml:"charges"` // positive, neutral, negative
	Position [3]float64 `yaml:"position"`
	Velocity [3]float64 `yaml:"velocity"`
}

// PhysicsConfig defines the integration parameters.
type PhysicsConfig struct {
	Friction float64 `yaml:"friction"`
	TimeStep float64 `yaml:"time_step"` // seconds per tick
	MaxTicks int     `yaml:"max_ticks"` // 0 runs until the population is gone
}

// ExportConfig defines where finished trajectories are written.
type ExportConfig struct {
	SVGPath          string   `yaml:"svg_path"`
	IncludeSurvivors bool     `yaml:"include_survivors"`
	StrokeWidth      int      `yaml:"stroke_width"`
	Sink             string   `yaml:"sink"` // "fs" or "s3"
	S3               S3Config `yaml:"s3"`
}

// S3Config defines the bucket used by the s3 sink.
type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	PathStyle bool   `yaml:"path_style"`
}

// StorageConfig defines the run history database.
type StorageConfig struct {
	Path    string `yaml:"path"`
	Enabled bool   `yaml:"enabled"`
}

// Validation errors.
var (
	ErrNoParticles = errors.New("config: particles.at_start is empty")
	ErrDecayRate   = errors.New("config: particles.decay_rate must be positive")
	ErrTimeStep    = errors.New("config: physics.time_step must be positive")
	ErrFriction    = errors.New("config: physics.friction must not be negative")
	ErrChamberSize = errors.New("config: chamber width and height must be positive")
	ErrCharges     = errors.New("config: invalid particle charges")
	ErrSink        = errors.New("config: unknown export sink")
)

// Validate checks the configuration for values the simulation cannot run with.
func (c *SimulationConfig) Validate() error {
	if c.Chamber.Width <= 0 || c.Chamber.Height <= 0 {
		return ErrChamberSize
	}
	if c.Particles.DecayRate <= 0 {
		return ErrDecayRate
	}
	if len(c.Particles.AtStart) == 0 {
		return ErrNoParticles
	}
	for i, p := range c.Particles.AtStart {
		mass := 0
		for _, n := range p.Charges {
			if n < 0 {
				return fmt.Errorf("%w: particle %d has negative count %v", ErrCharges, i, p.Charges)
			}
			mass += n
		}
		if mass == 0 {
			return fmt.Errorf("%w: particle %d has zero mass", ErrCharges, i)
		}
	}
	if c.Physics.TimeStep <= 0 {
		return ErrTimeStep
	}
	if c.Physics.Friction < 0 {
		return ErrFriction
	}
	switch c.Export.Sink {
	case "", SinkFS, SinkS3:
	default:
		return fmt.Errorf("%w: %q", ErrSink, c.Export.Sink)
	}
	if c.Export.Sink == SinkS3 && c.Export.S3.Bucket == "" {
		return fmt.Errorf("%w: s3 sink needs export.s3.bucket", ErrSink)
	}
	return nil
}

// Export sinks.
const (
	SinkFS = "fs"
	SinkS3 = "s3"
)

// Overrides are command-line values that replace configured ones when set.
type Overrides struct {
	MaxTicks int
	TimeStep float64
	SVGPath  string
	Sink     string
}

// Apply copies every non-zero override into the configuration.
func (o Overrides) Apply(cfg *SimulationConfig) {
	if o.MaxTicks > 0 {
		cfg.Physics.MaxTicks = o.MaxTicks
	}
	if o.TimeStep > 0 {
		cfg.Physics.TimeStep = o.TimeStep
	}
	if o.SVGPath != "" {
		cfg.Export.SVGPath = o.SVGPath
	}
	if o.Sink != "" {
		cfg.Export.Sink = o.Sink
	}
}
