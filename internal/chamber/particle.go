// Package chamber implements the particle simulation: charged particles
// drifting through a uniform magnetic field, aging, splitting into smaller
// particles and leaving traces that are collected once they finish.
package chamber

import (
	"errors"
	"fmt"

	"github.com/vovakirdan/bubble-chamber/internal/core"
)

var (
	// ErrZeroMass is returned when a particle would carry no charge units at all.
	ErrZeroMass = errors.New("chamber: particle mass must be at least 1")
	// ErrNegativeCharge is returned when a charge count is below zero.
	ErrNegativeCharge = errors.New("chamber: charge counts must be non-negative")
)

// Charge channels.
const (
	Positive = iota
	Neutral
	Negative
)

// Charges holds the positive, neutral and negative unit counts of a particle.
type Charges [3]int

// Mass is the total number of charge units.
func (c Charges) Mass() int {
	return c[Positive] + c[Neutral] + c[Negative]
}

// Total is the net charge: positive minus negative units.
func (c Charges) Total() int {
	return c[Positive] - c[Negative]
}

// Add returns the channel-wise sum.
func (c Charges) Add(o Charges) Charges {
	return Charges{c[0] + o[0], c[1] + o[1], c[2] + o[2]}
}

// Sub returns the channel-wise difference.
func (c Charges) Sub(o Charges) Charges {
	return Charges{c[0] - o[0], c[1] - o[1], c[2] - o[2]}
}

// IsZero reports whether every channel is empty.
func (c Charges) IsZero() bool {
	return c[0] == 0 && c[1] == 0 && c[2] == 0
}

func (c Charges) String() string {
	return fmt.Sprintf("(%d,%d,%d)", c[Positive], c[Neutral], c[Negative])
}

// Particle is the immutable composition of a simulated particle.
// Mass and TotalCharge are derived from Charges at construction.
type Particle struct {
	Charges     Charges
	Mass        int
	TotalCharge int
}

// NewParticle validates the charge vector and derives mass and net charge.
func NewParticle(c Charges) (Particle, error) {
	for _, n := range c {
		if n < 0 {
			return Particle{}, fmt.Errorf("%w: %s", ErrNegativeCharge, c)
		}
	}
	if c.Mass() == 0 {
		return Particle{}, ErrZeroMass
	}
	return Particle{Charges: c, Mass: c.Mass(), TotalCharge: c.Total()}, nil
}

// MustParticle is like NewParticle but panics on invalid input.
func MustParticle(c Charges) Particle {
	p, err := NewParticle(c)
	if err != nil {
		panic(fmt.Sprintf("chamber: invalid particle %s: %v", c, err))
	}
	return p
}

// Velocity of a particle in chamber units per second.
type Velocity struct {
	V core.Vec3
}

// Position of an entity in chamber coordinates.
type Position struct {
	P core.Vec3
}

// LifeTime tracks how long a particle has existed and when it decays.
type LifeTime struct {
	Elapsed     float64
	DecaysAfter float64
}

// Decayed reports whether the particle has reached its decay time.
func (l LifeTime) Decayed() bool {
	return l.Elapsed >= l.DecaysAfter
}

// Trace is the recorded path of a visible particle, oldest point first.
type Trace struct {
	Points []core.Point2
}

// Hidden marks neutral particles. They are not drawn and leave no trace.
type Hidden struct{}

// DeleteFlag stages an entity for removal at the end of the current tick.
type DeleteFlag struct{}
