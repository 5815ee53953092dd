package chamber

import (
	"github.com/vovakirdan/bubble-chamber/internal/core"
	"github.com/vovakirdan/bubble-chamber/internal/ecs"
)

// AgeLifetimes adds dt to the elapsed time of every particle.
func AgeLifetimes(s *Simulation, dt float64) {
	for _, e := range ecs.Query().With(s.lifetimes).Execute() {
		s.lifetimes.Ptr(e).Elapsed += dt
	}
}

// MagneticForce deflects moving particles by the magnetic part of the
// Lorentz force, F = q(v × B), with a = F/m.
// Neutral particles feel no force.
func MagneticForce(s *Simulation, dt float64) {
	for _, e := range ecs.Query().With(s.particles).With(s.velocities).Execute() {
		p, _ := s.particles.Get(e)
		if p.TotalCharge == 0 {
			continue
		}
		v := s.velocities.Ptr(e)
		force := v.V.Cross(s.field).Scale(float64(p.TotalCharge))
		accel := force.Scale(1 / float64(p.Mass))
		v.V = v.V.Add(accel.Scale(dt))
	}
}

// Exhaustion slows every velocity by v *= 1 - k*dt.
// The factor is clamped at zero so a large dt stops a particle instead of
// reversing it.
func Exhaustion(s *Simulation, dt float64) {
	factor := frictionFactor(s.friction, dt)
	for _, e := range ecs.Query().With(s.velocities).Execute() {
		v := s.velocities.Ptr(e)
		v.V = v.V.Scale(factor)
	}
}

func frictionFactor(k, dt float64) float64 {
	return core.ClampF(1-k*dt, 0, 1)
}

// MoveByVelocity integrates positions with the velocity of this tick.
func MoveByVelocity(s *Simulation, dt float64) {
	ents := ecs.Query().
		With(s.particles).
		With(s.velocities).
		With(s.positions).
		Execute()
	for _, e := range ents {
		v, _ := s.velocities.Get(e)
		p := s.positions.Ptr(e)
		p.P = p.P.Add(v.V.Scale(dt))
	}
}
