package chamber

import (
	"fmt"

	"github.com/vovakirdan/bubble-chamber/internal/ecs"
)

// SplitCharges partitions c into child charge vectors. Each round draws a
// uniform count in [0, left] from every non-empty channel; an all-zero draw
// is discarded. The children sum to c exactly and none of them is empty.
func SplitCharges(c Charges, sampler Sampler) []Charges {
	left := c
	var children []Charges
	for !left.IsZero() {
		var draw Charges
		for ch := range left {
			if left[ch] > 0 {
				draw[ch] = sampler.UniformInt(left[ch])
			}
		}
		if draw.IsZero() {
			continue
		}
		left = left.Sub(draw)
		children = append(children, draw)
	}
	return children
}

// SplitParticles replaces every decayed particle heavier than one unit by
// its children. Children start where the parent is, with the parent's
// velocity, a fresh lifetime and a fresh trace. The parent is flagged and
// its trace is harvested by Cleanup.
func SplitParticles(s *Simulation) {
	ents := ecs.Query().
		With(s.particles).
		With(s.lifetimes).
		With(s.positions).
		With(s.velocities).
		Execute()

	for _, e := range ents {
		p, _ := s.particles.Get(e)
		lt, _ := s.lifetimes.Get(e)
		if p.Mass <= 1 || !lt.Decayed() {
			continue
		}

		pos, _ := s.positions.Get(e)
		vel, _ := s.velocities.Get(e)

		children := SplitCharges(p.Charges, s.sampler)
		var sum Charges
		for _, c := range children {
			sum = sum.Add(c)
			s.spawn(MustParticle(c), pos.P, vel.V)
		}
		if sum != p.Charges {
			panic(fmt.Sprintf("chamber: split of %s produced %s", p.Charges, sum))
		}
		s.flag(e)

		s.splits++
		s.result.Created += len(children)
		s.result.Splits = append(s.result.Splits, SplitEvent{
			Parent:   p.Charges,
			Children: children,
			At:       pos.P.XY(),
		})
		s.logger.Debug("particle split", "tick", s.tick, "parent", p.Charges, "children", children)
	}
}
