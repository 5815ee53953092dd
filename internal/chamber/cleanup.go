package chamber

import (
	"fmt"

	"github.com/vovakirdan/bubble-chamber/internal/ecs"
)

// RecordTraces appends the current position of every visible particle to
// its trace. Particles flagged this tick still record, so a split parent's
// last point is where it split.
func RecordTraces(s *Simulation) {
	ents := ecs.Query().
		With(s.positions).
		With(s.traces).
		Without(s.hidden).
		Execute()
	for _, e := range ents {
		pos, _ := s.positions.Get(e)
		tr := s.traces.Ptr(e)
		tr.Points = append(tr.Points, pos.P.XY())
	}
}

// ExpireLifetimes flags single-unit particles that decayed, and neutral
// single-unit particles right away. Heavier particles are left to
// SplitParticles.
func ExpireLifetimes(s *Simulation) {
	for _, e := range ecs.Query().With(s.particles).With(s.lifetimes).Execute() {
		p, _ := s.particles.Get(e)
		if p.Mass > 1 {
			continue
		}
		lt, _ := s.lifetimes.Get(e)
		if p.TotalCharge == 0 || lt.Decayed() {
			s.flag(e)
			s.result.Expired++
		}
	}
}

// Cleanup moves the traces of flagged entities into the collector, then
// deletes the entities. Both phases walk the flagged set in flag order.
func Cleanup(s *Simulation) {
	flagged := ecs.Query().With(s.deletes).Execute()

	for _, e := range flagged {
		tr := s.traces.Ptr(e)
		if tr == nil {
			continue
		}
		s.collector = append(s.collector, tr.Points)
		tr.Points = nil
		s.result.Harvested++
	}

	for _, e := range flagged {
		s.delete(e)
	}
}

// delete destroys a flagged entity. Deleting an unflagged or dead entity
// means the flag-then-sweep order was broken.
func (s *Simulation) delete(e ecs.Entity) {
	if !s.deletes.Has(e) {
		panic(fmt.Sprintf("chamber: delete of unflagged entity %s", e))
	}
	s.world.Destroy(e)
	s.result.Deleted++
}
