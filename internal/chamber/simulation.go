package chamber

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/bubble-chamber/internal/core"
	"github.com/vovakirdan/bubble-chamber/internal/ecs"
)

// DefaultFriction is the drag coefficient applied to every moving particle.
const DefaultFriction = 0.3

var (
	// ErrDecayRate is returned for a non-positive decay rate.
	ErrDecayRate = errors.New("chamber: decay rate must be positive")
	// ErrFriction is returned for a negative friction coefficient.
	ErrFriction = errors.New("chamber: friction must not be negative")
)

// Options configures a Simulation.
type Options struct {
	Field     core.Vec3   // uniform magnetic field
	DecayRate float64     // rate of the exponential decay-time distribution
	Friction  float64     // drag coefficient k in v *= 1 - k*dt
	Sampler   Sampler     // nil uses a time-seeded RandSampler
	Logger    *log.Logger // nil discards
}

// Seed describes one particle of the initial population.
type Seed struct {
	Charges  Charges
	Position core.Vec3
	Velocity core.Vec3
}

// SplitEvent records one parent particle breaking apart.
type SplitEvent struct {
	Parent   Charges
	Children []Charges
	At       core.Point2
}

// StepResult contains information about what happened during a simulation step.
type StepResult struct {
	Tick      uint64
	Splits    []SplitEvent
	Created   int // children created by splits
	Expired   int // singletons flagged by expiry
	Harvested int // traces moved into the collector
	Deleted   int
	Alive     int
}

// Empty reports whether the population died out during this step.
func (r StepResult) Empty() bool {
	return r.Alive == 0
}

// Simulation owns the particle population and everything the systems share:
// the magnetic field, the decay distribution, the sampler and the collector
// of finished trajectories. It is not safe for concurrent use.
type Simulation struct {
	world      *ecs.World
	particles  *ecs.Store[Particle]
	velocities *ecs.Store[Velocity]
	positions  *ecs.Store[Position]
	lifetimes  *ecs.Store[LifeTime]
	traces     *ecs.Store[Trace]
	hidden     *ecs.Store[Hidden]
	deletes    *ecs.Store[DeleteFlag]

	field     core.Vec3
	decayRate float64
	friction  float64
	sampler   Sampler
	logger    *log.Logger

	collector [][]core.Point2
	tick      uint64
	splits    int
	result    StepResult
}

// New creates an empty simulation.
func New(opts Options) (*Simulation, error) {
	if opts.DecayRate <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrDecayRate, opts.DecayRate)
	}
	if opts.Friction < 0 {
		return nil, fmt.Errorf("%w: %v", ErrFriction, opts.Friction)
	}
	if opts.Sampler == nil {
		opts.Sampler = NewRandSampler(0)
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	w := ecs.NewWorld()
	return &Simulation{
		world:      w,
		particles:  ecs.Register[Particle](w),
		velocities: ecs.Register[Velocity](w),
		positions:  ecs.Register[Position](w),
		lifetimes:  ecs.Register[LifeTime](w),
		traces:     ecs.Register[Trace](w),
		hidden:     ecs.Register[Hidden](w),
		deletes:    ecs.Register[DeleteFlag](w),
		field:      opts.Field,
		decayRate:  opts.DecayRate,
		friction:   opts.Friction,
		sampler:    opts.Sampler,
		logger:     opts.Logger,
	}, nil
}

// Spawn adds the initial population. Seeds are validated before any
// particle is created, so a bad seed leaves the simulation untouched.
func (s *Simulation) Spawn(seeds []Seed) error {
	parts := make([]Particle, len(seeds))
	for i, sd := range seeds {
		p, err := NewParticle(sd.Charges)
		if err != nil {
			return fmt.Errorf("chamber: particle %d: %w", i, err)
		}
		parts[i] = p
	}
	for i, sd := range seeds {
		s.spawn(parts[i], sd.Position, sd.Velocity)
	}
	return nil
}

// spawn creates a particle entity with a freshly sampled lifetime.
// Charged particles get a trace seeded at pos; neutral ones are hidden.
func (s *Simulation) spawn(p Particle, pos, vel core.Vec3) ecs.Entity {
	e := s.world.Create()
	s.particles.Set(e, p)
	s.positions.Set(e, Position{P: pos})
	s.velocities.Set(e, Velocity{V: vel})
	s.lifetimes.Set(e, LifeTime{DecaysAfter: s.sampler.Exp(s.decayRate)})
	if p.TotalCharge != 0 {
		s.traces.Set(e, Trace{Points: []core.Point2{pos.XY()}})
	} else {
		s.hidden.Set(e, Hidden{})
	}
	return e
}

// Step advances the simulation by dt seconds. The systems run in a fixed
// order: later systems depend on what earlier ones wrote during the tick.
func (s *Simulation) Step(dt float64) StepResult {
	s.tick++
	s.result = StepResult{Tick: s.tick}

	AgeLifetimes(s, dt)
	MagneticForce(s, dt)
	Exhaustion(s, dt)
	MoveByVelocity(s, dt)
	SplitParticles(s)
	RecordTraces(s)
	ExpireLifetimes(s)
	Cleanup(s)

	s.result.Alive = s.world.Len()
	return s.result
}

// flag stages e for deletion. Flagging twice is an invariant breach.
func (s *Simulation) flag(e ecs.Entity) {
	if s.deletes.Has(e) {
		panic(fmt.Sprintf("chamber: entity %s already flagged for deletion", e))
	}
	s.deletes.Set(e, DeleteFlag{})
}

// Finish moves the traces of every surviving particle into the collector
// and returns how many were harvested. The survivors stay alive with empty
// traces, so calling Finish twice harvests nothing new.
func (s *Simulation) Finish() int {
	n := 0
	for _, e := range ecs.Query().With(s.traces).Execute() {
		tr := s.traces.Ptr(e)
		if len(tr.Points) == 0 {
			continue
		}
		s.collector = append(s.collector, tr.Points)
		tr.Points = nil
		n++
	}
	return n
}

// Trajectories returns the finished trajectories in harvest order.
// The result is a copy.
func (s *Simulation) Trajectories() [][]core.Point2 {
	out := make([][]core.Point2, len(s.collector))
	for i, path := range s.collector {
		out[i] = append([]core.Point2(nil), path...)
	}
	return out
}

// Paths returns the finished trajectories followed by the in-progress traces
// of live particles, without modifying either.
func (s *Simulation) Paths() [][]core.Point2 {
	out := s.Trajectories()
	for _, e := range ecs.Query().With(s.traces).Execute() {
		tr, _ := s.traces.Get(e)
		if len(tr.Points) > 0 {
			out = append(out, append([]core.Point2(nil), tr.Points...))
		}
	}
	return out
}

// Collected returns the number of finished trajectories.
func (s *Simulation) Collected() int { return len(s.collector) }

// Alive returns the number of live particles.
func (s *Simulation) Alive() int { return s.world.Len() }

// Tick returns the number of completed steps.
func (s *Simulation) Tick() uint64 { return s.tick }

// Splits returns the number of splits since the simulation started.
func (s *Simulation) Splits() int { return s.splits }

// Field returns the magnetic field.
func (s *Simulation) Field() core.Vec3 { return s.field }

// ParticleView is a read-only copy of one live particle.
type ParticleView struct {
	Entity   ecs.Entity
	Particle Particle
	Position core.Vec3
	Velocity core.Vec3
	LifeTime LifeTime
	Hidden   bool
	Trace    []core.Point2
}

// Particles returns a snapshot of the live population in creation order.
func (s *Simulation) Particles() []ParticleView {
	ents := ecs.Query().With(s.particles).With(s.positions).Execute()
	out := make([]ParticleView, 0, len(ents))
	for _, e := range ents {
		v := ParticleView{Entity: e, Hidden: s.hidden.Has(e)}
		v.Particle, _ = s.particles.Get(e)
		if p, ok := s.positions.Get(e); ok {
			v.Position = p.P
		}
		if vel, ok := s.velocities.Get(e); ok {
			v.Velocity = vel.V
		}
		v.LifeTime, _ = s.lifetimes.Get(e)
		if tr, ok := s.traces.Get(e); ok {
			v.Trace = append([]core.Point2(nil), tr.Points...)
		}
		out = append(out, v)
	}
	return out
}
