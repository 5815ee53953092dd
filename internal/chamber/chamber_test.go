package chamber

import (
	"errors"
	"math"
	"testing"

	"github.com/vovakirdan/bubble-chamber/internal/config"
	"github.com/vovakirdan/bubble-chamber/internal/core"
)

// fakeSampler replays scripted draws. Exp repeats its last value once the
// script runs out; UniformInt falls back to rng, or takes everything.
type fakeSampler struct {
	exps []float64
	ints []int
	rng  *RandSampler
}

func (f *fakeSampler) Exp(float64) float64 {
	if len(f.exps) == 0 {
		return 1e9
	}
	v := f.exps[0]
	if len(f.exps) > 1 {
		f.exps = f.exps[1:]
	}
	return v
}

func (f *fakeSampler) UniformInt(n int) int {
	if len(f.ints) == 0 {
		if f.rng != nil {
			return f.rng.UniformInt(n)
		}
		return n
	}
	v := f.ints[0]
	f.ints = f.ints[1:]
	return v
}

func newTestSim(t *testing.T, field core.Vec3, friction float64, s Sampler) *Simulation {
	t.Helper()
	sim, err := New(Options{Field: field, DecayRate: 1, Friction: friction, Sampler: s})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return sim
}

func spawnOne(t *testing.T, sim *Simulation, c Charges, pos, vel core.Vec3) {
	t.Helper()
	if err := sim.Spawn([]Seed{{Charges: c, Position: pos, Velocity: vel}}); err != nil {
		t.Fatalf("Spawn() error: %v", err)
	}
}

func almostEqual(a, b core.Vec3) bool {
	const eps = 1e-9
	return math.Abs(a.X-b.X) < eps && math.Abs(a.Y-b.Y) < eps && math.Abs(a.Z-b.Z) < eps
}

func TestNewParticle(t *testing.T) {
	tests := []struct {
		charges   Charges
		wantErr   error
		wantMass  int
		wantTotal int
	}{
		{Charges{0, 0, 0}, ErrZeroMass, 0, 0},
		{Charges{-1, 2, 0}, ErrNegativeCharge, 0, 0},
		{Charges{1, 0, 0}, nil, 1, 1},
		{Charges{0, 1, 0}, nil, 1, 0},
		{Charges{0, 0, 1}, nil, 1, -1},
		{Charges{3, 1, 2}, nil, 6, 1},
		{Charges{10, 10, 10}, nil, 30, 0},
	}

	for _, tt := range tests {
		t.Run(tt.charges.String(), func(t *testing.T) {
			p, err := NewParticle(tt.charges)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("NewParticle(%v) error = %v, expected %v", tt.charges, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewParticle(%v) unexpected error: %v", tt.charges, err)
			}
			if p.Mass != tt.wantMass || p.TotalCharge != tt.wantTotal {
				t.Errorf("NewParticle(%v) = mass %d total %d, expected %d %d",
					tt.charges, p.Mass, p.TotalCharge, tt.wantMass, tt.wantTotal)
			}
		})
	}
}

func TestMustParticlePanicsOnZeroMass(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for zero-mass particle")
		}
	}()
	MustParticle(Charges{})
}

func TestSplitChargesConservation(t *testing.T) {
	inputs := []Charges{
		{1, 0, 0}, {0, 1, 0}, {2, 0, 0}, {1, 1, 1}, {10, 10, 10}, {0, 7, 0}, {5, 0, 13},
	}

	for seed := int64(1); seed <= 50; seed++ {
		s := NewRandSampler(seed)
		for _, in := range inputs {
			children := SplitCharges(in, s)

			if len(children) < 1 || len(children) > in.Mass() {
				t.Fatalf("seed %d: split of %v gave %d children", seed, in, len(children))
			}
			var sum Charges
			for _, c := range children {
				if c.Mass() < 1 {
					t.Fatalf("seed %d: split of %v produced empty child", seed, in)
				}
				for _, n := range c {
					if n < 0 {
						t.Fatalf("seed %d: negative child %v", seed, c)
					}
				}
				sum = sum.Add(c)
			}
			if sum != in {
				t.Fatalf("seed %d: children of %v sum to %v", seed, in, sum)
			}
		}
	}
}

func TestSplitChargesDiscardsEmptyDraws(t *testing.T) {
	// Only non-empty channels draw: (p, m), (p, m), (m), (m)
	s := &fakeSampler{ints: []int{0, 0, 1, 0, 0, 1}}
	got := SplitCharges(Charges{1, 0, 1}, s)

	expected := []Charges{{1, 0, 0}, {0, 0, 1}}
	if len(got) != len(expected) {
		t.Fatalf("SplitCharges() = %v, expected %v", got, expected)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("child %d = %v, expected %v", i, got[i], expected[i])
		}
	}
	if len(s.ints) != 0 {
		t.Errorf("expected every scripted draw to be used, %d left", len(s.ints))
	}
}

func TestSplitChargesTakeAll(t *testing.T) {
	got := SplitCharges(Charges{4, 2, 1}, &fakeSampler{})
	if len(got) != 1 || got[0] != (Charges{4, 2, 1}) {
		t.Errorf("SplitCharges() = %v, expected a single child equal to the parent", got)
	}
}

func TestNewRejectsBadOptions(t *testing.T) {
	if _, err := New(Options{DecayRate: 0}); !errors.Is(err, ErrDecayRate) {
		t.Errorf("zero decay rate: got %v", err)
	}
	if _, err := New(Options{DecayRate: 1, Friction: -1}); !errors.Is(err, ErrFriction) {
		t.Errorf("negative friction: got %v", err)
	}
}

func TestSpawnValidatesBeforeCreating(t *testing.T) {
	sim := newTestSim(t, core.Vec3{}, 0, &fakeSampler{})
	err := sim.Spawn([]Seed{
		{Charges: Charges{1, 0, 0}},
		{Charges: Charges{0, 0, 0}},
	})
	if !errors.Is(err, ErrZeroMass) {
		t.Fatalf("Spawn() error = %v, expected ErrZeroMass", err)
	}
	if sim.Alive() != 0 {
		t.Errorf("failed Spawn left %d particles", sim.Alive())
	}
}

func TestSpawnVisibilityCoupling(t *testing.T) {
	sim := newTestSim(t, core.Vec3{}, 0, &fakeSampler{})
	pos := core.V3(3, 4, 5)
	err := sim.Spawn([]Seed{
		{Charges: Charges{1, 0, 0}, Position: pos},
		{Charges: Charges{1, 3, 1}, Position: pos},
		{Charges: Charges{0, 0, 2}, Position: pos},
	})
	if err != nil {
		t.Fatal(err)
	}
	assertVisibilityCoupling(t, sim)

	for _, v := range sim.Particles() {
		if v.Hidden {
			continue
		}
		if len(v.Trace) != 1 || v.Trace[0] != pos.XY() {
			t.Errorf("%v: trace = %v, expected seed at %v", v.Particle.Charges, v.Trace, pos.XY())
		}
	}
}

func assertVisibilityCoupling(t *testing.T, sim *Simulation) {
	t.Helper()
	for _, v := range sim.Particles() {
		neutral := v.Particle.TotalCharge == 0
		if neutral != v.Hidden {
			t.Errorf("%v: hidden=%v, total charge %d", v.Particle.Charges, v.Hidden, v.Particle.TotalCharge)
		}
		if neutral && sim.traces.Has(v.Entity) {
			t.Errorf("%v: neutral particle carries a trace", v.Particle.Charges)
		}
	}
}

func TestZeroFieldOnlyFriction(t *testing.T) {
	const k, dt = 0.3, 0.5
	sim := newTestSim(t, core.Vec3{}, k, &fakeSampler{})
	v0 := core.V3(10, -4, 2)
	spawnOne(t, sim, Charges{3, 0, 1}, core.Vec3{}, v0)

	sim.Step(dt)

	got := sim.Particles()[0]
	wantV := v0.Scale(1 - k*dt)
	if !almostEqual(got.Velocity, wantV) {
		t.Errorf("velocity = %+v, expected %+v", got.Velocity, wantV)
	}
	if !almostEqual(got.Position, wantV.Scale(dt)) {
		t.Errorf("position = %+v, expected %+v", got.Position, wantV.Scale(dt))
	}
}

func TestFrictionClampedForLargeStep(t *testing.T) {
	sim := newTestSim(t, core.Vec3{}, 0.3, &fakeSampler{})
	spawnOne(t, sim, Charges{1, 0, 0}, core.Vec3{}, core.V3(5, 5, 0))

	sim.Step(10)

	got := sim.Particles()[0]
	if !got.Velocity.IsZero() {
		t.Errorf("velocity = %+v, expected zero instead of reversed", got.Velocity)
	}
}

func TestMagneticDeflection(t *testing.T) {
	tests := []struct {
		name    string
		charges Charges
		want    core.Vec3
	}{
		// v × B = (1,0,0) × (0,0,1) = (0,-1,0)
		{"positive", Charges{1, 0, 0}, core.V3(1, -0.1, 0)},
		{"negative", Charges{0, 0, 1}, core.V3(1, 0.1, 0)},
		{"neutral", Charges{0, 1, 0}, core.V3(1, 0, 0)},
		// q=2, m=4: a = 2*(0,-1,0)/4
		{"heavy", Charges{2, 2, 0}, core.V3(1, -0.05, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := newTestSim(t, core.V3(0, 0, 1), 0, &fakeSampler{})
			spawnOne(t, sim, tt.charges, core.Vec3{}, core.V3(1, 0, 0))

			MagneticForce(sim, 0.1)

			got := sim.Particles()[0].Velocity
			if !almostEqual(got, tt.want) {
				t.Errorf("velocity = %+v, expected %+v", got, tt.want)
			}
		})
	}
}

func TestAgingBeforeSplit(t *testing.T) {
	// decays_after 0.5 is reached by the first tick's aging, so the
	// particle splits in that same tick.
	s := &fakeSampler{exps: []float64{0.5, 1e9}, ints: []int{1, 1}}
	sim := newTestSim(t, core.Vec3{}, 0, s)
	spawnOne(t, sim, Charges{2, 0, 0}, core.Vec3{}, core.Vec3{})

	res := sim.Step(0.5)
	if len(res.Splits) != 1 {
		t.Fatalf("expected 1 split, got %d", len(res.Splits))
	}
}

func TestSplitOfChargedParent(t *testing.T) {
	s := &fakeSampler{exps: []float64{0, 1e9}, ints: []int{1, 1}}
	sim := newTestSim(t, core.Vec3{}, 0, s)
	pos := core.V3(7, 8, 0)
	spawnOne(t, sim, Charges{2, 0, 0}, pos, core.V3(0, 0, 0))

	res := sim.Step(1)

	if len(res.Splits) != 1 || res.Created != 2 {
		t.Fatalf("splits=%d created=%d, expected 1 and 2", len(res.Splits), res.Created)
	}
	if res.Splits[0].Parent != (Charges{2, 0, 0}) {
		t.Errorf("split parent = %v", res.Splits[0].Parent)
	}
	if res.Alive != 2 || sim.Alive() != 2 {
		t.Errorf("alive = %d, expected the 2 children", res.Alive)
	}

	paths := sim.Trajectories()
	if len(paths) != 1 {
		t.Fatalf("collector has %d trajectories, expected the parent's", len(paths))
	}
	// Seed point plus this tick's record, which is the split point
	if len(paths[0]) != 2 || paths[0][1] != pos.XY() {
		t.Errorf("parent trajectory = %v", paths[0])
	}

	for _, v := range sim.Particles() {
		if v.Particle.Charges != (Charges{1, 0, 0}) {
			t.Errorf("child charges = %v", v.Particle.Charges)
		}
		if v.Position != pos {
			t.Errorf("child position = %+v, expected parent's %+v", v.Position, pos)
		}
		if v.LifeTime.Elapsed != 0 || v.LifeTime.DecaysAfter != 1e9 {
			t.Errorf("child lifetime = %+v, expected fresh", v.LifeTime)
		}
		if len(v.Trace) == 0 || v.Trace[0] != pos.XY() {
			t.Errorf("child trace = %v, expected to start at the split point", v.Trace)
		}
	}
	assertVisibilityCoupling(t, sim)
}

func TestChildrenInheritVelocity(t *testing.T) {
	s := &fakeSampler{exps: []float64{0, 1e9}, ints: []int{1, 0, 1}}
	sim := newTestSim(t, core.Vec3{}, 0, s)
	v0 := core.V3(3, -2, 0)
	spawnOne(t, sim, Charges{1, 0, 1}, core.Vec3{}, v0)

	sim.Step(1)

	for _, v := range sim.Particles() {
		if v.Velocity != v0 {
			t.Errorf("child velocity = %+v, expected %+v", v.Velocity, v0)
		}
	}
}

func TestSingletonNeverSplits(t *testing.T) {
	s := &fakeSampler{exps: []float64{0}}
	sim := newTestSim(t, core.Vec3{}, 0, s)
	spawnOne(t, sim, Charges{0, 0, 1}, core.Vec3{}, core.V3(1, 0, 0))

	res := sim.Step(1)

	if len(res.Splits) != 0 {
		t.Errorf("singleton split into %v", res.Splits)
	}
	if res.Expired != 1 || res.Alive != 0 {
		t.Errorf("expired=%d alive=%d, expected 1 and 0", res.Expired, res.Alive)
	}
	if paths := sim.Trajectories(); len(paths) != 1 || len(paths[0]) != 2 {
		t.Errorf("collector = %v, expected one two-point trajectory", paths)
	}
}

func TestNeutralSingletonExpiresImmediately(t *testing.T) {
	sim := newTestSim(t, core.Vec3{}, 0, &fakeSampler{exps: []float64{1e9}})
	spawnOne(t, sim, Charges{0, 1, 0}, core.Vec3{}, core.Vec3{})

	res := sim.Step(0.01)

	if res.Expired != 1 || res.Alive != 0 {
		t.Errorf("expired=%d alive=%d, expected 1 and 0", res.Expired, res.Alive)
	}
	if len(sim.Trajectories()) != 0 {
		t.Error("neutral particle should leave no trajectory")
	}
}

func TestChargedSingletonSurvivesUntilDecay(t *testing.T) {
	sim := newTestSim(t, core.Vec3{}, 0, &fakeSampler{exps: []float64{2.5}})
	spawnOne(t, sim, Charges{1, 0, 0}, core.Vec3{}, core.V3(1, 0, 0))

	for i := 0; i < 2; i++ {
		if res := sim.Step(1); res.Alive != 1 {
			t.Fatalf("tick %d: particle expired early", i+1)
		}
	}
	if res := sim.Step(1); res.Alive != 0 || res.Harvested != 1 {
		t.Errorf("tick 3: alive=%d harvested=%d, expected 0 and 1", res.Alive, res.Harvested)
	}
}

func TestEndToEndHeavyNeutral(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		s := &fakeSampler{exps: []float64{0, 1e9}, rng: NewRandSampler(seed)}
		sim := newTestSim(t, core.Vec3{}, DefaultFriction, s)
		spawnOne(t, sim, Charges{10, 10, 10}, core.Vec3{}, core.Vec3{})

		res := sim.Step(1)

		if len(res.Splits) != 1 {
			t.Fatalf("seed %d: %d splits, expected 1", seed, len(res.Splits))
		}
		children := res.Splits[0].Children
		if len(children) < 1 || len(children) > 30 {
			t.Fatalf("seed %d: %d children", seed, len(children))
		}
		var sum Charges
		for _, c := range children {
			sum = sum.Add(c)
		}
		if sum != (Charges{10, 10, 10}) {
			t.Errorf("seed %d: children sum to %v", seed, sum)
		}
		if res.Created != len(children) {
			t.Errorf("seed %d: created=%d, expected %d", seed, res.Created, len(children))
		}
		// Neutral parent leaves no trace
		if n := len(sim.Trajectories()); n != 0 {
			t.Errorf("seed %d: collector has %d trajectories, expected 0", seed, n)
		}

		neutralSingletons := 0
		for _, c := range children {
			if c.Mass() == 1 && c.Total() == 0 {
				neutralSingletons++
			}
		}
		if res.Expired != neutralSingletons {
			t.Errorf("seed %d: expired=%d, expected %d neutral singletons", seed, res.Expired, neutralSingletons)
		}
		if res.Alive != len(children)-neutralSingletons {
			t.Errorf("seed %d: alive=%d", seed, res.Alive)
		}
		assertVisibilityCoupling(t, sim)
	}
}

func TestTraceGrowsOnePointPerTick(t *testing.T) {
	sim := newTestSim(t, core.V3(0, 0, 2), DefaultFriction, &fakeSampler{})
	spawnOne(t, sim, Charges{1, 0, 0}, core.V3(0, 50, 0), core.V3(20, 0, 0))

	const ticks = 7
	for i := 0; i < ticks; i++ {
		sim.Step(0.1)
	}

	got := sim.Particles()[0]
	if len(got.Trace) != ticks+1 {
		t.Errorf("trace length = %d, expected %d", len(got.Trace), ticks+1)
	}
	if last := got.Trace[len(got.Trace)-1]; last != got.Position.XY() {
		t.Errorf("last trace point %v, expected current position %v", last, got.Position.XY())
	}
}

func TestPopulationDiesOut(t *testing.T) {
	sim := newTestSim(t, core.V3(0, 0, 2), DefaultFriction, NewRandSampler(42))
	spawnOne(t, sim, Charges{4, 3, 5}, core.Vec3{}, core.V3(100, 0, 0))

	for i := 0; i < 10000 && sim.Alive() > 0; i++ {
		res := sim.Step(0.1)
		for _, sp := range res.Splits {
			var sum Charges
			for _, c := range sp.Children {
				sum = sum.Add(c)
			}
			if sum != sp.Parent {
				t.Fatalf("tick %d: split of %v produced %v", res.Tick, sp.Parent, sum)
			}
		}
		assertVisibilityCoupling(t, sim)
	}
	if sim.Alive() != 0 {
		t.Fatalf("population still alive after 10000 ticks: %d", sim.Alive())
	}

	if sim.Splits() == 0 {
		t.Error("expected at least one split")
	}
	for i, path := range sim.Trajectories() {
		if len(path) == 0 {
			t.Errorf("trajectory %d is empty", i)
		}
	}
}

func TestDoubleFlagPanics(t *testing.T) {
	sim := newTestSim(t, core.Vec3{}, 0, &fakeSampler{})
	spawnOne(t, sim, Charges{1, 0, 0}, core.Vec3{}, core.Vec3{})
	e := sim.Particles()[0].Entity

	sim.flag(e)
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic on double flag")
		}
	}()
	sim.flag(e)
}

func TestDeleteUnflaggedPanics(t *testing.T) {
	sim := newTestSim(t, core.Vec3{}, 0, &fakeSampler{})
	spawnOne(t, sim, Charges{1, 0, 0}, core.Vec3{}, core.Vec3{})
	e := sim.Particles()[0].Entity

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic deleting an unflagged entity")
		}
	}()
	sim.delete(e)
}

func TestFinishHarvestsSurvivors(t *testing.T) {
	sim := newTestSim(t, core.Vec3{}, 0, &fakeSampler{})
	err := sim.Spawn([]Seed{
		{Charges: Charges{1, 0, 0}, Velocity: core.V3(1, 0, 0)},
		{Charges: Charges{0, 0, 2}, Velocity: core.V3(0, 1, 0)},
		{Charges: Charges{1, 0, 1}},
	})
	if err != nil {
		t.Fatal(err)
	}
	sim.Step(1)

	if paths := sim.Paths(); len(paths) != 2 {
		t.Errorf("Paths() = %d, expected 2 live traces", len(paths))
	}
	if len(sim.Trajectories()) != 0 {
		t.Error("Paths() must not move traces into the collector")
	}

	if n := sim.Finish(); n != 2 {
		t.Errorf("Finish() = %d, expected 2", n)
	}
	if n := sim.Finish(); n != 0 {
		t.Errorf("second Finish() = %d, expected 0", n)
	}
	if got := len(sim.Trajectories()); got != 2 {
		t.Errorf("collector has %d trajectories, expected 2", got)
	}
}

func TestTrajectoriesReturnsCopy(t *testing.T) {
	sim := newTestSim(t, core.Vec3{}, 0, &fakeSampler{exps: []float64{0}})
	spawnOne(t, sim, Charges{1, 0, 0}, core.Vec3{}, core.Vec3{})
	sim.Step(1)

	paths := sim.Trajectories()
	paths[0][0] = core.Point2{X: 99, Y: 99}
	if sim.Trajectories()[0][0].X == 99 {
		t.Error("Trajectories() exposed the collector")
	}
}

func TestFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	sim, err := FromConfig(cfg, NewRandSampler(1), nil)
	if err != nil {
		t.Fatalf("FromConfig() error: %v", err)
	}
	if sim.Alive() != 1 {
		t.Errorf("alive = %d, expected 1", sim.Alive())
	}
	if sim.Field() != core.V3(0, 0, 2) {
		t.Errorf("field = %+v", sim.Field())
	}
	p := sim.Particles()[0]
	if p.Position != core.V3(0, 540, 0) || p.Velocity != core.V3(500, 0, 0) {
		t.Errorf("seed particle = %+v", p)
	}

	cfg.Particles.DecayRate = 0
	if _, err := FromConfig(cfg, nil, nil); !errors.Is(err, config.ErrDecayRate) {
		t.Errorf("FromConfig(bad) error = %v", err)
	}
}

func TestRender(t *testing.T) {
	sim := newTestSim(t, core.Vec3{}, 0, &fakeSampler{})
	err := sim.Spawn([]Seed{
		{Charges: Charges{1, 0, 0}, Position: core.V3(50, 50, 0), Velocity: core.V3(10, 0, 0)},
		{Charges: Charges{0, 0, 1}, Position: core.V3(10, 90, 0)},
		{Charges: Charges{1, 2, 1}, Position: core.V3(90, 10, 0)},
	})
	if err != nil {
		t.Fatal(err)
	}
	sim.Step(1)

	scr := core.NewScreen(100, 100)
	Render(scr, sim, RenderOptions{Width: 100, Height: 100})

	if c := scr.GetCell(60, 50); c.Rune != HeadChar || c.Color != core.ColorBrightRed {
		t.Errorf("positive head = %+v", c)
	}
	if c := scr.GetCell(55, 50); c.Rune != TrailChar || c.Color != core.ColorRed {
		t.Errorf("positive trail = %+v", c)
	}
	if c := scr.GetCell(10, 90); c.Rune != HeadChar || c.Color != core.ColorBrightBlue {
		t.Errorf("negative head = %+v", c)
	}
	if c := scr.GetCell(90, 10); c.Rune == HiddenChar {
		t.Error("hidden particle drawn without ShowHidden")
	}

	Render(scr, sim, RenderOptions{Width: 100, Height: 100, ShowHidden: true})
	if c := scr.GetCell(90, 10); c.Rune != HiddenChar {
		t.Errorf("hidden particle = %+v, expected %q", c, HiddenChar)
	}
}
