// Package runner drives one chamber simulation from a configuration to a
// recorded result: stepping, survivor harvest, SVG export and run history.
// The headless run command and the live viewer share it.
package runner

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/bubble-chamber/internal/chamber"
	"github.com/vovakirdan/bubble-chamber/internal/config"
	"github.com/vovakirdan/bubble-chamber/internal/export"
	"github.com/vovakirdan/bubble-chamber/internal/storage"
	"github.com/vovakirdan/bubble-chamber/internal/telemetry"
)

// Deps are the optional collaborators of a Runner. Nil fields disable the
// corresponding feature.
type Deps struct {
	Logger  *log.Logger
	Metrics *telemetry.Metrics
	Store   *storage.Store
	Sink    export.Sink
	Sampler chamber.Sampler // nil uses a RandSampler seeded with the run seed
}

// Summary describes a completed run.
type Summary struct {
	RunID        int64 // 0 when the run was not stored
	Ticks        uint64
	Splits       int
	Trajectories int
	Survivors    int
	SVGLocation  string
	Duration     time.Duration
}

// Runner owns one simulation and the bookkeeping around it.
// It is not safe for concurrent use.
type Runner struct {
	scenario string
	cfg      config.SimulationConfig
	seed     int64
	deps     Deps
	sim      *chamber.Simulation

	started   time.Time
	survivors int
	finished  bool
}

// New builds a runner for cfg. A zero seed is replaced with a time-based one
// so the stored run can be reproduced.
func New(scenario string, cfg config.SimulationConfig, seed int64, deps Deps) (*Runner, error) {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if deps.Logger == nil {
		deps.Logger = log.New(io.Discard)
	}
	sampler := deps.Sampler
	if sampler == nil {
		sampler = chamber.NewRandSampler(seed)
	}

	sim, err := chamber.FromConfig(cfg, sampler, deps.Logger)
	if err != nil {
		return nil, err
	}
	return &Runner{
		scenario: scenario,
		cfg:      cfg,
		seed:     seed,
		deps:     deps,
		sim:      sim,
		started:  time.Now(),
	}, nil
}

// Simulation returns the simulation being driven.
func (r *Runner) Simulation() *chamber.Simulation { return r.sim }

// Config returns the configuration the runner was built from.
func (r *Runner) Config() config.SimulationConfig { return r.cfg }

// Scenario returns the scenario name recorded with the run.
func (r *Runner) Scenario() string { return r.scenario }

// Seed returns the sampler seed.
func (r *Runner) Seed() int64 { return r.seed }

// Step advances the simulation by one configured time step.
func (r *Runner) Step() chamber.StepResult {
	res := r.sim.Step(r.cfg.Physics.TimeStep)
	r.deps.Metrics.Observe(res)
	return res
}

// Done reports whether the population is gone or the tick limit is reached.
func (r *Runner) Done() bool {
	if r.sim.Alive() == 0 {
		return true
	}
	limit := r.cfg.Physics.MaxTicks
	return limit > 0 && r.sim.Tick() >= uint64(limit)
}

// Run steps until Done or until ctx is cancelled. Cancellation is checked
// between ticks, so a tick is never left half applied.
func (r *Runner) Run(ctx context.Context) error {
	for !r.Done() {
		if err := ctx.Err(); err != nil {
			r.deps.Logger.Info("run interrupted", "tick", r.sim.Tick(), "alive", r.sim.Alive())
			return err
		}
		r.Step()
	}
	return nil
}

// Finish harvests the traces of live particles when the configuration asks
// for survivors and counts the run as finished. Only the first call has an
// effect.
func (r *Runner) Finish() {
	if r.finished {
		return
	}
	r.finished = true
	if r.cfg.Export.IncludeSurvivors {
		r.survivors = r.sim.Finish()
	}
	r.deps.Metrics.RunFinished(r.scenario)
}

// Document returns the SVG document of the run. Before Finish it includes
// the in-progress traces of live particles; after Finish it holds only the
// collector.
func (r *Runner) Document() export.Document {
	paths := r.sim.Paths()
	if r.finished {
		paths = r.sim.Trajectories()
	}
	return export.Document{
		Width:       r.cfg.Chamber.Width,
		Height:      r.cfg.Chamber.Height,
		StrokeWidth: r.cfg.Export.StrokeWidth,
		Paths:       paths,
	}
}

// Finished reports whether Finish has been called.
func (r *Runner) Finished() bool { return r.finished }

// Record stores the run in the history database. It returns 0 without a store.
func (r *Runner) Record(svgLocation string) (int64, error) {
	if r.deps.Store == nil {
		return 0, nil
	}
	run := storage.Run{
		Scenario:    r.scenario,
		Seed:        r.seed,
		Ticks:       int(r.sim.Tick()),
		TimeStep:    r.cfg.Physics.TimeStep,
		Width:       r.cfg.Chamber.Width,
		Height:      r.cfg.Chamber.Height,
		Splits:      r.sim.Splits(),
		Survivors:   r.survivors,
		SVGLocation: svgLocation,
		Duration:    time.Since(r.started),
	}
	id, err := r.deps.Store.SaveRun(run, r.sim.Trajectories())
	if err != nil {
		return 0, fmt.Errorf("runner: record %s: %w", r.scenario, err)
	}
	return id, nil
}

// Complete finishes the run, exports the picture to the configured SVG path
// when a sink is set and records the run. The export and the record are
// attempted even when ctx is already cancelled, so an interrupted run still
// leaves its picture behind.
func (r *Runner) Complete(ctx context.Context) (Summary, error) {
	return r.CompleteTo(ctx, r.cfg.Export.SVGPath)
}

// CompleteTo is Complete with the picture written under name instead of the
// configured SVG path. An empty name skips the export.
func (r *Runner) CompleteTo(ctx context.Context, name string) (Summary, error) {
	ctx = context.WithoutCancel(ctx)
	r.Finish()

	sum := Summary{
		Ticks:        r.sim.Tick(),
		Splits:       r.sim.Splits(),
		Trajectories: r.sim.Collected(),
		Survivors:    r.survivors,
		Duration:     time.Since(r.started),
	}

	if r.deps.Sink != nil && name != "" {
		loc, err := export.Export(ctx, r.deps.Sink, name, r.Document())
		if err != nil {
			return sum, err
		}
		sum.SVGLocation = loc
		r.deps.Logger.Info("trajectories exported", "location", loc, "paths", sum.Trajectories)
	}

	id, err := r.Record(sum.SVGLocation)
	if err != nil {
		return sum, err
	}
	sum.RunID = id
	r.deps.Logger.Debug("run complete",
		"scenario", r.scenario, "ticks", sum.Ticks, "splits", sum.Splits, "run", id)
	return sum, nil
}
