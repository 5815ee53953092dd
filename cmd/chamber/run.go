package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/bubble-chamber/internal/config"
	"github.com/vovakirdan/bubble-chamber/internal/export"
	"github.com/vovakirdan/bubble-chamber/internal/runner"
)

var (
	flagTicks int
	flagDT    float64
	flagOut   string
	flagSink  string
)

var runCmd = &cobra.Command{
	Use:   "run [scenario]",
	Short: "Run a scenario headless and export its tracks",
	Long: `Run the simulation without a display until every particle is gone,
the tick limit is reached, or Ctrl+C is pressed. The tracks are written
as SVG and the run is recorded in the run history.

Without a scenario the --config file (or the config search path) is used.

Examples:
  chamber run
  chamber run cascade --out cascade.svg
  chamber run --config ./my-chamber.yaml --ticks 500
  chamber run spiral --sink s3 --seed 42`,
	Args: cobra.MaximumNArgs(1),
	Run:  runRun,
}

func init() {
	runCmd.Flags().IntVar(&flagTicks, "ticks", 0, "Stop after this many ticks (overrides physics.max_ticks)")
	runCmd.Flags().Float64Var(&flagDT, "dt", 0, "Seconds per tick (overrides physics.time_step)")
	runCmd.Flags().StringVar(&flagOut, "out", "", "SVG output name (overrides export.svg_path)")
	runCmd.Flags().StringVar(&flagSink, "sink", "", "Export sink: fs or s3 (overrides export.sink)")
}

func runRun(cmd *cobra.Command, args []string) {
	name, cfg, err := resolveConfig(args, flagConfig, flagPreset, config.Overrides{
		MaxTicks: flagTicks,
		TimeStep: flagDT,
		SVGPath:  flagOut,
		Sink:     flagSink,
	})
	if err != nil {
		fail("%v", err)
	}

	// Interrupts stop the run between ticks; the tracks are still written
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sink, err := export.NewSink(ctx, cfg.Export)
	if err != nil {
		fail("%v", err)
	}

	store := openStore(cfg)
	if store != nil {
		defer store.Close()
	}

	deps := runner.Deps{
		Logger: logger,
		Store:  store,
		Sink:   sink,
	}
	sum, err := runHeadless(ctx, name, cfg, flagSeed, deps)
	if err != nil {
		fail("%v", err)
	}

	fmt.Printf("Scenario:     %s\n", name)
	fmt.Printf("Ticks:        %d\n", sum.Ticks)
	fmt.Printf("Splits:       %d\n", sum.Splits)
	fmt.Printf("Trajectories: %d (%d survivors)\n", sum.Trajectories, sum.Survivors)
	if sum.SVGLocation != "" {
		fmt.Printf("SVG:          %s\n", sum.SVGLocation)
	}
	if sum.RunID > 0 {
		fmt.Printf("Run:          #%d\n", sum.RunID)
	}
}

// runHeadless steps a simulation to the end and completes it. An
// interrupted run is completed too, so its tracks are not lost.
func runHeadless(ctx context.Context, name string, cfg config.SimulationConfig, seed int64, deps runner.Deps) (runner.Summary, error) {
	if deps.Logger == nil {
		deps.Logger = log.New(io.Discard)
	}
	r, err := runner.New(name, cfg, seed, deps)
	if err != nil {
		return runner.Summary{}, err
	}

	deps.Logger.Info("run started", "scenario", name, "seed", r.Seed(), "particles", r.Simulation().Alive())
	runErr := r.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runner.Summary{}, runErr
	}

	sum, err := r.Complete(ctx)
	if err != nil {
		return sum, fmt.Errorf("complete run: %w", err)
	}
	deps.Logger.Info("run finished",
		"scenario", name, "ticks", sum.Ticks, "splits", sum.Splits, "interrupted", runErr != nil)
	return sum, nil
}
