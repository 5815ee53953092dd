package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/bubble-chamber/internal/config"
	"github.com/vovakirdan/bubble-chamber/internal/export"
	"github.com/vovakirdan/bubble-chamber/internal/platform/tui"
	"github.com/vovakirdan/bubble-chamber/internal/storage"
)

var (
	flagLimit    int
	flagExportID int64
	flagRunsOut  string
	flagPlain    bool
)

var runsCmd = &cobra.Command{
	Use:   "runs [scenario]",
	Short: "Browse the run history",
	Long: `Show recorded runs. On a terminal this opens an interactive table;
otherwise (or with --plain) the runs are printed as text.

--export re-renders the stored tracks of a run as SVG.

Examples:
  chamber runs
  chamber runs cascade --plain --limit 5
  chamber runs --export 12 --out run-12.svg`,
	Args: cobra.MaximumNArgs(1),
	Run:  runRuns,
}

func init() {
	runsCmd.Flags().IntVar(&flagLimit, "limit", 20, "Number of runs to print")
	runsCmd.Flags().Int64Var(&flagExportID, "export", 0, "Export the stored tracks of this run as SVG")
	runsCmd.Flags().StringVar(&flagRunsOut, "out", "", "SVG output name for --export (default run-<id>.svg)")
	runsCmd.Flags().BoolVar(&flagPlain, "plain", false, "Print text even on a terminal")
}

func runRuns(_ *cobra.Command, args []string) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		fail("%v", err)
	}
	path := cfg.Storage.Path
	if flagDBPath != "" {
		path = flagDBPath
	}

	store, err := storage.Open(path)
	if err != nil {
		fail("opening run history: %v", err)
	}
	defer store.Close()

	switch {
	case flagExportID > 0:
		if err := exportRun(context.Background(), store, cfg.Export, flagExportID, flagRunsOut); err != nil {
			store.Close()
			fail("%v", err)
		}
	case isTerminal() && !flagPlain:
		rt := runtimeConfig()
		if _, err := tui.RunRuns(store, rt.ScreenW, rt.ScreenH); err != nil {
			store.Close()
			fail("%v", err)
		}
	default:
		scenario := ""
		if len(args) > 0 {
			scenario = args[0]
		}
		if err := printRuns(store, scenario, flagLimit); err != nil {
			store.Close()
			fail("%v", err)
		}
	}
}

// exportRun renders the stored trajectories of a run and records where the
// picture went.
func exportRun(ctx context.Context, store *storage.Store, cfg config.ExportConfig, id int64, name string) error {
	run, err := store.RunByID(id)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run #%d not found", id)
	}
	paths, err := store.Trajectories(id)
	if err != nil {
		return err
	}

	sink, err := export.NewSink(ctx, cfg)
	if err != nil {
		return err
	}
	if name == "" {
		name = fmt.Sprintf("run-%d.svg", id)
	}
	loc, err := export.Export(ctx, sink, name, export.Document{
		Width:       run.Width,
		Height:      run.Height,
		StrokeWidth: cfg.StrokeWidth,
		Paths:       paths,
	})
	if err != nil {
		return err
	}
	if err := store.SetSVGLocation(id, loc); err != nil {
		return err
	}
	fmt.Printf("Run #%d exported to %s (%d trajectories)\n", id, loc, len(paths))
	return nil
}

// printRuns writes the recent runs as a text table.
func printRuns(store *storage.Store, scenario string, limit int) error {
	runs, err := store.RecentRuns(scenario, limit)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		fmt.Println()
		fmt.Println("Run 'chamber run' or 'chamber watch' to record one!")
		return nil
	}

	fmt.Printf("  %-5s  %-10s  %-6s  %-6s  %-6s  %-16s  %s\n", "#", "Scenario", "Ticks", "Splits", "Tracks", "Date", "SVG")
	fmt.Printf("  %-5s  %-10s  %-6s  %-6s  %-6s  %-16s  %s\n", "-", "--------", "-----", "------", "------", "----", "---")
	for _, r := range runs {
		fmt.Printf("  %-5d  %-10s  %-6d  %-6d  %-6d  %-16s  %s\n",
			r.ID, r.Scenario, r.Ticks, r.Splits, r.Trajectories,
			r.CreatedAt.Local().Format("2006-01-02 15:04"), r.SVGLocation)
	}

	stats, err := store.AllScenarioStats()
	if err != nil {
		return err
	}
	fmt.Println()
	if st, ok := stats[scenario]; ok {
		fmt.Printf("%s: %d runs, best %d splits, avg %.1f tracks\n",
			st.Scenario, st.Runs, st.MaxSplits, st.AvgTrajectories)
		return nil
	}
	total := 0
	for _, st := range stats {
		total += st.Runs
	}
	fmt.Printf("%d runs across %d scenarios\n", total, len(stats))
	return nil
}
