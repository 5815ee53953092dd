package main

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/bubble-chamber/internal/config"
	"github.com/vovakirdan/bubble-chamber/internal/export"
	"github.com/vovakirdan/bubble-chamber/internal/platform/tui"
)

var watchCmd = &cobra.Command{
	Use:   "watch [scenario]",
	Short: "Watch a scenario live",
	Long: `Watch the chamber live in the terminal. Without a scenario (and without
--config) a menu lets you pick one, and you return to it after each run.
When the chamber empties, or you quit while it is running, the tracks are
written to export.svg_path and the run is recorded.

Controls:
  Space/P   - Pause
  R         - Restart with a new seed
  E         - Export the tracks drawn so far as SVG
  N         - Show neutral particles
  F         - Show finished tracks
  ?         - Help
  Esc/B     - Back to the menu
  Q/Ctrl+C  - Quit

Examples:
  chamber watch
  chamber watch cascade
  chamber watch spiral --preset violent --fps 60
  chamber watch --config ./my-chamber.yaml`,
	Args: cobra.MaximumNArgs(1),
	Run:  runWatch,
}

func runWatch(cmd *cobra.Command, args []string) {
	name, cfg, err := resolveConfig(args, flagConfig, flagPreset, config.Overrides{})
	if err != nil {
		fail("%v", err)
	}

	sink, err := export.NewSink(context.Background(), cfg.Export)
	if err != nil {
		fail("%v", err)
	}

	store := openStore(cfg)
	if store != nil {
		defer store.Close()
	}

	// The viewer owns the terminal; keep logs from tearing the picture
	logFile := logSink()
	viewLogger := logger.WithPrefix("watch")
	viewLogger.SetOutput(logFile)

	rt := runtimeConfig()
	if len(args) > 0 || flagConfig != "" {
		err = tui.Run(tui.ViewerOptions{
			Scenario: name,
			Config:   cfg,
			Runtime:  rt,
			Logger:   viewLogger,
			Store:    store,
			Sink:     sink,
		})
	} else {
		preset, _ := config.ParsePreset(flagPreset) // validated by resolveConfig
		p := tea.NewProgram(tui.NewSessionModel(tui.SessionOptions{
			Runtime: rt,
			Preset:  preset,
			Store:   store,
			Sink:    sink,
			Logger:  viewLogger,
		}), tea.WithAltScreen())
		_, err = p.Run()
	}
	// fail exits without running deferred calls
	logFile.Close()
	if err != nil {
		fail("running viewer: %v", err)
	}
}
