// chamber simulates charged particles decaying in a bubble chamber and draws
// their tracks in the terminal or as SVG.
//
// Usage:
//
//	chamber list                - List available scenarios
//	chamber run [scenario]      - Run a scenario headless and write an SVG
//	chamber watch [scenario]    - Watch a scenario live (menu without a scenario)
//	chamber runs                - Browse stored runs
//	chamber serve               - Start SSH server and metrics endpoint
//
// Global flags:
//
//	--config <path>    - Custom chamber config YAML
//	--preset <name>    - calm, normal or violent
//	--seed <value>     - RNG seed for reproducible runs
//	--db <path>        - Run history database
//	--log-level <lvl>  - debug, info, warn or error
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	// Import scenarios to register them
	_ "github.com/vovakirdan/bubble-chamber/internal/scenarios"
)

var (
	// Global flags
	flagConfig   string
	flagPreset   string
	flagFPS      int
	flagSeed     int64
	flagDBPath   string
	flagNoStore  bool
	flagLogLevel string

	logger *log.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "chamber",
	Short: "Bubble Chamber - watch particles decay in a magnetic field",
	Long: `Bubble Chamber simulates charged particles moving through a uniform
magnetic field. Heavy particles decay into lighter ones that conserve
charge, and every charged particle leaves a track.

Available commands:
  list     - Show all scenarios
  run      - Run a scenario headless and export its tracks as SVG
  watch    - Watch a scenario live in the terminal
  runs     - Browse the run history
  serve    - Start the SSH viewer and the metrics endpoint

Examples:
  chamber list
  chamber run cascade --out cascade.svg
  chamber watch spiral --preset violent
  chamber serve --ssh :2222 --metrics :9090`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		level, err := log.ParseLevel(flagLogLevel)
		if err != nil {
			return fmt.Errorf("invalid --log-level: %w", err)
		}
		logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Prefix:          "chamber",
			Level:           level,
		})
		return nil
	},
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to custom chamber config YAML")
	rootCmd.PersistentFlags().StringVar(&flagPreset, "preset", "", "Preset: calm, normal, violent")
	rootCmd.PersistentFlags().IntVar(&flagFPS, "fps", 30, "Frames per second of the live view")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to run history database (default from config)")
	rootCmd.PersistentFlags().BoolVar(&flagNoStore, "no-store", false, "Do not record runs")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn, error")

	// Add subcommands
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(serveCmd)
}
