package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/term"

	"github.com/vovakirdan/bubble-chamber/internal/config"
	"github.com/vovakirdan/bubble-chamber/internal/core"
	"github.com/vovakirdan/bubble-chamber/internal/registry"
	"github.com/vovakirdan/bubble-chamber/internal/storage"
)

// customScenario names runs loaded from --config without a scenario argument.
const customScenario = "custom"

// resolveConfig picks the configuration of a run: a named scenario, the
// --config file, or the config search path. The preset and the command
// line overrides are applied last.
func resolveConfig(args []string, configPath, preset string, o config.Overrides) (string, config.SimulationConfig, error) {
	p, err := config.ParsePreset(preset)
	if err != nil {
		return "", config.SimulationConfig{}, err
	}

	var (
		name string
		cfg  config.SimulationConfig
	)
	switch {
	case len(args) > 0:
		name = args[0]
		sc, err := registry.Create(name)
		if err != nil {
			return "", cfg, fmt.Errorf("%w (run 'chamber list' to see available scenarios)", err)
		}
		if cfg, err = sc.Config(); err != nil {
			return "", cfg, err
		}
	case configPath != "":
		name = customScenario
		if cfg, err = config.Load(configPath); err != nil {
			return "", cfg, err
		}
	default:
		name = registry.Default
		if cfg, err = config.Load(""); err != nil {
			return "", cfg, err
		}
	}

	config.ApplyPreset(&cfg, p)
	o.Apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return "", cfg, err
	}
	return name, cfg, nil
}

// openStore opens the run history, or returns nil when recording is off.
// A database that cannot be opened is logged and skipped: the run still works.
func openStore(cfg config.SimulationConfig) *storage.Store {
	if flagNoStore || !cfg.Storage.Enabled {
		return nil
	}
	path := cfg.Storage.Path
	if flagDBPath != "" {
		path = flagDBPath
	}
	store, err := storage.Open(path)
	if err != nil {
		logger.Warn("could not open run history", "path", path, "error", err)
		return nil
	}
	return store
}

// runtimeConfig sizes the live view to the terminal.
func runtimeConfig() core.RuntimeConfig {
	cfg := core.DefaultConfig()
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		cfg.ScreenW = w
		cfg.ScreenH = h
	}
	cfg.TickRate = flagFPS
	cfg.Seed = flagSeed
	return cfg
}

// isTerminal reports whether stdout is an interactive terminal.
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// logSink returns where logs go while a full-screen view owns the terminal:
// ~/.chamber/chamber.log, or nowhere when it cannot be opened. The caller
// closes it.
func logSink() io.WriteCloser {
	home, err := os.UserHomeDir()
	if err != nil {
		return discardCloser{}
	}
	dir := filepath.Join(home, ".chamber")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return discardCloser{}
	}
	f, err := os.OpenFile(filepath.Join(dir, "chamber.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return discardCloser{}
	}
	return f
}

type discardCloser struct{}

func (discardCloser) Write(p []byte) (int, error) { return len(p), nil }
func (discardCloser) Close() error { return nil }

// fail prints an error and exits.
func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
