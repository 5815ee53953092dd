package config

import "fmt"

// Preset scales how violent a run is: how soon particles decay and how hard
// the field bends them.
type Preset string

const (
	PresetCalm    Preset = "calm"
	PresetNormal  Preset = "normal"
	PresetViolent Preset = "violent"
)

// AllPresets returns all available presets in order.
func AllPresets() []Preset {
	return []Preset{PresetCalm, PresetNormal, PresetViolent}
}

// ParsePreset converts a string to a Preset.
func ParsePreset(s string) (Preset, error) {
	switch Preset(s) {
	case PresetCalm, PresetNormal, PresetViolent:
		return Preset(s), nil
	case "":
		return PresetNormal, nil
	}
	return "", fmt.Errorf("config: unknown preset %q", s)
}

// presetScale returns the decay-rate and field multipliers of a preset.
func presetScale(p Preset) (decay, field float64) {
	switch p {
	case PresetCalm:
		return 0.5, 0.5
	case PresetViolent:
		return 2.5, 2.0
	}
	return 1, 1
}

// ApplyPreset modifies the config based on a preset. Normal leaves it unchanged.
func ApplyPreset(cfg *SimulationConfig, p Preset) {
	decay, field := presetScale(p)
	cfg.Particles.DecayRate *= decay
	for i := range cfg.MagneticField {
		cfg.MagneticField[i] *= field
	}
}
