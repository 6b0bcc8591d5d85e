package config

// Presets are named discretization setups per model, selected with
// --preset on the command line.
var Presets = map[string]map[string]*Config{
	"doubleintegrator": {
		"coarse": {
			Model: "doubleintegrator", Scheme: "trapezoidal",
			MeshIntervals: 10, ScaleVariables: true,
		},
		"fine": {
			Model: "doubleintegrator", Scheme: "radau", Degree: 3,
			MeshIntervals: 25, ScaleVariables: true,
		},
	},
	"pendulum": {
		"coarse": {
			Model: "pendulum", Scheme: "trapezoidal",
			MeshIntervals: 25, ScaleVariables: true,
		},
		"fine": {
			Model: "pendulum", Scheme: "radau", Degree: 2,
			MeshIntervals: 40, ScaleVariables: true,
		},
		"gauss": {
			Model: "pendulum", Scheme: "gauss", Degree: 2,
			MeshIntervals: 30, ScaleVariables: true,
		},
	},
	"cartpole": {
		"coarse": {
			Model: "cartpole", Scheme: "trapezoidal",
			MeshIntervals: 40, ScaleVariables: true,
		},
		"fine": {
			Model: "cartpole", Scheme: "radau", Degree: 3,
			MeshIntervals: 50, ScaleVariables: true,
		},
	},
}

// GetPreset returns a copy of the named preset with unset solver
// settings filled from the defaults, or nil when it does not exist.
func GetPreset(model, name string) *Config {
	presets, ok := Presets[model]
	if !ok {
		return nil
	}
	preset, ok := presets[name]
	if !ok {
		return nil
	}
	cfg := *preset
	defaults := DefaultConfig()
	if cfg.DataDir == "" {
		cfg.DataDir = defaults.DataDir
	}
	if cfg.Degree == 0 {
		cfg.Degree = defaults.Degree
	}
	if cfg.Penalty == (PenaltyConfig{}) {
		cfg.Penalty = defaults.Penalty
	}
	return &cfg
}

// ListPresets returns the preset names for a model.
func ListPresets(model string) []string {
	presets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	return names
}
