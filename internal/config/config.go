package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/trajopt/internal/nlp"
	"github.com/san-kum/trajopt/internal/ocp"
)

const (
	DefaultMeshIntervals = 25
	DefaultDegree        = 2
	DefaultMaxOuter      = 12
	DefaultInnerIters    = 400
	DefaultInitialWeight = 10.0
	DefaultWeightGrowth  = 8.0
	DefaultTolerance     = 1e-5
)

type Config struct {
	Model         string `yaml:"model"`
	Scheme        string `yaml:"scheme"`
	Degree        int    `yaml:"degree"`
	MeshIntervals int    `yaml:"mesh_intervals"`
	Seed          int64  `yaml:"seed"`
	DataDir       string `yaml:"data_dir"`

	ScaleVariables       bool `yaml:"scale_variables"`
	InterpolateControls  bool `yaml:"interpolate_controls"`
	EnforcePathMidpoints bool `yaml:"enforce_path_midpoints"`

	Penalty PenaltyConfig `yaml:"penalty"`
}

type PenaltyConfig struct {
	MaxOuter        int     `yaml:"max_outer"`
	InnerIterations int     `yaml:"inner_iterations"`
	InitialWeight   float64 `yaml:"initial_weight"`
	WeightGrowth    float64 `yaml:"weight_growth"`
	Tolerance       float64 `yaml:"tolerance"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:          "doubleintegrator",
		Scheme:         string(ocp.SchemeTrapezoidal),
		Degree:         DefaultDegree,
		MeshIntervals:  DefaultMeshIntervals,
		DataDir:        "runs",
		ScaleVariables: true,
		Penalty: PenaltyConfig{
			MaxOuter:        DefaultMaxOuter,
			InnerIterations: DefaultInnerIters,
			InitialWeight:   DefaultInitialWeight,
			WeightGrowth:    DefaultWeightGrowth,
			Tolerance:       DefaultTolerance,
		},
	}
}

// Load reads a YAML file over the defaults, so partial files are fine.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the fields the transcription engine cannot check
// itself before a mesh is built.
func (c *Config) Validate() error {
	switch ocp.Scheme(c.Scheme) {
	case ocp.SchemeTrapezoidal, ocp.SchemeRadau, ocp.SchemeGauss:
	default:
		return fmt.Errorf("config: unknown scheme %q", c.Scheme)
	}
	if c.MeshIntervals < 1 {
		return fmt.Errorf("config: mesh_intervals must be >= 1, got %d", c.MeshIntervals)
	}
	if c.Degree < 1 && ocp.Scheme(c.Scheme) != ocp.SchemeTrapezoidal {
		return fmt.Errorf("config: degree must be >= 1 for %s, got %d", c.Scheme, c.Degree)
	}
	return nil
}

// Solver materializes the discretization settings.
func (c *Config) Solver() *ocp.Solver {
	return &ocp.Solver{
		Mesh:                                    ocp.UniformMesh(c.MeshIntervals),
		Scheme:                                  ocp.Scheme(c.Scheme),
		Degree:                                  c.Degree,
		ScaleVariablesUsingBounds:               c.ScaleVariables,
		InterpolateControlMeshInteriorPoints:    c.InterpolateControls,
		EnforcePathConstraintMeshInteriorPoints: c.EnforcePathMidpoints,
		SlackBounds:                             ocp.Range(-1e-3, 1e-3),
	}
}

// Optimizer materializes the penalty settings.
func (c *Config) Optimizer() *nlp.Penalty {
	opt := nlp.NewPenalty()
	if c.Penalty.MaxOuter > 0 {
		opt.MaxOuter = c.Penalty.MaxOuter
	}
	if c.Penalty.InnerIterations > 0 {
		opt.InnerIterations = c.Penalty.InnerIterations
	}
	if c.Penalty.InitialWeight > 0 {
		opt.InitialWeight = c.Penalty.InitialWeight
	}
	if c.Penalty.WeightGrowth > 1 {
		opt.WeightGrowth = c.Penalty.WeightGrowth
	}
	if c.Penalty.Tolerance > 0 {
		opt.Tolerance = c.Penalty.Tolerance
	}
	return opt
}
