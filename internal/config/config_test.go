package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Model != "doubleintegrator" {
		t.Errorf("expected model doubleintegrator, got %s", cfg.Model)
	}
	if cfg.MeshIntervals <= 0 {
		t.Error("mesh_intervals should be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestValidateRejectsBadScheme(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scheme = "hermite"
	if err := cfg.Validate(); err == nil {
		t.Error("expected an error for an unknown scheme")
	}
}

func TestValidateRejectsZeroDegreeCollocation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scheme = "radau"
	cfg.Degree = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected an error for degree 0 with radau")
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("model: pendulum\nscheme: radau\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Model != "pendulum" || cfg.Scheme != "radau" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.MeshIntervals != DefaultMeshIntervals {
		t.Errorf("unset fields should keep defaults, got %d", cfg.MeshIntervals)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Scheme = "gauss"
	cfg.Degree = 3
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if back.Scheme != "gauss" || back.Degree != 3 {
		t.Errorf("round trip lost fields: %+v", back)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("pendulum", "fine")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Scheme != "radau" || cfg.MeshIntervals != 40 {
		t.Errorf("unexpected preset values: %+v", cfg)
	}
	if cfg.Penalty.MaxOuter == 0 {
		t.Error("preset should inherit default penalty settings")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if GetPreset("pendulum", "nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
	if GetPreset("nonexistent", "fine") != nil {
		t.Error("expected nil for nonexistent model")
	}
}

func TestSolverMatchesConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MeshIntervals = 4
	solver := cfg.Solver()
	if len(solver.Mesh) != 5 {
		t.Errorf("expected 5 mesh points, got %d", len(solver.Mesh))
	}
	if solver.Mesh[0] != 0 || solver.Mesh[4] != 1 {
		t.Errorf("mesh must span [0, 1], got %v", solver.Mesh)
	}
}
