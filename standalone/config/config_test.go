package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigAppliesDefaults(t *testing.T) {
	cfg, err := LoadConfig([]byte(`{"axes":{"x":{"step_pin":"gpio0"}}}`))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Mode != "standalone" {
		t.Errorf("Mode = %q, want standalone", cfg.Mode)
	}
	if cfg.Kinematics != "cartesian" {
		t.Errorf("Kinematics = %q, want cartesian", cfg.Kinematics)
	}
	if cfg.DefaultVelocity != 50.0 {
		t.Errorf("DefaultVelocity = %v, want 50", cfg.DefaultVelocity)
	}
	x := cfg.Axes["x"]
	if x.StepsPerMM != 80.0 {
		t.Errorf("x.StepsPerMM = %v, want 80", x.StepsPerMM)
	}
	if x.MaxVelocity != 300.0 {
		t.Errorf("x.MaxVelocity = %v, want 300", x.MaxVelocity)
	}
}

func TestLoadConfigYAML(t *testing.T) {
	doc := `
mode: standalone
kinematics: corexy
axes:
  x:
    step_pin: gpio0
    dir_pin: gpio1
    steps_per_mm: 100
    max_velocity: 400
default_velocity: 75
`
	cfg, err := LoadConfigYAML([]byte(doc))
	if err != nil {
		t.Fatalf("LoadConfigYAML: %v", err)
	}
	if cfg.Kinematics != "corexy" {
		t.Errorf("Kinematics = %q, want corexy", cfg.Kinematics)
	}
	x := cfg.Axes["x"]
	if x.StepPin != "gpio0" || x.DirPin != "gpio1" {
		t.Errorf("unexpected axis pins: %+v", x)
	}
	if x.StepsPerMM != 100 {
		t.Errorf("x.StepsPerMM = %v, want 100", x.StepsPerMM)
	}
	if cfg.DefaultVelocity != 75 {
		t.Errorf("DefaultVelocity = %v, want 75", cfg.DefaultVelocity)
	}
}

func TestLoadConfigFileDispatchesOnExtension(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "machine.yaml")
	if err := os.WriteFile(yamlPath, []byte("mode: standalone\nkinematics: delta\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfigFile(yamlPath)
	if err != nil {
		t.Fatalf("LoadConfigFile(yaml): %v", err)
	}
	if cfg.Kinematics != "delta" {
		t.Errorf("Kinematics = %q, want delta", cfg.Kinematics)
	}

	jsonPath := filepath.Join(dir, "machine.json")
	if err := os.WriteFile(jsonPath, []byte(`{"mode":"standalone","kinematics":"corexz"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = LoadConfigFile(jsonPath)
	if err != nil {
		t.Fatalf("LoadConfigFile(json): %v", err)
	}
	if cfg.Kinematics != "corexz" {
		t.Errorf("Kinematics = %q, want corexz", cfg.Kinematics)
	}
}

func TestDefaultCartesianConfig(t *testing.T) {
	cfg := DefaultCartesianConfig()
	if len(cfg.Axes) != 4 {
		t.Errorf("expected 4 axes, got %d", len(cfg.Axes))
	}
	if _, ok := cfg.Endstops["z"]; !ok {
		t.Error("expected a z endstop")
	}
}
