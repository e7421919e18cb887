package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/arghyasur1991/mujoco-unity/internal/engine"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.NumEnvs <= 0 {
		t.Error("DefaultConfig has invalid NumEnvs")
	}
	if cfg.Steps <= 0 {
		t.Error("DefaultConfig has invalid Steps")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig invalid: %v", err)
	}
}

func TestLoadSaveRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NumEnvs = 32
	cfg.Steps = 250
	cfg.SolverIterations = 5
	cfg.Control.Mode = "constant"
	cfg.Control.Amplitude = 0.9

	path := filepath.Join(t.TempDir(), "rollout.yaml")
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.NumEnvs != 32 || loaded.Steps != 250 || loaded.SolverIterations != 5 {
		t.Errorf("round trip lost values: %+v", loaded)
	}
	if loaded.Control.Mode != "constant" || loaded.Control.Amplitude != 0.9 {
		t.Errorf("round trip lost control: %+v", loaded.Control)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("num_envs: -1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected validation error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Config)
		ok   bool
	}{
		{"default", func(c *Config) {}, true},
		{"zero envs", func(c *Config) { c.NumEnvs = 0 }, false},
		{"zero steps", func(c *Config) { c.Steps = 0 }, false},
		{"bad control mode", func(c *Config) { c.Control.Mode = "noise" }, false},
		{"empty control mode", func(c *Config) { c.Control.Mode = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mod(cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestControlFill(t *testing.T) {
	out := make([]float64, 6) // 3 envs, nu=2

	ControlConfig{Mode: "zero"}.Fill(0, 0.01, 3, 2, out)
	for i, v := range out {
		if v != 0 {
			t.Errorf("zero mode: out[%d] = %v", i, v)
		}
	}

	ControlConfig{Mode: "constant", Amplitude: 0.7}.Fill(5, 0.01, 3, 2, out)
	for i, v := range out {
		if v != 0.7 {
			t.Errorf("constant mode: out[%d] = %v", i, v)
		}
	}

	ControlConfig{Mode: "sine", Amplitude: 1, Frequency: 1}.Fill(25, 0.01, 3, 2, out)
	if out[0] == out[2] {
		t.Error("sine mode should phase-shift environments apart")
	}
	if out[0] != out[1] {
		t.Error("sine mode should drive all of one env's actuators equally")
	}
	for i, v := range out {
		if math.Abs(v) > 1 {
			t.Errorf("sine amplitude exceeded at %d: %v", i, v)
		}
	}
}

func TestModelPresetsCompile(t *testing.T) {
	for _, name := range ListPresets() {
		t.Run(name, func(t *testing.T) {
			spec, ok := ModelPreset(name)
			if !ok {
				t.Fatalf("preset %q missing", name)
			}
			m, err := engine.New(spec)
			if err != nil {
				t.Fatalf("preset %q does not compile: %v", name, err)
			}
			if m.Nu() == 0 {
				t.Errorf("preset %q has no actuators", name)
			}
		})
	}

	if _, ok := ModelPreset("ghost"); ok {
		t.Error("unknown preset should not resolve")
	}
}
