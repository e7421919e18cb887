// Package config defines rollout configuration and built-in model
// presets.
package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultNumEnvs   = 16
	DefaultSteps     = 1000
	DefaultAmplitude = 0.5
	DefaultFrequency = 1.0
)

// Config describes one batched rollout.
type Config struct {
	Model            string        `yaml:"model"` // preset name or spec file path
	NumEnvs          int           `yaml:"num_envs"`
	Steps            int           `yaml:"steps"`
	SolverIterations int           `yaml:"solver_iterations"`
	Workers          int           `yaml:"workers"`
	Seed             int64         `yaml:"seed"`
	Control          ControlConfig `yaml:"control"`
}

// ControlConfig selects the control waveform driving every rollout
// step.
type ControlConfig struct {
	Mode      string  `yaml:"mode"` // zero | constant | sine
	Amplitude float64 `yaml:"amplitude"`
	Frequency float64 `yaml:"frequency"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:   "pendulum",
		NumEnvs: DefaultNumEnvs,
		Steps:   DefaultSteps,
		Control: ControlConfig{
			Mode:      "sine",
			Amplitude: DefaultAmplitude,
			Frequency: DefaultFrequency,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.NumEnvs <= 0 {
		return fmt.Errorf("num_envs must be positive, got %d", c.NumEnvs)
	}
	if c.Steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d", c.Steps)
	}
	switch c.Control.Mode {
	case "", "zero", "constant", "sine":
	default:
		return fmt.Errorf("unknown control mode %q", c.Control.Mode)
	}
	return nil
}

// Fill writes the controls for one rollout step into out, which must
// have length numEnvs*nu, environment-major. Sine mode phase-shifts
// each environment so a batch fans out instead of moving in lockstep.
func (cc ControlConfig) Fill(step int, dt float64, numEnvs, nu int, out []float64) {
	switch cc.Mode {
	case "", "zero":
		for i := range out {
			out[i] = 0
		}
	case "constant":
		for i := range out {
			out[i] = cc.Amplitude
		}
	case "sine":
		t := float64(step) * dt
		for e := 0; e < numEnvs; e++ {
			phase := 2 * math.Pi * float64(e) / float64(numEnvs)
			v := cc.Amplitude * math.Sin(2*math.Pi*cc.Frequency*t+phase)
			for u := 0; u < nu; u++ {
				out[e*nu+u] = v
			}
		}
	}
}
