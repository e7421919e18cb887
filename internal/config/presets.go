package config

import "github.com/arghyasur1991/mujoco-unity/internal/engine"

// Built-in model presets, usable anywhere a spec file path is
// accepted.
var presets = map[string]engine.ModelSpec{
	"pendulum": {
		Name:     "pendulum",
		Timestep: 0.002,
		Bodies: []engine.BodySpec{
			{
				Name: "pole",
				Mass: 1.0,
				IPos: []float64{0, 0, -0.5},
				Joint: engine.JointSpec{
					Name:    "swing",
					Type:    "hinge",
					Axis:    []float64{0, 1, 0},
					Damping: 0.1,
				},
			},
		},
		Actuators: []engine.ActuatorSpec{
			{Name: "motor", Joint: "swing", Gear: 1.0},
		},
	},
	"double_pendulum": {
		Name:     "double_pendulum",
		Timestep: 0.002,
		Bodies: []engine.BodySpec{
			{
				Name: "upper",
				Mass: 1.0,
				IPos: []float64{0, 0, -0.5},
				Joint: engine.JointSpec{
					Name:    "shoulder",
					Type:    "hinge",
					Axis:    []float64{0, 1, 0},
					Damping: 0.05,
				},
			},
			{
				Name:   "lower",
				Parent: "upper",
				Mass:   1.0,
				Pos:    []float64{0, 0, -1.0},
				IPos:   []float64{0, 0, -0.5},
				Joint: engine.JointSpec{
					Name:    "elbow",
					Type:    "hinge",
					Axis:    []float64{0, 1, 0},
					Damping: 0.05,
				},
			},
		},
		Actuators: []engine.ActuatorSpec{
			{Name: "shoulder_motor", Joint: "shoulder", Gear: 1.0},
			{Name: "elbow_motor", Joint: "elbow", Gear: 1.0},
		},
	},
	"cartpole": {
		Name:     "cartpole",
		Timestep: 0.002,
		Bodies: []engine.BodySpec{
			{
				Name: "cart",
				Mass: 1.0,
				Joint: engine.JointSpec{
					Name:    "slider",
					Type:    "slide",
					Axis:    []float64{1, 0, 0},
					Damping: 0.05,
				},
			},
			{
				Name:   "pole",
				Parent: "cart",
				Mass:   0.1,
				IPos:   []float64{0, 0, -0.5},
				Joint: engine.JointSpec{
					Name:    "swing",
					Type:    "hinge",
					Axis:    []float64{0, 1, 0},
					Damping: 0.01,
				},
			},
		},
		Actuators: []engine.ActuatorSpec{
			{Name: "push", Joint: "slider", Gear: 10.0},
		},
	},
	"spring_mass": {
		Name:     "spring_mass",
		Timestep: 0.002,
		Bodies: []engine.BodySpec{
			{
				Name: "mass",
				Mass: 1.0,
				Joint: engine.JointSpec{
					Name:      "x",
					Type:      "slide",
					Axis:      []float64{1, 0, 0},
					Damping:   0.2,
					Stiffness: 10.0,
					Ref:       0.5,
				},
			},
		},
		Actuators: []engine.ActuatorSpec{
			{Name: "force", Joint: "x", Gear: 1.0},
		},
	},
}

// ModelPreset returns a copy of the named built-in spec, or false if
// no such preset exists.
func ModelPreset(name string) (engine.ModelSpec, bool) {
	spec, ok := presets[name]
	return spec, ok
}

// ListPresets returns the built-in model names in stable order.
func ListPresets() []string {
	return []string{"pendulum", "double_pendulum", "cartpole", "spring_mass"}
}
