package main

import (
	"github.com/pthm-cable/flock/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters, seeded
// with the defaults of base.
func NewParamVector(base config.Behavior) *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "obstacle_weight", Path: "flocking.obstacle_weight", Min: 0, Max: 10, Default: base.ObstacleWeight},
			{Name: "separation_weight", Path: "flocking.separation_weight", Min: 0, Max: 10, Default: base.SeparationWeight},
			{Name: "alignment_weight", Path: "flocking.alignment_weight", Min: 0, Max: 20, Default: base.AlignmentWeight},
			{Name: "centering_weight", Path: "flocking.centering_weight", Min: 0, Max: 20, Default: base.CenteringWeight},
			{Name: "light_weight", Path: "flocking.light_weight", Min: 0, Max: 20, Default: base.LightWeight},
			{Name: "separation_distance", Path: "flocking.separation_distance", Min: 10, Max: 120, Default: base.SeparationDistance},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// Overrides converts parameter values into flocking overrides.
// Order must match Specs order.
func (pv *ParamVector) Overrides(values []float64) config.BehaviorOverrides {
	c := pv.Clamp(values)
	return config.BehaviorOverrides{
		ObstacleWeight:     &c[0],
		SeparationWeight:   &c[1],
		AlignmentWeight:    &c[2],
		CenteringWeight:    &c[3],
		LightWeight:        &c[4],
		SeparationDistance: &c[5],
	}
}

// ApplyToConfig merges parameter values into the flocking section of cfg and
// refreshes its derived values. Flock-specific overrides still take precedence.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) error {
	o := pv.Overrides(values)
	f := &cfg.Flocking
	f.ObstacleWeight = o.ObstacleWeight
	f.SeparationWeight = o.SeparationWeight
	f.AlignmentWeight = o.AlignmentWeight
	f.CenteringWeight = o.CenteringWeight
	f.LightWeight = o.LightWeight
	f.SeparationDistance = o.SeparationDistance
	return cfg.Recompute()
}

// evalRow is one line of the evaluation log.
type evalRow struct {
	Eval         int     `csv:"eval"`
	Fitness      float64 `csv:"fitness"`
	Polarization float64 `csv:"polarization"`
	Cohesion     float64 `csv:"cohesion"`

	ObstacleWeight     float64 `csv:"obstacle_weight"`
	SeparationWeight   float64 `csv:"separation_weight"`
	AlignmentWeight    float64 `csv:"alignment_weight"`
	CenteringWeight    float64 `csv:"centering_weight"`
	LightWeight        float64 `csv:"light_weight"`
	SeparationDistance float64 `csv:"separation_distance"`
}

// newEvalRow builds a log row from clamped parameter values.
func newEvalRow(eval int, fitness float64, q quality, clamped []float64) evalRow {
	return evalRow{
		Eval:               eval,
		Fitness:            fitness,
		Polarization:       q.Polarization,
		Cohesion:           q.Cohesion,
		ObstacleWeight:     clamped[0],
		SeparationWeight:   clamped[1],
		AlignmentWeight:    clamped[2],
		CenteringWeight:    clamped[3],
		LightWeight:        clamped[4],
		SeparationDistance: clamped[5],
	}
}
