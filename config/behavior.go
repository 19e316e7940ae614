package config

import (
	"errors"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

const (
	degToRad = math.Pi / 180
	radToDeg = 180 / math.Pi
)

// Behavior holds the flocking parameters of one agent.
// Values are immutable once built: derive new ones with MergeBehavior or Update.
// ClearanceCone is in radians and normalized into [0, 2π).
type Behavior struct {
	AvoidsObstacles     bool
	AvoidsCollisions    bool
	AlignsWithNeighbors bool
	DoesCentering       bool
	FollowsLight        bool

	ClearanceDistance  float64 // how close an obstacle must be before collision is a worry
	ClearanceCone      float64 // half-width of the danger cone ahead, radians
	SeparationDistance float64 // neighbors closer than this are pushed away
	DetectionDistance  float64 // attention range for neighbors and lights

	ObstacleWeight   float64
	SeparationWeight float64
	AlignmentWeight  float64
	CenteringWeight  float64
	LightWeight      float64
}

// BehaviorOverrides is the wire form of Behavior. Nil fields are unspecified and
// fall back to defaults when merged. The cone is expressed in degrees.
type BehaviorOverrides struct {
	AvoidsObstacles     *bool `yaml:"avoids_obstacles,omitempty"`
	AvoidsCollisions    *bool `yaml:"avoids_collisions,omitempty"`
	AlignsWithNeighbors *bool `yaml:"aligns_with_neighbors,omitempty"`
	DoesCentering       *bool `yaml:"does_centering,omitempty"`
	FollowsLight        *bool `yaml:"follows_light,omitempty"`

	ClearanceDistance  *float64 `yaml:"clearance_distance,omitempty"`
	ClearanceConeDeg   *float64 `yaml:"clearance_cone,omitempty"`
	SeparationDistance *float64 `yaml:"separation_distance,omitempty"`
	DetectionDistance  *float64 `yaml:"detection_distance,omitempty"`

	ObstacleWeight   *float64 `yaml:"obstacle_weight,omitempty"`
	SeparationWeight *float64 `yaml:"separation_weight,omitempty"`
	AlignmentWeight  *float64 `yaml:"alignment_weight,omitempty"`
	CenteringWeight  *float64 `yaml:"centering_weight,omitempty"`
	LightWeight      *float64 `yaml:"light_weight,omitempty"`
}

// DefaultBehavior returns the built-in flocker defaults.
func DefaultBehavior() Behavior {
	return Behavior{
		AvoidsObstacles:     true,
		AvoidsCollisions:    true,
		AlignsWithNeighbors: true,
		DoesCentering:       true,
		FollowsLight:        true,
		ClearanceDistance:   140,
		ClearanceCone:       60 * degToRad,
		SeparationDistance:  50,
		DetectionDistance:   250,
		ObstacleWeight:      2,
		SeparationWeight:    2,
		AlignmentWeight:     5,
		CenteringWeight:     10,
		LightWeight:         5,
	}
}

// MergeBehavior builds a Behavior from defaults with every specified override applied.
func MergeBehavior(o BehaviorOverrides, defaults Behavior) Behavior {
	b := defaults

	pickBool(&b.AvoidsObstacles, o.AvoidsObstacles)
	pickBool(&b.AvoidsCollisions, o.AvoidsCollisions)
	pickBool(&b.AlignsWithNeighbors, o.AlignsWithNeighbors)
	pickBool(&b.DoesCentering, o.DoesCentering)
	pickBool(&b.FollowsLight, o.FollowsLight)

	pickFloat(&b.ClearanceDistance, o.ClearanceDistance)
	if o.ClearanceConeDeg != nil {
		b.ClearanceCone = *o.ClearanceConeDeg * degToRad
	}
	b.ClearanceCone = NormalizeCone(b.ClearanceCone)
	pickFloat(&b.SeparationDistance, o.SeparationDistance)
	pickFloat(&b.DetectionDistance, o.DetectionDistance)

	pickFloat(&b.ObstacleWeight, o.ObstacleWeight)
	pickFloat(&b.SeparationWeight, o.SeparationWeight)
	pickFloat(&b.AlignmentWeight, o.AlignmentWeight)
	pickFloat(&b.CenteringWeight, o.CenteringWeight)
	pickFloat(&b.LightWeight, o.LightWeight)

	return b
}

// Update returns a copy of b with the overrides applied. b is left untouched.
func (b Behavior) Update(o BehaviorOverrides) Behavior {
	return MergeBehavior(o, b)
}

// Overrides returns a fully populated wire form of b, suitable for persistence.
// MergeBehavior(b.Overrides(), anything) reproduces b.
func (b Behavior) Overrides() BehaviorOverrides {
	cone := b.ClearanceCone * radToDeg
	return BehaviorOverrides{
		AvoidsObstacles:     ptr(b.AvoidsObstacles),
		AvoidsCollisions:    ptr(b.AvoidsCollisions),
		AlignsWithNeighbors: ptr(b.AlignsWithNeighbors),
		DoesCentering:       ptr(b.DoesCentering),
		FollowsLight:        ptr(b.FollowsLight),
		ClearanceDistance:   ptr(b.ClearanceDistance),
		ClearanceConeDeg:    &cone,
		SeparationDistance:  ptr(b.SeparationDistance),
		DetectionDistance:   ptr(b.DetectionDistance),
		ObstacleWeight:      ptr(b.ObstacleWeight),
		SeparationWeight:    ptr(b.SeparationWeight),
		AlignmentWeight:     ptr(b.AlignmentWeight),
		CenteringWeight:     ptr(b.CenteringWeight),
		LightWeight:         ptr(b.LightWeight),
	}
}

// Validate reports distances that are negative and any non-finite value.
func (b Behavior) Validate() error {
	var errs []error
	check := func(name string, v float64, nonNegative bool) {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			errs = append(errs, fmt.Errorf("%s: not a finite number", name))
			return
		}
		if nonNegative && v < 0 {
			errs = append(errs, fmt.Errorf("%s: must be >= 0, got %g", name, v))
		}
	}
	check("clearance_distance", b.ClearanceDistance, true)
	check("clearance_cone", b.ClearanceCone, true)
	check("separation_distance", b.SeparationDistance, true)
	check("detection_distance", b.DetectionDistance, true)
	check("obstacle_weight", b.ObstacleWeight, false)
	check("separation_weight", b.SeparationWeight, false)
	check("alignment_weight", b.AlignmentWeight, false)
	check("centering_weight", b.CenteringWeight, false)
	check("light_weight", b.LightWeight, false)
	return errors.Join(errs...)
}

// MarshalYAML writes the behavior in its wire form.
func (b Behavior) MarshalYAML() (interface{}, error) {
	return b.Overrides(), nil
}

// UnmarshalYAML reads a wire form, filling unspecified fields from DefaultBehavior.
func (b *Behavior) UnmarshalYAML(value *yaml.Node) error {
	var o BehaviorOverrides
	if err := value.Decode(&o); err != nil {
		return err
	}
	*b = MergeBehavior(o, DefaultBehavior())
	return nil
}

// NormalizeCone wraps an angle in radians into [0, 2π).
func NormalizeCone(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	if a >= 2*math.Pi {
		a = 0
	}
	return a
}

func pickBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func pickFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func ptr[T any](v T) *T {
	return &v
}
