package systems

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/flock/components"
	"github.com/pthm-cable/flock/steering"
)

// Bounds represents the simulation bounds. The world wraps on both axes.
type Bounds struct {
	Width, Height float64
}

// MotionSystem integrates each boid's last decision into heading, speed and position.
type MotionSystem struct {
	filter *ecs.Filter5[components.Position, components.Rotation, components.Motion, components.Caps, components.Flocker]
	bounds Bounds
}

// NewMotionSystem creates a new motion system.
func NewMotionSystem(w *ecs.World, bounds Bounds) *MotionSystem {
	return &MotionSystem{
		filter: ecs.NewFilter5[components.Position, components.Rotation, components.Motion, components.Caps, components.Flocker](w),
		bounds: bounds,
	}
}

// Update moves every boid one tick.
func (s *MotionSystem) Update() {
	query := s.filter.Query()
	for query.Next() {
		pos, rot, motion, caps, flocker := query.Get()
		Integrate(pos, rot, motion, *caps, flocker.LastDecision, s.bounds)
	}
}

// Integrate applies a decision under the given limits.
// The turn is clamped to ±MaxTurn, the speed change to [-MaxDecel, MaxAccel]
// and the resulting speed to [MinSpeed, MaxSpeed].
func Integrate(pos *components.Position, rot *components.Rotation, motion *components.Motion, caps components.Caps, d steering.Decision, bounds Bounds) {
	turn := clamp(d.Turn, -caps.MaxTurn, caps.MaxTurn)
	rot.Heading = steering.NormalizeAngle(rot.Heading + turn)

	dv := clamp(d.Speed, -caps.MaxDecel, caps.MaxAccel)
	motion.Speed = clamp(motion.Speed+dv, caps.MinSpeed, caps.MaxSpeed)

	Advance(pos, rot.Heading, motion.Speed, bounds)
}

// Advance moves pos along heading and wraps it into bounds.
func Advance(pos *components.Position, heading, speed float64, bounds Bounds) {
	pos.X = Wrap(pos.X+math.Cos(heading)*speed, bounds.Width)
	pos.Y = Wrap(pos.Y+math.Sin(heading)*speed, bounds.Height)
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
