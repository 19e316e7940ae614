package systems

import (
	"math"

	"github.com/mlange-42/ark/ecs"
	"github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/flock/components"
	"github.com/pthm-cable/flock/steering"
)

// DriftParams configures the wander of one kind of drifting entity.
type DriftParams struct {
	Speed      float64 // world units per tick
	MaxTurn    float64 // radians per tick
	NoiseScale float64 // field frequency in time
}

// DriftSystem moves predators and lights along headings drawn from a smooth
// noise field, so that they wander without any steering of their own.
type DriftSystem struct {
	filter *ecs.Filter4[components.Position, components.Rotation, components.Body, components.Wanderer]
	noise  opensimplex.Noise
	params map[components.Kind]DriftParams
	bounds Bounds
}

// NewDriftSystem creates a drift system seeded for reproducible runs.
func NewDriftSystem(w *ecs.World, seed int64, bounds Bounds, params map[components.Kind]DriftParams) *DriftSystem {
	return &DriftSystem{
		filter: ecs.NewFilter4[components.Position, components.Rotation, components.Body, components.Wanderer](w),
		noise:  opensimplex.NewNormalized(seed),
		params: params,
		bounds: bounds,
	}
}

// Update advances every wanderer one tick.
func (s *DriftSystem) Update(tick int32) {
	query := s.filter.Query()
	for query.Next() {
		pos, rot, body, wander := query.Get()
		p, ok := s.params[body.Kind]
		if !ok {
			continue
		}
		target := s.TargetHeading(wander.Offset, tick, p.NoiseScale)
		turn := steering.NormalizeAngle(target - rot.Heading)
		turn = clamp(turn, -p.MaxTurn, p.MaxTurn)
		rot.Heading = steering.NormalizeAngle(rot.Heading + turn)
		Advance(pos, rot.Heading, p.Speed, s.bounds)
	}
}

// TargetHeading samples the field for an entity at a tick. The normalized noise
// in [0, 1] spans two full turns so that the heading keeps circling.
func (s *DriftSystem) TargetHeading(offset float64, tick int32, scale float64) float64 {
	n := s.noise.Eval2(offset, float64(tick)*scale)
	return steering.NormalizeAngle(n * 4 * math.Pi)
}
