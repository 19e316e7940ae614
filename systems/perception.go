package systems

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/flock/components"
	"github.com/pthm-cable/flock/steering"
)

// PerceptionSystem turns spatial neighbors into percepts in the viewer's frame.
// It only reads components, so one instance is shared by all workers.
type PerceptionSystem struct {
	bodyMap *ecs.Map1[components.Body]
	rotMap  *ecs.Map1[components.Rotation]
	appMap  *ecs.Map1[components.Appearance]
}

// NewPerceptionSystem creates a perception system reading from w.
func NewPerceptionSystem(w *ecs.World) *PerceptionSystem {
	return &PerceptionSystem{
		bodyMap: ecs.NewMap1[components.Body](w),
		rotMap:  ecs.NewMap1[components.Rotation](w),
		appMap:  ecs.NewMap1[components.Appearance](w),
	}
}

// Sense appends one percept per neighbor to dst. heading is the viewer's
// heading; neighbors come from a SpatialGrid query centered on the viewer.
func (s *PerceptionSystem) Sense(dst []steering.Percept, heading float64, neighbors []Neighbor) []steering.Percept {
	for _, n := range neighbors {
		body := s.bodyMap.Get(n.E)
		if body == nil {
			continue
		}
		var other float64
		if rot := s.rotMap.Get(n.E); rot != nil {
			other = rot.Heading
		}
		var app components.Appearance
		if a := s.appMap.Get(n.E); a != nil {
			app = *a
		}
		dst = append(dst, MakePercept(n, heading, *body, other, app))
	}
	return dst
}

// MakePercept builds the percept of one neighbor.
//
// Distance is measured to the neighbor's surface and never negative. Bearing is
// the direction to the neighbor relative to the viewer's heading. Orientation is
// the neighbor's heading expressed in the viewer's frame, so that headings and
// bearings share angle 0 = straight ahead.
func MakePercept(n Neighbor, heading float64, body components.Body, otherHeading float64, app components.Appearance) steering.Percept {
	dist := math.Max(math.Sqrt(n.DistSq)-body.Radius, 0)

	var bearing float64
	if n.DX != 0 || n.DY != 0 {
		bearing = steering.NormalizeAngle(math.Atan2(n.DY, n.DX) - heading)
	}

	return steering.Percept{
		Category:    body.Kind.Category(),
		Distance:    dist,
		Bearing:     bearing,
		Orientation: steering.NormalizeAngle(otherHeading - heading),
		Color:       app.Color,
	}
}
