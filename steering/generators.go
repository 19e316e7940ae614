package steering

import (
	"math"

	"github.com/pthm-cable/flock/config"
)

// MinPerceptDistance floors the distance used in inverse-distance weights, so a
// percept sitting on top of the agent saturates instead of producing +Inf.
const MinPerceptDistance = 1e-3

// AffinityGreen is the green channel value that marks a color-affinity attractor.
const AffinityGreen = 254

// affinityScale multiplies the obstacle weight for color-affinity pulls.
const affinityScale = 5

// Generator computes one behavior's desired push from the tick's percepts.
type Generator func(ps []Percept, b config.Behavior) WeightedForce

func effectiveDistance(d float64) float64 {
	return math.Max(d, MinPerceptDistance)
}

// isClearanceThreat admits obstacles and predators inside the danger cone.
func isClearanceThreat(p Percept, b config.Behavior) bool {
	switch p.Category {
	case Obstacle, Predator:
	default:
		return false
	}
	if p.Distance >= b.DetectionDistance {
		return false
	}
	return p.Bearing >= -b.ClearanceCone && p.Bearing <= b.ClearanceCone
}

// isTooClose admits boids inside the separation distance.
func isTooClose(p Percept, b config.Behavior) bool {
	switch p.Category {
	case Boid:
		return p.Distance < b.SeparationDistance
	default:
		return false
	}
}

// inFlockBand admits boids between the separation and detection distances.
// Alignment and centering act on this same neighbor set.
func inFlockBand(p Percept, b config.Behavior) bool {
	switch p.Category {
	case Boid:
		return p.Distance > b.SeparationDistance && p.Distance < b.DetectionDistance
	default:
		return false
	}
}

// IsTarget reports whether p is a light the agent would chase.
func IsTarget(p Percept, b config.Behavior) bool {
	switch p.Category {
	case Light:
		return p.Distance < b.DetectionDistance
	default:
		return false
	}
}

func hasAffinityColor(p Percept) bool {
	return p.Color.G == AffinityGreen
}

// MaintainClearance steers toward the edge of the clearance cone opposite each
// threat. Threats straight ahead or to the negative side push toward +cone.
func MaintainClearance(ps []Percept, b config.Behavior) WeightedForce {
	var f WeightedForce
	for _, p := range ps {
		if !isClearanceThreat(p, b) {
			continue
		}
		angle := -b.ClearanceCone
		if p.Bearing <= 0 {
			angle = b.ClearanceCone
		}
		w := b.ObstacleWeight * (b.ClearanceDistance / effectiveDistance(p.Distance))
		f.AddIn(NewWeightedForce(w, angle))
	}
	return f
}

// SeparateFromNeighbors pushes directly away from every boid that is too close,
// harder the closer it is.
func SeparateFromNeighbors(ps []Percept, b config.Behavior) WeightedForce {
	var f WeightedForce
	for _, p := range ps {
		if !isTooClose(p, b) {
			continue
		}
		w := b.SeparationWeight * (b.SeparationDistance / effectiveDistance(p.Distance))
		f.AddIn(NewWeightedForce(w, -p.Bearing))
	}
	return f
}

// AlignWithNeighbors averages the orientations of neighbors in the flock band.
func AlignWithNeighbors(ps []Percept, b config.Behavior) WeightedForce {
	var f WeightedForce
	n := 0
	for _, p := range ps {
		if !inFlockBand(p, b) {
			continue
		}
		n++
		f.AddIn(NewWeightedForce(b.AlignmentWeight, p.Orientation))
	}
	if n > 0 {
		f.Reweight(1 / float64(n))
	}
	return f
}

// CenterOnNeighbors averages the bearings to neighbors in the flock band.
func CenterOnNeighbors(ps []Percept, b config.Behavior) WeightedForce {
	var f WeightedForce
	n := 0
	for _, p := range ps {
		if !inFlockBand(p, b) {
			continue
		}
		n++
		f.AddIn(NewWeightedForce(b.CenteringWeight, p.Bearing))
	}
	if n > 0 {
		f.Reweight(1 / float64(n))
	}
	return f
}

// NearestTarget returns the closest light within detection distance.
func NearestTarget(ps []Percept, b config.Behavior) (Percept, bool) {
	var best Percept
	found := false
	for _, p := range ps {
		if !IsTarget(p, b) {
			continue
		}
		if !found || p.Distance < best.Distance {
			best = p
			found = true
		}
	}
	return best, found
}

// FollowLight pulls toward the nearest light only.
func FollowLight(ps []Percept, b config.Behavior) WeightedForce {
	p, ok := NearestTarget(ps, b)
	if !ok {
		return WeightedForce{}
	}
	w := b.LightWeight * (b.DetectionDistance / effectiveDistance(p.Distance))
	return NewWeightedForce(w, p.Bearing)
}

// ColorAffinity pulls toward every object showing the affinity green,
// whatever its category. It ignores the behavior flags.
func ColorAffinity(ps []Percept, b config.Behavior) WeightedForce {
	var f WeightedForce
	for _, p := range ps {
		if !hasAffinityColor(p) {
			continue
		}
		w := affinityScale * b.ObstacleWeight * (b.DetectionDistance / effectiveDistance(p.Distance))
		f.AddIn(NewWeightedForce(w, p.Bearing))
	}
	return f
}
