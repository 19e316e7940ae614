// Package steering computes the per-tick flocking decision of a boid from the
// objects it senses.
//
// All forces are expressed in the agent's own frame: angle 0 is straight ahead,
// positive angles turn one way and negative angles the other, matching the sign
// convention of Percept.Bearing.
package steering

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// WeightedForce is a directional influence in the agent's forward/lateral frame.
// The zero value is the zero force. Its angle is arbitrary and must not be used.
type WeightedForce struct {
	v r2.Vec // X forward, Y lateral
}

// NewWeightedForce builds a force of the given weight pointing at angle.
func NewWeightedForce(weight, angle float64) WeightedForce {
	return WeightedForce{v: r2.Vec{
		X: weight * math.Cos(angle),
		Y: weight * math.Sin(angle),
	}}
}

// Weight returns the overall strength of the force.
func (f WeightedForce) Weight() float64 {
	return r2.Norm(f.v)
}

// Angle returns the direction of the force relative to heading, in (-π, π].
func (f WeightedForce) Angle() float64 {
	return NormalizeAngle(math.Atan2(f.v.Y, f.v.X))
}

// Components returns the forward and lateral components.
func (f WeightedForce) Components() (fx, fy float64) {
	return f.v.X, f.v.Y
}

// IsZero reports whether f is exactly the zero force.
func (f WeightedForce) IsZero() bool {
	return f.v.X == 0 && f.v.Y == 0
}

// AddIn accumulates other into f.
func (f *WeightedForce) AddIn(other WeightedForce) {
	f.v = r2.Add(f.v, other.v)
}

// Reweight scales f by factor.
func (f *WeightedForce) Reweight(factor float64) {
	f.v = r2.Scale(factor, f.v)
}

func (f WeightedForce) String() string {
	if f.IsZero() {
		return "0"
	}
	return fmt.Sprintf("%.3f@%.1f°", f.Weight(), f.Angle()*180/math.Pi)
}

// NormalizeAngle wraps a into (-π, π].
func NormalizeAngle(a float64) float64 {
	a = math.Remainder(a, 2*math.Pi)
	if a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}
