package steering

import "image/color"

// Category identifies what kind of object a percept describes.
type Category uint8

const (
	Boid Category = iota
	Obstacle
	Predator
	Light
	Other
)

func (c Category) String() string {
	switch c {
	case Boid:
		return "boid"
	case Obstacle:
		return "obstacle"
	case Predator:
		return "predator"
	case Light:
		return "light"
	case Other:
		return "other"
	}
	return "unknown"
}

// Percept is one object sensed by an agent during the current tick.
type Percept struct {
	Category    Category
	Distance    float64    // >= 0
	Bearing     float64    // relative to the sensing agent's heading, (-π, π]
	Orientation float64    // heading of the object in the sensing agent's frame, boids only
	Color       color.RGBA // sampled color of the object
}

// Interaction is what an agent does when it comes into contact with an object.
type Interaction uint8

const (
	Coexist Interaction = iota
	Attack
)

func (i Interaction) String() string {
	if i == Attack {
		return "attack"
	}
	return "coexist"
}

// OnApproach returns how a flocker reacts on contact: it eats lights and
// coexists with everything else.
func OnApproach(c Category) Interaction {
	if c == Light {
		return Attack
	}
	return Coexist
}
