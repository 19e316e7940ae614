// Package components defines ECS components for the simulation.
package components

import (
	"image/color"

	"github.com/pthm-cable/flock/config"
	"github.com/pthm-cable/flock/steering"
)

// Kind distinguishes the object types living in the world.
type Kind uint8

const (
	KindBoid Kind = iota
	KindObstacle
	KindPredator
	KindLight
)

func (k Kind) String() string {
	switch k {
	case KindBoid:
		return "boid"
	case KindObstacle:
		return "obstacle"
	case KindPredator:
		return "predator"
	case KindLight:
		return "light"
	default:
		return "unknown"
	}
}

// Category maps the kind onto the perception category seen by flockers.
func (k Kind) Category() steering.Category {
	switch k {
	case KindBoid:
		return steering.Boid
	case KindObstacle:
		return steering.Obstacle
	case KindPredator:
		return steering.Predator
	case KindLight:
		return steering.Light
	default:
		return steering.Other
	}
}

// Position represents an entity's world position.
type Position struct {
	X, Y float64
}

// Rotation holds an entity's heading in radians.
type Rotation struct {
	Heading float64
}

// Motion holds forward speed in world units per tick.
type Motion struct {
	Speed float64
}

// Body holds the physical shape of an entity.
type Body struct {
	Kind   Kind
	Radius float64
}

// Appearance is the color other agents sample when they see the entity.
type Appearance struct {
	Color color.RGBA
}

// Caps are the motion limits applied when integrating a decision.
type Caps struct {
	MaxSpeed float64
	MinSpeed float64
	MaxAccel float64
	MaxDecel float64
	MaxTurn  float64 // radians per tick
}

// CapsFromConfig builds boid motion limits from the agent section.
func CapsFromConfig(cfg *config.Config) Caps {
	return Caps{
		MaxSpeed: cfg.Agent.MaxSpeed,
		MinSpeed: cfg.Agent.MinSpeed,
		MaxAccel: cfg.Agent.MaxAccel,
		MaxDecel: cfg.Agent.MaxDecel,
		MaxTurn:  cfg.Derived.MaxTurnRad,
	}
}

// Flocker holds a boid's behavior and the record of its last decision.
type Flocker struct {
	ID       uint32
	Flock    int // index into config Flocks
	Behavior config.Behavior

	LastDecision steering.Decision
	LastForces   steering.Forces
	LastPercepts int
	NearestBoid  float64 // center distance to the closest boid in range, -1 if none
}

// Wanderer drives entities that drift along a noise field.
type Wanderer struct {
	Offset float64 // decorrelates entities sampling the same field
}
