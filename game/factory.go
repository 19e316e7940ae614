package game

import (
	"image/color"
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/flock/components"
)

// lightRadius is the body radius of a light source.
const lightRadius = 4

var obstacleColor = color.RGBA{R: 90, G: 90, B: 100, A: 255}

// spawnInitialPopulation creates the starting entities: obstacles first, then
// every flock in config order, then predators and lights.
func (s *Simulation) spawnInitialPopulation() {
	pop := s.cfg.Population

	for i := 0; i < pop.Obstacles; i++ {
		x, y := s.randomPoint()
		s.spawnObstacle(x, y)
	}

	for fi, flock := range s.cfg.Flocks {
		for i := 0; i < flock.Count; i++ {
			x, y := s.randomPoint()
			s.spawnBoid(x, y, s.rng.Float64()*2*math.Pi, fi)
		}
	}

	for i := 0; i < pop.Predators; i++ {
		x, y := s.randomPoint()
		s.spawnDrifter(x, y, components.KindPredator)
	}
	for i := 0; i < pop.Lights; i++ {
		x, y := s.randomPoint()
		s.spawnDrifter(x, y, components.KindLight)
	}
}

func (s *Simulation) randomPoint() (x, y float64) {
	return s.rng.Float64() * s.bounds.Width, s.rng.Float64() * s.bounds.Height
}

// spawnBoid creates a boid of the given flock with the flock's live behavior.
func (s *Simulation) spawnBoid(x, y, heading float64, flock int) ecs.Entity {
	id := s.nextID
	s.nextID++

	caps := components.CapsFromConfig(s.cfg)
	pos := components.Position{X: x, Y: y}
	rot := components.Rotation{Heading: heading}
	motion := components.Motion{Speed: caps.MinSpeed + s.rng.Float64()*(caps.MaxSpeed-caps.MinSpeed)}
	body := components.Body{Kind: components.KindBoid, Radius: s.cfg.Agent.Size / 2}
	app := components.Appearance{Color: s.cfg.Flocks[flock].Color.RGBA()}
	flocker := components.Flocker{
		ID:          id,
		Flock:       flock,
		Behavior:    s.behaviors[flock],
		NearestBoid: -1,
	}

	return s.boidMapper.NewEntity(&pos, &rot, &motion, &body, &app, &caps, &flocker)
}

// spawnObstacle creates a static obstacle.
func (s *Simulation) spawnObstacle(x, y float64) ecs.Entity {
	pos := components.Position{X: x, Y: y}
	rot := components.Rotation{}
	body := components.Body{Kind: components.KindObstacle, Radius: s.cfg.Population.ObstacleRadius}
	app := components.Appearance{Color: obstacleColor}
	return s.obstacleMapper.NewEntity(&pos, &rot, &body, &app)
}

// spawnDrifter creates a predator or a light.
func (s *Simulation) spawnDrifter(x, y float64, kind components.Kind) ecs.Entity {
	pos := components.Position{X: x, Y: y}
	rot := components.Rotation{Heading: s.rng.Float64() * 2 * math.Pi}
	wander := components.Wanderer{Offset: s.rng.Float64() * 1000}

	var motion components.Motion
	var body components.Body
	var app components.Appearance
	switch kind {
	case components.KindPredator:
		motion.Speed = s.cfg.Predator.Speed
		body = components.Body{Kind: kind, Radius: s.predatorRadius()}
		app.Color = s.cfg.Predator.Color.RGBA()
	default:
		motion.Speed = s.cfg.Lights.DriftSpeed
		body = components.Body{Kind: kind, Radius: lightRadius}
		app.Color = s.cfg.Lights.Color.RGBA()
	}

	return s.drifterMapper.NewEntity(&pos, &rot, &motion, &body, &app, &wander)
}

func (s *Simulation) predatorRadius() float64 {
	return s.cfg.Agent.Size
}

// maxRadius is the largest body radius in the world.
func (s *Simulation) maxRadius() float64 {
	return max(s.cfg.Agent.Size/2, s.predatorRadius(), s.cfg.Population.ObstacleRadius, lightRadius)
}
