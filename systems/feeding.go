package systems

import (
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/flock/components"
	"github.com/pthm-cable/flock/steering"
)

// FeedingSystem lets boids consume the lights they touch.
type FeedingSystem struct {
	world  *ecs.World
	filter *ecs.Filter2[components.Position, components.Flocker]
	posMap *ecs.Map1[components.Position]
	body   *ecs.Map1[components.Body]
	grid   *SpatialGrid
	bounds Bounds

	contactRadius float64
	lightRadius   float64
	respawn       bool

	neighbors []Neighbor
	seen      map[ecs.Entity]bool
	eaten     []ecs.Entity // in contact order, keeps respawns reproducible
}

// NewFeedingSystem creates a feeding system. Boids within contactRadius of a
// light's surface consume it; consumed lights respawn at a random spot or are
// removed from the world.
func NewFeedingSystem(w *ecs.World, grid *SpatialGrid, bounds Bounds, contactRadius, lightRadius float64, respawn bool) *FeedingSystem {
	return &FeedingSystem{
		world:         w,
		filter:        ecs.NewFilter2[components.Position, components.Flocker](w),
		posMap:        ecs.NewMap1[components.Position](w),
		body:          ecs.NewMap1[components.Body](w),
		grid:          grid,
		bounds:        bounds,
		contactRadius: contactRadius,
		lightRadius:   lightRadius,
		respawn:       respawn,
		seen:          make(map[ecs.Entity]bool),
	}
}

// Update resolves contacts and returns how many lights were consumed.
// A light is consumed at most once per tick. The grid must be current.
func (s *FeedingSystem) Update(rng *rand.Rand) int {
	clear(s.seen)
	s.eaten = s.eaten[:0]

	query := s.filter.Query()
	for query.Next() {
		pos, _ := query.Get()
		s.neighbors = s.grid.QueryRadiusInto(s.neighbors[:0], pos.X, pos.Y, s.contactRadius+s.lightRadius, query.Entity(), s.posMap)
		for _, n := range s.neighbors {
			if s.seen[n.E] {
				continue
			}
			body := s.body.Get(n.E)
			if body == nil {
				continue
			}
			if steering.OnApproach(body.Kind.Category()) != steering.Attack {
				continue
			}
			if n.DistSq > sq(s.contactRadius+body.Radius) {
				continue
			}
			s.seen[n.E] = true
			s.eaten = append(s.eaten, n.E)
		}
	}

	for _, e := range s.eaten {
		if !s.respawn {
			s.world.RemoveEntity(e)
			continue
		}
		if p := s.posMap.Get(e); p != nil {
			p.X = rng.Float64() * s.bounds.Width
			p.Y = rng.Float64() * s.bounds.Height
		}
	}
	return len(s.eaten)
}

func sq(x float64) float64 { return x * x }
