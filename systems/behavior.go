package systems

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/flock/components"
	"github.com/pthm-cable/flock/config"
	"github.com/pthm-cable/flock/steering"
)

// flockerSnapshot captures read-only state for parallel processing.
type flockerSnapshot struct {
	Entity   ecs.Entity
	Pos      components.Position
	Heading  float64
	Speed    float64
	MaxSpeed float64
	Behavior config.Behavior
}

// flockerResult captures computed outputs to apply after the parallel phase.
type flockerResult struct {
	Decision    steering.Decision
	Forces      steering.Forces
	Percepts    int
	NearestBoid float64
}

// workerScratch holds per-worker reusable buffers.
type workerScratch struct {
	Neighbors []Neighbor
	Percepts  []steering.Percept
}

// BehaviorSystem runs the steering decision of every boid.
//
// Each tick is three phases: snapshot boid state, decide for every snapshot
// (possibly in parallel, reading only the spatial grid and components), then
// write decisions back in snapshot order.
type BehaviorSystem struct {
	filter     *ecs.Filter5[components.Position, components.Rotation, components.Motion, components.Caps, components.Flocker]
	flockerMap *ecs.Map1[components.Flocker]
	posMap     *ecs.Map1[components.Position]
	bodyMap    *ecs.Map1[components.Body]

	grid       *SpatialGrid
	perception *PerceptionSystem
	pool       *WorkerPool
	reach      float64 // largest body radius, added to the query radius

	snapshots []flockerSnapshot
	results   []flockerResult
	scratches []workerScratch
}

// NewBehaviorSystem creates a behavior system. reach is the largest body radius
// in the world, so that surfaces within detection range are never missed.
func NewBehaviorSystem(w *ecs.World, grid *SpatialGrid, pool *WorkerPool, reach float64) *BehaviorSystem {
	scratches := make([]workerScratch, pool.Workers())
	for i := range scratches {
		scratches[i].Neighbors = make([]Neighbor, 0, 64)
		scratches[i].Percepts = make([]steering.Percept, 0, 64)
	}
	return &BehaviorSystem{
		filter:     ecs.NewFilter5[components.Position, components.Rotation, components.Motion, components.Caps, components.Flocker](w),
		flockerMap: ecs.NewMap1[components.Flocker](w),
		posMap:     ecs.NewMap1[components.Position](w),
		bodyMap:    ecs.NewMap1[components.Body](w),
		grid:       grid,
		perception: NewPerceptionSystem(w),
		pool:       pool,
		reach:      reach,
		snapshots:  make([]flockerSnapshot, 0, 256),
		results:    make([]flockerResult, 0, 256),
		scratches:  scratches,
	}
}

// Update decides every boid's turn and speed change for this tick.
// It returns the number of boids processed.
func (s *BehaviorSystem) Update() int {
	// Phase A: snapshots
	s.snapshots = s.snapshots[:0]
	query := s.filter.Query()
	for query.Next() {
		pos, rot, motion, caps, flocker := query.Get()
		s.snapshots = append(s.snapshots, flockerSnapshot{
			Entity:   query.Entity(),
			Pos:      *pos,
			Heading:  rot.Heading,
			Speed:    motion.Speed,
			MaxSpeed: caps.MaxSpeed,
			Behavior: flocker.Behavior,
		})
	}

	n := len(s.snapshots)
	if cap(s.results) < n {
		s.results = make([]flockerResult, n)
	}
	s.results = s.results[:n]

	// Phase B: decide
	s.pool.Run(n, s.computeChunk)

	// Phase C: apply in snapshot order
	for i, snap := range s.snapshots {
		f := s.flockerMap.Get(snap.Entity)
		if f == nil {
			continue
		}
		r := &s.results[i]
		f.LastDecision = r.Decision
		f.LastForces = r.Forces
		f.LastPercepts = r.Percepts
		f.NearestBoid = r.NearestBoid
	}
	return n
}

// computeChunk processes a range of snapshots for a single worker.
func (s *BehaviorSystem) computeChunk(start, end, worker int) {
	scratch := &s.scratches[worker]
	for i := start; i < end; i++ {
		snap := &s.snapshots[i]
		radius := snap.Behavior.DetectionDistance + s.reach

		scratch.Neighbors = s.grid.QueryRadiusInto(
			scratch.Neighbors[:0],
			snap.Pos.X, snap.Pos.Y, radius,
			snap.Entity, s.posMap,
		)
		scratch.Percepts = s.perception.Sense(scratch.Percepts[:0], snap.Heading, scratch.Neighbors)

		decision, forces := steering.Decide(scratch.Percepts, snap.Behavior, steering.Motion{
			ForwardSpeed:    snap.Speed,
			MaxForwardSpeed: snap.MaxSpeed,
		})

		s.results[i] = flockerResult{
			Decision:    decision,
			Forces:      forces,
			Percepts:    len(scratch.Percepts),
			NearestBoid: s.nearestBoid(scratch.Neighbors),
		}
	}
}

func (s *BehaviorSystem) nearestBoid(neighbors []Neighbor) float64 {
	best := math.Inf(1)
	for _, n := range neighbors {
		body := s.bodyMap.Get(n.E)
		if body == nil || body.Kind != components.KindBoid {
			continue
		}
		best = math.Min(best, n.DistSq)
	}
	if math.IsInf(best, 1) {
		return -1
	}
	return math.Sqrt(best)
}
