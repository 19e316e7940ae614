// Package game hosts the flocking decision engine in a headless ECS world.
package game

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/flock/components"
	"github.com/pthm-cable/flock/config"
	"github.com/pthm-cable/flock/store"
	"github.com/pthm-cable/flock/systems"
	"github.com/pthm-cable/flock/telemetry"
)

// perfWindow is the number of ticks averaged by the perf collector.
const perfWindow = 120

// Options configures a simulation.
type Options struct {
	Seed          int64
	Config        *config.Config // nil uses the embedded defaults
	Workers       int            // behavior workers, 0 = GOMAXPROCS
	LogStats      bool           // print a summary and log stats every window
	OutputDir     string         // CSV output directory, empty = off
	DBPath        string         // SQLite run archive, empty = off
	StatsCallback func(telemetry.WindowStats)
}

// Simulation holds the complete world state.
type Simulation struct {
	cfg    *config.Config
	world  *ecs.World
	rng    *rand.Rand
	seed   int64
	bounds systems.Bounds

	boidMapper *ecs.Map7[
		components.Position,
		components.Rotation,
		components.Motion,
		components.Body,
		components.Appearance,
		components.Caps,
		components.Flocker,
	]
	drifterMapper *ecs.Map6[
		components.Position,
		components.Rotation,
		components.Motion,
		components.Body,
		components.Appearance,
		components.Wanderer,
	]
	obstacleMapper *ecs.Map4[
		components.Position,
		components.Rotation,
		components.Body,
		components.Appearance,
	]

	posFilter     *ecs.Filter1[components.Position]
	flockerFilter *ecs.Filter2[components.Rotation, components.Flocker]
	bodyFilter    *ecs.Filter1[components.Body]

	// Systems
	grid     *systems.SpatialGrid
	pool     *systems.WorkerPool
	behavior *systems.BehaviorSystem
	motion   *systems.MotionSystem
	drift    *systems.DriftSystem
	feeding  *systems.FeedingSystem

	// Telemetry
	collector     *telemetry.Collector
	perf          *telemetry.PerfCollector
	output        *telemetry.OutputManager
	db            *store.DB
	runID         string
	statsCallback func(telemetry.WindowStats)
	logStats      bool
	lastStats     telemetry.WindowStats

	// Live behavior per flock, same order as cfg.Flocks
	behaviors []config.Behavior

	tick   int32
	nextID uint32
}

// NewSimulation builds a world from the options and spawns the initial population.
func NewSimulation(opts Options) (*Simulation, error) {
	cfg := opts.Config
	if cfg == nil {
		var err error
		if cfg, err = config.Load(""); err != nil {
			return nil, err
		}
	}

	world := ecs.NewWorld()
	bounds := systems.Bounds{Width: cfg.World.Width, Height: cfg.World.Height}

	s := &Simulation{
		cfg:    cfg,
		world:  world,
		rng:    rand.New(rand.NewSource(opts.Seed)),
		seed:   opts.Seed,
		bounds: bounds,
		boidMapper: ecs.NewMap7[
			components.Position,
			components.Rotation,
			components.Motion,
			components.Body,
			components.Appearance,
			components.Caps,
			components.Flocker,
		](world),
		drifterMapper: ecs.NewMap6[
			components.Position,
			components.Rotation,
			components.Motion,
			components.Body,
			components.Appearance,
			components.Wanderer,
		](world),
		obstacleMapper: ecs.NewMap4[
			components.Position,
			components.Rotation,
			components.Body,
			components.Appearance,
		](world),
		posFilter:     ecs.NewFilter1[components.Position](world),
		flockerFilter: ecs.NewFilter2[components.Rotation, components.Flocker](world),
		bodyFilter:    ecs.NewFilter1[components.Body](world),
		statsCallback: opts.StatsCallback,
		logStats:      opts.LogStats,
		behaviors:     append([]config.Behavior(nil), cfg.Derived.FlockBehaviors...),
	}

	s.grid = systems.NewSpatialGrid(bounds.Width, bounds.Height, cfg.Physics.GridCellSize)
	s.pool = systems.NewWorkerPool(opts.Workers)
	s.behavior = systems.NewBehaviorSystem(world, s.grid, s.pool, s.maxRadius())
	s.motion = systems.NewMotionSystem(world, bounds)
	s.drift = systems.NewDriftSystem(world, opts.Seed, bounds, map[components.Kind]systems.DriftParams{
		components.KindPredator: {
			Speed:      cfg.Predator.Speed,
			MaxTurn:    cfg.Derived.PredatorTurnRad,
			NoiseScale: cfg.Predator.NoiseScale,
		},
		components.KindLight: {
			Speed:      cfg.Lights.DriftSpeed,
			MaxTurn:    cfg.Derived.LightTurnRad,
			NoiseScale: cfg.Lights.NoiseScale,
		},
	})
	s.feeding = systems.NewFeedingSystem(world, s.grid, bounds, cfg.Lights.ContactRadius, lightRadius, cfg.Lights.Respawn)

	s.collector = telemetry.NewCollector(cfg.Telemetry.StatsWindow, cfg.Physics.DT)
	s.perf = telemetry.NewPerfCollector(perfWindow)

	if err := s.openOutputs(opts); err != nil {
		s.Close()
		return nil, err
	}

	s.spawnInitialPopulation()

	slog.Info("simulation created",
		"seed", opts.Seed,
		"boids", cfg.Derived.TotalBoids,
		"flocks", len(cfg.Flocks),
		"workers", s.pool.Workers(),
	)
	return s, nil
}

// openOutputs sets up the CSV output directory and the run archive.
func (s *Simulation) openOutputs(opts Options) error {
	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return err
	}
	s.output = om
	if err := s.output.WriteConfig(s.cfg); err != nil {
		return fmt.Errorf("writing config snapshot: %w", err)
	}

	if opts.DBPath == "" {
		return nil
	}
	db, err := store.Open(opts.DBPath)
	if err != nil {
		return err
	}
	s.db = db
	if s.runID, err = db.BeginRun(opts.Seed, s.cfg); err != nil {
		return err
	}
	return s.db.SaveBehaviors(s.runID, 0, s.behaviorsByName())
}

// Step runs a single tick of the simulation.
func (s *Simulation) Step() {
	s.perf.StartTick()

	// 1. Spatial grid
	s.perf.StartPhase(telemetry.PhaseSpatialGrid)
	s.rebuildGrid()

	// 2. Steering decisions
	s.perf.StartPhase(telemetry.PhaseBehavior)
	s.behavior.Update()

	// 3. Boid motion
	s.perf.StartPhase(telemetry.PhaseMotion)
	s.motion.Update()

	// 4. Predators and lights wander
	s.perf.StartPhase(telemetry.PhaseDrift)
	s.drift.Update(s.tick)

	// 5. Light contacts, against post-motion positions
	s.perf.StartPhase(telemetry.PhaseFeeding)
	s.rebuildGrid()
	eaten := s.feeding.Update(s.rng)
	s.collector.RecordLightsEaten(eaten)

	s.tick++

	// 6. Telemetry
	s.perf.StartPhase(telemetry.PhaseTelemetry)
	s.recordDecisions()
	s.sampleForces()
	s.flushTelemetry()

	s.perf.EndTick()
}

// rebuildGrid reinserts every positioned entity into the spatial grid.
func (s *Simulation) rebuildGrid() {
	s.grid.Clear()
	query := s.posFilter.Query()
	for query.Next() {
		pos := query.Get()
		s.grid.Insert(query.Entity(), pos.X, pos.Y)
	}
}

// Tick returns the number of completed ticks.
func (s *Simulation) Tick() int32 {
	return s.tick
}

// Stats returns the most recently flushed stats window.
func (s *Simulation) Stats() telemetry.WindowStats {
	return s.lastStats
}

// Config returns the configuration the simulation was built from.
func (s *Simulation) Config() *config.Config {
	return s.cfg
}

// RunID returns the archive id of this run, empty without a database.
func (s *Simulation) RunID() string {
	return s.runID
}

// Close stops the worker pool and closes every output.
func (s *Simulation) Close() error {
	s.pool.Stop()
	err := s.output.Close()
	s.output = nil
	if s.db != nil {
		if dbErr := s.db.Close(); err == nil {
			err = dbErr
		}
		s.db = nil
	}
	return err
}
