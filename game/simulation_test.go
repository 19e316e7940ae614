package game

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/flock/components"
	"github.com/pthm-cable/flock/config"
	"github.com/pthm-cable/flock/store"
	"github.com/pthm-cable/flock/telemetry"
)

const testConfigYAML = `
world: {width: 600, height: 600}
flocks:
  - name: violet
    count: 70
    color: {r: 150, g: 0, b: 150}
  - name: beacons
    count: 2
    color: {r: 40, g: 254, b: 80}
population: {obstacles: 3, predators: 1, lights: 2}
telemetry: {stats_window: 0.5, force_sample_every: 10, force_sample_count: 2}
`

func testConfig(t *testing.T, extra string) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(testConfigYAML + extra))
	if err != nil {
		t.Fatalf("config.Parse: %v", err)
	}
	return cfg
}

func newTestSimulation(t *testing.T, opts Options) *Simulation {
	t.Helper()
	SetLogWriter(io.Discard)
	t.Cleanup(func() { SetLogWriter(nil) })
	if opts.Config == nil {
		opts.Config = testConfig(t, "")
	}
	s, err := NewSimulation(opts)
	if err != nil {
		t.Fatalf("NewSimulation: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func boidPositions(s *Simulation) []components.Position {
	var out []components.Position
	query := ecs.NewFilter2[components.Position, components.Flocker](s.world).Query()
	for query.Next() {
		pos, _ := query.Get()
		out = append(out, *pos)
	}
	return out
}

func TestSimulationSpawnsConfiguredPopulation(t *testing.T) {
	s := newTestSimulation(t, Options{Seed: 1})
	if got := s.Boids(); got != 72 {
		t.Errorf("Boids() = %d, want 72", got)
	}
	if got := s.sampleFlock().Lights; got != 2 {
		t.Errorf("lights = %d, want 2", got)
	}

	counts := make(map[components.Kind]int)
	query := s.bodyFilter.Query()
	for query.Next() {
		counts[query.Get().Kind]++
	}
	if counts[components.KindObstacle] != 3 || counts[components.KindPredator] != 1 {
		t.Errorf("kind counts = %v", counts)
	}
}

func TestSimulationDeterministic(t *testing.T) {
	run := func(workers int) []components.Position {
		s := newTestSimulation(t, Options{Seed: 42, Workers: workers})
		for i := 0; i < 60; i++ {
			s.Step()
		}
		return boidPositions(s)
	}

	a := run(1)
	b := run(4)
	if len(a) != len(b) {
		t.Fatalf("boid counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("boid %d diverged: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestStatsCallbackFiresEachWindow(t *testing.T) {
	var windows []telemetry.WindowStats
	s := newTestSimulation(t, Options{
		Seed:          3,
		StatsCallback: func(w telemetry.WindowStats) { windows = append(windows, w) },
	})

	for i := 0; i < 90; i++ {
		s.Step()
	}
	if s.Tick() != 90 {
		t.Fatalf("Tick() = %d, want 90", s.Tick())
	}
	if len(windows) != 3 {
		t.Fatalf("got %d windows, want 3", len(windows))
	}
	for i, w := range windows {
		if w.WindowEndTick != int32(30*(i+1)) {
			t.Errorf("window %d ends at %d", i, w.WindowEndTick)
		}
		if w.Boids != 72 {
			t.Errorf("window %d: Boids = %d, want 72", i, w.Boids)
		}
		if w.Decisions != 72*30 {
			t.Errorf("window %d: Decisions = %d, want %d", i, w.Decisions, 72*30)
		}
		if w.Polarization < 0 || w.Polarization > 1 {
			t.Errorf("window %d: Polarization = %v", i, w.Polarization)
		}
	}
	if s.Stats() != windows[2] {
		t.Error("Stats() does not return the last window")
	}
}

func TestSetBehavior(t *testing.T) {
	s := newTestSimulation(t, Options{Seed: 5})
	before, _ := s.Behavior("violet")

	off := false
	weight := 7.5
	if err := s.SetBehavior("violet", config.BehaviorOverrides{FollowsLight: &off, AlignmentWeight: &weight}); err != nil {
		t.Fatalf("SetBehavior: %v", err)
	}

	after, ok := s.Behavior("violet")
	if !ok {
		t.Fatal("Behavior(violet) not found")
	}
	if after.FollowsLight || after.AlignmentWeight != 7.5 {
		t.Errorf("behavior not updated: %+v", after)
	}
	if after.CenteringWeight != before.CenteringWeight {
		t.Errorf("unspecified field changed: %v -> %v", before.CenteringWeight, after.CenteringWeight)
	}

	query := s.flockerFilter.Query()
	for query.Next() {
		_, f := query.Get()
		want := s.behaviors[f.Flock]
		if f.Behavior != want {
			t.Errorf("boid %d of flock %d has stale behavior", f.ID, f.Flock)
		}
	}
	if beacons, _ := s.Behavior("beacons"); beacons.AlignmentWeight == 7.5 {
		t.Error("update leaked into another flock")
	}

	if err := s.SetBehavior("nobody", config.BehaviorOverrides{}); err == nil {
		t.Error("unknown flock accepted")
	}
	negative := -1.0
	if err := s.SetBehavior("violet", config.BehaviorOverrides{DetectionDistance: &negative}); err == nil {
		t.Error("negative detection distance accepted")
	}
	if cur, _ := s.Behavior("violet"); cur != after {
		t.Error("rejected update changed the behavior")
	}
}

func TestSetBehaviorArchiveFailureKeepsBehavior(t *testing.T) {
	s := newTestSimulation(t, Options{
		Seed:   5,
		DBPath: filepath.Join(t.TempDir(), "runs.db"),
	})
	before, _ := s.Behavior("violet")

	// Writes to a closed connection fail; Close tolerates the second call.
	if err := s.db.Close(); err != nil {
		t.Fatalf("closing archive: %v", err)
	}

	weight := 7.5
	if err := s.SetBehavior("violet", config.BehaviorOverrides{AlignmentWeight: &weight}); err == nil {
		t.Fatal("SetBehavior succeeded without a working archive")
	}
	if cur, _ := s.Behavior("violet"); cur != before {
		t.Errorf("behavior changed after failed archive: %+v", cur)
	}
	query := s.flockerFilter.Query()
	for query.Next() {
		_, f := query.Get()
		if f.Behavior.AlignmentWeight == 7.5 {
			t.Errorf("boid %d picked up an unarchived behavior", f.ID)
		}
	}
}

func TestLightConsumedWithoutRespawn(t *testing.T) {
	cfg := testConfig(t, "lights: {respawn: false}\n")
	cfg.Population.Lights = 0
	s := newTestSimulation(t, Options{Seed: 9, Config: cfg})

	boid := boidPositions(s)[0]
	s.spawnDrifter(boid.X, boid.Y, components.KindLight)
	if got := s.sampleFlock().Lights; got != 1 {
		t.Fatalf("lights before = %d, want 1", got)
	}

	s.Step()
	if got := s.sampleFlock().Lights; got != 0 {
		t.Errorf("lights after = %d, want 0", got)
	}
}

func TestOutputsAndArchive(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "runs.db")
	s := newTestSimulation(t, Options{
		Seed:      11,
		OutputDir: filepath.Join(dir, "out"),
		DBPath:    dbPath,
	})

	for i := 0; i < 30; i++ {
		s.Step()
	}
	runID := s.RunID()
	if runID == "" {
		t.Fatal("no run id with a database")
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	for _, name := range []string{"telemetry.csv", "perf.csv", "forces.csv", "config.yaml"} {
		data, err := os.ReadFile(filepath.Join(dir, "out", name))
		if err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		if len(data) == 0 {
			t.Errorf("%s is empty", name)
		}
	}
	forces, _ := os.ReadFile(filepath.Join(dir, "out", "forces.csv"))
	if !strings.Contains(string(forces), "alignment") {
		t.Error("forces.csv has no alignment rows")
	}

	db, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer db.Close()

	windows, err := db.Windows(runID)
	if err != nil {
		t.Fatalf("Windows: %v", err)
	}
	if len(windows) != 1 || windows[0].WindowEndTick != 30 {
		t.Errorf("archived windows = %+v", windows)
	}
	if _, err := db.LoadBehavior(runID, "beacons", -1); err != nil {
		t.Errorf("LoadBehavior(beacons): %v", err)
	}
}
