package store

import (
	"errors"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/pthm-cable/flock/config"
	"github.com/pthm-cable/flock/telemetry"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func beginTestRun(t *testing.T, db *DB) string {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	id, err := db.BeginRun(99, cfg)
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	return id
}

func TestBeginRun(t *testing.T) {
	db := openTestDB(t)
	id := beginTestRun(t, db)

	run, err := db.GetRun(id)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Seed != 99 {
		t.Errorf("Seed = %d, want 99", run.Seed)
	}
	if _, err := config.Parse([]byte(run.ConfigYAML)); err != nil {
		t.Errorf("archived config does not parse: %v", err)
	}

	if _, err := db.GetRun("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetRun(missing) error = %v, want ErrNotFound", err)
	}
}

func TestWindowsRoundTrip(t *testing.T) {
	db := openTestDB(t)
	id := beginTestRun(t, db)

	in := []telemetry.WindowStats{
		{WindowEndTick: 300, SimTimeSec: 5, Boids: 44, Lights: 3, Decisions: 13200, LightsEaten: 1, Polarization: 0.42, NearestMean: 31.5, Isolated: 2},
		{WindowEndTick: 600, SimTimeSec: 10, Boids: 44, Lights: 3, Decisions: 13200, MeanAbsTurn: 0.08, Polarization: 0.77},
	}
	// Insert out of order; Windows sorts by tick.
	for i := len(in) - 1; i >= 0; i-- {
		if err := db.SaveWindow(id, in[i]); err != nil {
			t.Fatalf("SaveWindow: %v", err)
		}
	}

	out, err := db.Windows(id)
	if err != nil {
		t.Fatalf("Windows: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d windows, want 2", len(out))
	}
	if out[0].WindowEndTick != 300 || out[1].WindowEndTick != 600 {
		t.Errorf("window order = %d, %d", out[0].WindowEndTick, out[1].WindowEndTick)
	}
	if out[1].WindowStartTick != 300 {
		t.Errorf("second window start = %d, want 300", out[1].WindowStartTick)
	}
	if out[0].Boids != 44 || out[0].Isolated != 2 || out[0].Polarization != 0.42 {
		t.Errorf("first window = %+v", out[0])
	}

	if err := db.SaveWindow(id, in[0]); err == nil {
		t.Error("duplicate window accepted")
	}
}

func TestBehaviorsRoundTrip(t *testing.T) {
	db := openTestDB(t)
	id := beginTestRun(t, db)

	calm := config.DefaultBehavior()
	eager := calm.Update(config.BehaviorOverrides{
		FollowsLight: boolPtr(false),
	})
	eager.LightWeight = 12

	if err := db.SaveBehaviors(id, 0, map[string]config.Behavior{"violet": calm}); err != nil {
		t.Fatalf("SaveBehaviors: %v", err)
	}
	if err := db.SaveBehaviors(id, 600, map[string]config.Behavior{"violet": eager}); err != nil {
		t.Fatalf("SaveBehaviors: %v", err)
	}

	tests := []struct {
		name string
		tick int32
		want config.Behavior
	}{
		{"before update", 599, calm},
		{"at update", 600, eager},
		{"latest", -1, eager},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.LoadBehavior(id, "violet", tt.tick)
			if err != nil {
				t.Fatalf("LoadBehavior: %v", err)
			}
			if got.FollowsLight != tt.want.FollowsLight || got.LightWeight != tt.want.LightWeight {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
			if !scalar.EqualWithinAbs(got.ClearanceCone, tt.want.ClearanceCone, 1e-12) {
				t.Errorf("cone = %v, want %v", got.ClearanceCone, tt.want.ClearanceCone)
			}
		})
	}

	if _, err := db.LoadBehavior(id, "nobody", -1); !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadBehavior(nobody) error = %v, want ErrNotFound", err)
	}
}

func boolPtr(v bool) *bool { return &v }
