// Package store archives simulation runs in SQLite: one row per run, the
// telemetry windows it produced and the behavior of every flock.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"

	"github.com/pthm-cable/flock/config"
	"github.com/pthm-cable/flock/telemetry"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: not found")

// DB wraps a SQLite connection for run archiving.
type DB struct {
	conn *sqlx.DB
}

// Run is one archived simulation run.
type Run struct {
	ID         string    `db:"id"`
	StartedAt  time.Time `db:"started_at"`
	Seed       int64     `db:"seed"`
	ConfigYAML string    `db:"config_yaml"`
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TIMESTAMP NOT NULL,
		seed INTEGER NOT NULL,
		config_yaml TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS windows (
		run_id TEXT NOT NULL REFERENCES runs(id),
		window_end INTEGER NOT NULL,
		sim_time REAL NOT NULL,
		boids INTEGER NOT NULL,
		lights INTEGER NOT NULL,
		decisions INTEGER NOT NULL,
		lights_eaten INTEGER NOT NULL,
		mean_abs_turn REAL NOT NULL,
		mean_resultant REAL NOT NULL,
		polarization REAL NOT NULL,
		nearest_mean REAL NOT NULL,
		nearest_std REAL NOT NULL,
		nearest_p50 REAL NOT NULL,
		isolated INTEGER NOT NULL,
		PRIMARY KEY (run_id, window_end)
	);

	CREATE TABLE IF NOT EXISTS behaviors (
		run_id TEXT NOT NULL REFERENCES runs(id),
		flock TEXT NOT NULL,
		tick INTEGER NOT NULL,
		yaml TEXT NOT NULL,
		PRIMARY KEY (run_id, flock, tick)
	);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// BeginRun registers a new run and returns its id.
func (db *DB) BeginRun(seed int64, cfg *config.Config) (string, error) {
	data, err := cfg.EncodeYAML()
	if err != nil {
		return "", err
	}
	run := Run{
		ID:         uuid.NewString(),
		StartedAt:  time.Now().UTC(),
		Seed:       seed,
		ConfigYAML: string(data),
	}
	_, err = db.conn.NamedExec(
		"INSERT INTO runs (id, started_at, seed, config_yaml) VALUES (:id, :started_at, :seed, :config_yaml)",
		run,
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	slog.Info("run registered", "run_id", run.ID, "seed", seed)
	return run.ID, nil
}

// GetRun returns a run by id.
func (db *DB) GetRun(id string) (Run, error) {
	var run Run
	err := db.conn.Get(&run, "SELECT id, started_at, seed, config_yaml FROM runs WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNotFound
	}
	return run, err
}

// SaveWindow appends one telemetry window to a run.
func (db *DB) SaveWindow(runID string, s telemetry.WindowStats) error {
	_, err := db.conn.Exec(`INSERT INTO windows
		(run_id, window_end, sim_time, boids, lights, decisions, lights_eaten,
		 mean_abs_turn, mean_resultant, polarization, nearest_mean, nearest_std, nearest_p50, isolated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, s.WindowEndTick, s.SimTimeSec, s.Boids, s.Lights, s.Decisions, s.LightsEaten,
		s.MeanAbsTurn, s.MeanResultant, s.Polarization, s.NearestMean, s.NearestStd, s.NearestP50, s.Isolated,
	)
	if err != nil {
		return fmt.Errorf("insert window: %w", err)
	}
	return nil
}

// Windows returns a run's telemetry windows in tick order.
func (db *DB) Windows(runID string) ([]telemetry.WindowStats, error) {
	var windows []telemetry.WindowStats
	err := db.conn.Select(&windows, `SELECT window_end, sim_time, boids, lights, decisions, lights_eaten,
		mean_abs_turn, mean_resultant, polarization, nearest_mean, nearest_std, nearest_p50, isolated
		FROM windows WHERE run_id = ? ORDER BY window_end`, runID)
	if err != nil {
		return nil, fmt.Errorf("select windows: %w", err)
	}
	// Window starts are implied by the previous end.
	for i := 1; i < len(windows); i++ {
		windows[i].WindowStartTick = windows[i-1].WindowEndTick
	}
	return windows, nil
}

// SaveBehaviors records the behavior of every flock at a tick in one transaction.
func (db *DB) SaveBehaviors(runID string, tick int32, behaviors map[string]config.Behavior) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex("INSERT OR REPLACE INTO behaviors (run_id, flock, tick, yaml) VALUES (?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for flock, b := range behaviors {
		data, err := yaml.Marshal(b)
		if err != nil {
			return fmt.Errorf("marshal behavior %q: %w", flock, err)
		}
		if _, err := stmt.Exec(runID, flock, tick, string(data)); err != nil {
			return fmt.Errorf("insert behavior %q: %w", flock, err)
		}
	}

	return tx.Commit()
}

// LoadBehavior returns the latest behavior recorded for a flock at or before tick.
// A negative tick selects the latest record overall.
func (db *DB) LoadBehavior(runID, flock string, tick int32) (config.Behavior, error) {
	var data string
	query := "SELECT yaml FROM behaviors WHERE run_id = ? AND flock = ? AND (? < 0 OR tick <= ?) ORDER BY tick DESC LIMIT 1"
	err := db.conn.Get(&data, query, runID, flock, tick, tick)
	if errors.Is(err, sql.ErrNoRows) {
		return config.Behavior{}, ErrNotFound
	}
	if err != nil {
		return config.Behavior{}, fmt.Errorf("select behavior: %w", err)
	}

	var b config.Behavior
	if err := yaml.Unmarshal([]byte(data), &b); err != nil {
		return config.Behavior{}, fmt.Errorf("decode behavior %q: %w", flock, err)
	}
	return b, nil
}
