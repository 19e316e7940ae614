package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-" db:"-"`
	WindowEndTick   int32   `csv:"window_end" db:"window_end"`
	SimTimeSec      float64 `csv:"sim_time" db:"sim_time"`

	// Population at window end
	Boids  int `csv:"boids" db:"boids"`
	Lights int `csv:"lights" db:"lights"`

	// Events during window
	Decisions   int `csv:"decisions" db:"decisions"`
	LightsEaten int `csv:"lights_eaten" db:"lights_eaten"`

	// Steering, averaged over every decision in the window
	MeanAbsTurn   float64 `csv:"mean_abs_turn" db:"mean_abs_turn"`
	MeanResultant float64 `csv:"mean_resultant" db:"mean_resultant"`

	// Flock shape, sampled at window end
	Polarization float64 `csv:"polarization" db:"polarization"` // 1 = all headings equal
	NearestMean  float64 `csv:"nearest_mean" db:"nearest_mean"`
	NearestStd   float64 `csv:"nearest_std" db:"nearest_std"`
	NearestP50   float64 `csv:"nearest_p50" db:"nearest_p50"`
	Isolated     int     `csv:"isolated" db:"isolated"` // boids with no other boid in range
}

// Polarization returns the length of the mean unit heading vector, in [0, 1].
// It is 1 when every heading is equal and near 0 for uniformly spread headings.
func Polarization(headings []float64) float64 {
	if len(headings) == 0 {
		return 0
	}
	cos := make([]float64, len(headings))
	sin := make([]float64, len(headings))
	for i, h := range headings {
		cos[i] = math.Cos(h)
		sin[i] = math.Sin(h)
	}
	return math.Min(math.Hypot(stat.Mean(cos, nil), stat.Mean(sin, nil)), 1)
}

// ComputeSpacingStats returns mean, standard deviation and median of
// nearest-neighbor distances. Returns zeros if values is empty.
func ComputeSpacingStats(values []float64) (mean, std, p50 float64) {
	switch len(values) {
	case 0:
		return 0, 0, 0
	case 1:
		return values[0], 0, values[0]
	}

	mean, std = stat.MeanStdDev(values, nil)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	p50 = stat.Quantile(0.5, stat.Empirical, sorted, nil)

	return mean, std, p50
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("boids", s.Boids),
		slog.Int("lights", s.Lights),
		slog.Int("decisions", s.Decisions),
		slog.Int("lights_eaten", s.LightsEaten),
		slog.Float64("mean_abs_turn", s.MeanAbsTurn),
		slog.Float64("mean_resultant", s.MeanResultant),
		slog.Float64("polarization", s.Polarization),
		slog.Float64("nearest_mean", s.NearestMean),
		slog.Float64("nearest_std", s.NearestStd),
		slog.Float64("nearest_p50", s.NearestP50),
		slog.Int("isolated", s.Isolated),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}
