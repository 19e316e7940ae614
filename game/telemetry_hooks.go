package game

import (
	"log/slog"

	"github.com/pthm-cable/flock/components"
	"github.com/pthm-cable/flock/telemetry"
)

// recordDecisions feeds every boid's decision of this tick to the collector.
func (s *Simulation) recordDecisions() {
	query := s.flockerFilter.Query()
	for query.Next() {
		_, f := query.Get()
		var resultant float64
		if f.LastForces.Total != nil {
			resultant = f.LastForces.Total.Weight()
		}
		s.collector.RecordDecision(f.LastDecision.Turn, resultant)
	}
}

// sampleForces writes the named forces of the first few boids every
// ForceSampleEvery ticks.
func (s *Simulation) sampleForces() {
	every := s.cfg.Telemetry.ForceSampleEvery
	if s.output == nil || every <= 0 || int(s.tick)%every != 0 {
		return
	}

	var rows []telemetry.ForceSample
	sampled := 0
	query := s.flockerFilter.Query()
	for query.Next() {
		if sampled >= s.cfg.Telemetry.ForceSampleCount {
			query.Close()
			break
		}
		_, f := query.Get()
		rows = append(rows, telemetry.SampleForces(s.tick, f.ID, s.cfg.Flocks[f.Flock].Name, f.LastForces)...)
		sampled++
	}

	if err := s.output.WriteForces(rows); err != nil {
		slog.Error("failed to write forces", "error", err)
	}
}

// flushTelemetry checks if the stats window should be flushed and emits it.
func (s *Simulation) flushTelemetry() {
	if !s.collector.ShouldFlush(s.tick) {
		return
	}

	stats := s.collector.Flush(s.tick, s.sampleFlock())
	perfStats := s.perf.Stats()
	s.lastStats = stats

	// Call stats callback if provided
	if s.statsCallback != nil {
		s.statsCallback(stats)
	}

	// Log stats if enabled (console output)
	if s.logStats {
		stats.LogStats()
		slog.Info("perf", "stats", perfStats)
		s.logWindow(stats, perfStats)
	}

	// Write to CSV if output manager is enabled
	if s.output != nil {
		if err := s.output.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := s.output.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}

	if s.db != nil {
		if err := s.db.SaveWindow(s.runID, stats); err != nil {
			slog.Error("failed to archive window", "error", err)
		}
	}
}

// sampleFlock collects headings and spacing of every boid, and the light count.
func (s *Simulation) sampleFlock() telemetry.FlockSample {
	var sample telemetry.FlockSample

	query := s.flockerFilter.Query()
	for query.Next() {
		rot, f := query.Get()
		sample.Headings = append(sample.Headings, rot.Heading)
		if f.NearestBoid >= 0 {
			sample.Nearest = append(sample.Nearest, f.NearestBoid)
		}
	}

	bodies := s.bodyFilter.Query()
	for bodies.Next() {
		if bodies.Get().Kind == components.KindLight {
			sample.Lights++
		}
	}
	return sample
}
