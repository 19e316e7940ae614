package game

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/pthm-cable/flock/telemetry"
)

// logWriter is the destination for log output.
var logWriter io.Writer

// SetLogWriter sets the log output destination.
func SetLogWriter(w io.Writer) {
	logWriter = w
}

// Logf writes a formatted log message.
func Logf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if logWriter != nil {
		fmt.Fprintln(logWriter, msg)
	} else {
		fmt.Println(msg)
	}
}

// logWindow prints a human-readable summary of a stats window.
func (s *Simulation) logWindow(stats telemetry.WindowStats, perf telemetry.PerfStats) {
	Logf("=== Tick %d (%.1fs) ===", stats.WindowEndTick, stats.SimTimeSec)
	Logf("Boids: %d, Lights: %d, Eaten: %d", stats.Boids, stats.Lights, stats.LightsEaten)
	Logf("Polarization: %.3f | Nearest: %.1f avg, %.1f median, %d isolated",
		stats.Polarization, stats.NearestMean, stats.NearestP50, stats.Isolated)
	Logf("Turn: %.4f rad avg | Resultant: %.2f avg", stats.MeanAbsTurn, stats.MeanResultant)

	Logf("Step: %s avg (%.0f ticks/s)", perf.AvgTick.Round(time.Microsecond), perf.TicksPerSecond)
	phases := make([]string, 0, len(perf.PhasePct))
	for phase := range perf.PhasePct {
		phases = append(phases, phase)
	}
	sort.Slice(phases, func(i, j int) bool {
		return perf.PhasePct[phases[i]] > perf.PhasePct[phases[j]]
	})
	for _, phase := range phases {
		Logf("  %-14s %5.1f%%", phase, perf.PhasePct[phase])
	}

	for i, f := range s.cfg.Flocks {
		b := s.behaviors[i]
		Logf("Flock %s: align=%.1f center=%.1f separate=%.1f light=%.1f",
			f.Name, b.AlignmentWeight, b.CenteringWeight, b.SeparationWeight, b.LightWeight)
	}
	Logf("")
}
