package telemetry

import (
	"math"
	"testing"
)

func TestCollectorWindow(t *testing.T) {
	c := NewCollector(1.0, 0.1)
	if c.WindowDurationTicks() != 10 {
		t.Fatalf("WindowDurationTicks = %d, want 10", c.WindowDurationTicks())
	}
	if c.ShouldFlush(9) {
		t.Error("ShouldFlush(9) = true before the window closed")
	}
	if !c.ShouldFlush(10) {
		t.Error("ShouldFlush(10) = false at the window end")
	}
}

func TestCollectorFlush(t *testing.T) {
	c := NewCollector(1.0, 0.1)
	c.RecordDecision(0.2, 3)
	c.RecordDecision(-0.4, 5)
	c.RecordLightsEaten(2)

	stats := c.Flush(10, FlockSample{
		Headings: []float64{0, 0, 0},
		Nearest:  []float64{12, 18},
		Lights:   3,
	})

	if stats.WindowStartTick != 0 || stats.WindowEndTick != 10 {
		t.Errorf("window = [%d, %d], want [0, 10]", stats.WindowStartTick, stats.WindowEndTick)
	}
	if math.Abs(stats.SimTimeSec-1.0) > 1e-9 {
		t.Errorf("SimTimeSec = %v, want 1", stats.SimTimeSec)
	}
	if stats.Decisions != 2 || stats.LightsEaten != 2 {
		t.Errorf("decisions=%d eaten=%d, want 2 and 2", stats.Decisions, stats.LightsEaten)
	}
	if math.Abs(stats.MeanAbsTurn-0.3) > 1e-9 {
		t.Errorf("MeanAbsTurn = %v, want 0.3", stats.MeanAbsTurn)
	}
	if math.Abs(stats.MeanResultant-4) > 1e-9 {
		t.Errorf("MeanResultant = %v, want 4", stats.MeanResultant)
	}
	if stats.Boids != 3 || stats.Lights != 3 || stats.Isolated != 1 {
		t.Errorf("boids=%d lights=%d isolated=%d, want 3, 3, 1", stats.Boids, stats.Lights, stats.Isolated)
	}
	if math.Abs(stats.Polarization-1) > 1e-9 {
		t.Errorf("Polarization = %v, want 1", stats.Polarization)
	}
	if math.Abs(stats.NearestMean-15) > 1e-9 {
		t.Errorf("NearestMean = %v, want 15", stats.NearestMean)
	}

	// Counters reset for the next window.
	next := c.Flush(20, FlockSample{})
	if next.WindowStartTick != 10 || next.Decisions != 0 || next.LightsEaten != 0 || next.MeanAbsTurn != 0 {
		t.Errorf("counters not reset: %+v", next)
	}
}
