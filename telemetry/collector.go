package telemetry

import "math"

// Collector accumulates steering events within time windows and produces WindowStats.
type Collector struct {
	windowDurationTicks int32
	dt                  float64

	windowStartTick int32

	// Accumulators for the current window
	decisions    int
	absTurnSum   float64
	resultantSum float64
	lightsEaten  int
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick
func NewCollector(windowDurationSec, dt float64) *Collector {
	ticksPerWindow := int32(windowDurationSec / dt)
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}
	return &Collector{
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// RecordDecision records one boid's decision: its turn and the magnitude of
// the resultant force it was derived from.
func (c *Collector) RecordDecision(turn, resultant float64) {
	c.decisions++
	c.absTurnSum += math.Abs(turn)
	c.resultantSum += resultant
}

// RecordLightsEaten records consumed lights.
func (c *Collector) RecordLightsEaten(n int) {
	c.lightsEaten += n
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// FlockSample is the flock state sampled at the end of a window.
type FlockSample struct {
	Headings []float64 // one per boid
	Nearest  []float64 // nearest boid distance per boid that has one in range
	Lights   int
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int32, sample FlockSample) WindowStats {
	var meanTurn, meanResultant float64
	if c.decisions > 0 {
		meanTurn = c.absTurnSum / float64(c.decisions)
		meanResultant = c.resultantSum / float64(c.decisions)
	}
	nearestMean, nearestStd, nearestP50 := ComputeSpacingStats(sample.Nearest)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.dt,

		Boids:  len(sample.Headings),
		Lights: sample.Lights,

		Decisions:   c.decisions,
		LightsEaten: c.lightsEaten,

		MeanAbsTurn:   meanTurn,
		MeanResultant: meanResultant,

		Polarization: Polarization(sample.Headings),
		NearestMean:  nearestMean,
		NearestStd:   nearestStd,
		NearestP50:   nearestP50,
		Isolated:     len(sample.Headings) - len(sample.Nearest),
	}

	c.windowStartTick = currentTick
	c.decisions = 0
	c.absTurnSum = 0
	c.resultantSum = 0
	c.lightsEaten = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
