package telemetry

import "github.com/pthm-cable/flock/steering"

// ForceSample is one named force of one boid at one tick, in the boid's frame.
// Rows are long-form so that a plotting tool can draw every force as an arrow.
type ForceSample struct {
	Tick    int32   `csv:"tick"`
	BoidID  uint32  `csv:"boid"`
	Flock   string  `csv:"flock"`
	Force   string  `csv:"force"`
	Enabled bool    `csv:"enabled"`
	Weight  float64 `csv:"weight"`
	Angle   float64 `csv:"angle"`
}

// SampleForces flattens a force record into rows, one per named force.
// Disabled behaviors produce a row with Enabled false and zero weight.
func SampleForces(tick int32, boidID uint32, flock string, forces steering.Forces) []ForceSample {
	named := forces.Named()
	rows := make([]ForceSample, 0, len(named))
	for _, nf := range named {
		row := ForceSample{Tick: tick, BoidID: boidID, Flock: flock, Force: nf.Name}
		if nf.Force != nil {
			row.Enabled = true
			row.Weight = nf.Force.Weight()
			if !nf.Force.IsZero() {
				row.Angle = nf.Force.Angle()
			}
		}
		rows = append(rows, row)
	}
	return rows
}
