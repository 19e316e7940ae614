package steering

import "github.com/pthm-cable/flock/config"

// MinResultantWeight is the resultant magnitude below which the direction is
// treated as undefined and the heading is held.
const MinResultantWeight = 1e-9

// Motion is the agent's current speed state, read from the motion component.
type Motion struct {
	ForwardSpeed    float64
	MaxForwardSpeed float64
}

// Decision is the per-tick command handed to the motion component.
type Decision struct {
	Turn  float64 // signed heading change, radians
	Speed float64 // signed forward speed change
}

// Forces is a read-only record of what went into a decision, for inspection and
// visualization. A nil entry means the behavior was disabled.
type Forces struct {
	Inertia   *WeightedForce
	Safety    *WeightedForce
	Collision *WeightedForce
	Alignment *WeightedForce
	Centering *WeightedForce
	Light     *WeightedForce
	Affinity  *WeightedForce
	Total     *WeightedForce
}

// NamedForce pairs a force with its display name.
type NamedForce struct {
	Name  string
	Force *WeightedForce
}

// Named lists the forces in drawing order.
func (f Forces) Named() []NamedForce {
	return []NamedForce{
		{"inertia", f.Inertia},
		{"safety", f.Safety},
		{"collision", f.Collision},
		{"alignment", f.Alignment},
		{"centering", f.Centering},
		{"light", f.Light},
		{"affinity", f.Affinity},
		{"total", f.Total},
	}
}

// Decide computes the tick's turn and speed commands.
//
// The resultant is a unit forward inertia plus every enabled behavior plus the
// color affinity pull. The agent turns toward the resultant and always
// accelerates toward its maximum forward speed; the resultant's magnitude does
// not affect throttle.
func Decide(ps []Percept, b config.Behavior, m Motion) (Decision, Forces) {
	inertia := NewWeightedForce(1, 0)
	forces := Forces{Inertia: &inertia}
	total := inertia

	behaviors := [...]struct {
		enabled bool
		gen     Generator
		slot    **WeightedForce
	}{
		{b.AvoidsObstacles, MaintainClearance, &forces.Safety},
		{b.AvoidsCollisions, SeparateFromNeighbors, &forces.Collision},
		{b.AlignsWithNeighbors, AlignWithNeighbors, &forces.Alignment},
		{b.DoesCentering, CenterOnNeighbors, &forces.Centering},
		{b.FollowsLight, FollowLight, &forces.Light},
	}
	for _, bh := range behaviors {
		if !bh.enabled {
			continue
		}
		f := bh.gen(ps, b)
		*bh.slot = &f
		total.AddIn(f)
	}

	affinity := ColorAffinity(ps, b)
	forces.Affinity = &affinity
	total.AddIn(affinity)

	forces.Total = &total

	d := Decision{Speed: m.MaxForwardSpeed - m.ForwardSpeed}
	// A resultant that cancels out has no meaningful direction; hold the heading.
	if total.Weight() > MinResultantWeight {
		d.Turn = total.Angle()
	}
	return d, forces
}
