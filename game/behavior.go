package game

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/flock/config"
)

// SetBehavior applies overrides to the live behavior of a flock. Every boid of
// the flock picks up the new behavior on the next tick. Fields absent from the
// overrides keep their current values. With a run archive, the behavior is
// recorded first and nothing changes if that fails.
func (s *Simulation) SetBehavior(flock string, o config.BehaviorOverrides) error {
	i, ok := s.cfg.Derived.FlockIndex[flock]
	if !ok {
		return fmt.Errorf("unknown flock %q", flock)
	}
	b := s.behaviors[i].Update(o)
	if err := b.Validate(); err != nil {
		return fmt.Errorf("flock %q: %w", flock, err)
	}

	if s.db != nil {
		if err := s.db.SaveBehaviors(s.runID, s.tick, map[string]config.Behavior{flock: b}); err != nil {
			return fmt.Errorf("archiving behavior of %q: %w", flock, err)
		}
	}

	s.behaviors[i] = b
	updated := 0
	query := s.flockerFilter.Query()
	for query.Next() {
		_, f := query.Get()
		if f.Flock == i {
			f.Behavior = b
			updated++
		}
	}

	slog.Info("behavior updated", "flock", flock, "tick", s.tick, "boids", updated)
	return nil
}

// Behavior returns the live behavior of a flock.
func (s *Simulation) Behavior(flock string) (config.Behavior, bool) {
	i, ok := s.cfg.Derived.FlockIndex[flock]
	if !ok {
		return config.Behavior{}, false
	}
	return s.behaviors[i], true
}

// Boids returns the number of boids in the world.
func (s *Simulation) Boids() int {
	n := 0
	query := s.flockerFilter.Query()
	for query.Next() {
		n++
	}
	return n
}

func (s *Simulation) behaviorsByName() map[string]config.Behavior {
	out := make(map[string]config.Behavior, len(s.cfg.Flocks))
	for i, f := range s.cfg.Flocks {
		out[f.Name] = s.behaviors[i]
	}
	return out
}
