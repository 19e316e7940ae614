package main

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/flock/config"
	"github.com/pthm-cable/flock/game"
	"github.com/pthm-cable/flock/telemetry"
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params     *ParamVector
	maxTicks   int32
	seeds      []int64
	baseConfig *config.Config

	mu          sync.Mutex
	lastQuality quality // quality from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int32, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		maxTicks:   maxTicks,
		seeds:      seeds,
		baseConfig: baseCfg,
	}
}

// LastQuality returns the quality of the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() quality {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// Quality scoring constants.
const (
	qualityWarmupWindows = 2   // skip first N windows while flocks form
	spacingTolerance     = 0.5 // relative width of the spacing score around its target
	spacingTarget        = 1.5 // ideal median spacing, in separation distances
)

// quality summarizes how well a run flocked, averaged over scored windows.
type quality struct {
	Polarization float64 // mean heading agreement, [0, 1]
	Cohesion     float64 // spacing near target and few isolated boids, [0, 1]
}

// Score is the product of both components.
func (q quality) Score() float64 {
	return q.Polarization * q.Cohesion
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Fitness is the negative mean quality score over all seeds.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg, err := fe.configFor(x)
	if err != nil {
		return 0
	}
	separation := cfg.Derived.DefaultBehavior.SeparationDistance

	// Run all seeds in parallel
	results := make([]quality, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			windows, err := fe.runSimulation(cfg, s)
			if err != nil {
				return
			}
			results[idx] = computeQuality(windows, separation)
		}(i, seed)
	}
	wg.Wait()

	var avg quality
	var scoreSum float64
	for _, q := range results {
		avg.Polarization += q.Polarization
		avg.Cohesion += q.Cohesion
		scoreSum += q.Score()
	}
	n := float64(len(results))
	avg.Polarization /= n
	avg.Cohesion /= n

	fe.mu.Lock()
	fe.lastQuality = avg
	fe.mu.Unlock()

	return -scoreSum / n
}

// configFor builds an independent config with the parameters applied.
func (fe *FitnessEvaluator) configFor(x []float64) (*config.Config, error) {
	cfg, err := fe.copyConfig()
	if err != nil {
		return nil, err
	}
	if err := fe.params.ApplyToConfig(cfg, x); err != nil {
		return nil, err
	}
	return cfg, nil
}

// copyConfig creates a deep copy of the base config.
func (fe *FitnessEvaluator) copyConfig() (*config.Config, error) {
	data, err := fe.baseConfig.EncodeYAML()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("copying config: %w", err)
	}
	return cfg, nil
}

// runSimulation executes a single headless run and returns its stats windows.
// The config is only read, so seeds may share it.
func (fe *FitnessEvaluator) runSimulation(cfg *config.Config, seed int64) ([]telemetry.WindowStats, error) {
	var windows []telemetry.WindowStats
	sim, err := game.NewSimulation(game.Options{
		Seed:    seed,
		Config:  cfg,
		Workers: 1,
		StatsCallback: func(stats telemetry.WindowStats) {
			windows = append(windows, stats)
		},
	})
	if err != nil {
		return nil, err
	}
	defer sim.Close()

	for sim.Tick() < fe.maxTicks {
		sim.Step()
	}
	return windows, nil
}

// computeQuality scores the windows after warmup. Cohesion rewards a median
// nearest-neighbor spacing close to spacingTarget separation distances and
// penalizes boids with no neighbor in range.
func computeQuality(windows []telemetry.WindowStats, separation float64) quality {
	if len(windows) <= qualityWarmupWindows {
		return quality{}
	}

	scored := windows[qualityWarmupWindows:]
	polarization := make([]float64, 0, len(scored))
	cohesion := make([]float64, 0, len(scored))
	target := spacingTarget * separation

	for _, w := range scored {
		if w.Boids == 0 {
			continue
		}
		polarization = append(polarization, w.Polarization)

		connected := 1 - float64(w.Isolated)/float64(w.Boids)
		spacing := 0.0
		if w.Boids > w.Isolated && target > 0 {
			rel := (w.NearestP50 - target) / (spacingTolerance * target)
			spacing = math.Exp(-rel * rel)
		}
		cohesion = append(cohesion, connected*spacing)
	}

	if len(polarization) == 0 {
		return quality{}
	}
	return quality{
		Polarization: clamp01(stat.Mean(polarization, nil)),
		Cohesion:     clamp01(stat.Mean(cohesion, nil)),
	}
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	return min(max(x, 0), 1)
}
