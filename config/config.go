// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"image/color"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	World      WorldConfig       `yaml:"world"`
	Physics    PhysicsConfig     `yaml:"physics"`
	Agent      AgentConfig       `yaml:"agent"`
	Flocking   BehaviorOverrides `yaml:"flocking"`
	Flocks     []FlockConfig     `yaml:"flocks"`
	Population PopulationConfig  `yaml:"population"`
	Predator   PredatorConfig    `yaml:"predator"`
	Lights     LightsConfig      `yaml:"lights"`
	Telemetry  TelemetryConfig   `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds simulation world dimensions. The world is toroidal.
type WorldConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// PhysicsConfig holds simulation physics parameters.
type PhysicsConfig struct {
	DT           float64 `yaml:"dt"`             // seconds of simulated time per tick
	GridCellSize float64 `yaml:"grid_cell_size"` // broad-phase cell edge
}

// AgentConfig holds the motion limits shared by all boids.
// Speeds are world units per tick, turn in degrees per tick.
type AgentConfig struct {
	Size     float64 `yaml:"size"`
	MaxSpeed float64 `yaml:"max_speed"`
	MinSpeed float64 `yaml:"min_speed"`
	MaxAccel float64 `yaml:"max_accel"`
	MaxDecel float64 `yaml:"max_decel"`
	MaxTurn  float64 `yaml:"max_turn"`
}

// FlockConfig defines a group of boids sharing one color and one set of
// behavior overrides merged over the top-level flocking defaults.
type FlockConfig struct {
	Name     string            `yaml:"name"`
	Count    int               `yaml:"count"`
	Color    ColorConfig       `yaml:"color"`
	Behavior BehaviorOverrides `yaml:"behavior"`
}

// ColorConfig is an RGB triple.
type ColorConfig struct {
	R uint8 `yaml:"r"`
	G uint8 `yaml:"g"`
	B uint8 `yaml:"b"`
}

// RGBA converts to an opaque color.RGBA.
func (c ColorConfig) RGBA() color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

// PopulationConfig holds the counts of non-boid objects.
type PopulationConfig struct {
	Obstacles      int     `yaml:"obstacles"`
	ObstacleRadius float64 `yaml:"obstacle_radius"`
	Predators      int     `yaml:"predators"`
	Lights         int     `yaml:"lights"`
}

// PredatorConfig holds predator wander parameters.
type PredatorConfig struct {
	Speed      float64     `yaml:"speed"`
	MaxTurn    float64     `yaml:"max_turn"`    // degrees per tick
	NoiseScale float64     `yaml:"noise_scale"` // frequency of the wander field
	Color      ColorConfig `yaml:"color"`
}

// LightsConfig holds light source parameters.
type LightsConfig struct {
	DriftSpeed    float64     `yaml:"drift_speed"`
	MaxTurn       float64     `yaml:"max_turn"` // degrees per tick
	NoiseScale    float64     `yaml:"noise_scale"`
	ContactRadius float64     `yaml:"contact_radius"` // boids closer than this consume the light
	Respawn       bool        `yaml:"respawn"`
	Color         ColorConfig `yaml:"color"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow      float64 `yaml:"stats_window"`       // seconds per stats window
	ForceSampleEvery int     `yaml:"force_sample_every"` // ticks between force samples (0 = off)
	ForceSampleCount int     `yaml:"force_sample_count"` // boids sampled per force sample
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DefaultBehavior Behavior       // flocking section merged over DefaultBehavior()
	FlockBehaviors  []Behavior     // per flock, same order as Flocks
	FlockIndex      map[string]int // name -> index
	MaxTurnRad      float64        // Agent.MaxTurn in radians
	PredatorTurnRad float64        // Predator.MaxTurn in radians
	LightTurnRad    float64        // Lights.MaxTurn in radians
	TotalBoids      int
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	if path == "" {
		return Parse(nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse validates data and unmarshals it over the embedded defaults.
// Fields absent from data keep their default values; a flocks list replaces the default one.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if len(data) > 0 {
		if err := Validate(data); err != nil {
			return nil, err
		}
		// Unmarshal into same struct - only overwrites fields present in data
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.computeDerived(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Recompute refreshes the derived values after fields were changed in code.
func (c *Config) Recompute() error {
	return c.computeDerived()
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() error {
	c.Derived.DefaultBehavior = MergeBehavior(c.Flocking, DefaultBehavior())
	if err := c.Derived.DefaultBehavior.Validate(); err != nil {
		return fmt.Errorf("flocking: %w", err)
	}

	// Synthesize a default flock if none specified
	if len(c.Flocks) == 0 {
		c.Flocks = []FlockConfig{{
			Name:  "flock",
			Count: 30,
			Color: ColorConfig{R: 150, G: 0, B: 150},
		}}
	}

	c.Derived.FlockBehaviors = make([]Behavior, len(c.Flocks))
	c.Derived.FlockIndex = make(map[string]int, len(c.Flocks))
	c.Derived.TotalBoids = 0
	for i, f := range c.Flocks {
		if f.Name == "" {
			return fmt.Errorf("flocks[%d]: name is required", i)
		}
		if _, dup := c.Derived.FlockIndex[f.Name]; dup {
			return fmt.Errorf("flocks[%d]: duplicate name %q", i, f.Name)
		}
		b := MergeBehavior(f.Behavior, c.Derived.DefaultBehavior)
		if err := b.Validate(); err != nil {
			return fmt.Errorf("flock %q: %w", f.Name, err)
		}
		c.Derived.FlockBehaviors[i] = b
		c.Derived.FlockIndex[f.Name] = i
		c.Derived.TotalBoids += f.Count
	}

	c.Derived.MaxTurnRad = c.Agent.MaxTurn * math.Pi / 180
	c.Derived.PredatorTurnRad = c.Predator.MaxTurn * math.Pi / 180
	c.Derived.LightTurnRad = c.Lights.MaxTurn * math.Pi / 180
	return nil
}

// FlockBehavior returns the merged behavior of the named flock.
func (c *Config) FlockBehavior(name string) (Behavior, bool) {
	i, ok := c.Derived.FlockIndex[name]
	if !ok {
		return Behavior{}, false
	}
	return c.Derived.FlockBehaviors[i], true
}

// EncodeYAML returns the configuration as YAML bytes.
func (c *Config) EncodeYAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return data, nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := c.EncodeYAML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
