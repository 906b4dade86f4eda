// Package simconfig defines the configuration surface for the AGV fleet
// simulation: map-generation parameters, per-vehicle kinematic defaults, and
// engine timing constants. It supports YAML parsing and includes
// comprehensive validation, following the same conventions a host uses to
// supply createEngine's defaultFleetConfig.
package simconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config specifies all simulation parameters a host supplies when creating
// an engine.
type Config struct {
	// Map controls seeded map generation.
	Map MapCfg `yaml:"map" json:"map"`

	// Fleet holds the default per-vehicle kinematic configuration, applied
	// to every AGV unless overridden individually via updateConfig.
	Fleet FleetCfg `yaml:"fleet" json:"fleet"`

	// Engine holds timing constants for deadlock recovery and auto-pilot.
	Engine EngineCfg `yaml:"engine" json:"engine"`
}

// MapCfg specifies map-generation parameters (spec §4.2, §6).
type MapCfg struct {
	// Seed is the configuration string hashed into the PRNG's 32-bit seed.
	Seed string `yaml:"seed" json:"seed"`

	// NodeCount is the requested node count, 5 <= NodeCount <= 200.
	NodeCount int `yaml:"nodeCount" json:"nodeCount"`
}

// FleetCfg specifies the default per-vehicle kinematic configuration
// (spec §6 "Config defaults").
type FleetCfg struct {
	// MaxSpeed is the top speed in pixels/tick.
	MaxSpeed float64 `yaml:"maxSpeed" json:"maxSpeed"`

	// Acceleration is the per-tick speed increase, in pixels/tick^2.
	Acceleration float64 `yaml:"acceleration" json:"acceleration"`

	// Deceleration is the per-tick speed decrease, in pixels/tick^2.
	Deceleration float64 `yaml:"deceleration" json:"deceleration"`

	// SafetyDistance is the proximity-sensor radius, in pixels.
	SafetyDistance float64 `yaml:"safetyDistance" json:"safetyDistance"`

	// HardBorrowLength is the count of leading path nodes an AGV reserves.
	HardBorrowLength int `yaml:"hardBorrowLength" json:"hardBorrowLength"`
}

// EngineCfg specifies engine-wide timing constants and auto-pilot behavior.
type EngineCfg struct {
	// RetryInterval is the WAIT-to-retry period, in ticks. It is validated
	// but not read by the engine: recovery always uses its fixed
	// recovery.RetryInterval.
	RetryInterval int `yaml:"retryInterval" json:"retryInterval"`

	// MaxRetriesPerRank is the retry budget before advancing pathRank. It is
	// validated but not read by the engine: recovery always uses its fixed
	// recovery.MaxRetriesPerRank.
	MaxRetriesPerRank int `yaml:"maxRetriesPerRank" json:"maxRetriesPerRank"`

	// AutoPilot enables automatic target assignment for idle AGVs.
	AutoPilot bool `yaml:"autoPilot" json:"autoPilot"`

	// AutoPilotProbability is the per-tick Bernoulli probability an idle AGV
	// requests a new random target.
	AutoPilotProbability float64 `yaml:"autoPilotProbability" json:"autoPilotProbability"`
}

// DefaultConfig returns the literal defaults named in spec §6, so a host can
// start from a known-good baseline and override individual fields.
func DefaultConfig() *Config {
	return &Config{
		Map: MapCfg{
			Seed:      "default-seed",
			NodeCount: 50,
		},
		Fleet: FleetCfg{
			MaxSpeed:         1.4,
			Acceleration:     0.10,
			Deceleration:     0.15,
			SafetyDistance:   35,
			HardBorrowLength: 1,
		},
		Engine: EngineCfg{
			RetryInterval:        60,
			MaxRetriesPerRank:    3,
			AutoPilot:            false,
			AutoPilotProbability: 0.05,
		},
	}
}

// LoadConfig reads a YAML configuration file over DefaultConfig, so fields
// absent from the file keep their default values, and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return cfg, nil
}

// LoadConfigFromBytes parses YAML configuration from a byte slice, seeded
// from DefaultConfig so a partial document still validates. Useful for
// testing and programmatic config generation.
func LoadConfigFromBytes(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return cfg, nil
}

// ToYAML serializes the config to YAML bytes.
func (c *Config) ToYAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate checks all configuration constraints, returning an error
// describing the first validation failure, or nil if valid.
func (c *Config) Validate() error {
	if err := c.Map.Validate(); err != nil {
		return fmt.Errorf("map: %w", err)
	}
	if err := c.Fleet.Validate(); err != nil {
		return fmt.Errorf("fleet: %w", err)
	}
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	return nil
}

// Validate checks MapCfg constraints.
func (m *MapCfg) Validate() error {
	if m.NodeCount < 5 || m.NodeCount > 200 {
		return fmt.Errorf("nodeCount must be in range [5, 200], got %d", m.NodeCount)
	}
	return nil
}

// Validate checks FleetCfg constraints.
func (f *FleetCfg) Validate() error {
	if f.MaxSpeed <= 0 {
		return fmt.Errorf("maxSpeed must be > 0, got %f", f.MaxSpeed)
	}
	if f.Acceleration <= 0 {
		return fmt.Errorf("acceleration must be > 0, got %f", f.Acceleration)
	}
	if f.Deceleration <= 0 {
		return fmt.Errorf("deceleration must be > 0, got %f", f.Deceleration)
	}
	if f.SafetyDistance <= 0 {
		return fmt.Errorf("safetyDistance must be > 0, got %f", f.SafetyDistance)
	}
	if f.HardBorrowLength < 0 || f.HardBorrowLength > 5 {
		return fmt.Errorf("hardBorrowLength must be in range [0, 5], got %d", f.HardBorrowLength)
	}
	return nil
}

// Validate checks EngineCfg constraints.
func (e *EngineCfg) Validate() error {
	if e.RetryInterval <= 0 {
		return fmt.Errorf("retryInterval must be > 0, got %d", e.RetryInterval)
	}
	if e.MaxRetriesPerRank <= 0 {
		return fmt.Errorf("maxRetriesPerRank must be > 0, got %d", e.MaxRetriesPerRank)
	}
	if e.AutoPilotProbability < 0 || e.AutoPilotProbability > 1 {
		return fmt.Errorf("autoPilotProbability must be in range [0, 1], got %f", e.AutoPilotProbability)
	}
	return nil
}
