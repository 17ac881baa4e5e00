package physics

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/magicjedi90/insiculous-2d-sub000/components"
)

// Config holds the simulation tuning knobs. Gravity is in display units per
// second squared; PixelsPerUnit converts display lengths to the simulation's
// internal length unit.
type Config struct {
	Gravity            components.Vector `yaml:"gravity"`
	VelocityIterations uint              `yaml:"velocity_iterations"`
	PositionIterations uint              `yaml:"position_iterations"`
	PixelsPerUnit      float64           `yaml:"pixels_per_unit"`
}

// DefaultConfig returns the configuration used when no file is supplied.
func DefaultConfig() Config {
	return Config{
		Gravity:            components.Vector{X: 0, Y: -980},
		VelocityIterations: 8,
		PositionIterations: 3,
		PixelsPerUnit:      100,
	}
}

// Validate reports the first invalid field, if any.
func (c Config) Validate() error {
	if c.PixelsPerUnit <= 0 {
		return fmt.Errorf("physics: pixels_per_unit must be positive, got %v", c.PixelsPerUnit)
	}
	if c.VelocityIterations == 0 && c.PositionIterations == 0 {
		return fmt.Errorf("physics: at least one solver iteration is required")
	}
	return nil
}

// solverIterations folds both iteration knobs into the single iteration count
// the engine's unified solver takes.
func (c Config) solverIterations() uint {
	return c.VelocityIterations + c.PositionIterations
}

// LoadConfig reads and validates a YAML config file. Fields absent from the
// file keep their default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("physics: load %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("physics: unmarshal %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("physics: config %s: %w", path, err)
	}
	return cfg, nil
}
