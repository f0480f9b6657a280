package scene

import (
	"strconv"

	"ripple/internal/buoyancy"
	"ripple/internal/water"
)

// Config holds parameters for a water scene.
type Config struct {
	Water water.Config
	Body  buoyancy.Config

	// Bodies is the number of floating crates placed on Reset.
	Bodies int
	// BodySize is the crate half extent in world units.
	BodySize float64
	// DropHeight is the maximum height above the surface at which crates
	// start.
	DropHeight float64

	Seed int64
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Water:      water.DefaultConfig(),
		Body:       buoyancy.DefaultConfig(),
		Bodies:     3,
		BodySize:   1.5,
		DropHeight: 2,
		Seed:       1,
	}
}

// FromMap populates a Config from a string map.
func FromMap(cfg map[string]string) Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	c.Water = water.FromMap(cfg)
	c.Body = buoyancy.FromMap(cfg)
	if v, ok := cfg["bodies"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			c.Bodies = parsed
		}
	}
	if v, ok := cfg["body_size"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 {
			c.BodySize = parsed
		}
	}
	if v, ok := cfg["drop_height"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed >= 0 {
			c.DropHeight = parsed
		}
	}
	if v, ok := cfg["seed"]; ok {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Seed = parsed
		}
	}
	return c
}
