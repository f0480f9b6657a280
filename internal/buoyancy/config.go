package buoyancy

import "strconv"

// Config holds the physical constants of a floating body.
type Config struct {
	// Density and Volume give the body mass.
	Density float64
	Volume  float64

	FluidDensity float64
	Gravity      float64

	// DepthScale is the submersion depth at which a probe delivers its full
	// share of buoyancy.
	DepthScale float64

	LinearDrag  float64
	AngularDrag float64

	// Inertia is the scalar moment of inertia. Zero derives it from the probe
	// layout.
	Inertia float64

	// Feedback splash thresholds and shape.
	SplashDepth  float64
	SplashSpeed  float64
	SplashRadius float64
	SplashGain   float64
}

// DefaultConfig returns a half-density crate.
func DefaultConfig() Config {
	return Config{
		Density:      500,
		Volume:       1,
		FluidDensity: 1000,
		Gravity:      9.81,
		DepthScale:   1,
		LinearDrag:   1.5,
		AngularDrag:  2.5,
		SplashDepth:  0.05,
		SplashSpeed:  1.0,
		SplashRadius: 2.5,
		SplashGain:   15,
	}
}

// FromMap overrides defaults with string key/value pairs. Invalid entries are
// ignored.
func FromMap(cfg map[string]string) Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	fields := []struct {
		key      string
		dst      *float64
		positive bool
	}{
		{"body_density", &c.Density, true},
		{"body_volume", &c.Volume, true},
		{"fluid_density", &c.FluidDensity, false},
		{"gravity", &c.Gravity, false},
		{"depth_scale", &c.DepthScale, true},
		{"linear_drag", &c.LinearDrag, false},
		{"angular_drag", &c.AngularDrag, false},
		{"inertia", &c.Inertia, false},
		{"body_splash_depth", &c.SplashDepth, false},
		{"body_splash_speed", &c.SplashSpeed, false},
		{"body_splash_radius", &c.SplashRadius, true},
		{"body_splash_gain", &c.SplashGain, false},
	}
	for _, f := range fields {
		v, ok := cfg[f.key]
		if !ok {
			continue
		}
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed != parsed || parsed < 0 || (f.positive && parsed == 0) {
			continue
		}
		*f.dst = parsed
	}
	return c
}
