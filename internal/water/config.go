package water

import (
	"strconv"

	"github.com/go-gl/mathgl/mgl64"
)

// Params holds the solver tuning constants. The defaults are one coherent set
// tuned for a 128x128 grid spanning roughly one world unit per cell.
type Params struct {
	// GravityScale multiplies the grid width to give the Laplacian
	// acceleration coefficient (wave speed squared in cells/s).
	GravityScale float64
	// Viscosity smooths heights proportionally to the Laplacian, per second.
	Viscosity float64
	// VelocityDecay is the fraction of velocity removed every step.
	VelocityDecay float64
	// BaselineReturn pulls heights back to rest, per second.
	BaselineReturn float64
	// EdgeBand is the width of the absorbing border as a fraction of extent.
	EdgeBand float64
	// EdgeDamping is the per-step velocity attenuation on the outermost cells.
	EdgeDamping float64

	MaxHeight   float64
	MaxVelocity float64

	// ForceGain scales analytic wave forcing into velocity acceleration.
	ForceGain float64
	// SimGravity feeds the deep-water dispersion fallback.
	SimGravity float64
	// MinOmega floors the fallback angular frequency.
	MinOmega float64

	// SplashSigma is the bell width as a fraction of the splash radius.
	SplashSigma float64
	// SplashGain converts splash strength into a velocity impulse.
	SplashGain float64

	Displacement  float64
	FoamThreshold float64
	FoamSharpness float64

	// MaxSubstep caps the integration step. Longer frame deltas are split.
	MaxSubstep float64
}

// Config controls the water surface dimensions and placement.
type Config struct {
	Width  int
	Height int

	// HalfExtentX/Y give the plane size in world units along local X and Y.
	HalfExtentX float64
	HalfExtentY float64

	// Position is the world-space centre of the resting surface.
	Position mgl64.Vec3

	// Workers bounds the goroutines used per step. Zero picks a default.
	Workers int
	// UseGPU requests the OpenCL solver; the CPU solver is used when it is
	// unavailable.
	UseGPU bool

	Params Params
}

// Hard clamp bounds. MaxHeight and MaxVelocity may be tightened but never
// raised past these.
const (
	HeightLimit   = 5.0
	VelocityLimit = 20.0
)

// DefaultParams returns the standard tuning.
func DefaultParams() Params {
	return Params{
		GravityScale:   8,
		Viscosity:      0.6,
		VelocityDecay:  0.006,
		BaselineReturn: 0.4,
		EdgeBand:       0.04,
		EdgeDamping:    0.25,
		MaxHeight:      HeightLimit,
		MaxVelocity:    VelocityLimit,
		ForceGain:      24,
		SimGravity:     9.81,
		MinOmega:       0.5,
		SplashSigma:    0.4,
		SplashGain:     0.05,
		Displacement:   1,
		FoamThreshold:  0.35,
		FoamSharpness:  0.4,
		MaxSubstep:     1.0 / 60.0,
	}
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() Config {
	return Config{
		Width:       128,
		Height:      128,
		HalfExtentX: 64,
		HalfExtentY: 64,
		Params:      DefaultParams(),
	}
}

// FromMap populates the config from a string map (flag-style key/value pairs).
func FromMap(cfg map[string]string) Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	if v, ok := cfg["w"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.Width = parsed
		}
	}
	if v, ok := cfg["h"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.Height = parsed
		}
	}
	if v, ok := cfg["extent_x"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 {
			c.HalfExtentX = parsed
		}
	}
	if v, ok := cfg["extent_y"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 {
			c.HalfExtentY = parsed
		}
	}
	if v, ok := cfg["level"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			c.Position = mgl64.Vec3{c.Position.X(), parsed, c.Position.Z()}
		}
	}
	if v, ok := cfg["workers"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			c.Workers = parsed
		}
	}
	if v, ok := cfg["gpu"]; ok {
		if parsed, err := strconv.ParseBool(v); err == nil {
			c.UseGPU = parsed
		}
	}
	for _, spec := range tunables {
		if v, ok := cfg[spec.key]; ok {
			ApplyOverride(&c.Params, spec.key, v)
		}
	}
	return c
}

// ApplyOverride parses value and stores it in the tunable named key. It
// reports whether the key was recognised and the value accepted.
func ApplyOverride(p *Params, key, value string) bool {
	spec, ok := lookupTunable(key)
	if !ok {
		return false
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return false
	}
	return spec.set(p, parsed)
}

// TunableKeys lists the tunable parameter keys in display order.
func TunableKeys() []string {
	keys := make([]string, len(tunables))
	for i, spec := range tunables {
		keys[i] = spec.key
	}
	return keys
}

// ParamValue returns the tunable named key from p.
func ParamValue(p Params, key string) (float64, bool) {
	spec, ok := lookupTunable(key)
	if !ok {
		return 0, false
	}
	return spec.getter(p), true
}

// tunable describes one float parameter: its key, presentation, and bounds.
type tunable struct {
	key    string
	label  string
	group  string
	step   float64
	min    float64
	max    float64
	getter func(Params) float64
	setter func(*Params, float64)
}

func (t tunable) set(p *Params, v float64) bool {
	if v != v || v < t.min || v > t.max {
		return false
	}
	t.setter(p, v)
	return true
}

// clampLimits pulls the clamp bounds back into (0, HeightLimit] and
// (0, VelocityLimit].
func clampLimits(p Params) Params {
	if !(p.MaxHeight > 0) || p.MaxHeight > HeightLimit {
		p.MaxHeight = HeightLimit
	}
	if !(p.MaxVelocity > 0) || p.MaxVelocity > VelocityLimit {
		p.MaxVelocity = VelocityLimit
	}
	return p
}

func lookupTunable(key string) (tunable, bool) {
	for _, spec := range tunables {
		if spec.key == key {
			return spec, true
		}
	}
	return tunable{}, false
}

var tunables = []tunable{
	{
		key: "gravity_scale", label: "Gravity scale", group: "Propagation",
		step: 0.5, min: 0, max: 64,
		getter: func(p Params) float64 { return p.GravityScale },
		setter: func(p *Params, v float64) { p.GravityScale = v },
	},
	{
		key: "viscosity", label: "Viscosity", group: "Propagation",
		step: 0.05, min: 0, max: 10,
		getter: func(p Params) float64 { return p.Viscosity },
		setter: func(p *Params, v float64) { p.Viscosity = v },
	},
	{
		key: "velocity_decay", label: "Velocity decay", group: "Damping",
		step: 0.001, min: 0, max: 0.5,
		getter: func(p Params) float64 { return p.VelocityDecay },
		setter: func(p *Params, v float64) { p.VelocityDecay = v },
	},
	{
		key: "baseline_return", label: "Baseline return", group: "Damping",
		step: 0.05, min: 0, max: 10,
		getter: func(p Params) float64 { return p.BaselineReturn },
		setter: func(p *Params, v float64) { p.BaselineReturn = v },
	},
	{
		key: "edge_band", label: "Edge band", group: "Damping",
		step: 0.01, min: 0, max: 0.5,
		getter: func(p Params) float64 { return p.EdgeBand },
		setter: func(p *Params, v float64) { p.EdgeBand = v },
	},
	{
		key: "edge_damping", label: "Edge damping", group: "Damping",
		step: 0.05, min: 0, max: 1,
		getter: func(p Params) float64 { return p.EdgeDamping },
		setter: func(p *Params, v float64) { p.EdgeDamping = v },
	},
	{
		key: "max_height", label: "Max height", group: "Stability",
		step: 0.5, min: 0.1, max: HeightLimit,
		getter: func(p Params) float64 { return p.MaxHeight },
		setter: func(p *Params, v float64) { p.MaxHeight = v },
	},
	{
		key: "max_velocity", label: "Max velocity", group: "Stability",
		step: 1, min: 0.1, max: VelocityLimit,
		getter: func(p Params) float64 { return p.MaxVelocity },
		setter: func(p *Params, v float64) { p.MaxVelocity = v },
	},
	{
		key: "max_substep", label: "Max substep", group: "Stability",
		step: 0.001, min: 0.001, max: 0.1,
		getter: func(p Params) float64 { return p.MaxSubstep },
		setter: func(p *Params, v float64) { p.MaxSubstep = v },
	},
	{
		key: "force_gain", label: "Wave force gain", group: "Waves",
		step: 1, min: 0, max: 1000,
		getter: func(p Params) float64 { return p.ForceGain },
		setter: func(p *Params, v float64) { p.ForceGain = v },
	},
	{
		key: "sim_gravity", label: "Dispersion gravity", group: "Waves",
		step: 0.1, min: 0, max: 100,
		getter: func(p Params) float64 { return p.SimGravity },
		setter: func(p *Params, v float64) { p.SimGravity = v },
	},
	{
		key: "min_omega", label: "Min omega", group: "Waves",
		step: 0.05, min: 0, max: 10,
		getter: func(p Params) float64 { return p.MinOmega },
		setter: func(p *Params, v float64) { p.MinOmega = v },
	},
	{
		key: "splash_sigma", label: "Splash sigma", group: "Splash",
		step: 0.05, min: 0.05, max: 2,
		getter: func(p Params) float64 { return p.SplashSigma },
		setter: func(p *Params, v float64) { p.SplashSigma = v },
	},
	{
		key: "splash_gain", label: "Splash gain", group: "Splash",
		step: 0.01, min: 0, max: 10,
		getter: func(p Params) float64 { return p.SplashGain },
		setter: func(p *Params, v float64) { p.SplashGain = v },
	},
	{
		key: "displacement", label: "Normal displacement", group: "Surface",
		step: 0.1, min: 0, max: 20,
		getter: func(p Params) float64 { return p.Displacement },
		setter: func(p *Params, v float64) { p.Displacement = v },
	},
	{
		key: "foam_threshold", label: "Foam threshold", group: "Surface",
		step: 0.05, min: 0, max: 10,
		getter: func(p Params) float64 { return p.FoamThreshold },
		setter: func(p *Params, v float64) { p.FoamThreshold = v },
	},
	{
		key: "foam_sharpness", label: "Foam sharpness", group: "Surface",
		step: 0.05, min: 0, max: 10,
		getter: func(p Params) float64 { return p.FoamSharpness },
		setter: func(p *Params, v float64) { p.FoamSharpness = v },
	},
}
