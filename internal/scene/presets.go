package scene

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"ripple/internal/core"
	"ripple/internal/water"
)

// Preset names registered with core.
const (
	Calm  = "calm"
	Swell = "swell"
	Pond  = "pond"
	Still = "still"
)

func init() {
	core.Register(Calm, func(cfg map[string]string) core.Sim {
		return New(Calm, FromMap(cfg), seedCalm)
	})
	core.Register(Swell, func(cfg map[string]string) core.Sim {
		return New(Swell, FromMap(cfg), seedSwell)
	})
	core.Register(Pond, func(cfg map[string]string) core.Sim {
		c := FromMap(cfg)
		if _, ok := cfg["drop_height"]; !ok {
			c.DropHeight = 5
		}
		return New(Pond, c, seedPond)
	})
	core.Register(Still, func(cfg map[string]string) core.Sim {
		c := FromMap(cfg)
		if _, ok := cfg["bodies"]; !ok {
			c.Bodies = 0
		}
		return New(Still, c, nil)
	})
}

// Build constructs the named preset with opts applied, for callers that need
// the concrete scene rather than core.Sim.
func Build(name string, opts map[string]string) (*Scene, error) {
	factory, ok := core.Sims()[name]
	if !ok {
		return nil, fmt.Errorf("scene: unknown preset %q (have %v)", name, core.SimNames())
	}
	sc, ok := factory(opts).(*Scene)
	if !ok {
		return nil, fmt.Errorf("scene: preset %q is not a water scene", name)
	}
	return sc, nil
}

// seedCalm adds a single gentle swell from a random heading.
func seedCalm(s *Scene, rng *core.RNG) {
	angle := rng.Range(0, 2*math.Pi)
	s.water.AddPlaneWave(water.PlaneWaveParams{
		Direction:  mgl64.Vec2{math.Cos(angle), math.Sin(angle)},
		Wavelength: 24,
		Amplitude:  0.15,
		Speed:      4,
	})
}

// seedSwell crosses two plane waves and drops a radial source inside the
// middle half of the surface.
func seedSwell(s *Scene, rng *core.RNG) {
	base := rng.Range(0, 2*math.Pi)
	for i, p := range []struct{ wavelength, amp, period float64 }{
		{32, 0.3, 6},
		{14, 0.12, 0},
	} {
		angle := base + float64(i)*rng.Range(0.4, 1.2)
		s.water.AddPlaneWave(water.PlaneWaveParams{
			Direction:  mgl64.Vec2{math.Cos(angle), math.Sin(angle)},
			Wavelength: p.wavelength,
			Amplitude:  p.amp,
			Period:     p.period,
		})
	}
	surf := s.water.Surface()
	s.water.AddRadialWave(water.RadialWaveParams{
		Center: mgl64.Vec2{
			rng.Range(-0.5, 0.5) * surf.HalfExtents.X(),
			rng.Range(-0.5, 0.5) * surf.HalfExtents.Y(),
		},
		Wavelength: 10,
		Amplitude:  0.1,
		Decay:      0.05,
	})
}

// seedPond leaves the surface still apart from a small ripple in the centre.
func seedPond(s *Scene, _ *core.RNG) {
	s.water.AddRadialWave(water.RadialWaveParams{
		Wavelength: 6,
		Amplitude:  0.05,
		Decay:      0.2,
		Period:     3,
	})
}

// Parameters exposes the water's tunables.
func (s *Scene) Parameters() core.ParameterSnapshot { return s.water.Parameters() }

// ParameterControls lists the HUD-adjustable water parameters.
func (s *Scene) ParameterControls() []core.ParameterControl { return s.water.ParameterControls() }

// SetFloatParameter forwards to the water.
func (s *Scene) SetFloatParameter(key string, value float64) bool {
	return s.water.SetFloatParameter(key, value)
}
