// Package scene combines a water surface with floating bodies and registers
// the ready-made presets with core.
package scene

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"

	"ripple/internal/buoyancy"
	"ripple/internal/core"
	"ripple/internal/water"
)

// Seeder installs a preset's wave sources on a freshly reset scene.
type Seeder func(s *Scene, rng *core.RNG)

// Scene owns one water surface and the bodies floating on it.
type Scene struct {
	name   string
	cfg    Config
	seeder Seeder

	water    *water.Water
	feedback *feedback
	bodies   []*buoyancy.Body
	rng      *core.RNG
}

// feedback routes body splashes to the water and counts them.
type feedback struct {
	w     *water.Water
	count atomic.Int64
}

func (f *feedback) HeightAt(p mgl64.Vec3) float64 { return f.w.HeightAt(p) }

func (f *feedback) Splash(p mgl64.Vec3, radius, strength float64) bool {
	if !f.w.Splash(p, radius, strength) {
		return false
	}
	f.count.Add(1)
	return true
}

// New builds a scene; seeder may be nil for an empty surface.
func New(name string, cfg Config, seeder Seeder) *Scene {
	w := water.NewWithConfig(cfg.Water)
	s := &Scene{
		name:     name,
		cfg:      cfg,
		seeder:   seeder,
		water:    w,
		feedback: &feedback{w: w},
	}
	return s
}

// Name returns the preset identifier.
func (s *Scene) Name() string { return s.name }

// Size returns the water grid dimensions.
func (s *Scene) Size() core.Size { return s.water.Size() }

// Water exposes the surface for queries and interaction.
func (s *Scene) Water() *water.Water { return s.water }

// Bodies returns the floating bodies.
func (s *Scene) Bodies() []*buoyancy.Body { return s.bodies }

// Heights returns the live height buffer.
func (s *Scene) Heights() []float32 { return s.water.Heights() }

// Splashes returns how many feedback splashes bodies have made.
func (s *Scene) Splashes() int { return int(s.feedback.count.Load()) }

// Config returns the scene configuration.
func (s *Scene) Config() Config { return s.cfg }

// Reset clears the surface, reseeds the preset and drops the bodies again.
// A zero seed reuses the configured one.
func (s *Scene) Reset(seed int64) {
	if seed == 0 {
		seed = s.cfg.Seed
	}
	s.rng = core.NewRNG(seed)
	s.water.Reset()
	s.feedback.count.Store(0)
	if s.seeder != nil {
		s.seeder(s, s.rng)
	}
	s.bodies = s.bodies[:0]
	for i := 0; i < s.cfg.Bodies; i++ {
		s.DropBody()
	}
}

// Step advances the water, then lets every body sample it and react.
func (s *Scene) Step(dt float64) error {
	if err := s.water.Step(dt); err != nil {
		return err
	}
	for _, b := range s.bodies {
		b.Update(dt)
	}
	return nil
}

// DropBody places a crate at a random spot above the surface and returns it.
func (s *Scene) DropBody() *buoyancy.Body {
	if s.rng == nil {
		s.rng = core.NewRNG(s.cfg.Seed)
	}
	surf := s.water.Surface()
	lx := s.rng.Range(-0.6, 0.6) * surf.HalfExtents.X()
	ly := s.rng.Range(-0.6, 0.6) * surf.HalfExtents.Y()
	lift := s.rng.Range(0, s.cfg.DropHeight) + s.cfg.BodySize
	pos := surf.ToWorld(mgl64.Vec3{lx, ly, 0}).Add(surf.Normal().Mul(lift))
	return s.AddBody(pos, s.rng.Range(0, 2*math.Pi))
}

// AddBody places a crate at pos with the given yaw.
func (s *Scene) AddBody(pos mgl64.Vec3, yaw float64) *buoyancy.Body {
	half := s.cfg.BodySize
	bodyCfg := s.cfg.Body
	bodyCfg.Volume = 8 * half * half * half * 0.5
	b := buoyancy.New(bodyCfg, s.feedback, pos, buoyancy.BoxProbes(half, half*0.5, half))
	b.Place(pos, mgl64.QuatRotate(yaw, mgl64.Vec3{0, 1, 0}))
	s.bodies = append(s.bodies, b)
	return b
}

// Close releases the water's device resources.
func (s *Scene) Close() error {
	s.water.Close()
	return nil
}

// Stats combines surface statistics with body counters.
type Stats struct {
	water.Stats
	Bodies   int
	Floating int
	Splashes int
}

// Stats returns a summary for HUDs and logs.
func (s *Scene) Stats() Stats {
	st := Stats{Stats: s.water.Stats(), Bodies: len(s.bodies), Splashes: s.Splashes()}
	for _, b := range s.bodies {
		if b.Last().Submerged > 0 {
			st.Floating++
		}
	}
	return st
}

// Foam returns the live foam mask.
func (s *Scene) Foam() []float32 { return s.water.Foam() }

// Normals returns the live tangent-space normals.
func (s *Scene) Normals() []float32 { return s.water.Normals() }

// SlopeAt returns the surface gradient direction at fractional cell (x, y),
// taken from the stored normal.
func (s *Scene) SlopeAt(x, y float64) (float64, float64) {
	normals := s.water.Normals()
	size := s.Size()
	cx := core.ClampInt(int(x), 0, size.W-1)
	cy := core.ClampInt(int(y), 0, size.H-1)
	i := 3 * (cy*size.W + cx)
	if i+1 >= len(normals) {
		return 0, 0
	}
	return -float64(normals[i]), -float64(normals[i+1])
}

// ProbeMarkers appends the grid position of every body probe to dst. Active
// marks probes that were under water on the last update.
func (s *Scene) ProbeMarkers(dst []core.Marker) []core.Marker {
	surf := s.water.Surface()
	size := s.Size()
	for _, b := range s.bodies {
		depths := b.Depths()
		for i := range b.Probes() {
			local := surf.ToLocal(b.ProbeWorld(i))
			x, y := surf.GridCoords(local.X(), local.Y(), size.W, size.H)
			dst = append(dst, core.Marker{X: x, Y: y, Active: depths[i] > 0})
		}
	}
	return dst
}

// StatusLines summarises the scene for on-screen display.
func (s *Scene) StatusLines() []string {
	st := s.Stats()
	return []string{
		fmt.Sprintf("t=%.1fs steps=%d solver=%s", st.SimTime, st.Steps, st.Solver),
		fmt.Sprintf("h=[%.2f, %.2f] energy=%.4f", st.MinHeight, st.MaxHeight, st.Energy),
		fmt.Sprintf("sources=%d bodies=%d/%d splashes=%d", st.Sources, st.Floating, st.Bodies, st.Splashes),
	}
}
