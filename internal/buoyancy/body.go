// Package buoyancy floats rigid bodies on a sampled water surface.
package buoyancy

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"ripple/internal/core"
)

// Water is what a body needs from the surface it floats on. The water never
// references bodies.
type Water interface {
	HeightAt(p mgl64.Vec3) float64
	Splash(p mgl64.Vec3, radius, strength float64) bool
}

// Probe is a sample point in body-local coordinates.
type Probe struct {
	Offset mgl64.Vec3
}

// BoxProbes returns the eight corners of a box with the given half extents.
func BoxProbes(hx, hy, hz float64) []Probe {
	probes := make([]Probe, 0, 8)
	for _, y := range []float64{-hy, hy} {
		for _, z := range []float64{-hz, hz} {
			for _, x := range []float64{-hx, hx} {
				probes = append(probes, Probe{Offset: mgl64.Vec3{x, y, z}})
			}
		}
	}
	return probes
}

// HullProbes returns four probes on the bottom face of a box.
func HullProbes(hx, hy, hz float64) []Probe {
	return []Probe{
		{Offset: mgl64.Vec3{-hx, -hy, -hz}},
		{Offset: mgl64.Vec3{hx, -hy, -hz}},
		{Offset: mgl64.Vec3{-hx, -hy, hz}},
		{Offset: mgl64.Vec3{hx, -hy, hz}},
	}
}

// Result reports the forces computed by one Update.
type Result struct {
	// Buoyancy is the summed upward probe force, excluding gravity.
	Buoyancy mgl64.Vec3
	// Net is Buoyancy plus the body's weight.
	Net    mgl64.Vec3
	Torque mgl64.Vec3

	Submerged int
	// AvgDepth is the mean depth of the submerged probes.
	AvgDepth float64
	// Contact is the mean world position of the submerged probes.
	Contact  mgl64.Vec3
	Splashed bool
}

// Body is a rigid body floated by its probes.
type Body struct {
	cfg    Config
	water  Water
	probes []Probe

	Position        mgl64.Vec3
	Orientation     mgl64.Quat
	Velocity        mgl64.Vec3
	AngularVelocity mgl64.Vec3

	mass    float64
	inertia float64
	depths  []float64
	last    Result
}

// New creates a body at pos sampling water through the given probes.
func New(cfg Config, water Water, pos mgl64.Vec3, probes []Probe) *Body {
	b := &Body{
		cfg:         cfg,
		water:       water,
		probes:      append([]Probe(nil), probes...),
		Position:    pos,
		Orientation: mgl64.QuatIdent(),
		depths:      make([]float64, len(probes)),
	}
	b.mass = cfg.Density * cfg.Volume
	if b.mass <= 0 {
		b.mass = 1
	}
	b.inertia = cfg.Inertia
	if b.inertia <= 0 {
		sum := 0.0
		for _, p := range probes {
			sum += p.Offset.Dot(p.Offset)
		}
		if len(probes) > 0 {
			b.inertia = b.mass * sum / float64(len(probes))
		}
		if b.inertia <= 0 {
			b.inertia = b.mass
		}
	}
	return b
}

// Mass returns density times volume.
func (b *Body) Mass() float64 { return b.mass }

// Probes returns the probe layout.
func (b *Body) Probes() []Probe { return b.probes }

// Depths returns the per-probe depth from the last Update; positive is
// submerged.
func (b *Body) Depths() []float64 { return b.depths }

// Last returns the result of the most recent Update.
func (b *Body) Last() Result { return b.last }

// ProbeWorld returns the world position of probe i.
func (b *Body) ProbeWorld(i int) mgl64.Vec3 {
	return b.Position.Add(b.Orientation.Rotate(b.probes[i].Offset))
}

// Forces samples the water at every probe and returns the buoyant force and
// torque without integrating.
func (b *Body) Forces() Result {
	var res Result
	n := len(b.probes)
	if n == 0 {
		res.Net = mgl64.Vec3{0, -b.mass * b.cfg.Gravity, 0}
		return res
	}
	share := b.cfg.FluidDensity * b.cfg.Gravity * b.cfg.Volume / float64(n)
	depthSum := 0.0
	var contact mgl64.Vec3
	for i := range b.probes {
		world := b.ProbeWorld(i)
		depth := b.water.HeightAt(world) - world.Y()
		b.depths[i] = depth
		if depth <= 0 {
			continue
		}
		scale := 1.0
		if b.cfg.DepthScale > 0 {
			scale = core.Clamp(depth/b.cfg.DepthScale, 0, 1)
		}
		force := mgl64.Vec3{0, share * scale, 0}
		lever := world.Sub(b.Position)
		res.Buoyancy = res.Buoyancy.Add(force)
		res.Torque = res.Torque.Add(lever.Cross(force))
		res.Submerged++
		depthSum += depth
		contact = contact.Add(world)
	}
	if res.Submerged > 0 {
		res.AvgDepth = depthSum / float64(res.Submerged)
		res.Contact = contact.Mul(1 / float64(res.Submerged))
	}
	res.Net = res.Buoyancy.Add(mgl64.Vec3{0, -b.mass * b.cfg.Gravity, 0})
	return res
}

// Update samples the water, integrates the body over dt and, when it strikes
// the surface hard enough, splashes back into the water. Non-positive or
// non-finite dt leaves the body untouched.
func (b *Body) Update(dt float64) Result {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return b.last
	}
	res := b.Forces()
	n := len(b.probes)
	wet := 0.0
	if n > 0 {
		wet = float64(res.Submerged) / float64(n)
	}

	accel := res.Net.Mul(1 / b.mass)
	b.Velocity = b.Velocity.Add(mgl64.Vec3{0, accel.Y() * dt, 0})
	b.Velocity = b.Velocity.Mul(math.Exp(-b.cfg.LinearDrag * wet * dt))
	b.Position = b.Position.Add(b.Velocity.Mul(dt))

	b.AngularVelocity = b.AngularVelocity.Add(res.Torque.Mul(dt / b.inertia))
	b.AngularVelocity = b.AngularVelocity.Mul(math.Exp(-b.cfg.AngularDrag * wet * dt))
	spin := mgl64.Quat{W: 0, V: b.AngularVelocity}
	b.Orientation = b.Orientation.Add(spin.Mul(b.Orientation).Scale(0.5 * dt)).Normalize()

	speed := b.Velocity.Len()
	if res.Submerged > 0 && res.AvgDepth > b.cfg.SplashDepth && speed > b.cfg.SplashSpeed {
		strength := b.cfg.SplashGain * speed
		if b.Velocity.Y() < 0 {
			strength = -strength
		}
		res.Splashed = b.water.Splash(res.Contact, b.cfg.SplashRadius, strength)
	}
	b.last = res
	return res
}

// Place teleports the body and clears its motion.
func (b *Body) Place(pos mgl64.Vec3, rot mgl64.Quat) {
	b.Position = pos
	b.Orientation = rot.Normalize()
	b.Velocity = mgl64.Vec3{}
	b.AngularVelocity = mgl64.Vec3{}
	b.last = Result{}
}
