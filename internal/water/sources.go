package water

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// WaveCapacity is the number of slots per source kind. Adding beyond it
// overwrites the oldest slot.
const WaveCapacity = 4

// ErrUnknownWave reports a WaveID that does not name a registry slot.
var ErrUnknownWave = errors.New("water: unknown wave id")

// WaveKind distinguishes plane and radial sources.
type WaveKind uint8

const (
	WavePlane WaveKind = iota
	WaveRadial
)

func (k WaveKind) String() string {
	switch k {
	case WavePlane:
		return "plane"
	case WaveRadial:
		return "radial"
	default:
		return fmt.Sprintf("WaveKind(%d)", uint8(k))
	}
}

// WaveID names a registry slot.
type WaveID struct {
	Kind WaveKind
	Slot int
}

// PlaneWaveParams describes a directional source. Omega, Period and Speed
// are optional; zero leaves them unset.
type PlaneWaveParams struct {
	Direction  mgl64.Vec2
	Wavelength float64
	Amplitude  float64
	Phase      float64
	Speed      float64
	Omega      float64
	Period     float64
}

// RadialWaveParams describes a point source in plane-local coordinates.
type RadialWaveParams struct {
	Center     mgl64.Vec2
	Wavelength float64
	Amplitude  float64
	// Decay is the inverse envelope spread; the bell width is 1/Decay.
	Decay  float64
	Phase  float64
	Speed  float64
	Omega  float64
	Period float64
}

// PlaneWave is a resolved directional source.
type PlaneWave struct {
	Dir       mgl64.Vec2
	K         float64
	Omega     float64
	Amplitude float64
	Phase     float64
	// Degenerate marks sources whose parameters could not be resolved. They
	// keep their slot with zero amplitude.
	Degenerate bool
}

// Active reports whether the source contributes forcing.
func (w PlaneWave) Active() bool { return !w.Degenerate && w.Amplitude != 0 }

// RadialWave is a resolved point source.
type RadialWave struct {
	Center     mgl64.Vec2
	K          float64
	Omega      float64
	Amplitude  float64
	Decay      float64
	Phase      float64
	Degenerate bool
}

// Active reports whether the source contributes forcing.
func (w RadialWave) Active() bool { return !w.Degenerate && w.Amplitude != 0 }

// WaveSourceRegistry keeps the bounded plane and radial source rings.
type WaveSourceRegistry struct {
	plane        [WaveCapacity]PlaneWave
	radial       [WaveCapacity]RadialWave
	planeCursor  int
	radialCursor int

	gravity  float64
	minOmega float64
}

// NewWaveSourceRegistry returns an empty registry using the dispersion
// constants from p.
func NewWaveSourceRegistry(p Params) *WaveSourceRegistry {
	r := &WaveSourceRegistry{}
	r.configure(p)
	return r
}

func (r *WaveSourceRegistry) configure(p Params) {
	r.gravity = p.SimGravity
	r.minOmega = p.MinOmega
}

// AddPlaneWave stores a directional source in the next ring slot.
func (r *WaveSourceRegistry) AddPlaneWave(p PlaneWaveParams) WaveID {
	k, omega := Dispersion(p.Wavelength, p.Omega, p.Period, p.Speed, r.gravity, r.minOmega)
	dir := p.Direction
	length := dir.Len()
	degenerate := k == 0 || !finite(k) || !finite(omega) || !finite(p.Amplitude) || !finite(p.Phase) || length == 0 || !finite(length)
	wave := PlaneWave{K: k, Omega: omega, Amplitude: p.Amplitude, Phase: p.Phase, Degenerate: degenerate}
	if degenerate {
		wave.Amplitude = 0
	} else {
		wave.Dir = dir.Mul(1 / length)
	}
	slot := r.planeCursor
	r.plane[slot] = wave
	r.planeCursor = (slot + 1) % WaveCapacity
	return WaveID{Kind: WavePlane, Slot: slot}
}

// AddRadialWave stores a point source in the next ring slot.
func (r *WaveSourceRegistry) AddRadialWave(p RadialWaveParams) WaveID {
	k, omega := Dispersion(p.Wavelength, p.Omega, p.Period, p.Speed, r.gravity, r.minOmega)
	degenerate := k == 0 || !finite(k) || !finite(omega) || !finite(p.Amplitude) || !finite(p.Phase) ||
		!(p.Decay > 0) || !finite(p.Decay) || !finite(p.Center.X()) || !finite(p.Center.Y())
	wave := RadialWave{
		Center:     p.Center,
		K:          k,
		Omega:      omega,
		Amplitude:  p.Amplitude,
		Decay:      p.Decay,
		Phase:      p.Phase,
		Degenerate: degenerate,
	}
	if degenerate {
		wave.Amplitude = 0
	}
	slot := r.radialCursor
	r.radial[slot] = wave
	r.radialCursor = (slot + 1) % WaveCapacity
	return WaveID{Kind: WaveRadial, Slot: slot}
}

// Disable zeroes the amplitude of the named slot. The slot keeps its other
// parameters and can be reactivated with SetAmplitude.
func (r *WaveSourceRegistry) Disable(id WaveID) error {
	return r.SetAmplitude(id, 0)
}

// SetAmplitude changes the amplitude of the named slot. Degenerate slots stay
// at zero.
func (r *WaveSourceRegistry) SetAmplitude(id WaveID, amp float64) error {
	if id.Slot < 0 || id.Slot >= WaveCapacity {
		return fmt.Errorf("slot %d: %w", id.Slot, ErrUnknownWave)
	}
	if !finite(amp) {
		amp = 0
	}
	switch id.Kind {
	case WavePlane:
		if !r.plane[id.Slot].Degenerate {
			r.plane[id.Slot].Amplitude = amp
		}
	case WaveRadial:
		if !r.radial[id.Slot].Degenerate {
			r.radial[id.Slot].Amplitude = amp
		}
	default:
		return fmt.Errorf("kind %s: %w", id.Kind, ErrUnknownWave)
	}
	return nil
}

// Clear zeroes the amplitude of every slot.
func (r *WaveSourceRegistry) Clear() {
	for i := range r.plane {
		r.plane[i].Amplitude = 0
	}
	for i := range r.radial {
		r.radial[i].Amplitude = 0
	}
}

// Reset empties every slot and rewinds both cursors.
func (r *WaveSourceRegistry) Reset() {
	r.plane = [WaveCapacity]PlaneWave{}
	r.radial = [WaveCapacity]RadialWave{}
	r.planeCursor = 0
	r.radialCursor = 0
}

// Plane returns the source stored in slot i.
func (r *WaveSourceRegistry) Plane(i int) PlaneWave {
	if i < 0 || i >= WaveCapacity {
		return PlaneWave{}
	}
	return r.plane[i]
}

// Radial returns the source stored in slot i.
func (r *WaveSourceRegistry) Radial(i int) RadialWave {
	if i < 0 || i >= WaveCapacity {
		return RadialWave{}
	}
	return r.radial[i]
}

// ActiveCount returns the number of sources currently contributing forcing.
func (r *WaveSourceRegistry) ActiveCount() int {
	n := 0
	for _, w := range r.plane {
		if w.Active() {
			n++
		}
	}
	for _, w := range r.radial {
		if w.Active() {
			n++
		}
	}
	return n
}

// snapshot appends the active sources to the provided slices. The simulator
// calls it once per step so registry edits apply from the next step.
func (r *WaveSourceRegistry) snapshot(planes []PlaneWave, radials []RadialWave) ([]PlaneWave, []RadialWave) {
	planes = planes[:0]
	radials = radials[:0]
	for _, w := range r.plane {
		if w.Active() {
			planes = append(planes, w)
		}
	}
	for _, w := range r.radial {
		if w.Active() {
			radials = append(radials, w)
		}
	}
	return planes, radials
}

// forcing evaluates the summed analytic forcing at plane-local (x, y).
func forcing(planes []PlaneWave, radials []RadialWave, x, y, t float64) float64 {
	sum := 0.0
	for i := range planes {
		w := &planes[i]
		along := w.Dir.X()*x + w.Dir.Y()*y
		sum += w.Amplitude * math.Sin(w.K*along-w.Omega*t+w.Phase)
	}
	for i := range radials {
		w := &radials[i]
		dx := x - w.Center.X()
		dy := y - w.Center.Y()
		r := math.Sqrt(dx*dx + dy*dy)
		sum += w.Amplitude * mexicanHat(r*w.Decay) * math.Sin(w.K*r-w.Omega*t+w.Phase)
	}
	if !finite(sum) {
		return 0
	}
	return sum
}
