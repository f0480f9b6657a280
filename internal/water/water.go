package water

import (
	"errors"
	"log"
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"ripple/internal/core"
)

// ErrGPUUnavailable is returned when the OpenCL solver cannot be created.
var ErrGPUUnavailable = errors.New("water: gpu solver unavailable")

// Water ties the field, sources, splash injector, simulator, estimator and
// height query together behind one lock so that UI and network goroutines
// may interact with a running surface.
type Water struct {
	mu sync.RWMutex

	cfg       Config
	field     *HeightField
	sources   *WaveSourceRegistry
	splash    *SplashInjector
	sim       *GridSimulator
	estimator *NormalFoamEstimator
	surface   Surface
	query     *HeightQuery
	steps     int
}

// New constructs a water surface with default parameters.
func New(w, h int) *Water {
	cfg := DefaultConfig()
	cfg.Width = w
	cfg.Height = h
	return NewWithConfig(cfg)
}

// NewWithConfig constructs a water surface using the provided configuration.
func NewWithConfig(cfg Config) *Water {
	if cfg.Width <= 0 {
		cfg.Width = 1
	}
	if cfg.Height <= 0 {
		cfg.Height = 1
	}
	if cfg.HalfExtentX <= 0 {
		cfg.HalfExtentX = float64(cfg.Width) / 2
	}
	if cfg.HalfExtentY <= 0 {
		cfg.HalfExtentY = float64(cfg.Height) / 2
	}
	wt := &Water{cfg: cfg}
	wt.field = NewHeightField(cfg.Width, cfg.Height, cfg.HalfExtentX, cfg.HalfExtentY)
	wt.sources = NewWaveSourceRegistry(cfg.Params)
	wt.splash = NewSplashInjector()
	wt.sim = NewGridSimulator(wt.field, wt.sources, wt.splash, cfg.Params, cfg.HalfExtentX, cfg.HalfExtentY, cfg.Workers)
	wt.estimator = NewNormalFoamEstimator(cfg.Width, cfg.Height)
	wt.surface = NewSurface(cfg.Position, cfg.HalfExtentX, cfg.HalfExtentY)
	wt.query = NewHeightQuery(wt.field, &wt.surface)
	if cfg.UseGPU {
		solver, err := newGPUSolver(wt.field)
		if err != nil {
			log.Printf("water: using CPU solver: %v", err)
		} else {
			log.Printf("water: using %s", solver.Name())
			wt.sim.useSolver(solver)
		}
	}
	return wt
}

// Config returns the configuration the surface was built with.
func (w *Water) Config() Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	cfg := w.cfg
	cfg.Params = w.sim.Params()
	return cfg
}

// Size reports the grid dimensions.
func (w *Water) Size() core.Size {
	return core.Size{W: w.field.Width(), H: w.field.Height()}
}

// MaxSubsteps bounds the substeps of one Step call.
const MaxSubsteps = 64

// Step advances the surface by dt, splitting it into substeps no longer than
// the stable limit. Deltas longer than MaxSubsteps stable steps are shortened
// to that span. Pending splashes are applied by the first substep.
func (w *Water) Step(dt float64) error {
	if dt < 0 || !finite(dt) {
		return ErrInvalidDelta
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 1
	if limit := w.sim.StableDelta(); limit > 0 && dt > limit {
		count := math.Ceil(dt / limit)
		if count > MaxSubsteps {
			// Drop the backlog past the cap.
			count = MaxSubsteps
			dt = MaxSubsteps * limit
		}
		n = int(count)
	}
	sub := dt / float64(n)
	for i := 0; i < n; i++ {
		if err := w.sim.Step(sub); err != nil {
			return err
		}
		w.steps++
	}
	w.estimator.Update(w.field, w.sim.Params())
	return nil
}

// Splash queues a one-shot impulse at a world position. It reports false when
// the radius or strength is unusable.
func (w *Water) Splash(pos mgl64.Vec3, radius, strength float64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	local := w.surface.ToLocal(pos)
	return w.splash.Queue(local.X(), local.Y(), radius, strength)
}

// SplashLocal queues an impulse at plane-local coordinates.
func (w *Water) SplashLocal(x, y, radius, strength float64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.splash.Queue(x, y, radius, strength)
}

// SplashCell queues an impulse centred on grid node (x, y) with the radius
// given in cells.
func (w *Water) SplashCell(x, y int, radiusCells, strength float64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	x = core.ClampInt(x, 0, w.field.Width()-1)
	y = core.ClampInt(y, 0, w.field.Height()-1)
	cellX, cellY := w.field.CellSize()
	return w.splash.Queue(w.sim.xs[x], w.sim.ys[y], radiusCells*math.Max(cellX, cellY), strength)
}

// AddPlaneWave registers a directional source; it applies from the next step.
func (w *Water) AddPlaneWave(p PlaneWaveParams) WaveID {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sources.AddPlaneWave(p)
}

// AddRadialWave registers a point source; it applies from the next step.
func (w *Water) AddRadialWave(p RadialWaveParams) WaveID {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sources.AddRadialWave(p)
}

// DisableWave silences a source.
func (w *Water) DisableWave(id WaveID) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sources.Disable(id)
}

// SetWaveAmplitude changes the amplitude of a source.
func (w *Water) SetWaveAmplitude(id WaveID, amp float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sources.SetAmplitude(id, amp)
}

// ClearWaves silences every source.
func (w *Water) ClearWaves() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sources.Clear()
}

// Sources returns a copy of every registry slot.
func (w *Water) Sources() ([]PlaneWave, []RadialWave) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	planes := make([]PlaneWave, WaveCapacity)
	radials := make([]RadialWave, WaveCapacity)
	for i := 0; i < WaveCapacity; i++ {
		planes[i] = w.sources.Plane(i)
		radials[i] = w.sources.Radial(i)
	}
	return planes, radials
}

// HeightAt returns the world Y of the surface below p.
func (w *Water) HeightAt(p mgl64.Vec3) float64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.query.HeightAt(p)
}

// DisplacementAt returns the displacement along the plane normal below p.
func (w *Water) DisplacementAt(p mgl64.Vec3) float64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.query.DisplacementAt(p)
}

// Heights returns the live height buffer. It is only safe to read from the
// goroutine that calls Step; other goroutines should use CopyFrame.
func (w *Water) Heights() []float32 { return w.field.Heights() }

// Normals returns the live normal buffer, three floats per cell.
func (w *Water) Normals() []float32 { return w.estimator.Normals() }

// Foam returns the live foam buffer.
func (w *Water) Foam() []float32 { return w.estimator.Foam() }

// Frame is a copy of the readable buffers.
type Frame struct {
	Width   int
	Height  int
	SimTime float64
	Heights []float32
	Normals []float32
	Foam    []float32
}

// CopyFrame copies the current buffers into dst, growing its slices as
// needed, and returns it.
func (w *Water) CopyFrame(dst *Frame) *Frame {
	if dst == nil {
		dst = &Frame{}
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	dst.Width = w.field.Width()
	dst.Height = w.field.Height()
	dst.SimTime = w.sim.SimTime()
	dst.Heights = append(dst.Heights[:0], w.field.Heights()...)
	dst.Normals = append(dst.Normals[:0], w.estimator.Normals()...)
	dst.Foam = append(dst.Foam[:0], w.estimator.Foam()...)
	return dst
}

// Surface returns the plane placement.
func (w *Water) Surface() Surface {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.surface
}

// SetSurface moves or tilts the plane. Extents are fixed at construction.
func (w *Water) SetSurface(pos mgl64.Vec3, rot mgl64.Quat) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.surface.Position = pos
	w.surface.Rotation = rot.Normalize()
}

// LocalToCell maps a world point to the nearest grid node.
func (w *Water) LocalToCell(p mgl64.Vec3) (int, int) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	local := w.surface.ToLocal(p)
	gx, gy := w.surface.GridCoords(local.X(), local.Y(), w.field.Width(), w.field.Height())
	return int(math.Round(gx)), int(math.Round(gy))
}

// CellToWorld returns the resting world position of grid node (x, y).
func (w *Water) CellToWorld(x, y int) mgl64.Vec3 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	x = core.ClampInt(x, 0, w.field.Width()-1)
	y = core.ClampInt(y, 0, w.field.Height()-1)
	return w.surface.ToWorld(mgl64.Vec3{w.sim.xs[x], w.sim.ys[y], 0})
}

// SimTime returns the simulation clock.
func (w *Water) SimTime() float64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.sim.SimTime()
}

// LastStep reports counters from the most recent substep.
func (w *Water) LastStep() StepStats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.sim.LastStats()
}

// Solver names the active integrator.
func (w *Water) Solver() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.sim.SolverName()
}

// Reset zeroes the field, clock, sources and pending splashes.
func (w *Water) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sim.Reset()
	w.sources.Reset()
	w.estimator.Reset()
	w.steps = 0
}

// Close releases the GPU solver, if any.
func (w *Water) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sim.useSolver(nil)
}

// Stats summarises the current height field.
type Stats struct {
	Steps     int
	SimTime   float64
	MinHeight float64
	MaxHeight float64
	Mean      float64
	// MaxAbs is the largest absolute height.
	MaxAbs float64
	// Energy is the sum of squared heights and velocities per cell.
	Energy  float64
	Sources int
	Solver  string
}

// Stats computes height and energy statistics for the current snapshot.
func (w *Water) Stats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	heights := w.field.Heights()
	velocities := w.field.Velocities()
	st := Stats{
		Steps:     w.steps,
		SimTime:   w.sim.SimTime(),
		MinHeight: math.Inf(1),
		MaxHeight: math.Inf(-1),
		Sources:   w.sources.ActiveCount(),
		Solver:    w.sim.SolverName(),
	}
	sum := 0.0
	for i, hv := range heights {
		h := float64(hv)
		v := float64(velocities[i])
		sum += h
		st.MinHeight = math.Min(st.MinHeight, h)
		st.MaxHeight = math.Max(st.MaxHeight, h)
		st.MaxAbs = math.Max(st.MaxAbs, math.Abs(h))
		st.Energy += h*h + v*v
	}
	if n := len(heights); n > 0 {
		st.Mean = sum / float64(n)
		st.Energy /= float64(n)
	}
	return st
}
