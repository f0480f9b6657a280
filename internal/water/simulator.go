package water

import (
	"errors"
	"log"
	"math"
	"runtime"
	"sync"

	"ripple/internal/core"
)

// ErrInvalidDelta is returned when a step is requested with a negative or
// non-finite time delta.
var ErrInvalidDelta = errors.New("water: invalid time delta")

// minRowsPerWorker keeps small grids on a single goroutine.
const minRowsPerWorker = 16

// StepStats summarises the last completed step.
type StepStats struct {
	SimTime      float64
	Sources      int
	Splashes     int
	SplashCells  int
	ClampedCells int
}

// stepSolver advances the field on an alternate device. Implementations
// write the post-step state into the field's next buffers.
type stepSolver interface {
	Step(s *GridSimulator, dt float64) error
	Reset()
	Close()
	Name() string
}

// GridSimulator integrates the height field. It is the only writer of the
// field buffers.
type GridSimulator struct {
	field   *HeightField
	sources *WaveSourceRegistry
	splash  *SplashInjector
	params  Params

	c2        float64
	xs        []float64
	ys        []float64
	edge      []float32
	edgeDirty bool

	simTime float64
	workers int

	planes   []PlaneWave
	radials  []RadialWave
	impulses []SplashImpulse
	stamps   []splashStamp
	nStamps  int
	clamped  []int

	solver stepSolver
	last   StepStats
}

// NewGridSimulator wires a simulator to its field, registry and injector.
// workers <= 0 uses GOMAXPROCS.
func NewGridSimulator(field *HeightField, sources *WaveSourceRegistry, splash *SplashInjector, p Params, halfX, halfY float64, workers int) *GridSimulator {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	s := &GridSimulator{
		field:   field,
		sources: sources,
		splash:  splash,
		workers: workers,
	}
	s.xs = nodeCoords(field.Width(), halfX, field.cellX)
	s.ys = nodeCoords(field.Height(), halfY, field.cellY)
	s.SetParams(p)
	return s
}

func nodeCoords(n int, half, cell float64) []float64 {
	coords := make([]float64, n)
	if n == 1 {
		return coords
	}
	for i := range coords {
		coords[i] = -half + float64(i)*cell
	}
	return coords
}

// SetParams replaces the tuning constants. It takes effect on the next step.
// Clamp bounds outside the hard limits are pulled back to them.
func (s *GridSimulator) SetParams(p Params) {
	p = clampLimits(p)
	s.params = p
	s.c2 = p.GravityScale * float64(s.field.Width())
	s.sources.configure(p)
	s.edge = edgeMask(s.field.Width(), s.field.Height(), p.EdgeBand, p.EdgeDamping)
	s.edgeDirty = true
}

// Params returns the active tuning constants.
func (s *GridSimulator) Params() Params { return s.params }

// SimTime returns the accumulated simulation clock.
func (s *GridSimulator) SimTime() float64 { return s.simTime }

// LastStats reports counters from the most recent step.
func (s *GridSimulator) LastStats() StepStats { return s.last }

// StableDelta returns the longest step the explicit integrator tolerates for
// the current wave speed, capped by MaxSubstep.
func (s *GridSimulator) StableDelta() float64 {
	limit := s.params.MaxSubstep
	if s.c2 > 0 {
		cfl := 0.6 / math.Sqrt(s.c2)
		if limit <= 0 || cfl < limit {
			limit = cfl
		}
	}
	return limit
}

// edgeMask precomputes the per-cell velocity multiplier of the absorbing
// border: 1 in the interior, easing to 1-damping on the outermost ring.
func edgeMask(w, h int, band, damping float64) []float32 {
	mask := make([]float32, w*h)
	bandX := math.Max(1, band*float64(w-1))
	bandY := math.Max(1, band*float64(h-1))
	if band <= 0 {
		bandX, bandY = 0, 0
	}
	damping = core.Clamp(damping, 0, 1)
	for y := 0; y < h; y++ {
		dy := float64(min(y, h-1-y))
		ty := core.Smoothstep(0, bandY, dy)
		for x := 0; x < w; x++ {
			dx := float64(min(x, w-1-x))
			t := math.Min(core.Smoothstep(0, bandX, dx), ty)
			mask[y*w+x] = float32(1 - damping*(1-t))
		}
	}
	return mask
}

// Step advances the field by dt. Registry and splash state are captured at
// the start of the step.
func (s *GridSimulator) Step(dt float64) error {
	if dt < 0 || !finite(dt) {
		return ErrInvalidDelta
	}
	s.simTime += dt
	s.planes, s.radials = s.sources.snapshot(s.planes, s.radials)
	s.impulses = s.splash.consume(s.impulses)
	s.prepareStamps()

	if s.solver != nil {
		s.clamped = s.clamped[:0]
		if err := s.solver.Step(s, dt); err != nil {
			log.Printf("water: %s solver failed, continuing on CPU: %v", s.solver.Name(), err)
			s.solver.Close()
			s.solver = nil
			s.integrate(dt)
		}
	} else {
		s.integrate(dt)
	}
	s.field.swap()

	s.last = StepStats{
		SimTime:  s.simTime,
		Sources:  len(s.planes) + len(s.radials),
		Splashes: s.nStamps,
	}
	for i := 0; i < s.nStamps; i++ {
		s.last.SplashCells += s.stamps[i].w * s.stamps[i].h
	}
	for _, n := range s.clamped {
		s.last.ClampedCells += n
	}
	return nil
}

func (s *GridSimulator) prepareStamps() {
	s.nStamps = 0
	for len(s.stamps) < len(s.impulses) {
		s.stamps = append(s.stamps, splashStamp{})
	}
	for _, imp := range s.impulses {
		st := &s.stamps[s.nStamps]
		if buildStamp(st, imp, s.xs, s.ys, s.field.cellX, s.field.cellY, s.params.SplashSigma, s.params.SplashGain) {
			s.nStamps++
		}
	}
}

// integrate runs the CPU update, partitioning rows across workers.
func (s *GridSimulator) integrate(dt float64) {
	rows := s.field.Height()
	workers := s.workers
	if maxWorkers := rows / minRowsPerWorker; workers > maxWorkers {
		workers = maxWorkers
	}
	if workers < 1 {
		workers = 1
	}
	if cap(s.clamped) < workers {
		s.clamped = make([]int, workers)
	}
	s.clamped = s.clamped[:workers]
	if workers == 1 {
		s.clamped[0] = s.stepRows(0, rows, dt)
		return
	}
	chunk := (rows + workers - 1) / workers
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		y0 := w * chunk
		y1 := min(y0+chunk, rows)
		if y0 >= y1 {
			s.clamped[w] = 0
			continue
		}
		wg.Add(1)
		go func(slot, y0, y1 int) {
			defer wg.Done()
			s.clamped[slot] = s.stepRows(y0, y1, dt)
		}(w, y0, y1)
	}
	wg.Wait()
}

// stepRows updates rows [y0, y1) and returns how many cells hit a clamp.
func (s *GridSimulator) stepRows(y0, y1 int, dt float64) int {
	w := s.field.Width()
	h := s.field.Height()
	ch, cv := s.field.current()
	nh, nv := s.field.next()
	p := &s.params
	stamps := s.stamps[:s.nStamps]
	forced := len(s.planes)+len(s.radials) > 0
	keep := 1 - p.VelocityDecay
	t := s.simTime
	clamped := 0

	for y := y0; y < y1; y++ {
		row := y * w
		up := row - w
		if y == 0 {
			up = row
		}
		down := row + w
		if y == h-1 {
			down = row
		}
		for x := 0; x < w; x++ {
			idx := row + x
			c := float64(ch[idx])
			l := ch[idx]
			if x > 0 {
				l = ch[idx-1]
			}
			r := ch[idx]
			if x < w-1 {
				r = ch[idx+1]
			}
			lap := float64(l) + float64(r) + float64(ch[up+x]) + float64(ch[down+x]) - 4*c

			f := 0.0
			if forced {
				f = forcing(s.planes, s.radials, s.xs[x], s.ys[y], t) * p.ForceGain
			}
			v := float64(cv[idx]) + (s.c2*lap+f)*dt
			for i := range stamps {
				v += stamps[i].at(x, y)
			}
			v = core.Clamp(v, -p.MaxVelocity, p.MaxVelocity)

			hv := c + v*dt + p.Viscosity*lap*dt
			v *= keep
			hv -= hv * p.BaselineReturn * dt
			v *= float64(s.edge[idx])

			if hv > p.MaxHeight || hv < -p.MaxHeight || !finite(hv) {
				clamped++
			}
			nh[idx] = float32(clampFinite(hv, p.MaxHeight))
			nv[idx] = float32(clampFinite(v, p.MaxVelocity))
		}
	}
	return clamped
}

func clampFinite(v, limit float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return core.Clamp(v, -limit, limit)
}

// Reset zeroes the field and the clock and drops pending splashes.
func (s *GridSimulator) Reset() {
	s.field.reset()
	s.splash.Reset()
	s.simTime = 0
	s.last = StepStats{}
	if s.solver != nil {
		s.solver.Reset()
	}
}

// useSolver installs an alternate step solver; nil restores the CPU path.
func (s *GridSimulator) useSolver(solver stepSolver) {
	if s.solver != nil {
		s.solver.Close()
	}
	s.solver = solver
}

// SolverName reports the active solver.
func (s *GridSimulator) SolverName() string {
	if s.solver != nil {
		return s.solver.Name()
	}
	return "cpu"
}
