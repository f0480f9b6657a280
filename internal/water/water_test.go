package water

import (
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func smallConfig(w, h int) Config {
	cfg := DefaultConfig()
	cfg.Width = w
	cfg.Height = h
	cfg.HalfExtentX = float64(w) / 2
	cfg.HalfExtentY = float64(h) / 2
	cfg.Workers = 1
	return cfg
}

func TestNoSourcesStaysZero(t *testing.T) {
	w := New(8, 8)
	id := w.AddPlaneWave(PlaneWaveParams{Direction: mgl64.Vec2{1, 0}, Wavelength: 4, Amplitude: 1})
	if err := w.DisableWave(id); err != nil {
		t.Fatalf("disable: %v", err)
	}
	for i := 0; i < 60; i++ {
		if err := w.Step(1.0 / 60.0); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	for i, h := range w.Heights() {
		if h != 0 {
			t.Fatalf("height[%d] = %v, want exactly 0", i, h)
		}
	}
	for i, n := range w.Foam() {
		if n != 0 {
			t.Fatalf("foam[%d] = %v, want 0", i, n)
		}
	}
}

func TestStepKeepsValuesWithinClamps(t *testing.T) {
	cfg := smallConfig(32, 32)
	w := NewWithConfig(cfg)
	w.AddPlaneWave(PlaneWaveParams{Direction: mgl64.Vec2{1, 1}, Wavelength: 3, Amplitude: 1e6, Speed: 4})
	w.AddRadialWave(RadialWaveParams{Wavelength: 5, Amplitude: -1e6, Decay: 0.2})
	for i := 0; i < 120; i++ {
		w.SplashLocal(0, 0, 5, 1e9)
		if err := w.Step(1.0 / 30.0); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		for idx, h := range w.field.Heights() {
			if h < -5 || h > 5 || h != h {
				t.Fatalf("step %d: height[%d] = %v outside [-5,5]", i, idx, h)
			}
		}
		for idx, v := range w.field.Velocities() {
			if v < -20 || v > 20 || v != v {
				t.Fatalf("step %d: velocity[%d] = %v outside [-20,20]", i, idx, v)
			}
		}
	}
}

func TestClearReturnsToBaseline(t *testing.T) {
	w := NewWithConfig(smallConfig(32, 32))
	w.AddRadialWave(RadialWaveParams{Wavelength: 8, Amplitude: 1, Decay: 0.15})
	for i := 0; i < 120; i++ {
		if err := w.Step(1.0 / 60.0); err != nil {
			t.Fatalf("step: %v", err)
		}
	}
	if w.Stats().MaxAbs < 1e-3 {
		t.Fatal("radial wave should disturb the surface")
	}
	w.ClearWaves()
	for i := 0; i < 3000; i++ {
		if err := w.Step(1.0 / 60.0); err != nil {
			t.Fatalf("step: %v", err)
		}
	}
	if got := w.Stats().MaxAbs; got > 1e-3 {
		t.Fatalf("max |height| after clear = %v, want <= 1e-3", got)
	}
}

func TestHeightAtMatchesNode(t *testing.T) {
	cfg := smallConfig(16, 12)
	cfg.Position = mgl64.Vec3{3, 2, -1}
	w := NewWithConfig(cfg)
	w.field.HeightGrid().Set(5, 7, 0.75)
	w.field.HeightGrid().Set(0, 0, -0.5)

	got := w.HeightAt(w.CellToWorld(5, 7))
	if math.Abs(got-2.75) > 1e-5 {
		t.Fatalf("HeightAt node (5,7) = %v, want 2.75", got)
	}
	got = w.HeightAt(w.CellToWorld(6, 7))
	if math.Abs(got-2) > 1e-5 {
		t.Fatalf("HeightAt node (6,7) = %v, want 2", got)
	}
	// Beyond the extents the edge node is used.
	far := w.CellToWorld(0, 0).Add(mgl64.Vec3{-50, 10, 50})
	got = w.HeightAt(far)
	if math.Abs(got-1.5) > 1e-5 {
		t.Fatalf("HeightAt outside extents = %v, want clamped 1.5", got)
	}
}

func TestHeightAtInterpolates(t *testing.T) {
	w := NewWithConfig(smallConfig(8, 8))
	w.field.HeightGrid().Set(2, 3, 1)
	a := w.CellToWorld(2, 3)
	b := w.CellToWorld(3, 3)
	mid := a.Add(b).Mul(0.5)
	if got := w.HeightAt(mid); math.Abs(got-0.5) > 1e-5 {
		t.Fatalf("midpoint height = %v, want 0.5", got)
	}
}

func TestSplashPerturbsCentreWithZeroMeanImpulse(t *testing.T) {
	w := NewWithConfig(smallConfig(64, 64))
	centre := w.Surface().Position
	if !w.Splash(centre, 4, 100) {
		t.Fatal("splash rejected")
	}
	if err := w.Step(1.0 / 60.0); err != nil {
		t.Fatalf("step: %v", err)
	}
	if got := w.HeightAt(centre); got <= 0 {
		t.Fatalf("height at splash = %v, want > 0", got)
	}
	sum, mag := 0.0, 0.0
	for _, v := range w.field.Velocities() {
		sum += float64(v)
		mag += math.Abs(float64(v))
	}
	if mag == 0 {
		t.Fatal("splash produced no velocity")
	}
	if math.Abs(sum) > 1e-4*mag {
		t.Fatalf("velocity integral %v not ~0 (total magnitude %v)", sum, mag)
	}
}

func TestSplashConsumedByOneStep(t *testing.T) {
	w := NewWithConfig(smallConfig(32, 32))
	w.SplashLocal(0, 0, 3, 50)
	if err := w.Step(1.0 / 60.0); err != nil {
		t.Fatalf("step: %v", err)
	}
	first := w.LastStep()
	if first.Splashes != 1 || first.SplashCells == 0 {
		t.Fatalf("first step splash stats = %+v, want one splash", first)
	}
	if err := w.Step(1.0 / 60.0); err != nil {
		t.Fatalf("step: %v", err)
	}
	second := w.LastStep()
	if second.Splashes != 0 || second.SplashCells != 0 {
		t.Fatalf("second step splash stats = %+v, want none", second)
	}
	if w.splash.Pending() != 0 {
		t.Fatalf("pending = %d after consumption", w.splash.Pending())
	}
}

func TestSplashRejectsDegenerateInput(t *testing.T) {
	w := NewWithConfig(smallConfig(16, 16))
	cases := []struct {
		radius, strength float64
	}{
		{0, 10},
		{-1, 10},
		{math.NaN(), 10},
		{2, math.Inf(1)},
		{2, 0},
	}
	for _, tc := range cases {
		if w.SplashLocal(0, 0, tc.radius, tc.strength) {
			t.Fatalf("splash radius=%v strength=%v accepted", tc.radius, tc.strength)
		}
	}
}

func TestPlaneWaveOscillatesAtDrivenFrequency(t *testing.T) {
	w := NewWithConfig(smallConfig(32, 32))
	id := w.AddPlaneWave(PlaneWaveParams{
		Direction:  mgl64.Vec2{1, 0},
		Wavelength: 10,
		Amplitude:  1,
		Speed:      2,
	})
	planes, _ := w.Sources()
	wantOmega := 2 * math.Pi / 10 * 2
	if got := planes[id.Slot].Omega; math.Abs(got-wantOmega) > 1e-9 {
		t.Fatalf("omega = %v, want %v", got, wantOmega)
	}

	const dt = 1.0 / 60.0
	probe := w.CellToWorld(16, 16)
	level := w.Surface().Position.Y()
	for i := 0; i < 1800; i++ {
		if err := w.Step(dt); err != nil {
			t.Fatalf("step: %v", err)
		}
	}
	var crossings []float64
	prev := w.HeightAt(probe) - level
	prevT := w.SimTime()
	for i := 0; i < 1500; i++ {
		if err := w.Step(dt); err != nil {
			t.Fatalf("step: %v", err)
		}
		cur := w.HeightAt(probe) - level
		now := w.SimTime()
		if prev < 0 && cur >= 0 {
			frac := -prev / (cur - prev)
			crossings = append(crossings, prevT+frac*(now-prevT))
		}
		prev, prevT = cur, now
	}
	if len(crossings) < 3 {
		t.Fatalf("found %d upward crossings, want an oscillation", len(crossings))
	}
	period := (crossings[len(crossings)-1] - crossings[0]) / float64(len(crossings)-1)
	want := 2 * math.Pi / wantOmega
	if math.Abs(period-want) > 0.05*want {
		t.Fatalf("period = %.3f s, want %.3f s", period, want)
	}
}

func TestStepRejectsInvalidDelta(t *testing.T) {
	w := NewWithConfig(smallConfig(8, 8))
	w.SplashLocal(0, 0, 2, 10)
	for _, dt := range []float64{-0.1, math.NaN(), math.Inf(1)} {
		if err := w.Step(dt); !errors.Is(err, ErrInvalidDelta) {
			t.Fatalf("Step(%v) err = %v, want ErrInvalidDelta", dt, err)
		}
	}
	if w.SimTime() != 0 {
		t.Fatalf("sim time advanced to %v on invalid deltas", w.SimTime())
	}
	if w.splash.Pending() != 1 {
		t.Fatal("invalid step must not consume the pending splash")
	}
	if err := w.Step(0); err != nil {
		t.Fatalf("Step(0) = %v, want nil", err)
	}
}

func TestStepSubdividesLongDeltas(t *testing.T) {
	w := NewWithConfig(smallConfig(16, 16))
	limit := w.sim.StableDelta()
	if err := w.Step(0.1); err != nil {
		t.Fatalf("step: %v", err)
	}
	want := int(math.Ceil(0.1 / limit))
	if got := w.Stats().Steps; got != want {
		t.Fatalf("substeps = %d, want %d", got, want)
	}
	if math.Abs(w.SimTime()-0.1) > 1e-12 {
		t.Fatalf("sim time = %v, want 0.1", w.SimTime())
	}
}

func TestWorkerCountDoesNotChangeResult(t *testing.T) {
	run := func(workers int) []float32 {
		cfg := smallConfig(48, 64)
		cfg.Workers = workers
		w := NewWithConfig(cfg)
		w.AddRadialWave(RadialWaveParams{Center: mgl64.Vec2{4, -3}, Wavelength: 6, Amplitude: 0.5, Decay: 0.2})
		w.SplashLocal(-5, 5, 3, 40)
		for i := 0; i < 90; i++ {
			if err := w.Step(1.0 / 60.0); err != nil {
				t.Fatalf("step: %v", err)
			}
		}
		return append([]float32(nil), w.Heights()...)
	}
	serial := run(1)
	parallel := run(4)
	if !slices.Equal(serial, parallel) {
		t.Fatal("row-partitioned step differs from serial step")
	}
}

func TestResetClearsEverything(t *testing.T) {
	w := NewWithConfig(smallConfig(16, 16))
	w.AddPlaneWave(PlaneWaveParams{Direction: mgl64.Vec2{0, 1}, Wavelength: 5, Amplitude: 1})
	for i := 0; i < 30; i++ {
		if err := w.Step(1.0 / 60.0); err != nil {
			t.Fatalf("step: %v", err)
		}
	}
	w.SplashLocal(0, 0, 2, 10)
	w.Reset()
	st := w.Stats()
	if st.MaxAbs != 0 || st.Energy != 0 || st.SimTime != 0 || st.Sources != 0 || st.Steps != 0 {
		t.Fatalf("stats after reset = %+v", st)
	}
	if err := w.Step(1.0 / 60.0); err != nil {
		t.Fatalf("step: %v", err)
	}
	if w.Stats().MaxAbs != 0 {
		t.Fatal("reset must drop pending splashes")
	}
}

func TestCopyFrameIsIndependent(t *testing.T) {
	w := NewWithConfig(smallConfig(8, 8))
	w.SplashLocal(0, 0, 2, 50)
	if err := w.Step(1.0 / 60.0); err != nil {
		t.Fatalf("step: %v", err)
	}
	frame := w.CopyFrame(nil)
	if frame.Width != 8 || len(frame.Heights) != 64 || len(frame.Normals) != 192 || len(frame.Foam) != 64 {
		t.Fatalf("unexpected frame shape %dx%d %d/%d/%d", frame.Width, frame.Height, len(frame.Heights), len(frame.Normals), len(frame.Foam))
	}
	before := append([]float32(nil), frame.Heights...)
	if err := w.Step(1.0 / 60.0); err != nil {
		t.Fatalf("step: %v", err)
	}
	if !slices.Equal(before, frame.Heights) {
		t.Fatal("frame copy changed after a step")
	}
}

func TestTiltedSurfaceUsesNormal(t *testing.T) {
	w := NewWithConfig(smallConfig(8, 8))
	w.field.HeightGrid().Set(4, 4, 1)
	// Identity rotation leaves local Z as world Z, so displacement does not
	// change world Y.
	w.SetSurface(mgl64.Vec3{}, mgl64.QuatIdent())
	p := w.CellToWorld(4, 4)
	if got := w.DisplacementAt(p); math.Abs(got-1) > 1e-6 {
		t.Fatalf("displacement = %v, want 1", got)
	}
	if got := w.HeightAt(p); math.Abs(got-p.Y()) > 1e-6 {
		t.Fatalf("height = %v, want %v", got, p.Y())
	}
}

func TestHeightAtNonFiniteSamplesCentre(t *testing.T) {
	w := New(8, 8)
	w.SplashLocal(0, 0, 2, 20)
	if err := w.Step(1.0 / 60.0); err != nil {
		t.Fatalf("step: %v", err)
	}
	centre := w.HeightAt(w.Surface().ToWorld(mgl64.Vec3{0, 0, 0}))
	for _, p := range []mgl64.Vec3{
		{math.NaN(), 0, 0},
		{0, math.NaN(), math.NaN()},
		{math.Inf(1), 0, math.Inf(-1)},
	} {
		got := w.HeightAt(p)
		if math.IsNaN(got) || math.IsInf(got, 0) {
			t.Fatalf("HeightAt(%v) = %v, want finite", p, got)
		}
		if p.X() != p.X() && p.Y() == 0 && p.Z() == 0 && math.Abs(got-centre) > 1e-9 {
			t.Fatalf("HeightAt(%v) = %v, want centre height %v", p, got, centre)
		}
	}
}

func TestStepCapsSubsteps(t *testing.T) {
	w := NewWithConfig(smallConfig(16, 16))
	limit := w.sim.StableDelta()
	w.SplashLocal(0, 0, 2, 10)
	for _, dt := range []float64{60, 1e300} {
		before := w.Stats().Steps
		start := w.SimTime()
		if err := w.Step(dt); err != nil {
			t.Fatalf("Step(%v): %v", dt, err)
		}
		if got := w.Stats().Steps - before; got != MaxSubsteps {
			t.Fatalf("Step(%v) ran %d substeps, want %d", dt, got, MaxSubsteps)
		}
		advanced := w.SimTime() - start
		if want := MaxSubsteps * limit; math.Abs(advanced-want) > 1e-9 {
			t.Fatalf("Step(%v) advanced %v, want %v", dt, advanced, want)
		}
		if w.splash.Pending() != 0 {
			t.Fatalf("Step(%v) left the splash pending", dt)
		}
	}
}

func TestClampLimitsCannotBeRaised(t *testing.T) {
	cfg := FromMap(map[string]string{"max_height": "100", "max_velocity": "1000", "w": "16", "h": "16"})
	if cfg.Params.MaxHeight != HeightLimit || cfg.Params.MaxVelocity != VelocityLimit {
		t.Fatalf("overrides past the limits accepted: %+v", cfg.Params)
	}
	if !ApplyOverride(&cfg.Params, "max_height", "2") || cfg.Params.MaxHeight != 2 {
		t.Fatal("tightening max_height rejected")
	}

	cfg.Workers = 1
	w := NewWithConfig(cfg)
	p := w.Config().Params
	p.MaxHeight = 100
	p.MaxVelocity = math.NaN()
	w.SetParams(p)
	got := w.Config().Params
	if got.MaxHeight != HeightLimit || got.MaxVelocity != VelocityLimit {
		t.Fatalf("SetParams kept out-of-range clamps: h=%v v=%v", got.MaxHeight, got.MaxVelocity)
	}
	if w.SetFloatParameter("max_velocity", 1000) {
		t.Fatal("SetFloatParameter raised max_velocity past the limit")
	}

	for i := 0; i < 120; i++ {
		w.SplashLocal(0, 0, 3, 1e6)
		if err := w.Step(1.0 / 60.0); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	for i, h := range w.Heights() {
		if math.Abs(float64(h)) > HeightLimit {
			t.Fatalf("height[%d] = %v outside the clamp", i, h)
		}
	}
	for i, v := range w.field.Velocities() {
		if math.Abs(float64(v)) > VelocityLimit {
			t.Fatalf("velocity[%d] = %v outside the clamp", i, v)
		}
	}
}
