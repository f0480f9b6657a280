package water

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestDispersionPriority(t *testing.T) {
	k := 2 * math.Pi / 10
	cases := []struct {
		name                 string
		omega, period, speed float64
		want                 float64
	}{
		{"explicit omega wins", 3, 2, 5, 3},
		{"period before speed", 0, 2, 5, math.Pi},
		{"speed", 0, 0, 2, k * 2},
		{"negative speed uses magnitude", 0, 0, -2, k * 2},
		{"deep water fallback", 0, 0, 0, math.Sqrt(9.81 * k)},
	}
	for _, tc := range cases {
		gotK, gotW := Dispersion(10, tc.omega, tc.period, tc.speed, 9.81, 0.5)
		if math.Abs(gotK-k) > 1e-12 {
			t.Fatalf("%s: k = %v, want %v", tc.name, gotK, k)
		}
		if math.Abs(gotW-tc.want) > 1e-12 {
			t.Fatalf("%s: omega = %v, want %v", tc.name, gotW, tc.want)
		}
	}
	// Very long waves fall back to the floor.
	if _, w := Dispersion(1e6, 0, 0, 0, 9.81, 0.5); w != 0.5 {
		t.Fatalf("long-wave omega = %v, want floor 0.5", w)
	}
}

func TestRegistryOverwritesOldest(t *testing.T) {
	r := NewWaveSourceRegistry(DefaultParams())
	var ids []WaveID
	for i := 0; i < WaveCapacity+1; i++ {
		ids = append(ids, r.AddPlaneWave(PlaneWaveParams{
			Direction:  mgl64.Vec2{1, 0},
			Wavelength: 10,
			Amplitude:  float64(i + 1),
		}))
	}
	if ids[WaveCapacity].Slot != 0 {
		t.Fatalf("fifth add landed in slot %d, want 0", ids[WaveCapacity].Slot)
	}
	if got := r.Plane(0).Amplitude; got != float64(WaveCapacity+1) {
		t.Fatalf("slot 0 amplitude = %v, want newest", got)
	}
	if got := r.Plane(1).Amplitude; got != 2 {
		t.Fatalf("slot 1 amplitude = %v, want untouched 2", got)
	}
	// Radial ring is independent of the plane ring.
	if id := r.AddRadialWave(RadialWaveParams{Wavelength: 5, Amplitude: 1, Decay: 0.5}); id.Slot != 0 || id.Kind != WaveRadial {
		t.Fatalf("first radial id = %+v", id)
	}
}

func TestDegenerateSourcesAreInert(t *testing.T) {
	r := NewWaveSourceRegistry(DefaultParams())
	cases := []WaveID{
		r.AddPlaneWave(PlaneWaveParams{Direction: mgl64.Vec2{1, 0}, Wavelength: 0, Amplitude: 1}),
		r.AddPlaneWave(PlaneWaveParams{Direction: mgl64.Vec2{}, Wavelength: 4, Amplitude: 1}),
		r.AddPlaneWave(PlaneWaveParams{Direction: mgl64.Vec2{1, 0}, Wavelength: 4, Amplitude: 1, Omega: math.NaN()}),
		r.AddRadialWave(RadialWaveParams{Wavelength: 4, Amplitude: 1, Decay: 0}),
		r.AddRadialWave(RadialWaveParams{Wavelength: 4, Amplitude: 1, Decay: 0.3, Period: math.NaN()}),
	}
	for _, id := range cases {
		var amp float64
		var degenerate bool
		if id.Kind == WavePlane {
			amp, degenerate = r.Plane(id.Slot).Amplitude, r.Plane(id.Slot).Degenerate
		} else {
			amp, degenerate = r.Radial(id.Slot).Amplitude, r.Radial(id.Slot).Degenerate
		}
		if amp != 0 || !degenerate {
			t.Fatalf("%s slot %d: amplitude %v degenerate %v, want inert", id.Kind, id.Slot, amp, degenerate)
		}
		if err := r.SetAmplitude(id, 2); err != nil {
			t.Fatalf("set amplitude: %v", err)
		}
	}
	if n := r.ActiveCount(); n != 0 {
		t.Fatalf("active = %d, want 0 degenerate sources active", n)
	}
}

func TestDisableIsReversible(t *testing.T) {
	r := NewWaveSourceRegistry(DefaultParams())
	id := r.AddRadialWave(RadialWaveParams{Center: mgl64.Vec2{1, 2}, Wavelength: 6, Amplitude: 0.7, Decay: 0.25})
	if err := r.Disable(id); err != nil {
		t.Fatalf("disable: %v", err)
	}
	if r.Radial(id.Slot).Active() {
		t.Fatal("disabled source still active")
	}
	if err := r.SetAmplitude(id, 0.4); err != nil {
		t.Fatalf("set amplitude: %v", err)
	}
	got := r.Radial(id.Slot)
	if !got.Active() || got.Amplitude != 0.4 || got.Center != (mgl64.Vec2{1, 2}) {
		t.Fatalf("reactivated source = %+v", got)
	}
	r.Clear()
	if r.ActiveCount() != 0 {
		t.Fatal("Clear left sources active")
	}
}

func TestUnknownWaveID(t *testing.T) {
	r := NewWaveSourceRegistry(DefaultParams())
	for _, id := range []WaveID{{Kind: WavePlane, Slot: WaveCapacity}, {Kind: WaveRadial, Slot: -1}, {Kind: 7, Slot: 0}} {
		if err := r.Disable(id); !errors.Is(err, ErrUnknownWave) {
			t.Fatalf("Disable(%+v) = %v, want ErrUnknownWave", id, err)
		}
	}
}

func TestForcingGatesNonFinite(t *testing.T) {
	planes := []PlaneWave{{Dir: mgl64.Vec2{1, 0}, K: 1, Omega: 1, Amplitude: math.MaxFloat64}, {Dir: mgl64.Vec2{1, 0}, K: 1, Omega: 1, Amplitude: math.MaxFloat64}}
	if got := forcing(planes, nil, math.Pi/2, 0, 0); got != 0 {
		t.Fatalf("overflowing forcing = %v, want gated to 0", got)
	}
	radials := []RadialWave{{K: 1, Omega: 0, Amplitude: 2, Decay: 0.5}}
	if got := forcing(nil, radials, 0, 0, 0); got != 0 {
		t.Fatalf("radial at centre with zero phase = %v, want sin(0)=0", got)
	}
}

func TestSplashStampSumsToZero(t *testing.T) {
	xs := nodeCoords(40, 20, cellSpan(40, 20))
	ys := nodeCoords(30, 15, cellSpan(30, 15))
	cx, cy := cellSpan(40, 20), cellSpan(30, 15)
	for _, imp := range []SplashImpulse{
		{X: 0, Y: 0, Radius: 5, Strength: 80},
		{X: -19, Y: 14, Radius: 4, Strength: -30},
		{X: 3, Y: -2, Radius: 0.1, Strength: 10},
	} {
		var st splashStamp
		if !buildStamp(&st, imp, xs, ys, cx, cy, 0.4, 0.05) {
			t.Fatalf("stamp %+v not built", imp)
		}
		sum, mag := 0.0, 0.0
		for _, w := range st.weight {
			sum += float64(w)
			mag += math.Abs(float64(w))
		}
		if mag == 0 || math.Abs(sum) > 1e-5*mag {
			t.Fatalf("stamp %+v sum %v magnitude %v", imp, sum, mag)
		}
	}
}
