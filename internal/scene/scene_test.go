package scene

import (
	"errors"
	"math"
	"testing"

	"ripple/internal/core"
	"ripple/internal/water"
)

func smallMap(extra map[string]string) map[string]string {
	m := map[string]string{"w": "32", "h": "32", "extent_x": "16", "extent_y": "16"}
	for k, v := range extra {
		m[k] = v
	}
	return m
}

func TestPresetsRegistered(t *testing.T) {
	wantSources := map[string]int{Calm: 1, Swell: 3, Pond: 1, Still: 0}
	for name, want := range wantSources {
		factory, ok := core.Sims()[name]
		if !ok {
			t.Fatalf("preset %q not registered", name)
		}
		sim := factory(smallMap(nil))
		sim.Reset(7)
		sc, ok := sim.(*Scene)
		if !ok {
			t.Fatalf("preset %q built %T", name, sim)
		}
		if got := sc.Stats().Sources; got != want {
			t.Fatalf("%s: %d active sources, want %d", name, got, want)
		}
		if sim.Name() != name {
			t.Fatalf("name = %q, want %q", sim.Name(), name)
		}
		if sz := sim.Size(); sz.W != 32 || sz.H != 32 {
			t.Fatalf("%s: size = %+v", name, sz)
		}
		sc.Close()
	}
}

func TestStillSceneStaysFlat(t *testing.T) {
	sim := core.Sims()[Still](smallMap(nil))
	sim.Reset(1)
	for i := 0; i < 60; i++ {
		if err := sim.Step(1.0 / 60.0); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	for i, h := range sim.Heights() {
		if h != 0 {
			t.Fatalf("height[%d] = %v, want 0", i, h)
		}
	}
	if n := len(sim.(*Scene).Bodies()); n != 0 {
		t.Fatalf("still scene has %d bodies", n)
	}
}

func TestFallingBodySplashesWater(t *testing.T) {
	sc := New("test", FromMap(smallMap(map[string]string{"bodies": "1"})), nil)
	sc.Reset(3)
	for i := 0; i < 600; i++ {
		if err := sc.Step(1.0 / 60.0); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	if sc.Splashes() == 0 {
		t.Fatal("falling body never splashed")
	}
	st := sc.Stats()
	if st.MaxAbs == 0 {
		t.Fatal("splash did not disturb the surface")
	}
	if st.Floating != 1 {
		t.Fatalf("floating = %d, want 1", st.Floating)
	}
	sc.Reset(0)
	if sc.Splashes() != 0 || sc.Stats().MaxAbs != 0 {
		t.Fatal("reset did not clear splashes and surface")
	}
}

func TestResetIsDeterministic(t *testing.T) {
	a := New("a", FromMap(smallMap(nil)), seedSwell)
	b := New("b", FromMap(smallMap(nil)), seedSwell)
	a.Reset(42)
	b.Reset(42)
	if len(a.Bodies()) != 3 || len(b.Bodies()) != 3 {
		t.Fatalf("bodies = %d/%d, want 3", len(a.Bodies()), len(b.Bodies()))
	}
	for i := range a.Bodies() {
		if a.Bodies()[i].Position != b.Bodies()[i].Position {
			t.Fatalf("body %d: %v != %v", i, a.Bodies()[i].Position, b.Bodies()[i].Position)
		}
	}
	pa, _ := a.Water().Sources()
	pb, _ := b.Water().Sources()
	for i := range pa {
		if pa[i] != pb[i] {
			t.Fatalf("plane source %d differs: %+v vs %+v", i, pa[i], pb[i])
		}
	}
	half := a.Water().Surface().HalfExtents
	for _, body := range a.Bodies() {
		if math.Abs(body.Position.X()) > 0.6*half.X() || math.Abs(body.Position.Z()) > 0.6*half.Y() {
			t.Fatalf("body placed outside the drop area: %v", body.Position)
		}
		if body.Position.Y() <= 0 {
			t.Fatalf("body starts below the surface: %v", body.Position)
		}
	}
}

func TestStepRejectsInvalidDelta(t *testing.T) {
	sc := New("test", FromMap(smallMap(nil)), nil)
	sc.Reset(1)
	if err := sc.Step(math.NaN()); !errors.Is(err, water.ErrInvalidDelta) {
		t.Fatalf("err = %v, want ErrInvalidDelta", err)
	}
}

func TestSceneParametersDelegate(t *testing.T) {
	sc := New("test", FromMap(smallMap(nil)), nil)
	if !sc.SetFloatParameter("viscosity", 0.3) {
		t.Fatal("viscosity rejected")
	}
	p, ok := sc.Parameters().Lookup("viscosity")
	if !ok || p.Value != "0.3" {
		t.Fatalf("viscosity param = %+v, %v", p, ok)
	}
	if len(sc.ParameterControls()) == 0 {
		t.Fatal("no parameter controls")
	}
}

func TestFromMap(t *testing.T) {
	cfg := FromMap(map[string]string{"bodies": "5", "body_size": "-1", "seed": "9", "w": "16", "body_density": "300"})
	if cfg.Bodies != 5 || cfg.Seed != 9 {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.BodySize != DefaultConfig().BodySize {
		t.Fatalf("negative body size applied: %v", cfg.BodySize)
	}
	if cfg.Water.Width != 16 || cfg.Body.Density != 300 {
		t.Fatalf("nested configs not parsed: %+v", cfg)
	}
}

func TestProbeMarkersAndStatus(t *testing.T) {
	sc := New("test", FromMap(smallMap(map[string]string{"bodies": "2"})), nil)
	sc.Reset(5)
	markers := sc.ProbeMarkers(nil)
	if len(markers) != 16 {
		t.Fatalf("markers = %d, want 16", len(markers))
	}
	size := sc.Size()
	for _, m := range markers {
		if m.X < 0 || m.Y < 0 || m.X > float64(size.W-1) || m.Y > float64(size.H-1) {
			t.Fatalf("marker off grid: %+v", m)
		}
		if m.Active {
			t.Fatalf("probe under water before any update: %+v", m)
		}
	}
	if lines := sc.StatusLines(); len(lines) != 3 {
		t.Fatalf("status lines = %v", lines)
	}
	if dx, dy := sc.SlopeAt(3, 3); dx != 0 || dy != 0 {
		t.Fatalf("flat surface slope = (%v, %v)", dx, dy)
	}
}

func TestBuildPreset(t *testing.T) {
	sc, err := Build(Pond, smallMap(nil))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if sc.Name() != Pond || sc.Config().DropHeight != 5 {
		t.Fatalf("pond = %s drop %v", sc.Name(), sc.Config().DropHeight)
	}
	if _, err := Build("lagoon", nil); err == nil {
		t.Fatal("unknown preset accepted")
	}
}
