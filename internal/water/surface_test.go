package water

import (
	"math"
	"testing"
)

func TestFlatFieldHasUpNormalsAndNoFoam(t *testing.T) {
	f := NewHeightField(6, 5, 3, 2.5)
	e := NewNormalFoamEstimator(6, 5)
	e.Update(f, DefaultParams())
	for y := 0; y < 5; y++ {
		for x := 0; x < 6; x++ {
			n := e.NormalAt(x, y)
			if n.X() != 0 || n.Y() != 0 || n.Z() != 1 {
				t.Fatalf("normal(%d,%d) = %v, want (0,0,1)", x, y, n)
			}
		}
	}
	for i, v := range e.Foam() {
		if v != 0 {
			t.Fatalf("foam[%d] = %v on flat water", i, v)
		}
	}
}

func TestSlopeTiltsNormalAndRaisesFoam(t *testing.T) {
	f := NewHeightField(5, 5, 2, 2)
	grid := f.HeightGrid()
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			grid.Set(x, y, float32(x)*0.8)
		}
	}
	p := DefaultParams()
	e := NewNormalFoamEstimator(5, 5)
	e.Update(f, p)

	n := e.NormalAt(2, 2)
	// Slope is 0.8 per unit along X.
	want := 1 / math.Sqrt(1+0.64)
	if math.Abs(n.Z()-want) > 1e-6 || n.X() >= 0 || math.Abs(n.Y()) > 1e-9 {
		t.Fatalf("normal = %v, want tilted against +X with z=%v", n, want)
	}
	if foam := e.Foam()[2*5+2]; foam != 1 {
		t.Fatalf("foam = %v, want saturated on slope 0.8", foam)
	}

	p.Displacement = 0
	e.Update(f, p)
	if n := e.NormalAt(2, 2); n.Z() != 1 {
		t.Fatalf("zero displacement normal = %v, want flat", n)
	}
}
