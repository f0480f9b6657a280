package water

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"ripple/internal/core"
)

// Surface places the water plane in the world. Local Z is the plane normal;
// local X and Y span the grid.
type Surface struct {
	Position    mgl64.Vec3
	Rotation    mgl64.Quat
	HalfExtents mgl64.Vec2
}

// HorizontalRotation maps local +Z onto world +Y, laying the plane flat.
func HorizontalRotation() mgl64.Quat {
	return mgl64.QuatRotate(-math.Pi/2, mgl64.Vec3{1, 0, 0})
}

// NewSurface returns a horizontal plane centred at pos.
func NewSurface(pos mgl64.Vec3, halfX, halfY float64) Surface {
	return Surface{
		Position:    pos,
		Rotation:    HorizontalRotation(),
		HalfExtents: mgl64.Vec2{halfX, halfY},
	}
}

// ToLocal converts a world point into plane-local coordinates.
func (s Surface) ToLocal(world mgl64.Vec3) mgl64.Vec3 {
	return s.Rotation.Conjugate().Rotate(world.Sub(s.Position))
}

// ToWorld converts a plane-local point into world coordinates.
func (s Surface) ToWorld(local mgl64.Vec3) mgl64.Vec3 {
	return s.Position.Add(s.Rotation.Rotate(local))
}

// Normal returns the world-space plane normal.
func (s Surface) Normal() mgl64.Vec3 {
	return s.Rotation.Rotate(mgl64.Vec3{0, 0, 1})
}

// GridCoords maps plane-local XY to fractional node coordinates on a w x h
// grid. Points outside the extents clamp to the border.
func (s Surface) GridCoords(lx, ly float64, w, h int) (float64, float64) {
	return toGrid(lx, s.HalfExtents.X(), w), toGrid(ly, s.HalfExtents.Y(), h)
}

func toGrid(l, half float64, n int) float64 {
	if half <= 0 || n <= 1 {
		return 0
	}
	if !finite(l) {
		// Non-finite positions sample the plane centre.
		l = 0
	}
	u := core.Clamp((l/half+1)*0.5, 0, 1)
	return u * float64(n-1)
}
