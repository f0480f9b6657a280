package water

import "github.com/go-gl/mathgl/mgl64"

// HeightQuery samples the field at world positions through the surface
// transform.
type HeightQuery struct {
	field   *HeightField
	surface *Surface
}

// NewHeightQuery binds a query to a field and its placement.
func NewHeightQuery(f *HeightField, s *Surface) *HeightQuery {
	return &HeightQuery{field: f, surface: s}
}

// DisplacementAt returns the bilinear displacement along the plane normal
// below world point p. Points outside the extents use the nearest edge.
func (q *HeightQuery) DisplacementAt(p mgl64.Vec3) float64 {
	local := q.local(p)
	gx, gy := q.surface.GridCoords(local.X(), local.Y(), q.field.Width(), q.field.Height())
	return q.field.HeightGrid().Bilinear(gx, gy)
}

// SurfacePoint returns the displaced surface point directly below p.
func (q *HeightQuery) SurfacePoint(p mgl64.Vec3) mgl64.Vec3 {
	local := q.local(p)
	gx, gy := q.surface.GridCoords(local.X(), local.Y(), q.field.Width(), q.field.Height())
	d := q.field.HeightGrid().Bilinear(gx, gy)
	rest := q.surface.ToWorld(mgl64.Vec3{local.X(), local.Y(), 0})
	return rest.Add(q.surface.Normal().Mul(d))
}

// HeightAt returns the world Y of the water surface at p.
func (q *HeightQuery) HeightAt(p mgl64.Vec3) float64 {
	return q.SurfacePoint(p).Y()
}

// local maps p into the plane frame. A non-finite coordinate lands on the
// plane centre along that axis.
func (q *HeightQuery) local(p mgl64.Vec3) mgl64.Vec3 {
	l := q.surface.ToLocal(p)
	if !finite(l.X()) {
		l[0] = 0
	}
	if !finite(l.Y()) {
		l[1] = 0
	}
	return l
}
