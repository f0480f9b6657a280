package water

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"ripple/internal/core"
)

// NormalFoamEstimator derives per-cell normals and a foam mask from the
// current heights. Its output is for shading only and never feeds back.
type NormalFoamEstimator struct {
	width   int
	height  int
	normals []float32
	foam    []float32
}

// NewNormalFoamEstimator allocates buffers for a w x h field. Normals start
// pointing straight up.
func NewNormalFoamEstimator(w, h int) *NormalFoamEstimator {
	e := &NormalFoamEstimator{
		width:   w,
		height:  h,
		normals: make([]float32, 3*w*h),
		foam:    make([]float32, w*h),
	}
	e.Reset()
	return e
}

// Normals returns the tangent-space normals, three floats per cell.
func (e *NormalFoamEstimator) Normals() []float32 { return e.normals }

// Foam returns the foam mask in [0, 1].
func (e *NormalFoamEstimator) Foam() []float32 { return e.foam }

// NormalAt returns the normal stored for cell (x, y), clamped to the grid.
func (e *NormalFoamEstimator) NormalAt(x, y int) mgl64.Vec3 {
	x = core.ClampInt(x, 0, e.width-1)
	y = core.ClampInt(y, 0, e.height-1)
	i := 3 * (y*e.width + x)
	return mgl64.Vec3{float64(e.normals[i]), float64(e.normals[i+1]), float64(e.normals[i+2])}
}

// Reset flattens every normal and clears the foam.
func (e *NormalFoamEstimator) Reset() {
	for i := 0; i < len(e.foam); i++ {
		e.normals[3*i] = 0
		e.normals[3*i+1] = 0
		e.normals[3*i+2] = 1
		e.foam[i] = 0
	}
}

// Update recomputes normals and foam from the field's current snapshot.
func (e *NormalFoamEstimator) Update(f *HeightField, p Params) {
	heights := f.Heights()
	w, h := e.width, e.height
	cellX, cellY := f.CellSize()
	for y := 0; y < h; y++ {
		y0 := max(y-1, 0)
		y1 := min(y+1, h-1)
		for x := 0; x < w; x++ {
			x0 := max(x-1, 0)
			x1 := min(x+1, w-1)
			dx := slope(heights[y*w+x1], heights[y*w+x0], x1-x0, cellX) * p.Displacement
			dy := slope(heights[y1*w+x], heights[y0*w+x], y1-y0, cellY) * p.Displacement
			n := mgl64.Vec3{-dx, -dy, 1}.Normalize()
			i := y*w + x
			e.normals[3*i] = float32(n.X())
			e.normals[3*i+1] = float32(n.Y())
			e.normals[3*i+2] = float32(n.Z())
			mag := math.Sqrt(dx*dx + dy*dy)
			e.foam[i] = float32(core.Smoothstep(p.FoamThreshold, p.FoamThreshold+p.FoamSharpness, mag))
		}
	}
}

func slope(hi, lo float32, span int, cell float64) float64 {
	if span == 0 || cell <= 0 {
		return 0
	}
	return float64(hi-lo) / (float64(span) * cell)
}
