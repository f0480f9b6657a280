package water

import "ripple/internal/core"

// HeightField holds the double-buffered height and velocity grids. Index 0/1
// alternate between the current snapshot and the buffer written by the next
// step.
type HeightField struct {
	width  int
	height int

	cellX float64
	cellY float64

	heights    [2]*core.FloatGrid
	velocities [2]*core.FloatGrid
	cur        int
}

// NewHeightField allocates a zeroed field covering the given half extents.
func NewHeightField(w, h int, halfX, halfY float64) *HeightField {
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	f := &HeightField{width: w, height: h}
	f.cellX = cellSpan(w, halfX)
	f.cellY = cellSpan(h, halfY)
	for i := 0; i < 2; i++ {
		f.heights[i] = core.NewFloatGrid(w, h)
		f.velocities[i] = core.NewFloatGrid(w, h)
	}
	return f
}

func cellSpan(n int, half float64) float64 {
	if n <= 1 {
		return 2 * half
	}
	return 2 * half / float64(n-1)
}

// Width returns the number of columns.
func (f *HeightField) Width() int { return f.width }

// Height returns the number of rows.
func (f *HeightField) Height() int { return f.height }

// CellSize returns the world distance between adjacent nodes along X and Y.
func (f *HeightField) CellSize() (float64, float64) { return f.cellX, f.cellY }

// Heights returns the current height snapshot. Callers must not modify it.
func (f *HeightField) Heights() []float32 { return f.heights[f.cur].Cells() }

// Velocities returns the current velocity snapshot. Callers must not modify it.
func (f *HeightField) Velocities() []float32 { return f.velocities[f.cur].Cells() }

// HeightGrid exposes the current height grid for sampling.
func (f *HeightField) HeightGrid() *core.FloatGrid { return f.heights[f.cur] }

func (f *HeightField) current() (h, v []float32) {
	return f.heights[f.cur].Cells(), f.velocities[f.cur].Cells()
}

func (f *HeightField) next() (h, v []float32) {
	n := 1 - f.cur
	return f.heights[n].Cells(), f.velocities[n].Cells()
}

func (f *HeightField) swap() { f.cur = 1 - f.cur }

func (f *HeightField) reset() {
	for i := 0; i < 2; i++ {
		f.heights[i].Clear()
		f.velocities[i].Clear()
	}
	f.cur = 0
}
