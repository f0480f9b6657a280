package core

// FloatGrid stores a 2D grid of float32 samples in row-major order.
type FloatGrid struct {
	W, H int
	data []float32
}

// NewFloatGrid allocates a zeroed grid with the given dimensions.
func NewFloatGrid(w, h int) *FloatGrid {
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	return &FloatGrid{W: w, H: h, data: make([]float32, w*h)}
}

// Cells exposes the backing slice so callers can read/write values directly.
func (g *FloatGrid) Cells() []float32 { return g.data }

// Index returns the linear slice index for coordinates (x, y).
func (g *FloatGrid) Index(x, y int) int { return y*g.W + x }

// At returns the sample at (x, y) with coordinates clamped to the grid.
func (g *FloatGrid) At(x, y int) float32 {
	x = ClampInt(x, 0, g.W-1)
	y = ClampInt(y, 0, g.H-1)
	return g.data[y*g.W+x]
}

// Set writes v at (x, y). Out-of-range coordinates are ignored.
func (g *FloatGrid) Set(x, y int, v float32) {
	if x < 0 || x >= g.W || y < 0 || y >= g.H {
		return
	}
	g.data[y*g.W+x] = v
}

// Bilinear samples the grid at fractional coordinates. Coordinates outside
// the grid are clamped to the nearest edge; NaN reads the origin.
func (g *FloatGrid) Bilinear(fx, fy float64) float64 {
	if fx != fx {
		fx = 0
	}
	if fy != fy {
		fy = 0
	}
	fx = Clamp(fx, 0, float64(g.W-1))
	fy = Clamp(fy, 0, float64(g.H-1))
	x0 := int(fx)
	y0 := int(fy)
	x1 := x0 + 1
	if x1 > g.W-1 {
		x1 = g.W - 1
	}
	y1 := y0 + 1
	if y1 > g.H-1 {
		y1 = g.H - 1
	}
	tx := fx - float64(x0)
	ty := fy - float64(y0)
	h00 := float64(g.data[y0*g.W+x0])
	h10 := float64(g.data[y0*g.W+x1])
	h01 := float64(g.data[y1*g.W+x0])
	h11 := float64(g.data[y1*g.W+x1])
	top := h00 + (h10-h00)*tx
	bottom := h01 + (h11-h01)*tx
	return top + (bottom-top)*ty
}

// CopyFrom copies src into g. Both grids must share dimensions.
func (g *FloatGrid) CopyFrom(src *FloatGrid) {
	copy(g.data, src.data)
}

// Clear fills the grid with zeros.
func (g *FloatGrid) Clear() {
	for i := range g.data {
		g.data[i] = 0
	}
}

// ClampInt constrains v to lie within the inclusive [lo, hi] range.
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp constrains v to lie within the inclusive [lo, hi] range.
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Smoothstep performs Hermite interpolation between edge0 and edge1.
func Smoothstep(edge0, edge1, x float64) float64 {
	if edge1 == edge0 {
		if x < edge0 {
			return 0
		}
		return 1
	}
	t := Clamp((x-edge0)/(edge1-edge0), 0, 1)
	return t * t * (3 - 2*t)
}
