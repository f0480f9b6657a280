//go:build ebiten

package render

import "github.com/hajimehoshi/ebiten/v2"

// GridPainter uploads shaded water cells to a texture and draws it scaled.
type GridPainter struct {
	w, h int
	img  *ebiten.Image
	buf  []byte
}

// NewGridPainter allocates a texture for a w x h grid.
func NewGridPainter(w, h int) *GridPainter {
	return &GridPainter{
		w:   w,
		h:   h,
		img: ebiten.NewImage(w, h),
		buf: make([]byte, 4*w*h),
	}
}

// Blit shades the grid with style and draws it onto screen.
func (p *GridPainter) Blit(screen *ebiten.Image, heights, normals, foam []float32, style WaterStyle, scale int) {
	if len(heights) != p.w*p.h {
		return
	}
	FillWaterRGBA(p.buf, heights, normals, foam, style)
	p.img.WritePixels(p.buf)
	if scale <= 0 {
		scale = 1
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(scale), float64(scale))
	screen.DrawImage(p.img, op)
}
