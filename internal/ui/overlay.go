//go:build ebiten

package ui

import (
	"image/color"
	"math"

	"ripple/internal/core"
	"ripple/internal/render"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"
)

type foamProvider interface {
	Foam() []float32
}

type slopeFieldProvider interface {
	SlopeAt(x, y float64) (float64, float64)
}

type markerProvider interface {
	ProbeMarkers(dst []core.Marker) []core.Marker
}

type statusProvider interface {
	StatusLines() []string
}

// Overlay draws optional debugging visuals on top of the water.
type Overlay struct {
	sim        core.Sim
	scale      int
	showFoam   bool
	showSlope  bool
	showProbes bool
	showStatus bool
	maskImg    *ebiten.Image
	maskBuf    []byte
	markers    []core.Marker

	pixel           *ebiten.Image
	slopeSamples    []slopeSample
	slopeCacheW     int
	slopeCacheH     int
	slopeCacheScale int
	slopePixelSpan  float64
}

type slopeSample struct {
	cx float64
	cy float64
	sx float64
	sy float64
}

// NewOverlay constructs a new overlay instance.
func NewOverlay(sim core.Sim, scale int) *Overlay {
	o := &Overlay{sim: sim, scale: scale, showStatus: true, showProbes: true}
	o.pixel = ebiten.NewImage(1, 1)
	o.pixel.Fill(color.White)
	return o
}

// Update toggles layers from the number keys.
func (o *Overlay) Update() {
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit1) {
		o.showFoam = !o.showFoam
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit2) {
		o.showSlope = !o.showSlope
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit3) {
		o.showProbes = !o.showProbes
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit4) {
		o.showStatus = !o.showStatus
	}
}

// Draw renders the enabled layers onto screen.
func (o *Overlay) Draw(screen *ebiten.Image) {
	size := o.sim.Size()
	if size.W <= 0 || size.H <= 0 {
		return
	}
	scale := o.scale
	if scale <= 0 {
		scale = 1
	}

	if o.showFoam {
		if provider, ok := o.sim.(foamProvider); ok {
			o.drawMask(screen, provider.Foam(), size, scale, color.RGBA{R: 255, G: 255, B: 255})
		}
	}
	if o.showSlope {
		if provider, ok := o.sim.(slopeFieldProvider); ok {
			o.drawSlopeField(screen, provider, size, scale)
		}
	}
	if o.showProbes {
		if provider, ok := o.sim.(markerProvider); ok {
			o.markers = provider.ProbeMarkers(o.markers[:0])
			dot := math.Max(3, float64(scale))
			for _, m := range o.markers {
				col := color.RGBA{R: 240, G: 200, B: 60, A: 220}
				if m.Active {
					col = color.RGBA{R: 230, G: 70, B: 60, A: 230}
				}
				o.drawPoint(screen, (m.X+0.5)*float64(scale), (m.Y+0.5)*float64(scale), dot, col)
			}
		}
	}
	if o.showStatus {
		if provider, ok := o.sim.(statusProvider); ok {
			face := basicfont.Face7x13
			for i, line := range provider.StatusLines() {
				text.Draw(screen, line, face, 8, 18+i*16, color.RGBA{R: 235, G: 240, B: 245, A: 255})
			}
		}
	}
}

func (o *Overlay) drawMask(screen *ebiten.Image, mask []float32, size core.Size, scale int, tint color.RGBA) {
	total := size.W * size.H
	if len(mask) != total || total == 0 {
		return
	}
	if o.maskImg == nil || o.maskImg.Bounds().Dx() != size.W || o.maskImg.Bounds().Dy() != size.H {
		o.maskImg = ebiten.NewImage(size.W, size.H)
		o.maskBuf = make([]byte, 4*total)
	}
	render.FillMaskRGBA(o.maskBuf, mask, tint)
	o.maskImg.WritePixels(o.maskBuf)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(scale), float64(scale))
	screen.DrawImage(o.maskImg, op)
}

func (o *Overlay) drawSlopeField(screen *ebiten.Image, provider slopeFieldProvider, size core.Size, scale int) {
	if o.pixel == nil {
		return
	}
	if !o.ensureSlopeSamples(size, scale) {
		return
	}

	const (
		flatThreshold    = 0.02
		maxSlopeEstimate = 0.6
		headAngle        = math.Pi / 6
		flatDotScale     = 0.18
		minThickness     = 0.65
		maxThickness     = 1.05
	)

	baseSpan := o.slopePixelSpan
	if baseSpan <= 0 {
		baseSpan = float64(scale) * 4
	}
	minLength := baseSpan * 0.35
	maxLength := baseSpan * 0.7

	flatDotSize := math.Max(baseSpan*flatDotScale, float64(scale)*0.75)

	for _, sample := range o.slopeSamples {
		vx, vy := provider.SlopeAt(sample.cx, sample.cy)
		mag := math.Hypot(vx, vy)
		if mag < flatThreshold {
			o.drawPoint(screen, sample.sx, sample.sy, flatDotSize, color.RGBA{R: 90, G: 130, B: 170, A: 120})
			continue
		}

		nx := vx / mag
		ny := vy / mag
		normalized := clamp01(mag / maxSlopeEstimate)
		length := minLength + (maxLength-minLength)*math.Sqrt(normalized)
		headLength := math.Min(length*0.3, float64(scale)*4.5)
		tailLength := length * 0.4
		tipX := sample.sx + nx*(length-tailLength)
		tipY := sample.sy + ny*(length-tailLength)
		tailX := sample.sx - nx*tailLength
		tailY := sample.sy - ny*tailLength
		bodyEndX := tipX - nx*headLength
		bodyEndY := tipY - ny*headLength

		thickness := math.Max(1, float64(scale)*(minThickness+(maxThickness-minThickness)*normalized))

		col := interpolateColor(normalized)
		o.drawLine(screen, tailX, tailY, bodyEndX, bodyEndY, thickness, col)

		angle := math.Atan2(ny, nx)
		o.drawLine(screen, tipX, tipY, tipX-math.Cos(angle+headAngle)*headLength, tipY-math.Sin(angle+headAngle)*headLength, thickness*0.85, col)
		o.drawLine(screen, tipX, tipY, tipX-math.Cos(angle-headAngle)*headLength, tipY-math.Sin(angle-headAngle)*headLength, thickness*0.85, col)
	}
}

func (o *Overlay) ensureSlopeSamples(size core.Size, scale int) bool {
	if o.slopeCacheW == size.W && o.slopeCacheH == size.H && o.slopeCacheScale == scale && len(o.slopeSamples) > 0 {
		return true
	}

	const (
		targetSamples = 360.0
		minSpacing    = 6
		maxSpacing    = 20
	)

	spacing := core.ClampInt(int(math.Sqrt(float64(size.W*size.H)/targetSamples)), minSpacing, maxSpacing)
	countX := max((size.W+spacing-1)/spacing, 1)
	countY := max((size.H+spacing-1)/spacing, 1)
	startX := max((size.W-1-(countX-1)*spacing)/2, 0)
	startY := max((size.H-1-(countY-1)*spacing)/2, 0)

	o.slopeSamples = o.slopeSamples[:0]
	for yi := 0; yi < countY; yi++ {
		cy := float64(min(startY+yi*spacing, size.H-1)) + 0.5
		for xi := 0; xi < countX; xi++ {
			cx := float64(min(startX+xi*spacing, size.W-1)) + 0.5
			o.slopeSamples = append(o.slopeSamples, slopeSample{cx: cx, cy: cy, sx: cx * float64(scale), sy: cy * float64(scale)})
		}
	}

	o.slopeCacheW = size.W
	o.slopeCacheH = size.H
	o.slopeCacheScale = scale
	o.slopePixelSpan = float64(spacing) * float64(scale)
	return len(o.slopeSamples) > 0
}

func (o *Overlay) drawPoint(screen *ebiten.Image, x, y, size float64, col color.RGBA) {
	if o.pixel == nil || size <= 0 {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(size, size)
	op.GeoM.Translate(x-size*0.5, y-size*0.5)
	op.ColorScale.Scale(float32(col.R)/255, float32(col.G)/255, float32(col.B)/255, float32(col.A)/255)
	screen.DrawImage(o.pixel, op)
}

func (o *Overlay) drawLine(screen *ebiten.Image, x1, y1, x2, y2, thickness float64, col color.RGBA) {
	if o.pixel == nil || thickness <= 0 {
		return
	}
	dx := x2 - x1
	dy := y2 - y1
	length := math.Hypot(dx, dy)
	if length <= 1e-4 {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(length, thickness)
	op.GeoM.Translate(0, -thickness/2)
	op.GeoM.Rotate(math.Atan2(dy, dx))
	op.GeoM.Translate(x1, y1)
	op.ColorScale.Scale(float32(col.R)/255, float32(col.G)/255, float32(col.B)/255, float32(col.A)/255)
	screen.DrawImage(o.pixel, op)
}

func interpolateColor(t float64) color.RGBA {
	t = clamp01(t)
	r := uint8(math.Round(80 + 70*t))
	g := uint8(math.Round(170 + 70*t))
	b := uint8(math.Round(230 + 20*t))
	a := uint8(math.Round(150 + 90*t))
	return color.RGBA{R: r, G: g, B: b, A: a}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
