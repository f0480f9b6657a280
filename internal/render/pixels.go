package render

import (
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// WaterStyle controls how heights, normals and foam map to colours.
type WaterStyle struct {
	Deep    color.RGBA
	Shallow color.RGBA
	Foam    color.RGBA

	// Light is the tangent-space direction towards the light.
	Light   mgl64.Vec3
	Ambient float64
	// HeightRange is the absolute height that maps fully to Deep or Shallow.
	HeightRange float64
	// FoamOpacity scales the foam blend.
	FoamOpacity float64
}

// DefaultStyle returns a blue-green sea palette lit from the upper left.
func DefaultStyle() WaterStyle {
	return WaterStyle{
		Deep:        color.RGBA{R: 12, G: 42, B: 92, A: 255},
		Shallow:     color.RGBA{R: 46, G: 150, B: 180, A: 255},
		Foam:        color.RGBA{R: 236, G: 244, B: 250, A: 255},
		Light:       mgl64.Vec3{-0.4, -0.5, 0.77}.Normalize(),
		Ambient:     0.35,
		HeightRange: 1,
		FoamOpacity: 0.85,
	}
}

// WaterColor shades one cell. n is the tangent-space normal and may be zero,
// in which case the cell is treated as flat.
func WaterColor(h float64, n mgl64.Vec3, foam float64, style WaterStyle) color.RGBA {
	rng := style.HeightRange
	if rng <= 0 {
		rng = 1
	}
	base := lerpRGBA(style.Deep, style.Shallow, clamp01(0.5+0.5*h/rng))

	if n.Len() < 1e-9 {
		n = mgl64.Vec3{0, 0, 1}
	}
	light := style.Light
	if light.Len() < 1e-9 {
		light = mgl64.Vec3{0, 0, 1}
	}
	lambert := math.Max(0, n.Normalize().Dot(light.Normalize()))
	shade := clamp01(style.Ambient + (1-style.Ambient)*lambert)
	lit := color.RGBA{
		R: scaleColorComponent(base.R, shade),
		G: scaleColorComponent(base.G, shade),
		B: scaleColorComponent(base.B, shade),
		A: base.A,
	}
	return lerpRGBA(lit, style.Foam, clamp01(foam*style.FoamOpacity))
}

// FillWaterRGBA writes shaded water pixels for every height into buf. normals
// holds three floats per cell and foam one; either may be short or nil.
func FillWaterRGBA(buf []byte, heights, normals, foam []float32, style WaterStyle) {
	for i, h := range heights {
		base := i * 4
		if base+3 >= len(buf) {
			return
		}
		var n mgl64.Vec3
		if 3*i+2 < len(normals) {
			n = mgl64.Vec3{float64(normals[3*i]), float64(normals[3*i+1]), float64(normals[3*i+2])}
		}
		f := 0.0
		if i < len(foam) {
			f = float64(foam[i])
		}
		col := WaterColor(float64(h), n, f, style)
		buf[base+0] = col.R
		buf[base+1] = col.G
		buf[base+2] = col.B
		buf[base+3] = col.A
	}
}

// FillMaskRGBA converts mask intensities in [0, 1] into translucent tinted
// pixels. Zero intensity is fully transparent.
func FillMaskRGBA(buf []byte, mask []float32, tint color.RGBA) {
	const (
		maxAlpha      = 140.0
		glowBase      = 0.35
		glowRange     = 0.65
		intensityBias = 0.75
	)
	for i, m := range mask {
		base := i * 4
		if base+3 >= len(buf) {
			return
		}
		intensity := clamp01(float64(m))
		if intensity == 0 {
			buf[base+0] = 0
			buf[base+1] = 0
			buf[base+2] = 0
			buf[base+3] = 0
			continue
		}
		alpha := uint8(math.Round(maxAlpha * math.Pow(intensity, intensityBias)))
		glow := glowBase + glowRange*math.Sqrt(intensity)
		buf[base+0] = scaleColorComponent(tint.R, glow)
		buf[base+1] = scaleColorComponent(tint.G, glow)
		buf[base+2] = scaleColorComponent(tint.B, glow)
		buf[base+3] = alpha
	}
}

func lerpRGBA(a, b color.RGBA, t float64) color.RGBA {
	t = clamp01(t)
	return color.RGBA{
		R: lerpComponent(a.R, b.R, t),
		G: lerpComponent(a.G, b.G, t),
		B: lerpComponent(a.B, b.B, t),
		A: lerpComponent(a.A, b.A, t),
	}
}

func lerpComponent(a, b uint8, t float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
}

func scaleColorComponent(value uint8, factor float64) uint8 {
	scaled := math.Round(float64(value) * factor)
	if scaled < 0 {
		return 0
	}
	if scaled > 255 {
		return 255
	}
	return uint8(scaled)
}

func clamp01(v float64) float64 {
	if v < 0 || v != v {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
