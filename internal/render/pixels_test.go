package render

import (
	"image/color"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestWaterColorFollowsHeight(t *testing.T) {
	style := DefaultStyle()
	style.Ambient = 1
	up := mgl64.Vec3{0, 0, 1}
	low := WaterColor(-style.HeightRange, up, 0, style)
	high := WaterColor(style.HeightRange, up, 0, style)
	if low != style.Deep {
		t.Fatalf("trough colour = %v, want %v", low, style.Deep)
	}
	if high != style.Shallow {
		t.Fatalf("crest colour = %v, want %v", high, style.Shallow)
	}
}

func TestWaterColorShadesAwayFromLight(t *testing.T) {
	style := DefaultStyle()
	facing := WaterColor(0, style.Light, 0, style)
	away := WaterColor(0, style.Light.Mul(-1), 0, style)
	if away.B >= facing.B {
		t.Fatalf("back-lit blue %d not darker than lit %d", away.B, facing.B)
	}
	flat := WaterColor(0, mgl64.Vec3{}, 0, style)
	if flat != WaterColor(0, mgl64.Vec3{0, 0, 1}, 0, style) {
		t.Fatal("zero normal should shade as flat")
	}
}

func TestWaterColorFoamBlend(t *testing.T) {
	style := DefaultStyle()
	style.FoamOpacity = 1
	if got := WaterColor(0, mgl64.Vec3{0, 0, 1}, 1, style); got != style.Foam {
		t.Fatalf("full foam = %v, want %v", got, style.Foam)
	}
}

func TestFillWaterRGBAHandlesMissingBuffers(t *testing.T) {
	heights := []float32{-1, 0, 1}
	buf := make([]byte, 4*len(heights))
	FillWaterRGBA(buf, heights, nil, nil, DefaultStyle())
	for i := range heights {
		if buf[4*i+3] != 255 {
			t.Fatalf("pixel %d alpha = %d, want opaque", i, buf[4*i+3])
		}
	}
	if buf[2] >= buf[10] {
		t.Fatalf("trough blue %d should be darker than crest %d", buf[2], buf[10])
	}

	short := make([]byte, 4)
	FillWaterRGBA(short, heights, nil, nil, DefaultStyle())
}

func TestFillMaskRGBA(t *testing.T) {
	mask := []float32{0, 0.5, 1, 2}
	buf := make([]byte, 4*len(mask))
	for i := range buf {
		buf[i] = 7
	}
	FillMaskRGBA(buf, mask, color.RGBA{R: 255, G: 255, B: 255})
	if buf[0] != 0 || buf[3] != 0 {
		t.Fatalf("zero intensity not transparent: %v", buf[:4])
	}
	if !(buf[7] > 0 && buf[7] < buf[11]) {
		t.Fatalf("alpha not increasing: %d, %d", buf[7], buf[11])
	}
	if buf[11] != buf[15] {
		t.Fatalf("intensity above one not clamped: %d vs %d", buf[11], buf[15])
	}
}
