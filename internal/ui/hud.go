//go:build ebiten

package ui

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"
	"strings"

	"ripple/internal/core"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"
)

// HUD renders the water tunables to the right of the surface view. Rows are
// grouped under the snapshot's group names and scroll with the mouse wheel.
type HUD struct {
	sim    core.Sim
	width  int
	panel  *ebiten.Image
	pixel  *ebiten.Image
	title  string
	offset int
	scroll int

	setter core.FloatParameterSetter
	rows   []hudRow
	index  map[string]int
}

type hudRow struct {
	header  string
	control core.ParameterControl

	value    float64
	hasValue bool

	minus image.Rectangle
	plus  image.Rectangle
}

// NewHUD constructs a HUD for the provided simulation and panel width.
func NewHUD(sim core.Sim, width int) *HUD {
	h := &HUD{sim: sim, width: max(width, 0), index: map[string]int{}}
	if h.width > 0 {
		h.pixel = ebiten.NewImage(1, 1)
		h.pixel.Fill(color.White)
	}
	h.title = buildTitle(sim)
	if setter, ok := sim.(core.FloatParameterSetter); ok {
		h.setter = setter
	}
	h.buildRows()
	return h
}

// buildRows lays out one header row per parameter group followed by that
// group's adjustable controls.
func (h *HUD) buildRows() {
	ctrlProvider, ok := h.sim.(core.ParameterControlsProvider)
	if !ok {
		return
	}
	controls := map[string]core.ParameterControl{}
	for _, c := range ctrlProvider.ParameterControls() {
		if c.Type == core.ParamTypeFloat {
			controls[c.Key] = c
		}
	}
	snapProvider, ok := h.sim.(core.ParameterProvider)
	if !ok {
		return
	}
	for _, group := range snapProvider.Parameters().Groups {
		headerAdded := false
		for _, p := range group.Params {
			c, ok := controls[p.Key]
			if !ok {
				continue
			}
			if !headerAdded {
				h.rows = append(h.rows, hudRow{header: group.Name})
				headerAdded = true
			}
			h.index[c.Key] = len(h.rows)
			h.rows = append(h.rows, hudRow{control: c})
		}
	}
}

// Update refreshes values from the simulation and applies clicks on the
// +/- buttons.
func (h *HUD) Update(panelOffsetX int) {
	if h == nil {
		return
	}
	h.offset = panelOffsetX
	if provider, ok := h.sim.(core.ParameterProvider); ok {
		h.refresh(provider.Parameters())
	}
	mx, my := ebiten.CursorPosition()
	if mx < h.offset {
		return
	}
	if _, wy := ebiten.Wheel(); wy != 0 {
		h.scroll -= int(math.Round(wy)) * rowHeight
		h.scroll = core.ClampInt(h.scroll, 0, max(0, len(h.rows)*rowHeight-rowHeight))
	}
	if !inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		return
	}
	px, py := mx-h.offset, my+h.scroll
	for i := range h.rows {
		row := &h.rows[i]
		if row.header != "" || !row.hasValue {
			continue
		}
		switch {
		case image.Pt(px, py).In(row.minus):
			h.adjust(row, -1)
			return
		case image.Pt(px, py).In(row.plus):
			h.adjust(row, 1)
			return
		}
	}
}

func (h *HUD) refresh(snap core.ParameterSnapshot) {
	for i := range h.rows {
		h.rows[i].hasValue = false
	}
	for _, group := range snap.Groups {
		for _, p := range group.Params {
			i, ok := h.index[p.Key]
			if !ok {
				continue
			}
			v, err := strconv.ParseFloat(p.Value, 64)
			if err != nil {
				continue
			}
			h.rows[i].value = v
			h.rows[i].hasValue = true
		}
	}
}

func (h *HUD) adjust(row *hudRow, direction int) {
	target, ok := stepTarget(row.control, row.value, direction)
	if !ok || h.setter == nil {
		return
	}
	if h.setter.SetFloatParameter(row.control.Key, target) {
		row.value = target
	}
}

// stepTarget returns the value one step away in direction, clamped to the
// control bounds. It reports false when the value cannot move.
func stepTarget(c core.ParameterControl, value float64, direction int) (float64, bool) {
	step := c.Step
	if step <= 0 {
		step = 0.05
	}
	target := value + float64(direction)*step
	if c.HasMin {
		target = math.Max(target, c.Min)
	}
	if c.HasMax {
		target = math.Min(target, c.Max)
	}
	return target, math.Abs(target-value) > 1e-9
}

// Draw paints the HUD panel at offsetX.
func (h *HUD) Draw(screen *ebiten.Image, offsetX int, scale int) {
	if h == nil || h.width <= 0 {
		return
	}
	height := h.sim.Size().H * max(scale, 1)
	if height <= 0 {
		return
	}
	if h.panel == nil || h.panel.Bounds().Dy() != height {
		h.panel = ebiten.NewImage(h.width, height)
	}
	h.panel.Fill(color.RGBA{R: 16, G: 16, B: 20, A: 255})

	face := basicfont.Face7x13
	text.Draw(h.panel, h.title, face, panelPadding, panelPadding+headerBaseline, color.RGBA{R: 200, G: 200, B: 210, A: 255})
	if len(h.rows) == 0 {
		text.Draw(h.panel, "No adjustable parameters", face, panelPadding, panelPadding+headerBaseline+rowHeight, color.RGBA{R: 160, G: 160, B: 170, A: 255})
	}
	for i := range h.rows {
		row := &h.rows[i]
		top := rowsTop + i*rowHeight - h.scroll
		if top < rowsTop-rowHeight/2 || top > height {
			row.minus, row.plus = image.Rectangle{}, image.Rectangle{}
			continue
		}
		if row.header != "" {
			text.Draw(h.panel, strings.ToUpper(row.header), face, panelPadding, top+labelBaseline, color.RGBA{R: 120, G: 170, B: 210, A: 255})
			continue
		}
		h.layoutRow(row, top+h.scroll)
		text.Draw(h.panel, row.control.Label, face, panelPadding, top+labelBaseline, color.RGBA{R: 220, G: 220, B: 230, A: 255})
		value := "--"
		valueColor := color.RGBA{R: 160, G: 160, B: 170, A: 255}
		if row.hasValue {
			value = formatFloat(row.control.Step, row.value)
			valueColor = color.RGBA{R: 220, G: 220, B: 230, A: 255}
		}
		width := text.BoundString(face, value).Dx()
		text.Draw(h.panel, value, face, row.minus.Min.X-buttonGap-width, top+labelBaseline, valueColor)
		_, canDown := stepTarget(row.control, row.value, -1)
		_, canUp := stepTarget(row.control, row.value, 1)
		h.drawButton(row.minus.Sub(image.Pt(0, h.scroll)), "-", row.hasValue && canDown)
		h.drawButton(row.plus.Sub(image.Pt(0, h.scroll)), "+", row.hasValue && canUp)
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(offsetX), 0)
	screen.DrawImage(h.panel, op)
}

// layoutRow places the row's buttons in unscrolled panel coordinates.
func (h *HUD) layoutRow(row *hudRow, top int) {
	y := top + (rowHeight-buttonSize)/2
	row.plus = image.Rect(h.width-panelPadding-buttonSize, y, h.width-panelPadding, y+buttonSize)
	row.minus = image.Rect(row.plus.Min.X-buttonGap-buttonSize, y, row.plus.Min.X-buttonGap, y+buttonSize)
}

func (h *HUD) drawButton(rect image.Rectangle, label string, enabled bool) {
	if h.pixel == nil {
		return
	}
	bg := color.RGBA{R: 54, G: 56, B: 64, A: 255}
	fg := color.RGBA{R: 230, G: 230, B: 240, A: 255}
	if !enabled {
		bg = color.RGBA{R: 32, G: 34, B: 40, A: 255}
		fg = color.RGBA{R: 120, G: 120, B: 130, A: 255}
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(rect.Dx()), float64(rect.Dy()))
	op.GeoM.Translate(float64(rect.Min.X), float64(rect.Min.Y))
	op.ColorScale.ScaleWithColor(bg)
	h.panel.DrawImage(h.pixel, op)

	face := basicfont.Face7x13
	bounds := text.BoundString(face, label)
	x := rect.Min.X + (rect.Dx()-bounds.Dx())/2
	y := rect.Min.Y + (rect.Dy()-bounds.Dy())/2 + bounds.Dy()
	text.Draw(h.panel, label, face, x, y, fg)
}

func buildTitle(sim core.Sim) string {
	if sim == nil || sim.Name() == "" {
		return "Controls"
	}
	name := sim.Name()
	return fmt.Sprintf("%s Controls", strings.ToUpper(name[:1])+name[1:])
}

func formatFloat(step, value float64) string {
	precision := 1
	switch {
	case step <= 0:
		precision = 2
	case step < 0.001:
		precision = 4
	case step < 0.01:
		precision = 3
	case step < 0.1:
		precision = 2
	}
	return strconv.FormatFloat(value, 'f', precision, 64)
}

const (
	panelPadding   = 12
	rowHeight      = 24
	buttonSize     = 18
	buttonGap      = 6
	headerBaseline = 18
	labelBaseline  = 16
	rowsTop        = panelPadding + headerBaseline + 10
)
