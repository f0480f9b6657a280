// Package term draws a water scene in a terminal with half-block cells and
// turns mouse clicks into splashes.
package term

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl64"

	"ripple/internal/core"
	"ripple/internal/render"
	"ripple/internal/scene"
	"ripple/internal/water"
)

// Viewer owns the screen and the scene it shows.
type Viewer struct {
	screen tcell.Screen
	scene  *scene.Scene
	clock  *core.FixedStep
	style  render.WaterStyle
	sound  Sounder
	rng    *core.RNG

	paused   bool
	splashes int
	frame    water.Frame
}

// NewViewer binds sc to an initialised screen.
func NewViewer(screen tcell.Screen, sc *scene.Scene, tps int) *Viewer {
	return &Viewer{
		screen: screen,
		scene:  sc,
		clock:  core.NewFixedStep(tps),
		style:  render.DefaultStyle(),
		rng:    core.NewRNG(time.Now().UnixNano()),
	}
}

// SetSounder installs a splash cue; nil disables it.
func (v *Viewer) SetSounder(s Sounder) { v.sound = s }

// Paused reports whether stepping is suspended.
func (v *Viewer) Paused() bool { return v.paused }

// Run polls events and steps the scene until ctx is done or the user quits.
func (v *Viewer) Run(ctx context.Context) error {
	v.screen.EnableMouse()
	events := make(chan tcell.Event, 64)
	quit := make(chan struct{})
	defer close(quit)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-quit:
				return
			}
		}
	}()

	ticker := time.NewTicker(time.Duration(v.clock.Delta() * float64(time.Second)))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-events:
			if !v.HandleEvent(ev) {
				return nil
			}
		case now := <-ticker.C:
			for n := v.clock.Advance(now); n > 0; n-- {
				if err := v.Tick(); err != nil {
					return err
				}
			}
			v.Draw()
		}
	}
}

// Tick steps the scene once and sounds the chime for new body splashes.
func (v *Viewer) Tick() error {
	if v.paused {
		return nil
	}
	if err := v.scene.Step(v.clock.Delta()); err != nil {
		return err
	}
	if n := v.scene.Splashes(); n > v.splashes {
		if v.sound != nil {
			v.sound.Play(n - v.splashes)
		}
		v.splashes = n
	}
	return nil
}

// HandleEvent applies one input event. It returns false when the user asks
// to quit.
func (v *Viewer) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyRune:
			return v.handleRune(ev.Rune())
		}
	case *tcell.EventMouse:
		x, y := ev.Position()
		btn := ev.Buttons()
		switch {
		case btn&tcell.Button1 != 0:
			v.splashAt(x, y, -1)
		case btn&(tcell.Button2|tcell.Button3) != 0:
			v.splashAt(x, y, 1)
		}
	case *tcell.EventResize:
		v.screen.Sync()
	}
	return true
}

func (v *Viewer) handleRune(r rune) bool {
	w := v.scene.Water()
	switch r {
	case 'q':
		return false
	case ' ':
		v.paused = !v.paused
	case 'r':
		v.scene.Reset(0)
		v.splashes = 0
	case 'c':
		w.ClearWaves()
	case 'b':
		v.scene.DropBody()
	case 'w':
		angle := v.rng.Range(0, 2*math.Pi)
		w.AddPlaneWave(water.PlaneWaveParams{
			Direction:  mgl64.Vec2{math.Cos(angle), math.Sin(angle)},
			Wavelength: v.rng.Range(8, 32),
			Amplitude:  v.rng.Range(0.05, 0.25),
		})
	}
	return true
}

func (v *Viewer) splashAt(sx, sy int, strength float64) {
	gx, gy, ok := v.CellAt(sx, sy)
	if !ok {
		return
	}
	v.scene.Water().SplashCell(gx, gy, 3, strength)
}

// viewport returns the character columns and rows used for the water, one
// row short of the screen for the status line.
func (v *Viewer) viewport() (cols, rows int) {
	sw, sh := v.screen.Size()
	size := v.scene.Size()
	cols = min(sw, size.W)
	rows = min(sh-1, (size.H+1)/2)
	return max(cols, 0), max(rows, 0)
}

// CellAt maps a screen position to the grid cell drawn there. Each character
// covers two grid rows; the upper one is returned.
func (v *Viewer) CellAt(sx, sy int) (int, int, bool) {
	cols, rows := v.viewport()
	if sx < 0 || sy < 0 || sx >= cols || sy >= rows {
		return 0, 0, false
	}
	size := v.scene.Size()
	gx := sx * size.W / cols
	gy := min(sy*size.H/rows, size.H-1)
	return gx, gy, true
}

// Draw renders the water with upper half blocks: the foreground colours the
// top grid row of each character and the background the bottom row.
func (v *Viewer) Draw() {
	v.scene.Water().CopyFrame(&v.frame)
	v.screen.Clear()
	cols, rows := v.viewport()
	size := v.scene.Size()
	for sy := 0; sy < rows; sy++ {
		top := min(2*sy*size.H/(2*rows), size.H-1)
		bottom := min((2*sy+1)*size.H/(2*rows), size.H-1)
		for sx := 0; sx < cols; sx++ {
			gx := sx * size.W / cols
			fg := v.cellColor(gx, top)
			bg := v.cellColor(gx, bottom)
			st := tcell.StyleDefault.Foreground(fg).Background(bg)
			v.screen.SetContent(sx, sy, '▀', nil, st)
		}
	}
	v.drawStatus(rows)
	v.screen.Show()
}

func (v *Viewer) cellColor(x, y int) tcell.Color {
	w := v.frame.Width
	i := y*w + x
	if i < 0 || i >= len(v.frame.Heights) {
		return tcell.ColorBlack
	}
	var n mgl64.Vec3
	if 3*i+2 < len(v.frame.Normals) {
		n = mgl64.Vec3{float64(v.frame.Normals[3*i]), float64(v.frame.Normals[3*i+1]), float64(v.frame.Normals[3*i+2])}
	}
	foam := 0.0
	if i < len(v.frame.Foam) {
		foam = float64(v.frame.Foam[i])
	}
	c := render.WaterColor(float64(v.frame.Heights[i]), n, foam, v.style)
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

func (v *Viewer) drawStatus(row int) {
	st := v.scene.Stats()
	state := "run"
	if v.paused {
		state = "paused"
	}
	line := fmt.Sprintf(" %s %s t=%.1fs h=[%.2f,%.2f] bodies=%d splashes=%d  [space] pause [w]ave [c]lear [b]ody [r]eset [q]uit",
		v.scene.Name(), state, st.SimTime, st.MinHeight, st.MaxHeight, st.Bodies, st.Splashes)
	sw, _ := v.screen.Size()
	style := tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorBlack)
	x := 0
	for _, r := range line {
		if x >= sw {
			break
		}
		v.screen.SetContent(x, row, r, nil, style)
		x++
	}
}
