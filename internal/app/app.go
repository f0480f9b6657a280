//go:build ebiten

package app

import (
	"image/color"
	"log"
	"math"
	"time"

	"ripple/internal/buoyancy"
	"ripple/internal/core"
	"ripple/internal/render"
	"ripple/internal/ui"
	"ripple/internal/water"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// interactive is implemented by scenes that expose their water for mouse
// splashes and wave editing.
type interactive interface {
	Water() *water.Water
	DropBody() *buoyancy.Body
}

// Game adapts a water scene to the ebiten.Game interface.
type Game struct {
	sim     core.Sim
	scene   interactive
	painter *render.GridPainter
	style   render.WaterStyle
	overlay *ui.Overlay
	hud     *ui.HUD
	clock   *core.FixedStep
	rng     *core.RNG

	scale    int
	hudWidth int
	paused   bool
	tickOnce bool
	seed     int64
	lastCell [2]int
}

// New constructs a Game for the provided scene.
func New(sim core.Sim, scale, tps, hudWidth int, seed int64) *Game {
	size := sim.Size()
	g := &Game{
		sim:      sim,
		painter:  render.NewGridPainter(size.W, size.H),
		style:    render.DefaultStyle(),
		overlay:  ui.NewOverlay(sim, scale),
		clock:    core.NewFixedStep(tps),
		rng:      core.NewRNG(seed),
		scale:    max(scale, 1),
		hudWidth: max(hudWidth, 0),
		seed:     seed,
		lastCell: [2]int{-1, -1},
	}
	if g.hudWidth > 0 {
		g.hud = ui.NewHUD(sim, g.hudWidth)
	}
	if s, ok := sim.(interactive); ok {
		g.scene = s
	}
	return g
}

// Reset reinitializes the scene with the provided seed.
func (g *Game) Reset(seed int64) {
	g.seed = seed
	g.sim.Reset(seed)
	g.tickOnce = false
}

// Update handles input and advances the scene by one tick.
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyN) {
		g.tickOnce = true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.Reset(g.seed)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		g.Reset(time.Now().UnixNano())
	}
	if g.scene != nil {
		g.handleScene()
	}

	g.overlay.Update()
	g.hud.Update(g.viewWidth())

	if !g.paused || g.tickOnce {
		if err := g.sim.Step(g.clock.Delta()); err != nil {
			return err
		}
		g.tickOnce = false
	}
	return nil
}

func (g *Game) handleScene() {
	w := g.scene.Water()
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		w.ClearWaves()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyW) {
		angle := g.rng.Range(0, 2*math.Pi)
		id := w.AddPlaneWave(water.PlaneWaveParams{
			Direction:  mgl64.Vec2{math.Cos(angle), math.Sin(angle)},
			Wavelength: g.rng.Range(8, 32),
			Amplitude:  g.rng.Range(0.05, 0.25),
		})
		log.Printf("added %s wave in slot %d", id.Kind, id.Slot)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyB) {
		g.scene.DropBody()
	}

	left := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	right := ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight)
	if !left && !right {
		g.lastCell = [2]int{-1, -1}
		return
	}
	mx, my := ebiten.CursorPosition()
	size := g.sim.Size()
	cx, cy := mx/g.scale, my/g.scale
	if cx < 0 || cy < 0 || cx >= size.W || cy >= size.H {
		return
	}
	// One splash per cell while dragging.
	if g.lastCell == [2]int{cx, cy} {
		return
	}
	g.lastCell = [2]int{cx, cy}
	strength := -1.0
	if right {
		strength = 1.0
	}
	w.SplashCell(cx, cy, 3, strength)
}

// Draw renders the current water state.
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.Black)
	if g.scene != nil {
		w := g.scene.Water()
		g.painter.Blit(screen, w.Heights(), w.Normals(), w.Foam(), g.style, g.scale)
	} else {
		g.painter.Blit(screen, g.sim.Heights(), nil, nil, g.style, g.scale)
	}
	g.overlay.Draw(screen)
	g.hud.Draw(screen, g.viewWidth(), g.scale)
}

func (g *Game) viewWidth() int { return g.sim.Size().W * g.scale }

// Layout returns the logical screen size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	s := g.sim.Size()
	return s.W*g.scale + g.hudWidth, s.H * g.scale
}
