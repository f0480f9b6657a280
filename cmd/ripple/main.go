//go:build ebiten

package main

import (
	"errors"
	"flag"
	"io"
	"log"

	"ripple/internal/app"
	"ripple/internal/core"
	_ "ripple/internal/scene"

	"github.com/hajimehoshi/ebiten/v2"
)

func main() {
	cfg := app.NewConfig()
	cfg.Bind(flag.CommandLine)
	flag.Parse()

	factory, ok := core.Sims()[cfg.Sim]
	if !ok {
		log.Fatalf("unknown scene %q (have %v)", cfg.Sim, core.SimNames())
	}

	sim := factory(cfg.Options())
	sim.Reset(cfg.Seed)
	if c, ok := sim.(io.Closer); ok {
		defer c.Close()
	}

	game := app.New(sim, cfg.Scale, cfg.TPS, cfg.HUDWidth, cfg.Seed)
	size := sim.Size()

	ebiten.SetWindowTitle("ripple: " + sim.Name())
	ebiten.SetTPS(cfg.TPS)
	ebiten.SetWindowSize(size.W*cfg.Scale+max(cfg.HUDWidth, 0), size.H*cfg.Scale)

	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		log.Fatal(err)
	}
}
