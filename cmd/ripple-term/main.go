package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"

	"ripple/internal/app"
	"ripple/internal/scene"
	"ripple/internal/term"
)

func main() {
	name := flag.String("sim", scene.Calm, "scene preset")
	tps := flag.Int("tps", 30, "simulation steps per second")
	seed := flag.Int64("seed", 42, "reset seed")
	sound := flag.Bool("sound", true, "chime when bodies hit the water")
	var overrides app.KVList
	flag.Var(&overrides, "set", "scene option in key=value form (repeatable)")
	flag.Parse()

	opts := overrides.Map()
	// A terminal shows about 80x48 half-block cells.
	if _, ok := opts["w"]; !ok {
		opts["w"] = "80"
	}
	if _, ok := opts["h"]; !ok {
		opts["h"] = "48"
	}
	sc, err := scene.Build(*name, opts)
	if err != nil {
		log.Fatal(err)
	}
	defer sc.Close()
	sc.Reset(*seed)

	screen, err := tcell.NewScreen()
	if err != nil {
		log.Fatal(err)
	}
	if err := screen.Init(); err != nil {
		log.Fatal(err)
	}
	defer screen.Fini()

	viewer := term.NewViewer(screen, sc, *tps)
	if *sound {
		chime := term.NewChime(0.5)
		if err := chime.Init(); err != nil {
			log.Println("sound disabled:", err)
		} else {
			defer chime.Close()
			viewer.SetSounder(chime)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := viewer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		screen.Fini()
		log.Fatal(err)
	}
}
