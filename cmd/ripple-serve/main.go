package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ripple/internal/app"
	"ripple/internal/scene"
	"ripple/internal/stream"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	name := flag.String("sim", scene.Calm, "scene preset")
	tps := flag.Int("tps", 30, "simulation steps per second")
	seed := flag.Int64("seed", 42, "reset seed")
	foam := flag.Bool("foam", false, "include the foam mask in frames")
	var overrides app.KVList
	flag.Var(&overrides, "set", "scene option in key=value form (repeatable)")
	flag.Parse()

	sc, err := scene.Build(*name, overrides.Map())
	if err != nil {
		log.Fatal(err)
	}
	defer sc.Close()
	sc.Reset(*seed)

	srv := stream.NewServer(sc, *tps)
	srv.IncludeFoam = *foam

	httpServer := &http.Server{Addr: *addr, Handler: srv.Handler()}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("serving %s on %s (ws: /ws, stats: /stats)", sc.Name(), *addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Println("simulation stopped:", err)
	}

	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdown); err != nil {
		log.Println("shutdown:", err)
	}
}
